package models

import "time"

type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// ProductRecord holds everything extracted from one product detail page visit.
// A retry builds a fresh record; records are never partially merged.
type ProductRecord struct {
	ASIN string `json:"asin"`

	Brand       string   `json:"brand"`
	Title       string   `json:"title"`
	Bullets     []string `json:"bullets"`
	Description string   `json:"description"`

	MRP          string `json:"mrp"`
	SellingPrice string `json:"selling_price"`
	DealName     string `json:"deal_name"`

	EBCContent bool `json:"ebc_content"`
	HasVideo   bool `json:"has_video"`

	TechnicalDetails map[string]string `json:"technical_details"`
	WhatsInTheBox    string            `json:"whats_in_the_box"`

	ReviewCount     string `json:"review_count"`
	AverageRating   string `json:"average_rating"`
	QuestionsCount  string `json:"questions_count"`
	BestSellersRank string `json:"best_sellers_rank"`
	Seller          string `json:"seller"`

	VariationData map[string]any `json:"variation_data"`

	Images     []string `json:"images"`
	ImageCount int      `json:"image_count"`

	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// BulletCount is the fixed number of bullet columns in the output.
const BulletCount = 5

func NewRecord(asin string) *ProductRecord {
	return &ProductRecord{
		ASIN:             asin,
		Bullets:          make([]string, BulletCount),
		TechnicalDetails: make(map[string]string),
		VariationData:    make(map[string]any),
		Images:           make([]string, 0),
		Status:           StatusSuccess,
		ScrapedAt:        time.Now(),
	}
}

// Bullet returns the i-th bullet (0-based) or "" when the slice is short, so
// callers never index past it.
func (r *ProductRecord) Bullet(i int) string {
	if i < 0 || i >= len(r.Bullets) {
		return ""
	}
	return r.Bullets[i]
}

// Fail marks the record as errored with msg.
func (r *ProductRecord) Fail(msg string) {
	r.Status = StatusError
	r.ErrorMessage = msg
}

func (r *ProductRecord) Failed() bool {
	return r.Status == StatusError
}
