// Package output shapes product records into the long tabular format: one
// physical row per (product, image) pair.
package output

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

// Columns is the fixed output column order.
var Columns = []string{
	"ASIN", "Brand", "Title",
	"Bullet_1", "Bullet_2", "Bullet_3", "Bullet_4", "Bullet_5",
	"Description", "MRP", "Selling_Price", "Deal_Name",
	"EBC_Content", "Has_Video",
	"Technical_Details", "Whats_in_the_Box",
	"Review_Count", "Average_Rating", "Questions_Count", "Best_Sellers_Rank",
	"Seller", "Variation_Data",
	"Image_Index", "Image_URL", "Image_Count", "Status", "Error_Message",
}

// Rows fans a record out into CSV rows in Columns order. A record with N
// images yields N rows that differ only in image index and URL; a record with
// no images yields exactly one row with index 0 and an empty URL, so failed
// products are never silently dropped.
func Rows(rec *models.ProductRecord) [][]string {
	base := baseFields(rec)

	if len(rec.Images) == 0 {
		return [][]string{append(base, "0", "", strconv.Itoa(rec.ImageCount), string(rec.Status), rec.ErrorMessage)}
	}

	rows := make([][]string, 0, len(rec.Images))
	for i, url := range rec.Images {
		row := make([]string, len(base), len(Columns))
		copy(row, base)
		row = append(row, strconv.Itoa(i+1), url, strconv.Itoa(rec.ImageCount), string(rec.Status), rec.ErrorMessage)
		rows = append(rows, row)
	}
	return rows
}

func baseFields(rec *models.ProductRecord) []string {
	return []string{
		rec.ASIN, rec.Brand, rec.Title,
		rec.Bullet(0), rec.Bullet(1), rec.Bullet(2), rec.Bullet(3), rec.Bullet(4),
		rec.Description, rec.MRP, rec.SellingPrice, rec.DealName,
		yesNo(rec.EBCContent), yesNo(rec.HasVideo),
		marshalSorted(toAnyMap(rec.TechnicalDetails)), rec.WhatsInTheBox,
		rec.ReviewCount, rec.AverageRating, rec.QuestionsCount, rec.BestSellersRank,
		rec.Seller, marshalSorted(rec.VariationData),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// marshalSorted serializes a map with deterministic key order so output rows
// are stable across runs.
func marshalSorted(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(m[k])
		if err != nil {
			vb = []byte(`null`)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return string(append(buf, '}'))
}
