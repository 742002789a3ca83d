package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

type AmazonParser struct {
	bsrRe           *regexp.Regexp
	hasVideoRe      *regexp.Regexp
	variationDataRe *regexp.Regexp
	dimensionValsRe *regexp.Regexp
	twisterDpxRe    *regexp.Regexp
}

func NewAmazonParser() *AmazonParser {
	return &AmazonParser{
		bsrRe:           regexp.MustCompile(`#\d[\d,]* in [^<\n]+`),
		hasVideoRe:      regexp.MustCompile(`(?i)"hasVideo"\s*:\s*true`),
		variationDataRe: regexp.MustCompile(`(?s)var\s+data\s*=\s*(\{.*?"variationValues".*?\})\s*;`),
		dimensionValsRe: regexp.MustCompile(`(?s)"dimensionValuesDisplayData"\s*:\s*(\{.*?\})`),
		twisterDpxRe:    regexp.MustCompile(`(?s)"twister-js-init-dpx-data"\s*:\s*(\{.*?\})`),
	}
}

// ParseFields populates every textual field of rec from the snapshot. Each
// sub-parse is independent; a field that cannot be found is simply left at
// its zero value.
func (p *AmazonParser) ParseFields(doc *goquery.Document, rawHTML string, rec *models.ProductRecord) {
	rec.Title = firstText(doc, []string{"#productTitle", "#title #productTitle"})
	rec.Brand = firstText(doc, []string{"#bylineInfo", "a#bylineInfo"})
	rec.Bullets = p.ExtractBullets(doc)
	rec.Description = p.ExtractDescription(doc)

	rec.MRP, rec.SellingPrice, rec.DealName = p.ExtractPricing(doc)
	rec.EBCContent = p.HasEBCContent(doc)
	rec.HasVideo = p.HasVideo(doc, rawHTML)

	rec.TechnicalDetails = p.ExtractTechnicalDetails(doc)
	rec.WhatsInTheBox = p.ExtractBoxContents(doc, rec.Bullets)

	rec.ReviewCount, rec.AverageRating, rec.QuestionsCount = p.ExtractReviewBlock(doc)
	rec.BestSellersRank = p.ExtractBestSellersRank(doc, rawHTML)
	rec.Seller = p.ExtractSeller(doc)
	rec.VariationData = p.ExtractVariations(doc)
}

// ExtractBullets returns exactly BulletCount entries, padding with empty
// strings when the feature list is short.
func (p *AmazonParser) ExtractBullets(doc *goquery.Document) []string {
	bullets := make([]string, 0, models.BulletCount)
	doc.Find("#feature-bullets ul li span.a-list-item").Each(func(_ int, s *goquery.Selection) {
		if len(bullets) >= models.BulletCount {
			return
		}
		if t := cleanText(s.Text()); t != "" {
			bullets = append(bullets, t)
		}
	})
	for len(bullets) < models.BulletCount {
		bullets = append(bullets, "")
	}
	return bullets
}

func (p *AmazonParser) ExtractDescription(doc *goquery.Document) string {
	if desc := cleanText(doc.Find("#productDescription, #productDescription_feature_div").First().Text()); desc != "" {
		return desc
	}
	return cleanText(doc.Find("#aplus, .aplus, .aplus-module-wrapper").First().Text())
}

func (p *AmazonParser) ExtractPricing(doc *goquery.Document) (mrp, selling, deal string) {
	mrp = cleanText(doc.Find("span.a-text-strike, span.priceBlockStrikePriceString").First().Text())

	selling = firstText(doc, []string{
		"#corePriceDisplay_desktop_feature_div .a-price .a-offscreen",
		"#pdp-ipr .a-price .a-offscreen",
		"#priceblock_dealprice",
		"#priceblock_ourprice",
		"#priceblock_saleprice",
		".a-price .a-offscreen",
	})

	deal = firstText(doc, []string{
		"#dealBadge span", "span.dealBadgeText", "#dealBadgeBadgeType",
		"#dealPriceBadge", ".savingsPercentage",
	})
	return mrp, selling, deal
}

// HasEBCContent reports whether the page carries enhanced brand (A+) content.
func (p *AmazonParser) HasEBCContent(doc *goquery.Document) bool {
	return doc.Find("#aplus, .aplus, .aplus-module-wrapper").Length() > 0
}

func (p *AmazonParser) HasVideo(doc *goquery.Document, rawHTML string) bool {
	if doc.Find("#video-block, #ivImagesTab, #videoGallery, iframe[src*='amazon']").Length() > 0 {
		return true
	}
	return p.hasVideoRe.MatchString(rawHTML)
}

func (p *AmazonParser) ExtractTechnicalDetails(doc *goquery.Document) map[string]string {
	tech := make(map[string]string)
	doc.Find("#productDetails_techSpec_section_1 tr, .prodDetTable tr, #productDetails_detailBullets_sections1 tr").
		Each(func(_ int, row *goquery.Selection) {
			key, val := detailRow(row)
			if key != "" && val != "" {
				tech[key] = val
			}
		})
	return tech
}

// ExtractBoxContents looks for an "in the box"/"included" detail row first and
// falls back to a matching feature bullet.
func (p *AmazonParser) ExtractBoxContents(doc *goquery.Document, bullets []string) string {
	var found string
	doc.Find("#productDetails_detailBullets_sections1 tr, #productDetails_techSpec_section_1 tr, .prodDetTable tr").
		EachWithBreak(func(_ int, row *goquery.Selection) bool {
			key, val := detailRow(row)
			lower := strings.ToLower(key)
			if key != "" && (strings.Contains(lower, "in the box") || strings.Contains(lower, "included")) {
				found = val
				return false
			}
			return true
		})
	if found != "" {
		return found
	}

	for _, b := range bullets {
		lb := strings.ToLower(b)
		if strings.Contains(lb, "in the box") || strings.HasPrefix(lb, "includes") {
			return b
		}
	}
	return ""
}

func (p *AmazonParser) ExtractReviewBlock(doc *goquery.Document) (reviewCount, avgRating, questions string) {
	reviewCount = cleanText(doc.Find("#acrCustomerReviewText").First().Text())
	avgRating = cleanText(doc.Find("span.a-icon-alt").First().Text())
	questions = firstText(doc, []string{"#askATFLink span", "#askATFLink"})
	return reviewCount, avgRating, questions
}

func (p *AmazonParser) ExtractBestSellersRank(doc *goquery.Document, rawHTML string) string {
	var rank string
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(cleanText(th.Text()), "Best Sellers Rank") {
			return true
		}
		if td := th.NextFiltered("td"); td.Length() > 0 {
			rank = cleanText(td.Text())
			return false
		}
		return true
	})
	if rank != "" {
		return rank
	}
	return p.bsrRe.FindString(rawHTML)
}

func (p *AmazonParser) ExtractSeller(doc *goquery.Document) string {
	if seller := cleanText(doc.Find("#sellerProfileTriggerId").First().Text()); seller != "" {
		return seller
	}
	return firstText(doc, []string{"#bylineInfo", "a#bylineInfo"})
}

// ExtractVariations merges the variation maps embedded in the twister script
// blocks. A block that fails to decode contributes nothing.
func (p *AmazonParser) ExtractVariations(doc *goquery.Document) map[string]any {
	out := make(map[string]any)
	doc.Find("script").Each(func(_ int, sc *goquery.Selection) {
		body := sc.Text()
		if body == "" {
			return
		}
		if strings.Contains(body, "variationValues") {
			if m := p.variationDataRe.FindStringSubmatch(body); m != nil {
				var data struct {
					VariationValues map[string]any `json:"variationValues"`
				}
				if err := json.Unmarshal([]byte(m[1]), &data); err == nil {
					mergeInto(out, data.VariationValues)
				}
			}
		}
		if strings.Contains(body, "dimensionValuesDisplayData") {
			if m := p.dimensionValsRe.FindStringSubmatch(body); m != nil {
				var data map[string]any
				if err := json.Unmarshal([]byte(m[1]), &data); err == nil {
					mergeInto(out, data)
				}
			}
		}
		if strings.Contains(body, "twister-js-init-dpx-data") {
			if m := p.twisterDpxRe.FindStringSubmatch(body); m != nil {
				var data map[string]any
				if err := json.Unmarshal([]byte(m[1]), &data); err == nil {
					mergeInto(out, data)
				}
			}
		}
	})
	return out
}

func mergeInto(dst map[string]any, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// firstText returns the first non-empty trimmed text among the selectors.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := cleanText(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// detailRow extracts the (label, value) pair from one specification table row.
func detailRow(row *goquery.Selection) (string, string) {
	key := row.Find("th").First().Text()
	if key == "" {
		key = row.Find("td.label").First().Text()
	}
	val := row.Find("td.value").First().Text()
	if val == "" {
		val = row.Find("td").First().Text()
	}
	key = strings.TrimSuffix(cleanText(key), ":")
	return cleanText(key), cleanText(val)
}

// cleanText collapses whitespace and strips the RTL marks Amazon embeds in
// detail tables.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "‏", "")
	s = strings.ReplaceAll(s, "‎", "")
	return strings.Join(strings.Fields(s), " ")
}
