package parser

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

// Parser fills the textual fields of a product record from a rendered page
// snapshot. Gallery discovery is handled separately.
type Parser interface {
	ParseFields(doc *goquery.Document, rawHTML string, rec *models.ProductRecord)
}
