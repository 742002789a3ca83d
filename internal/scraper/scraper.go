package scraper

import (
	"context"
	"errors"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

var (
	ErrInvalidASIN   = errors.New("invalid ASIN")
	ErrPageLoad      = errors.New("page failed to load")
	ErrPageNotReady  = errors.New("page did not become ready")
	ErrSessionClosed = errors.New("browser session closed")
)

// Scraper runs the whole extraction pipeline for one product identifier.
// A returned record always has a terminal status; the error return is
// reserved for infrastructure failures (browser gone), not page-level ones.
type Scraper interface {
	Scrape(ctx context.Context, asin string) (*models.ProductRecord, error)
	Close() error
}

// Options are the per-run knobs honored by the pipeline.
type Options struct {
	CanonicalSize int
	ProbeTargetPx int
	AllowHover    bool
	Thorough      bool
	Retries       int
}
