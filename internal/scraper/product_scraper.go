package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"github.com/pdplab/amazon-pdp-scraper/internal/browser"
	"github.com/pdplab/amazon-pdp-scraper/internal/config"
	"github.com/pdplab/amazon-pdp-scraper/internal/gallery"
	"github.com/pdplab/amazon-pdp-scraper/internal/imagestore"
	"github.com/pdplab/amazon-pdp-scraper/internal/imageurl"
	"github.com/pdplab/amazon-pdp-scraper/internal/models"
	"github.com/pdplab/amazon-pdp-scraper/internal/parser"
)

const readySelector = "#productTitle, #title"

var asinRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ProductScraper drives one page visit per product: navigate, settle, parse
// the snapshot, run the gallery pipeline, canonicalize. Retries re-run the
// whole visit with escalation forced on.
type ProductScraper struct {
	browser *browser.Browser
	parser  parser.Parser
	prober  *imageurl.Prober
	store   *imagestore.Store
	cfg     config.ScraperConfig
	logger  *slog.Logger

	retryDelay time.Duration

	// attempt is the single-visit pipeline; overridable in tests.
	attempt func(ctx context.Context, asin string, opts Options) *models.ProductRecord
}

func NewProductScraper(b *browser.Browser, cfg config.ScraperConfig) *ProductScraper {
	ps := &ProductScraper{
		browser: b,
		parser:  parser.NewAmazonParser(),
		prober:  imageurl.NewProber(),
		store:   imagestore.New(cfg.ImagesDir),
		cfg:     cfg,
		logger:  slog.Default().With("component", "product_scraper"),

		retryDelay: time.Second,
	}
	ps.attempt = ps.scrapeOnce
	return ps
}

// Scrape runs the full pipeline with the configured retry policy. A retry is
// a complete re-execution from navigation; nothing carries over, and hover
// and click escalation are force-enabled regardless of configuration. The
// final attempt's record is returned even when it is an error record.
func (ps *ProductScraper) Scrape(ctx context.Context, asin string) (*models.ProductRecord, error) {
	opts := Options{
		CanonicalSize: ps.cfg.CanonicalSize,
		ProbeTargetPx: ps.cfg.ProbeTargetPx,
		AllowHover:    ps.cfg.AllowHover,
		Thorough:      ps.cfg.Thorough,
		Retries:       ps.cfg.Retries,
	}
	return ps.ScrapeWithOptions(ctx, asin, opts)
}

func (ps *ProductScraper) ScrapeWithOptions(ctx context.Context, asin string, opts Options) (*models.ProductRecord, error) {
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if !asinRe.MatchString(asin) {
		rec := models.NewRecord(asin)
		rec.Fail(ErrInvalidASIN.Error())
		return rec, nil
	}

	rec := ps.attempt(ctx, asin, opts)

	for attempt := 0; attempt < opts.Retries && needsRetry(rec); attempt++ {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		ps.logger.Info("retrying product", "asin", asin, "attempt", attempt+1)
		time.Sleep(ps.retryDelay)

		forced := opts
		forced.AllowHover = true
		forced.Thorough = true
		rec = ps.attempt(ctx, asin, forced)
	}

	return rec, nil
}

// needsRetry: a page-level error or a degraded zero-image success both
// qualify for another attempt.
func needsRetry(rec *models.ProductRecord) bool {
	return rec.Failed() || rec.ImageCount == 0
}

// scrapeOnce performs one complete page visit. Any failure past this point
// is folded into the record's status; the page is always closed.
func (ps *ProductScraper) scrapeOnce(ctx context.Context, asin string, opts Options) *models.ProductRecord {
	rec := models.NewRecord(asin)

	page, err := ps.browser.NewPage()
	if err != nil {
		rec.Fail(fmt.Sprintf("failed to create page: %v", err))
		return rec
	}
	defer page.Close()

	url := fmt.Sprintf("%s/dp/%s", strings.TrimRight(ps.cfg.MarketplaceURL, "/"), asin)
	ps.logger.Info("scraping product", "asin", asin, "url", url)

	if err := ps.browser.Navigate(page, url, ps.cfg.PageLoadTimeout); err != nil {
		rec.Fail(fmt.Sprintf("%v: %v", ErrPageLoad, err))
		return rec
	}

	ps.browser.DismissPopups(page)

	if err := ps.browser.WaitForSelector(page, readySelector, ps.cfg.ReadyWaitTimeout); err != nil {
		rec.Fail(fmt.Sprintf("%v: %v", ErrPageNotReady, err))
		return rec
	}

	html, err := page.Content()
	if err != nil {
		rec.Fail(fmt.Sprintf("failed to snapshot page: %v", err))
		return rec
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		rec.Fail(fmt.Sprintf("failed to parse snapshot: %v", err))
		return rec
	}

	ps.parser.ParseFields(doc, html, rec)

	raw := ps.collectGallery(doc, page, opts)
	rec.Images = ps.finalizeImages(ctx, raw, opts)
	rec.ImageCount = len(rec.Images)

	if ps.cfg.SaveImages && rec.ImageCount > 0 {
		if err := ps.store.Save(ctx, asin, rec.Images); err != nil {
			ps.logger.Warn("failed to save images locally", "asin", asin, "error", err)
		}
	}

	ps.logger.Info("scraped product", "asin", asin, "images", rec.ImageCount)
	return rec
}

// collectGallery runs the passive harvesters, reconciles them, and escalates
// to live interaction only when reconciliation came up empty and the
// corresponding opt-in is set.
func (ps *ProductScraper) collectGallery(doc *goquery.Document, page playwright.Page, opts Options) []string {
	rail := gallery.FromThumbnailRail(doc)
	manifest := gallery.FromImageBlockScripts(doc)

	urls := gallery.Reconcile(rail, manifest)
	if len(urls) > 0 {
		return urls
	}
	if !opts.AllowHover && !opts.Thorough {
		return nil
	}

	ps.logger.Debug("passive gallery extraction empty, escalating",
		"hover", opts.AllowHover, "click", opts.Thorough)
	return gallery.NewEscalator(page).Collect(opts.AllowHover, opts.Thorough).URLs()
}

// finalizeImages optionally upgrades each URL via the resolution probe, then
// canonicalizes and deduplicates while preserving first-seen order.
func (ps *ProductScraper) finalizeImages(ctx context.Context, urls []string, opts Options) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if opts.ProbeTargetPx > 0 {
			u = ps.prober.ChooseHighRes(ctx, u, opts.ProbeTargetPx)
		}
		c := imageurl.Canonicalize(u, opts.CanonicalSize)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (ps *ProductScraper) Close() error {
	return ps.browser.Close()
}
