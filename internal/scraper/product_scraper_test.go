package scraper

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdplab/amazon-pdp-scraper/internal/imageurl"
	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

// testScraper builds a ProductScraper whose page visit is replaced by stub.
// No browser is launched.
func testScraper(stub func(ctx context.Context, asin string, opts Options) *models.ProductRecord) *ProductScraper {
	return &ProductScraper{
		prober:     imageurl.NewProber(),
		logger:     slog.Default().With("component", "product_scraper"),
		retryDelay: 0,
		attempt:    stub,
	}
}

func failingRecord(asin, msg string) *models.ProductRecord {
	rec := models.NewRecord(asin)
	rec.Fail(msg)
	return rec
}

func TestScrapeWithOptionsInvalidASIN(t *testing.T) {
	tests := []struct {
		name string
		asin string
	}{
		{name: "too short", asin: "B0ABC"},
		{name: "too long", asin: "B0ABCDEFGH1"},
		{name: "bad characters", asin: "B0ABC-EFG1"},
		{name: "empty", asin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := testScraper(func(context.Context, string, Options) *models.ProductRecord {
				t.Fatal("page visit must not run for an invalid ASIN")
				return nil
			})

			rec, err := ps.ScrapeWithOptions(context.Background(), tt.asin, Options{})
			require.NoError(t, err, "invalid input is a record-level error, not a pipeline error")
			assert.True(t, rec.Failed())
			assert.Equal(t, ErrInvalidASIN.Error(), rec.ErrorMessage)
			assert.Zero(t, rec.ImageCount)
		})
	}
}

func TestScrapeWithOptionsNormalizesASIN(t *testing.T) {
	var got string
	ps := testScraper(func(_ context.Context, asin string, _ Options) *models.ProductRecord {
		got = asin
		rec := models.NewRecord(asin)
		rec.Images = []string{"https://m.media-amazon.com/images/I/a1._SL1200_.jpg"}
		rec.ImageCount = 1
		return rec
	})

	_, err := ps.ScrapeWithOptions(context.Background(), "  b0example1 ", Options{})
	require.NoError(t, err)
	assert.Equal(t, "B0EXAMPLE1", got)
}

func TestScrapeRetriesForceEscalation(t *testing.T) {
	var calls []Options
	ps := testScraper(func(_ context.Context, asin string, opts Options) *models.ProductRecord {
		calls = append(calls, opts)
		return failingRecord(asin, "blocked")
	})

	rec, err := ps.ScrapeWithOptions(context.Background(), "B0EXAMPLE1",
		Options{Retries: 2, AllowHover: false, Thorough: false})
	require.NoError(t, err)

	require.Len(t, calls, 3, "initial attempt plus two retries")
	assert.False(t, calls[0].AllowHover)
	assert.False(t, calls[0].Thorough)
	for _, c := range calls[1:] {
		assert.True(t, c.AllowHover, "retries force hover escalation on")
		assert.True(t, c.Thorough, "retries force click escalation on")
	}

	// The last attempt's record is final even when it failed.
	assert.True(t, rec.Failed())
	assert.Equal(t, "blocked", rec.ErrorMessage)
}

func TestScrapeRetriesOnZeroImages(t *testing.T) {
	calls := 0
	ps := testScraper(func(_ context.Context, asin string, _ Options) *models.ProductRecord {
		calls++
		rec := models.NewRecord(asin)
		if calls == 2 {
			rec.Images = []string{"https://m.media-amazon.com/images/I/a1.jpg"}
			rec.ImageCount = 1
		}
		return rec
	})

	rec, err := ps.ScrapeWithOptions(context.Background(), "B0EXAMPLE1", Options{Retries: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "retrying stops once an attempt yields images")
	assert.Equal(t, 1, rec.ImageCount)
}

func TestScrapeNoRetryOnCleanSuccess(t *testing.T) {
	calls := 0
	ps := testScraper(func(_ context.Context, asin string, _ Options) *models.ProductRecord {
		calls++
		rec := models.NewRecord(asin)
		rec.Images = []string{"https://m.media-amazon.com/images/I/a1.jpg"}
		rec.ImageCount = 1
		return rec
	})

	_, err := ps.ScrapeWithOptions(context.Background(), "B0EXAMPLE1", Options{Retries: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScrapeStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	ps := testScraper(func(_ context.Context, asin string, _ Options) *models.ProductRecord {
		calls++
		cancel()
		return failingRecord(asin, "blocked")
	})

	rec, err := ps.ScrapeWithOptions(ctx, "B0EXAMPLE1", Options{Retries: 4})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation preempts further retries")
	require.NotNil(t, rec)
	assert.True(t, rec.Failed())
}

func TestNeedsRetry(t *testing.T) {
	ok := models.NewRecord("B0EXAMPLE1")
	ok.Images = []string{"https://m.media-amazon.com/images/I/a1.jpg"}
	ok.ImageCount = 1
	assert.False(t, needsRetry(ok))

	degraded := models.NewRecord("B0EXAMPLE1")
	assert.True(t, needsRetry(degraded), "zero-image success is retryable")

	assert.True(t, needsRetry(failingRecord("B0EXAMPLE1", "blocked")))
}

func TestCollectGalleryEscalationGatedByOptIns(t *testing.T) {
	ps := testScraper(nil)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	// With both opt-ins off and nothing harvested, escalation must never
	// touch the page; a nil page would panic if it did.
	assert.Nil(t, ps.collectGallery(doc, nil, Options{AllowHover: false, Thorough: false}))
}

func TestCollectGalleryPassiveResultSkipsEscalation(t *testing.T) {
	html := `<html><body><div id="altImages"><ul class="a-unordered-list">
		<li><img class="imageThumbnail" src="https://m.media-amazon.com/images/I/a1._US40_.jpg"></li>
	</ul></div></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	ps := testScraper(nil)
	// Escalation opt-ins are on, but the rail already produced candidates,
	// so the nil page is never consulted.
	got := ps.collectGallery(doc, nil, Options{AllowHover: true, Thorough: true})
	assert.Equal(t, []string{"https://m.media-amazon.com/images/I/a1.jpg"}, got)
}

func TestFinalizeImages(t *testing.T) {
	ps := testScraper(nil)
	opts := Options{CanonicalSize: 1200}

	got := ps.finalizeImages(context.Background(), []string{
		"https://images-na.ssl-images-amazon.com/images/I/a1._SX466_.jpg",
		"https://m.media-amazon.com/images/I/b2.jpg",
		// Same key as the first URL at another size; must collapse.
		"https://m.media-amazon.com/images/I/a1._SL1500_.jpg",
	}, opts)

	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/a1._SL1200_.jpg",
		"https://m.media-amazon.com/images/I/b2._SL1200_.jpg",
	}, got)
}
