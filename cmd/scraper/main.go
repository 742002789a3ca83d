package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdplab/amazon-pdp-scraper/internal/browser"
	"github.com/pdplab/amazon-pdp-scraper/internal/config"
	"github.com/pdplab/amazon-pdp-scraper/internal/dedup"
	"github.com/pdplab/amazon-pdp-scraper/internal/models"
	"github.com/pdplab/amazon-pdp-scraper/internal/output"
	"github.com/pdplab/amazon-pdp-scraper/internal/ratelimit"
	"github.com/pdplab/amazon-pdp-scraper/internal/scraper"
	"github.com/pdplab/amazon-pdp-scraper/internal/storage"
	"github.com/pdplab/amazon-pdp-scraper/pkg/logger"
)

func main() {
	var (
		inputFile  = flag.String("file", "", "CSV (ASIN column) or text file of ASINs, one per line")
		asins      = flag.String("asins", "", "Comma-separated list of ASINs to scrape")
		outPath    = flag.String("out", "amazon_full_product_data.csv", "Output CSV path (long format)")
		slSize     = flag.Int("sl", 1200, "Canonical _SL{size}_ for image URLs (floor 200)")
		targetPx   = flag.Int("target-px", 0, "Probe for a real image >= this many px (0 disables)")
		allowHover = flag.Bool("allow-hover", false, "Try a hover pass when passive extraction yields 0 images")
		thorough   = flag.Bool("thorough", false, "Also try a click pass if needed (slower)")
		saveImages = flag.Bool("save-images", false, "Download images to disk for QC")
		imagesDir  = flag.String("images-dir", "images", "Folder for -save-images")
		delayMs    = flag.Int("delay-ms", 400, "Delay between products (ms)")
		retries    = flag.Int("retries", 1, "Retries on failure or 0 images")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.Scraper.CanonicalSize = *slSize
	cfg.Scraper.ProbeTargetPx = *targetPx
	cfg.Scraper.AllowHover = *allowHover
	cfg.Scraper.Thorough = *thorough
	cfg.Scraper.SaveImages = *saveImages
	cfg.Scraper.ImagesDir = *imagesDir
	cfg.Scraper.InterProductWait = time.Duration(*delayMs) * time.Millisecond
	cfg.Scraper.Retries = *retries

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting product scraper")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	list, err := loadASINs(*asins, *inputFile)
	if err != nil {
		logger.Error("failed to load ASINs", "error", err)
		os.Exit(1)
	}
	if len(list) == 0 {
		fmt.Println("No ASINs to process. Use -asins or -file to specify products to scrape.")
		flag.Usage()
		os.Exit(1)
	}

	b, err := browser.New(&browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
		UserAgent:      browser.DefaultOptions().UserAgent,
		ExtraHeaders:   browser.DefaultOptions().ExtraHeaders,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	var db *storage.DB
	if cfg.Database.Enabled() {
		db, err = storage.New(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	var skip *dedup.Deduplicator
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		skip = dedup.New(rdb, cfg.Redis.SeenTTL)
	}

	outFile, err := os.Create(*outPath)
	if err != nil {
		logger.Error("failed to create output file", "path", *outPath, "error", err)
		os.Exit(1)
	}
	defer outFile.Close()
	writer := output.NewCSVWriter(outFile)

	ps := scraper.NewProductScraper(b, cfg.Scraper)
	limiter := ratelimit.New(cfg.Scraper.InterProductWait)

	logger.Info("starting scrape run", "products", len(list))

	for i, asin := range list {
		if ctx.Err() != nil {
			logger.Info("context cancelled, stopping run")
			break
		}

		if seen, err := skip.Seen(ctx, asin); err != nil {
			logger.Warn("dedup check failed, scraping anyway", "asin", asin, "error", err)
		} else if seen {
			logger.Info("skipping already-scraped product", "asin", asin)
			continue
		}

		logger.Info("processing product", "asin", asin, "index", i+1, "total", len(list))

		rec, err := ps.Scrape(ctx, asin)
		if err != nil {
			logger.Error("scrape aborted", "asin", asin, "error", err)
			break
		}

		if rec.Status == models.StatusSuccess {
			logger.Info("product scraped", "asin", asin, "images", rec.ImageCount)
		} else {
			logger.Error("product failed", "asin", asin, "error", rec.ErrorMessage)
			// Let a later run pick this ASIN up again.
			if err := skip.Forget(ctx, asin); err != nil {
				logger.Warn("failed to clear dedup mark", "asin", asin, "error", err)
			}
		}

		if err := writer.WriteRecord(rec); err != nil {
			logger.Error("failed to write output rows", "asin", asin, "error", err)
		}
		if db != nil {
			if err := db.SaveRecord(ctx, rec); err != nil {
				logger.Error("failed to persist record", "asin", asin, "error", err)
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			break
		}
	}

	if err := writer.Flush(); err != nil {
		logger.Error("failed to flush output", "error", err)
		os.Exit(1)
	}
	logger.Info("scrape run finished", "output", *outPath)
}

func loadASINs(asins, inputFile string) ([]string, error) {
	var list []string

	if asins != "" {
		for _, a := range strings.Split(asins, ",") {
			if a = strings.TrimSpace(a); a != "" {
				list = append(list, a)
			}
		}
	}

	if inputFile != "" {
		fromFile, err := output.ReadASINs(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", inputFile, err)
		}
		list = append(list, fromFile...)
	}

	return list, nil
}
