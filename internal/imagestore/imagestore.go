// Package imagestore downloads gallery images to a local directory for
// quality-control review.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var extRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)($|\?)`)

type Store struct {
	root   string
	client *http.Client
	logger *slog.Logger
}

func New(root string) *Store {
	return &Store{
		root:   root,
		client: &http.Client{Timeout: 25 * time.Second},
		logger: slog.Default().With("component", "imagestore"),
	}
}

// Save writes each URL's payload to <root>/<asin>/image_<n>.<ext>. A failed
// download is skipped; only directory creation is fatal.
func (s *Store) Save(ctx context.Context, asin string, urls []string) error {
	dir := filepath.Join(s.root, asin)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}

	for i, u := range urls {
		if err := s.download(ctx, u, filepath.Join(dir, fmt.Sprintf("image_%d%s", i+1, extractExt(u)))); err != nil {
			s.logger.Warn("image download skipped", "asin", asin, "url", u, "error", err)
		}
	}
	return nil
}

func (s *Store) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

func extractExt(u string) string {
	if m := extRe.FindStringSubmatch(u); m != nil {
		return "." + strings.ToLower(m[1])
	}
	return ".jpg"
}
