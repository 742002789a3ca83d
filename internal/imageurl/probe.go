package imageurl

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const probeTimeout = 25 * time.Second

// probeHeaders mimic a desktop browser; the image CDN serves some size
// variants only to browser-looking clients.
var probeHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
	"Accept-Language": "en-IN,en;q=0.9",
}

// Prober fetches image candidates and decodes their pixel dimensions to pick
// the variant that actually meets a resolution target.
type Prober struct {
	client *http.Client
	logger *slog.Logger
}

func NewProber() *Prober {
	return &Prober{
		client: &http.Client{Timeout: probeTimeout},
		logger: slog.Default().With("component", "image_prober"),
	}
}

// ChooseHighRes probes the candidate ladder for u and returns the first
// variant whose larger dimension meets targetPx. If none does, the candidate
// with the largest decoded area wins; if every fetch or decode fails, u is
// returned unchanged. targetPx <= 0 disables probing.
func (p *Prober) ChooseHighRes(ctx context.Context, u string, targetPx int) string {
	if targetPx <= 0 {
		return u
	}

	bestURL, bestArea := u, 0
	for _, cand := range CandidateURLs(u) {
		w, h, err := p.fetchDimensions(ctx, cand)
		if err != nil {
			p.logger.Debug("probe candidate skipped", "url", cand, "error", err)
			continue
		}
		if area := w * h; area > bestArea {
			bestURL, bestArea = cand, area
		}
		if max(w, h) >= targetPx {
			return cand
		}
	}
	return bestURL
}

func (p *Prober) fetchDimensions(ctx context.Context, u string) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}
	for k, v := range probeHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
