package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdplab/amazon-pdp-scraper/internal/config"
	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

type stubScraper struct {
	rec *models.ProductRecord
	err error
}

func (s *stubScraper) Scrape(_ context.Context, asin string) (*models.ProductRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rec != nil {
		return s.rec, nil
	}
	return models.NewRecord(asin), nil
}

func (s *stubScraper) Close() error { return nil }

func newTestServer(s *stubScraper) *http.Server {
	h := NewHandlers(s, slog.Default())
	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, h)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubScraper{})
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestScrapeHandler(t *testing.T) {
	rec := models.NewRecord("B0EXAMPLE1")
	rec.Title = "Steel Water Bottle"
	rec.Images = []string{"https://m.media-amazon.com/images/I/a1._SL1200_.jpg"}
	rec.ImageCount = 1

	srv := newTestServer(&stubScraper{rec: rec})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape",
		strings.NewReader(`{"asin":"B0EXAMPLE1"}`))
	srv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ScrapeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Record)
	assert.Equal(t, "B0EXAMPLE1", resp.Record.ASIN)
	assert.Equal(t, 1, resp.Record.ImageCount)
	assert.Empty(t, resp.Error)
}

func TestScrapeHandlerPageFailureIsOK(t *testing.T) {
	rec := models.NewRecord("B0EXAMPLE1")
	rec.Fail("page did not load")

	srv := newTestServer(&stubScraper{rec: rec})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape",
		strings.NewReader(`{"asin":"B0EXAMPLE1"}`))
	srv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "page-level failures still return the record")
	var resp ScrapeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Record)
	assert.Equal(t, models.StatusError, resp.Record.Status)
}

func TestScrapeHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing asin", body: `{}`},
		{name: "empty asin", body: `{"asin":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubScraper{})
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(tt.body))
			srv.Handler.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestScrapeHandlerBackendError(t *testing.T) {
	srv := newTestServer(&stubScraper{err: errors.New("browser session closed")})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape",
		strings.NewReader(`{"asin":"B0EXAMPLE1"}`))
	srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp ScrapeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "browser session closed", resp.Error)
}
