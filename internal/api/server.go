// Package api exposes the scrape pipeline over HTTP for callers that want
// per-ASIN results without running the batch CLI.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pdplab/amazon-pdp-scraper/internal/config"
)

func NewServer(cfg config.ServerConfig, h *Handlers) *http.Server {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape", h.Scrape)
	})

	return &http.Server{
		Addr:        cfg.Host + ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: cfg.ReadTimeout,
		// Scrapes are synchronous; the write timeout must cover a full
		// page visit including retries.
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
