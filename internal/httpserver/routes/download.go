package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/httpserver/handlers"
	"github.com/sorarelay/sorarelay/internal/httpserver/mw"
)

func init() { Register(registerDownload) }

func registerDownload(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RateRefillPerMin,
		TrustProxy:        d.TrustProxy,
	})
	r.With(limit).Post("/api/download", handlers.Download(d))
}
