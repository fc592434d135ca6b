package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/httpserver/handlers"
	"github.com/sorarelay/sorarelay/internal/httpserver/mw"
)

func init() { Register(registerStats) }

func registerStats(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).
		Get("/api/stats", handlers.Stats(d))
}
