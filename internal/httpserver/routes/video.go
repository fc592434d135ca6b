package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/httpserver/handlers"
)

func init() { Register(registerVideo) }

func registerVideo(r chi.Router, d deps.Deps) {
	r.Get("/api/video/{id}", handlers.Video(d))
}
