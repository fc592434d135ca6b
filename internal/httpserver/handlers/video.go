package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/proxy"
)

// Video streams the media bytes for a previously resolved id through
// the relay's own origin.
func Video(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		data, contentType, hit, err := d.Media.Serve(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, proxy.ErrNotFound):
				http.Error(w, "video not found", http.StatusNotFound)
			case errors.Is(err, proxy.ErrUnavailable):
				http.Error(w, "video unavailable", http.StatusBadGateway)
			default:
				d.Logger.Error("serve failed",
					logger.String("id", id),
					logger.Error(err))
				http.Error(w, "server error", http.StatusInternalServerError)
			}
			return
		}

		cacheState := "MISS"
		if hit {
			cacheState = "HIT"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", "inline")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Cache", cacheState)
		_, _ = w.Write(data)
	}
}
