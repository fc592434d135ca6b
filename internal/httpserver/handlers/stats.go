package handlers

import (
	"net/http"
	"time"

	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/mediacache"
)

type statsResponse struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	MediaCache    mediacache.Stats `json:"media_cache"`
	Downloads     map[string]int64 `json:"downloads"`
}

// Stats exposes cache and download counters. Gated by CIDR middleware
// at route registration.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := d.Store.DownloadCounts(r.Context())
		if err != nil {
			d.Logger.Warn("failed to read download counters", logger.Error(err))
			counts = map[string]int64{}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, statsResponse{
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			MediaCache:    d.MediaCache.Stats(),
			Downloads:     counts,
		})
	}
}
