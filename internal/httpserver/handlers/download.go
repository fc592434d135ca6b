package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/logger"
	redisstore "github.com/sorarelay/sorarelay/internal/store/redis"
	"github.com/sorarelay/sorarelay/internal/utils"
)

type downloadRequest struct {
	URL             string `json:"url"`
	RemoveWatermark bool   `json:"removeWatermark"`
}

type downloadResponse struct {
	ID        string `json:"id,omitempty"`
	VideoURL  string `json:"videoUrl"`
	DirectURL string `json:"directUrl"`
	Title     string `json:"title,omitempty"`
	APIUsed   string `json:"apiUsed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Download resolves a Sora share link and persists a record so the
// result can later be streamed through the proxy endpoint.
func Download(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req downloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Sole admission gate: nothing leaves the process for input
		// that does not look like a Sora share link.
		if !domain.ValidShareLink(req.URL) {
			writeJSONError(w, http.StatusBadRequest, "invalid Sora share link")
			return
		}

		var res *domain.Result
		var err error
		if req.RemoveWatermark {
			res, err = d.Resolver.ResolveAlternate(ctx, req.URL)
		} else {
			res, err = d.Resolver.ResolveStandard(ctx, req.URL)
		}
		if err != nil {
			status, msg := mapResolveError(err)
			writeJSONError(w, status, msg)
			return
		}

		rec := &redisstore.Record{
			SourceURL: req.URL,
			MediaURL:  res.MediaURL,
			Title:     res.Title,
			Provider:  res.Provider,
			Origin:    redisstore.OriginWeb,
			ClientIP:  utils.ClientIP(r, d.TrustProxy),
		}

		resp := downloadResponse{
			VideoURL:  res.MediaURL,
			DirectURL: res.MediaURL,
			Title:     res.Title,
			APIUsed:   string(res.Provider),
		}

		if err := d.Store.SaveRecord(ctx, rec); err != nil {
			// Persistence is best effort here: the caller still gets
			// the direct link, it just won't proxy.
			d.Logger.Warn("failed to save record, returning direct link",
				logger.Error(err))
		} else {
			resp.ID = rec.ID
			resp.VideoURL = proxyURL(d, r, rec.ID)
		}

		if err := d.Store.IncrementDownloads(ctx, res.Provider); err != nil {
			d.Logger.Debug("failed to bump download counter", logger.Error(err))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// proxyURL builds the same-origin media URL for a record id.
func proxyURL(d deps.Deps, r *http.Request, id string) string {
	base := d.PublicBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/video/%s", base, id)
}

// mapResolveError turns a classified resolution failure into an HTTP
// status and a stable message. Malformed and unknown failures collapse
// into one generic answer on purpose.
func mapResolveError(err error) (int, string) {
	switch domain.RootKind(err) {
	case domain.KindInvalidSource:
		return http.StatusBadRequest, "invalid Sora share link"
	case domain.KindNotFound:
		return http.StatusNotFound, "video not found or deleted"
	case domain.KindForbidden:
		return http.StatusForbidden, "video is private or restricted"
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, "upstream timed out"
	case domain.KindDiscovery, domain.KindServerError:
		return http.StatusBadGateway, "extraction service unavailable"
	default:
		return http.StatusBadGateway, "failed to resolve video"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
