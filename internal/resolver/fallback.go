package resolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
)

// DefaultFallbackTimeout bounds each fallback API call.
const DefaultFallbackTimeout = 20 * time.Second

// Fallback resolves through the secondary extraction service. It is
// consulted only after the primary has failed entirely. Unlike the
// primary there is no moving endpoint to discover and a non-success
// status is a hard failure with no retry.
type Fallback struct {
	apiBase string
	origin  string // the host insists on a matching Origin/Referer pair
	referer string
	client  *http.Client
	log     logger.Logger
}

func NewFallback(apiBase, origin, referer string, client *http.Client, log logger.Logger) *Fallback {
	if client == nil {
		client = &http.Client{Timeout: DefaultFallbackTimeout}
	}
	return &Fallback{
		apiBase: strings.TrimRight(apiBase, "/"),
		origin:  origin,
		referer: referer,
		client:  client,
		log:     log,
	}
}

func (f *Fallback) Name() domain.Provider { return domain.ProviderFallback }

func (f *Fallback) Resolve(ctx context.Context, src *domain.Source) (*domain.Result, error) {
	apiURL := f.apiBase + "/api-proxy/" + url.QueryEscape(src.CleanURL())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindUnknown, domain.ProviderFallback, err)
	}
	req.Header.Set("Origin", f.origin)
	req.Header.Set("Referer", f.referer)

	resp, err := doJSON(f.client, req, domain.ProviderFallback)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp)
		kind := domain.ClassifyStatus(resp.StatusCode)
		return nil, domain.Errorf(kind, domain.ProviderFallback,
			"API returned HTTP %d", resp.StatusCode)
	}

	payload, err := decodeLinks(domain.ProviderFallback, resp.Body)
	drainAndClose(resp)
	if err != nil {
		return nil, err
	}

	if payload.Links.MP4 == "" {
		return nil, domain.Errorf(domain.KindMalformed, domain.ProviderFallback,
			"no mp4 link in response")
	}

	f.log.Debug("fallback resolved",
		logger.String("video_id", src.VideoID),
		logger.String("media_url", payload.Links.MP4))

	return &domain.Result{
		MediaURL: payload.Links.MP4,
		Title:    domain.NormalizeTitle(payload.title()),
		Provider: domain.ProviderFallback,
	}, nil
}
