package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
)

// DefaultPrimaryTimeout bounds each primary API call.
const DefaultPrimaryTimeout = 25 * time.Second

// Primary resolves through the main extraction service. Its API lives
// behind a rotating path segment discovered via the endpoint cache;
// a stale segment makes the API answer with an HTML page instead of
// JSON, which triggers one rediscovery and one retry.
type Primary struct {
	apiBase   string
	endpoints *EndpointCache
	client    *http.Client
	log       logger.Logger
}

func NewPrimary(apiBase string, endpoints *EndpointCache, client *http.Client, log logger.Logger) *Primary {
	if client == nil {
		client = &http.Client{Timeout: DefaultPrimaryTimeout}
	}
	return &Primary{
		apiBase:   strings.TrimRight(apiBase, "/"),
		endpoints: endpoints,
		client:    client,
		log:       log,
	}
}

func (p *Primary) Name() domain.Provider { return domain.ProviderPrimary }

func (p *Primary) Resolve(ctx context.Context, src *domain.Source) (*domain.Result, error) {
	endpoint, err := p.endpoints.Get(ctx)
	if err != nil {
		return nil, err
	}

	res, stale, err := p.attempt(ctx, endpoint, src)
	if !stale {
		return res, err
	}

	// Stale endpoint suspected: clear the cache, discover a fresh value
	// and retry exactly once.
	p.log.Warn("primary response looks stale, rediscovering endpoint",
		logger.String("video_id", src.VideoID),
		logger.Error(err))
	p.endpoints.Invalidate()

	fresh, derr := p.endpoints.Get(ctx)
	if derr != nil {
		return nil, derr
	}

	res, _, err = p.attempt(ctx, fresh, src)
	return res, err
}

// attempt performs one API call. stale reports that the response shape
// suggests the endpoint segment has rotated (non-2xx or HTML-for-JSON);
// the caller decides whether a retry is still allowed.
func (p *Primary) attempt(ctx context.Context, endpoint string, src *domain.Source) (res *domain.Result, stale bool, err error) {
	apiURL := fmt.Sprintf("%s/%s/%s", p.apiBase, endpoint, src.CleanURL())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, false, domain.NewError(domain.KindUnknown, domain.ProviderPrimary, err)
	}

	resp, err := doJSON(p.client, req, domain.ProviderPrimary)
	if err != nil {
		return nil, false, err
	}

	contentType := resp.Header.Get("Content-Type")
	htmlBody := strings.Contains(contentType, "text/html")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || htmlBody {
		drainAndClose(resp)
		if htmlBody {
			return nil, true, domain.Errorf(domain.KindMalformed, domain.ProviderPrimary,
				"got HTML (HTTP %d) where JSON was expected", resp.StatusCode)
		}
		kind := domain.ClassifyStatus(resp.StatusCode)
		return nil, true, domain.Errorf(kind, domain.ProviderPrimary,
			"API returned HTTP %d", resp.StatusCode)
	}

	payload, err := decodeLinks(domain.ProviderPrimary, resp.Body)
	drainAndClose(resp)
	if err != nil {
		return nil, false, err
	}

	if payload.Links.MP4 == "" {
		return nil, false, domain.Errorf(domain.KindMalformed, domain.ProviderPrimary,
			"no mp4 link in response")
	}

	p.log.Debug("primary resolved",
		logger.String("video_id", src.VideoID),
		logger.String("media_url", payload.Links.MP4))

	return &domain.Result{
		MediaURL: payload.Links.MP4,
		Title:    domain.NormalizeTitle(payload.title()),
		Provider: domain.ProviderPrimary,
	}, false, nil
}
