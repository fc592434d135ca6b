// Package proxy serves previously resolved media through the relay's
// own origin, so clients never talk to the extraction providers' hosts
// directly.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/mediacache"
	"github.com/sorarelay/sorarelay/internal/utils"
)

var (
	// ErrNotFound means no record maps the id to an upstream URL.
	ErrNotFound = errors.New("media not found")
	// ErrUnavailable means the upstream media fetch itself failed.
	ErrUnavailable = errors.New("media unavailable")
)

const (
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultContentType = "video/mp4"

	// DefaultFetchTimeout bounds the full-body upstream fetch.
	DefaultFetchTimeout = 60 * time.Second
)

// UpstreamLookup resolves an opaque id to the last known direct media
// URL. Implemented by the record store.
type UpstreamLookup interface {
	FindUpstreamURL(ctx context.Context, id string) (string, bool, error)
}

// Proxy is the cache-first serving layer. A miss buffers the entire
// upstream body in memory before answering; correctness over
// throughput is the point of this component. Concurrent misses on the
// same id may each fetch upstream; Put is idempotent so the last one
// wins harmlessly.
type Proxy struct {
	cache  *mediacache.Cache
	lookup UpstreamLookup
	client *http.Client
	log    logger.Logger
}

func New(cache *mediacache.Cache, lookup UpstreamLookup, client *http.Client, log logger.Logger) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Proxy{
		cache:  cache,
		lookup: lookup,
		client: client,
		log:    log,
	}
}

// Serve returns the media bytes for id. hit reports whether the bytes
// came from the cache; a cache hit performs no network I/O at all.
func (p *Proxy) Serve(ctx context.Context, id string) (data []byte, contentType string, hit bool, err error) {
	if data, contentType, ok := p.cache.Get(id); ok {
		p.log.Debug("cache hit", logger.String("id", id), logger.Int("bytes", len(data)))
		return data, contentType, true, nil
	}

	upstreamURL, ok, err := p.lookup.FindUpstreamURL(ctx, id)
	if err != nil {
		return nil, "", false, fmt.Errorf("looking up upstream url: %w", err)
	}
	if !ok {
		return nil, "", false, ErrNotFound
	}

	data, contentType, err = p.fetch(ctx, upstreamURL)
	if err != nil {
		p.log.Warn("upstream fetch failed",
			logger.String("id", id),
			logger.Error(err))
		return nil, "", false, err
	}

	p.cache.Put(id, data, contentType)
	p.log.Info("cached media",
		logger.String("id", id),
		logger.Int("bytes", len(data)))
	return data, contentType, false, nil
}

// fetch buffers the complete body from upstreamURL. No retries: a
// failed fetch surfaces immediately as ErrUnavailable.
func (p *Proxy) fetch(ctx context.Context, upstreamURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstreamURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: upstream HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return data, contentType, nil
}
