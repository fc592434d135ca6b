package resolver

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"context"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/utils"
)

// The primary provider rotates the path segment its own client script
// uses to reach its API. The segment is recovered by scanning the script
// body for the call-site template.
var endpointPattern = regexp.MustCompile(`/(\w+)/\$\{encodeURIComponent\(url\)\}`)

// DefaultEndpointTTL is how long a discovered endpoint is trusted
// before it is re-scraped.
const DefaultEndpointTTL = time.Hour

// EndpointCache holds the single most-recent discovered endpoint.
// The mutex is held across the discovery fetch, so concurrent callers
// after expiry trigger exactly one re-scrape.
type EndpointCache struct {
	scriptURL string
	ttl       time.Duration
	client    *http.Client
	log       logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
}

func NewEndpointCache(scriptURL string, ttl time.Duration, client *http.Client, log logger.Logger) *EndpointCache {
	if ttl <= 0 {
		ttl = DefaultEndpointTTL
	}
	return &EndpointCache{
		scriptURL: scriptURL,
		ttl:       ttl,
		client:    client,
		log:       log,
		now:       time.Now,
	}
}

// Get returns the cached endpoint if it is still fresh, otherwise
// fetches the client script and extracts a new one.
func (c *EndpointCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.value != "" && now.Sub(c.fetchedAt) < c.ttl {
		c.log.Debug("using cached endpoint",
			logger.String("endpoint", c.value),
			logger.Duration("age", now.Sub(c.fetchedAt)))
		return c.value, nil
	}

	endpoint, err := c.discover(ctx)
	if err != nil {
		return "", err
	}

	c.value = endpoint
	c.fetchedAt = now
	c.log.Info("discovered endpoint",
		logger.String("endpoint", endpoint))
	return endpoint, nil
}

// Invalidate clears the cached value so the next Get re-scrapes.
// Called by the primary resolver when a value obtained here produced a
// stale-looking upstream response.
func (c *EndpointCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = ""
	c.fetchedAt = time.Time{}
}

// Age returns how long ago the current value was discovered.
// ok is false when nothing is cached.
func (c *EndpointCache) Age() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == "" {
		return 0, false
	}
	return c.now().Sub(c.fetchedAt), true
}

func (c *EndpointCache) discover(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scriptURL, nil)
	if err != nil {
		return "", domain.NewError(domain.KindDiscovery, domain.ProviderPrimary, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if k := domain.ClassifyTransport(err); k == domain.KindTimeout {
			return "", domain.NewError(domain.KindTimeout, domain.ProviderPrimary,
				fmt.Errorf("fetching client script: %w", err))
		}
		return "", domain.NewError(domain.KindDiscovery, domain.ProviderPrimary,
			fmt.Errorf("fetching client script: %w", err))
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", domain.Errorf(domain.KindDiscovery, domain.ProviderPrimary,
			"client script returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewError(domain.KindDiscovery, domain.ProviderPrimary,
			fmt.Errorf("reading client script: %w", err))
	}

	m := endpointPattern.FindSubmatch(body)
	if m == nil {
		return "", domain.Errorf(domain.KindDiscovery, domain.ProviderPrimary,
			"endpoint pattern not found in client script (%d bytes)", len(body))
	}
	return string(m[1]), nil
}
