package deps

import (
	"context"
	"time"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/mediacache"
	redisstore "github.com/sorarelay/sorarelay/internal/store/redis"
)

// VideoResolver is the resolution surface handlers depend on.
// Satisfied by *resolver.Service.
type VideoResolver interface {
	ResolveStandard(ctx context.Context, raw string) (*domain.Result, error)
	ResolveAlternate(ctx context.Context, raw string) (*domain.Result, error)
}

// MediaServer is the proxy surface handlers depend on.
// Satisfied by *proxy.Proxy.
type MediaServer interface {
	Serve(ctx context.Context, id string) (data []byte, contentType string, hit bool, err error)
}

// RecordStore is the persistence surface handlers depend on.
// Satisfied by *redisstore.Store.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec *redisstore.Record) error
	IncrementDownloads(ctx context.Context, provider domain.Provider) error
	DownloadCounts(ctx context.Context) (map[string]int64, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Resolver   VideoResolver
	Media      MediaServer
	Store      RecordStore
	MediaCache *mediacache.Cache // direct handle for the stats endpoint

	PublicBaseURL string   // base for proxy links; empty = derive from request
	AllowedCIDRS  []string // IPs allowed to read the stats endpoint
	TrustProxy    bool     // true if running behind a trusted reverse proxy

	RateBurst        int // resolve endpoint token bucket capacity
	RateRefillPerMin int // resolve endpoint refill rate per client IP
}
