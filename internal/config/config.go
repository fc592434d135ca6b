package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	PublicBaseURL   string        // base URL for proxy links (ex: https://relay.domain.ext); empty = derive from request

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ProvidersFile string // optional YAML overriding provider endpoints/timeouts

	EndpointTTL       time.Duration // how long a discovered endpoint is trusted
	MediaCacheSize    int           // max media payloads held in memory
	MediaCacheTTL     time.Duration // per-payload TTL
	MediaFetchTimeout time.Duration // upstream full-body fetch timeout
	RecordTTL         time.Duration // how long resolution records stay dereferencable

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisReadTimeout    time.Duration
	RedisWriteTimeout   time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration

	// Rate limiting on the resolve endpoint
	RateBurst        int
	RateRefillPerMin int

	AllowedCIDRS []string // IPs allowed to read the stats endpoint
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SORA_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SORA_SHUTDOWN_TIMEOUT", 5*time.Second),
		PublicBaseURL:   strings.TrimRight(getenv("SORA_PUBLIC_BASE_URL", ""), "/"),

		// Logging
		LogLevel:  getenv("SORA_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SORA_PRETTY_LOG", true),

		// Providers
		ProvidersFile: getenv("SORA_PROVIDERS_FILE", ""),

		// Caches
		EndpointTTL:       mustDuration("SORA_ENDPOINT_TTL", time.Hour),
		MediaCacheSize:    getenvInt("SORA_MEDIA_CACHE_SIZE", 50),
		MediaCacheTTL:     mustDuration("SORA_MEDIA_CACHE_TTL", time.Hour),
		MediaFetchTimeout: mustDuration("SORA_MEDIA_FETCH_TIMEOUT", 60*time.Second),
		RecordTTL:         mustDuration("SORA_RECORD_TTL", 7*24*time.Hour),

		// Redis settings
		RedisAddr:           requireEnv("SORA_REDIS_ADDR"),
		RedisUser:           getenv("SORA_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SORA_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SORA_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("SORA_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:    mustDuration("SORA_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout:   mustDuration("SORA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("SORA_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("SORA_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("SORA_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("SORA_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("SORA_REDIS_PING_TIMEOUT", 5*time.Second),

		// Rate limiting
		RateBurst:        getenvInt("SORA_RATE_BURST", 5),
		RateRefillPerMin: getenvInt("SORA_RATE_REFILL_PER_MIN", 10),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("SORA_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SORA_TRUST_PROXY", true),
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
