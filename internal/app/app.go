package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sorarelay/sorarelay/internal/config"
	"github.com/sorarelay/sorarelay/internal/httpserver"
	"github.com/sorarelay/sorarelay/internal/httpserver/deps"
	"github.com/sorarelay/sorarelay/internal/logger"
	"github.com/sorarelay/sorarelay/internal/mediacache"
	"github.com/sorarelay/sorarelay/internal/proxy"
	"github.com/sorarelay/sorarelay/internal/redis"
	"github.com/sorarelay/sorarelay/internal/resolver"
	"github.com/sorarelay/sorarelay/internal/sources/providers"
	redisstore "github.com/sorarelay/sorarelay/internal/store/redis"
	"github.com/sorarelay/sorarelay/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDialTimeout,
		ReadTimeout:    cfg.RedisReadTimeout,
		WriteTimeout:   cfg.RedisWriteTimeout,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	// Load provider wiring (defaults, optionally overlaid from file)
	providerCfg, err := providers.NewLoader(cfg.ProvidersFile).Load()
	if err != nil {
		loggerClient.Errorf("Failed to load providers file: %v", err)
		os.Exit(1)
	}

	// Resolution pipeline
	endpoints := resolver.NewEndpointCache(
		providerCfg.Primary.ScriptURL,
		cfg.EndpointTTL,
		&http.Client{Timeout: 15 * time.Second},
		loggerClient,
	)
	primary := resolver.NewPrimary(
		providerCfg.Primary.APIBase,
		endpoints,
		&http.Client{Timeout: providerCfg.Primary.Timeout},
		loggerClient,
	)
	fallback := resolver.NewFallback(
		providerCfg.Fallback.APIBase,
		providerCfg.Fallback.Origin,
		providerCfg.Fallback.Referer,
		&http.Client{Timeout: providerCfg.Fallback.Timeout},
		loggerClient,
	)
	watermark := resolver.NewWatermark(
		providerCfg.Watermark.Endpoint,
		providerCfg.Watermark.ProxyBase,
		providerCfg.Watermark.Referer,
		&http.Client{Timeout: providerCfg.Watermark.Timeout},
		loggerClient,
	)
	resolverService := resolver.New(
		[]resolver.Resolver{primary, fallback},
		watermark,
		loggerClient,
	)

	// Serving pipeline
	store := redisstore.NewStore(redisClient, cfg.RecordTTL)
	cache := mediacache.New(cfg.MediaCacheSize, cfg.MediaCacheTTL)
	media := proxy.New(cache, store,
		&http.Client{Timeout: cfg.MediaFetchTimeout}, loggerClient)

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		Resolver:         resolverService,
		Media:            media,
		Store:            store,
		MediaCache:       cache,
		PublicBaseURL:    cfg.PublicBaseURL,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		RateBurst:        cfg.RateBurst,
		RateRefillPerMin: cfg.RateRefillPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting sorarelay v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("sorarelay %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ sorarelay stopped cleanly")
	return nil
}
