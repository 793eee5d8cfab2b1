package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.od2.network/bearergw/pkg/authgw"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Auth gateway config.
const (
	ConfAuthgwBackend        = "authgw.backend"
	ConfAuthgwStaticFile     = "authgw.static_file"
	ConfAuthgwRedisPrefix    = "authgw.redis_prefix"
	ConfAuthgwLookupTimeout  = "authgw.lookup_timeout"
	ConfAuthgwRealm          = "authgw.realm"
	ConfAuthgwCacheSize      = "authgw.cache.size"
	ConfAuthgwCacheTTL       = "authgw.cache.ttl"
	ConfAuthgwCacheStreamKey = "authgw.cache.stream_key"
	ConfAuthgwCacheBacklog   = "authgw.cache.backlog"
)

// Token store backends.
const (
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
	BackendStatic = "static"
)

func init() {
	viper.SetDefault(ConfAuthgwBackend, BackendMySQL)
	viper.SetDefault(ConfAuthgwStaticFile, "tokens.toml")
	viper.SetDefault(ConfAuthgwRedisPrefix, "oauth:access_token:")
	viper.SetDefault(ConfAuthgwLookupTimeout, 2*time.Second)
	viper.SetDefault(ConfAuthgwRealm, "")
	viper.SetDefault(ConfAuthgwCacheSize, 1024)
	viper.SetDefault(ConfAuthgwCacheTTL, time.Minute)
	viper.SetDefault(ConfAuthgwCacheStreamKey, "")
	viper.SetDefault(ConfAuthgwCacheBacklog, 64)
}

// NewAuthgwBackend builds the token store from config,
// wrapped in a lookup timeout and optionally a cache.
func NewAuthgwBackend(
	ctx context.Context,
	lc fx.Lifecycle,
	shutdown fx.Shutdowner,
	log *zap.Logger,
) (authgw.Backend, error) {
	var backend authgw.Backend
	var rd *redis.Client
	switch kind := viper.GetString(ConfAuthgwBackend); kind {
	case BackendMySQL:
		db, err := NewMySQL(ctx, log, lc)
		if err != nil {
			return nil, err
		}
		backend = &authgw.Database{DB: db}
	case BackendRedis:
		var err error
		rd, err = NewRedis(ctx, log, lc)
		if err != nil {
			return nil, err
		}
		backend = &authgw.RedisStore{
			Redis:  rd,
			Prefix: viper.GetString(ConfAuthgwRedisPrefix),
		}
	case BackendStatic:
		path := viper.GetString(ConfAuthgwStaticFile)
		store, err := authgw.LoadStaticStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", ConfAuthgwStaticFile, err)
		}
		log.Warn("Using static token store, not for production",
			zap.String(ConfAuthgwStaticFile, path),
			zap.Int("tokens", store.Len()))
		backend = store
	default:
		return nil, fmt.Errorf("invalid %s: %q", ConfAuthgwBackend, kind)
	}
	backend = &authgw.Timeout{
		Backend: backend,
		Timeout: viper.GetDuration(ConfAuthgwLookupTimeout),
	}
	// Build cache.
	cacheSize := viper.GetInt(ConfAuthgwCacheSize)
	if cacheSize <= 0 {
		log.Info("Auth cache disabled")
		return backend, nil
	}
	cachedBackend, err := authgw.NewCache(backend, cacheSize, viper.GetDuration(ConfAuthgwCacheTTL))
	if err != nil {
		return nil, err
	}
	streamKey := viper.GetString(ConfAuthgwCacheStreamKey)
	if streamKey == "" {
		log.Info("Auth cache invalidation disabled, entries expire after TTL",
			zap.Duration(ConfAuthgwCacheTTL, viper.GetDuration(ConfAuthgwCacheTTL)))
		return cachedBackend, nil
	}
	if rd == nil {
		rd, err = NewRedis(ctx, log, lc)
		if err != nil {
			return nil, err
		}
	}
	invalidation := authgw.CacheInvalidation{
		Cache:     cachedBackend,
		Redis:     rd,
		StreamKey: streamKey,
		Backlog:   viper.GetInt64(ConfAuthgwCacheBacklog),
	}
	innerCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("Starting auth cache invalidator", zap.String(ConfAuthgwCacheStreamKey, streamKey))
			go func() {
				if err := invalidation.Run(innerCtx); err != nil {
					log.Error("Auth cache invalidation failed", zap.Error(err))
					if err := shutdown.Shutdown(); err != nil {
						log.Fatal("Shutdown failed")
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
	return cachedBackend, nil
}

// NewAuthgwFilter builds the request filter.
func NewAuthgwFilter(log *zap.Logger, backend authgw.Backend, meter metric.Meter) (*authgw.Filter, error) {
	metrics, err := authgw.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	filter := authgw.NewFilter(backend, log.Named("authgw"))
	filter.Metrics = metrics
	return filter, nil
}

// NewAuthgwErrorWriter returns the HTTP error writer from config.
func NewAuthgwErrorWriter() authgw.ErrorWriter {
	return authgw.JSONErrorWriter{Realm: viper.GetString(ConfAuthgwRealm)}
}
