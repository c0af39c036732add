package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/agrilens/agrilens/pkg/service/metrics"
	"github.com/agrilens/agrilens/pkg/service/research"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Cache holds CLI flags for research freshness and the metrics memo
type Cache struct {
	maxAge        time.Duration
	redisAddr     string
	redisPassword string `masq:"secret"`
	redisDB       int
	metricsTTL    time.Duration
}

// Flags returns CLI flags for cache configuration
func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "research-max-age",
			Usage:       "How long stored research findings stay fresh",
			Value:       research.DefaultMaxAge,
			Category:    "Cache",
			Sources:     cli.EnvVars("AGRILENS_RESEARCH_MAX_AGE"),
			Destination: &x.maxAge,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address for the metrics summary cache; disabled when empty",
			Category:    "Cache",
			Sources:     cli.EnvVars("AGRILENS_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Category:    "Cache",
			Sources:     cli.EnvVars("AGRILENS_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Category:    "Cache",
			Sources:     cli.EnvVars("AGRILENS_REDIS_DB"),
			Destination: &x.redisDB,
		},
		&cli.DurationFlag{
			Name:        "metrics-cache-ttl",
			Usage:       "Lifetime of cached metrics summaries",
			Value:       10 * time.Minute,
			Category:    "Cache",
			Sources:     cli.EnvVars("AGRILENS_METRICS_CACHE_TTL"),
			Destination: &x.metricsTTL,
		},
	}
}

func (x Cache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("research_max_age", x.maxAge),
		slog.String("redis_addr", x.redisAddr),
		slog.Int("redis_db", x.redisDB),
		slog.Duration("metrics_ttl", x.metricsTTL),
	)
}

// MaxAge returns the research freshness window
func (x *Cache) MaxAge() time.Duration {
	return x.maxAge
}

// Configure connects the metrics summary cache. It returns no options when
// Redis is not configured. The returned function closes the client.
func (x *Cache) Configure(ctx context.Context) ([]metrics.Option, func(), error) {
	if x.redisAddr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{x.redisAddr},
		Password: x.redisPassword,
		DB:       x.redisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		safe.Close(ctx, client)
		return nil, func() {}, goerr.Wrap(err, "failed to connect redis", goerr.V("addr", x.redisAddr))
	}

	logging.Default().Info("Metrics summary cache enabled", "addr", x.redisAddr, "ttl", x.metricsTTL)
	opts := []metrics.Option{
		metrics.WithCache(metrics.NewRedisCache(client), x.metricsTTL),
	}
	return opts, func() { safe.Close(ctx, client) }, nil
}
