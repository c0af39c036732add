package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// SummaryCache memoizes aggregated summaries. Failures are never fatal to
// aggregation.
type SummaryCache interface {
	Get(ctx context.Context, key string) (*model.Summary, bool, error)
	Set(ctx context.Context, key string, summary *model.Summary, ttl time.Duration) error
}

const cacheKeyPrefix = "agrilens:metrics:"

// summaryCacheKey includes the current day so entries never outlive the
// window they were computed for.
func summaryCacheKey(rt types.RecordType, filter string, windowDays int, fields []string, now time.Time) string {
	sorted := slices.Clone(fields)
	slices.Sort(sorted)
	return fmt.Sprintf("%s%s:%s:%d:%s:%s",
		cacheKeyPrefix, rt, filter, windowDays,
		strings.Join(sorted, ","),
		now.UTC().Format(model.DateLayout))
}

// RedisCache stores summaries as JSON in Redis
type RedisCache struct {
	client redis.UniversalClient
}

var _ SummaryCache = &RedisCache{}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (x *RedisCache) Get(ctx context.Context, key string) (*model.Summary, bool, error) {
	raw, err := x.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get summary from redis", goerr.V("key", key))
	}

	var summary model.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, goerr.Wrap(err, "failed to decode cached summary", goerr.V("key", key))
	}
	if summary.Metrics == nil {
		summary.Metrics = model.Metrics{}
	}
	if summary.Labels == nil {
		summary.Labels = map[string]*string{}
	}
	return &summary, true, nil
}

func (x *RedisCache) Set(ctx context.Context, key string, summary *model.Summary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return goerr.Wrap(err, "failed to encode summary", goerr.V("key", key))
	}
	if err := x.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set summary to redis", goerr.V("key", key))
	}
	return nil
}
