package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
)

// Cache is the Redis surface used to memoise aggregates of closed windows.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RankingGeneration(ctx context.Context) (int64, error)
	RankingKey(generation int64, parts ...string) string
}

type cachedRows struct {
	Rows []AggregateRow `json:"rows"`
}

func (s *service) cacheable(window timewindow.Window) bool {
	return s.cache != nil && s.cacheTTL > 0 && window.Closed
}

func (s *service) cacheKey(ctx context.Context, scope Scope, window timewindow.Window) (string, error) {
	gen, err := s.cache.RankingGeneration(ctx)
	if err != nil {
		return "", err
	}
	w := window.UTC()
	return s.cache.RankingKey(gen, string(window.Filter), w.Start.Format(time.RFC3339), scope.cacheKey()), nil
}

func (s *service) cachedAggregate(ctx context.Context, key string) ([]AggregateRow, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "ranking cache read failed")
		}
		return nil, false
	}
	var payload cachedRows
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "ranking cache entry unreadable")
		return nil, false
	}
	return payload.Rows, true
}

func (s *service) storeAggregate(ctx context.Context, key string, rows []AggregateRow) {
	raw, err := json.Marshal(cachedRows{Rows: rows})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "ranking cache write failed")
	}
}
