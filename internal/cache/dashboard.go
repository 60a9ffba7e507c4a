package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"jaincal/internal/content"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
)

const dashboardKeyPrefix = "jaincal:dashboard:"

// DashboardCache stores dashboard payloads per date, location and language.
type DashboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDashboardCache returns a cache whose entries expire after ttl.
func NewDashboardCache(rdb *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key of one payload. Coordinates are rounded to four
// decimals, roughly 11 m, which is far below sunrise resolution.
func Key(date time.Time, lat, lng float64, lang string) string {
	return dashboardKeyPrefix + date.Format(model.DateLayout) +
		":" + strconv.FormatFloat(lat, 'f', 4, 64) +
		":" + strconv.FormatFloat(lng, 'f', 4, 64) +
		":" + lang
}

// Get returns the cached payload. A miss is (nil, false, nil).
func (c *DashboardCache) Get(ctx context.Context, key string) (*content.Dashboard, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading dashboard from redis: %w", err)
	}

	var d content.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, false, fmt.Errorf("unmarshaling dashboard: %w", err)
	}
	return &d, true, nil
}

// Set stores d under key with the cache TTL.
func (c *DashboardCache) Set(ctx context.Context, key string, d *content.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling dashboard: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing dashboard in redis: %w", err)
	}
	return nil
}

// DashboardSource fetches dashboard payloads; *content.Client implements it.
type DashboardSource interface {
	Dashboard(ctx context.Context, q content.DashboardQuery) (*content.Dashboard, error)
}

// Loader reads dashboards through the cache. A nil cache disables caching.
type Loader struct {
	Source DashboardSource
	Cache  *DashboardCache
}

// Load returns the payload for q, from the cache when present, otherwise from
// the source, storing the fresh payload. Cache failures are logged and
// bypassed; source errors are returned as-is.
func (l *Loader) Load(ctx context.Context, q content.DashboardQuery) (*content.Dashboard, error) {
	key := Key(q.Date, q.Latitude, q.Longitude, q.Language)

	if l.Cache != nil {
		d, ok, err := l.Cache.Get(ctx, key)
		if err != nil {
			appLog.Error("dashboard cache read failed", err, "key", key)
		}
		if ok {
			return d, nil
		}
	}

	d, err := l.Source.Dashboard(ctx, q)
	if err != nil {
		return nil, err
	}

	if l.Cache != nil {
		if err := l.Cache.Set(ctx, key, d); err != nil {
			appLog.Error("dashboard cache write failed", err, "key", key)
		}
	}
	return d, nil
}

// Refresh fetches q from the source and overwrites the cached entry, ignoring
// any cached value.
func (l *Loader) Refresh(ctx context.Context, q content.DashboardQuery) error {
	d, err := l.Source.Dashboard(ctx, q)
	if err != nil {
		return err
	}
	if l.Cache == nil {
		return nil
	}
	return l.Cache.Set(ctx, Key(q.Date, q.Latitude, q.Longitude, q.Language), d)
}
