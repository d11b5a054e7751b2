package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tunicharge/internal/geo"
)

// CachedProvider fronts a Provider with a redis cache. Cache failures degrade
// to direct lookups; only successful routes are cached.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps the provider. A nil redis client disables caching.
func NewCachedProvider(inner Provider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (p *CachedProvider) key(origin, dest geo.Coordinate) string {
	// (lon, lat) order, matching the provider convention.
	return fmt.Sprintf("routes:%.5f,%.5f:%.5f,%.5f", origin.Lon, origin.Lat, dest.Lon, dest.Lat)
}

// DrivingRoute returns the cached leg when present, otherwise queries the
// inner provider and caches the result.
func (p *CachedProvider) DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*Route, error) {
	if p.client == nil {
		return p.inner.DrivingRoute(ctx, origin, dest)
	}

	key := p.key(origin, dest)
	if data, err := p.client.Get(ctx, key).Result(); err == nil {
		var route Route
		if err := json.Unmarshal([]byte(data), &route); err == nil {
			return &route, nil
		}
	} else if err != redis.Nil {
		p.logger.Warn("route cache read failed", zap.Error(err))
	}

	route, err := p.inner.DrivingRoute(ctx, origin, dest)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(route); err == nil {
		if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
			p.logger.Warn("route cache write failed", zap.Error(err))
		}
	}
	return route, nil
}
