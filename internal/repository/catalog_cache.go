package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/capitalize-ai/trip-assistant/internal/model"
)

type catalogSource interface {
	TopRated(ctx context.Context, city string, limit int) ([]model.Attraction, error)
	FindByNames(ctx context.Context, city string, names []string) ([]model.Attraction, error)
	Cities(ctx context.Context) ([]string, error)
}

const citiesKey = "cities"

// CachedCatalog memoizes the read-mostly catalog queries issued on every chat turn.
// Errors are never cached.
type CachedCatalog struct {
	source catalogSource
	cache  *cache.Cache
}

// NewCachedCatalog wraps source with a TTL cache.
func NewCachedCatalog(source catalogSource, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// TopRated returns cached top rated attractions of a city.
func (c *CachedCatalog) TopRated(ctx context.Context, city string, limit int) ([]model.Attraction, error) {
	key := fmt.Sprintf("top:%s:%d", model.CatalogKey(city), limit)
	if v, ok := c.cache.Get(key); ok {
		return v.([]model.Attraction), nil
	}

	attractions, err := c.source.TopRated(ctx, city, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, attractions)
	return attractions, nil
}

// FindByNames is not cached; the name sets vary per action.
func (c *CachedCatalog) FindByNames(ctx context.Context, city string, names []string) ([]model.Attraction, error) {
	return c.source.FindByNames(ctx, city, names)
}

// Cities returns the cached list of catalog cities.
func (c *CachedCatalog) Cities(ctx context.Context) ([]string, error) {
	if v, ok := c.cache.Get(citiesKey); ok {
		return v.([]string), nil
	}

	cities, err := c.source.Cities(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(citiesKey, cities)
	return cities, nil
}
