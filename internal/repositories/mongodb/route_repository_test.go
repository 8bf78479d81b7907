package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"transfer-pricing/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// jsonCache stores values the way the Redis cache does, as JSON bytes.
type jsonCache struct {
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newJSONCache() *jsonCache {
	return &jsonCache{data: make(map[string][]byte), ttl: make(map[string]time.Duration)}
}

func (c *jsonCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(b, dest)
}

func (c *jsonCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.ttl[key] = expiration
	return nil
}

func (c *jsonCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestRouteRepository_ServesFromCache(t *testing.T) {
	cache := newJSONCache()
	route := &models.Route{
		ID:          primitive.NewObjectID(),
		BasePrice:   80,
		BasePricing: map[models.VehicleType]float64{models.VehicleTypeVan: 140},
		Currency:    models.CurrencyEUR,
		DistanceKm:  32.5,
	}
	// collection stays nil: a hit must not reach the database.
	repo := &routeRepository{cache: cache, cacheTTL: time.Minute}
	repo.cacheRoute(context.Background(), route)

	if got := cache.ttl[routeCachePrefix+route.ID.Hex()]; got != time.Minute {
		t.Errorf("cached with ttl %s, want 1m", got)
	}

	got, err := repo.GetByID(context.Background(), route.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != route.ID || got.BasePriceFor(models.VehicleTypeVan) != 140 || got.DistanceKm != 32.5 {
		t.Errorf("cached route came back as %+v", got)
	}
}

func TestRouteRepository_CacheDisabled(t *testing.T) {
	cache := newJSONCache()
	repo := &routeRepository{cache: cache, cacheTTL: 0}
	route := &models.Route{ID: primitive.NewObjectID()}

	repo.cacheRoute(context.Background(), route)
	if len(cache.data) != 0 {
		t.Fatal("zero TTL should disable caching")
	}
	if repo.getRouteFromCache(context.Background(), route.ID.Hex()) != nil {
		t.Fatal("zero TTL should disable cache reads")
	}
}

func TestRouteRepository_EvictsStaleSnapshots(t *testing.T) {
	id := primitive.NewObjectID()
	key := routeCachePrefix + id.Hex()

	cases := []struct {
		name  string
		route *models.Route
	}{
		{"unknown currency", &models.Route{ID: id, BasePrice: 80, Currency: "XXX"}},
		{"other route", &models.Route{ID: primitive.NewObjectID(), BasePrice: 80, Currency: models.CurrencyEUR}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := newJSONCache()
			b, _ := json.Marshal(tc.route)
			cache.data[key] = b
			repo := &routeRepository{cache: cache, cacheTTL: time.Minute}

			if got := repo.getRouteFromCache(context.Background(), id.Hex()); got != nil {
				t.Fatalf("stale snapshot served: %+v", got)
			}
			if _, ok := cache.data[key]; ok {
				t.Error("stale snapshot was not deleted")
			}
		})
	}
}

func TestRouteRepository_SkipsCachingUnknownCurrency(t *testing.T) {
	cache := newJSONCache()
	repo := &routeRepository{cache: cache, cacheTTL: time.Minute}

	repo.cacheRoute(context.Background(), &models.Route{ID: primitive.NewObjectID(), Currency: ""})
	if len(cache.data) != 0 {
		t.Fatal("route without a known currency should not be cached")
	}
}
