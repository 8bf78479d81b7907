package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const routeCachePrefix = "route:"

type routeRepository struct {
	collection *mongo.Collection
	cache      CacheService
	cacheTTL   time.Duration
}

// NewRouteRepository returns a route repository. A nil cache or a zero TTL
// disables the read-through snapshot cache.
func NewRouteRepository(db *mongo.Database, cache CacheService, cacheTTL time.Duration) interfaces.RouteRepository {
	return &routeRepository{
		collection: db.Collection("routes"),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *routeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	if route := r.getRouteFromCache(ctx, id.Hex()); route != nil {
		return route, nil
	}

	var route models.Route
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("route %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	r.cacheRoute(ctx, &route)

	return &route, nil
}

// Cache operations
func (r *routeRepository) cacheRoute(ctx context.Context, route *models.Route) {
	if r.cache == nil || r.cacheTTL <= 0 || !route.Currency.IsValid() {
		return
	}
	// Best effort: a failed write only costs a database read next time.
	_ = r.cache.Set(ctx, routeCachePrefix+route.ID.Hex(), route, r.cacheTTL)
}

func (r *routeRepository) getRouteFromCache(ctx context.Context, routeID string) *models.Route {
	if r.cache == nil || r.cacheTTL <= 0 {
		return nil
	}

	key := routeCachePrefix + routeID
	var route models.Route
	if err := r.cache.Get(ctx, key, &route); err != nil {
		return nil
	}

	// A snapshot for another id or with an unknown currency is stale; drop
	// it and read through.
	if route.ID.Hex() != routeID || !route.Currency.IsValid() {
		_ = r.cache.Delete(ctx, key)
		return nil
	}

	return &route
}
