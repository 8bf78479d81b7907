package interfaces

import (
	"context"

	"transfer-pricing/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PriceRuleRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PriceRule, error)

	// ListActiveForRoute returns active rules whose route scope is empty or
	// contains routeID. Order is unspecified.
	ListActiveForRoute(ctx context.Context, routeID primitive.ObjectID) ([]*models.PriceRule, error)

	// Usage tracking, both atomic at the store.
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
	IncrementUsageBy(ctx context.Context, id primitive.ObjectID, delta int64) error
}
