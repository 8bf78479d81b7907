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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type priceRuleRepository struct {
	collection *mongo.Collection
}

func NewPriceRuleRepository(db *mongo.Database) interfaces.PriceRuleRepository {
	return &priceRuleRepository{
		collection: db.Collection("price_rules"),
	}
}

func (r *priceRuleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PriceRule, error) {
	var rule models.PriceRule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("price rule %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price rule: %w", err)
	}
	return &rule, nil
}

func (r *priceRuleRepository) ListActiveForRoute(ctx context.Context, routeID primitive.ObjectID) ([]*models.PriceRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, activeRulesForRouteFilter(routeID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find price rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*models.PriceRule
	for cursor.Next(ctx) {
		var rule models.PriceRule
		if err := cursor.Decode(&rule); err != nil {
			return nil, fmt.Errorf("failed to decode price rule: %w", err)
		}
		rules = append(rules, &rule)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price rules: %w", err)
	}

	return rules, nil
}

// Usage tracking
func (r *priceRuleRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	return r.IncrementUsageBy(ctx, id, 1)
}

func (r *priceRuleRepository) IncrementUsageBy(ctx context.Context, id primitive.ObjectID, delta int64) error {
	if delta <= 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"applied_count": delta},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment price rule usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("price rule %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	return nil
}

// activeRulesForRouteFilter matches active rules with an empty (or missing)
// route scope, or a scope containing routeID.
func activeRulesForRouteFilter(routeID primitive.ObjectID) bson.M {
	return bson.M{
		"active": true,
		"$or": []bson.M{
			{"applicable_routes": bson.M{"$exists": false}},
			{"applicable_routes": nil},
			{"applicable_routes": bson.M{"$size": 0}},
			{"applicable_routes": routeID},
		},
	}
}
