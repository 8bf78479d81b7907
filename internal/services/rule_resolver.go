package services

import (
	"context"
	"sort"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuleResolver turns the rules stored for a route into the ordered list that
// should be folded into a quote.
type RuleResolver struct {
	rules  interfaces.PriceRuleRepository
	logger *logger.Logger
}

func NewRuleResolver(rules interfaces.PriceRuleRepository, log *logger.Logger) *RuleResolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &RuleResolver{rules: rules, logger: log}
}

// Resolve returns the eligible rules for routeID, highest priority first.
// Equal priorities are ordered by rule id so that quotes never depend on
// store iteration order. An empty result is valid. Repository errors are
// returned unchanged.
func (r *RuleResolver) Resolve(ctx context.Context, routeID primitive.ObjectID, conditions models.QuoteConditions, now time.Time) ([]*models.PriceRule, error) {
	candidates, err := r.rules.ListActiveForRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	scoped := make([]*models.PriceRule, 0, len(candidates))
	for _, rule := range candidates {
		// The store already filters; this keeps the contract when it does not.
		if rule == nil || !rule.Active || !rule.AppliesToRoute(routeID) {
			continue
		}
		scoped = append(scoped, rule)
	}

	sortRules(scoped)

	eligible := make([]*models.PriceRule, 0, len(scoped))
	for _, rule := range scoped {
		matcher, ok := matcherFor(rule.RuleType)
		if !ok {
			r.logger.WithContext(ctx).WithRuleID(rule.ID).
				WithField("rule_type", rule.RuleType).
				Warn("Skipping price rule with unknown rule type")
			continue
		}
		if matcher.holds(rule, now, conditions) {
			eligible = append(eligible, rule)
		}
	}

	return eligible, nil
}

func sortRules(rules []*models.PriceRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID.Hex() < rules[j].ID.Hex()
	})
}
