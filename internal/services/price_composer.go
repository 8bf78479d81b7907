package services

import (
	"context"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/observability"
	"transfer-pricing/internal/utils"
	"transfer-pricing/pkg/logger"
)

// PriceComposer folds eligible rules into a running price. It holds no
// per-call state and is safe for concurrent use.
type PriceComposer struct {
	usage  UsageRecorder
	logger *logger.Logger
}

func NewPriceComposer(usage UsageRecorder, log *logger.Logger) *PriceComposer {
	if usage == nil {
		usage = NoopUsageRecorder{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PriceComposer{usage: usage, logger: log}
}

// Compose applies rules in the given order. Each adjustment works on the
// price left by the previous rule, then the rule's own bounds clamp it and
// the result is rounded to cents. Rules outside the vehicle scope are
// skipped without a trace.
func (c *PriceComposer) Compose(ctx context.Context, route *models.Route, vehicleType models.VehicleType, rules []*models.PriceRule, now time.Time) *models.PriceQuote {
	basePrice := route.BasePriceFor(vehicleType)
	price := basePrice
	applied := make([]models.AppliedRule, 0, len(rules))

	for _, rule := range rules {
		if !rule.AppliesToVehicle(vehicleType) {
			continue
		}

		before := price
		price = utils.RoundHalfUp(clamp(adjust(price, rule), rule.MinPrice, rule.MaxPrice), 2)

		applied = append(applied, models.AppliedRule{
			RuleID:         rule.ID.Hex(),
			RuleName:       rule.Name,
			Adjustment:     rule.AdjustmentValue,
			AdjustmentType: rule.AdjustmentType,
		})
		observability.RuleApplicationsTotal.WithLabelValues(string(rule.RuleType), string(rule.AdjustmentType)).Inc()
		c.logger.WithContext(ctx).LogRuleApplied(rule.ID, rule.Name, before, price)

		c.usage.RecordUsage(ctx, rule.ID)
	}

	if price < 0 {
		observability.NegativePriceFloorsTotal.Inc()
		c.logger.WithContext(ctx).WithRouteID(route.ID).WithFields(map[string]interface{}{
			"vehicle_type":   vehicleType,
			"composed_price": price,
		}).Warn("Composed price is negative, flooring at zero; check rule bounds")
		price = 0
	}

	return &models.PriceQuote{
		RouteID:      route.ID.Hex(),
		VehicleType:  vehicleType,
		BasePrice:    basePrice,
		FinalPrice:   price,
		AppliedRules: applied,
		Currency:     route.Currency,
		QuotedAt:     now,
	}
}

func adjust(price float64, rule *models.PriceRule) float64 {
	switch rule.AdjustmentType {
	case models.AdjustmentTypePercentage:
		return price * (1 + rule.AdjustmentValue/100)
	case models.AdjustmentTypeFixed:
		return price + rule.AdjustmentValue
	}
	return price
}

// clamp applies the lower bound first, then the upper one, so an inverted
// pair (max < min) resolves to max.
func clamp(price float64, minPrice, maxPrice *float64) float64 {
	if minPrice != nil && price < *minPrice {
		price = *minPrice
	}
	if maxPrice != nil && price > *maxPrice {
		price = *maxPrice
	}
	return price
}
