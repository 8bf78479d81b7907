package models

import "time"

// QuoteConditions are the runtime inputs a caller may supply. Nil means
// "not supplied", which is different from zero.
type QuoteConditions struct {
	OccupancyRate *float64 `json:"occupancy_rate,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
}

type AppliedRule struct {
	RuleID         string         `json:"rule_id"`
	RuleName       string         `json:"rule_name"`
	Adjustment     float64        `json:"adjustment"`
	AdjustmentType AdjustmentType `json:"adjustment_type"`
}

type PriceQuote struct {
	RouteID      string        `json:"route_id"`
	VehicleType  VehicleType   `json:"vehicle_type"`
	BasePrice    float64       `json:"base_price"`
	FinalPrice   float64       `json:"final_price"`
	AppliedRules []AppliedRule `json:"applied_rules"`
	Currency     Currency      `json:"currency"`
	QuotedAt     time.Time     `json:"quoted_at"`
}
