package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RuleType string
type AdjustmentType string
type DistanceUnit string

const (
	RuleTypeTimeBased     RuleType = "time_based"
	RuleTypeDemandBased   RuleType = "demand_based"
	RuleTypeDistanceBased RuleType = "distance_based"
	RuleTypeSeasonBased   RuleType = "season_based"
	RuleTypeCustom        RuleType = "custom"

	AdjustmentTypePercentage AdjustmentType = "percentage"
	AdjustmentTypeFixed      AdjustmentType = "fixed"

	DistanceUnitKm DistanceUnit = "km"
	DistanceUnitMi DistanceUnit = "mi"
)

type HourRange struct {
	Start int `json:"start" bson:"start" validate:"min=0,max=23"`
	End   int `json:"end" bson:"end" validate:"min=0,max=23"`
}

type DateRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

type TimeConditions struct {
	DaysOfWeek []int       `json:"days_of_week,omitempty" bson:"days_of_week,omitempty"`
	HourRanges []HourRange `json:"hour_ranges,omitempty" bson:"hour_ranges,omitempty"`
	DateRanges []DateRange `json:"date_ranges,omitempty" bson:"date_ranges,omitempty"`
}

type DemandConditions struct {
	MinOccupancyRate *float64 `json:"min_occupancy_rate,omitempty" bson:"min_occupancy_rate,omitempty"`
	MaxOccupancyRate *float64 `json:"max_occupancy_rate,omitempty" bson:"max_occupancy_rate,omitempty"`
}

type DistanceConditions struct {
	MinDistance *float64     `json:"min_distance,omitempty" bson:"min_distance,omitempty"`
	MaxDistance *float64     `json:"max_distance,omitempty" bson:"max_distance,omitempty"`
	Unit        DistanceUnit `json:"unit" bson:"unit"`
}

// PriceRule is a conditional adjustment. AppliedCount is the only field the
// pricing engine ever writes, and only through the usage counter.
type PriceRule struct {
	ID                     primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name                   string               `json:"name" bson:"name"`
	Description            string               `json:"description,omitempty" bson:"description,omitempty"`
	Priority               int                  `json:"priority" bson:"priority"`
	RuleType               RuleType             `json:"rule_type" bson:"rule_type"`
	AdjustmentType         AdjustmentType       `json:"adjustment_type" bson:"adjustment_type"`
	AdjustmentValue        float64              `json:"adjustment_value" bson:"adjustment_value"`
	MinPrice               *float64             `json:"min_price,omitempty" bson:"min_price,omitempty"`
	MaxPrice               *float64             `json:"max_price,omitempty" bson:"max_price,omitempty"`
	Active                 bool                 `json:"active" bson:"active"`
	TimeConditions         *TimeConditions      `json:"time_conditions,omitempty" bson:"time_conditions,omitempty"`
	DemandConditions       *DemandConditions    `json:"demand_conditions,omitempty" bson:"demand_conditions,omitempty"`
	DistanceConditions     *DistanceConditions  `json:"distance_conditions,omitempty" bson:"distance_conditions,omitempty"`
	ApplicableRoutes       []primitive.ObjectID `json:"applicable_routes" bson:"applicable_routes"`
	ApplicableVehicleTypes []VehicleType        `json:"applicable_vehicle_types" bson:"applicable_vehicle_types"`
	AppliedCount           int64                `json:"applied_count" bson:"applied_count"`
	CreatedAt              time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at" bson:"updated_at"`
}

// AppliesToRoute reports whether the rule's route scope admits routeID.
// An empty scope admits every route.
func (r *PriceRule) AppliesToRoute(routeID primitive.ObjectID) bool {
	if len(r.ApplicableRoutes) == 0 {
		return true
	}
	for _, id := range r.ApplicableRoutes {
		if id == routeID {
			return true
		}
	}
	return false
}

// AppliesToVehicle reports whether the rule's vehicle scope admits vehicleType.
func (r *PriceRule) AppliesToVehicle(vehicleType VehicleType) bool {
	if len(r.ApplicableVehicleTypes) == 0 {
		return true
	}
	for _, vt := range r.ApplicableVehicleTypes {
		if vt == vehicleType {
			return true
		}
	}
	return false
}

var RuleTypes = []RuleType{
	RuleTypeTimeBased,
	RuleTypeDemandBased,
	RuleTypeDistanceBased,
	RuleTypeSeasonBased,
	RuleTypeCustom,
}
