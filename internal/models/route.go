package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationType string

const (
	LocationTypeAirport LocationType = "airport"
	LocationTypeHotel   LocationType = "hotel"
	LocationTypeCity    LocationType = "city"
	LocationTypePort    LocationType = "port"
	LocationTypeOther   LocationType = "other"
)

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

type Place struct {
	Name         string       `json:"name" bson:"name" validate:"required"`
	Address      string       `json:"address,omitempty" bson:"address,omitempty"`
	Coordinates  Coordinates  `json:"coordinates" bson:"coordinates"`
	LocationType LocationType `json:"location_type" bson:"location_type"`
}

// Route is a priced origin/destination pair. The engine only reads it.
type Route struct {
	ID              primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	Origin          Place                   `json:"origin" bson:"origin"`
	Destination     Place                   `json:"destination" bson:"destination"`
	DistanceKm      float64                 `json:"distance_km" bson:"distance_km" validate:"min=0"`
	DurationMinutes int                     `json:"duration_minutes" bson:"duration_minutes" validate:"min=1"`
	BasePricing     map[VehicleType]float64 `json:"base_pricing,omitempty" bson:"base_pricing,omitempty"`
	BasePrice       float64                 `json:"base_price" bson:"base_price" validate:"min=0"`
	Currency        Currency                `json:"currency" bson:"currency"`
	RuleIDs         []primitive.ObjectID    `json:"rule_ids" bson:"rule_ids"`
	IsActive        bool                    `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at" bson:"updated_at"`
}

// BasePriceFor returns the per-vehicle price when one is configured and the
// route-wide base price otherwise.
func (r *Route) BasePriceFor(vehicleType VehicleType) float64 {
	if price, ok := r.BasePricing[vehicleType]; ok {
		return price
	}
	return r.BasePrice
}
