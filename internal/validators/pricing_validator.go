package validators

import (
	"transfer-pricing/internal/models"
)

// QuoteRequest is the body of POST /pricing/quote and the query of
// GET /routes/:id/quote.
type QuoteRequest struct {
	RouteID       string   `json:"route_id" form:"-" validate:"required"`
	VehicleType   string   `json:"vehicle_type" form:"vehicle_type" validate:"required,vehicle_type"`
	OccupancyRate *float64 `json:"occupancy_rate,omitempty" form:"occupancy_rate" validate:"omitempty,percentage"`
	Distance      *float64 `json:"distance,omitempty" form:"distance" validate:"omitempty,distance"`
}

func (r *QuoteRequest) Validate() ValidationErrors {
	return ValidateStruct(r)
}

// Conditions returns the optional evaluation inputs, or nil when the caller
// sent none.
func (r *QuoteRequest) Conditions() *models.QuoteConditions {
	if r.OccupancyRate == nil && r.Distance == nil {
		return nil
	}
	return &models.QuoteConditions{
		OccupancyRate: r.OccupancyRate,
		Distance:      r.Distance,
	}
}
