package utils

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes carried in the API envelope
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeRouteNotFound      = "ROUTE_NOT_FOUND"
	CodeRuleNotFound       = "RULE_NOT_FOUND"
	CodeInvalidVehicleType = "INVALID_VEHICLE_TYPE"
	CodePricingUnavailable = "PRICING_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Error Messages
const (
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrValidationFailed   = "validation failed"
	ErrRouteNotFound      = "route not found"
	ErrRuleNotFound       = "price rule not found"
	ErrPricingUnavailable = "pricing is temporarily unavailable"
)

// Request context keys
const (
	ContextKeyRequestID = "request_id"
)

// Headers
const (
	HeaderRequestID = "X-Request-ID"
)
