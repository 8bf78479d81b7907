package validators

import (
	"errors"
	"fmt"
	"strings"

	"transfer-pricing/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("vehicle_type", validateVehicleType)
	validate.RegisterValidation("percentage", validatePercentage)
	validate.RegisterValidation("distance", validateDistance)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into the field → message map the API
// envelope carries.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "vehicle_type":
		return fmt.Sprintf("Unknown vehicle type, expected one of %s", strings.Join(vehicleTypeNames(), ", "))
	case "percentage":
		return fmt.Sprintf("%s must be between 0 and 100", err.Field())
	case "distance":
		return fmt.Sprintf("%s must be a non-negative distance", err.Field())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateVehicleType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.VehicleType(value).IsValid()
}

func validatePercentage(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= 0 && v <= 100
}

func validateDistance(fl validator.FieldLevel) bool {
	return fl.Field().Float() >= 0
}

func vehicleTypeNames() []string {
	names := make([]string, 0, len(models.VehicleTypes))
	for _, vt := range models.VehicleTypes {
		names = append(names, string(vt))
	}
	return names
}
