package handlers

import (
	"errors"
	"net/http"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/services"
	"transfer-pricing/internal/utils"
	"transfer-pricing/internal/validators"
	"transfer-pricing/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricingService services.PricingService
	logger         *logger.Logger
}

func NewPricingHandler(pricingService services.PricingService, log *logger.Logger) *PricingHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PricingHandler{
		pricingService: pricingService,
		logger:         log,
	}
}

// CreateQuote prices a route from a JSON body
func (h *PricingHandler) CreateQuote(c *gin.Context) {
	var request validators.QuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	h.quote(c, &request)
}

// GetRouteQuote prices the route in the path, conditions come from the query
func (h *PricingHandler) GetRouteQuote(c *gin.Context) {
	var request validators.QuoteRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	request.RouteID = c.Param("id")

	h.quote(c, &request)
}

func (h *PricingHandler) quote(c *gin.Context, request *validators.QuoteRequest) {
	if errs := request.Validate(); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	quote, err := h.pricingService.Quote(
		c.Request.Context(),
		request.RouteID,
		models.VehicleType(request.VehicleType),
		request.Conditions(),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Quote calculated successfully", quote)
}

// GetRuleApplicability reports whether a rule's time window holds at the
// optional ?at= RFC 3339 instant, defaulting to now.
func (h *PricingHandler) GetRuleApplicability(c *gin.Context) {
	var at time.Time
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid at parameter, expected RFC 3339")
			return
		}
		at = parsed
	}

	result, err := h.pricingService.RuleApplicability(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Rule applicability evaluated", result)
}

func (h *PricingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRouteNotFound):
		utils.NotFoundResponse(c, utils.CodeRouteNotFound, utils.ErrRouteNotFound)
	case errors.Is(err, services.ErrRuleNotFound):
		utils.NotFoundResponse(c, utils.CodeRuleNotFound, utils.ErrRuleNotFound)
	case errors.Is(err, services.ErrInvalidVehicleType):
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidVehicleType, err.Error())
	case errors.Is(err, services.ErrRepositoryUnavailable):
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Pricing repository unavailable")
		utils.ServiceUnavailableResponse(c, utils.CodePricingUnavailable, utils.ErrPricingUnavailable)
	default:
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Unexpected pricing error")
		utils.InternalServerErrorResponse(c)
	}
}
