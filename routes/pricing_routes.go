package routes

import (
	"transfer-pricing/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPricingRoutes sets up the quote and rule inspection endpoints
func SetupPricingRoutes(r *gin.RouterGroup, pricingHandler *handlers.PricingHandler) {
	pricing := r.Group("/pricing")
	{
		pricing.POST("/quote", pricingHandler.CreateQuote)
		pricing.GET("/rules/:id/applicability", pricingHandler.GetRuleApplicability)
	}

	routes := r.Group("/routes")
	{
		routes.GET("/:id/quote", pricingHandler.GetRouteQuote)
	}
}
