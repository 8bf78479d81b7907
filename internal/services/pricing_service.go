package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/observability"
	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PricingService interface {
	// Quote prices routeID for vehicleType at the current time. conditions
	// may be nil.
	Quote(ctx context.Context, routeID string, vehicleType models.VehicleType, conditions *models.QuoteConditions) (*models.PriceQuote, error)

	// RuleApplicability reports whether a rule's time window holds at at.
	RuleApplicability(ctx context.Context, ruleID string, at time.Time) (*RuleApplicability, error)
}

type RuleApplicability struct {
	RuleID      string          `json:"rule_id"`
	RuleName    string          `json:"rule_name"`
	RuleType    models.RuleType `json:"rule_type"`
	Active      bool            `json:"active"`
	Applicable  bool            `json:"applicable"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

type PricingOptions struct {
	// FetchTimeout bounds route and rule reads. Zero leaves only the
	// caller's deadline.
	FetchTimeout time.Duration
	// Location is the zone weekday and hour windows are evaluated in.
	Location *time.Location
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type pricingService struct {
	routes       interfaces.RouteRepository
	rules        interfaces.PriceRuleRepository
	resolver     *RuleResolver
	composer     *PriceComposer
	fetchTimeout time.Duration
	location     *time.Location
	clock        func() time.Time
	logger       *logger.Logger
}

func NewPricingService(
	routes interfaces.RouteRepository,
	rules interfaces.PriceRuleRepository,
	usage UsageRecorder,
	opts PricingOptions,
	log *logger.Logger,
) PricingService {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &pricingService{
		routes:       routes,
		rules:        rules,
		resolver:     NewRuleResolver(rules, log),
		composer:     NewPriceComposer(usage, log),
		fetchTimeout: opts.FetchTimeout,
		location:     opts.Location,
		clock:        opts.Clock,
		logger:       log,
	}
}

func (s *pricingService) Quote(ctx context.Context, routeID string, vehicleType models.VehicleType, conditions *models.QuoteConditions) (quote *models.PriceQuote, err error) {
	start := time.Now()
	defer func() {
		observability.QuoteLatency.Observe(time.Since(start).Seconds())
		observability.QuotesTotal.WithLabelValues(quoteOutcome(err)).Inc()
	}()

	if !vehicleType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVehicleType, vehicleType)
	}

	id, err := primitive.ObjectIDFromHex(routeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, routeID)
	}

	fetchCtx, cancel := s.fetchContext(ctx)
	defer cancel()

	route, err := s.routes.GetByID(fetchCtx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
		}
		return nil, fmt.Errorf("%w: fetch route: %w", ErrRepositoryUnavailable, err)
	}

	now := s.clock().In(s.location)

	var conds models.QuoteConditions
	if conditions != nil {
		conds = *conditions
	}
	if conds.Distance == nil {
		distance := route.DistanceKm
		conds.Distance = &distance
	}

	rules, err := s.resolver.Resolve(fetchCtx, route.ID, conds, now)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch rules: %w", ErrRepositoryUnavailable, err)
	}

	quote = s.composer.Compose(ctx, route, vehicleType, rules, now)

	s.logger.WithContext(ctx).LogQuoteEvent(route.ID, string(vehicleType), quote.BasePrice, quote.FinalPrice, len(quote.AppliedRules))

	return quote, nil
}

func (s *pricingService) RuleApplicability(ctx context.Context, ruleID string, at time.Time) (*RuleApplicability, error) {
	id, err := primitive.ObjectIDFromHex(ruleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, ruleID)
	}

	fetchCtx, cancel := s.fetchContext(ctx)
	defer cancel()

	rule, err := s.rules.GetByID(fetchCtx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
		}
		return nil, fmt.Errorf("%w: fetch rule: %w", ErrRepositoryUnavailable, err)
	}

	if at.IsZero() {
		at = s.clock()
	}
	at = at.In(s.location)

	return &RuleApplicability{
		RuleID:      rule.ID.Hex(),
		RuleName:    rule.Name,
		RuleType:    rule.RuleType,
		Active:      rule.Active,
		Applicable:  IsCurrentlyApplicable(rule, at),
		EvaluatedAt: at,
	}, nil
}

func (s *pricingService) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.fetchTimeout > 0 {
		return context.WithTimeout(ctx, s.fetchTimeout)
	}
	return context.WithCancel(ctx)
}

func quoteOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRouteNotFound):
		return "route_not_found"
	case errors.Is(err, ErrInvalidVehicleType):
		return "invalid_vehicle_type"
	case errors.Is(err, ErrRepositoryUnavailable):
		return "repository_unavailable"
	}
	return "error"
}
