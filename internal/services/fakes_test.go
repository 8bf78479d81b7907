package services

import (
	"context"
	"sync"
	"time"

	"transfer-pricing/internal/models"
	"transfer-pricing/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRouteRepo struct {
	routes map[primitive.ObjectID]*models.Route
	err    error
	block  bool // wait for ctx to finish before answering
	calls  int
	mu     sync.Mutex
}

func newFakeRouteRepo(routes ...*models.Route) *fakeRouteRepo {
	repo := &fakeRouteRepo{routes: make(map[primitive.ObjectID]*models.Route)}
	for _, r := range routes {
		repo.routes[r.ID] = r
	}
	return repo
}

func (f *fakeRouteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	route, ok := f.routes[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return route, nil
}

type fakeRuleRepo struct {
	mu       sync.Mutex
	rules    []*models.PriceRule
	listErr  error
	incErr   error
	usage    map[primitive.ObjectID]int64
	incCalls int
}

func newFakeRuleRepo(rules ...*models.PriceRule) *fakeRuleRepo {
	return &fakeRuleRepo{rules: rules, usage: make(map[primitive.ObjectID]int64)}
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.PriceRule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeRuleRepo) ListActiveForRoute(_ context.Context, routeID primitive.ObjectID) ([]*models.PriceRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.PriceRule
	for _, r := range f.rules {
		if r.Active && r.AppliesToRoute(routeID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	return f.IncrementUsageBy(ctx, id, 1)
}

func (f *fakeRuleRepo) IncrementUsageBy(_ context.Context, id primitive.ObjectID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incCalls++
	if f.incErr != nil {
		return f.incErr
	}
	f.usage[id] += delta
	return nil
}

func (f *fakeRuleRepo) usageOf(id primitive.ObjectID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[id]
}

// recordingUsage remembers every rule id handed to it.
type recordingUsage struct {
	mu  sync.Mutex
	ids []primitive.ObjectID
}

func (r *recordingUsage) RecordUsage(_ context.Context, ruleID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ruleID)
}

func (r *recordingUsage) recorded() []primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]primitive.ObjectID(nil), r.ids...)
}

// Fixtures

func mustID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

func float(v float64) *float64 { return &v }

func testRoute(basePrice float64) *models.Route {
	return &models.Route{
		ID:              primitive.NewObjectID(),
		Origin:          models.Place{Name: "Antalya Airport", LocationType: models.LocationTypeAirport},
		Destination:     models.Place{Name: "Kemer", LocationType: models.LocationTypeCity},
		DistanceKm:      45,
		DurationMinutes: 50,
		BasePrice:       basePrice,
		Currency:        models.CurrencyEUR,
		IsActive:        true,
	}
}

func percentRule(hexID, name string, priority int, value float64) *models.PriceRule {
	return &models.PriceRule{
		ID:              mustID(hexID),
		Name:            name,
		Priority:        priority,
		RuleType:        models.RuleTypeCustom,
		AdjustmentType:  models.AdjustmentTypePercentage,
		AdjustmentValue: value,
		Active:          true,
	}
}

func fixedRule(hexID, name string, priority int, value float64) *models.PriceRule {
	r := percentRule(hexID, name, priority, value)
	r.AdjustmentType = models.AdjustmentTypeFixed
	return r
}

// tuesday 2026-02-10 at the given hour, UTC
func at(hour int) time.Time {
	return time.Date(2026, 2, 10, hour, 30, 0, 0, time.UTC)
}
