package services

import (
	"testing"
	"time"

	"transfer-pricing/internal/models"
)

func timeRule(tc *models.TimeConditions) *models.PriceRule {
	return &models.PriceRule{
		Name:           "time window",
		RuleType:       models.RuleTypeTimeBased,
		AdjustmentType: models.AdjustmentTypePercentage,
		Active:         true,
		TimeConditions: tc,
	}
}

func TestTimeWindowMatcher_HourBoundaries(t *testing.T) {
	rule := timeRule(&models.TimeConditions{HourRanges: []models.HourRange{{Start: 7, End: 9}}})

	cases := []struct {
		hour int
		want bool
	}{
		{6, false},
		{7, true},
		{8, true},
		{9, true},
		{10, false},
	}
	for _, tc := range cases {
		if got := (timeWindowMatcher{}).holds(rule, at(tc.hour), models.QuoteConditions{}); got != tc.want {
			t.Errorf("hour %d: holds = %v, want %v", tc.hour, got, tc.want)
		}
	}
}

func TestTimeWindowMatcher_OvernightRange(t *testing.T) {
	rule := timeRule(&models.TimeConditions{HourRanges: []models.HourRange{{Start: 22, End: 5}}})

	for hour, want := range map[int]bool{21: false, 22: true, 23: true, 0: true, 5: true, 6: false, 12: false} {
		if got := IsCurrentlyApplicable(rule, at(hour)); got != want {
			t.Errorf("hour %d: applicable = %v, want %v", hour, got, want)
		}
	}
}

func TestTimeWindowMatcher_MultipleHourRanges(t *testing.T) {
	rule := timeRule(&models.TimeConditions{HourRanges: []models.HourRange{{Start: 7, End: 9}, {Start: 17, End: 19}}})

	if !IsCurrentlyApplicable(rule, at(18)) {
		t.Error("hour 18 should match the second range")
	}
	if IsCurrentlyApplicable(rule, at(12)) {
		t.Error("hour 12 matches neither range")
	}
}

func TestTimeWindowMatcher_DaysOfWeek(t *testing.T) {
	tuesday := at(12)
	if tuesday.Weekday() != time.Tuesday {
		t.Fatalf("fixture drifted: %s", tuesday.Weekday())
	}

	weekend := timeRule(&models.TimeConditions{DaysOfWeek: []int{0, 6}})
	if IsCurrentlyApplicable(weekend, tuesday) {
		t.Error("weekend rule applied on a Tuesday")
	}
	if !IsCurrentlyApplicable(weekend, tuesday.AddDate(0, 0, 4)) {
		t.Error("weekend rule did not apply on a Saturday")
	}
}

func TestTimeWindowMatcher_DateRangesInclusive(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	rule := timeRule(&models.TimeConditions{DateRanges: []models.DateRange{{Start: start, End: end}}})

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact start", start, true},
		{"exact end", end, true},
		{"inside", start.AddDate(0, 0, 10), true},
		{"one second before", start.Add(-time.Second), false},
		{"one second after", end.Add(time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCurrentlyApplicable(rule, tc.now); got != tc.want {
				t.Errorf("applicable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTimeWindowMatcher_DimensionsAreANDed(t *testing.T) {
	rule := timeRule(&models.TimeConditions{
		DaysOfWeek: []int{int(time.Tuesday)},
		HourRanges: []models.HourRange{{Start: 7, End: 9}},
	})

	if !IsCurrentlyApplicable(rule, at(8)) {
		t.Error("Tuesday 08:30 satisfies both dimensions")
	}
	if IsCurrentlyApplicable(rule, at(8).AddDate(0, 0, 1)) {
		t.Error("Wednesday fails the day dimension")
	}
	if IsCurrentlyApplicable(rule, at(12)) {
		t.Error("12:30 fails the hour dimension")
	}
}

func TestTimeWindowMatcher_NoTimeDataFollowsActive(t *testing.T) {
	rule := timeRule(nil)
	if !IsCurrentlyApplicable(rule, at(3)) {
		t.Error("active rule without time data should apply")
	}
	rule.TimeConditions = &models.TimeConditions{}
	if !IsCurrentlyApplicable(rule, at(3)) {
		t.Error("active rule with empty time data should apply")
	}
	rule.Active = false
	if IsCurrentlyApplicable(rule, at(3)) {
		t.Error("inactive rule must never apply")
	}
}

func TestDemandMatcher(t *testing.T) {
	rule := &models.PriceRule{
		RuleType:         models.RuleTypeDemandBased,
		Active:           true,
		DemandConditions: &models.DemandConditions{MinOccupancyRate: float(70), MaxOccupancyRate: float(95)},
	}

	cases := []struct {
		name      string
		occupancy *float64
		want      bool
	}{
		{"omitted passes", nil, true},
		{"below min", float(50), false},
		{"at min", float(70), true},
		{"inside", float(80), true},
		{"at max", float(95), true},
		{"above max", float(99), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := (demandMatcher{}).holds(rule, at(12), models.QuoteConditions{OccupancyRate: tc.occupancy})
			if got != tc.want {
				t.Errorf("holds = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDistanceMatcher(t *testing.T) {
	km := &models.PriceRule{
		RuleType:           models.RuleTypeDistanceBased,
		Active:             true,
		DistanceConditions: &models.DistanceConditions{MinDistance: float(50), MaxDistance: float(100), Unit: models.DistanceUnitKm},
	}
	mi := &models.PriceRule{
		RuleType:           models.RuleTypeDistanceBased,
		Active:             true,
		DistanceConditions: &models.DistanceConditions{MinDistance: float(50), Unit: models.DistanceUnitMi},
	}

	cases := []struct {
		name     string
		rule     *models.PriceRule
		distance *float64
		want     bool
	}{
		{"omitted passes", km, nil, true},
		{"below min km", km, float(40), false},
		{"at min km", km, float(50), true},
		{"above max km", km, float(100.5), false},
		{"60 km is under 50 mi", mi, float(60), false},
		{"90 km is over 50 mi", mi, float(90), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := (distanceMatcher{}).holds(tc.rule, at(12), models.QuoteConditions{Distance: tc.distance})
			if got != tc.want {
				t.Errorf("holds = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatcherFor_CoversEveryRuleType(t *testing.T) {
	for _, rt := range models.RuleTypes {
		if _, ok := matcherFor(rt); !ok {
			t.Errorf("no matcher for rule type %q", rt)
		}
	}
	if _, ok := matcherFor("surge"); ok {
		t.Error("unknown rule type should have no matcher")
	}
}

func TestMatcherFor_IgnoresForeignConditionBlocks(t *testing.T) {
	// A time_based rule carrying a distance block is judged on time alone.
	rule := timeRule(nil)
	rule.DistanceConditions = &models.DistanceConditions{MinDistance: float(1000)}

	m, _ := matcherFor(rule.RuleType)
	if !m.holds(rule, at(12), models.QuoteConditions{Distance: float(10)}) {
		t.Error("distance block on a time_based rule must be ignored")
	}

	season := &models.PriceRule{RuleType: models.RuleTypeSeasonBased, Active: true,
		TimeConditions: &models.TimeConditions{HourRanges: []models.HourRange{{Start: 1, End: 2}}}}
	m, _ = matcherFor(season.RuleType)
	if !m.holds(season, at(12), models.QuoteConditions{}) {
		t.Error("season_based rules are scoped only by route and vehicle")
	}
}
