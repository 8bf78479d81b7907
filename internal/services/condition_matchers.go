package services

import (
	"time"

	"transfer-pricing/internal/models"
)

const kmPerMile = 1.609344

// conditionMatcher answers whether a rule's own condition block holds.
// Only the block belonging to the rule's RuleType is consulted; any other
// block populated on the same rule is ignored.
type conditionMatcher interface {
	holds(rule *models.PriceRule, now time.Time, conditions models.QuoteConditions) bool
}

type timeWindowMatcher struct{}
type demandMatcher struct{}
type distanceMatcher struct{}
type scopeOnlyMatcher struct{}

// matcherFor returns the matcher for a rule type. ok is false for a rule
// type this engine does not know, which makes the rule ineligible.
func matcherFor(ruleType models.RuleType) (m conditionMatcher, ok bool) {
	switch ruleType {
	case models.RuleTypeTimeBased:
		return timeWindowMatcher{}, true
	case models.RuleTypeDemandBased:
		return demandMatcher{}, true
	case models.RuleTypeDistanceBased:
		return distanceMatcher{}, true
	case models.RuleTypeSeasonBased, models.RuleTypeCustom:
		return scopeOnlyMatcher{}, true
	}
	return nil, false
}

func (timeWindowMatcher) holds(rule *models.PriceRule, now time.Time, _ models.QuoteConditions) bool {
	return IsCurrentlyApplicable(rule, now)
}

// Demand enforcement is opportunistic: without an occupancy rate the rule
// is not excluded.
func (demandMatcher) holds(rule *models.PriceRule, _ time.Time, conditions models.QuoteConditions) bool {
	dc := rule.DemandConditions
	if dc == nil || conditions.OccupancyRate == nil {
		return true
	}
	rate := *conditions.OccupancyRate
	if dc.MinOccupancyRate != nil && rate < *dc.MinOccupancyRate {
		return false
	}
	if dc.MaxOccupancyRate != nil && rate > *dc.MaxOccupancyRate {
		return false
	}
	return true
}

// conditions.Distance is always kilometres.
func (distanceMatcher) holds(rule *models.PriceRule, _ time.Time, conditions models.QuoteConditions) bool {
	dc := rule.DistanceConditions
	if dc == nil || conditions.Distance == nil {
		return true
	}
	distance := *conditions.Distance
	if dc.Unit == models.DistanceUnitMi {
		distance = distance / kmPerMile
	}
	if dc.MinDistance != nil && distance < *dc.MinDistance {
		return false
	}
	if dc.MaxDistance != nil && distance > *dc.MaxDistance {
		return false
	}
	return true
}

func (scopeOnlyMatcher) holds(*models.PriceRule, time.Time, models.QuoteConditions) bool {
	return true
}

// IsCurrentlyApplicable reports whether an active rule's time window holds
// at now. Every populated dimension must match; an empty one imposes
// nothing, so a rule without time data is applicable whenever it is active.
// now should already be in the evaluation time zone.
func IsCurrentlyApplicable(rule *models.PriceRule, now time.Time) bool {
	if !rule.Active {
		return false
	}
	tc := rule.TimeConditions
	if tc == nil {
		return true
	}

	if len(tc.DaysOfWeek) > 0 && !containsDay(tc.DaysOfWeek, int(now.Weekday())) {
		return false
	}

	if len(tc.HourRanges) > 0 {
		hour := now.Hour()
		matched := false
		for _, hr := range tc.HourRanges {
			if hourInRange(hour, hr) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(tc.DateRanges) > 0 {
		matched := false
		for _, dr := range tc.DateRanges {
			if !now.Before(dr.Start) && !now.After(dr.End) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// hourInRange treats both bounds as inclusive. A range whose start is after
// its end wraps past midnight (22..5 holds at 23 and at 3).
func hourInRange(hour int, hr models.HourRange) bool {
	if hr.Start <= hr.End {
		return hour >= hr.Start && hour <= hr.End
	}
	return hour >= hr.Start || hour <= hr.End
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
