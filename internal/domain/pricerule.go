package domain

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// PriceRule adjusts the price of slots matching a day type and a time
// range. Belongs to a SlotConfig. Multiple rules may match one slot;
// the highest priority wins.
type PriceRule struct {
	ID                int64
	SlotConfigID      int64
	DayType           DayType
	StartTime         types.TimeString // rule applies to slots starting in [StartTime, EndTime)
	EndTime           types.TimeString
	BasePriceOverride *float64 // nil = keep the SlotConfig base price
	ExtraCharge       float64
	Priority          int
	Reason            string
	Enabled           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Matches reports whether the rule applies to a slot with the given
// day type and start time
func (r *PriceRule) Matches(dayType DayType, slotStart types.TimeString) bool {
	if !r.Enabled {
		return false
	}
	if r.DayType != DayTypeAll && r.DayType != dayType {
		return false
	}
	// [StartTime, EndTime) contains the slot start
	if slotStart.IsBefore(r.StartTime) {
		return false
	}
	if !slotStart.IsBefore(r.EndTime) {
		return false
	}
	return true
}

// ResolvedPrice is the outcome of price resolution for one slot
type ResolvedPrice struct {
	UnitPrice   float64
	BasePrice   float64
	ExtraCharge float64
	Rule        *PriceRule // nil when no rule matched (base-price fallback)
}

// ResolvePrice resolves the price of a slot from the config base price
// and the configured rules. Among matching rules the highest priority
// wins; ties prefer the exact day-type match over ALL, then the smallest
// id for determinism. No match is a deliberate non-error path: the config
// base price applies with zero extra charge.
func ResolvePrice(cfg *SlotConfig, rules []*PriceRule, dayType DayType, slotStart types.TimeString) ResolvedPrice {
	var best *PriceRule

	for _, rule := range rules {
		if !rule.Matches(dayType, slotStart) {
			continue
		}
		if best == nil || ruleWins(rule, best) {
			best = rule
		}
	}

	if best == nil {
		return ResolvedPrice{
			UnitPrice: cfg.BasePrice,
			BasePrice: cfg.BasePrice,
		}
	}

	base := cfg.BasePrice
	if best.BasePriceOverride != nil {
		base = *best.BasePriceOverride
	}

	return ResolvedPrice{
		UnitPrice:   base + best.ExtraCharge,
		BasePrice:   base,
		ExtraCharge: best.ExtraCharge,
		Rule:        best,
	}
}

// ruleWins reports whether candidate beats the current best rule
func ruleWins(candidate, best *PriceRule) bool {
	if candidate.Priority != best.Priority {
		return candidate.Priority > best.Priority
	}
	// Equal priority: the narrower day-type match beats ALL
	candidateExact := candidate.DayType != DayTypeAll
	bestExact := best.DayType != DayTypeAll
	if candidateExact != bestExact {
		return candidateExact
	}
	// Still tied: earliest created wins
	return candidate.ID < best.ID
}
