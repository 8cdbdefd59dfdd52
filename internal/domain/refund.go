package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus mirrors the external refund processor's lifecycle.
// The canonical vocabulary is PENDING → PROCESSED | FAILED.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

// Refund records the outcome of a cancellation. At most one per booking.
type Refund struct {
	ID                int64
	BookingID         int64
	OriginalAmount    float64
	RefundPercent     int
	RefundAmount      float64
	MinutesBeforeSlot int
	Status            RefundStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RefundRule maps a minimum-minutes threshold to a refund percent.
// Rules are evaluated in descending threshold order; the first rule whose
// threshold is ≤ the remaining minutes wins.
type RefundRule struct {
	ID               int64
	PolicyID         int64
	MinMinutesBefore int
	RefundPercent    int
}

// CancellationPolicy is a venue service's cancellation configuration
type CancellationPolicy struct {
	ID                     int64
	ServiceID              int64
	CancellationEnabled    bool
	MinCancellationMinutes int // global gate: below this, cancellation is refused
	AllowPastCancellation  bool
	Rules                  []RefundRule
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// RefundOutcome is the result of evaluating the policy for one booking
type RefundOutcome struct {
	Allowed       bool
	Reason        string // human-readable, set when Allowed is false
	RefundPercent int
	RefundAmount  float64
}

// CalculateRefund evaluates the cancellation policy for a booking with the
// given amount and minutes remaining until its slot starts. Pure function.
func CalculateRefund(policy *CancellationPolicy, originalAmount float64, minutesRemaining int) RefundOutcome {
	if !policy.CancellationEnabled {
		return RefundOutcome{Allowed: false, Reason: "cancellation is disabled for this venue"}
	}

	if minutesRemaining < 0 && !policy.AllowPastCancellation {
		return RefundOutcome{Allowed: false, Reason: "the slot has already started"}
	}

	if minutesRemaining >= 0 && minutesRemaining < policy.MinCancellationMinutes {
		return RefundOutcome{Allowed: false, Reason: "too close to the slot start to cancel"}
	}

	percent := 0
	for _, rule := range sortedRulesDescending(policy.Rules) {
		if rule.MinMinutesBefore <= minutesRemaining {
			percent = rule.RefundPercent
			break
		}
	}

	return RefundOutcome{
		Allowed:       true,
		RefundPercent: percent,
		RefundAmount:  refundAmount(originalAmount, percent),
	}
}

// refundAmount computes originalAmount × percent / 100 with currency
// rounding (2 decimal places)
func refundAmount(originalAmount float64, percent int) float64 {
	amount := decimal.NewFromFloat(originalAmount).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(2)
	f, _ := amount.Float64()
	return f
}

// sortedRulesDescending returns the rules ordered by threshold, highest
// first, without mutating the input
func sortedRulesDescending(rules []RefundRule) []RefundRule {
	out := make([]RefundRule, len(rules))
	copy(out, rules)
	sort.Slice(out, func(i, j int) bool {
		return out[i].MinMinutesBefore > out[j].MinMinutesBefore
	})
	return out
}
