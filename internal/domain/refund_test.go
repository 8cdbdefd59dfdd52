package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRefund(t *testing.T) {
	policy := &CancellationPolicy{
		CancellationEnabled:    true,
		MinCancellationMinutes: 60,
		Rules: []RefundRule{
			{MinMinutesBefore: 60, RefundPercent: 50},
			{MinMinutesBefore: 1440, RefundPercent: 100},
			{MinMinutesBefore: 360, RefundPercent: 80},
		},
	}

	t.Run("more than a day ahead refunds fully", func(t *testing.T) {
		got := CalculateRefund(policy, 2000, 2000)

		assert.True(t, got.Allowed)
		assert.Equal(t, 100, got.RefundPercent)
		assert.Equal(t, 2000.0, got.RefundAmount)
	})

	t.Run("mid-range threshold applies", func(t *testing.T) {
		got := CalculateRefund(policy, 2000, 400)

		assert.True(t, got.Allowed)
		assert.Equal(t, 80, got.RefundPercent)
		assert.Equal(t, 1600.0, got.RefundAmount)
	})

	t.Run("exact threshold boundary counts", func(t *testing.T) {
		got := CalculateRefund(policy, 2000, 1440)

		assert.True(t, got.Allowed)
		assert.Equal(t, 100, got.RefundPercent)
	})

	t.Run("below every threshold but above the gate refunds nothing", func(t *testing.T) {
		gatelessPolicy := &CancellationPolicy{
			CancellationEnabled: true,
			Rules:               []RefundRule{{MinMinutesBefore: 1440, RefundPercent: 100}},
		}

		got := CalculateRefund(gatelessPolicy, 2000, 30)

		assert.True(t, got.Allowed)
		assert.Equal(t, 0, got.RefundPercent)
		assert.Equal(t, 0.0, got.RefundAmount)
	})

	t.Run("inside minimum window is refused", func(t *testing.T) {
		got := CalculateRefund(policy, 2000, 30)

		assert.False(t, got.Allowed)
		assert.NotEmpty(t, got.Reason)
	})

	t.Run("started slot is refused unless past cancellation is allowed", func(t *testing.T) {
		got := CalculateRefund(policy, 2000, -10)
		assert.False(t, got.Allowed)

		pastOK := *policy
		pastOK.AllowPastCancellation = true
		got = CalculateRefund(&pastOK, 2000, -10)
		assert.True(t, got.Allowed)
		assert.Equal(t, 0, got.RefundPercent)
	})

	t.Run("disabled policy refuses everything", func(t *testing.T) {
		disabled := *policy
		disabled.CancellationEnabled = false

		got := CalculateRefund(&disabled, 2000, 10000)

		assert.False(t, got.Allowed)
	})

	t.Run("refund amount rounds to two decimal places", func(t *testing.T) {
		p := &CancellationPolicy{
			CancellationEnabled: true,
			Rules:               []RefundRule{{MinMinutesBefore: 0, RefundPercent: 33}},
		}

		got := CalculateRefund(p, 100.10, 500)

		assert.Equal(t, 33.03, got.RefundAmount)
	})

	t.Run("earlier cancellation never refunds less", func(t *testing.T) {
		prev := -1.0
		for _, minutes := range []int{60, 360, 1440, 5000} {
			got := CalculateRefund(policy, 1000, minutes)
			assert.True(t, got.Allowed)
			assert.GreaterOrEqual(t, got.RefundAmount, prev)
			prev = got.RefundAmount
		}
	})
}
