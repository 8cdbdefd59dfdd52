package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrice(t *testing.T) {
	cfg := &SlotConfig{BasePrice: 1000}

	rule := func(id int64, dayType DayType, from, to string, priority int, extra float64) *PriceRule {
		return &PriceRule{
			ID:          id,
			DayType:     dayType,
			StartTime:   mustTime(t, from),
			EndTime:     mustTime(t, to),
			ExtraCharge: extra,
			Priority:    priority,
			Enabled:     true,
		}
	}

	t.Run("no matching rule falls back to base price", func(t *testing.T) {
		rules := []*PriceRule{rule(1, DayTypeWeekend, "18:00", "23:00", 10, 500)}

		got := ResolvePrice(cfg, rules, DayTypeWeekday, mustTime(t, "10:00"))

		assert.Equal(t, 1000.0, got.UnitPrice)
		assert.Equal(t, 0.0, got.ExtraCharge)
		assert.Nil(t, got.Rule)
	})

	t.Run("highest priority wins", func(t *testing.T) {
		rules := []*PriceRule{
			rule(1, DayTypeAll, "00:00", "23:59", 1, 100),
			rule(2, DayTypeAll, "18:00", "23:00", 10, 500),
		}

		got := ResolvePrice(cfg, rules, DayTypeWeekday, mustTime(t, "19:00"))

		require.NotNil(t, got.Rule)
		assert.Equal(t, int64(2), got.Rule.ID)
		assert.Equal(t, 1500.0, got.UnitPrice)
	})

	t.Run("equal priority prefers exact day type over ALL", func(t *testing.T) {
		rules := []*PriceRule{
			rule(1, DayTypeAll, "00:00", "23:59", 5, 100),
			rule(2, DayTypeWeekend, "00:00", "23:59", 5, 300),
		}

		got := ResolvePrice(cfg, rules, DayTypeWeekend, mustTime(t, "12:00"))

		require.NotNil(t, got.Rule)
		assert.Equal(t, int64(2), got.Rule.ID)
	})

	t.Run("full tie resolves to smallest id", func(t *testing.T) {
		rules := []*PriceRule{
			rule(7, DayTypeWeekday, "00:00", "23:59", 5, 300),
			rule(3, DayTypeWeekday, "00:00", "23:59", 5, 100),
		}

		got := ResolvePrice(cfg, rules, DayTypeWeekday, mustTime(t, "12:00"))

		require.NotNil(t, got.Rule)
		assert.Equal(t, int64(3), got.Rule.ID)
	})

	t.Run("base price override replaces config base", func(t *testing.T) {
		r := rule(1, DayTypeHoliday, "00:00", "23:59", 5, 200)
		override := 2000.0
		r.BasePriceOverride = &override

		got := ResolvePrice(cfg, []*PriceRule{r}, DayTypeHoliday, mustTime(t, "12:00"))

		assert.Equal(t, 2000.0, got.BasePrice)
		assert.Equal(t, 2200.0, got.UnitPrice)
	})

	t.Run("disabled rule is ignored", func(t *testing.T) {
		r := rule(1, DayTypeAll, "00:00", "23:59", 10, 500)
		r.Enabled = false

		got := ResolvePrice(cfg, []*PriceRule{r}, DayTypeWeekday, mustTime(t, "12:00"))

		assert.Nil(t, got.Rule)
		assert.Equal(t, 1000.0, got.UnitPrice)
	})
}

func TestPriceRuleMatches(t *testing.T) {
	r := &PriceRule{
		DayType:   DayTypeWeekend,
		StartTime: mustTime(t, "18:00"),
		EndTime:   mustTime(t, "22:00"),
		Enabled:   true,
	}

	assert.True(t, r.Matches(DayTypeWeekend, mustTime(t, "18:00")))
	assert.True(t, r.Matches(DayTypeWeekend, mustTime(t, "21:00")))

	// Правая граница интервала исключается
	assert.False(t, r.Matches(DayTypeWeekend, mustTime(t, "22:00")))
	assert.False(t, r.Matches(DayTypeWeekday, mustTime(t, "19:00")))
}
