package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

func mustTime(t *testing.T, s string) types.TimeString {
	t.Helper()
	ts, err := types.NewTimeStringFromString(s)
	require.NoError(t, err)
	return ts
}

func TestSlotGrid(t *testing.T) {
	t.Run("whole day splits into even windows", func(t *testing.T) {
		cfg := &SlotConfig{
			OpenTime:        mustTime(t, "08:00"),
			CloseTime:       mustTime(t, "12:00"),
			DurationMinutes: 60,
			BasePrice:       1000,
		}

		grid, err := SlotGrid(cfg)
		require.NoError(t, err)
		require.Len(t, grid, 4)
		assert.Equal(t, "08:00", grid[0].Start.String())
		assert.Equal(t, "09:00", grid[0].End.String())
		assert.Equal(t, "11:00", grid[3].Start.String())
		assert.Equal(t, "12:00", grid[3].End.String())
	})

	t.Run("trailing partial window is dropped", func(t *testing.T) {
		cfg := &SlotConfig{
			OpenTime:        mustTime(t, "08:00"),
			CloseTime:       mustTime(t, "09:30"),
			DurationMinutes: 60,
			BasePrice:       1000,
		}

		grid, err := SlotGrid(cfg)
		require.NoError(t, err)
		require.Len(t, grid, 1)
		assert.Equal(t, "08:00", grid[0].Start.String())
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		cfg := &SlotConfig{
			OpenTime:        mustTime(t, "12:00"),
			CloseTime:       mustTime(t, "08:00"),
			DurationMinutes: 60,
		}

		_, err := SlotGrid(cfg)
		assert.ErrorIs(t, err, ErrCloseBeforeOpen)
	})

	t.Run("non-positive duration is rejected", func(t *testing.T) {
		cfg := &SlotConfig{
			OpenTime:        mustTime(t, "08:00"),
			CloseTime:       mustTime(t, "12:00"),
			DurationMinutes: 0,
		}

		_, err := SlotGrid(cfg)
		assert.ErrorIs(t, err, ErrNonPositiveDuration)
	})
}

func TestContainsWindow(t *testing.T) {
	cfg := &SlotConfig{
		OpenTime:        mustTime(t, "08:00"),
		CloseTime:       mustTime(t, "22:00"),
		DurationMinutes: 90,
	}

	assert.True(t, ContainsWindow(cfg, mustTime(t, "08:00"), 90))
	assert.True(t, ContainsWindow(cfg, mustTime(t, "09:30"), 90))

	// Смещённое окно не лежит на сетке
	assert.False(t, ContainsWindow(cfg, mustTime(t, "09:00"), 90))
	// Другая длительность не совпадает с сеткой
	assert.False(t, ContainsWindow(cfg, mustTime(t, "08:00"), 60))
}

func TestDayTypeFor(t *testing.T) {
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, DayTypeWeekday, DayTypeFor(monday, false))
	assert.Equal(t, DayTypeWeekend, DayTypeFor(saturday, false))

	// Производственный календарь важнее дня недели
	assert.Equal(t, DayTypeHoliday, DayTypeFor(monday, true))
	assert.Equal(t, DayTypeHoliday, DayTypeFor(saturday, true))
}

func TestToDayType(t *testing.T) {
	dt, err := ToDayType("WEEKEND")
	require.NoError(t, err)
	assert.Equal(t, DayTypeWeekend, dt)

	_, err = ToDayType("weekend")
	assert.ErrorIs(t, err, ErrInvalidDayType)
}

func TestOverlaps(t *testing.T) {
	start := mustTime(t, "10:00")
	end := mustTime(t, "11:00")

	assert.True(t, Overlaps(start, end, mustTime(t, "10:30"), mustTime(t, "11:30")))
	assert.True(t, Overlaps(start, end, mustTime(t, "09:30"), mustTime(t, "10:30")))
	assert.True(t, Overlaps(start, end, mustTime(t, "10:00"), mustTime(t, "11:00")))

	// Смежные окна не пересекаются
	assert.False(t, Overlaps(start, end, mustTime(t, "11:00"), mustTime(t, "12:00")))
	assert.False(t, Overlaps(start, end, mustTime(t, "09:00"), mustTime(t, "10:00")))
}
