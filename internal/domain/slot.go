package domain

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// DayType is the calendar axis pricing rules key on besides time-of-day
type DayType string

const (
	DayTypeWeekday DayType = "WEEKDAY"
	DayTypeWeekend DayType = "WEEKEND"
	DayTypeHoliday DayType = "HOLIDAY"
	DayTypeAll     DayType = "ALL"
)

// IsValid reports whether the day type is one of the known values
func (d DayType) IsValid() bool {
	switch d {
	case DayTypeWeekday, DayTypeWeekend, DayTypeHoliday, DayTypeAll:
		return true
	}
	return false
}

// ToDayType validates and converts a raw day-type string
func ToDayType(s string) (DayType, error) {
	d := DayType(s)
	if !d.IsValid() {
		return "", ErrInvalidDayType
	}
	return d, nil
}

// DayTypeFor derives the day type of a date. An explicit holiday flag
// always wins over the weekday/weekend derivation.
func DayTypeFor(date time.Time, isHoliday bool) DayType {
	if isHoliday {
		return DayTypeHoliday
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}

// SlotWindow is one derived [Start, End) window on a resource's grid.
// Windows are never persisted; they are recomputed from SlotConfig.
type SlotWindow struct {
	Start           types.TimeString
	End             types.TimeString
	DurationMinutes int
}

// SlotGrid derives the ordered sequence of candidate windows covering
// [open, close) in fixed-size steps. A trailing span shorter than one
// duration is dropped.
func SlotGrid(cfg *SlotConfig) ([]SlotWindow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	windows := make([]SlotWindow, 0, cfg.SlotCount())
	current := cfg.OpenTime

	for current.IsBefore(cfg.CloseTime) {
		end, err := current.AddMinutes(cfg.DurationMinutes)
		if err != nil {
			// Next step would cross midnight; the grid ends here.
			break
		}
		if end.IsAfter(cfg.CloseTime) {
			break
		}
		windows = append(windows, SlotWindow{
			Start:           current,
			End:             end,
			DurationMinutes: cfg.DurationMinutes,
		})
		current = end
	}

	return windows, nil
}

// ContainsWindow reports whether the grid of cfg contains a window with
// the given start and duration. Used to reject bookings that do not fall
// on the configured grid.
func ContainsWindow(cfg *SlotConfig, start types.TimeString, durationMinutes int) bool {
	if durationMinutes != cfg.DurationMinutes {
		return false
	}
	grid, err := SlotGrid(cfg)
	if err != nil {
		return false
	}
	for _, w := range grid {
		if w.Start == start {
			return true
		}
	}
	return false
}

// AvailableSlot is the externally visible aggregation of one time window
// across a resource pool
type AvailableSlot struct {
	Start           types.TimeString
	End             types.TimeString
	DurationMinutes int
	AvailableCount  int
	TotalCount      int
	UnitPrice       float64
	PricingType     PricingType
}

// IsFull reports whether no resource in the pool is free for this window
func (s *AvailableSlot) IsFull() bool {
	return s.AvailableCount <= 0
}

// Overlaps reports whether two [start, end) time ranges truly intersect.
// Ranges that merely touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd types.TimeString) bool {
	return aStart.IsBefore(bEnd) && aEnd.IsAfter(bStart)
}
