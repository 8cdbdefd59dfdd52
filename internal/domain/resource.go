package domain

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// PricingType defines how a resource charges for a slot
type PricingType string

const (
	// PricingPerSlot is a flat price for the whole slot
	PricingPerSlot PricingType = "PER_SLOT"
	// PricingPerPerson multiplies the slot price by the headcount
	PricingPerPerson PricingType = "PER_PERSON"
)

// IsValid reports whether the pricing type is one of the known values
func (p PricingType) IsValid() bool {
	return p == PricingPerSlot || p == PricingPerPerson
}

// Resource is one physical bookable unit ("Turf 1") belonging to a venue
// service. Resources are soft-disabled rather than deleted so historical
// bookings keep a valid reference.
type Resource struct {
	ID           int64
	ServiceID    int64
	Name         string
	PricingType  PricingType
	MaxHeadcount *int // only meaningful for PER_PERSON; nil = uncapped
	Activities   []string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SupportsActivity reports whether the resource supports the activity code
func (r *Resource) SupportsActivity(code string) bool {
	for _, a := range r.Activities {
		if a == code {
			return true
		}
	}
	return false
}

// CapHeadcount clamps n to the resource's configured maximum, if any
func (r *Resource) CapHeadcount(n int) int {
	if r.MaxHeadcount != nil && n > *r.MaxHeadcount {
		return *r.MaxHeadcount
	}
	return n
}

// SlotConfig is the one-to-one schedule configuration of a resource:
// opening time, closing time, slot duration and a base price. Slots are
// never persisted; they are derived from this config on demand.
type SlotConfig struct {
	ID              int64
	ResourceID      int64
	OpenTime        types.TimeString
	CloseTime       types.TimeString
	DurationMinutes int
	BasePrice       float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the config invariants: closing after opening,
// positive duration
func (c *SlotConfig) Validate() error {
	if err := c.OpenTime.Validate(); err != nil {
		return err
	}
	if err := c.CloseTime.Validate(); err != nil {
		return err
	}
	if !c.OpenTime.IsBefore(c.CloseTime) {
		return ErrCloseBeforeOpen
	}
	if c.DurationMinutes <= 0 {
		return ErrNonPositiveDuration
	}
	return nil
}

// SlotCount returns the number of whole slots the config yields:
// floor((close - open) / duration)
func (c *SlotConfig) SlotCount() int {
	span, err := c.OpenTime.MinutesUntil(c.CloseTime)
	if err != nil || span <= 0 || c.DurationMinutes <= 0 {
		return 0
	}
	return span / c.DurationMinutes
}
