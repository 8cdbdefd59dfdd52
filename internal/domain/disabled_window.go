package domain

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// DisabledWindow is an admin-imposed block of a resource for a date and
// time range (maintenance, private event). For availability purposes it
// behaves like a booking but carries no price or payment.
type DisabledWindow struct {
	ID         int64
	ResourceID int64
	Date       time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString
	Reason     string
	CreatedAt  time.Time
}

// Blocks reports whether the window intersects the [start, end) range
func (w *DisabledWindow) Blocks(start, end types.TimeString) bool {
	return Overlaps(w.StartTime, w.EndTime, start, end)
}
