package domain

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// BookingStatus is the lifecycle axis of a booking
type BookingStatus string

const (
	StatusPending              BookingStatus = "pending"
	StatusAwaitingConfirmation BookingStatus = "awaiting_confirmation"
	StatusPaymentPending       BookingStatus = "payment_pending" // soft-locked manual payment flow
	StatusConfirmed            BookingStatus = "confirmed"
	StatusExpired              BookingStatus = "expired"
	StatusCancelled            BookingStatus = "cancelled"
	StatusCancelledByUser      BookingStatus = "cancelled_by_user"
	StatusCompleted            BookingStatus = "completed"
)

// PaymentStatus is the orthogonal payment axis, tracking the external
// payment independently of the booking lifecycle
type PaymentStatus string

const (
	PaymentNotStarted PaymentStatus = "not_started"
	PaymentInProgress PaymentStatus = "in_progress"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
)

// PaymentMethod selects how a booking is paid
type PaymentMethod string

const (
	// PaymentMethodOnline pays the full amount through the gateway
	PaymentMethodOnline PaymentMethod = "online"
	// PaymentMethodVenue pays most of the amount at the venue; the slot is
	// held under a soft lock until the venue confirms collection
	PaymentMethodVenue PaymentMethod = "venue"
)

// IsValid reports whether the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodVenue
}

// Booking is the central mutable entity. Created when a user submits a
// booking intent; mutated by payment webhooks, venue collection and the
// expiry sweep; never physically deleted.
type Booking struct {
	ID              int64
	ReferenceCode   string // user-facing, unique
	UserID          int64
	ServiceID       int64
	ResourceID      *int64 // nullable after a privacy unlink
	Activity        string
	BookingDate     time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int

	Status        BookingStatus
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	LockExpiresAt *time.Time // set while soft-locked

	IdempotencyKey string // unique

	// Amounts. OnlineAmount + VenueAmountDue = Amount.
	Amount           float64
	PlatformFee      float64
	OnlineAmount     float64
	VenueAmountDue   float64
	VenueCollectedAt *time.Time

	// Pricing snapshot taken at creation time so later config changes never
	// retroactively alter historical bookings
	PricingType PricingType
	Headcount   int
	UnitPrice   float64

	Notes              *string
	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActivelyLocked is the double-booking predicate: it holds for bookings
// that must block their slot regardless of wall-clock time. The partial
// unique index on bookings mirrors exactly this predicate.
func IsActivelyLocked(status BookingStatus, payment PaymentStatus) bool {
	if status == StatusConfirmed {
		return true
	}
	if status == StatusPending || status == StatusAwaitingConfirmation {
		return payment == PaymentInProgress || payment == PaymentSuccess
	}
	return false
}

// IsActivelyLocked reports whether the booking blocks its slot by the
// double-booking predicate alone (ignoring soft locks)
func (b *Booking) IsActivelyLocked() bool {
	return IsActivelyLocked(b.Status, b.PaymentStatus)
}

// IsSoftLocked reports whether the booking holds a live soft lock at now
func (b *Booking) IsSoftLocked(now time.Time) bool {
	return b.Status == StatusPaymentPending &&
		b.LockExpiresAt != nil &&
		b.LockExpiresAt.After(now)
}

// BlocksSlot reports whether the booking makes its slot unavailable to
// other users at now: either actively locked, or holding a live soft lock
func (b *Booking) BlocksSlot(now time.Time) bool {
	return b.IsActivelyLocked() || b.IsSoftLocked(now)
}

// IsTerminal reports whether the booking is in a final state
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusExpired, StatusCancelled, StatusCancelledByUser, StatusCompleted:
		return true
	case StatusConfirmed:
		// Confirmed is terminal on the lifecycle axis; completion is a
		// post-hoc marking after the slot has passed.
		return true
	}
	return false
}

// CanBeCancelled reports whether a cancellation may be attempted.
// The refund policy gate decides whether it is actually allowed.
func (b *Booking) CanBeCancelled() bool {
	switch b.Status {
	case StatusPending, StatusAwaitingConfirmation, StatusPaymentPending, StatusConfirmed:
		return true
	}
	return false
}

// IsAbandonedCart reports whether the booking is a parallel hold that
// loses when another booking on the same slot starts paying
func (b *Booking) IsAbandonedCart() bool {
	return b.Status == StatusPending && b.PaymentStatus == PaymentNotStarted
}

// StartsAt combines the booking date and start time into an instant in loc
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	mins, err := b.StartTime.MinutesSinceMidnight()
	if err != nil {
		return time.Time{}, err
	}
	d := b.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, loc), nil
}

// ToDomainBookingStatus validates and converts a raw status string
func ToDomainBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	switch status {
	case StatusPending, StatusAwaitingConfirmation, StatusPaymentPending,
		StatusConfirmed, StatusExpired, StatusCancelled, StatusCancelledByUser,
		StatusCompleted:
		return status, nil
	}
	return "", ErrInvalidStatus
}

// InactiveStatuses are statuses that never block a slot.
// Used when filtering bookings for availability computation.
var InactiveStatuses = []BookingStatus{
	StatusExpired,
	StatusCancelled,
	StatusCancelledByUser,
	StatusCompleted,
}

// VenueBookingsFilter is the flexible filter for venue-side booking queries
type VenueBookingsFilter struct {
	ServiceID       int64
	ResourceIDs     []int64    // optional; nil = all resources of the service
	StartDate       *time.Time // optional period start
	EndDate         *time.Time // optional period end
	Status          *BookingStatus
	IncludeInactive bool
}
