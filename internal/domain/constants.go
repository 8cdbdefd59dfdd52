package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes     = 60
	DefaultMinBookingNoticeMinutes = 30
	DefaultAdvanceBookingDays      = 0 // 0 = unlimited
	DefaultQuoteTTLMinutes         = 5
	DefaultSoftLockTTLMinutes      = 10
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 15
	MaxSlotDurationMinutes      = 480 // 8 hours
	MinHeadcount                = 1
	MaxHeadcount                = 200
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxIdempotencyKeyLength     = 64
	MaxTokensPerBooking         = 8
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
