package domain

import "errors"

var (
	// ErrCloseBeforeOpen is returned when a slot config closes at or before it opens
	ErrCloseBeforeOpen = errors.New("domain: closing time must be after opening time")

	// ErrNonPositiveDuration is returned for a zero or negative slot duration
	ErrNonPositiveDuration = errors.New("domain: slot duration must be positive")

	// ErrInvalidDayType is returned for an unknown day type value
	ErrInvalidDayType = errors.New("domain: invalid day type")

	// ErrInvalidStatus is returned for an unknown booking status value
	ErrInvalidStatus = errors.New("domain: invalid booking status")
)
