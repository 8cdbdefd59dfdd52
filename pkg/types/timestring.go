package types

import (
	"errors"
	"fmt"
	"time"
)

// TimeString is a wall-clock time of day in "HH:MM" format.
// It is stored as a plain string so it maps directly onto the
// TIME column in Postgres and onto JSON payloads.
type TimeString string

const timeLayout = "15:04"

// ErrInvalidTimeString is returned when a value does not parse as "HH:MM".
var ErrInvalidTimeString = errors.New("invalid time string format, expected HH:MM")

// NewTimeString builds a TimeString from the time-of-day part of t.
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format(timeLayout))
}

// NewTimeStringFromString parses and validates s as "HH:MM".
func NewTimeStringFromString(s string) (TimeString, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	// Re-format so "9:05" is normalized to "09:05".
	return TimeString(t.Format(timeLayout)), nil
}

// String returns the raw "HH:MM" value.
func (ts TimeString) String() string {
	return string(ts)
}

// IsZero reports whether the value is empty.
func (ts TimeString) IsZero() bool {
	return ts == ""
}

// Validate checks that the value parses as "HH:MM".
func (ts TimeString) Validate() error {
	if _, err := time.Parse(timeLayout, string(ts)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	return nil
}

// MinutesSinceMidnight returns the value as minutes from 00:00.
func (ts TimeString) MinutesSinceMidnight() (int, error) {
	t, err := time.Parse(timeLayout, string(ts))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AddMinutes returns the time-of-day m minutes later.
// The result wraps within a single day; callers never schedule
// slots across midnight, so an overflow is reported as an error.
func (ts TimeString) AddMinutes(m int) (TimeString, error) {
	total, err := ts.MinutesSinceMidnight()
	if err != nil {
		return "", err
	}
	total += m
	if total < 0 || total >= 24*60 {
		return "", fmt.Errorf("time %s + %d minutes is outside the day", ts, m)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

// IsBefore reports whether ts is strictly earlier than other.
// Values are zero-padded "HH:MM", so lexicographic comparison is
// equivalent to chronological comparison.
func (ts TimeString) IsBefore(other TimeString) bool {
	return string(ts) < string(other)
}

// IsAfter reports whether ts is strictly later than other.
func (ts TimeString) IsAfter(other TimeString) bool {
	return string(ts) > string(other)
}

// MinutesUntil returns the number of minutes from ts to other
// within the same day. Negative if other is earlier.
func (ts TimeString) MinutesUntil(other TimeString) (int, error) {
	a, err := ts.MinutesSinceMidnight()
	if err != nil {
		return 0, err
	}
	b, err := other.MinutesSinceMidnight()
	if err != nil {
		return 0, err
	}
	return b - a, nil
}
