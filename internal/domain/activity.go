package domain

import "time"

// Activity is a bookable sport or use-case type ("football", "swimming").
// Immutable reference data; resources declare which activities they support.
type Activity struct {
	Code        string
	DisplayName string
	Enabled     bool
	CreatedAt   time.Time
}
