package create_booking

import (
	createBooking "github.com/m04kA/SMC-VenueBookingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	SlotTokens     []string `json:"slotTokens"`
	Headcount      int      `json:"headcount"`
	PaymentMethod  string   `json:"paymentMethod"` // online | venue
	IdempotencyKey string   `json:"idempotencyKey"`
	AllowSplit     bool     `json:"allowSplit,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) *createBooking.Request {
	return &createBooking.Request{
		UserID:         userID,
		SlotTokens:     r.SlotTokens,
		Headcount:      r.Headcount,
		PaymentMethod:  r.PaymentMethod,
		IdempotencyKey: r.IdempotencyKey,
		AllowSplit:     r.AllowSplit,
		Notes:          r.Notes,
	}
}
