package models

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64  `json:"userId"`
	ReferenceCode      string `json:"referenceCode"`
	CancellationReason string `json:"cancellationReason"`
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// GetVenueBookingsRequest запрос на получение бронирований площадки
type GetVenueBookingsRequest struct {
	ServiceID       int64      `json:"serviceId"`
	ResourceIDs     []int64    `json:"resourceIds,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetVenueBookingsRequest) ToDomainFilter() (domain.VenueBookingsFilter, error) {
	filter := domain.VenueBookingsFilter{
		ServiceID:       r.ServiceID,
		ResourceIDs:     r.ResourceIDs,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := domain.ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ReferenceCode   string `json:"referenceCode"`
	UserID          int64  `json:"userId"`
	ServiceID       int64  `json:"serviceId"`
	ResourceID      *int64 `json:"resourceId,omitempty"`
	Activity        string `json:"activity"`
	BookingDate     string `json:"bookingDate"` // "2026-03-14"
	StartTime       string `json:"startTime"`   // "10:00"
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`

	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PaymentMethod string `json:"paymentMethod"`
	Terminal      bool   `json:"terminal"` // терминальный статус: опрос можно прекращать

	Amount         float64 `json:"amount"`
	PlatformFee    float64 `json:"platformFee"`
	OnlineAmount   float64 `json:"onlineAmount"`
	VenueAmountDue float64 `json:"venueAmountDue"`

	PricingType string  `json:"pricingType"`
	Headcount   int     `json:"headcount"`
	UnitPrice   float64 `json:"unitPrice"`

	LockExpiresAt *string `json:"lockExpiresAt,omitempty"` // ISO 8601

	Notes              *string `json:"notes,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// CancelBookingResponse результат отмены бронирования
type CancelBookingResponse struct {
	ReferenceCode string  `json:"referenceCode"`
	Status        string  `json:"status"`
	RefundPercent int     `json:"refundPercent"`
	RefundAmount  float64 `json:"refundAmount"`
	RefundStatus  string  `json:"refundStatus"`
}

// CollectVenuePaymentResponse результат приёма оплаты на месте
type CollectVenuePaymentResponse struct {
	ReferenceCode   string  `json:"referenceCode"`
	Status          string  `json:"status"`
	AmountCollected float64 `json:"amountCollected"`
}

// FromDomainBooking конвертирует domain.Booking в response модель
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ReferenceCode:      b.ReferenceCode,
		UserID:             b.UserID,
		ServiceID:          b.ServiceID,
		ResourceID:         b.ResourceID,
		Activity:           b.Activity,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		EndTime:            b.EndTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		PaymentMethod:      string(b.PaymentMethod),
		Terminal:           b.IsTerminal(),
		Amount:             b.Amount,
		PlatformFee:        b.PlatformFee,
		OnlineAmount:       b.OnlineAmount,
		VenueAmountDue:     b.VenueAmountDue,
		PricingType:        string(b.PricingType),
		Headcount:          b.Headcount,
		UnitPrice:          b.UnitPrice,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.LockExpiresAt != nil {
		s := b.LockExpiresAt.Format(time.RFC3339)
		resp.LockExpiresAt = &s
	}
	if b.CancelledAt != nil {
		s := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}

	return resp
}

// FromDomainBookingList конвертирует список domain.Booking в response модель
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, *FromDomainBooking(b))
	}
	return &BookingListResponse{Bookings: out, Total: len(out)}
}
