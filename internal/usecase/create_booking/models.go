package create_booking

import (
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
)

// Config параметры бизнес-логики создания бронирований
type Config struct {
	PlatformFeePercent float64 // доля платформы, удерживаемая онлайн
	SoftLockTTL        time.Duration
	MinNoticeMinutes   int // минимальное предуведомление до начала слота
	AdvanceBookingDays int // горизонт бронирования; 0 = без ограничения
}

// Request модель запроса на создание бронирования.
// Несколько токенов означают бронирование нескольких окон одной операцией.
type Request struct {
	UserID         int64
	SlotTokens     []string
	Headcount      int
	PaymentMethod  string // online | venue
	IdempotencyKey string
	AllowSplit     bool // разрешить раскладку окон по разным ресурсам пула
	Notes          *string
}

// BookedSlot одно забронированное окно в ответе
type BookedSlot struct {
	ReferenceCode string  `json:"referenceCode"`
	ResourceID    int64   `json:"resourceId"`
	ResourceName  string  `json:"resourceName"`
	Date          string  `json:"date"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

// Response модель ответа с созданными бронированиями
type Response struct {
	Bookings       []BookedSlot `json:"bookings"`
	TotalAmount    float64      `json:"totalAmount"`
	PlatformFee    float64      `json:"platformFee"`
	OnlineAmount   float64      `json:"onlineAmount"`
	VenueAmountDue float64      `json:"venueAmountDue"`
	PaymentMethod  string       `json:"paymentMethod"`
	LockExpiresAt  *string      `json:"lockExpiresAt,omitempty"` // ISO 8601, для оплаты на месте
	Resumed        bool         `json:"resumed"`                 // true, если возвращено существующее бронирование
}

// fromBookings собирает ответ из созданных бронирований
func fromBookings(bookings []*domain.Booking, resourceNames map[int64]string, resumed bool) *Response {
	resp := &Response{Resumed: resumed}

	for _, b := range bookings {
		var resourceID int64
		if b.ResourceID != nil {
			resourceID = *b.ResourceID
		}
		resp.Bookings = append(resp.Bookings, BookedSlot{
			ReferenceCode: b.ReferenceCode,
			ResourceID:    resourceID,
			ResourceName:  resourceNames[resourceID],
			Date:          b.BookingDate.Format(domain.DateFormat),
			StartTime:     b.StartTime.String(),
			EndTime:       b.EndTime.String(),
			Amount:        b.Amount,
			Status:        string(b.Status),
		})
		resp.TotalAmount += b.Amount
		resp.PlatformFee += b.PlatformFee
		resp.OnlineAmount += b.OnlineAmount
		resp.VenueAmountDue += b.VenueAmountDue
		resp.PaymentMethod = string(b.PaymentMethod)

		if b.LockExpiresAt != nil && resp.LockExpiresAt == nil {
			s := b.LockExpiresAt.Format(time.RFC3339)
			resp.LockExpiresAt = &s
		}
	}

	return resp
}
