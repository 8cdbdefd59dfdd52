package bookings

import (
	"context"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error)
	GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetByServiceWithFilter(ctx context.Context, filter domain.VenueBookingsFilter) ([]*domain.Booking, error)
	Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error
	MarkVenueCollected(ctx context.Context, id int64) error
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
}

// CatalogRepository интерфейс репозитория каталога площадки
type CatalogRepository interface {
	GetCancellationPolicy(ctx context.Context, serviceID int64) (*domain.CancellationPolicy, error)
}

// EventProducer интерфейс публикации доменных событий
type EventProducer interface {
	PublishBookingConfirmed(ctx context.Context, ev events.BookingConfirmedEvent) error
	PublishRefundIssued(ctx context.Context, ev events.RefundIssuedEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
