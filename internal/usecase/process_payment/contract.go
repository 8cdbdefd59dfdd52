package process_payment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, payment domain.PaymentStatus) error
	ExpireAbandonedOnSlot(ctx context.Context, resourceID int64, date time.Time, startTime types.TimeString, winnerID int64) (int64, error)
}

// EventProducer интерфейс публикации доменных событий
type EventProducer interface {
	PublishBookingConfirmed(ctx context.Context, ev events.BookingConfirmedEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
