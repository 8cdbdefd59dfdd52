package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByIdempotencyPrefix(ctx context.Context, clientKey string) ([]*domain.Booking, error)
	GetActiveForSlots(ctx context.Context, resourceIDs []int64, date time.Time, now time.Time) ([]*domain.Booking, error)
	SetSoftLock(ctx context.Context, id int64, lockExpiresAt time.Time) error
}

// CatalogRepository интерфейс репозитория каталога площадки
type CatalogRepository interface {
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	GetSlotConfigs(ctx context.Context, resourceIDs []int64) (map[int64]*domain.SlotConfig, error)
	GetPriceRules(ctx context.Context, slotConfigIDs []int64) (map[int64][]*domain.PriceRule, error)
	GetDisabledWindows(ctx context.Context, resourceIDs []int64, date time.Time) (map[int64][]*domain.DisabledWindow, error)
}

// HolidayClient интерфейс клиента производственного календаря
type HolidayClient interface {
	IsHolidayWithGracefulDegradation(ctx context.Context, date time.Time) bool
}

// QuoteCodec интерфейс проверки котировок слотов
type QuoteCodec interface {
	Parse(token string) (*slottoken.Quote, error)
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
