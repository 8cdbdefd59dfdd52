package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetActiveForSlots(ctx context.Context, resourceIDs []int64, date time.Time, now time.Time) ([]*domain.Booking, error)
}

// CatalogRepository интерфейс репозитория каталога площадки
type CatalogRepository interface {
	GetActivity(ctx context.Context, code string) (*domain.Activity, error)
	ListResources(ctx context.Context, serviceID int64, activity string) ([]*domain.Resource, error)
	GetSlotConfigs(ctx context.Context, resourceIDs []int64) (map[int64]*domain.SlotConfig, error)
	GetPriceRules(ctx context.Context, slotConfigIDs []int64) (map[int64][]*domain.PriceRule, error)
	GetDisabledWindows(ctx context.Context, resourceIDs []int64, date time.Time) (map[int64][]*domain.DisabledWindow, error)
}

// HolidayClient интерфейс клиента производственного календаря
type HolidayClient interface {
	IsHolidayWithGracefulDegradation(ctx context.Context, date time.Time) bool
}

// QuoteCodec интерфейс подписи котировок слотов
type QuoteCodec interface {
	Issue(q slottoken.Quote, now time.Time) (string, error)
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
