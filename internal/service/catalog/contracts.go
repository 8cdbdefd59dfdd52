package catalog

import (
	"context"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
)

// CatalogRepository интерфейс репозитория каталога площадки
type CatalogRepository interface {
	ListServiceResources(ctx context.Context, serviceID int64) ([]*domain.Resource, error)
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	GetSlotConfigs(ctx context.Context, resourceIDs []int64) (map[int64]*domain.SlotConfig, error)
	GetPriceRules(ctx context.Context, slotConfigIDs []int64) (map[int64][]*domain.PriceRule, error)
	GetDisabledWindows(ctx context.Context, resourceIDs []int64, date time.Time) (map[int64][]*domain.DisabledWindow, error)
	GetCancellationPolicy(ctx context.Context, serviceID int64) (*domain.CancellationPolicy, error)
	UpdateSlotConfig(ctx context.Context, cfg *domain.SlotConfig) error
	ReplacePriceRules(ctx context.Context, slotConfigID int64, rules []*domain.PriceRule) error
	UpsertCancellationPolicy(ctx context.Context, p *domain.CancellationPolicy) error
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
