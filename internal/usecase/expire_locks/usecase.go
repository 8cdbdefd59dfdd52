// Package expire_locks содержит фоновую зачистку протухших блокировок:
// мягких блокировок оплаты на месте и брошенных корзин.
package expire_locks

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/pkg/metrics"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ExpireStaleSoftLocks(ctx context.Context, now time.Time) ([]int64, error)
	ExpireStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Result итог одного прохода зачистки
type Result struct {
	SoftLocksExpired int64
	PendingExpired   int64
}

// UseCase use case зачистки протухших блокировок
type UseCase struct {
	bookingRepo  BookingRepository
	pendingTTL   time.Duration
	metrics      *metrics.Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, pendingTTL time.Duration, m *metrics.Metrics, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		pendingTTL:   pendingTTL,
		metrics:      m,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет один проход зачистки. Идемпотентен: повторный запуск
// на тех же данных ничего не меняет. Успешную оплату зачистка не трогает.
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()
	result := &Result{}

	expiredIDs, err := uc.bookingRepo.ExpireStaleSoftLocks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("expire_locks: expire soft locks: %w", err)
	}
	result.SoftLocksExpired = int64(len(expiredIDs))

	pendingExpired, err := uc.bookingRepo.ExpireStalePending(ctx, now.Add(-uc.pendingTTL))
	if err != nil {
		return nil, fmt.Errorf("expire_locks: expire stale pending: %w", err)
	}
	result.PendingExpired = pendingExpired

	if result.SoftLocksExpired > 0 || result.PendingExpired > 0 {
		uc.logger.Info("ExpireLocks: expired %d soft lock(s), %d stale pending booking(s)",
			result.SoftLocksExpired, result.PendingExpired)
	}

	if uc.metrics != nil {
		uc.metrics.SoftLocksExpiredTotal.Add(float64(result.SoftLocksExpired + result.PendingExpired))
	}

	return result, nil
}

// Run запускает периодическую зачистку до отмены контекста
func (uc *UseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.Execute(ctx); err != nil {
				uc.logger.Error("ExpireLocks: sweep failed: %v", err)
			}
		}
	}
}
