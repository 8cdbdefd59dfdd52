package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-VenueBookingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// Код PostgreSQL для нарушения уникального ограничения
const pgUniqueViolation = "23505"

// Имя частичного уникального индекса, реализующего жёсткую блокировку слота
const activeSlotIndex = "ux_bookings_active_slot"

var bookingColumns = []string{
	"id",
	"reference_code",
	"user_id",
	"service_id",
	"resource_id",
	"activity",
	"booking_date",
	"start_time",
	"end_time",
	"duration_minutes",
	"status",
	"payment_status",
	"payment_method",
	"lock_expires_at",
	"idempotency_key",
	"amount",
	"platform_fee",
	"online_amount",
	"venue_amount_due",
	"venue_collected_at",
	"pricing_type",
	"headcount",
	"unit_price",
	"notes",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет новое бронирование.
// Нарушение частичного уникального индекса ux_bookings_active_slot
// возвращается как ErrDoubleBooking — это последний рубеж защиты от
// двойного бронирования, даже если прикладные блокировки обойдены.
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference_code",
			"user_id",
			"service_id",
			"resource_id",
			"activity",
			"booking_date",
			"start_time",
			"end_time",
			"duration_minutes",
			"status",
			"payment_status",
			"payment_method",
			"lock_expires_at",
			"idempotency_key",
			"amount",
			"platform_fee",
			"online_amount",
			"venue_amount_due",
			"pricing_type",
			"headcount",
			"unit_price",
			"notes",
		).
		Values(
			b.ReferenceCode,
			b.UserID,
			b.ServiceID,
			b.ResourceID,
			b.Activity,
			b.BookingDate,
			b.StartTime,
			b.EndTime,
			b.DurationMinutes,
			b.Status,
			b.PaymentStatus,
			b.PaymentMethod,
			b.LockExpiresAt,
			b.IdempotencyKey,
			b.Amount,
			b.PlatformFee,
			b.OnlineAmount,
			b.VenueAmountDue,
			b.PricingType,
			b.Headcount,
			b.UnitPrice,
			b.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			if pqErr.Constraint == activeSlotIndex {
				return nil, ErrDoubleBooking
			}
			return nil, ErrDuplicateIdempotencyKey
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, false)
}

// GetByReference получает бронирование по пользовательскому коду
func (r *Repository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reference_code": ref}, false)
}

// GetByReferenceForUpdate получает бронирование по коду с блокировкой строки.
// Должен вызываться только внутри транзакции.
func (r *Repository) GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reference_code": ref}, true)
}

// GetByIdempotencyPrefix получает все бронирования, созданные с данным
// клиентским ключом идемпотентности. Ключи хранятся как "<key>:<n>",
// по одному на окно слота.
func (r *Repository) GetByIdempotencyPrefix(ctx context.Context, clientKey string) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Like{"idempotency_key": clientKey + ":%"}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIdempotencyPrefix - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIdempotencyPrefix - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetActiveForSlots получает бронирования, способные блокировать слоты на
// указанных ресурсах и дате: активно заблокированные по инварианту плюс
// payment_pending с живым soft lock. Если вызов идёт внутри транзакции,
// строки блокируются FOR UPDATE — два конкурентных создания бронирования
// на один слот сериализуются здесь.
func (r *Repository) GetActiveForSlots(ctx context.Context, resourceIDs []int64, date time.Time, now time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	blocking := squirrel.Or{
		// Предикат двойного бронирования (см. domain.IsActivelyLocked)
		squirrel.Eq{"status": string(domain.StatusConfirmed)},
		squirrel.And{
			squirrel.Eq{"status": []string{
				string(domain.StatusPending),
				string(domain.StatusAwaitingConfirmation),
			}},
			squirrel.Eq{"payment_status": []string{
				string(domain.PaymentInProgress),
				string(domain.PaymentSuccess),
			}},
		},
		// Живой soft lock
		squirrel.And{
			squirrel.Eq{"status": string(domain.StatusPaymentPending)},
			squirrel.Gt{"lock_expires_at": now},
		},
		// Брошенные корзины тоже читаем: создание бронирования должно
		// уметь вернуть собственную корзину пользователя
		squirrel.And{
			squirrel.Eq{"status": string(domain.StatusPending)},
			squirrel.Eq{"payment_status": string(domain.PaymentNotStarted)},
		},
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"resource_id": resourceIDs}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(blocking).
		OrderBy("start_time ASC, id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveForSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveForSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("booking_date DESC, start_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByServiceWithFilter получает бронирования сервиса площадки с гибкой
// фильтрацией по ресурсам, периоду и статусу
func (r *Repository) GetByServiceWithFilter(ctx context.Context, filter domain.VenueBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"service_id": filter.ServiceID})

	if len(filter.ResourceIDs) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_id": filter.ResourceIDs})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		inactive := make([]string, len(domain.InactiveStatuses))
		for i, s := range domain.InactiveStatuses {
			inactive[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": inactive})
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByServiceWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByServiceWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// UpdateStatus обновляет оба статуса бронирования.
// Переход в активно-блокирующее состояние может нарушить частичный
// уникальный индекс — тогда возвращается ErrDoubleBooking.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, payment domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("payment_status", payment).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation && pqErr.Constraint == activeSlotIndex {
			return ErrDoubleBooking
		}
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowsAffected(result, "UpdateStatus")
}

// SetSoftLock переводит бронирование в payment_pending с lock_expires_at
func (r *Repository) SetSoftLock(ctx context.Context, id int64, lockExpiresAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusPaymentPending).
		Set("lock_expires_at", lockExpiresAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetSoftLock - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetSoftLock - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowsAffected(result, "SetSoftLock")
}

// Cancel отменяет бронирование с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowsAffected(result, "Cancel")
}

// MarkVenueCollected отмечает сбор оплаты на площадке и подтверждает бронирование
func (r *Repository) MarkVenueCollected(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusConfirmed).
		Set("payment_status", domain.PaymentSuccess).
		Set("venue_collected_at", squirrel.Expr("NOW()")).
		Set("lock_expires_at", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkVenueCollected - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation && pqErr.Constraint == activeSlotIndex {
			return ErrDoubleBooking
		}
		return fmt.Errorf("%w: MarkVenueCollected - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowsAffected(result, "MarkVenueCollected")
}

// ExpireAbandonedOnSlot переводит в expired все брошенные корзины
// (pending + not_started) на указанный слот, кроме winnerID.
// Вызывается, когда по одному из бронирований на слот начинается оплата.
func (r *Repository) ExpireAbandonedOnSlot(ctx context.Context, resourceID int64, date time.Time, startTime types.TimeString, winnerID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"start_time": startTime}).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Eq{"payment_status": domain.PaymentNotStarted}).
		Where(squirrel.NotEq{"id": winnerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireAbandonedOnSlot - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireAbandonedOnSlot - execute update: %v", ErrExecQuery, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireAbandonedOnSlot - get rows affected: %v", ErrExecQuery, err)
	}
	return n, nil
}

// ExpireStaleSoftLocks переводит в expired все payment_pending бронирования
// с истекшим lock_expires_at, чья оплата так и не дошла до success.
// Идемпотентно: повторный вызов по уже истекшим бронированиям — no-op.
func (r *Repository) ExpireStaleSoftLocks(ctx context.Context, now time.Time) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.StatusPaymentPending}).
		Where(squirrel.LtOrEq{"lock_expires_at": now}).
		Where(squirrel.NotEq{"payment_status": domain.PaymentSuccess}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireStaleSoftLocks - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireStaleSoftLocks - execute update: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ExpireStaleSoftLocks - scan id: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ExpireStaleSoftLocks - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

// ExpireStalePending переводит в expired брошенные корзины старше cutoff
func (r *Repository) ExpireStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Eq{"payment_status": domain.PaymentNotStarted}).
		Where(squirrel.LtOrEq{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStalePending - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStalePending - execute update: %v", ErrExecQuery, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ExpireStalePending - get rows affected: %v", ErrExecQuery, err)
	}
	return n, nil
}

// CreateRefund вставляет запись о возврате
func (r *Repository) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("refunds").
		Columns(
			"booking_id",
			"original_amount",
			"refund_percent",
			"refund_amount",
			"minutes_before_slot",
			"status",
		).
		Values(
			refund.BookingID,
			refund.OriginalAmount,
			refund.RefundPercent,
			refund.RefundAmount,
			refund.MinutesBeforeSlot,
			refund.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&refund.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - execute insert: %v", ErrExecQuery, err)
	}

	refund.CreatedAt = createdAt.Time
	refund.UpdatedAt = updatedAt.Time

	return refund, nil
}

// getOne выполняет выборку одного бронирования по условию
func (r *Repository) getOne(ctx context.Context, where squirrel.Eq, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where)

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// requireRowsAffected возвращает ErrBookingNotFound, если update никого не затронул
func (r *Repository) requireRowsAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// scanBooking сканирует одну строку в domain.Booking
func scanBooking(scan func(dest ...interface{}) error) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := scan(
		&b.ID,
		&b.ReferenceCode,
		&b.UserID,
		&b.ServiceID,
		&b.ResourceID,
		&b.Activity,
		&b.BookingDate,
		&b.StartTime,
		&b.EndTime,
		&b.DurationMinutes,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.LockExpiresAt,
		&b.IdempotencyKey,
		&b.Amount,
		&b.PlatformFee,
		&b.OnlineAmount,
		&b.VenueAmountDue,
		&b.VenueCollectedAt,
		&b.PricingType,
		&b.Headcount,
		&b.UnitPrice,
		&b.Notes,
		&b.CancellationReason,
		&b.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}
