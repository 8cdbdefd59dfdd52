package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-VenueBookingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий справочных данных: ресурсы, конфигурации слотов,
// правила ценообразования, блокировки и политики отмены
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListResources получает включенные ресурсы сервиса, поддерживающие
// активность, отсортированные по id — порядок определяет детерминизм
// аллокации внутри пула
func (r *Repository) ListResources(ctx context.Context, serviceID int64, activity string) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"r.id",
		"r.service_id",
		"r.name",
		"r.pricing_type",
		"r.max_headcount",
		"r.enabled",
		"r.created_at",
		"r.updated_at",
	).
		From("resources r").
		Join("resource_activities ra ON ra.resource_id = r.id").
		Where(squirrel.Eq{"r.service_id": serviceID}).
		Where(squirrel.Eq{"r.enabled": true}).
		Where(squirrel.Eq{"ra.activity_code": activity}).
		OrderBy("r.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListResources - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListResources - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		var res domain.Resource
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&res.ID,
			&res.ServiceID,
			&res.Name,
			&res.PricingType,
			&res.MaxHeadcount,
			&res.Enabled,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListResources - scan row: %v", ErrScanRow, err)
		}
		res.CreatedAt = createdAt.Time
		res.UpdatedAt = updatedAt.Time
		res.Activities = []string{activity}
		resources = append(resources, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListResources - rows error: %v", ErrScanRow, err)
	}

	return resources, nil
}

// GetResource получает ресурс по id вместе со списком активностей
func (r *Repository) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"service_id",
		"name",
		"pricing_type",
		"max_headcount",
		"enabled",
		"created_at",
		"updated_at",
	).
		From("resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - build select query: %v", ErrBuildQuery, err)
	}

	var res domain.Resource
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.ServiceID,
		&res.Name,
		&res.PricingType,
		&res.MaxHeadcount,
		&res.Enabled,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - scan resource: %v", ErrScanRow, err)
	}
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	activities, err := r.listResourceActivities(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Activities = activities

	return &res, nil
}

// GetSlotConfigs получает конфигурации слотов для набора ресурсов,
// ключ результата — resource_id
func (r *Repository) GetSlotConfigs(ctx context.Context, resourceIDs []int64) (map[int64]*domain.SlotConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"open_time",
		"close_time",
		"duration_minutes",
		"base_price",
		"created_at",
		"updated_at",
	).
		From("slot_configs").
		Where(squirrel.Eq{"resource_id": resourceIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSlotConfigs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetSlotConfigs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	configs := make(map[int64]*domain.SlotConfig)
	for rows.Next() {
		var cfg domain.SlotConfig
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&cfg.ID,
			&cfg.ResourceID,
			&cfg.OpenTime,
			&cfg.CloseTime,
			&cfg.DurationMinutes,
			&cfg.BasePrice,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetSlotConfigs - scan row: %v", ErrScanRow, err)
		}
		cfg.CreatedAt = createdAt.Time
		cfg.UpdatedAt = updatedAt.Time
		configs[cfg.ResourceID] = &cfg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetSlotConfigs - rows error: %v", ErrScanRow, err)
	}

	return configs, nil
}

// GetPriceRules получает включенные правила ценообразования для набора
// конфигураций слотов, ключ результата — slot_config_id
func (r *Repository) GetPriceRules(ctx context.Context, slotConfigIDs []int64) (map[int64][]*domain.PriceRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"slot_config_id",
		"day_type",
		"start_time",
		"end_time",
		"base_price_override",
		"extra_charge",
		"priority",
		"reason",
		"enabled",
		"created_at",
		"updated_at",
	).
		From("price_rules").
		Where(squirrel.Eq{"slot_config_id": slotConfigIDs}).
		Where(squirrel.Eq{"enabled": true}).
		OrderBy("slot_config_id ASC, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPriceRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetPriceRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make(map[int64][]*domain.PriceRule)
	for rows.Next() {
		var rule domain.PriceRule
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&rule.ID,
			&rule.SlotConfigID,
			&rule.DayType,
			&rule.StartTime,
			&rule.EndTime,
			&rule.BasePriceOverride,
			&rule.ExtraCharge,
			&rule.Priority,
			&rule.Reason,
			&rule.Enabled,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetPriceRules - scan row: %v", ErrScanRow, err)
		}
		rule.CreatedAt = createdAt.Time
		rule.UpdatedAt = updatedAt.Time
		rules[rule.SlotConfigID] = append(rules[rule.SlotConfigID], &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetPriceRules - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}

// GetDisabledWindows получает блокировки ресурсов на дату,
// ключ результата — resource_id
func (r *Repository) GetDisabledWindows(ctx context.Context, resourceIDs []int64, date time.Time) (map[int64][]*domain.DisabledWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"date",
		"start_time",
		"end_time",
		"reason",
		"created_at",
	).
		From("disabled_windows").
		Where(squirrel.Eq{"resource_id": resourceIDs}).
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDisabledWindows - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetDisabledWindows - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	windows := make(map[int64][]*domain.DisabledWindow)
	for rows.Next() {
		var w domain.DisabledWindow
		var createdAt sql.NullTime
		if err := rows.Scan(
			&w.ID,
			&w.ResourceID,
			&w.Date,
			&w.StartTime,
			&w.EndTime,
			&w.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetDisabledWindows - scan row: %v", ErrScanRow, err)
		}
		w.CreatedAt = createdAt.Time
		windows[w.ResourceID] = append(windows[w.ResourceID], &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetDisabledWindows - rows error: %v", ErrScanRow, err)
	}

	return windows, nil
}

// GetActivity получает активность по коду
func (r *Repository) GetActivity(ctx context.Context, code string) (*domain.Activity, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"code",
		"display_name",
		"enabled",
		"created_at",
	).
		From("activities").
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActivity - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Activity
	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.Code,
		&a.DisplayName,
		&a.Enabled,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActivity - scan activity: %v", ErrScanRow, err)
	}
	a.CreatedAt = createdAt.Time

	return &a, nil
}

// GetCancellationPolicy получает политику отмены сервиса вместе с правилами возврата
func (r *Repository) GetCancellationPolicy(ctx context.Context, serviceID int64) (*domain.CancellationPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"service_id",
		"cancellation_enabled",
		"min_cancellation_minutes",
		"allow_past_cancellation",
		"created_at",
		"updated_at",
	).
		From("cancellation_policies").
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetCancellationPolicy - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.CancellationPolicy
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.ServiceID,
		&p.CancellationEnabled,
		&p.MinCancellationMinutes,
		&p.AllowPastCancellation,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetCancellationPolicy - scan policy: %v", ErrScanRow, err)
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	rulesQuery, rulesArgs, err := psqlbuilder.Select(
		"id",
		"policy_id",
		"min_minutes_before",
		"refund_percent",
	).
		From("refund_rules").
		Where(squirrel.Eq{"policy_id": p.ID}).
		OrderBy("min_minutes_before DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetCancellationPolicy - build rules query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, rulesQuery, rulesArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetCancellationPolicy - execute rules query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule domain.RefundRule
		if err := rows.Scan(
			&rule.ID,
			&rule.PolicyID,
			&rule.MinMinutesBefore,
			&rule.RefundPercent,
		); err != nil {
			return nil, fmt.Errorf("%w: GetCancellationPolicy - scan rule: %v", ErrScanRow, err)
		}
		p.Rules = append(p.Rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetCancellationPolicy - rows error: %v", ErrScanRow, err)
	}

	return &p, nil
}

// UpdateSlotConfig обновляет конфигурацию слотов ресурса
func (r *Repository) UpdateSlotConfig(ctx context.Context, cfg *domain.SlotConfig) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slot_configs").
		Set("open_time", cfg.OpenTime).
		Set("close_time", cfg.CloseTime).
		Set("duration_minutes", cfg.DurationMinutes).
		Set("base_price", cfg.BasePrice).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_id": cfg.ResourceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSlotConfig - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateSlotConfig - execute update: %v", ErrExecQuery, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateSlotConfig - get rows affected: %v", ErrExecQuery, err)
	}
	if n == 0 {
		return ErrSlotConfigNotFound
	}
	return nil
}

// ReplacePriceRules заменяет правила ценообразования конфигурации.
// Должен вызываться внутри транзакции.
func (r *Repository) ReplacePriceRules(ctx context.Context, slotConfigID int64, rules []*domain.PriceRule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteQuery, deleteArgs, err := psqlbuilder.Delete("price_rules").
		Where(squirrel.Eq{"slot_config_id": slotConfigID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplacePriceRules - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%w: ReplacePriceRules - execute delete: %v", ErrExecQuery, err)
	}

	if len(rules) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("price_rules").
		Columns(
			"slot_config_id",
			"day_type",
			"start_time",
			"end_time",
			"base_price_override",
			"extra_charge",
			"priority",
			"reason",
			"enabled",
		)
	for _, rule := range rules {
		insertBuilder = insertBuilder.Values(
			slotConfigID,
			rule.DayType,
			rule.StartTime,
			rule.EndTime,
			rule.BasePriceOverride,
			rule.ExtraCharge,
			rule.Priority,
			rule.Reason,
			rule.Enabled,
		)
	}

	insertQuery, insertArgs, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplacePriceRules - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("%w: ReplacePriceRules - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// UpsertCancellationPolicy создает или обновляет политику отмены сервиса
// и заменяет её правила возврата. Должен вызываться внутри транзакции.
func (r *Repository) UpsertCancellationPolicy(ctx context.Context, p *domain.CancellationPolicy) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("cancellation_policies").
		Columns(
			"service_id",
			"cancellation_enabled",
			"min_cancellation_minutes",
			"allow_past_cancellation",
		).
		Values(
			p.ServiceID,
			p.CancellationEnabled,
			p.MinCancellationMinutes,
			p.AllowPastCancellation,
		).
		Suffix(`ON CONFLICT (service_id) DO UPDATE SET
			cancellation_enabled = EXCLUDED.cancellation_enabled,
			min_cancellation_minutes = EXCLUDED.min_cancellation_minutes,
			allow_past_cancellation = EXCLUDED.allow_past_cancellation,
			updated_at = NOW()
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - build upsert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - execute upsert: %v", ErrExecQuery, err)
	}

	deleteQuery, deleteArgs, err := psqlbuilder.Delete("refund_rules").
		Where(squirrel.Eq{"policy_id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - execute delete: %v", ErrExecQuery, err)
	}

	if len(p.Rules) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("refund_rules").
		Columns("policy_id", "min_minutes_before", "refund_percent")
	for _, rule := range p.Rules {
		insertBuilder = insertBuilder.Values(p.ID, rule.MinMinutesBefore, rule.RefundPercent)
	}

	insertQuery, insertArgs, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("%w: UpsertCancellationPolicy - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// listResourceActivities получает коды активностей ресурса
func (r *Repository) listResourceActivities(ctx context.Context, resourceID int64) ([]string, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("activity_code").
		From("resource_activities").
		Where(squirrel.Eq{"resource_id": resourceID}).
		OrderBy("activity_code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listResourceActivities - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listResourceActivities - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("%w: listResourceActivities - scan row: %v", ErrScanRow, err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listResourceActivities - rows error: %v", ErrScanRow, err)
	}

	return codes, nil
}

// ListServiceResources получает все ресурсы сервиса (включая выключенные)
// для административной выдачи конфигурации
func (r *Repository) ListServiceResources(ctx context.Context, serviceID int64) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"service_id",
		"name",
		"pricing_type",
		"max_headcount",
		"enabled",
		"created_at",
		"updated_at",
	).
		From("resources").
		Where(squirrel.Eq{"service_id": serviceID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListServiceResources - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServiceResources - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		var res domain.Resource
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&res.ID,
			&res.ServiceID,
			&res.Name,
			&res.PricingType,
			&res.MaxHeadcount,
			&res.Enabled,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListServiceResources - scan row: %v", ErrScanRow, err)
		}
		res.CreatedAt = createdAt.Time
		res.UpdatedAt = updatedAt.Time
		resources = append(resources, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServiceResources - rows error: %v", ErrScanRow, err)
	}

	for _, res := range resources {
		activities, err := r.listResourceActivities(ctx, res.ID)
		if err != nil {
			return nil, err
		}
		res.Activities = activities
	}

	return resources, nil
}
