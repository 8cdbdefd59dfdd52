package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// UseCase use case для проекции доступных слотов по пулу ресурсов
type UseCase struct {
	bookingRepo   BookingRepository
	catalogRepo   CatalogRepository
	holidayClient HolidayClient
	quoteCodec    QuoteCodec
	timeProvider  TimeProvider
	cfg           Config
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	holidayClient HolidayClient,
	quoteCodec QuoteCodec,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		catalogRepo:   catalogRepo,
		holidayClient: holidayClient,
		quoteCodec:    quoteCodec,
		timeProvider:  &RealTimeProvider{},
		cfg:           cfg,
		logger:        logger,
	}
}

// resourceProjection все данные одного ресурса, нужные для проекции
type resourceProjection struct {
	resource *domain.Resource
	config   *domain.SlotConfig
	grid     []domain.SlotWindow
	rules    []*domain.PriceRule
}

// Execute выполняет use case получения доступных слотов.
// Слоты нигде не хранятся: проекция выводится из конфигурации расписания,
// активных бронирований и служебных блокировок на лету.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: service=%d, activity=%s, date=%s",
		req.ServiceID, req.Activity, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := uc.validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Проверяем активность
	activity, err := uc.catalogRepo.GetActivity(ctx, req.Activity)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrActivityNotFound) {
			uc.logger.Warn("GetAvailableSlots: activity %s not found", req.Activity)
			return nil, ErrActivityNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get activity %s: %v", req.Activity, err)
		return nil, fmt.Errorf("%w: failed to get activity: %v", ErrInternal, err)
	}
	if !activity.Enabled {
		return nil, ErrActivityNotFound
	}

	// 3. Получаем пул ресурсов под активность
	resources, err := uc.catalogRepo.ListResources(ctx, req.ServiceID, req.Activity)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list resources: %v", err)
		return nil, fmt.Errorf("%w: failed to list resources: %v", ErrInternal, err)
	}
	if len(resources) == 0 {
		uc.logger.Warn("GetAvailableSlots: no resources for service=%d activity=%s", req.ServiceID, req.Activity)
		return nil, ErrNoResources
	}

	resourceIDs := make([]int64, 0, len(resources))
	for _, r := range resources {
		resourceIDs = append(resourceIDs, r.ID)
	}

	// 4. Определяем тип дня: производственный календарь важнее дня недели
	isHoliday := uc.holidayClient.IsHolidayWithGracefulDegradation(ctx, req.Date)
	dayType := domain.DayTypeFor(req.Date, isHoliday)

	// 5. Собираем проекции ресурсов. Сломанная конфигурация одного ресурса
	// не валит выдачу по остальным.
	configs, err := uc.catalogRepo.GetSlotConfigs(ctx, resourceIDs)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get slot configs: %v", err)
		return nil, fmt.Errorf("%w: failed to get slot configs: %v", ErrInternal, err)
	}

	configIDs := make([]int64, 0, len(configs))
	for _, cfg := range configs {
		configIDs = append(configIDs, cfg.ID)
	}
	allRules, err := uc.catalogRepo.GetPriceRules(ctx, configIDs)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get price rules: %v", err)
		return nil, fmt.Errorf("%w: failed to get price rules: %v", ErrInternal, err)
	}

	projections := make([]resourceProjection, 0, len(resources))
	for _, r := range resources {
		cfg, ok := configs[r.ID]
		if !ok {
			uc.logger.Warn("GetAvailableSlots: resource id=%d has no slot config, skipping", r.ID)
			continue
		}
		grid, err := domain.SlotGrid(cfg)
		if err != nil {
			uc.logger.Warn("GetAvailableSlots: invalid slot config for resource id=%d: %v, skipping", r.ID, err)
			continue
		}
		projections = append(projections, resourceProjection{
			resource: r,
			config:   cfg,
			grid:     grid,
			rules:    allRules[cfg.ID],
		})
	}
	if len(projections) == 0 {
		return nil, ErrNoResources
	}

	// 6. Активные бронирования и служебные блокировки на дату
	bookings, err := uc.bookingRepo.GetActiveForSlots(ctx, resourceIDs, req.Date, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	disabled, err := uc.catalogRepo.GetDisabledWindows(ctx, resourceIDs, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get disabled windows: %v", err)
		return nil, fmt.Errorf("%w: failed to get disabled windows: %v", ErrInternal, err)
	}

	slots, err := uc.projectSlots(req, projections, bookings, disabled, dayType, now)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("GetAvailableSlots: projected %d slots for service=%d activity=%s date=%s",
		len(slots), req.ServiceID, req.Activity, req.Date.Format(domain.DateFormat))

	return &Response{
		ServiceID: req.ServiceID,
		Activity:  req.Activity,
		Date:      req.Date.Format(domain.DateFormat),
		DayType:   string(dayType),
		Slots:     slots,
	}, nil
}

// projectSlots агрегирует сетки ресурсов в единый список окон с
// доступностью, ценой и подписанной котировкой
func (uc *UseCase) projectSlots(
	req *Request,
	projections []resourceProjection,
	bookings []*domain.Booking,
	disabled map[int64][]*domain.DisabledWindow,
	dayType domain.DayType,
	now time.Time,
) ([]Slot, error) {
	// Окна раньше минимального предуведомления не предлагаются. Если
	// предуведомление пересекло полночь, на запрошенный день окон нет.
	var cutoff *types.TimeString
	earliest := now.Add(time.Duration(uc.cfg.MinNoticeMinutes) * time.Minute)
	switch {
	case sameDay(req.Date, earliest):
		ts := types.NewTimeString(earliest)
		cutoff = &ts
	case sameDay(req.Date, now):
		ts := types.TimeString("23:59")
		cutoff = &ts
	}

	type aggregate struct {
		window    domain.SlotWindow
		total     int
		free      []resourceProjection // ресурсы, свободные в этом окне
		unitPrice float64
		ptype     domain.PricingType
		priced    bool
	}

	// Агрегация по точному окну: ресурсы с разной длительностью слота
	// дают разные окна даже при совпадающем времени начала
	type windowKey struct {
		start types.TimeString
		end   types.TimeString
	}
	byWindow := make(map[windowKey]*aggregate)

	for _, p := range projections {
		for _, w := range p.grid {
			if cutoff != nil && w.Start.IsBefore(*cutoff) {
				continue
			}

			key := windowKey{start: w.Start, end: w.End}
			agg, ok := byWindow[key]
			if !ok {
				agg = &aggregate{window: w}
				byWindow[key] = agg
			}
			agg.total++

			if uc.resourceBlocked(p.resource.ID, w, bookings, disabled, now) {
				continue
			}
			agg.free = append(agg.free, p)

			// Цена окна берётся от первого свободного ресурса пула;
			// расхождение цен внутри пула логируем, но не гадаем
			price := domain.ResolvePrice(p.config, p.rules, dayType, w.Start)
			if !agg.priced {
				agg.unitPrice = price.UnitPrice
				agg.ptype = p.resource.PricingType
				agg.priced = true
			} else if agg.unitPrice != price.UnitPrice {
				uc.logger.Warn("GetAvailableSlots: divergent pool pricing at %s: %.2f vs %.2f (resource id=%d)",
					w.Start, agg.unitPrice, price.UnitPrice, p.resource.ID)
			}
		}
	}

	keys := make([]windowKey, 0, len(byWindow))
	for key := range byWindow {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].start != keys[j].start {
			return keys[i].start.IsBefore(keys[j].start)
		}
		return keys[i].end.IsBefore(keys[j].end)
	})

	slots := make([]Slot, 0, len(keys))
	for _, key := range keys {
		agg := byWindow[key]

		slot := Slot{
			StartTime:       agg.window.Start.String(),
			EndTime:         agg.window.End.String(),
			DurationMinutes: agg.window.DurationMinutes,
			AvailableCount:  len(agg.free),
			TotalCount:      agg.total,
			UnitPrice:       agg.unitPrice,
			PricingType:     string(agg.ptype),
		}

		if len(agg.free) > 0 {
			token, err := uc.issueQuote(req, agg.window, agg.free, agg.unitPrice, agg.ptype, now)
			if err != nil {
				uc.logger.Error("GetAvailableSlots: failed to issue quote for %s: %v", agg.window.Start, err)
				return nil, fmt.Errorf("%w: failed to issue quote: %v", ErrInternal, err)
			}
			slot.SlotToken = token
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

// resourceBlocked проверяет, закрыт ли ресурс в окне активным
// бронированием или служебной блокировкой
func (uc *UseCase) resourceBlocked(
	resourceID int64,
	w domain.SlotWindow,
	bookings []*domain.Booking,
	disabled map[int64][]*domain.DisabledWindow,
	now time.Time,
) bool {
	for _, b := range bookings {
		if b.ResourceID == nil || *b.ResourceID != resourceID {
			continue
		}
		if !b.BlocksSlot(now) {
			continue
		}
		if domain.Overlaps(b.StartTime, b.EndTime, w.Start, w.End) {
			return true
		}
	}
	for _, dw := range disabled[resourceID] {
		if dw.Blocks(w.Start, w.End) {
			return true
		}
	}
	return false
}

// issueQuote подписывает котировку окна со списком свободных ресурсов
func (uc *UseCase) issueQuote(
	req *Request,
	w domain.SlotWindow,
	free []resourceProjection,
	unitPrice float64,
	ptype domain.PricingType,
	now time.Time,
) (string, error) {
	ids := make([]int64, 0, len(free))
	for _, p := range free {
		ids = append(ids, p.resource.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return uc.quoteCodec.Issue(slottoken.Quote{
		ServiceID:       req.ServiceID,
		Activity:        req.Activity,
		Date:            req.Date.Format(domain.DateFormat),
		StartTime:       w.Start.String(),
		DurationMinutes: w.DurationMinutes,
		ResourceIDs:     ids,
		UnitPrice:       unitPrice,
		PricingType:     string(ptype),
	}, now)
}

// validateRequest проверяет входные данные запроса
func (uc *UseCase) validateRequest(req *Request) error {
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", ErrInvalidInput)
	}
	if req.Activity == "" {
		return fmt.Errorf("%w: activity is required", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}

	now := uc.timeProvider.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, req.Date.Location())
	if req.Date.Before(today) {
		return fmt.Errorf("%w: date is in the past", ErrInvalidDate)
	}
	if uc.cfg.AdvanceBookingDays > 0 && req.Date.After(today.AddDate(0, 0, uc.cfg.AdvanceBookingDays)) {
		return fmt.Errorf("%w: date is beyond the %d-day booking horizon", ErrInvalidDate, uc.cfg.AdvanceBookingDays)
	}

	return nil
}

// sameDay сравнивает календарные даты без учёта времени
func sameDay(date, now time.Time) bool {
	return date.Year() == now.Year() && date.Month() == now.Month() && date.Day() == now.Day()
}
