package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/pkg/ptr"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// UseCase use case для создания бронирования по подписанным котировкам
type UseCase struct {
	bookingRepo   BookingRepository
	catalogRepo   CatalogRepository
	holidayClient HolidayClient
	quoteCodec    QuoteCodec
	txManager     TransactionManager
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
	txManager TransactionManager,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		catalogRepo:   catalogRepo,
		holidayClient: holidayClient,
		quoteCodec:    quoteCodec,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		cfg:           cfg,
		logger:        logger,
	}
}

// parsedQuote котировка с разобранными полями
type parsedQuote struct {
	quote *slottoken.Quote
	date  time.Time
	start types.TimeString
	end   types.TimeString
}

// Execute выполняет use case создания бронирования.
// Проверка доступности, живая сверка цены и вставка выполняются в одной
// serializable транзакции; частичный уникальный индекс по активным
// бронированиям страхует от гонки на уровне БД.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, tokens=%d, method=%s, key=%s",
		req.UserID, len(req.SlotTokens), req.PaymentMethod, req.IdempotencyKey)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Разбираем и проверяем токены котировок
	quotes, err := uc.parseQuotes(req.SlotTokens)
	if err != nil {
		uc.logger.Warn("CreateBooking: token validation failed: %v", err)
		return nil, err
	}

	// 3. Проверка идемпотентности до открытия транзакции: повтор с теми же
	// параметрами возвращает существующий результат без побочных эффектов
	if resp, done, err := uc.checkIdempotency(ctx, req, quotes); err != nil {
		return nil, err
	} else if done {
		uc.logger.Info("CreateBooking: idempotent replay for key=%s", req.IdempotencyKey)
		return resp, nil
	}

	// 4. Предуведомление и горизонт бронирования. Проверяются после
	// идемпотентности: повтор старого запроса остаётся читающим
	if err := uc.validateBookingWindow(quotes, now); err != nil {
		uc.logger.Warn("CreateBooking: booking window validation failed: %v", err)
		return nil, err
	}

	// 5. Тип дня для живой сверки цены
	isHoliday := uc.holidayClient.IsHolidayWithGracefulDegradation(ctx, quotes[0].date)
	dayType := domain.DayTypeFor(quotes[0].date, isHoliday)

	var (
		created       []*domain.Booking
		resourceNames = make(map[int64]string)
	)

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		created = created[:0]

		resources, configs, rules, err := uc.loadCandidates(txCtx, quotes)
		if err != nil {
			return err
		}
		for id, r := range resources {
			resourceNames[id] = r.Name
		}

		candidateIDs := make([]int64, 0, len(resources))
		for id := range resources {
			candidateIDs = append(candidateIDs, id)
		}
		sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })

		// FOR UPDATE: блокируем активные бронирования по всем кандидатам
		active, err := uc.bookingRepo.GetActiveForSlots(txCtx, candidateIDs, quotes[0].date, now)
		if err != nil {
			return fmt.Errorf("%w: failed to get active bookings: %v", ErrInternal, err)
		}

		disabled, err := uc.catalogRepo.GetDisabledWindows(txCtx, candidateIDs, quotes[0].date)
		if err != nil {
			return fmt.Errorf("%w: failed to get disabled windows: %v", ErrInternal, err)
		}

		// Свободные ресурсы на каждое окно
		freePerQuote := make([][]int64, len(quotes))
		for i, q := range quotes {
			free, resumed, err := uc.freeResourcesForWindow(req, q, resources, configs, rules, active, disabled, dayType, now)
			if err != nil {
				return err
			}
			if resumed != nil {
				// Живое мягко заблокированное бронирование этого же
				// пользователя на это же окно: продлеваем блокировку и
				// возвращаем его вместо вставки
				lockExpiresAt := now.Add(uc.cfg.SoftLockTTL)
				if err := uc.bookingRepo.SetSoftLock(txCtx, resumed.ID, lockExpiresAt); err != nil {
					return fmt.Errorf("%w: failed to extend soft lock: %v", ErrInternal, err)
				}
				resumed.LockExpiresAt = &lockExpiresAt
				created = append(created, resumed)
				freePerQuote[i] = nil
				continue
			}
			freePerQuote[i] = free
		}

		assignment, err := uc.assignResources(req, quotes, freePerQuote, created)
		if err != nil {
			return err
		}

		for i, q := range quotes {
			if assignment[i] == 0 {
				continue // окно закрыто возобновлённым бронированием
			}
			booking, err := uc.insertBooking(txCtx, req, q, i, resources[assignment[i]], now)
			if err != nil {
				return err
			}
			created = append(created, booking)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, bookingRepo.ErrDuplicateIdempotencyKey) {
			// Гонка двух одинаковых запросов: победитель уже вставил набор.
			// Повтор с теми же параметрами обязан вернуть его результат.
			resp, done, idemErr := uc.checkIdempotency(ctx, req, quotes)
			if idemErr != nil {
				return nil, idemErr
			}
			if done {
				uc.logger.Info("CreateBooking: lost insert race for key=%s, replaying winner", req.IdempotencyKey)
				return resp, nil
			}
			return nil, ErrIdempotencyConflict
		}
		return nil, err
	}

	refs := make([]string, 0, len(created))
	for _, b := range created {
		refs = append(refs, b.ReferenceCode)
	}
	uc.logger.Info("CreateBooking: created %d booking(s) for user=%d: %s",
		len(created), req.UserID, strings.Join(refs, ", "))

	return fromBookings(created, resourceNames, false), nil
}

// parseQuotes разбирает токены и проверяет согласованность набора окон
func (uc *UseCase) parseQuotes(tokens []string) ([]parsedQuote, error) {
	quotes := make([]parsedQuote, 0, len(tokens))
	seen := make(map[string]bool)

	for _, token := range tokens {
		q, err := uc.quoteCodec.Parse(token)
		if err != nil {
			if errors.Is(err, slottoken.ErrTokenExpired) {
				return nil, ErrTokenExpired
			}
			return nil, ErrInvalidToken
		}

		date, err := time.Parse(domain.DateFormat, q.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date in token: %v", ErrInvalidToken, err)
		}
		start, err := types.NewTimeStringFromString(q.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start time in token: %v", ErrInvalidToken, err)
		}
		end, err := start.AddMinutes(q.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("%w: bad duration in token: %v", ErrInvalidToken, err)
		}

		if seen[q.StartTime] {
			return nil, fmt.Errorf("%w: duplicate slot window %s", ErrInvalidInput, q.StartTime)
		}
		seen[q.StartTime] = true

		quotes = append(quotes, parsedQuote{quote: q, date: date, start: start, end: end})
	}

	// Все окна одной операции принадлежат одному сервису, активности и дате
	first := quotes[0].quote
	for _, q := range quotes[1:] {
		if q.quote.ServiceID != first.ServiceID || q.quote.Activity != first.Activity || q.quote.Date != first.Date {
			return nil, fmt.Errorf("%w: slot tokens span different services or dates", ErrInvalidInput)
		}
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].start.IsBefore(quotes[j].start) })
	return quotes, nil
}

// validateBookingWindow проверяет минимальное предуведомление и горизонт
// бронирования для всех окон операции
func (uc *UseCase) validateBookingWindow(quotes []parsedQuote, now time.Time) error {
	earliest := now.Add(time.Duration(uc.cfg.MinNoticeMinutes) * time.Minute)

	for _, q := range quotes {
		mins, err := q.start.MinutesSinceMidnight()
		if err != nil {
			return fmt.Errorf("%w: bad start time: %v", ErrInvalidToken, err)
		}
		startAt := time.Date(q.date.Year(), q.date.Month(), q.date.Day(), mins/60, mins%60, 0, 0, now.Location())

		if startAt.Before(earliest) {
			return fmt.Errorf("%w: slot %s starts sooner than the %d-minute notice",
				ErrInvalidInput, q.start, uc.cfg.MinNoticeMinutes)
		}
		if uc.cfg.AdvanceBookingDays > 0 && startAt.After(now.AddDate(0, 0, uc.cfg.AdvanceBookingDays)) {
			return fmt.Errorf("%w: slot is beyond the %d-day booking horizon",
				ErrInvalidInput, uc.cfg.AdvanceBookingDays)
		}
	}
	return nil
}

// checkIdempotency ищет предыдущий результат по клиентскому ключу.
// Совпадающие параметры — ответ повторяется; иные параметры — конфликт.
func (uc *UseCase) checkIdempotency(ctx context.Context, req *Request, quotes []parsedQuote) (*Response, bool, error) {
	existing, err := uc.bookingRepo.GetByIdempotencyPrefix(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to check idempotency key: %v", ErrInternal, err)
	}
	if len(existing) == 0 {
		return nil, false, nil
	}

	if !uc.sameBookingSet(req, quotes, existing) {
		uc.logger.Warn("CreateBooking: idempotency conflict for key=%s", req.IdempotencyKey)
		return nil, false, ErrIdempotencyConflict
	}

	names := make(map[int64]string)
	for _, b := range existing {
		if b.ResourceID == nil {
			continue
		}
		resource, err := uc.catalogRepo.GetResource(ctx, *b.ResourceID)
		if err == nil {
			names[resource.ID] = resource.Name
		}
	}

	return fromBookings(existing, names, true), true, nil
}

// sameBookingSet сравнивает существующие бронирования с параметрами запроса
func (uc *UseCase) sameBookingSet(req *Request, quotes []parsedQuote, existing []*domain.Booking) bool {
	if len(existing) != len(quotes) {
		return false
	}

	windows := make(map[string]bool, len(quotes))
	for _, q := range quotes {
		windows[q.quote.Date+" "+q.start.String()] = true
	}

	for _, b := range existing {
		if b.UserID != req.UserID {
			return false
		}
		if string(b.PaymentMethod) != req.PaymentMethod || b.Headcount != req.Headcount {
			return false
		}
		if !windows[b.BookingDate.Format(domain.DateFormat)+" "+b.StartTime.String()] {
			return false
		}
	}
	return true
}

// loadCandidates загружает ресурсы-кандидаты всех котировок вместе с
// расписаниями и правилами цен
func (uc *UseCase) loadCandidates(ctx context.Context, quotes []parsedQuote) (
	map[int64]*domain.Resource,
	map[int64]*domain.SlotConfig,
	map[int64][]*domain.PriceRule,
	error,
) {
	resources := make(map[int64]*domain.Resource)
	for _, q := range quotes {
		for _, id := range q.quote.ResourceIDs {
			if _, ok := resources[id]; ok {
				continue
			}
			resource, err := uc.catalogRepo.GetResource(ctx, id)
			if err != nil {
				if errors.Is(err, catalogRepo.ErrResourceNotFound) {
					// Ресурс исчез после выдачи котировки: кандидатов меньше,
					// но операция ещё может пройти по остальным
					uc.logger.Warn("CreateBooking: quoted resource id=%d no longer exists", id)
					continue
				}
				return nil, nil, nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
			}
			if !resource.Enabled || !resource.SupportsActivity(quotes[0].quote.Activity) {
				continue
			}
			resources[id] = resource
		}
	}
	if len(resources) == 0 {
		return nil, nil, nil, ErrResourceNotFound
	}

	ids := make([]int64, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}

	configs, err := uc.catalogRepo.GetSlotConfigs(ctx, ids)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to get slot configs: %v", ErrInternal, err)
	}

	configIDs := make([]int64, 0, len(configs))
	for _, cfg := range configs {
		configIDs = append(configIDs, cfg.ID)
	}
	rules, err := uc.catalogRepo.GetPriceRules(ctx, configIDs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to get price rules: %v", ErrInternal, err)
	}

	return resources, configs, rules, nil
}

// freeResourcesForWindow возвращает кандидатов, свободных в окне котировки,
// либо живое мягко заблокированное бронирование пользователя на это окно
func (uc *UseCase) freeResourcesForWindow(
	req *Request,
	q parsedQuote,
	resources map[int64]*domain.Resource,
	configs map[int64]*domain.SlotConfig,
	rules map[int64][]*domain.PriceRule,
	active []*domain.Booking,
	disabled map[int64][]*domain.DisabledWindow,
	dayType domain.DayType,
	now time.Time,
) ([]int64, *domain.Booking, error) {
	aligned := 0
	priceOK := 0
	capacityOK := 0
	var free []int64

	for _, id := range q.quote.ResourceIDs {
		resource, ok := resources[id]
		if !ok {
			continue
		}
		cfg, ok := configs[id]
		if !ok {
			continue
		}

		// Сетка могла измениться после выдачи котировки
		if !domain.ContainsWindow(cfg, q.start, q.quote.DurationMinutes) {
			continue
		}
		aligned++

		// Живая сверка цены: цена из котировки обязана совпасть
		price := domain.ResolvePrice(cfg, rules[cfg.ID], dayType, q.start)
		if price.UnitPrice != q.quote.UnitPrice || string(resource.PricingType) != q.quote.PricingType {
			continue
		}
		priceOK++

		// Слишком маленький ресурс выбывает, но не валит окно: в пуле
		// может найтись другой, вмещающий запрошенное количество людей
		if resource.PricingType == domain.PricingPerPerson && resource.MaxHeadcount != nil && req.Headcount > *resource.MaxHeadcount {
			continue
		}
		capacityOK++

		if blocked, resumable := uc.windowBlocked(req, id, q, active, disabled, now); blocked {
			if resumable != nil {
				return nil, resumable, nil
			}
			continue
		}

		free = append(free, id)
	}

	if aligned == 0 {
		return nil, nil, ErrInvalidSlotAlignment
	}
	if priceOK == 0 {
		return nil, nil, ErrPriceMismatch
	}
	if capacityOK == 0 {
		return nil, nil, ErrHeadcountExceeded
	}
	if len(free) == 0 {
		return nil, nil, ErrSlotTaken
	}

	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free, nil, nil
}

// windowBlocked проверяет занятость ресурса в окне. Возвращает живое мягко
// заблокированное бронирование этого же пользователя, если оно и есть блокер.
func (uc *UseCase) windowBlocked(
	req *Request,
	resourceID int64,
	q parsedQuote,
	active []*domain.Booking,
	disabled map[int64][]*domain.DisabledWindow,
	now time.Time,
) (bool, *domain.Booking) {
	for _, b := range active {
		if b.ResourceID == nil || *b.ResourceID != resourceID {
			continue
		}
		if !b.BlocksSlot(now) {
			continue
		}
		if !domain.Overlaps(b.StartTime, b.EndTime, q.start, q.end) {
			continue
		}
		if b.UserID == req.UserID && b.IsSoftLocked(now) && b.StartTime == q.start {
			return true, b
		}
		return true, nil
	}

	for _, dw := range disabled[resourceID] {
		if dw.Blocks(q.start, q.end) {
			return true, nil
		}
	}
	return false, nil
}

// assignResources выбирает ресурс под каждое окно. Без allowSplit все окна
// обязаны лечь на один ресурс.
func (uc *UseCase) assignResources(req *Request, quotes []parsedQuote, freePerQuote [][]int64, resumed []*domain.Booking) (map[int]int64, error) {
	assignment := make(map[int]int64, len(quotes))

	if req.AllowSplit || len(quotes) == 1 {
		for i := range quotes {
			if freePerQuote[i] == nil {
				continue
			}
			assignment[i] = freePerQuote[i][0]
		}
		return assignment, nil
	}

	// Пересечение свободных ресурсов всех окон
	counts := make(map[int64]int)
	pending := 0
	for i := range quotes {
		if freePerQuote[i] == nil {
			continue
		}
		pending++
		for _, id := range freePerQuote[i] {
			counts[id]++
		}
	}
	if pending == 0 {
		return assignment, nil
	}

	var shared int64
	for id, n := range counts {
		if n == pending && (shared == 0 || id < shared) {
			shared = id
		}
	}
	if shared == 0 {
		uc.logger.Warn("CreateBooking: no single resource spans all %d windows for user=%d", pending, req.UserID)
		return nil, ErrSlotTaken
	}

	for i := range quotes {
		if freePerQuote[i] == nil {
			continue
		}
		assignment[i] = shared
	}
	return assignment, nil
}

// insertBooking считает суммы и вставляет одно бронирование
func (uc *UseCase) insertBooking(
	ctx context.Context,
	req *Request,
	q parsedQuote,
	index int,
	resource *domain.Resource,
	now time.Time,
) (*domain.Booking, error) {
	amount, fee, online, venueDue := uc.splitAmounts(q.quote.UnitPrice, resource.PricingType, req.Headcount, domain.PaymentMethod(req.PaymentMethod))

	booking := &domain.Booking{
		ReferenceCode:   generateReferenceCode(),
		UserID:          req.UserID,
		ServiceID:       q.quote.ServiceID,
		ResourceID:      ptr.Ptr(resource.ID),
		Activity:        q.quote.Activity,
		BookingDate:     q.date,
		StartTime:       q.start,
		EndTime:         q.end,
		DurationMinutes: q.quote.DurationMinutes,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentNotStarted,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		IdempotencyKey:  fmt.Sprintf("%s:%d", req.IdempotencyKey, index),
		Amount:          amount,
		PlatformFee:     fee,
		OnlineAmount:    online,
		VenueAmountDue:  venueDue,
		PricingType:     resource.PricingType,
		Headcount:       req.Headcount,
		UnitPrice:       q.quote.UnitPrice,
		Notes:           req.Notes,
	}

	// Оплата на месте сразу переводит бронирование под мягкую блокировку:
	// слот удержан до подтверждения сбора на площадке
	if booking.PaymentMethod == domain.PaymentMethodVenue {
		lockExpiresAt := now.Add(uc.cfg.SoftLockTTL)
		booking.Status = domain.StatusPaymentPending
		booking.LockExpiresAt = &lockExpiresAt
	}

	created, err := uc.bookingRepo.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrDoubleBooking) {
			return nil, ErrDoubleBooking
		}
		if errors.Is(err, bookingRepo.ErrDuplicateIdempotencyKey) {
			// Прокидываем наверх: Execute перечитывает набор победителя
			return nil, fmt.Errorf("create_booking: insert booking: %w", err)
		}
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	return created, nil
}

// splitAmounts считает полную сумму, комиссию платформы и разбивку
// онлайн/на месте в decimal-арифметике с банковским округлением до копеек
func (uc *UseCase) splitAmounts(unitPrice float64, ptype domain.PricingType, headcount int, method domain.PaymentMethod) (amount, fee, online, venueDue float64) {
	total := decimal.NewFromFloat(unitPrice)
	if ptype == domain.PricingPerPerson {
		total = total.Mul(decimal.NewFromInt(int64(headcount)))
	}
	total = total.Round(2)

	feeDec := total.Mul(decimal.NewFromFloat(uc.cfg.PlatformFeePercent)).Div(decimal.NewFromInt(100)).Round(2)

	amount = total.InexactFloat64()
	fee = feeDec.InexactFloat64()

	if method == domain.PaymentMethodVenue {
		// На месте оплачивается всё, кроме комиссии платформы, которая
		// удерживается онлайн как депозит
		online = fee
		venueDue = total.Sub(feeDec).InexactFloat64()
		return amount, fee, online, venueDue
	}

	online = amount
	return amount, fee, online, 0
}

// generateReferenceCode выдает короткий пользовательский код бронирования
func generateReferenceCode() string {
	id := uuid.NewString()
	return "BK-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:10])
}
