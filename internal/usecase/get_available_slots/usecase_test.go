package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/ptr"
	"github.com/m04kA/SMC-VenueBookingService/pkg/slottoken"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// Mock структуры

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetActiveForSlots(ctx context.Context, resourceIDs []int64, date time.Time, now time.Time) ([]*domain.Booking, error) {
	args := m.Called(ctx, resourceIDs, date, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) GetActivity(ctx context.Context, code string) (*domain.Activity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Activity), args.Error(1)
}

func (m *mockCatalogRepo) ListResources(ctx context.Context, serviceID int64, activity string) ([]*domain.Resource, error) {
	args := m.Called(ctx, serviceID, activity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Resource), args.Error(1)
}

func (m *mockCatalogRepo) GetSlotConfigs(ctx context.Context, resourceIDs []int64) (map[int64]*domain.SlotConfig, error) {
	args := m.Called(ctx, resourceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*domain.SlotConfig), args.Error(1)
}

func (m *mockCatalogRepo) GetPriceRules(ctx context.Context, slotConfigIDs []int64) (map[int64][]*domain.PriceRule, error) {
	args := m.Called(ctx, slotConfigIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*domain.PriceRule), args.Error(1)
}

func (m *mockCatalogRepo) GetDisabledWindows(ctx context.Context, resourceIDs []int64, date time.Time) (map[int64][]*domain.DisabledWindow, error) {
	args := m.Called(ctx, resourceIDs, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*domain.DisabledWindow), args.Error(1)
}

type mockHolidayClient struct {
	mock.Mock
}

func (m *mockHolidayClient) IsHolidayWithGracefulDegradation(ctx context.Context, date time.Time) bool {
	args := m.Called(ctx, date)
	return args.Bool(0)
}

type stubTimeProvider struct {
	now time.Time
}

func (s *stubTimeProvider) Now() time.Time { return s.now }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// Фикстуры

// fixedNow — утро понедельника
var fixedNow = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

// tomorrow — вторник, будний день
var tomorrow = time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)

func testEnv(t *testing.T) (*UseCase, *mockBookingRepo, *mockCatalogRepo, *mockHolidayClient, *slottoken.Codec) {
	t.Helper()

	bookingRepo := new(mockBookingRepo)
	catalogRepo := new(mockCatalogRepo)
	holidayClient := new(mockHolidayClient)
	codec := slottoken.NewCodec("test-secret", time.Hour)

	uc := NewUseCase(bookingRepo, catalogRepo, holidayClient, codec, Config{}, nopLogger{})
	uc.timeProvider = &stubTimeProvider{now: fixedNow}

	return uc, bookingRepo, catalogRepo, holidayClient, codec
}

func testActivity() *domain.Activity {
	return &domain.Activity{Code: "TENNIS", DisplayName: "Теннис", Enabled: true}
}

// pool — два корта с одинаковым расписанием 10:00–13:00 по часу
func pool() ([]*domain.Resource, map[int64]*domain.SlotConfig) {
	resources := []*domain.Resource{
		{ID: 1, ServiceID: 42, Name: "Корт 1", PricingType: domain.PricingPerSlot, Activities: []string{"TENNIS"}, Enabled: true},
		{ID: 2, ServiceID: 42, Name: "Корт 2", PricingType: domain.PricingPerSlot, Activities: []string{"TENNIS"}, Enabled: true},
	}
	configs := map[int64]*domain.SlotConfig{
		1: {ID: 10, ResourceID: 1, OpenTime: "10:00", CloseTime: "13:00", DurationMinutes: 60, BasePrice: 1500},
		2: {ID: 20, ResourceID: 2, OpenTime: "10:00", CloseTime: "13:00", DurationMinutes: 60, BasePrice: 1500},
	}
	return resources, configs
}

func setupPool(bookingRepo *mockBookingRepo, catalogRepo *mockCatalogRepo, holidayClient *mockHolidayClient, active []*domain.Booking) {
	resources, configs := pool()
	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(testActivity(), nil)
	catalogRepo.On("ListResources", mock.Anything, int64(42), "TENNIS").Return(resources, nil)
	catalogRepo.On("GetSlotConfigs", mock.Anything, mock.Anything).Return(configs, nil)
	catalogRepo.On("GetPriceRules", mock.Anything, mock.Anything).Return(map[int64][]*domain.PriceRule{}, nil)
	catalogRepo.On("GetDisabledWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[int64][]*domain.DisabledWindow{}, nil)
	holidayClient.On("IsHolidayWithGracefulDegradation", mock.Anything, mock.Anything).Return(false)
	bookingRepo.On("GetActiveForSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(active, nil)
}

// Тесты

func TestExecute_Validation(t *testing.T) {
	uc, _, _, _, _ := testEnv(t)

	_, err := uc.Execute(context.Background(), &Request{ServiceID: 0, Activity: "TENNIS", Date: tomorrow})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "", Date: tomorrow})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	yesterday := fixedNow.AddDate(0, 0, -1)
	_, err = uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: yesterday})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_DisabledActivity(t *testing.T) {
	uc, _, catalogRepo, _, _ := testEnv(t)

	disabled := testActivity()
	disabled.Enabled = false
	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(disabled, nil)

	_, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestExecute_NoResources(t *testing.T) {
	uc, _, catalogRepo, _, _ := testEnv(t)

	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(testActivity(), nil)
	catalogRepo.On("ListResources", mock.Anything, int64(42), "TENNIS").Return([]*domain.Resource{}, nil)

	_, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})
	assert.ErrorIs(t, err, ErrNoResources)
}

func TestExecute_FreePoolProjection(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, codec := testEnv(t)
	setupPool(bookingRepo, catalogRepo, holidayClient, []*domain.Booking{})

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	assert.Equal(t, string(domain.DayTypeWeekday), resp.DayType)
	require.Len(t, resp.Slots, 3)

	for _, slot := range resp.Slots {
		assert.Equal(t, 2, slot.TotalCount)
		assert.Equal(t, 2, slot.AvailableCount)
		assert.Equal(t, 1500.0, slot.UnitPrice)
		require.NotEmpty(t, slot.SlotToken)

		// Котировка проверяема и перечисляет оба свободных корта
		quote, err := codec.Parse(slot.SlotToken)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, quote.ResourceIDs)
		assert.Equal(t, 1500.0, quote.UnitPrice)
	}

	assert.Equal(t, "10:00", resp.Slots[0].StartTime)
	assert.Equal(t, "12:00", resp.Slots[2].StartTime)
}

func TestExecute_BookedResourceReducesAvailability(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, codec := testEnv(t)

	active := []*domain.Booking{{
		ID:            1,
		ResourceID:    ptr.Ptr(int64(1)),
		StartTime:     types.TimeString("11:00"),
		EndTime:       types.TimeString("12:00"),
		Status:        domain.StatusConfirmed,
		PaymentStatus: domain.PaymentSuccess,
	}}
	setupPool(bookingRepo, catalogRepo, holidayClient, active)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 3)

	assert.Equal(t, 2, resp.Slots[0].AvailableCount)
	assert.Equal(t, 1, resp.Slots[1].AvailableCount)
	assert.Equal(t, 2, resp.Slots[2].AvailableCount)

	// В котировке занятого окна остался только второй корт
	quote, err := codec.Parse(resp.Slots[1].SlotToken)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, quote.ResourceIDs)
}

func TestExecute_FullSlotHasNoToken(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)

	active := []*domain.Booking{
		{
			ID: 1, ResourceID: ptr.Ptr(int64(1)),
			StartTime: types.TimeString("11:00"), EndTime: types.TimeString("12:00"),
			Status: domain.StatusConfirmed, PaymentStatus: domain.PaymentSuccess,
		},
		{
			ID: 2, ResourceID: ptr.Ptr(int64(2)),
			StartTime: types.TimeString("11:00"), EndTime: types.TimeString("12:00"),
			Status: domain.StatusPending, PaymentStatus: domain.PaymentInProgress,
		},
	}
	setupPool(bookingRepo, catalogRepo, holidayClient, active)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	full := resp.Slots[1]
	assert.Equal(t, 0, full.AvailableCount)
	assert.Equal(t, 2, full.TotalCount)
	// Занятое окно показывается, но котировка не выдаётся
	assert.Empty(t, full.SlotToken)
}

func TestExecute_ExpiredSoftLockDoesNotBlock(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)

	expiredLock := fixedNow.Add(-5 * time.Minute)
	active := []*domain.Booking{{
		ID: 1, ResourceID: ptr.Ptr(int64(1)),
		StartTime: types.TimeString("11:00"), EndTime: types.TimeString("12:00"),
		Status: domain.StatusPaymentPending, PaymentStatus: domain.PaymentNotStarted,
		LockExpiresAt: &expiredLock,
	}}
	setupPool(bookingRepo, catalogRepo, holidayClient, active)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Slots[1].AvailableCount)
}

func TestExecute_TodayHidesStartedSlots(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)
	setupPool(bookingRepo, catalogRepo, holidayClient, []*domain.Booking{})

	// Сейчас 10:30: окно 10:00 уже началось и не предлагается
	uc.timeProvider = &stubTimeProvider{now: time.Date(2026, 3, 17, 10, 30, 0, 0, time.UTC)}

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "11:00", resp.Slots[0].StartTime)
}

func TestExecute_DisabledWindowBlocksResource(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)

	resources, configs := pool()
	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(testActivity(), nil)
	catalogRepo.On("ListResources", mock.Anything, int64(42), "TENNIS").Return(resources, nil)
	catalogRepo.On("GetSlotConfigs", mock.Anything, mock.Anything).Return(configs, nil)
	catalogRepo.On("GetPriceRules", mock.Anything, mock.Anything).Return(map[int64][]*domain.PriceRule{}, nil)
	catalogRepo.On("GetDisabledWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[int64][]*domain.DisabledWindow{
		1: {{ID: 1, ResourceID: 1, StartTime: "10:00", EndTime: "13:00", Reason: "maintenance"}},
	}, nil)
	holidayClient.On("IsHolidayWithGracefulDegradation", mock.Anything, mock.Anything).Return(false)
	bookingRepo.On("GetActiveForSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	for _, slot := range resp.Slots {
		assert.Equal(t, 1, slot.AvailableCount, "slot %s", slot.StartTime)
	}
}

func TestExecute_MixedDurationsKeepSeparateWindows(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, codec := testEnv(t)

	// Один корт по часу, второй по полтора: совпадающее время начала
	// не должно склеивать окна разной длительности
	resources := []*domain.Resource{
		{ID: 1, ServiceID: 42, Name: "Корт 1", PricingType: domain.PricingPerSlot, Activities: []string{"TENNIS"}, Enabled: true},
		{ID: 2, ServiceID: 42, Name: "Корт 2", PricingType: domain.PricingPerSlot, Activities: []string{"TENNIS"}, Enabled: true},
	}
	configs := map[int64]*domain.SlotConfig{
		1: {ID: 10, ResourceID: 1, OpenTime: "10:00", CloseTime: "13:00", DurationMinutes: 60, BasePrice: 1500},
		2: {ID: 20, ResourceID: 2, OpenTime: "10:00", CloseTime: "13:00", DurationMinutes: 90, BasePrice: 2000},
	}
	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(testActivity(), nil)
	catalogRepo.On("ListResources", mock.Anything, int64(42), "TENNIS").Return(resources, nil)
	catalogRepo.On("GetSlotConfigs", mock.Anything, mock.Anything).Return(configs, nil)
	catalogRepo.On("GetPriceRules", mock.Anything, mock.Anything).Return(map[int64][]*domain.PriceRule{}, nil)
	catalogRepo.On("GetDisabledWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[int64][]*domain.DisabledWindow{}, nil)
	holidayClient.On("IsHolidayWithGracefulDegradation", mock.Anything, mock.Anything).Return(false)
	bookingRepo.On("GetActiveForSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 5)

	assert.Equal(t, "10:00", resp.Slots[0].StartTime)
	assert.Equal(t, "11:00", resp.Slots[0].EndTime)
	assert.Equal(t, "10:00", resp.Slots[1].StartTime)
	assert.Equal(t, "11:30", resp.Slots[1].EndTime)

	for _, slot := range resp.Slots {
		assert.Equal(t, 1, slot.TotalCount, "slot %s-%s", slot.StartTime, slot.EndTime)
		assert.Equal(t, 1, slot.AvailableCount, "slot %s-%s", slot.StartTime, slot.EndTime)
	}

	// Котировки окон с общим началом указывают каждая на свой ресурс
	hourly, err := codec.Parse(resp.Slots[0].SlotToken)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hourly.ResourceIDs)
	assert.Equal(t, 1500.0, hourly.UnitPrice)

	extended, err := codec.Parse(resp.Slots[1].SlotToken)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, extended.ResourceIDs)
	assert.Equal(t, 2000.0, extended.UnitPrice)
}

func TestExecute_MinNoticeFiltersNearSlots(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)
	setupPool(bookingRepo, catalogRepo, holidayClient, []*domain.Booking{})

	// Сейчас 09:00 дня запроса, предуведомление 90 минут: окно 10:00
	// скрыто, 11:00 и позже остаются
	uc.cfg = Config{MinNoticeMinutes: 90}
	uc.timeProvider = &stubTimeProvider{now: time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)}

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "11:00", resp.Slots[0].StartTime)
	assert.Equal(t, "12:00", resp.Slots[1].StartTime)
}

func TestExecute_MinNoticeKeepsExactBoundarySlot(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)
	setupPool(bookingRepo, catalogRepo, holidayClient, []*domain.Booking{})

	// Окно, начинающееся ровно через MinNoticeMinutes, ещё предлагается
	uc.cfg = Config{MinNoticeMinutes: 60}
	uc.timeProvider = &stubTimeProvider{now: time.Date(2026, 3, 17, 10, 0, 0, 0, time.UTC)}

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "11:00", resp.Slots[0].StartTime)
}

func TestExecute_AdvanceBookingHorizon(t *testing.T) {
	uc, _, _, _, _ := testEnv(t)
	uc.cfg = Config{AdvanceBookingDays: 7}

	farDate := fixedNow.AddDate(0, 0, 8)
	_, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: farDate})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_HolidayDayType(t *testing.T) {
	uc, bookingRepo, catalogRepo, holidayClient, _ := testEnv(t)

	resources, configs := pool()
	surcharge := []*domain.PriceRule{{
		ID: 1, SlotConfigID: 10, DayType: domain.DayTypeHoliday,
		StartTime: "00:00", EndTime: "23:59",
		ExtraCharge: 500, Priority: 10, Enabled: true,
	}}

	catalogRepo.On("GetActivity", mock.Anything, "TENNIS").Return(testActivity(), nil)
	catalogRepo.On("ListResources", mock.Anything, int64(42), "TENNIS").Return(resources, nil)
	catalogRepo.On("GetSlotConfigs", mock.Anything, mock.Anything).Return(configs, nil)
	catalogRepo.On("GetPriceRules", mock.Anything, mock.Anything).Return(map[int64][]*domain.PriceRule{10: surcharge, 20: surcharge}, nil)
	catalogRepo.On("GetDisabledWindows", mock.Anything, mock.Anything, mock.Anything).Return(map[int64][]*domain.DisabledWindow{}, nil)
	holidayClient.On("IsHolidayWithGracefulDegradation", mock.Anything, mock.Anything).Return(true)
	bookingRepo.On("GetActiveForSlots", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: 42, Activity: "TENNIS", Date: tomorrow})

	require.NoError(t, err)
	assert.Equal(t, string(domain.DayTypeHoliday), resp.DayType)
	for _, slot := range resp.Slots {
		assert.Equal(t, 2000.0, slot.UnitPrice)
	}
}
