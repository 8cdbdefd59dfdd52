package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog/models"
)

// Mock структуры

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) ListServiceResources(ctx context.Context, serviceID int64) ([]*domain.Resource, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Resource), args.Error(1)
}

func (m *mockCatalogRepo) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
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

func (m *mockCatalogRepo) GetCancellationPolicy(ctx context.Context, serviceID int64) (*domain.CancellationPolicy, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancellationPolicy), args.Error(1)
}

func (m *mockCatalogRepo) UpdateSlotConfig(ctx context.Context, cfg *domain.SlotConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *mockCatalogRepo) ReplacePriceRules(ctx context.Context, slotConfigID int64, rules []*domain.PriceRule) error {
	args := m.Called(ctx, slotConfigID, rules)
	return args.Error(0)
}

func (m *mockCatalogRepo) UpsertCancellationPolicy(ctx context.Context, p *domain.CancellationPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type stubTxManager struct{}

func (s *stubTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// Фикстуры

func testEnv() (*Service, *mockCatalogRepo) {
	repo := new(mockCatalogRepo)
	return NewService(repo, &stubTxManager{}, nopLogger{}), repo
}

func testResource() *domain.Resource {
	return &domain.Resource{
		ID:          1,
		ServiceID:   42,
		Name:        "Корт 1",
		PricingType: domain.PricingPerSlot,
		Activities:  []string{"TENNIS"},
		Enabled:     true,
	}
}

func validSection() models.UpdateSlotConfigSection {
	return models.UpdateSlotConfigSection{
		ResourceID:      1,
		OpenTime:        "08:00",
		CloseTime:       "22:00",
		DurationMinutes: 60,
		BasePrice:       1500,
	}
}

// Тесты

func TestGetVenueConfig(t *testing.T) {
	t.Run("assembles resources, rules and policy", func(t *testing.T) {
		svc, repo := testEnv()

		repo.On("ListServiceResources", mock.Anything, int64(42)).Return([]*domain.Resource{testResource()}, nil)
		repo.On("GetSlotConfigs", mock.Anything, []int64{1}).Return(map[int64]*domain.SlotConfig{
			1: {ID: 10, ResourceID: 1, OpenTime: "08:00", CloseTime: "22:00", DurationMinutes: 60, BasePrice: 1500},
		}, nil)
		repo.On("GetPriceRules", mock.Anything, []int64{10}).Return(map[int64][]*domain.PriceRule{
			10: {{ID: 1, SlotConfigID: 10, DayType: domain.DayTypeWeekend, StartTime: "08:00", EndTime: "22:00", ExtraCharge: 300, Priority: 5, Enabled: true}},
		}, nil)
		repo.On("GetCancellationPolicy", mock.Anything, int64(42)).Return(&domain.CancellationPolicy{
			ServiceID:           42,
			CancellationEnabled: true,
			Rules:               []domain.RefundRule{{MinMinutesBefore: 1440, RefundPercent: 100}},
		}, nil)

		resp, err := svc.GetVenueConfig(context.Background(), 42)

		require.NoError(t, err)
		require.Len(t, resp.Resources, 1)
		assert.Equal(t, "08:00", resp.Resources[0].OpenTime)
		assert.Equal(t, 1500.0, resp.Resources[0].BasePrice)
		require.Len(t, resp.Resources[0].PriceRules, 1)
		assert.Equal(t, "WEEKEND", resp.Resources[0].PriceRules[0].DayType)
		require.NotNil(t, resp.Policy)
		assert.True(t, resp.Policy.CancellationEnabled)
	})

	t.Run("missing policy is not an error", func(t *testing.T) {
		svc, repo := testEnv()

		repo.On("ListServiceResources", mock.Anything, int64(42)).Return([]*domain.Resource{testResource()}, nil)
		repo.On("GetSlotConfigs", mock.Anything, mock.Anything).Return(map[int64]*domain.SlotConfig{}, nil)
		repo.On("GetPriceRules", mock.Anything, mock.Anything).Return(map[int64][]*domain.PriceRule{}, nil)
		repo.On("GetCancellationPolicy", mock.Anything, int64(42)).Return(nil, catalogRepo.ErrPolicyNotFound)

		resp, err := svc.GetVenueConfig(context.Background(), 42)

		require.NoError(t, err)
		assert.Nil(t, resp.Policy)
	})

	t.Run("unknown service has no resources", func(t *testing.T) {
		svc, repo := testEnv()

		repo.On("ListServiceResources", mock.Anything, int64(42)).Return([]*domain.Resource{}, nil)

		_, err := svc.GetVenueConfig(context.Background(), 42)
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})
}

func TestUpdateVenueConfig(t *testing.T) {
	t.Run("invalid schedule is rejected before any write", func(t *testing.T) {
		svc, repo := testEnv()

		section := validSection()
		section.CloseTime = "07:00" // закрытие раньше открытия

		_, err := svc.UpdateVenueConfig(context.Background(), &models.UpdateVenueConfigRequest{
			ServiceID:   42,
			SlotConfigs: []models.UpdateSlotConfigSection{section},
		})

		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "UpdateSlotConfig", mock.Anything, mock.Anything)
	})

	t.Run("resource of another venue is rejected", func(t *testing.T) {
		svc, repo := testEnv()

		foreign := testResource()
		foreign.ServiceID = 99

		repo.On("GetResource", mock.Anything, int64(1)).Return(foreign, nil)

		_, err := svc.UpdateVenueConfig(context.Background(), &models.UpdateVenueConfigRequest{
			ServiceID:   42,
			SlotConfigs: []models.UpdateSlotConfigSection{validSection()},
		})

		assert.ErrorIs(t, err, ErrResourceNotFound)
		repo.AssertNotCalled(t, "UpdateSlotConfig", mock.Anything, mock.Anything)
	})

	t.Run("policy bounds are validated", func(t *testing.T) {
		svc, repo := testEnv()

		_, err := svc.UpdateVenueConfig(context.Background(), &models.UpdateVenueConfigRequest{
			ServiceID: 42,
			Policy: &models.CancellationPolicyModel{
				CancellationEnabled: true,
				Rules:               []models.RefundRuleModel{{MinMinutesBefore: 60, RefundPercent: 150}},
			},
		})

		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "UpsertCancellationPolicy", mock.Anything, mock.Anything)
	})

	t.Run("updates schedule, rules and policy in one pass", func(t *testing.T) {
		svc, repo := testEnv()

		section := validSection()
		section.PriceRules = []models.PriceRuleModel{
			{DayType: "WEEKEND", StartTime: "08:00", EndTime: "22:00", ExtraCharge: 300, Priority: 5, Enabled: true},
		}
		policy := &models.CancellationPolicyModel{
			CancellationEnabled: true,
			Rules:               []models.RefundRuleModel{{MinMinutesBefore: 1440, RefundPercent: 100}},
		}

		repo.On("GetResource", mock.Anything, int64(1)).Return(testResource(), nil)
		repo.On("UpdateSlotConfig", mock.Anything, mock.AnythingOfType("*domain.SlotConfig")).Return(nil)
		repo.On("GetSlotConfigs", mock.Anything, []int64{1}).Return(map[int64]*domain.SlotConfig{
			1: {ID: 10, ResourceID: 1, OpenTime: "08:00", CloseTime: "22:00", DurationMinutes: 60, BasePrice: 1500},
		}, nil)
		repo.On("ReplacePriceRules", mock.Anything, int64(10), mock.Anything).Return(nil)
		repo.On("UpsertCancellationPolicy", mock.Anything, mock.AnythingOfType("*domain.CancellationPolicy")).Return(nil)

		// Перечитывание конфигурации после записи
		repo.On("ListServiceResources", mock.Anything, int64(42)).Return([]*domain.Resource{testResource()}, nil)
		repo.On("GetPriceRules", mock.Anything, []int64{10}).Return(map[int64][]*domain.PriceRule{}, nil)
		repo.On("GetCancellationPolicy", mock.Anything, int64(42)).Return(policy.ToDomainPolicy(42), nil)

		resp, err := svc.UpdateVenueConfig(context.Background(), &models.UpdateVenueConfigRequest{
			ServiceID:   42,
			SlotConfigs: []models.UpdateSlotConfigSection{section},
			Policy:      policy,
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Policy)
		assert.Equal(t, 100, resp.Policy.Rules[0].RefundPercent)
		repo.AssertExpectations(t)
	})
}
