package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// Mock структуры

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByServiceWithFilter(ctx context.Context, filter domain.VenueBookingsFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *mockBookingRepo) MarkVenueCollected(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBookingRepo) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	args := m.Called(ctx, refund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) GetCancellationPolicy(ctx context.Context, serviceID int64) (*domain.CancellationPolicy, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancellationPolicy), args.Error(1)
}

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) PublishBookingConfirmed(ctx context.Context, ev events.BookingConfirmedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *mockProducer) PublishRefundIssued(ctx context.Context, ev events.RefundIssuedEvent) error {
	args := m.Called(ctx, ev)
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

var fixedNow = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func testEnv() (*Service, *mockBookingRepo, *mockCatalogRepo, *mockProducer) {
	bookingRepo := new(mockBookingRepo)
	catalogRepo := new(mockCatalogRepo)
	producer := new(mockProducer)
	svc := NewService(bookingRepo, catalogRepo, producer, &stubTxManager{}, nopLogger{}, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc, bookingRepo, catalogRepo, producer
}

// confirmedBooking — подтверждённое бронирование на завтра в 10:00
func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:            11,
		ReferenceCode: "BK-TEST000001",
		UserID:        7,
		ServiceID:     42,
		BookingDate:   time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
		StartTime:     types.TimeString("10:00"),
		EndTime:       types.TimeString("11:00"),
		Status:        domain.StatusConfirmed,
		PaymentStatus: domain.PaymentSuccess,
		PaymentMethod: domain.PaymentMethodOnline,
		Amount:        2000,
	}
}

func refundPolicy() *domain.CancellationPolicy {
	return &domain.CancellationPolicy{
		ServiceID:              42,
		CancellationEnabled:    true,
		MinCancellationMinutes: 60,
		Rules: []domain.RefundRule{
			{MinMinutesBefore: 1440, RefundPercent: 100},
			{MinMinutesBefore: 60, RefundPercent: 50},
		},
	}
}

// Тесты

func TestGetByReference(t *testing.T) {
	t.Run("owner reads own booking", func(t *testing.T) {
		svc, repo, _, _ := testEnv()
		b := confirmedBooking()

		repo.On("GetByReference", mock.Anything, b.ReferenceCode).Return(b, nil)

		resp, err := svc.GetByReference(context.Background(), b.ReferenceCode, b.UserID)

		require.NoError(t, err)
		assert.Equal(t, b.ReferenceCode, resp.ReferenceCode)
		assert.True(t, resp.Terminal)
	})

	t.Run("foreign booking is denied", func(t *testing.T) {
		svc, repo, _, _ := testEnv()
		b := confirmedBooking()

		repo.On("GetByReference", mock.Anything, b.ReferenceCode).Return(b, nil)

		_, err := svc.GetByReference(context.Background(), b.ReferenceCode, 1000)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestCancel(t *testing.T) {
	t.Run("cancels with full refund a day ahead", func(t *testing.T) {
		svc, repo, catalog, producer := testEnv()
		b := confirmedBooking() // до начала 25 часов, порог 1440 минут достигнут

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)
		catalog.On("GetCancellationPolicy", mock.Anything, b.ServiceID).Return(refundPolicy(), nil)
		repo.On("Cancel", mock.Anything, b.ID, domain.StatusCancelledByUser, "plans changed").Return(nil)
		repo.On("CreateRefund", mock.Anything, mock.AnythingOfType("*domain.Refund")).
			Return(&domain.Refund{BookingID: b.ID, RefundPercent: 100, RefundAmount: 2000, Status: domain.RefundPending}, nil)
		producer.On("PublishRefundIssued", mock.Anything, mock.AnythingOfType("events.RefundIssuedEvent")).Return(nil)

		resp, err := svc.Cancel(context.Background(), &models.CancelBookingRequest{
			UserID:             b.UserID,
			ReferenceCode:      b.ReferenceCode,
			CancellationReason: "plans changed",
		})

		require.NoError(t, err)
		assert.Equal(t, 100, resp.RefundPercent)
		assert.Equal(t, 2000.0, resp.RefundAmount)
		assert.Equal(t, string(domain.StatusCancelledByUser), resp.Status)
		assert.Equal(t, string(domain.RefundPending), resp.RefundStatus)

		producer.AssertNumberOfCalls(t, "PublishRefundIssued", 1)
	})

	t.Run("policy refusal keeps the booking", func(t *testing.T) {
		svc, repo, catalog, producer := testEnv()
		b := confirmedBooking()
		b.BookingDate = fixedNow // слот сегодня в 10:00, до начала час

		policy := refundPolicy()
		policy.MinCancellationMinutes = 120

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)
		catalog.On("GetCancellationPolicy", mock.Anything, b.ServiceID).Return(policy, nil)

		_, err := svc.Cancel(context.Background(), &models.CancelBookingRequest{
			UserID:        b.UserID,
			ReferenceCode: b.ReferenceCode,
		})

		assert.ErrorIs(t, err, ErrRefundNotAllowed)
		repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		producer.AssertNotCalled(t, "PublishRefundIssued", mock.Anything, mock.Anything)
	})

	t.Run("venue without policy refuses cancellation", func(t *testing.T) {
		svc, repo, catalog, _ := testEnv()
		b := confirmedBooking()

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)
		catalog.On("GetCancellationPolicy", mock.Anything, b.ServiceID).Return(nil, catalogRepo.ErrPolicyNotFound)

		_, err := svc.Cancel(context.Background(), &models.CancelBookingRequest{
			UserID:        b.UserID,
			ReferenceCode: b.ReferenceCode,
		})

		assert.ErrorIs(t, err, ErrRefundNotAllowed)
	})

	t.Run("terminal booking cannot be cancelled", func(t *testing.T) {
		svc, repo, _, _ := testEnv()
		b := confirmedBooking()
		b.Status = domain.StatusCancelledByUser

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)

		_, err := svc.Cancel(context.Background(), &models.CancelBookingRequest{
			UserID:        b.UserID,
			ReferenceCode: b.ReferenceCode,
		})

		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("foreign booking is denied", func(t *testing.T) {
		svc, repo, _, _ := testEnv()
		b := confirmedBooking()

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)

		_, err := svc.Cancel(context.Background(), &models.CancelBookingRequest{
			UserID:        1000,
			ReferenceCode: b.ReferenceCode,
		})

		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestCollectVenuePayment(t *testing.T) {
	softLocked := func(lockAt time.Time) *domain.Booking {
		b := confirmedBooking()
		b.Status = domain.StatusPaymentPending
		b.PaymentStatus = domain.PaymentInProgress
		b.PaymentMethod = domain.PaymentMethodVenue
		b.OnlineAmount = 200
		b.VenueAmountDue = 1800
		b.LockExpiresAt = &lockAt
		return b
	}

	t.Run("live lock confirms and publishes", func(t *testing.T) {
		svc, repo, _, producer := testEnv()
		b := softLocked(fixedNow.Add(5 * time.Minute))

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)
		repo.On("MarkVenueCollected", mock.Anything, b.ID).Return(nil)
		producer.On("PublishBookingConfirmed", mock.Anything, mock.AnythingOfType("events.BookingConfirmedEvent")).Return(nil)

		resp, err := svc.CollectVenuePayment(context.Background(), b.ReferenceCode)

		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.Equal(t, 1800.0, resp.AmountCollected)

		ev := producer.Calls[0].Arguments.Get(1).(events.BookingConfirmedEvent)
		assert.Equal(t, 1800.0, ev.VenueAmount)
	})

	t.Run("expired lock is rejected", func(t *testing.T) {
		svc, repo, _, producer := testEnv()
		b := softLocked(fixedNow.Add(-5 * time.Minute))

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)

		_, err := svc.CollectVenuePayment(context.Background(), b.ReferenceCode)

		assert.ErrorIs(t, err, ErrLockExpired)
		repo.AssertNotCalled(t, "MarkVenueCollected", mock.Anything, mock.Anything)
		producer.AssertNotCalled(t, "PublishBookingConfirmed", mock.Anything, mock.Anything)
	})

	t.Run("online booking is not collectable", func(t *testing.T) {
		svc, repo, _, _ := testEnv()
		b := confirmedBooking()

		repo.On("GetByReferenceForUpdate", mock.Anything, b.ReferenceCode).Return(b, nil)

		_, err := svc.CollectVenuePayment(context.Background(), b.ReferenceCode)
		assert.ErrorIs(t, err, ErrNotAwaitingVenuePayment)
	})
}
