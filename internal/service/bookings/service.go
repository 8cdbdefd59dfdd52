package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	catalogRepo CatalogRepository
	producer    EventProducer
	txManager   TransactionManager
	logger      Logger
	loc         *time.Location
	now         func() time.Time
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	producer EventProducer,
	txManager TransactionManager,
	logger Logger,
	loc *time.Location,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		catalogRepo: catalogRepo,
		producer:    producer,
		txManager:   txManager,
		logger:      logger,
		loc:         loc,
		now:         time.Now,
	}
}

// GetByReference получает бронирование по ссылочному коду.
// Пользователь видит только собственные бронирования.
func (s *Service) GetByReference(ctx context.Context, ref string, userID int64) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByReference: booking ref=%s not found", ref)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByReference: repository error for ref=%s: %v", ref, err)
		return nil, fmt.Errorf("%w: GetByReference - repository error: %v", ErrInternal, err)
	}

	if booking.UserID != userID {
		s.logger.Warn("GetByReference: access denied for user=%d to booking ref=%s", userID, ref)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := domain.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// GetVenueBookings получает бронирования площадки с гибкой фильтрацией.
// Поддерживает фильтрацию по ресурсам, периоду, статусу и включению
// неактивных бронирований.
func (s *Service) GetVenueBookings(ctx context.Context, req *models.GetVenueBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetVenueBookings: fetching bookings for service=%d", req.ServiceID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetVenueBookings: invalid filter for service=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetByServiceWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetVenueBookings: repository error for service=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: GetVenueBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование пользователя с расчётом возврата по
// политике площадки. Вся проверка и запись выполняются в одной
// serializable транзакции; событие возврата публикуется после коммита.
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking ref=%s for user=%d", req.ReferenceCode, req.UserID)

	var (
		booking *domain.Booking
		outcome domain.RefundOutcome
		refund  *domain.Refund
	)

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookingRepo.GetByReferenceForUpdate(ctx, req.ReferenceCode)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - fetch booking: %v", ErrInternal, err)
		}

		if booking.UserID != req.UserID {
			return ErrAccessDenied
		}

		if !booking.CanBeCancelled() {
			return ErrCannotCancel
		}

		policy, err := s.catalogRepo.GetCancellationPolicy(ctx, booking.ServiceID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrPolicyNotFound) {
				// Площадка без политики отмены: отмена запрещена
				return fmt.Errorf("%w: venue has no cancellation policy", ErrRefundNotAllowed)
			}
			return fmt.Errorf("%w: Cancel - fetch policy: %v", ErrInternal, err)
		}

		minutesRemaining, err := s.minutesUntilStart(booking)
		if err != nil {
			return fmt.Errorf("%w: Cancel - compute slot start: %v", ErrInternal, err)
		}

		outcome = domain.CalculateRefund(policy, booking.Amount, minutesRemaining)
		if !outcome.Allowed {
			s.logger.Warn("Cancel: refused by policy for ref=%s: %s", req.ReferenceCode, outcome.Reason)
			return fmt.Errorf("%w: %s", ErrRefundNotAllowed, outcome.Reason)
		}

		if err := s.bookingRepo.Cancel(ctx, booking.ID, domain.StatusCancelledByUser, req.CancellationReason); err != nil {
			return fmt.Errorf("%w: Cancel - update booking: %v", ErrInternal, err)
		}

		refund, err = s.bookingRepo.CreateRefund(ctx, &domain.Refund{
			BookingID:         booking.ID,
			OriginalAmount:    booking.Amount,
			RefundPercent:     outcome.RefundPercent,
			RefundAmount:      outcome.RefundAmount,
			MinutesBeforeSlot: minutesRemaining,
			Status:            domain.RefundPending,
		})
		if err != nil {
			return fmt.Errorf("%w: Cancel - create refund: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Публикация после коммита: получатель обрабатывает событие идемпотентно
	if pubErr := s.producer.PublishRefundIssued(ctx, events.RefundIssuedEvent{
		BookingID:     booking.ID,
		ReferenceCode: booking.ReferenceCode,
		UserID:        booking.UserID,
		RefundPercent: outcome.RefundPercent,
		RefundAmount:  outcome.RefundAmount,
		IssuedAt:      s.now(),
	}); pubErr != nil {
		s.logger.Error("Cancel: failed to publish refund event for ref=%s: %v", req.ReferenceCode, pubErr)
	}

	s.logger.Info("Cancel: booking ref=%s cancelled, refund %d%% (%.2f)",
		req.ReferenceCode, outcome.RefundPercent, outcome.RefundAmount)

	return &models.CancelBookingResponse{
		ReferenceCode: booking.ReferenceCode,
		Status:        string(domain.StatusCancelledByUser),
		RefundPercent: outcome.RefundPercent,
		RefundAmount:  outcome.RefundAmount,
		RefundStatus:  string(refund.Status),
	}, nil
}

// CollectVenuePayment подтверждает сбор оплаты на площадке по
// бронированию с мягкой блокировкой. Если блокировка истекла, слот уже
// мог уйти другому пользователю, поэтому подтверждение отклоняется.
func (s *Service) CollectVenuePayment(ctx context.Context, ref string) (*models.CollectVenuePaymentResponse, error) {
	s.logger.Info("CollectVenuePayment: collecting payment for booking ref=%s", ref)

	var booking *domain.Booking

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookingRepo.GetByReferenceForUpdate(ctx, ref)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: CollectVenuePayment - fetch booking: %v", ErrInternal, err)
		}

		if booking.Status != domain.StatusPaymentPending {
			return ErrNotAwaitingVenuePayment
		}

		if !booking.IsSoftLocked(s.now()) {
			s.logger.Warn("CollectVenuePayment: soft lock expired for ref=%s", ref)
			return ErrLockExpired
		}

		if err := s.bookingRepo.MarkVenueCollected(ctx, booking.ID); err != nil {
			if errors.Is(err, bookingRepo.ErrDoubleBooking) {
				// Страховка на случай гонки с другим активным бронированием
				return ErrLockExpired
			}
			return fmt.Errorf("%w: CollectVenuePayment - mark collected: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if pubErr := s.producer.PublishBookingConfirmed(ctx, events.BookingConfirmedEvent{
		BookingID:     booking.ID,
		ReferenceCode: booking.ReferenceCode,
		UserID:        booking.UserID,
		ServiceID:     booking.ServiceID,
		Amount:        booking.Amount,
		PlatformFee:   booking.PlatformFee,
		OnlineAmount:  booking.OnlineAmount,
		VenueAmount:   booking.VenueAmountDue,
		ConfirmedAt:   s.now(),
	}); pubErr != nil {
		s.logger.Error("CollectVenuePayment: failed to publish confirmation event for ref=%s: %v", ref, pubErr)
	}

	s.logger.Info("CollectVenuePayment: booking ref=%s confirmed, collected %.2f", ref, booking.VenueAmountDue)

	return &models.CollectVenuePaymentResponse{
		ReferenceCode:   booking.ReferenceCode,
		Status:          string(domain.StatusConfirmed),
		AmountCollected: booking.VenueAmountDue,
	}, nil
}

// minutesUntilStart считает минуты до начала слота; отрицательное значение
// означает, что слот уже начался
func (s *Service) minutesUntilStart(b *domain.Booking) (int, error) {
	startsAt, err := b.StartsAt(s.loc)
	if err != nil {
		return 0, err
	}
	return int(startsAt.Sub(s.now()).Minutes()), nil
}
