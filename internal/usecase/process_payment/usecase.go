package process_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/booking"
)

// Outcome исход платежа, сообщаемый платёжным шлюзом
type Outcome string

const (
	OutcomeInitiated Outcome = "initiated"
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
)

// IsValid проверяет, что исход известен
func (o Outcome) IsValid() bool {
	return o == OutcomeInitiated || o == OutcomeSuccess || o == OutcomeFailed
}

// Request модель запроса обработки платёжного события
type Request struct {
	ReferenceCode string
	Outcome       Outcome
	TransactionID string // идентификатор операции на стороне шлюза
}

// Response модель ответа с результирующими статусами
type Response struct {
	ReferenceCode string `json:"referenceCode"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// UseCase use case обработки платёжных событий шлюза
type UseCase struct {
	bookingRepo  BookingRepository
	producer     EventProducer
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	producer EventProducer,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		producer:     producer,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute применяет платёжное событие к бронированию. Повторная доставка
// того же события — no-op: шлюз доставляет вебхуки at-least-once.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ProcessPayment: ref=%s, outcome=%s, tx=%s", req.ReferenceCode, req.Outcome, req.TransactionID)

	if req.ReferenceCode == "" {
		return nil, fmt.Errorf("%w: reference code is required", ErrInvalidInput)
	}
	if !req.Outcome.IsValid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, req.Outcome)
	}

	var (
		booking   *domain.Booking
		confirmed bool
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		confirmed = false

		var err error
		booking, err = uc.bookingRepo.GetByReferenceForUpdate(txCtx, req.ReferenceCode)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		switch req.Outcome {
		case OutcomeInitiated:
			return uc.applyInitiated(txCtx, booking)
		case OutcomeSuccess:
			var err error
			confirmed, err = uc.applySuccess(txCtx, booking)
			return err
		case OutcomeFailed:
			return uc.applyFailed(txCtx, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Событие подтверждения публикуется после коммита
	if confirmed {
		if pubErr := uc.producer.PublishBookingConfirmed(ctx, events.BookingConfirmedEvent{
			BookingID:     booking.ID,
			ReferenceCode: booking.ReferenceCode,
			UserID:        booking.UserID,
			ServiceID:     booking.ServiceID,
			Amount:        booking.Amount,
			PlatformFee:   booking.PlatformFee,
			OnlineAmount:  booking.OnlineAmount,
			VenueAmount:   booking.VenueAmountDue,
			ConfirmedAt:   uc.timeProvider.Now(),
		}); pubErr != nil {
			uc.logger.Error("ProcessPayment: failed to publish confirmation event for ref=%s: %v", req.ReferenceCode, pubErr)
		}
	}

	uc.logger.Info("ProcessPayment: ref=%s -> status=%s payment=%s", booking.ReferenceCode, booking.Status, booking.PaymentStatus)

	return &Response{
		ReferenceCode: booking.ReferenceCode,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
	}, nil
}

// applyInitiated переводит бронирование в ожидание подтверждения оплаты.
// Бронирование становится активным блокером слота: конкурирующие брошенные
// корзины на том же окне истекают немедленно.
func (uc *UseCase) applyInitiated(ctx context.Context, b *domain.Booking) error {
	// Повторная доставка
	if b.Status == domain.StatusAwaitingConfirmation && b.PaymentStatus == domain.PaymentInProgress {
		return nil
	}

	if b.PaymentStatus != domain.PaymentNotStarted {
		return ErrInvalidTransition
	}

	var next domain.BookingStatus
	switch b.Status {
	case domain.StatusPending:
		next = domain.StatusAwaitingConfirmation
	case domain.StatusPaymentPending:
		// Онлайн-депозит при оплате на месте: статус не меняется
		next = domain.StatusPaymentPending
	default:
		return ErrInvalidTransition
	}

	if err := uc.bookingRepo.UpdateStatus(ctx, b.ID, next, domain.PaymentInProgress); err != nil {
		if errors.Is(err, bookingRepo.ErrDoubleBooking) {
			return ErrSlotTaken
		}
		return fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
	}

	if b.ResourceID != nil {
		expired, err := uc.bookingRepo.ExpireAbandonedOnSlot(ctx, *b.ResourceID, b.BookingDate, b.StartTime, b.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to expire abandoned carts: %v", ErrInternal, err)
		}
		if expired > 0 {
			uc.logger.Info("ProcessPayment: expired %d abandoned cart(s) on slot %s %s", expired,
				b.BookingDate.Format(domain.DateFormat), b.StartTime)
		}
	}

	b.Status = next
	b.PaymentStatus = domain.PaymentInProgress
	return nil
}

// applySuccess подтверждает бронирование; возвращает true, если переход
// выполнен и нужно публиковать событие
func (uc *UseCase) applySuccess(ctx context.Context, b *domain.Booking) (bool, error) {
	// Повторная доставка
	if b.Status == domain.StatusConfirmed && b.PaymentStatus == domain.PaymentSuccess {
		return false, nil
	}

	switch b.PaymentStatus {
	case domain.PaymentInProgress, domain.PaymentNotStarted:
		// Шлюз может прислать success без отдельного initiated
	default:
		return false, ErrInvalidTransition
	}

	if b.IsTerminal() {
		return false, ErrInvalidTransition
	}

	if err := uc.bookingRepo.UpdateStatus(ctx, b.ID, domain.StatusConfirmed, domain.PaymentSuccess); err != nil {
		if errors.Is(err, bookingRepo.ErrDoubleBooking) {
			return false, ErrSlotTaken
		}
		return false, fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
	}

	if b.ResourceID != nil {
		if _, err := uc.bookingRepo.ExpireAbandonedOnSlot(ctx, *b.ResourceID, b.BookingDate, b.StartTime, b.ID); err != nil {
			return false, fmt.Errorf("%w: failed to expire abandoned carts: %v", ErrInternal, err)
		}
	}

	b.Status = domain.StatusConfirmed
	b.PaymentStatus = domain.PaymentSuccess
	return true, nil
}

// applyFailed освобождает слот после неуспешной оплаты
func (uc *UseCase) applyFailed(ctx context.Context, b *domain.Booking) error {
	// Повторная доставка
	if b.Status == domain.StatusExpired && b.PaymentStatus == domain.PaymentFailed {
		return nil
	}

	if b.IsTerminal() {
		return ErrInvalidTransition
	}

	if err := uc.bookingRepo.UpdateStatus(ctx, b.ID, domain.StatusExpired, domain.PaymentFailed); err != nil {
		return fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
	}

	b.Status = domain.StatusExpired
	b.PaymentStatus = domain.PaymentFailed
	return nil
}
