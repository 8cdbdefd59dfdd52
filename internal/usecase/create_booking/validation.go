package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
)

// validateRequest проверяет структурные инварианты запроса до каких-либо
// обращений к БД
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userId must be positive", ErrInvalidInput)
	}

	if len(req.SlotTokens) == 0 {
		return fmt.Errorf("%w: at least one slot token is required", ErrInvalidInput)
	}
	if len(req.SlotTokens) > domain.MaxTokensPerBooking {
		return fmt.Errorf("%w: at most %d slot tokens per booking", ErrInvalidInput, domain.MaxTokensPerBooking)
	}

	if req.Headcount < domain.MinHeadcount || req.Headcount > domain.MaxHeadcount {
		return fmt.Errorf("%w: headcount must be within [%d, %d]", ErrInvalidInput, domain.MinHeadcount, domain.MaxHeadcount)
	}

	if !domain.PaymentMethod(req.PaymentMethod).IsValid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}

	if err := validateIdempotencyKey(req.IdempotencyKey); err != nil {
		return err
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateIdempotencyKey проверяет формат клиентского ключа идемпотентности.
// Двоеточие зарезервировано под серверный суффикс номера окна.
func validateIdempotencyKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)
	}
	if len(key) > domain.MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key exceeds %d characters", ErrInvalidInput, domain.MaxIdempotencyKeyLength)
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("%w: idempotency key contains invalid character %q", ErrInvalidInput, c)
		}
	}
	return nil
}
