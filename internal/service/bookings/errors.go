package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrCannotCancel возвращается, когда бронирование находится в
	// терминальном статусе и не может быть отменено
	ErrCannotCancel = errors.New("booking cannot be cancelled")

	// ErrRefundNotAllowed возвращается, когда политика отмены запрещает
	// отмену данного бронирования
	ErrRefundNotAllowed = errors.New("cancellation not allowed by policy")

	// ErrLockExpired возвращается при попытке принять оплату на месте
	// после истечения мягкой блокировки
	ErrLockExpired = errors.New("soft lock expired")

	// ErrNotAwaitingVenuePayment возвращается, когда бронирование не
	// ожидает оплату на месте
	ErrNotAwaitingVenuePayment = errors.New("booking is not awaiting venue payment")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
