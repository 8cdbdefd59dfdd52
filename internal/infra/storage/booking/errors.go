package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrDoubleBooking возвращается, когда частичный уникальный индекс
	// отклонил второе активное бронирование на тот же слот
	ErrDoubleBooking = errors.New("booking.repository: slot already actively booked")

	// ErrDuplicateIdempotencyKey возвращается при нарушении уникальности
	// ключа идемпотентности
	ErrDuplicateIdempotencyKey = errors.New("booking.repository: idempotency key already used")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
