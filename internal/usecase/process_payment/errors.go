package process_payment

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("process_payment: booking not found")

	// ErrInvalidTransition возвращается при недопустимом переходе платёжного статуса
	ErrInvalidTransition = errors.New("process_payment: invalid payment transition")

	// ErrSlotTaken возвращается, когда слот успел уйти другому активному
	// бронированию между созданием и началом оплаты
	ErrSlotTaken = errors.New("process_payment: slot is already taken")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("process_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("process_payment: internal error")
)
