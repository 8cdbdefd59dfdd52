package create_booking

import "errors"

var (
	// ErrInvalidToken возвращается при неразборчивом или подделанном токене слота
	ErrInvalidToken = errors.New("create_booking: invalid slot token")

	// ErrTokenExpired возвращается при просроченной котировке слота
	ErrTokenExpired = errors.New("create_booking: slot token expired")

	// ErrPriceMismatch возвращается, когда живая цена слота разошлась с котировкой
	ErrPriceMismatch = errors.New("create_booking: slot price changed")

	// ErrInvalidSlotAlignment возвращается, когда окно не лежит на актуальной сетке
	ErrInvalidSlotAlignment = errors.New("create_booking: slot is not aligned to the current grid")

	// ErrSlotTaken возвращается, когда все ресурсы пула заняты в запрошенном окне
	ErrSlotTaken = errors.New("create_booking: slot is already taken")

	// ErrDoubleBooking возвращается, когда страховочный индекс БД отклонил
	// вставку: слот удержан конкурирующим активным бронированием
	ErrDoubleBooking = errors.New("create_booking: slot already held by an active booking")

	// ErrIdempotencyConflict возвращается при повторном использовании ключа
	// идемпотентности с другими параметрами бронирования
	ErrIdempotencyConflict = errors.New("create_booking: idempotency key reused with different parameters")

	// ErrHeadcountExceeded возвращается, когда количество людей превышает
	// вместимость ресурса
	ErrHeadcountExceeded = errors.New("create_booking: headcount exceeds resource capacity")

	// ErrResourceNotFound возвращается, когда ресурс из котировки больше не существует
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
