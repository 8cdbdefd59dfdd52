package get_available_slots

import "errors"

var (
	// ErrActivityNotFound возвращается, когда активность не существует или отключена
	ErrActivityNotFound = errors.New("get_available_slots: activity not found")

	// ErrNoResources возвращается, когда у площадки нет ресурсов под активность
	ErrNoResources = errors.New("get_available_slots: no resources for this activity")

	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("get_available_slots: invalid date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
