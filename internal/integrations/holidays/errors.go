package holidays

import "errors"

var (
	// ErrInternal внутренняя ошибка клиента
	ErrInternal = errors.New("holidays client internal error")
	// ErrInvalidResponse некорректный ответ от сервиса календаря
	ErrInvalidResponse = errors.New("invalid holiday service response")
	// ErrServiceDegraded сервис календаря недоступен, используем тип дня по дню недели
	ErrServiceDegraded = errors.New("holiday service degraded")
)
