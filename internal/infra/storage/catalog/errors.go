package catalog

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("catalog.repository: resource not found")

	// ErrSlotConfigNotFound возвращается, когда конфигурация слотов не найдена
	ErrSlotConfigNotFound = errors.New("catalog.repository: slot config not found")

	// ErrPolicyNotFound возвращается, когда политика отмены не найдена
	ErrPolicyNotFound = errors.New("catalog.repository: cancellation policy not found")

	// ErrActivityNotFound возвращается, когда активность не найдена
	ErrActivityNotFound = errors.New("catalog.repository: activity not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)
