package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (нет сессии, неверный пароль).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	// Проверка всегда выполняется до любой записи в хранилище.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (повторная сдача теста, занятый email).
	ErrConflict = errors.New("resource state conflict")

	// ErrPersistence используется для сбоев хранилища внутри многошаговых операций.
	// Операция, вернувшая эту ошибку, полностью откачена.
	ErrPersistence = errors.New("persistence failure")
)
