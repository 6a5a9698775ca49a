package service

import (
	"errors"
	"fmt"

	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
)

// persistenceError оборачивает ошибку хранилища в ErrPersistence.
// Ошибки приложения (ErrNotFound, ErrConflict и т.д.) возвращаются без изменений.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		apperrors.ErrNotFound,
		apperrors.ErrValidation,
		apperrors.ErrConflict,
		apperrors.ErrForbidden,
		apperrors.ErrUnauthorized,
		apperrors.ErrPersistence,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", apperrors.ErrPersistence, op, err)
}

// normalizePage приводит параметры пагинации к допустимым значениям
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
