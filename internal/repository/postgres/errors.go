package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolationCode — SQLSTATE нарушения уникального ограничения в PostgreSQL
const uniqueViolationCode = "23505"

// isUniqueViolation проверяет, вызвана ли ошибка дубликатом ключа
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// withTx возвращает соединение транзакции, если она передана, иначе основное
func withTx(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
