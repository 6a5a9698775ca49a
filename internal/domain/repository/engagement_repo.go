package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// EngagementRepository определяет методы журнала активности.
// Записи журнала только добавляются: методов изменения и удаления нет.
type EngagementRepository interface {
	// Append добавляет запись в журнал в транзакции tx
	Append(ctx context.Context, tx *gorm.DB, log *entity.EngagementLog) error
	// CountByEventType возвращает количество записей пользователя по типам событий
	CountByEventType(ctx context.Context, userID uint) (map[entity.EventType]int64, error)
	// SumPoints пересчитывает сумму очков пользователя по журналу
	SumPoints(ctx context.Context, userID uint) (int64, error)
	// ListByUser возвращает записи пользователя (новые первыми) с пагинацией и общим количеством
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.EngagementLog, int64, error)
}
