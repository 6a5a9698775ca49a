package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// EngagementRepo реализует repository.EngagementRepository
type EngagementRepo struct {
	db *gorm.DB
}

// NewEngagementRepo создает новый репозиторий журнала активности
func NewEngagementRepo(db *gorm.DB) *EngagementRepo {
	return &EngagementRepo{db: db}
}

// Append добавляет запись в журнал
func (r *EngagementRepo) Append(ctx context.Context, tx *gorm.DB, log *entity.EngagementLog) error {
	return withTx(ctx, r.db, tx).Create(log).Error
}

type eventCount struct {
	EventType entity.EventType
	Count     int64
}

// CountByEventType считает записи пользователя, сгруппированные по типу события
func (r *EngagementRepo) CountByEventType(ctx context.Context, userID uint) (map[entity.EventType]int64, error) {
	var rows []eventCount
	err := r.db.WithContext(ctx).Model(&entity.EngagementLog{}).
		Select("event_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.EventType]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Count
	}
	return counts, nil
}

// SumPoints пересчитывает сумму очков по журналу
func (r *EngagementRepo) SumPoints(ctx context.Context, userID uint) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.EngagementLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

// ListByUser возвращает записи пользователя, новые первыми
func (r *EngagementRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.EngagementLog, int64, error) {
	var logs []entity.EngagementLog
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.EngagementLog{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
