package engagement

import (
	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// Aggregate — сводка журнала пользователя.
// CountsByEventType считает записи, а не очки: пороги допуска задаются
// количеством действий независимо от цены события.
type Aggregate struct {
	CountsByEventType map[entity.EventType]int64 `json:"countsByEventType"`
	TotalPoints       int64                      `json:"totalPoints"`
}

// Count возвращает количество записей указанного типа (0, если записей нет)
func (a *Aggregate) Count(eventType entity.EventType) int64 {
	if a == nil || a.CountsByEventType == nil {
		return 0
	}
	return a.CountsByEventType[eventType]
}
