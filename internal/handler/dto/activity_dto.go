package dto

import (
	"time"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// LogActivityRequest — запрос на запись активности
type LogActivityRequest struct {
	ActivityType string                 `json:"activityType" binding:"required"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// TimeSpentRequest — учет времени обучения. Указатель отличает 0 от отсутствующего поля.
type TimeSpentRequest struct {
	Minutes *int `json:"minutes" binding:"required"`
}

// SuccessResponse — ответ { success: true }
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ActivityEntryDTO — запись журнала активности
type ActivityEntryDTO struct {
	ID        uint                   `json:"id"`
	EventType string                 `json:"eventType"`
	Points    int                    `json:"points"`
	EventData map[string]interface{} `json:"eventData,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// PaginatedActivityResponse — страница журнала активности
type PaginatedActivityResponse struct {
	Entries []*ActivityEntryDTO `json:"entries"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"perPage"`
}

// NewActivityEntryDTO создает DTO записи журнала
func NewActivityEntryDTO(l *entity.EngagementLog) *ActivityEntryDTO {
	return &ActivityEntryDTO{
		ID:        l.ID,
		EventType: string(l.EventType),
		Points:    l.Points,
		EventData: l.EventData,
		Timestamp: l.CreatedAt,
	}
}
