package entity

import (
	"time"

	"gorm.io/datatypes"
)

// EventType — тип события вовлечённости
type EventType string

// Фиксированный перечень типов событий
const (
	EventModule   EventType = "module"
	EventQuiz     EventType = "quiz"
	EventVideo    EventType = "video"
	EventGame     EventType = "game"
	EventPreTest  EventType = "preTest"
	EventPostTest EventType = "postTest"
	EventLogin    EventType = "login"
	EventChat     EventType = "chat"
	EventReading  EventType = "reading"
)

// AllEventTypes возвращает все допустимые типы в стабильном порядке
func AllEventTypes() []EventType {
	return []EventType{
		EventModule, EventQuiz, EventVideo, EventGame,
		EventPreTest, EventPostTest, EventLogin, EventChat, EventReading,
	}
}

// IsValid проверяет, входит ли тип в перечень
func (e EventType) IsValid() bool {
	for _, t := range AllEventTypes() {
		if t == e {
			return true
		}
	}
	return false
}

// IsAssessment сообщает, что событие создается только при оценке теста
func (e EventType) IsAssessment() bool {
	return e == EventPreTest || e == EventPostTest
}

// EngagementLog — неизменяемая запись журнала активности.
// Points фиксируются при создании и никогда не пересчитываются.
type EngagementLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index:idx_engagement_user_type" json:"userId"`
	EventType EventType         `gorm:"size:20;not null;index:idx_engagement_user_type" json:"eventType"`
	Points    int               `gorm:"not null" json:"points"`
	EventData datatypes.JSONMap `json:"eventData"`
	CreatedAt time.Time         `gorm:"index" json:"timestamp"`
}

// TableName определяет имя таблицы для GORM
func (EngagementLog) TableName() string {
	return "engagement_logs"
}
