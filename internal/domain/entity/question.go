package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentQuestion представляет вопрос пре-/пост-теста.
// Для модуля оценки вопросы только читаются.
type AssessmentQuestion struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Question      string                      `gorm:"size:1000;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectAnswer int                         `gorm:"not null" json:"-"` // Скрыто от клиента
	Category      string                      `gorm:"size:50;not null;default:'general';index" json:"category"`
	Difficulty    string                      `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	ForRoles      datatypes.JSONSlice[string] `json:"forRoles"`
	IsActive      bool                        `gorm:"not null;index" json:"isActive"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// IsCorrect сравнивает индекс выбранного варианта с правильным (строго по индексу)
func (q *AssessmentQuestion) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectAnswer
}

// IsValidOption проверяет, что индекс попадает в список вариантов
func (q *AssessmentQuestion) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}

// AvailableFor проверяет, предназначен ли вопрос для роли.
// Пустой список ролей означает "для всех".
func (q *AssessmentQuestion) AvailableFor(role string) bool {
	if len(q.ForRoles) == 0 || role == RoleAdmin {
		return true
	}
	for _, r := range q.ForRoles {
		if r == role {
			return true
		}
	}
	return false
}
