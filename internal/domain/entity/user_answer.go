package entity

import (
	"time"
)

// TestType — вид теста
type TestType string

const (
	TestTypePre  TestType = "preTest"
	TestTypePost TestType = "postTest"
)

// IsValid проверяет тип теста
func (t TestType) IsValid() bool {
	return t == TestTypePre || t == TestTypePost
}

// EventType возвращает тип события журнала, который фиксирует завершение теста
func (t TestType) EventType() EventType {
	if t == TestTypePost {
		return EventPostTest
	}
	return EventPreTest
}

// UserAnswer представляет ответ пользователя на вопрос теста.
// Создаётся пакетно при сдаче теста и больше не меняется.
type UserAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_user_answers_user_test" json:"userId"`
	QuestionID     uint      `gorm:"not null;index" json:"questionId"`
	SelectedAnswer int       `gorm:"not null" json:"selectedAnswer"`
	IsCorrect      bool      `gorm:"not null" json:"isCorrect"`
	TestType       TestType  `gorm:"size:20;not null;index:idx_user_answers_user_test" json:"testType"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TableName определяет имя таблицы для GORM
func (UserAnswer) TableName() string {
	return "user_answers"
}
