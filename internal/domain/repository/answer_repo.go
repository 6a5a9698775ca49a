package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// CategoryGap — статистика ответов по категории вопросов
type CategoryGap struct {
	Category  string `json:"category"`
	Answered  int64  `json:"answered"`
	Incorrect int64  `json:"incorrect"`
}

// AnswerRepository определяет методы для работы с ответами на тесты
type AnswerRepository interface {
	// CreateBatch пакетно сохраняет ответы в транзакции tx
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []entity.UserAnswer) error
	// GapsByCategory группирует ответы пользователя по категориям вопросов
	GapsByCategory(ctx context.Context, userID uint, testType entity.TestType) ([]CategoryGap, error)
}
