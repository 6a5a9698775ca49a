package repository

import (
	"context"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	CreateBatch(ctx context.Context, questions []entity.AssessmentQuestion) error
	// GetByIDs возвращает найденные вопросы; отсутствующие ID пропускаются без ошибки
	GetByIDs(ctx context.Context, ids []uint) ([]entity.AssessmentQuestion, error)
	// ListActive возвращает активные вопросы, упорядоченные по ID
	ListActive(ctx context.Context) ([]entity.AssessmentQuestion, error)
	CountActive(ctx context.Context) (int64, error)
}
