package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.AssessmentQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&questions, 100).Error
	})
}

// GetByIDs возвращает найденные вопросы по списку ID
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.AssessmentQuestion, error) {
	var questions []entity.AssessmentQuestion
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&questions).Error
	return questions, err
}

// ListActive возвращает активные вопросы
func (r *QuestionRepo) ListActive(ctx context.Context) ([]entity.AssessmentQuestion, error) {
	var questions []entity.AssessmentQuestion
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&questions).Error
	return questions, err
}

// CountActive возвращает количество активных вопросов
func (r *QuestionRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.AssessmentQuestion{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
