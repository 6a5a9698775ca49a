package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// CreateBatch пакетно сохраняет ответы
func (r *AnswerRepo) CreateBatch(ctx context.Context, tx *gorm.DB, answers []entity.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return withTx(ctx, r.db, tx).Create(&answers).Error
}

// GapsByCategory считает отвеченные и ошибочные ответы по категориям.
// Категории с наибольшим числом ошибок идут первыми.
func (r *AnswerRepo) GapsByCategory(ctx context.Context, userID uint, testType entity.TestType) ([]repository.CategoryGap, error) {
	var gaps []repository.CategoryGap
	err := r.db.WithContext(ctx).
		Table("user_answers").
		Select(`assessment_questions.category AS category,
			COUNT(*) AS answered,
			SUM(CASE WHEN user_answers.is_correct THEN 0 ELSE 1 END) AS incorrect`).
		Joins("JOIN assessment_questions ON assessment_questions.id = user_answers.question_id").
		Where("user_answers.user_id = ? AND user_answers.test_type = ?", userID, testType).
		Group("assessment_questions.category").
		Order("incorrect DESC, category ASC").
		Scan(&gaps).Error
	return gaps, err
}
