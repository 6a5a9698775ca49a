package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/pkg/testdb"
)

func seedQuestions(t *testing.T, repo *QuestionRepo) []entity.AssessmentQuestion {
	t.Helper()
	questions := []entity.AssessmentQuestion{
		{Question: "Q1", Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectAnswer: 0, Category: "extinguishers", IsActive: true},
		{Question: "Q2", Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectAnswer: 1, Category: "extinguishers", IsActive: true},
		{Question: "Q3", Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectAnswer: 1, Category: "evacuation", IsActive: true},
		{Question: "Q4", Options: datatypes.JSONSlice[string]{"a", "b"}, CorrectAnswer: 0, Category: "evacuation", IsActive: false},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), questions))

	stored, err := repo.GetByIDs(context.Background(), []uint{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, stored, 4)
	return stored
}

func TestQuestionRepo_GetByIDsAndActive(t *testing.T) {
	db := testdb.New(t)
	repo := NewQuestionRepo(db)
	ctx := context.Background()
	seedQuestions(t, repo)

	found, err := repo.GetByIDs(ctx, []uint{2, 3, 42})
	require.NoError(t, err)
	assert.Len(t, found, 2, "Неизвестные ID пропускаются")

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAnswerRepo_GapsByCategory(t *testing.T) {
	// Arrange
	db := testdb.New(t)
	questions := seedQuestions(t, NewQuestionRepo(db))
	repo := NewAnswerRepo(db)
	ctx := context.Background()
	user := testdb.CreateUser(t, db, "ivan")

	answers := []entity.UserAnswer{
		{UserID: user.ID, QuestionID: questions[0].ID, SelectedAnswer: 0, IsCorrect: true, TestType: entity.TestTypePre},
		{UserID: user.ID, QuestionID: questions[1].ID, SelectedAnswer: 0, IsCorrect: false, TestType: entity.TestTypePre},
		{UserID: user.ID, QuestionID: questions[2].ID, SelectedAnswer: 0, IsCorrect: false, TestType: entity.TestTypePre},
		{UserID: user.ID, QuestionID: questions[2].ID, SelectedAnswer: 1, IsCorrect: true, TestType: entity.TestTypePost},
	}
	require.NoError(t, repo.CreateBatch(ctx, nil, answers))

	// Act
	gaps, err := repo.GapsByCategory(ctx, user.ID, entity.TestTypePre)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []repository.CategoryGap{
		{Category: "extinguishers", Answered: 2, Incorrect: 1},
		{Category: "evacuation", Answered: 1, Incorrect: 1},
	}, gaps)

	var stored []entity.UserAnswer
	require.NoError(t, db.Where("user_id = ? AND test_type = ?", user.ID, entity.TestTypePost).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsCorrect)
}
