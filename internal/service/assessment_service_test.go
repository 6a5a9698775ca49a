package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
)

func TestAssessmentService_GradePreTest(t *testing.T) {
	// Arrange: вопрос 1 — правильный ответ 0, вопрос 2 — правильный ответ 1
	env := newTestEnv(t)
	user := env.user(t, "pretest")
	env.seedBank(t, 0, 1)
	ctx := context.Background()

	// Act
	res, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{1: 0, 2: 3})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 2, res.MaxScore)

	answers := env.storedAnswers(t, user.ID, entity.TestTypePre)
	require.Len(t, answers, 2)
	assert.True(t, answers[0].IsCorrect)
	assert.False(t, answers[1].IsCorrect)

	stored := env.reload(t, user.ID)
	require.NotNil(t, stored.PreTestScore)
	assert.Equal(t, 1, *stored.PreTestScore)
	assert.Equal(t, 2, *stored.PreTestMaxScore)
	assert.NotNil(t, stored.PreTestCompletedAt)
	assert.Equal(t, int64(20), stored.EngagementPoints, "Пре-тест начисляет 20 очков")

	var entry entity.EngagementLog
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&entry).Error)
	assert.Equal(t, entity.EventPreTest, entry.EventType)

	env.email.AssertNotCalled(t, "SendPostTestCompleted", mock.Anything, mock.Anything)
	env.publisher.AssertCalled(t, "Publish", mock.Anything, "test.completed", mock.Anything)
}

func TestAssessmentService_UnknownQuestionsDropped(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "unknownq")
	env.seedBank(t, 2)

	res, err := env.assessment.GradeAndRecord(context.Background(), user.ID, entity.TestTypePre, map[uint]int{1: 2, 99: 0, 100: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 1, res.MaxScore, "MaxScore — число найденных вопросов, а не отправленных")
}

func TestAssessmentService_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "invalid")
	env.seedBank(t, 0)
	ctx := context.Background()

	_, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Пустые ответы")

	_, err = env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{42: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Ни одного известного вопроса")

	_, err = env.assessment.GradeAndRecord(ctx, user.ID, entity.TestType("midTest"), map[uint]int{1: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Неизвестный тип теста")

	assert.Nil(t, env.reload(t, user.ID).PreTestScore, "Ничего не записано")
}

func TestAssessmentService_PreTestOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "retake")
	env.seedBank(t, 0)
	ctx := context.Background()

	_, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{1: 0})
	require.NoError(t, err)

	_, err = env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{1: 1})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 1, *env.reload(t, user.ID).PreTestScore)
}

func TestAssessmentService_PostTestRequiresEligibility(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "early")
	env.seedBank(t, 0)

	_, err := env.assessment.GradeAndRecord(context.Background(), user.ID, entity.TestTypePost, map[uint]int{1: 0})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Nil(t, env.reload(t, user.ID).PostTestScore)
}

func TestAssessmentService_PostTestCompletes(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	user := env.user(t, "graduate")
	env.seedBank(t, 0, 1, 2)
	recordN(t, env, user.ID, entity.EventModule, 3)
	recordN(t, env, user.ID, entity.EventQuiz, 2)
	ctx := context.Background()

	// Act
	res, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePost, map[uint]int{1: 0, 2: 1, 3: 0})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.MaxScore)

	stored := env.reload(t, user.ID)
	assert.True(t, stored.HasCompletedPostTest())
	assert.Equal(t, int64(30+30+30), stored.EngagementPoints, "Модули, квизы и 30 очков за пост-тест")

	env.assessment.Wait()
	env.email.AssertCalled(t, "SendPostTestCompleted", mock.Anything, mock.MatchedBy(func(msg CompletionEmail) bool {
		return msg.To == stored.Email && msg.Score == 2 && msg.MaxScore == 3 && msg.IdempotencyKey != ""
	}))

	eligibility, err := env.progress.EvaluatePostTestEligibility(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, eligibility.AlreadyCompleted, "Состояние COMPLETED необратимо")

	_, err = env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePost, map[uint]int{1: 0})
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Пересдача пост-теста запрещена")
}

func TestAssessmentService_RollbackOnLedgerFailure(t *testing.T) {
	env := newTestEnv(t, withFailingAppend(assert.AnError))
	user := env.user(t, "atomic")
	env.seedBank(t, 0)
	ctx := context.Background()

	_, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{1: 0})

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	answers := env.storedAnswers(t, user.ID, entity.TestTypePre)
	assert.Empty(t, answers, "Ответы не сохраняются без записи результата")
	stored := env.reload(t, user.ID)
	assert.Nil(t, stored.PreTestScore)
	assert.Equal(t, int64(0), stored.EngagementPoints)
}

func TestAssessmentService_ListQuestions_FiltersByRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "kidrole")
	require.NoError(t, env.db.Model(user).Update("role", entity.RoleKid).Error)
	ctx := context.Background()

	require.NoError(t, env.questionRepo.CreateBatch(ctx, []entity.AssessmentQuestion{
		{Question: "for everyone", Options: datatypes.JSONSlice[string]{"a", "b"}, Category: "general", IsActive: true},
		{Question: "for kids", Options: datatypes.JSONSlice[string]{"a", "b"}, Category: "general", IsActive: true, ForRoles: datatypes.JSONSlice[string]{entity.RoleKid}},
		{Question: "for pros", Options: datatypes.JSONSlice[string]{"a", "b"}, Category: "general", IsActive: true, ForRoles: datatypes.JSONSlice[string]{entity.RoleProfessional}},
		{Question: "inactive", Options: datatypes.JSONSlice[string]{"a", "b"}, Category: "general", IsActive: false},
	}))

	resp, err := env.assessment.ListQuestions(ctx, user.ID, entity.TestTypePre)

	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "for everyone", resp.Questions[0].Question)
	assert.Equal(t, "for kids", resp.Questions[1].Question)
	assert.Len(t, resp.Questions[0].Options, 2)
}

func TestAssessmentService_GapAnalysis(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "gaps")
	env.seedBank(t, 0, 1, 2, 3)
	ctx := context.Background()

	_, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePre, map[uint]int{1: 0, 2: 0, 3: 0, 4: 3})
	require.NoError(t, err)

	gaps, err := env.assessment.GapAnalysis(ctx, user.ID, entity.TestTypePre)

	require.NoError(t, err)
	require.Len(t, gaps.Categories, 1)
	assert.Equal(t, int64(4), gaps.Categories[0].Answered)
	assert.Equal(t, int64(2), gaps.Categories[0].Incorrect)
	assert.Equal(t, 50, gaps.Categories[0].CorrectRatio)
}

func TestGrade_StrictIndexEquality(t *testing.T) {
	questions := []entity.AssessmentQuestion{
		{ID: 1, Options: datatypes.JSONSlice[string]{"x", "x"}, CorrectAnswer: 0},
		{ID: 2, Options: datatypes.JSONSlice[string]{"y", "z"}, CorrectAnswer: 1},
	}

	// Одинаковый текст вариантов не засчитывается: сравнение только по индексу
	res, rows := grade(3, entity.TestTypePre, questions, map[uint]int{1: 1, 2: 1})

	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 2, res.MaxScore)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsCorrect)
	assert.True(t, rows[1].IsCorrect)
	assert.Equal(t, uint(3), rows[0].UserID)
}

// blockingMailer задерживает отправку до release и отдает полученный контекст
type blockingMailer struct {
	release chan struct{}
	sent    chan context.Context
}

func (m *blockingMailer) SendPostTestCompleted(ctx context.Context, _ CompletionEmail) error {
	<-m.release
	m.sent <- ctx
	return nil
}

func TestAssessmentService_PostTestEmailOutlivesRequest(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{}), sent: make(chan context.Context, 1)}
	env := newTestEnv(t, withMailer(mailer))
	user := env.user(t, "background")
	env.seedBank(t, 0)
	recordN(t, env, user.ID, entity.EventModule, 3)
	recordN(t, env, user.ID, entity.EventQuiz, 2)
	ctx, cancel := context.WithCancel(context.Background())

	// Ответ возвращается, пока письмо еще не отправлено
	_, err := env.assessment.GradeAndRecord(ctx, user.ID, entity.TestTypePost, map[uint]int{1: 0})
	require.NoError(t, err)
	cancel()
	close(mailer.release)

	select {
	case mailCtx := <-mailer.sent:
		assert.NoError(t, mailCtx.Err(), "Отмена запроса не прерывает отправку")
		deadline, ok := mailCtx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(completionEmailTimeout), deadline, completionEmailTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("письмо не отправлено")
	}
	env.assessment.Wait()
}
