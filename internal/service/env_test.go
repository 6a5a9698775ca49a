package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/pkg/testdb"
	"github.com/firewise/fireedu-api/internal/repository/postgres"
	"github.com/firewise/fireedu-api/internal/service/engagement"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// testEnv собирает сервисы на реальных репозиториях поверх SQLite в памяти
type testEnv struct {
	db             *gorm.DB
	userRepo       *postgres.UserRepo
	engagementRepo repository.EngagementRepository
	questionRepo   *postgres.QuestionRepo
	answerRepo     *postgres.AnswerRepo
	cache          *MockCacheRepository
	notifier       *MockNotifier
	publisher      *MockPublisher
	email          *MockEmailService
	mailer         EmailService
	activity       *ActivityService
	progress       *ProgressService
	assessment     *AssessmentService
}

type envOption func(*testEnv)

// withMailer подменяет сервис писем
func withMailer(mailer EmailService) envOption {
	return func(e *testEnv) {
		e.mailer = mailer
	}
}

// withFailingAppend подменяет запись в журнал на ошибку
func withFailingAppend(err error) envOption {
	return func(e *testEnv) {
		e.engagementRepo = &failingEngagementRepo{EngagementRepository: e.engagementRepo, err: err}
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := testdb.New(t)
	env := &testEnv{
		db:             db,
		userRepo:       postgres.NewUserRepo(db),
		engagementRepo: postgres.NewEngagementRepo(db),
		questionRepo:   postgres.NewQuestionRepo(db),
		answerRepo:     postgres.NewAnswerRepo(db),
		cache:          new(MockCacheRepository),
		notifier:       new(MockNotifier),
		publisher:      new(MockPublisher),
		email:          new(MockEmailService),
	}
	env.mailer = env.email
	for _, opt := range opts {
		opt(env)
	}

	// По умолчанию кеш пуст, побочные эффекты успешны
	env.cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrNotFound).Maybe()
	env.cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.cache.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.cache.On("DeleteByPrefix", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.notifier.On("NotifyUser", mock.Anything, mock.Anything, mock.Anything).Maybe()
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.email.On("SendPostTestCompleted", mock.Anything, mock.Anything).Return(nil).Maybe()

	log := logger.NewNop()
	env.activity = NewActivityService(db, env.userRepo, env.engagementRepo, env.cache, env.notifier, env.publisher, log)
	env.progress = NewProgressService(env.userRepo, env.engagementRepo, env.cache,
		engagement.NewEvaluator(engagement.PostTestThresholds()), log)
	env.assessment = NewAssessmentService(db, env.userRepo, env.questionRepo, env.answerRepo,
		env.activity, env.progress, env.mailer, env.publisher, env.notifier, log)
	return env
}

func (e *testEnv) user(t *testing.T, username string) *entity.User {
	t.Helper()
	return testdb.CreateUser(t, e.db, username)
}

func (e *testEnv) reload(t *testing.T, userID uint) *entity.User {
	t.Helper()
	user, err := e.userRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user
}

func (e *testEnv) ledgerSize(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.EngagementLog{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

// storedAnswers возвращает сохраненные ответы пользователя в порядке вопросов
func (e *testEnv) storedAnswers(t *testing.T, userID uint, testType entity.TestType) []entity.UserAnswer {
	t.Helper()
	var answers []entity.UserAnswer
	require.NoError(t, e.db.Where("user_id = ? AND test_type = ?", userID, testType).
		Order("question_id").Find(&answers).Error)
	return answers
}

// seedBank создает вопросы с ID 1..n; правильные ответы задаются списком
func (e *testEnv) seedBank(t *testing.T, correct ...int) []entity.AssessmentQuestion {
	t.Helper()
	questions := make([]entity.AssessmentQuestion, len(correct))
	for i, c := range correct {
		questions[i] = entity.AssessmentQuestion{
			Question:      "question",
			Options:       datatypes.JSONSlice[string]{"a", "b", "c", "d"},
			CorrectAnswer: c,
			Category:      "general",
			IsActive:      true,
		}
	}
	require.NoError(t, e.questionRepo.CreateBatch(context.Background(), questions))
	var stored []entity.AssessmentQuestion
	require.NoError(t, e.db.Order("id").Find(&stored).Error)
	return stored
}

// failingEngagementRepo возвращает ошибку при добавлении записи в журнал
type failingEngagementRepo struct {
	repository.EngagementRepository
	err error
}

func (r *failingEngagementRepo) Append(ctx context.Context, tx *gorm.DB, log *entity.EngagementLog) error {
	return r.err
}
