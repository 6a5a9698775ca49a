package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/event"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/metrics"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service/engagement"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// completionEmailTimeout ограничивает фоновую отправку письма о завершении
const completionEmailTimeout = 30 * time.Second

// EligibilityChecker оценивает допуск к пост-тесту
type EligibilityChecker interface {
	EvaluatePostTestEligibility(ctx context.Context, userID uint) (engagement.Result, error)
}

// GradeResult — итог теста
type GradeResult struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
}

// AssessmentService выдает вопросы, оценивает пре-/пост-тесты и строит анализ пробелов
type AssessmentService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	activity     *ActivityService
	eligibility  EligibilityChecker
	emailService EmailService
	publisher    event.Publisher
	notifier     Notifier
	log          *logger.Logger

	// Письма о завершении отправляются в фоне
	mailWG sync.WaitGroup
}

// NewAssessmentService создает новый сервис тестирования
func NewAssessmentService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	activity *ActivityService,
	eligibility EligibilityChecker,
	emailService EmailService,
	publisher event.Publisher,
	notifier Notifier,
	log *logger.Logger,
) *AssessmentService {
	return &AssessmentService{
		db:           db,
		userRepo:     userRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		activity:     activity,
		eligibility:  eligibility,
		emailService: emailService,
		publisher:    publisher,
		notifier:     notifier,
		log:          log.With("component", "AssessmentService"),
	}
}

// ListQuestions возвращает активные вопросы для роли пользователя.
// Правильные ответы в DTO не попадают.
func (s *AssessmentService) ListQuestions(ctx context.Context, userID uint, testType entity.TestType) (*dto.QuestionListResponse, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError("get user", err)
	}

	questions, err := s.questionRepo.ListActive(ctx)
	if err != nil {
		return nil, persistenceError("list questions", err)
	}

	resp := &dto.QuestionListResponse{
		TestType:  string(testType),
		Questions: make([]dto.AssessmentQuestionResponse, 0, len(questions)),
	}
	for i := range questions {
		if questions[i].AvailableFor(user.Role) {
			resp.Questions = append(resp.Questions, dto.NewAssessmentQuestionResponse(&questions[i]))
		}
	}
	return resp, nil
}

// GradeAndRecord оценивает ответы и сохраняет результат в одной транзакции:
// ответы, запись журнала с очками и итог теста в профиле.
// ID вопросов, которых нет в банке, пропускаются; MaxScore — число найденных вопросов.
func (s *AssessmentService) GradeAndRecord(ctx context.Context, userID uint, testType entity.TestType, answers map[uint]int) (*GradeResult, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: answers are required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError("get user", err)
	}
	if err := s.checkGate(ctx, user, testType); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("load questions", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: none of the submitted questions exist", apperrors.ErrValidation)
	}
	if dropped := len(answers) - len(questions); dropped > 0 {
		s.log.Warn("unknown question ids dropped from submission", "userID", userID, "testType", testType, "dropped", dropped)
	}

	result, rows := grade(userID, testType, questions, answers)
	completedAt := time.Now()

	var entry *entity.EngagementLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.answerRepo.CreateBatch(ctx, tx, rows); err != nil {
			return persistenceError("save answers", err)
		}
		var err error
		entry, err = s.activity.RecordTx(ctx, tx, userID, testType.EventType(), map[string]interface{}{
			"score":    result.Score,
			"maxScore": result.MaxScore,
		})
		if err != nil {
			return err
		}
		return s.userRepo.SetTestResult(ctx, tx, userID, repository.TestResult{
			TestType:    testType,
			Score:       result.Score,
			MaxScore:    result.MaxScore,
			CompletedAt: completedAt,
		})
	})
	if err != nil {
		return nil, persistenceError("grade "+string(testType), err)
	}

	s.activity.AfterCommit(ctx, entry)
	s.afterGrade(ctx, user, testType, result)
	return result, nil
}

// checkGate: пре-тест сдается один раз; пост-тест — один раз и только при допуске
func (s *AssessmentService) checkGate(ctx context.Context, user *entity.User, testType entity.TestType) error {
	if testType == entity.TestTypePre {
		if user.HasCompletedPreTest() {
			return fmt.Errorf("%w: pre-test already completed", apperrors.ErrConflict)
		}
		return nil
	}

	if user.HasCompletedPostTest() {
		return fmt.Errorf("%w: post-test already completed", apperrors.ErrConflict)
	}
	res, err := s.eligibility.EvaluatePostTestEligibility(ctx, user.ID)
	if err != nil {
		return err
	}
	if res.AlreadyCompleted {
		return fmt.Errorf("%w: post-test already completed", apperrors.ErrConflict)
	}
	if !res.Eligible {
		return fmt.Errorf("%w: not eligible for post-test: %s", apperrors.ErrForbidden, res.Reason)
	}
	return nil
}

func (s *AssessmentService) afterGrade(ctx context.Context, user *entity.User, testType entity.TestType, result *GradeResult) {
	metrics.TestSubmitted(string(testType), result.Score, result.MaxScore)

	payload := map[string]interface{}{
		"userId":   user.ID,
		"testType": testType,
		"score":    result.Score,
		"maxScore": result.MaxScore,
	}
	s.notifier.NotifyUser(user.ID, LiveTestCompleted, payload)
	if err := s.publisher.Publish(ctx, event.TestCompleted, payload); err != nil {
		s.log.Warn("failed to publish test event", "userID", user.ID, "error", err)
	}

	if testType != entity.TestTypePost {
		return
	}
	msg := CompletionEmail{
		To:             user.Email,
		FirstName:      user.FirstName,
		Score:          result.Score,
		MaxScore:       result.MaxScore,
		IdempotencyKey: uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("post-test:%d", user.ID))).String(),
	}
	userID := user.ID
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		// Не привязан к контексту запроса: тот отменяется после ответа
		mailCtx, cancel := context.WithTimeout(context.Background(), completionEmailTimeout)
		defer cancel()
		if err := s.emailService.SendPostTestCompleted(mailCtx, msg); err != nil {
			s.log.Warn("failed to send post-test email", "userID", userID, "error", err)
		}
	}()
}

// Wait дожидается отправки фоновых писем
func (s *AssessmentService) Wait() {
	s.mailWG.Wait()
}

// GapAnalysis возвращает статистику ошибок по категориям для теста
func (s *AssessmentService) GapAnalysis(ctx context.Context, userID uint, testType entity.TestType) (*dto.GapResponse, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	gaps, err := s.answerRepo.GapsByCategory(ctx, userID, testType)
	if err != nil {
		return nil, persistenceError("gap analysis", err)
	}

	resp := &dto.GapResponse{TestType: string(testType), Categories: make([]dto.CategoryGap, len(gaps))}
	for i, g := range gaps {
		correct := 0
		if g.Answered > 0 {
			correct = int(math.Round(float64(g.Answered-g.Incorrect) / float64(g.Answered) * 100))
		}
		resp.Categories[i] = dto.CategoryGap{
			Category:     g.Category,
			Answered:     g.Answered,
			Incorrect:    g.Incorrect,
			CorrectRatio: correct,
		}
	}
	return resp, nil
}

// grade сравнивает выбранный индекс с правильным строго по индексу
func grade(userID uint, testType entity.TestType, questions []entity.AssessmentQuestion, answers map[uint]int) (*GradeResult, []entity.UserAnswer) {
	result := &GradeResult{MaxScore: len(questions)}
	rows := make([]entity.UserAnswer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		selected := answers[q.ID]
		correct := q.IsCorrect(selected)
		if correct {
			result.Score++
		}
		rows = append(rows, entity.UserAnswer{
			UserID:         userID,
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      correct,
			TestType:       testType,
		})
	}
	return result, rows
}
