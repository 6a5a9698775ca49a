package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/metrics"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service/engagement"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// MaxMinutesPerEntry — верхняя граница одной отметки времени обучения (сутки)
const MaxMinutesPerEntry = 1440

const recentActivityLimit = 5

// ProgressService считает сводку журнала и допуск к пост-тесту
type ProgressService struct {
	userRepo       repository.UserRepository
	engagementRepo repository.EngagementRepository
	cacheRepo      repository.CacheRepository
	evaluator      *engagement.Evaluator
	log            *logger.Logger
}

// NewProgressService создает новый сервис прогресса
func NewProgressService(
	userRepo repository.UserRepository,
	engagementRepo repository.EngagementRepository,
	cacheRepo repository.CacheRepository,
	evaluator *engagement.Evaluator,
	log *logger.Logger,
) *ProgressService {
	return &ProgressService{
		userRepo:       userRepo,
		engagementRepo: engagementRepo,
		cacheRepo:      cacheRepo,
		evaluator:      evaluator,
		log:            log.With("component", "ProgressService"),
	}
}

// Aggregate возвращает количество записей журнала по типам и сумму очков.
// TotalPoints берется из кешированного счетчика пользователя, а не из журнала.
func (s *ProgressService) Aggregate(ctx context.Context, userID uint) (*engagement.Aggregate, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.engagementRepo.CountByEventType(ctx, userID)
	if err != nil {
		return nil, persistenceError("count engagement log", err)
	}
	return &engagement.Aggregate{
		CountsByEventType: counts,
		TotalPoints:       user.EngagementPoints,
	}, nil
}

// VerifyLedger сверяет кешированный счетчик с суммой очков журнала
func (s *ProgressService) VerifyLedger(ctx context.Context, userID uint) (*dto.LedgerCheckResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.engagementRepo.SumPoints(ctx, userID)
	if err != nil {
		return nil, persistenceError("sum engagement log", err)
	}

	res := &dto.LedgerCheckResponse{
		UserID:       userID,
		CachedPoints: user.EngagementPoints,
		LedgerPoints: sum,
		Consistent:   sum == user.EngagementPoints,
	}
	if !res.Consistent {
		s.log.Error("engagement ledger drift detected", "userID", userID, "cached", user.EngagementPoints, "ledger", sum)
	}
	return res, nil
}

// EvaluatePostTestEligibility оценивает допуск пользователя к пост-тесту
func (s *ProgressService) EvaluatePostTestEligibility(ctx context.Context, userID uint) (engagement.Result, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return engagement.Result{}, err
	}

	var counts map[entity.EventType]int64
	// Счетчики нужны только в состояниях IN_PROGRESS/ELIGIBLE
	if user.ProfileCompleted && !user.HasCompletedPostTest() {
		counts, err = s.engagementRepo.CountByEventType(ctx, userID)
		if err != nil {
			return engagement.Result{}, persistenceError("count engagement log", err)
		}
	}

	res := s.evaluator.Evaluate(snapshotFor(user, counts))
	metrics.EligibilityEvaluated(string(res.State))
	return res, nil
}

// AddTimeSpent добавляет минуты к суммарному времени обучения
func (s *ProgressService) AddTimeSpent(ctx context.Context, userID uint, minutes int) error {
	if minutes < 0 || minutes > MaxMinutesPerEntry {
		return fmt.Errorf("%w: minutes must be between 0 and %d", apperrors.ErrValidation, MaxMinutesPerEntry)
	}
	if err := s.userRepo.IncrementTimeSpent(ctx, userID, minutes); err != nil {
		return persistenceError("increment time spent", err)
	}
	s.dropDashboard(ctx, userID)
	return nil
}

// Dashboard собирает сводку для пользователя; части читаются параллельно.
// Результат кешируется на короткое время и сбрасывается при новой активности.
func (s *ProgressService) Dashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error) {
	key := dashboardCacheKey(userID)
	var cached dto.DashboardResponse
	if err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.log.Warn("dashboard cache read failed", "userID", userID, "error", err)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		counts map[entity.EventType]int64
		recent []entity.EngagementLog
		rank   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.engagementRepo.CountByEventType(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = s.engagementRepo.ListByUser(gctx, userID, recentActivityLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		rank, err = s.userRepo.GetRank(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceError("load dashboard", err)
	}

	eligibility := s.evaluator.Evaluate(snapshotFor(user, counts))

	recentDTOs := make([]*dto.ActivityEntryDTO, len(recent))
	for i := range recent {
		recentDTOs[i] = dto.NewActivityEntryDTO(&recent[i])
	}

	table := engagement.PointsTable()
	pointsTable := make(map[string]int, len(table))
	for k, v := range table {
		pointsTable[string(k)] = v
	}

	resp := &dto.DashboardResponse{
		User:           dto.NewUserResponse(user),
		Summary:        &engagement.Aggregate{CountsByEventType: counts, TotalPoints: user.EngagementPoints},
		Eligibility:    eligibility,
		RecentActivity: recentDTOs,
		Rank:           rank,
		PointsTable:    pointsTable,
	}

	if err := s.cacheRepo.SetJSON(ctx, key, resp, dashboardCacheTTL); err != nil {
		s.log.Warn("dashboard cache write failed", "userID", userID, "error", err)
	}
	return resp, nil
}

func (s *ProgressService) getUser(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}
		return nil, persistenceError("get user", err)
	}
	return user, nil
}

func (s *ProgressService) dropDashboard(ctx context.Context, userID uint) {
	if err := s.cacheRepo.Delete(ctx, dashboardCacheKey(userID)); err != nil {
		s.log.Warn("failed to drop dashboard cache", "userID", userID, "error", err)
	}
}

// snapshotFor собирает входные данные оценщика из пользователя и счетчиков журнала
func snapshotFor(user *entity.User, counts map[entity.EventType]int64) engagement.Snapshot {
	agg := &engagement.Aggregate{CountsByEventType: counts, TotalPoints: user.EngagementPoints}
	return engagement.Snapshot{
		ProfileCompleted:    user.ProfileCompleted,
		PreTestScore:        user.PreTestScore,
		PostTestScore:       user.PostTestScore,
		PostTestMaxScore:    user.PostTestMaxScore,
		PostTestCompletedAt: user.PostTestCompletedAt,
		Metrics: engagement.Metrics{
			EngagementPoints:      user.EngagementPoints,
			ModulesCompleted:      agg.Count(entity.EventModule),
			QuizzesCompleted:      agg.Count(entity.EventQuiz),
			VideosWatched:         agg.Count(entity.EventVideo),
			GamesPlayed:           agg.Count(entity.EventGame),
			TotalTimeSpentMinutes: user.TotalTimeSpentMinutes,
		},
	}
}
