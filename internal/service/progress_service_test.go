package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service/engagement"
)

func recordN(t *testing.T, env *testEnv, userID uint, et entity.EventType, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := env.activity.Record(context.Background(), userID, et, nil)
		require.NoError(t, err)
	}
}

func TestProgressService_Aggregate_CountsNotPoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "agg")
	recordN(t, env, user.ID, entity.EventModule, 3)
	recordN(t, env, user.ID, entity.EventQuiz, 1)

	agg, err := env.progress.Aggregate(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), agg.Count(entity.EventModule))
	assert.Equal(t, int64(1), agg.Count(entity.EventQuiz))
	assert.Equal(t, int64(0), agg.Count(entity.EventVideo))
	assert.Equal(t, int64(45), agg.TotalPoints)
}

func TestProgressService_Aggregate_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.progress.Aggregate(context.Background(), 77)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProgressService_Eligibility_IncompleteProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "noprofile")
	require.NoError(t, env.db.Model(user).Update("profile_completed", false).Error)
	recordN(t, env, user.ID, entity.EventModule, 5)

	res, err := env.progress.EvaluatePostTestEligibility(context.Background(), user.ID)

	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, engagement.StateIncompleteProfile, res.State)
	assert.Equal(t, "complete profile first", res.Reason)
	assert.Equal(t, engagement.Progress{}, res.Progress)
}

func TestProgressService_Eligibility_OneQuizShort(t *testing.T) {
	// Arrange: 3 модуля (30) + 1 квиз (15) + 3 видео (15) = 60 очков
	env := newTestEnv(t)
	user := env.user(t, "almost")
	recordN(t, env, user.ID, entity.EventModule, 3)
	recordN(t, env, user.ID, entity.EventQuiz, 1)
	recordN(t, env, user.ID, entity.EventVideo, 3)

	// Act
	res, err := env.progress.EvaluatePostTestEligibility(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, engagement.StateInProgress, res.State)
	assert.Contains(t, res.Reason, "1 more quizzes")
	assert.Equal(t, int64(60), res.Current.EngagementPoints)
	assert.Equal(t, int64(3), res.Current.VideosWatched)
	assert.Equal(t, 50, res.Progress.QuizzesCompleted)
	assert.Equal(t, 100, res.Progress.EngagementPoints)
}

func TestProgressService_Eligibility_Eligible(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ready")
	recordN(t, env, user.ID, entity.EventModule, 3)
	recordN(t, env, user.ID, entity.EventQuiz, 2)

	res, err := env.progress.EvaluatePostTestEligibility(context.Background(), user.ID)

	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Equal(t, engagement.StateEligible, res.State)
	assert.Empty(t, res.Reason)
}

func TestProgressService_Eligibility_AlreadyCompleted(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "done")
	ctx := context.Background()
	require.NoError(t, env.userRepo.SetTestResult(ctx, nil, user.ID, repository.TestResult{
		TestType: entity.TestTypePost, Score: 8, MaxScore: 10, CompletedAt: time.Now(),
	}))

	res, err := env.progress.EvaluatePostTestEligibility(ctx, user.ID)

	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, engagement.StateCompleted, res.State)
	require.NotNil(t, res.PostTestScore)
	assert.Equal(t, 8, *res.PostTestScore)
	assert.Equal(t, engagement.Progress{}, res.Progress, "Прогресс не пересчитывается")
}

func TestProgressService_AddTimeSpent(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		wantErr error
	}{
		{name: "zero", minutes: 0},
		{name: "regular", minutes: 45},
		{name: "full day", minutes: 1440},
		{name: "negative", minutes: -1, wantErr: apperrors.ErrValidation},
		{name: "over a day", minutes: 1441, wantErr: apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			user := env.user(t, "timer")

			err := env.progress.AddTimeSpent(context.Background(), user.ID, tt.minutes)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, int64(0), env.reload(t, user.ID).TotalTimeSpentMinutes)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(tt.minutes), env.reload(t, user.ID).TotalTimeSpentMinutes)
		})
	}
}

func TestProgressService_AddTimeSpent_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.progress.AddTimeSpent(context.Background(), 9, 10), apperrors.ErrNotFound)
}

func TestProgressService_VerifyLedger_DetectsDrift(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "drift")
	recordN(t, env, user.ID, entity.EventQuiz, 1)
	// Прямое изменение счетчика в обход журнала
	require.NoError(t, env.db.Exec("UPDATE users SET engagement_points = 100 WHERE id = ?", user.ID).Error)

	check, err := env.progress.VerifyLedger(context.Background(), user.ID)

	require.NoError(t, err)
	assert.False(t, check.Consistent)
	assert.Equal(t, int64(100), check.CachedPoints)
	assert.Equal(t, int64(15), check.LedgerPoints)
}

func TestProgressService_Dashboard(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	user := env.user(t, "dash")
	other := env.user(t, "leader")
	recordN(t, env, user.ID, entity.EventModule, 2)
	recordN(t, env, other.ID, entity.EventQuiz, 3)

	// Act
	resp, err := env.progress.Dashboard(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, int64(20), resp.Summary.TotalPoints)
	assert.Equal(t, int64(2), resp.Rank)
	assert.Len(t, resp.RecentActivity, 2)
	assert.Equal(t, engagement.StateInProgress, resp.Eligibility.State)
	assert.Equal(t, 10, resp.PointsTable["module"])
	env.cache.AssertCalled(t, "SetJSON", mock.Anything, dashboardCacheKey(user.ID), mock.Anything, dashboardCacheTTL)
}

func TestProgressService_Dashboard_CacheHit(t *testing.T) {
	env := newTestEnv(t)
	env.cache.ExpectedCalls = nil
	env.cache.On("GetJSON", mock.Anything, dashboardCacheKey(5), mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*dto.DashboardResponse)
			dest.Rank = 42
		}).
		Return(nil)

	resp, err := env.progress.Dashboard(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Rank, "Ответ берется из кеша без обращения к БД")
}
