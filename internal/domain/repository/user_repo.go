package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// TestResult — итог теста, записываемый в профиль пользователя
type TestResult struct {
	TestType    entity.TestType
	Score       int
	MaxScore    int
	CompletedAt time.Time
}

// LeaderboardEntry — строка лидерборда. Rank = 1 + число обучающихся с большим количеством очков,
// поэтому равные очки делят место.
type LeaderboardEntry struct {
	ID               uint
	Username         string
	Role             string
	EngagementPoints int64
	Rank             int64 `gorm:"column:lb_rank"`
}

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint, updates map[string]interface{}) error

	// IncrementEngagementPoints атомарно увеличивает кешированный счетчик очков в транзакции tx.
	// Возвращает ErrNotFound, если пользователь не существует.
	IncrementEngagementPoints(ctx context.Context, tx *gorm.DB, userID uint, points int) error
	IncrementTimeSpent(ctx context.Context, userID uint, minutes int) error

	// SetTestResult записывает результат теста в транзакции tx
	SetTestResult(ctx context.Context, tx *gorm.DB, userID uint, result TestResult) error

	// GetLeaderboard возвращает обучающихся по убыванию очков с местами, пагинацией и общим количеством
	GetLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, int64, error)
	// GetRank возвращает место пользователя в лидерборде (с 1)
	GetRank(ctx context.Context, userID uint) (int64, error)
	// ListForReport возвращает всех обучающихся для выгрузки отчета
	ListForReport(ctx context.Context) ([]entity.User, error)
}
