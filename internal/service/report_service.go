package service

import (
	"context"
	"time"

	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// AssessmentReportRow — строка отчета по пре-/пост-тестам
type AssessmentReportRow struct {
	UserID                uint
	Username              string
	Email                 string
	Role                  string
	Organization          string
	EngagementPoints      int64
	TotalTimeSpentMinutes int64
	PreTestScore          *int
	PreTestMaxScore       *int
	PostTestScore         *int
	PostTestMaxScore      *int
	PostTestCompletedAt   *time.Time
}

// Improvement возвращает прирост результата пост-теста над пре-тестом в процентных пунктах.
// ok=false, если один из тестов не сдан.
func (r AssessmentReportRow) Improvement() (points int, ok bool) {
	if r.PreTestScore == nil || r.PostTestScore == nil ||
		r.PreTestMaxScore == nil || r.PostTestMaxScore == nil ||
		*r.PreTestMaxScore == 0 || *r.PostTestMaxScore == 0 {
		return 0, false
	}
	pre := *r.PreTestScore * 100 / *r.PreTestMaxScore
	post := *r.PostTestScore * 100 / *r.PostTestMaxScore
	return post - pre, true
}

// ReportService готовит данные административных отчетов
type ReportService struct {
	userRepo repository.UserRepository
	log      *logger.Logger
}

// NewReportService создает новый сервис отчетов
func NewReportService(userRepo repository.UserRepository, log *logger.Logger) *ReportService {
	return &ReportService{userRepo: userRepo, log: log.With("component", "ReportService")}
}

// AssessmentReport возвращает строки отчета для всех обучающихся
func (s *ReportService) AssessmentReport(ctx context.Context) ([]AssessmentReportRow, error) {
	users, err := s.userRepo.ListForReport(ctx)
	if err != nil {
		return nil, persistenceError("list users for report", err)
	}

	rows := make([]AssessmentReportRow, len(users))
	for i, u := range users {
		rows[i] = AssessmentReportRow{
			UserID:                u.ID,
			Username:              u.Username,
			Email:                 u.Email,
			Role:                  u.Role,
			Organization:          u.Organization,
			EngagementPoints:      u.EngagementPoints,
			TotalTimeSpentMinutes: u.TotalTimeSpentMinutes,
			PreTestScore:          u.PreTestScore,
			PreTestMaxScore:       u.PreTestMaxScore,
			PostTestScore:         u.PostTestScore,
			PostTestMaxScore:      u.PostTestMaxScore,
			PostTestCompletedAt:   u.PostTestCompletedAt,
		}
	}
	s.log.Info("assessment report prepared", "rows", len(rows))
	return rows, nil
}
