package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/event"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// ProfileInput — данные заполнения профиля
type ProfileInput struct {
	Role         string
	FirstName    string
	LastName     string
	Organization string
}

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo  repository.UserRepository
	cacheRepo repository.CacheRepository
	publisher event.Publisher
	log       *logger.Logger
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	publisher event.Publisher,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		publisher: publisher,
		log:       log.With("component", "UserService"),
	}
}

// CompleteProfile заполняет профиль и выбирает трек обучения.
// Роль admin пользователь выбрать не может.
func (s *UserService) CompleteProfile(ctx context.Context, userID uint, input ProfileInput) (*entity.User, error) {
	input.Role = strings.TrimSpace(strings.ToLower(input.Role))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Organization = strings.TrimSpace(input.Organization)

	if !entity.IsLearnerRole(input.Role) {
		return nil, fmt.Errorf("%w: role must be one of kid, adult, professional", apperrors.ErrValidation)
	}
	if input.FirstName == "" {
		return nil, fmt.Errorf("%w: first name is required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError("get user", err)
	}
	if user.IsAdmin() {
		return nil, fmt.Errorf("%w: administrators have no learner profile", apperrors.ErrForbidden)
	}

	updates := map[string]interface{}{
		"role":              input.Role,
		"first_name":        input.FirstName,
		"last_name":         input.LastName,
		"organization":      input.Organization,
		"profile_completed": true,
	}
	firstCompletion := !user.ProfileCompleted
	if firstCompletion {
		updates["profile_completed_at"] = time.Now()
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, persistenceError("update profile", err)
	}

	if err := s.cacheRepo.Delete(ctx, dashboardCacheKey(userID)); err != nil {
		s.log.Warn("failed to drop dashboard cache", "userID", userID, "error", err)
	}
	if firstCompletion {
		err := s.publisher.Publish(ctx, event.ProfileCompleted, map[string]interface{}{"userId": userID, "role": input.Role})
		if err != nil {
			s.log.Warn("failed to publish profile event", "userID", userID, "error", err)
		}
	}

	return s.userRepo.GetByID(ctx, userID)
}

// GetLeaderboard возвращает пагинированный список пользователей для лидерборда.
// Страницы кешируются в Redis; кеш сбрасывается при начислении очков.
func (s *UserService) GetLeaderboard(ctx context.Context, page, pageSize int) (*dto.PaginatedLeaderboardResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	key := leaderboardCacheKey(page, pageSize)

	var cached dto.PaginatedLeaderboardResponse
	if err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.log.Warn("leaderboard cache read failed", "error", err)
	}

	offset := (page - 1) * pageSize
	entries, total, err := s.userRepo.GetLeaderboard(ctx, pageSize, offset)
	if err != nil {
		return nil, persistenceError("get leaderboard", err)
	}

	userDTOs := make([]*dto.LeaderboardUserDTO, len(entries))
	for i, e := range entries {
		userDTOs[i] = &dto.LeaderboardUserDTO{
			Rank:             int(e.Rank),
			UserID:           e.ID,
			Username:         e.Username,
			Role:             e.Role,
			EngagementPoints: e.EngagementPoints,
		}
	}

	response := &dto.PaginatedLeaderboardResponse{
		Users:   userDTOs,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}

	if err := s.cacheRepo.SetJSON(ctx, key, response, leaderboardCacheTTL); err != nil {
		s.log.Warn("leaderboard cache write failed", "error", err)
	}
	return response, nil
}
