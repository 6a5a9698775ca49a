package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/pkg/auth"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// RegisterInput — данные регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session — выпущенная сессия: токен для cookie и его claims
type Session struct {
	User   *entity.User
	Token  string
	Claims *auth.SessionClaims
}

// ActivityRecorder записывает событие в журнал активности
type ActivityRecorder interface {
	Record(ctx context.Context, userID uint, eventType entity.EventType, metadata map[string]interface{}) (*entity.EngagementLog, error)
}

// AuthService предоставляет методы для регистрации, входа и выхода
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	activity   ActivityRecorder
	log        *logger.Logger
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	activity ActivityRecorder,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		activity:   activity,
		log:        log.With("component", "AuthService"),
	}
}

// Register создает пользователя и сразу открывает для него сессию.
// Новый пользователь получает роль adult и незаполненный профиль.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if input.Username == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", apperrors.ErrValidation)
	}
	if len(input.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperrors.ErrValidation)
	}

	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	_, err = s.userRepo.GetByUsername(ctx, input.Username)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this username already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}

	user := &entity.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Role:     entity.RoleAdult,
	}
	// Повторная проверка уникальности на уровне БД (ErrConflict при гонке)
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "userID", user.ID)
	return s.openSession(user)
}

// Login проверяет пароль и открывает сессию.
// Событие login записывается в журнал без влияния на результат входа.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, persistenceError("get user", err)
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if entry, err := s.activity.Record(ctx, user.ID, entity.EventLogin, nil); err != nil {
		s.log.Warn("failed to record login activity", "userID", user.ID, "error", err)
	} else {
		user.EngagementPoints += int64(entry.Points)
	}

	return s.openSession(user)
}

// Logout отзывает текущую сессию
func (s *AuthService) Logout(ctx context.Context, claims *auth.SessionClaims) error {
	if err := s.jwtService.RevokeSession(ctx, claims); err != nil {
		return persistenceError("revoke session", err)
	}
	return nil
}

// ValidateSession проверяет токен сессии
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.SessionClaims, error) {
	claims, err := s.jwtService.ParseToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return claims, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistenceError("get user", err)
	}
	return user, nil
}

func (s *AuthService) openSession(user *entity.User) (*Session, error) {
	token, claims, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
