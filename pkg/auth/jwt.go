package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// Ошибки проверки сессии
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token validation failed")
	ErrSessionRevoked = errors.New("session revoked")
)

// RevocationStore хранит отозванные сессии (реализация — redis.SessionRepo)
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SessionClaims содержит пользовательские поля токена сессии.
// ID (jti) идентифицирует сессию для отзыва при выходе.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin возвращает true для администратора
func (c *SessionClaims) IsAdmin() bool {
	return c.Role == entity.RoleAdmin
}

// JWTService выпускает и проверяет подписанные токены сессий (HMAC-SHA256)
type JWTService struct {
	secret     []byte
	ttl        time.Duration
	issuer     string
	revocation RevocationStore
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, ttl time.Duration, issuer string, revocation RevocationStore) (*JWTService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	if revocation == nil {
		return nil, fmt.Errorf("RevocationStore is required for JWTService")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secret:     []byte(secret),
		ttl:        ttl,
		issuer:     issuer,
		revocation: revocation,
	}, nil
}

// TTL возвращает срок жизни сессии
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken выпускает токен новой сессии для пользователя
func (s *JWTService) GenerateToken(user *entity.User) (string, *SessionClaims, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken проверяет подпись, срок действия и отзыв сессии
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrTokenInvalid
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// RevokeSession отзывает сессию до истечения её срока
func (s *JWTService) RevokeSession(ctx context.Context, claims *SessionClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocation.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
