package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedSessionPrefix = "session:revoked:"

// SessionRepo хранит отозванные сессии до истечения их срока
type SessionRepo struct {
	client redis.UniversalClient
}

// NewSessionRepo создает новый репозиторий отозванных сессий
func NewSessionRepo(client redis.UniversalClient) (*SessionRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for SessionRepo")
	}
	return &SessionRepo{client: client}, nil
}

// Revoke помечает сессию отозванной. Уже истекшие сессии не сохраняются.
func (r *SessionRepo) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedSessionPrefix+sessionID, 1, ttl).Err()
}

// IsRevoked проверяет, отозвана ли сессия
func (r *SessionRepo) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
