package repository

import (
	"context"
	"time"
)

// SessionRepository хранит список отозванных сессий (logout)
type SessionRepository interface {
	// Revoke отзывает сессию до момента expiresAt
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
