package repository

import (
	"context"
	"time"
)

// CacheRepository — кеш JSON-значений с TTL (лидерборд, сводка прогресса)
type CacheRepository interface {
	Delete(ctx context.Context, keys ...string) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	// DeleteByPrefix удаляет все ключи с префиксом (SCAN, без блокировки Redis)
	DeleteByPrefix(ctx context.Context, prefix string) error
}
