package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/firewise/fireedu-api/pkg/logger"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests — максимальное количество запросов за Window
	MaxRequests int
	// Window — временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix — префикс для ключей в Redis
	KeyPrefix string
}

// StrictAuthRateLimitConfig — строгий лимит для login/register (защита от brute-force)
func StrictAuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 5,
		Window:      1 * time.Minute,
		KeyPrefix:   "rl:auth:strict",
	}
}

// ActivityRateLimitConfig ограничивает запись активности одним пользователем
func ActivityRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 120,
		Window:      1 * time.Minute,
		KeyPrefix:   "rl:activity",
	}
}

// RateLimiter создаёт middleware для rate limiting на основе Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	log         *logger.Logger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient, log *logger.Logger) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, log: log.With("component", "RateLimiter")}
}

// Limit ограничивает запросы по IP + шаблону маршрута
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rl.apply(c, cfg, fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, c.ClientIP(), path))
	}
}

// LimitByUser ограничивает запросы аутентифицированного пользователя.
// Должен применяться ПОСЛЕ RequireAuth; без пользователя считает по IP.
func (rl *RateLimiter) LimitByUser(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if userID, ok := UserIDFromContext(c); ok {
			subject = fmt.Sprintf("user:%d", userID)
		}
		rl.apply(c, cfg, fmt.Sprintf("%s:%s", cfg.KeyPrefix, subject))
	}
}

// windowScript атомарно увеличивает счетчик окна и возвращает {count, pttl}.
// TTL выставляется первым запросом окна, поэтому ключ не может остаться без срока жизни.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := windowScript.Run(ctx, rl.redisClient, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}
	count, _ := res[0].(int64)
	pttl, _ := res[1].(int64)
	return count, time.Duration(pttl) * time.Millisecond, nil
}

func (rl *RateLimiter) apply(c *gin.Context, cfg RateLimitConfig, key string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	count, ttl, err := rl.hit(ctx, key, cfg.Window)
	if err != nil {
		// Недоступный Redis не должен блокировать обучение (fail-open)
		rl.log.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
		c.Next()
		return
	}

	remaining := int64(cfg.MaxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	reset := int64(ttl.Seconds())
	if ttl <= 0 {
		reset = int64(cfg.Window.Seconds())
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

	if count > int64(cfg.MaxRequests) {
		rl.log.Warn("rate limit exceeded", "key", key, "count", count, "limit", cfg.MaxRequests)
		c.Header("Retry-After", strconv.FormatInt(reset, 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
		return
	}

	c.Next()
}
