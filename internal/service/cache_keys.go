package service

import (
	"fmt"
	"time"
)

const (
	leaderboardCachePrefix = "leaderboard:"
	leaderboardCacheTTL    = 30 * time.Second
	dashboardCacheTTL      = 15 * time.Second
)

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("progress:dashboard:%d", userID)
}

func leaderboardCacheKey(page, pageSize int) string {
	return fmt.Sprintf("%s%d:%d", leaderboardCachePrefix, page, pageSize)
}
