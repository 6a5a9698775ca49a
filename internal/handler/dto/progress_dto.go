package dto

import (
	"github.com/firewise/fireedu-api/internal/service/engagement"
)

// DashboardResponse — сводка для главной страницы обучающегося
type DashboardResponse struct {
	User           *UserResponse         `json:"user"`
	Summary        *engagement.Aggregate `json:"summary"`
	Eligibility    engagement.Result     `json:"eligibility"`
	RecentActivity []*ActivityEntryDTO   `json:"recentActivity"`
	Rank           int64                 `json:"rank"`
	PointsTable    map[string]int        `json:"pointsTable"`
}

// LedgerCheckResponse — сверка кешированного счетчика с журналом
type LedgerCheckResponse struct {
	UserID       uint  `json:"userId"`
	CachedPoints int64 `json:"cachedPoints"`
	LedgerPoints int64 `json:"ledgerPoints"`
	Consistent   bool  `json:"consistent"`
}
