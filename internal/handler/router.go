package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/middleware"
)

// Handlers объединяет обработчики для регистрации маршрутов
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Activity   *ActivityHandler
	Progress   *ProgressHandler
	Assessment *AssessmentHandler
	Report     *ReportHandler
	WS         *WSHandler
	Health     *HealthHandler
}

// RegisterRoutes настраивает маршруты API.
// rateLimiter может быть nil (например, в тестах).
func RegisterRoutes(router *gin.Engine, h Handlers, authMW *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter) {
	limit := func(cfg middleware.RateLimitConfig, byUser bool) gin.HandlerFunc {
		if rateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		if byUser {
			return rateLimiter.LimitByUser(cfg)
		}
		return rateLimiter.Limit(cfg)
	}

	if h.Health != nil {
		router.GET("/healthz", h.Health.Healthz)
	}

	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", limit(middleware.StrictAuthRateLimitConfig(), false), h.Auth.Register)
			authGroup.POST("/login", limit(middleware.StrictAuthRateLimitConfig(), false), h.Auth.Login)
			authGroup.POST("/logout", authMW.RequireAuth(), h.Auth.Logout)
		}

		api.GET("/leaderboard", h.User.GetLeaderboard)

		authed := api.Group("")
		authed.Use(authMW.RequireAuth())
		{
			authed.GET("/users/me", h.User.GetMe)
			authed.PUT("/users/me/profile", h.User.CompleteProfile)

			authed.POST("/activity", limit(middleware.ActivityRateLimitConfig(), true), h.Activity.LogActivity)
			authed.GET("/activity", h.Activity.History)

			authed.POST("/progress/time", limit(middleware.ActivityRateLimitConfig(), true), h.Progress.AddTimeSpent)
			authed.GET("/progress/summary", h.Progress.Summary)
			authed.GET("/progress/dashboard", h.Progress.Dashboard)
			authed.GET("/post-test/eligibility", h.Progress.Eligibility)

			authed.GET("/assessment/questions", h.Assessment.Questions)
			authed.POST("/assessment/pre-test", h.Assessment.SubmitPreTest)
			authed.POST("/assessment/post-test", h.Assessment.SubmitPostTest)
			authed.GET("/assessment/gaps", h.Assessment.Gaps)
		}

		admin := api.Group("/admin")
		admin.Use(authMW.RequireAuth(), authMW.AdminOnly())
		{
			admin.GET("/reports/assessments", h.Report.ExportAssessments)
			admin.GET("/users/:id/ledger-check", middleware.ExtractUintParam("id", "targetUserID"), h.Progress.LedgerCheck)
		}
	}

	if h.WS != nil {
		router.GET("/ws", authMW.RequireAuth(), h.WS.HandleConnection)
	}
}
