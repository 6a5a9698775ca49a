package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// ProgressHandler отдает сводки прогресса и допуск к пост-тесту
type ProgressHandler struct {
	progressService *service.ProgressService
	log             *logger.Logger
}

// NewProgressHandler создает новый обработчик прогресса
func NewProgressHandler(progressService *service.ProgressService, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		log:             log.With("component", "ProgressHandler"),
	}
}

// AddTimeSpent добавляет минуты обучения
// POST /api/progress/time
func (h *ProgressHandler) AddTimeSpent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.TimeSpentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Нечисловое значение минут — ошибка валидации, а не формата запроса
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "minutes must be an integer between 0 and 1440"})
		return
	}

	if err := h.progressService.AddTimeSpent(c.Request.Context(), userID, *req.Minutes); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// Summary возвращает агрегат очков и счетчики событий
// GET /api/progress/summary
func (h *ProgressHandler) Summary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	agg, err := h.progressService.Aggregate(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// Dashboard возвращает сводку для главной страницы
// GET /api/progress/dashboard
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	dashboard, err := h.progressService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Eligibility проверяет допуск к пост-тесту
// GET /api/post-test/eligibility
func (h *ProgressHandler) Eligibility(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.progressService.EvaluatePostTestEligibility(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LedgerCheck сверяет кешированный счетчик очков пользователя с журналом
// GET /api/admin/users/:id/ledger-check
func (h *ProgressHandler) LedgerCheck(c *gin.Context) {
	userID := c.MustGet("targetUserID").(uint)

	check, err := h.progressService.VerifyLedger(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	if !check.Consistent {
		h.log.Warn("ledger drift detected", "userID", userID,
			"cachedPoints", check.CachedPoints, "ledgerPoints", check.LedgerPoints)
	}
	c.JSON(http.StatusOK, check)
}
