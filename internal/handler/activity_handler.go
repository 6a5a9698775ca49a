package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// ActivityHandler обрабатывает запись и просмотр журнала активности
type ActivityHandler struct {
	activityService *service.ActivityService
	log             *logger.Logger
}

// NewActivityHandler создает новый обработчик активности
func NewActivityHandler(activityService *service.ActivityService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		log:             log.With("component", "ActivityHandler"),
	}
}

// LogActivity записывает событие вовлеченности текущего пользователя
// POST /api/activity
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventType := entity.EventType(req.ActivityType)
	if eventType.IsAssessment() {
		handleError(c, h.log, fmt.Errorf("%w: %s is recorded by assessment submission", apperrors.ErrValidation, eventType))
		return
	}

	_, err := h.activityService.Record(c.Request.Context(), userID, eventType, req.Metadata)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// History возвращает журнал активности текущего пользователя
// GET /api/activity?page=1&pageSize=10
func (h *ActivityHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 10)

	resp, err := h.activityService.History(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
