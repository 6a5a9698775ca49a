package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	authService *service.AuthService
	userService *service.UserService
	log         *logger.Logger
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(authService *service.AuthService, userService *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		log:         log.With("component", "UserHandler"),
	}
}

// GetMe возвращает текущего пользователя
// GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// CompleteProfile заполняет профиль и выбирает трек обучения
// PUT /api/users/me/profile
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.CompleteProfile(c.Request.Context(), userID, service.ProfileInput{
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Organization: req.Organization,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// GetLeaderboard обрабатывает запрос на получение лидерборда
// GET /api/leaderboard?page=1&pageSize=10
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 10)

	leaderboard, err := h.userService.GetLeaderboard(c.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, leaderboard)
}
