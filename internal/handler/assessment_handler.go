package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/handler/helper"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// AssessmentHandler обрабатывает пре-/пост-тесты
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	log               *logger.Logger
}

// NewAssessmentHandler создает новый обработчик тестов
func NewAssessmentHandler(assessmentService *service.AssessmentService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		log:               log.With("component", "AssessmentHandler"),
	}
}

// Questions возвращает вопросы теста для роли пользователя, без правильных ответов
// GET /api/assessment/questions?testType=preTest
func (h *AssessmentHandler) Questions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	testType, ok := h.testTypeFromQuery(c)
	if !ok {
		return
	}

	resp, err := h.assessmentService.ListQuestions(c.Request.Context(), userID, testType)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitPreTest проверяет и сохраняет пре-тест
// POST /api/assessment/pre-test
func (h *AssessmentHandler) SubmitPreTest(c *gin.Context) {
	h.submit(c, entity.TestTypePre)
}

// SubmitPostTest проверяет и сохраняет пост-тест
// POST /api/assessment/post-test
func (h *AssessmentHandler) SubmitPostTest(c *gin.Context) {
	h.submit(c, entity.TestTypePost)
}

func (h *AssessmentHandler) submit(c *gin.Context, testType entity.TestType) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers, skipped := helper.ParseAnswerKeys(req.Answers)
	if skipped > 0 {
		h.log.Debug("non-numeric answer keys ignored", "userID", userID, "skipped", skipped)
	}

	result, err := h.assessmentService.GradeAndRecord(c.Request.Context(), userID, testType, answers)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Gaps возвращает статистику ошибок по категориям
// GET /api/assessment/gaps?testType=preTest
func (h *AssessmentHandler) Gaps(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	testType, ok := h.testTypeFromQuery(c)
	if !ok {
		return
	}

	resp, err := h.assessmentService.GapAnalysis(c.Request.Context(), userID, testType)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AssessmentHandler) testTypeFromQuery(c *gin.Context) (entity.TestType, bool) {
	testType := entity.TestType(c.DefaultQuery("testType", string(entity.TestTypePre)))
	if !testType.IsValid() {
		handleError(c, h.log, fmt.Errorf("%w: testType must be preTest or postTest", apperrors.ErrValidation))
		return "", false
	}
	return testType, true
}
