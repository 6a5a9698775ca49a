package dto

import (
	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/handler/helper"
)

// SubmitTestRequest — ответы на тест: ID вопроса (строкой) -> индекс варианта
type SubmitTestRequest struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

// AssessmentQuestionResponse — вопрос без правильного ответа
type AssessmentQuestionResponse struct {
	ID         uint                    `json:"id"`
	Question   string                  `json:"question"`
	Options    []helper.QuestionOption `json:"options"`
	Category   string                  `json:"category"`
	Difficulty string                  `json:"difficulty"`
}

// NewAssessmentQuestionResponse создает DTO вопроса
func NewAssessmentQuestionResponse(q *entity.AssessmentQuestion) AssessmentQuestionResponse {
	return AssessmentQuestionResponse{
		ID:         q.ID,
		Question:   q.Question,
		Options:    helper.ConvertOptionsToObjects(q.Options),
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// QuestionListResponse — вопросы теста
type QuestionListResponse struct {
	TestType  string                       `json:"testType"`
	Questions []AssessmentQuestionResponse `json:"questions"`
}

// GapResponse — пробелы в знаниях по категориям
type GapResponse struct {
	TestType   string        `json:"testType"`
	Categories []CategoryGap `json:"categories"`
}

// CategoryGap — статистика по категории
type CategoryGap struct {
	Category     string `json:"category"`
	Answered     int64  `json:"answered"`
	Incorrect    int64  `json:"incorrect"`
	CorrectRatio int    `json:"correctPercent"`
}
