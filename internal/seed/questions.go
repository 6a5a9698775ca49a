// Package seed загружает банк вопросов оценки из YAML.
package seed

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

type questionFile struct {
	Questions []questionDoc `yaml:"questions"`
}

type questionDoc struct {
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correct_answer"`
	Category      string   `yaml:"category"`
	Difficulty    string   `yaml:"difficulty"`
	ForRoles      []string `yaml:"for_roles"`
	Inactive      bool     `yaml:"inactive"`
}

// ParseQuestions читает и проверяет вопросы. Ошибка указывает номер вопроса (с 1).
func ParseQuestions(r io.Reader) ([]entity.AssessmentQuestion, error) {
	var doc questionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	questions := make([]entity.AssessmentQuestion, 0, len(doc.Questions))
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d: empty text", i+1)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d: at least 2 options required", i+1)
		}
		for _, role := range q.ForRoles {
			if !entity.IsLearnerRole(role) {
				return nil, fmt.Errorf("question %d: unknown role %q", i+1, role)
			}
		}

		category := q.Category
		if category == "" {
			category = "general"
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = "medium"
		}

		question := entity.AssessmentQuestion{
			Question:      q.Question,
			Options:       datatypes.JSONSlice[string](q.Options),
			CorrectAnswer: q.CorrectAnswer,
			Category:      category,
			Difficulty:    difficulty,
			ForRoles:      datatypes.JSONSlice[string](q.ForRoles),
			IsActive:      !q.Inactive,
		}
		if !question.IsValidOption(q.CorrectAnswer) {
			return nil, fmt.Errorf("question %d: correct_answer %d out of range", i+1, q.CorrectAnswer)
		}
		questions = append(questions, question)
	}
	return questions, nil
}
