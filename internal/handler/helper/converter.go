package helper

import (
	"strconv"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text.
// ID — 0-based индекс, совпадающий с индексом правильного ответа в БД.
func ConvertOptionsToObjects(options []string) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		converted[i] = QuestionOption{ID: i, Text: opt}
	}
	return converted
}

// ParseAnswerKeys преобразует ключи вида "12" в ID вопросов.
// Нечисловые и нулевые ключи пропускаются; возвращает количество пропущенных.
func ParseAnswerKeys(answers map[string]int) (map[uint]int, int) {
	parsed := make(map[uint]int, len(answers))
	skipped := 0
	for key, selected := range answers {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			skipped++
			continue
		}
		parsed[uint(id)] = selected
	}
	return parsed, skipped
}
