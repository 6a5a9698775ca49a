package engagement

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Thresholds — пороги допуска к пост-тесту. Общие для всех пользователей.
type Thresholds struct {
	MinEngagementPoints int64 `json:"minEngagementPoints"`
	MinModulesCompleted int64 `json:"minModulesCompleted"`
	MinQuizzesCompleted int64 `json:"minQuizzesCompleted"`
}

// PostTestThresholds возвращает пороги допуска к пост-тесту
func PostTestThresholds() Thresholds {
	return Thresholds{
		MinEngagementPoints: 50,
		MinModulesCompleted: 3,
		MinQuizzesCompleted: 2,
	}
}

// State — состояние пользователя на пути к пост-тесту
type State string

const (
	StateIncompleteProfile State = "INCOMPLETE_PROFILE"
	StateInProgress        State = "IN_PROGRESS"
	StateEligible          State = "ELIGIBLE"
	StateCompleted         State = "COMPLETED"
)

// ReasonIncompleteProfile — причина отказа при незаполненном профиле
const ReasonIncompleteProfile = "complete profile first"

// Metrics — текущие показатели пользователя
type Metrics struct {
	EngagementPoints      int64 `json:"engagementPoints"`
	ModulesCompleted      int64 `json:"modulesCompleted"`
	QuizzesCompleted      int64 `json:"quizzesCompleted"`
	VideosWatched         int64 `json:"videosWatched"`
	GamesPlayed           int64 `json:"gamesPlayed"`
	TotalTimeSpentMinutes int64 `json:"totalTimeSpentMinutes"`
}

// Progress — процент выполнения по каждому порогу, не больше 100
type Progress struct {
	EngagementPoints int `json:"engagementPoints"`
	ModulesCompleted int `json:"modulesCompleted"`
	QuizzesCompleted int `json:"quizzesCompleted"`
}

// Snapshot — всё, что нужно для оценки допуска, без обращения к хранилищу
type Snapshot struct {
	ProfileCompleted    bool
	PreTestScore        *int
	PostTestScore       *int
	PostTestMaxScore    *int
	PostTestCompletedAt *time.Time
	Metrics             Metrics
}

// Result — итог оценки допуска
type Result struct {
	State            State      `json:"status"`
	Eligible         bool       `json:"eligible"`
	AlreadyCompleted bool       `json:"alreadyCompleted"`
	Reason           string     `json:"reason"`
	Requirements     Thresholds `json:"requirements"`
	Current          Metrics    `json:"current"`
	Progress         Progress   `json:"progress"`
	PreTestScore     *int       `json:"preTestScore"`
	PostTestScore    *int       `json:"postTestScore,omitempty"`
	PostTestMaxScore *int       `json:"postTestMaxScore,omitempty"`
}

// Evaluator оценивает допуск к пост-тесту по фиксированным порогам
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator создает новый экземпляр Evaluator
func NewEvaluator(thresholds Thresholds) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Thresholds возвращает пороги оценщика
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate проходит шаги конечного автомата:
// профиль -> завершённый пост-тест -> пороги.
func (e *Evaluator) Evaluate(s Snapshot) Result {
	res := Result{
		Requirements: e.thresholds,
		PreTestScore: s.PreTestScore,
	}

	if !s.ProfileCompleted {
		res.State = StateIncompleteProfile
		res.Reason = ReasonIncompleteProfile
		return res
	}

	// Пост-тест сдан: прогресс не пересчитываем
	if s.PostTestScore != nil {
		res.State = StateCompleted
		res.AlreadyCompleted = true
		res.PostTestScore = s.PostTestScore
		res.PostTestMaxScore = s.PostTestMaxScore
		return res
	}

	m := s.Metrics
	res.Current = m
	res.Progress = Progress{
		EngagementPoints: percent(m.EngagementPoints, e.thresholds.MinEngagementPoints),
		ModulesCompleted: percent(m.ModulesCompleted, e.thresholds.MinModulesCompleted),
		QuizzesCompleted: percent(m.QuizzesCompleted, e.thresholds.MinQuizzesCompleted),
	}

	var missing []string
	if d := e.thresholds.MinEngagementPoints - m.EngagementPoints; d > 0 {
		missing = append(missing, fmt.Sprintf("%d more engagement points", d))
	}
	if d := e.thresholds.MinModulesCompleted - m.ModulesCompleted; d > 0 {
		missing = append(missing, fmt.Sprintf("%d more modules", d))
	}
	if d := e.thresholds.MinQuizzesCompleted - m.QuizzesCompleted; d > 0 {
		missing = append(missing, fmt.Sprintf("%d more quizzes", d))
	}

	if len(missing) == 0 {
		res.State = StateEligible
		res.Eligible = true
		return res
	}

	res.State = StateInProgress
	res.Reason = "You need " + strings.Join(missing, ", ")
	return res
}

// percent возвращает min(100, round(current/threshold*100))
func percent(current, threshold int64) int {
	if threshold <= 0 {
		return 100
	}
	if current <= 0 {
		return 0
	}
	p := math.Round(float64(current) / float64(threshold) * 100)
	if p > 100 {
		return 100
	}
	return int(p)
}
