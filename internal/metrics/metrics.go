// Package metrics содержит счетчики Prometheus, которые отдает /metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Записи журнала активности по типу события
	activityRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireedu_activity_recorded_total",
			Help: "Total number of engagement log entries by event type",
		},
		[]string{"event_type"},
	)

	// Начисленные очки вовлеченности
	pointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireedu_engagement_points_awarded_total",
			Help: "Total engagement points awarded by event type",
		},
		[]string{"event_type"},
	)

	// Сданные тесты
	testsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireedu_tests_submitted_total",
			Help: "Total number of graded pre/post tests",
		},
		[]string{"test_type"},
	)

	// Процент правильных ответов на тест
	testScoreRatio = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fireedu_test_score_ratio",
			Help:    "Score divided by max score for graded tests",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"test_type"},
	)

	// Проверки допуска к пост-тесту по итоговому состоянию
	eligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireedu_eligibility_checks_total",
			Help: "Post-test eligibility evaluations by resulting state",
		},
		[]string{"state"},
	)

	// Подключенные WebSocket клиенты
	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fireedu_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fireedu_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ActivityRecorded учитывает новую запись журнала
func ActivityRecorded(eventType string, points int) {
	activityRecorded.WithLabelValues(eventType).Inc()
	pointsAwarded.WithLabelValues(eventType).Add(float64(points))
}

// TestSubmitted учитывает оцененный тест
func TestSubmitted(testType string, score, maxScore int) {
	testsSubmitted.WithLabelValues(testType).Inc()
	if maxScore > 0 {
		testScoreRatio.WithLabelValues(testType).Observe(float64(score) / float64(maxScore))
	}
}

// EligibilityEvaluated учитывает проверку допуска
func EligibilityEvaluated(state string) {
	eligibilityChecks.WithLabelValues(state).Inc()
}

// WebsocketConnected и WebsocketDisconnected ведут gauge подключений
func WebsocketConnected()    { websocketClients.Inc() }
func WebsocketDisconnected() { websocketClients.Dec() }

// GinMiddleware измеряет длительность запросов по шаблону маршрута
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
