package websocket

import (
	"sync"
	"time"

	"github.com/firewise/fireedu-api/internal/metrics"
)

// HubMetrics представляет агрегированные метрики WebSocket-хаба.
// Gauge подключений дублируется в Prometheus.
type HubMetrics struct {
	totalConnections  int64
	activeConnections int64
	messagesSent      int64
	messagesReceived  int64
	messagesDropped   int64
	startTime         time.Time

	messageTypeCounts map[string]int64

	mu sync.RWMutex
}

// NewHubMetrics создает новый экземпляр метрик хаба
func NewHubMetrics() *HubMetrics {
	return &HubMetrics{
		startTime:         time.Now(),
		messageTypeCounts: make(map[string]int64),
	}
}

// ConnectionOpened увеличивает счетчики подключений
func (m *HubMetrics) ConnectionOpened() {
	m.mu.Lock()
	m.totalConnections++
	m.activeConnections++
	m.mu.Unlock()
	metrics.WebsocketConnected()
}

// ConnectionClosed уменьшает счетчик активных подключений
func (m *HubMetrics) ConnectionClosed() {
	m.mu.Lock()
	if m.activeConnections > 0 {
		m.activeConnections--
	}
	m.mu.Unlock()
	metrics.WebsocketDisconnected()
}

// MessageSent учитывает отправленное сообщение по его типу
func (m *HubMetrics) MessageSent(messageType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent++
	m.messageTypeCounts[messageType]++
}

// MessageReceived учитывает входящее сообщение
func (m *HubMetrics) MessageReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesReceived++
}

// MessageDropped учитывает сообщение, не поместившееся в буфер клиента
func (m *HubMetrics) MessageDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesDropped++
}

// Snapshot возвращает копию метрик для /healthz
func (m *HubMetrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]int64, len(m.messageTypeCounts))
	for k, v := range m.messageTypeCounts {
		byType[k] = v
	}
	return map[string]interface{}{
		"total_connections":  m.totalConnections,
		"active_connections": m.activeConnections,
		"messages_sent":      m.messagesSent,
		"messages_received":  m.messagesReceived,
		"messages_dropped":   m.messagesDropped,
		"message_types":      byType,
		"uptime_seconds":     int64(time.Since(m.startTime).Seconds()),
	}
}
