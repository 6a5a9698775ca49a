package websocket

import (
	"context"
	"sync"

	"github.com/firewise/fireedu-api/pkg/logger"
)

// Hub хранит активные подключения, сгруппированные по пользователю.
// У одного пользователя может быть несколько вкладок (подключений).
type Hub struct {
	clients map[uint]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	metrics *HubMetrics
	log     *logger.Logger
}

// NewHub создает новый хаб
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    NewHubMetrics(),
		log:        log.With("component", "WebSocketHub"),
	}
}

// Run обслуживает регистрацию клиентов до отмены контекста или вызова Close
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("websocket hub started")
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.done:
			h.shutdown()
			return
		}
	}
}

// Close останавливает хаб и закрывает все подключения
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Register добавляет клиента. false, если хаб уже остановлен.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser кладет сообщение во все подключения пользователя.
// Возвращает число подключений, которым сообщение доставлено в буфер.
func (h *Hub) SendToUser(userID uint, messageType string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients[userID] {
		if client.enqueue(message) {
			sent++
			h.metrics.MessageSent(messageType)
		} else {
			h.metrics.MessageDropped()
			h.log.Warn("websocket client buffer full, message dropped",
				"userID", userID, "connID", client.ConnectionID, "type", messageType)
		}
	}
	return sent
}

// ClientCount возвращает количество активных подключений
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// IsOnline проверяет, есть ли у пользователя активные подключения
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Metrics возвращает метрики хаба
func (h *Hub) Metrics() *HubMetrics {
	return h.metrics
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.log.Debug("websocket client registered", "userID", client.UserID, "connID", client.ConnectionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.UserID]
	if ok {
		if _, exists := conns[client]; !exists {
			ok = false
		} else {
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		client.CloseSend()
		h.metrics.ConnectionClosed()
		h.log.Debug("websocket client unregistered", "userID", client.UserID, "connID", client.ConnectionID)
	}
}

func (h *Hub) shutdown() {
	h.Close()

	h.mu.Lock()
	var all []*Client
	for _, conns := range h.clients {
		for client := range conns {
			all = append(all, client)
		}
	}
	h.clients = make(map[uint]map[*Client]struct{})
	h.mu.Unlock()

	for _, client := range all {
		client.CloseSend()
		h.metrics.ConnectionClosed()
	}
	h.log.Info("websocket hub stopped", "closedClients", len(all))
}
