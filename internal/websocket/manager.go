package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/firewise/fireedu-api/pkg/logger"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager обрабатывает WebSocket сообщения и доставляет события пользователям
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
	log            *logger.Logger
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub, log *logger.Logger) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
		log:            log.With("component", "WebSocketManager"),
	}
	m.RegisterHandler(CLIENT_PING, func(_ json.RawMessage, client *Client) error {
		return m.sendToClient(client, Event{Type: SERVER_PONG, Data: map[string]string{"connectionId": client.ConnectionID}})
	})
	return m
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
}

// Hub возвращает хаб менеджера
func (m *Manager) Hub() *Hub {
	return m.hub
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}
	return handler(event.Data, client)
}

// Accept регистрирует новое подключение и приветствует клиента
func (m *Manager) Accept(client *Client) {
	if !client.Start(m.HandleMessage) {
		return
	}
	if err := m.sendToClient(client, Event{Type: SERVER_WELCOME, Data: map[string]interface{}{
		"userId":       client.UserID,
		"connectionId": client.ConnectionID,
	}}); err != nil {
		m.log.Warn("failed to send welcome", "userID", client.UserID, "error", err)
	}
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	errorEvent := Event{
		Type: SERVER_ERROR,
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := m.sendToClient(client, errorEvent); err != nil {
		m.log.Warn("failed to send error to client", "userID", client.UserID, "error", err)
	}
}

// SendEventToUser отправляет событие во все подключения пользователя.
// Возвращает число подключений, получивших событие.
func (m *Manager) SendEventToUser(userID uint, eventType string, data interface{}) (int, error) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal websocket event: %w", err)
	}
	return m.hub.SendToUser(userID, eventType, payload), nil
}

// NotifyUser доставляет доменное событие пользователю, если он онлайн.
// Ошибки только логируются: live-обновления не влияют на результат операции.
func (m *Manager) NotifyUser(userID uint, eventType string, data interface{}) {
	if !m.hub.IsOnline(userID) {
		return
	}
	sent, err := m.SendEventToUser(userID, eventType, data)
	if err != nil {
		m.log.Warn("failed to notify user", "userID", userID, "type", eventType, "error", err)
		return
	}
	m.log.Debug("user notified", "userID", userID, "type", eventType, "connections", sent)
}

func (m *Manager) sendToClient(client *Client, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if !client.enqueue(payload) {
		m.hub.metrics.MessageDropped()
		return fmt.Errorf("client %s buffer unavailable", client.ConnectionID)
	}
	m.hub.metrics.MessageSent(event.Type)
	return nil
}
