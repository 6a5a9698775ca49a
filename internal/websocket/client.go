package websocket

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/firewise/fireedu-api/pkg/logger"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 512

	// Размер буфера канала отправки
	defaultClientBufferSize = 64
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// MessageHandler обрабатывает входящее сообщение клиента.
// Ошибка закрывает соединение.
type MessageHandler func(message []byte, client *Client) error

// Client является посредником между WebSocket соединением и hub.
type Client struct {
	// ID пользователя из сессии
	UserID uint

	// Уникальный ID для каждого соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// sendMu защищает закрытие send: проверка флага и отправка выполняются под одной блокировкой
	sendMu     sync.Mutex
	sendClosed bool

	log *logger.Logger
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, log *logger.Logger) *Client {
	connectionID := uuid.New().String()
	return &Client{
		UserID:       userID,
		ConnectionID: connectionID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
		log:          log.With("userID", userID, "connID", connectionID),
	}
}

// Start регистрирует клиента в хабе и запускает горутины чтения и записи
func (c *Client) Start(handler MessageHandler) bool {
	if !c.hub.Register(c) {
		c.log.Warn("websocket hub is stopped, closing connection")
		c.conn.Close()
		return false
	}
	go c.writePump()
	go c.readPump(handler)
	return true
}

// CloseSend безопасно закрывает канал send (только один раз).
// Возвращает true, если канал был закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	c.sendClosed = true
	close(c.send)
	return true
}

// enqueue кладет сообщение в буфер без блокировки.
// Возвращает false, если канал закрыт или буфер переполнен.
func (c *Client) enqueue(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(handler MessageHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		c.log.Debug("websocket read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read error", "error", err)
			}
			return
		}
		c.hub.metrics.MessageReceived()

		if err := c.safeHandle(message, handler); err != nil {
			c.log.Warn("websocket handler error, closing connection", "error", err)
			return
		}
	}
}

// safeHandle вызывает обработчик с recover
func (c *Client) safeHandle(message []byte, handler MessageHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in websocket handler", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	if handler == nil {
		return nil
	}
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	return handler(message, c)
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug("websocket write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
