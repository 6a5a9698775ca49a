package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/firewise/fireedu-api/internal/websocket"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	manager  *websocket.Manager
	upgrader gorillaws.Upgrader
	log      *logger.Logger
}

// NewWSHandler создает новый обработчик WebSocket.
// Подключения из браузера принимаются только с разрешенных origin (те же, что для CORS).
func NewWSHandler(manager *websocket.Manager, allowedOrigins []string, log *logger.Logger) *WSHandler {
	h := &WSHandler{
		manager: manager,
		log:     log.With("component", "WSHandler"),
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Не браузерный клиент
			if origin == "" {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			h.log.Warn("websocket origin rejected", "origin", origin)
			return false
		},
	}
	return h
}

// HandleConnection поднимает WebSocket для аутентифицированного пользователя
// GET /ws
func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.Warn("websocket upgrade failed", "userID", userID, "error", err)
		return
	}

	h.manager.Accept(websocket.NewClient(h.manager.Hub(), conn, userID, h.log))
}
