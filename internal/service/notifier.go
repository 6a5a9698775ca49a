package service

// Типы живых событий, отправляемых пользователю
const (
	LiveEngagementUpdated = "engagement:updated"
	LiveTestCompleted     = "test:completed"
)

// Notifier доставляет живые обновления подключенным клиентам пользователя.
// Реализация — websocket.Manager.
type Notifier interface {
	NotifyUser(userID uint, eventType string, data interface{})
}

// NoopNotifier ничего не отправляет
type NoopNotifier struct{}

func (NoopNotifier) NotifyUser(userID uint, eventType string, data interface{}) {}
