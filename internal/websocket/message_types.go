package websocket

// Служебные типы сообщений WebSocket.
// Доменные события (engagement:updated, test:completed) задает сервисный слой.
const (
	// SERVER_WELCOME отправляется сразу после подключения
	SERVER_WELCOME = "server:welcome"

	// SERVER_ERROR сообщает клиенту об ошибке обработки его сообщения
	SERVER_ERROR = "server:error"

	// CLIENT_PING — прикладной ping от клиента (помимо протокольного)
	CLIENT_PING = "client:ping"

	// SERVER_PONG — ответ на CLIENT_PING
	SERVER_PONG = "server:pong"
)
