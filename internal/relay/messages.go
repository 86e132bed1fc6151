package relay

import (
	"context"
	"encoding/json"
)

// ServerMessage — JSON-конверт сообщения от сервера-реле. Содержимое
// data для клиента непрозрачно: его разбирает Handler.
type ServerMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Handler — подключаемая бизнес-логика реакции на сообщения.
// Возврат (true, nil) означает "сервер попросил завершить процесс":
// супервизор выходит из цикла без дальнейших переподключений.
// Ошибка завершает текущую попытку соединения и уходит в backoff+retry.
type Handler interface {
	HandleMessage(ctx context.Context, msg *ServerMessage, w *Writer) (exit bool, err error)
}

// HandlerFunc — адаптер функции под Handler.
type HandlerFunc func(ctx context.Context, msg *ServerMessage, w *Writer) (bool, error)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg *ServerMessage, w *Writer) (bool, error) {
	return f(ctx, msg, w)
}
