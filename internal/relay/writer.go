package relay

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Writer — пишущая половина соединения. Запись строго через один
// мьютекс + write-deadline: Handler и ответ на ping могут писать
// конкурентно.
type Writer struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

// NewWriter оборачивает установленное соединение.
func NewWriter(conn *websocket.Conn, timeout time.Duration) *Writer {
	return &Writer{conn: conn, timeout: timeout}
}

// SendJSON отправляет v текстовым фреймом.
func (w *Writer) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message to the server: %w", err)
	}
	return nil
}

// control — управляющий фрейм (pong) под тем же мьютексом.
func (w *Writer) control(messageType int, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(messageType, payload, time.Now().Add(w.timeout))
}
