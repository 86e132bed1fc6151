package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"example.com/inviter/internal/browser"
)

// errRejected — сервер отверг рукопожатие и причина уже показана
// пользователю; супервизор не печатает общую строку ошибки, но в
// backoff+retry всё равно уходит.
var errRejected = errors.New("connection rejected by the server")

// connError — структурированная ошибка из заголовка X-Error при 400:
// {"message":string|null,"error":{"type":"Outdated","required":...,"download":...}}
type connError struct {
	Message *string       `json:"message"`
	Error   connErrorKind `json:"error"`
}

type connErrorKind struct {
	Type     string `json:"type"`
	Required string `json:"required,omitempty"`
	Download string `json:"download,omitempty"`
}

// classifyHandshake превращает неудачное рукопожатие в понятный исход:
//   - 400 с распознанным X-Error — показать спец-уведомление, errRejected;
//   - 400 без/с кривым X-Error — общая ошибка соединения с причиной;
//   - другой HTTP-статус — ошибка с кодом;
//   - не-HTTP (DNS, reset и т.п.) — общая ошибка связности.
//
// Все исходы retryable: процесс не завершается.
func (c *Client) classifyHandshake(resp *http.Response, err error) error {
	if !errors.Is(err, websocket.ErrBadHandshake) || resp == nil {
		return fmt.Errorf("failed to connect to the server: %w", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	if rerr := c.renderRejection(resp); rerr != nil {
		return rerr
	}
	return errRejected
}

// renderRejection разбирает X-Error и рисует уведомление. Любая ошибка
// разбора возвращается наружу как общая ошибка соединения.
func (c *Client) renderRejection(resp *http.Response) error {
	header := resp.Header.Get("X-Error")
	if header == "" {
		return errors.New("connection refused without error message")
	}

	var ce connError
	if err := json.Unmarshal([]byte(header), &ce); err != nil {
		return fmt.Errorf("connection refused with invalid error message: %w", err)
	}

	switch ce.Error.Type {
	case "Outdated":
		notice := fmt.Sprintf("\n↑ Update required: %s to %s\n  Download: %s\n",
			c.cfg.Version, ce.Error.Required, ce.Error.Download)
		if err := c.con.Block(notice); err != nil {
			return err
		}
		// браузер — best effort, ссылка уже напечатана
		_ = c.openBrowser(ce.Error.Download)
	default:
		if ce.Message != nil {
			var b strings.Builder
			b.WriteString("\n☓ Connection error:\n")
			for _, line := range strings.Split(*ce.Message, "\n") {
				b.WriteString("  " + line + "\n")
			}
			if err := c.con.Block(b.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// openBrowser вынесен в поле для подмены в тестах.
func (c *Client) openBrowser(url string) error {
	if c.browserOpen != nil {
		return c.browserOpen(url)
	}
	return browser.Open(url)
}
