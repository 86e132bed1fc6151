package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"example.com/inviter/internal/console"
	"example.com/inviter/internal/retry"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 60 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// Config — параметры клиента реле.
type Config struct {
	Endpoint  string // базовый URL (ws:// или wss://)
	Version   string // версия клиента, уходит в query и в уведомление об апдейте
	ClientID  string // постоянный идентификатор клиента (token)
	SessionID string // свежий идентификатор на процесс

	ConnectTimeout time.Duration // таймаут рукопожатия (0 = 10s)
	ReadTimeout    time.Duration // таймаут ожидания фрейма (0 = 60s)
	WriteTimeout   time.Duration // дедлайн записи (0 = 5s)

	// Сбрасывать ли backoff при чистом Close-фрейме. Поведение исходника —
	// не сбрасывать; оставлено настраиваемым.
	ResetOnClose bool
}

// Client держит один исходящий коннект к реле: супервизор Run гоняет
// попытки ConnectionSession с паузами Backoff между ними.
type Client struct {
	cfg     Config
	url     string
	con     *console.Console
	handler Handler
	backoff *retry.Backoff
	dialer  *websocket.Dialer

	reconnect bool // false на первой попытке, далее true

	browserOpen func(string) error // подмена в тестах; nil = internal/browser
}

// New собирает клиента и сразу строит URL подключения.
// Ошибка построения URL фатальна — дальше ехать некуда.
func New(cfg Config, con *console.Console, h Handler) (*Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	u, err := buildURL(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		url:     u,
		con:     con,
		handler: h,
		backoff: retry.New(),
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout},
	}, nil
}

// buildURL: <endpoint>/ws?v=<version>&token=<clientID>&session=<sessionID>
func buildURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("v", cfg.Version)
	q.Set("token", cfg.ClientID)
	q.Set("session", cfg.SessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// URL — итоговый адрес подключения (для логов и тестов).
func (c *Client) URL() string { return c.url }

// Run — внешний цикл: попытка соединения, классификация исхода, пауза,
// повтор. Возвращает nil после запроса выхода от Handler'а, ошибку
// контекста при отмене, либо ошибку консоли.
func (c *Client) Run(ctx context.Context) error {
	for {
		if c.reconnect {
			if err := c.con.Println("↪ Reconnecting to the server..."); err != nil {
				return err
			}
		}

		exit, err := c.attempt(ctx)
		if exit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, errRejected) {
			// errRejected уже отрисован классификатором
			if cerr := c.con.Errorln("☓ %v", err); cerr != nil {
				return cerr
			}
		}

		sec := c.backoff.Next()
		if err := c.con.Println("↪ Connection lost. Reconnecting in %d seconds...", int(sec.Seconds())); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sec):
		}
		c.reconnect = true
	}
}

// attempt — одна попытка: Connecting → Connected → Reading → Closed/Failed.
// (true, nil) — Handler запросил выход; (false, nil) — чистый Close;
// (false, err) — любая ошибка попытки.
func (c *Client) attempt(ctx context.Context) (bool, error) {
	log.Debug().Str("url", c.url).Bool("reconnect", c.reconnect).Msg("dialing relay")

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if isTimeout(err) {
			return false, fmt.Errorf("connection timed out to the server: %w", err)
		}
		return false, c.classifyHandshake(resp, err)
	}
	defer conn.Close()

	// разбудить ReadMessage при отмене контекста
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	var msg string
	if c.reconnect {
		msg = "✓ Reconnected!"
	} else {
		msg = "✓ Connected to the server!"
	}
	if err := c.con.Println(msg); err != nil {
		return false, err
	}
	c.backoff.Reset()

	w := NewWriter(conn, c.cfg.WriteTimeout)

	// ping → немедленный pong тем же payload'ом; живой сервер сбрасывает
	// backoff и продлевает дедлайн чтения
	conn.SetPingHandler(func(payload string) error {
		if err := w.control(websocket.PongMessage, []byte(payload)); err != nil {
			return fmt.Errorf("failed to send pong message to the server: %w", err)
		}
		c.backoff.Reset()
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	return c.readLoop(ctx, conn, w)
}

// readLoop обрабатывает фреймы строго по порядку прихода; диспетчеризация
// в Handler последовательная, двух сообщений в обработке одновременно
// не бывает.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, w *Writer) (bool, error) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		mt, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			switch {
			case errors.As(err, &ce):
				// чистое закрытие; супервизор всё равно уйдёт в retry
				log.Debug().Int("code", ce.Code).Msg("server closed the connection")
				if c.cfg.ResetOnClose {
					c.backoff.Reset()
				}
				return false, nil
			case ctx.Err() != nil:
				return false, ctx.Err()
			case isTimeout(err):
				return false, fmt.Errorf("connection timed out: %w", err)
			default:
				return false, fmt.Errorf("failed to receive message from the server: %w", err)
			}
		}

		if mt != websocket.TextMessage {
			// бинарные и прочие фреймы протокол не использует
			continue
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return false, fmt.Errorf("failed to parse server message: %w", err)
		}
		log.Debug().Str("type", msg.Type).Msg("server message")

		exit, err := c.handler.HandleMessage(ctx, &msg, w)
		if err != nil {
			return false, err
		}
		c.backoff.Reset()
		if exit {
			return true, nil
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
