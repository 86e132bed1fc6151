package steam

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	callTimeout  = 10 * time.Second
	startTimeout = 5 * time.Second
	quitTimeout  = 2 * time.Second
)

var errHelperGone = errors.New("steam helper is not running")

// wireReq / wireResp — строки ndjson через stdio хелпера. Ответ несёт
// seq запроса; события приходят без seq, с заполненным event.
type wireReq struct {
	Seq  uint32 `json:"seq"`
	Op   string `json:"op"`
	Data any    `json:"data,omitempty"`
}

type wireResp struct {
	Seq   uint32          `json:"seq,omitempty"`
	Event string          `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client — IPC-клиент процесса-хелпера. Запросы матчатся с ответами
// по seq; бесхозные события копятся в очереди до RunCallbacks.
type Client struct {
	cmd *exec.Cmd
	in  io.WriteCloser

	seq    uint32
	mu     sync.Mutex // cbs
	wmu    sync.Mutex // сериализует запись в pipe
	cbs    map[uint32]chan wireResp
	events chan wireResp
	dead   chan struct{} // закрывается, когда труба хелпера умерла
	closed atomic.Bool

	// OnEvent зовётся из RunCallbacks, то есть из горутины Poller'а.
	OnEvent func(name string, data json.RawMessage)
}

// Start запускает хелпер и проверяет связь запросом init.
func Start(path string) (*Client, error) {
	cmd := exec.Command(path)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open helper stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open helper stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start steam helper: %w", err)
	}

	c := newClient(in, out)
	c.cmd = cmd

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if _, err := c.call(ctx, "init", nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("steam helper did not respond: %w", err)
	}
	return c, nil
}

// newClient — клиент поверх готовых труб (тесты подсовывают io.Pipe).
func newClient(in io.WriteCloser, out io.Reader) *Client {
	c := &Client{
		in:     in,
		cbs:    make(map[uint32]chan wireResp),
		events: make(chan wireResp, 64),
		dead:   make(chan struct{}),
	}
	go c.readLoop(out)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var resp wireResp
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Warn().Err(err).Msg("steam helper: malformed line")
			continue
		}
		if resp.Seq != 0 {
			c.mu.Lock()
			ch, ok := c.cbs[resp.Seq]
			if ok {
				delete(c.cbs, resp.Seq)
			}
			c.mu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}
		if resp.Event != "" {
			select {
			case c.events <- resp:
			default:
				log.Warn().Str("event", resp.Event).Msg("steam helper: event queue full, dropped")
			}
		}
	}
	// труба закрылась — хелпер умер; ожидающие вызовы отвалятся по dead
	c.closed.Store(true)
	close(c.dead)
}

// call — запрос/ответ по seq, как промис с таймаутом.
func (c *Client) call(ctx context.Context, op string, data any) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, errHelperGone
	}
	seq := atomic.AddUint32(&c.seq, 1)
	ch := make(chan wireResp, 1)
	c.mu.Lock()
	c.cbs[seq] = ch
	c.mu.Unlock()

	drop := func() {
		c.mu.Lock()
		delete(c.cbs, seq)
		c.mu.Unlock()
	}

	payload, err := json.Marshal(wireReq{Seq: seq, Op: op, Data: data})
	if err != nil {
		drop()
		return nil, err
	}
	c.wmu.Lock()
	_, werr := c.in.Write(append(payload, '\n'))
	c.wmu.Unlock()
	if werr != nil {
		drop()
		return nil, fmt.Errorf("failed to send request to steam helper: %w", werr)
	}

	select {
	case r := <-ch:
		if r.Error != "" {
			return nil, errors.New(r.Error)
		}
		return r.Data, nil
	case <-c.dead:
		drop()
		return nil, errHelperGone
	case <-ctx.Done():
		drop()
		return nil, ctx.Err()
	case <-time.After(callTimeout):
		drop()
		return nil, errors.New("timeout waiting for steam helper response")
	}
}

// RunCallbacks раздаёт накопившиеся события. Неблокирующий: пустая
// очередь — сразу выход.
func (c *Client) RunCallbacks() {
	for {
		select {
		case ev := <-c.events:
			if c.OnEvent != nil {
				c.OnEvent(ev.Event, ev.Data)
			}
		default:
			return
		}
	}
}

// CreateInvite выпускает ссылку-приглашение для гостя.
func (c *Client) CreateInvite(ctx context.Context, guestID string) (string, error) {
	data, err := c.call(ctx, "createInvite", map[string]string{"guest": guestID})
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("bad createInvite response: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("steam helper returned empty invite url")
	}
	return out.URL, nil
}

// CancelInvite отзывает приглашение гостя.
func (c *Client) CancelInvite(ctx context.Context, guestID string) error {
	_, err := c.call(ctx, "cancelInvite", map[string]string{"guest": guestID})
	return err
}

// Close просит хелпер завершиться и при необходимости добивает его.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.wmu.Lock()
	_, _ = c.in.Write([]byte(`{"op":"quit"}` + "\n"))
	c.wmu.Unlock()
	_ = c.in.Close()

	if c.cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(quitTimeout):
		_ = c.cmd.Process.Kill()
		return <-done
	}
}
