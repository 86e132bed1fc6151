package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/inviter/internal/console"
	"example.com/inviter/internal/relay"
)

type fakeController struct {
	inviteURL string
	inviteErr error
	cancelled []string
}

func (f *fakeController) RunCallbacks() {}
func (f *fakeController) CreateInvite(ctx context.Context, guestID string) (string, error) {
	if f.inviteErr != nil {
		return "", f.inviteErr
	}
	return f.inviteURL, nil
}
func (f *fakeController) CancelInvite(ctx context.Context, guestID string) error {
	f.cancelled = append(f.cancelled, guestID)
	return nil
}
func (f *fakeController) Close() error { return nil }

func newTestHandler(f *fakeController) (*InviteHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	con := console.NewWithSinks(&buf, &buf, false)
	return New(f, con), &buf
}

// echoWriter — живой relay.Writer поверх тестового ws-сервера,
// складывающего полученные текстовые фреймы в канал.
func echoWriter(t *testing.T) (*relay.Writer, <-chan []byte) {
	t.Helper()
	up := websocket.Upgrader{}
	received := make(chan []byte, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return relay.NewWriter(conn, time.Second), received
}

func msg(typ, data string) *relay.ServerMessage {
	m := &relay.ServerMessage{Type: typ}
	if data != "" {
		m.Data = json.RawMessage(data)
	}
	return m
}

func TestInviteRepliesWithLink(t *testing.T) {
	h, buf := newTestHandler(&fakeController{inviteURL: "steam://remoteplay/join/abc"})
	w, received := echoWriter(t)

	exit, err := h.HandleMessage(context.Background(), msg("invite", `{"guest":"g1"}`), w)
	require.NoError(t, err)
	assert.False(t, exit)

	select {
	case data := <-received:
		var reply relay.ServerMessage
		require.NoError(t, json.Unmarshal(data, &reply))
		assert.Equal(t, "invite", reply.Type)
		assert.JSONEq(t, `{"guest":"g1","url":"steam://remoteplay/join/abc"}`, string(reply.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("no reply frame reached the server")
	}
	assert.Contains(t, buf.String(), "✓ Invite issued for guest g1")
}

func TestInviteSteamFailure(t *testing.T) {
	h, _ := newTestHandler(&fakeController{inviteErr: errors.New("steam is down")})
	w, _ := echoWriter(t)

	_, err := h.HandleMessage(context.Background(), msg("invite", `{"guest":"g1"}`), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create invite")
}

func TestInviteBadPayload(t *testing.T) {
	h, _ := newTestHandler(&fakeController{})

	_, err := h.HandleMessage(context.Background(), msg("invite", `{broken`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad invite payload")
}

func TestCancelInvite(t *testing.T) {
	f := &fakeController{}
	h, _ := newTestHandler(f)

	exit, err := h.HandleMessage(context.Background(), msg("cancel", `{"guest":"g2"}`), nil)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, []string{"g2"}, f.cancelled)
}

func TestServerNotice(t *testing.T) {
	h, buf := newTestHandler(&fakeController{})

	_, err := h.HandleMessage(context.Background(), msg("message", `{"text":"maintenance at 18:00"}`), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "► maintenance at 18:00")
}

func TestExitRequested(t *testing.T) {
	h, _ := newTestHandler(&fakeController{})

	exit, err := h.HandleMessage(context.Background(), msg("exit", ""), nil)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestUnknownTypeSkipped(t *testing.T) {
	h, _ := newTestHandler(&fakeController{})

	exit, err := h.HandleMessage(context.Background(), msg("telemetry", `{}`), nil)
	require.NoError(t, err)
	assert.False(t, exit)
}
