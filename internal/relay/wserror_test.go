package relay

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/inviter/internal/console"
)

// rejectServer отвечает на рукопожатие заданным статусом и заголовками.
func rejectServer(t *testing.T, status int, xError string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xError != "" {
			w.Header().Set("X-Error", xError)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRejectionOutdated(t *testing.T) {
	srv := rejectServer(t, http.StatusBadRequest,
		`{"message":null,"error":{"type":"Outdated","required":"2.0","download":"http://x"}}`)

	c, buf := mustClient(t, wsURL(srv.URL), exitHandler())
	var opened []string
	c.browserOpen = func(u string) error {
		opened = append(opened, u)
		return nil
	}

	exit, err := c.attempt(context.Background())
	assert.False(t, exit)
	require.ErrorIs(t, err, errRejected)

	out := buf.String()
	assert.Contains(t, out, "↑ Update required: 1.0 to 2.0")
	assert.Contains(t, out, "Download: http://x")
	assert.Equal(t, []string{"http://x"}, opened)
}

func TestRejectionWithMessage(t *testing.T) {
	srv := rejectServer(t, http.StatusBadRequest,
		`{"message":"token revoked\ncontact support","error":{"type":"Banned"}}`)

	c, buf := mustClient(t, wsURL(srv.URL), exitHandler())
	_, err := c.attempt(context.Background())
	require.ErrorIs(t, err, errRejected)

	out := buf.String()
	assert.Contains(t, out, "☓ Connection error:")
	assert.Contains(t, out, "  token revoked")
	assert.Contains(t, out, "  contact support")
}

func TestRejectionWithoutMessage(t *testing.T) {
	srv := rejectServer(t, http.StatusBadRequest, `{"message":null,"error":{"type":"Banned"}}`)

	c, buf := mustClient(t, wsURL(srv.URL), exitHandler())
	_, err := c.attempt(context.Background())
	// сообщение отсутствует — дополнительно ничего не рисуем
	require.ErrorIs(t, err, errRejected)
	assert.NotContains(t, buf.String(), "Connection error")
}

func TestRejectionWithoutHeader(t *testing.T) {
	srv := rejectServer(t, http.StatusBadRequest, "")

	c, _ := mustClient(t, wsURL(srv.URL), exitHandler())
	_, err := c.attempt(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "connection refused without error message")
}

func TestRejectionWithInvalidJSON(t *testing.T) {
	srv := rejectServer(t, http.StatusBadRequest, "not json at all")

	c, _ := mustClient(t, wsURL(srv.URL), exitHandler())
	_, err := c.attempt(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "connection refused with invalid error message")
}

func TestRejectionOtherHTTPStatus(t *testing.T) {
	srv := rejectServer(t, http.StatusForbidden, "")

	c, _ := mustClient(t, wsURL(srv.URL), exitHandler())
	_, err := c.attempt(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error: 403")
}

func TestNonHTTPFailure(t *testing.T) {
	var buf bytes.Buffer
	con := console.NewWithSinks(&buf, &buf, false)
	c, err := New(Config{
		Endpoint:  "ws://127.0.0.1:1", // закрытый порт
		Version:   "1.0",
		ClientID:  "cid",
		SessionID: "sid",
	}, con, exitHandler())
	require.NoError(t, err)

	_, err = c.attempt(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to the server")
}

func TestClassifyNilResponse(t *testing.T) {
	c, _ := mustClient(t, "ws://relay.example.net", exitHandler())
	err := c.classifyHandshake(nil, websocket.ErrBadHandshake)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to the server")
}
