package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type received struct {
	userID string
	cmd    Command
}

// recordingSink, Sink olaylarını channel'lara yazar ve Connect'te
// transport'a bir karşılama mesajı bırakır.
type recordingSink struct {
	connected    chan Transport
	received     chan received
	disconnected chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		connected:    make(chan Transport, 4),
		received:     make(chan received, 16),
		disconnected: make(chan string, 4),
	}
}

func (s *recordingSink) Connect(userID string, t Transport) {
	t.Enqueue([]byte(`{"type":"solo_state_update","seq":1}`))
	s.connected <- t
}

func (s *recordingSink) Receive(userID string, _ Transport, cmd Command) {
	s.received <- received{userID: userID, cmd: cmd}
}

func (s *recordingSink) Disconnect(userID string, _ Transport) {
	s.disconnected <- userID
}

func startServer(t *testing.T, sink Sink, origins []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{user_id}", NewHandler(sink, origins, zap.NewNop().Sugar()).HandleConnection)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + userID
	return websocket.DefaultDialer.Dial(url, header)
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func TestHandler_RoundTrip(t *testing.T) {
	sink := newRecordingSink()
	srv := startServer(t, sink, []string{"*"})

	conn, _, err := dial(t, srv, "alice", nil)
	require.NoError(t, err)

	waitFor(t, sink.connected)

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeSoloStateUpdate, ev.Type)

	// Geçersiz mesaj düşer, bağlantı açık kalır; sonraki mesaj sırayla gelir.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"user_join","payload":{"name":"Alice"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"create_party"}`)))

	first := waitFor(t, sink.received)
	assert.Equal(t, "alice", first.userID)
	assert.Equal(t, UserJoin{Name: "Alice"}, first.cmd)
	assert.Equal(t, CreateParty{}, waitFor(t, sink.received).cmd)

	require.NoError(t, conn.Close())
	assert.Equal(t, "alice", waitFor(t, sink.disconnected))
}

func TestHandler_ServerCloseEndsConnection(t *testing.T) {
	sink := newRecordingSink()
	srv := startServer(t, sink, []string{"*"})

	conn, _, err := dial(t, srv, "bob", nil)
	require.NoError(t, err)
	defer conn.Close()

	tr := waitFor(t, sink.connected)
	tr.Close()
	assert.False(t, tr.Enqueue([]byte("{}")), "closed transport rejects sends")

	assert.Equal(t, "bob", waitFor(t, sink.disconnected))
}

func TestHandler_OriginCheck(t *testing.T) {
	sink := newRecordingSink()
	srv := startServer(t, sink, []string{"https://allowed.example"})

	_, resp, err := dial(t, srv, "eve", http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, "ada", http.Header{"Origin": {"https://allowed.example"}})
	require.NoError(t, err)
	conn.Close()
}

func TestHandler_RejectsOversizedUserID(t *testing.T) {
	srv := startServer(t, newRecordingSink(), []string{"*"})

	_, resp, err := dial(t, srv, strings.Repeat("x", maxUserIDLength+1), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
