package wsconn

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/mahjong"
	"mahjongserver/internal/msgrouter"
	"mahjongserver/internal/room"
	"mahjongserver/internal/session"
	"mahjongserver/internal/ticket"
)

const hubTestSecret = "hub-test-secret"

type discardingSink struct{}

func (discardingSink) Publish(string, []mahjong.Event) {}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	games := gameservice.NewService(discardingSink{})
	rooms, err := room.NewManager(time.Hour, mahjong.DefaultSettings(), ticket.RoomSigner{Secret: hubTestSecret}, games)
	require.NoError(t, err)
	sessions := session.NewStore(nil)
	router := msgrouter.NewRouter(rooms, sessions, games, hubTestSecret, time.Hour, time.Hour)
	return NewHub(router)
}

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestHubRoundTripsPingPong(t *testing.T) {
	h := newTestHub(t)
	conn, cleanup := dialHub(t, h)
	defer cleanup()

	raw, err := msgpack.Marshal(map[string]any{"t": "PING"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, raw))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(body, &m))
	require.Equal(t, "pong", m["t"])
}

func TestHubRejectsMalformedFrame(t *testing.T) {
	h := newTestHub(t)
	conn, cleanup := dialHub(t, h)
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0xff, 0xff}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(body, &m))
	require.Equal(t, "session_error", m["t"])
}
