package msgrouter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/mahjong"
	"mahjongserver/internal/room"
	"mahjongserver/internal/session"
	"mahjongserver/internal/ticket"
)

const testSecret = "router-test-secret"

type collectingSink struct {
	events []mahjong.Event
}

func (s *collectingSink) Publish(gameID string, events []mahjong.Event) {
	s.events = append(s.events, events...)
}

func newTestRouter(t *testing.T) (*Router, *gameservice.Service) {
	t.Helper()
	games := gameservice.NewService(&collectingSink{})
	rooms, err := room.NewManager(time.Hour, mahjong.DefaultSettings(), ticket.RoomSigner{Secret: testSecret}, games)
	require.NoError(t, err)
	sessions := session.NewStore(nil)
	return NewRouter(rooms, sessions, games, testSecret, time.Hour, time.Hour), games
}

func signJoinTicket(t *testing.T, userID, username, roomID string) string {
	t.Helper()
	tok, err := ticket.SignTicket(ticket.GameTicket{
		UserID:    userID,
		Username:  username,
		RoomID:    roomID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)
	return tok
}

func encodeJoinRoom(t *testing.T, roomID, gameTicket string) []byte {
	t.Helper()
	raw, err := msgpack.Marshal(map[string]any{"t": "JOIN_ROOM", "room_id": roomID, "game_ticket": gameTicket})
	require.NoError(t, err)
	return raw
}

func decodeOne(t *testing.T, out []Outbound) map[string]any {
	t.Helper()
	require.Len(t, out, 1)
	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(out[0].Frame, &m))
	return m
}

func TestHandleMessageRejectsMalformedEnvelope(t *testing.T) {
	rt, _ := newTestRouter(t)
	out := rt.HandleMessage("conn-1", []byte{0xff, 0xff, 0xff})
	m := decodeOne(t, out)
	assert.Equal(t, string(TypeError), m["t"])
	assert.Equal(t, string(ErrInvalidMessage), m["code"])
}

func TestHandleMessageRejectsUnknownTag(t *testing.T) {
	rt, _ := newTestRouter(t)
	raw, err := msgpack.Marshal(map[string]any{"t": "NOT_A_THING"})
	require.NoError(t, err)
	out := rt.HandleMessage("conn-1", raw)
	m := decodeOne(t, out)
	assert.Equal(t, string(ErrInvalidMessage), m["code"])
}

func TestJoinRoomCreatesRoomForFirstPlayer(t *testing.T) {
	rt, _ := newTestRouter(t)
	tok := signJoinTicket(t, "user-1", "alice", "room_abc")

	out := rt.HandleMessage("conn-1", encodeJoinRoom(t, "room_abc", tok))
	require.Len(t, out, 1)
	m := decodeOne(t, []Outbound{out[0]})
	assert.Equal(t, string(TypeRoomJoined), m["t"])
	assert.Equal(t, "room_abc", m["room_id"])
	assert.Equal(t, "alice", m["player_name"])
}

func TestJoinRoomRejectsInvalidTicketSignature(t *testing.T) {
	rt, _ := newTestRouter(t)
	tok := signJoinTicket(t, "user-1", "alice", "room_abc")
	tok += "tampered"

	out := rt.HandleMessage("conn-1", encodeJoinRoom(t, "room_abc", tok))
	m := decodeOne(t, out)
	assert.Equal(t, string(ErrInvalidTicket), m["code"])
}

func TestJoinRoomRejectsTicketRoomMismatch(t *testing.T) {
	rt, _ := newTestRouter(t)
	tok := signJoinTicket(t, "user-1", "alice", "room_other")

	out := rt.HandleMessage("conn-1", encodeJoinRoom(t, "room_abc", tok))
	m := decodeOne(t, out)
	assert.Equal(t, string(ErrInvalidTicket), m["code"])
}

func TestJoinRoomSecondPlayerNotifiesFirst(t *testing.T) {
	rt, _ := newTestRouter(t)
	tok1 := signJoinTicket(t, "user-1", "alice", "room_abc")
	tok2 := signJoinTicket(t, "user-2", "bob", "room_abc")

	rt.HandleMessage("conn-1", encodeJoinRoom(t, "room_abc", tok1))
	out := rt.HandleMessage("conn-2", encodeJoinRoom(t, "room_abc", tok2))

	require.Len(t, out, 2)
	var sawJoinAck, sawBroadcast bool
	for _, o := range out {
		var m map[string]any
		require.NoError(t, msgpack.Unmarshal(o.Frame, &m))
		if o.ConnID == "conn-2" && m["t"] == string(TypeRoomJoined) {
			sawJoinAck = true
		}
		if o.ConnID == "conn-1" && m["t"] == string(TypePlayerJoined) {
			sawBroadcast = true
			assert.Equal(t, "bob", m["player_name"])
		}
	}
	assert.True(t, sawJoinAck)
	assert.True(t, sawBroadcast)
}

func joinFourPlayers(t *testing.T, rt *Router) {
	t.Helper()
	players := []struct{ conn, user, name string }{
		{"conn-host", "user-0", "host"},
		{"conn-1", "user-1", "bob"},
		{"conn-2", "user-2", "carol"},
		{"conn-3", "user-3", "dave"},
	}
	for _, p := range players {
		tok := signJoinTicket(t, p.user, p.name, "room_abc")
		out := rt.HandleMessage(p.conn, encodeJoinRoom(t, "room_abc", tok))
		require.NotEmpty(t, out)
	}
}

func setReady(t *testing.T, rt *Router, connID string, ready bool) []Outbound {
	t.Helper()
	raw, err := msgpack.Marshal(map[string]any{"t": "SET_READY", "ready": ready})
	require.NoError(t, err)
	return rt.HandleMessage(connID, raw)
}

func TestSetReadyTriggersGameStartOnceAllNonHostReady(t *testing.T) {
	rt, _ := newTestRouter(t)
	joinFourPlayers(t, rt)

	setReady(t, rt, "conn-1", true)
	setReady(t, rt, "conn-2", true)
	out := setReady(t, rt, "conn-3", true)

	var starting int
	for _, o := range out {
		var m map[string]any
		require.NoError(t, msgpack.Unmarshal(o.Frame, &m))
		if m["t"] == string(TypeGameStarting) {
			starting++
			assert.NotEmpty(t, m["game_ticket"])
		}
	}
	assert.Equal(t, 4, starting)
}

func TestGameActionRequiresBoundGameSession(t *testing.T) {
	rt, _ := newTestRouter(t)
	raw, err := msgpack.Marshal(map[string]any{"t": "GAME_ACTION", "a": "PASS"})
	require.NoError(t, err)

	out := rt.HandleMessage("conn-ghost", raw)
	m := decodeOne(t, out)
	assert.Equal(t, string(ErrNotInGame), m["code"])
}

func TestPingRepliesWithPong(t *testing.T) {
	rt, _ := newTestRouter(t)
	raw, err := msgpack.Marshal(map[string]any{"t": "PING"})
	require.NoError(t, err)

	out := rt.HandleMessage("conn-1", raw)
	m := decodeOne(t, out)
	assert.Equal(t, string(TypePong), m["t"])
}

func TestChatOutsideRoomEchoesToSenderOnly(t *testing.T) {
	rt, _ := newTestRouter(t)
	raw, err := msgpack.Marshal(map[string]any{"t": "CHAT", "text": "hello"})
	require.NoError(t, err)

	out := rt.HandleMessage("conn-1", raw)
	m := decodeOne(t, out)
	assert.Equal(t, string(TypeChat), m["t"])
	assert.Equal(t, "hello", m["text"])
}

func TestChatRejectsControlCharacters(t *testing.T) {
	rt, _ := newTestRouter(t)
	raw, err := msgpack.Marshal(map[string]any{"t": "CHAT", "text": "hi\x00there"})
	require.NoError(t, err)

	out := rt.HandleMessage("conn-1", raw)
	m := decodeOne(t, out)
	assert.Equal(t, string(ErrInvalidMessage), m["code"])
}
