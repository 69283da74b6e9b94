package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionAssignsUnseatedToken(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")

	require.NotEmpty(t, sess.Token)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "room-1", sess.RoomID)
	assert.Equal(t, -1, sess.Seat)

	got, ok := st.Get(sess.Token)
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestBindSeatUnknownTokenReturnsNotFoundError(t *testing.T) {
	st := NewStore(nil)
	err := st.BindSeat("missing-token", "game-1", 2, "conn-1")
	require.Error(t, err)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestBindSeatAttachesGameAndConn(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")

	require.NoError(t, st.BindSeat(sess.Token, "game-1", 2, "conn-1"))

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	assert.Equal(t, "game-1", sess.GameID)
	assert.Equal(t, 2, sess.Seat)
	assert.Equal(t, "conn-1", sess.ConnID)
}

func TestAuthorizeReconnectRejectsUnseatedSession(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.MarkDisconnected(sess.Token, time.Now()))

	_, err := st.AuthorizeReconnect(sess.Token, "user-1", time.Now(), time.Minute)
	require.Error(t, err)
	var re *ReconnectionError
	require.ErrorAs(t, err, &re)
}

func TestAuthorizeReconnectRejectsWrongUser(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.BindSeat(sess.Token, "game-1", 0, "conn-1"))
	require.NoError(t, st.MarkDisconnected(sess.Token, time.Now()))

	_, err := st.AuthorizeReconnect(sess.Token, "user-2", time.Now(), time.Minute)
	require.Error(t, err)
}

func TestAuthorizeReconnectRejectsLiveSession(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.BindSeat(sess.Token, "game-1", 0, "conn-1"))

	_, err := st.AuthorizeReconnect(sess.Token, "user-1", time.Now(), time.Minute)
	require.Error(t, err)
}

func TestAuthorizeReconnectRejectsExpiredGrace(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.BindSeat(sess.Token, "game-1", 0, "conn-1"))

	disconnectedAt := time.Now().Add(-10 * time.Minute)
	require.NoError(t, st.MarkDisconnected(sess.Token, disconnectedAt))

	_, err := st.AuthorizeReconnect(sess.Token, "user-1", time.Now(), time.Minute)
	require.Error(t, err)
}

func TestAuthorizeReconnectAcceptsWithinGrace(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.BindSeat(sess.Token, "game-1", 3, "conn-1"))
	require.NoError(t, st.MarkDisconnected(sess.Token, time.Now().Add(-5*time.Second)))

	got, err := st.AuthorizeReconnect(sess.Token, "user-1", time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Seat)
}

func TestClearDisconnectedRestoresLiveness(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	require.NoError(t, st.BindSeat(sess.Token, "game-1", 1, "conn-1"))
	require.NoError(t, st.MarkDisconnected(sess.Token, time.Now()))
	require.NoError(t, st.ClearDisconnected(sess.Token, "conn-2"))

	assert.True(t, sess.isLive())
	_, disconnected := sess.DisconnectedFor(time.Now())
	assert.False(t, disconnected)
}

func TestRemoveDropsSession(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSession("user-1", "Alice", "room-1")
	st.Remove(sess.Token)

	_, ok := st.Get(sess.Token)
	assert.False(t, ok)
}

func TestCreateSessionWithTokenUsesSuppliedToken(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSessionWithToken("lobby-ticket-1", "user-1", "Alice", "room-1")
	assert.Equal(t, "lobby-ticket-1", sess.Token)

	got, ok := st.Get("lobby-ticket-1")
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestRebindMovesSessionToNewTokenAndSeat(t *testing.T) {
	st := NewStore(nil)
	sess := st.CreateSessionWithToken("lobby-ticket-1", "user-1", "Alice", "room-1")

	require.NoError(t, st.Rebind("lobby-ticket-1", "game-ticket-1", "game-1", 2, "conn-1"))

	_, ok := st.Get("lobby-ticket-1")
	assert.False(t, ok)

	got, ok := st.Get("game-ticket-1")
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, "game-ticket-1", got.Token)
	assert.Equal(t, "game-1", got.GameID)
	assert.Equal(t, 2, got.Seat)
	assert.Equal(t, "conn-1", got.ConnID)
}

func TestRebindUnknownTokenReturnsNotFoundError(t *testing.T) {
	st := NewStore(nil)
	err := st.Rebind("missing", "new", "game-1", 0, "conn-1")
	require.Error(t, err)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}
