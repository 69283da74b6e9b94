// Package session tracks the token each connected player carries, from
// room join through reconnection after a dropped websocket. The
// in-memory map is the source of truth; a Redis mirror lets any process
// in the cluster answer "does this token still have a live session"
// without routing through the process that created it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mahjongserver/common/database"
)

// Session is one player's identity across a room's lifetime: who they
// are, which room/game/seat they hold, and (if disconnected) how long
// they've been gone.
type Session struct {
	Token      string
	UserID     string
	PlayerName string
	RoomID     string
	GameID     string
	Seat       int // -1 until bound to a seat
	ConnID     string

	mu               sync.RWMutex
	disconnectedAt   time.Time
	hasDisconnection bool
}

func newSession(token, userID, playerName, roomID string) *Session {
	return &Session{Token: token, UserID: userID, PlayerName: playerName, RoomID: roomID, Seat: -1}
}

// MarkDisconnected records the instant this session's connection
// dropped, leaving everything else about the session (seat, game)
// intact for a reconnect.
func (s *Session) MarkDisconnected(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectedAt = at
	s.hasDisconnection = true
	s.ConnID = ""
}

// ClearDisconnected marks the session live again, called once a
// reconnect attaches a fresh connection.
func (s *Session) ClearDisconnected(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasDisconnection = false
	s.ConnID = connID
}

// DisconnectedFor reports how long a disconnected session has been
// gone; ok is false if the session is currently connected.
func (s *Session) DisconnectedFor(now time.Time) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasDisconnection {
		return 0, false
	}
	return now.Sub(s.disconnectedAt), true
}

func (s *Session) isLive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hasDisconnection && s.ConnID != ""
}

// Store is the process-wide session table. A write-through Redis mirror
// is optional: Store works in-memory-only for a single-process
// deployment, and mirrors every mutating call to Redis when one is
// configured, so another process can confirm a token's room/user before
// a reconnect lands on it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	redis    *database.RedisManager
}

func NewStore(redis *database.RedisManager) *Store {
	return &Store{sessions: make(map[string]*Session), redis: redis}
}

// CreateSession mints a fresh token for a player joining a room. The
// returned session has no seat or game yet.
func (st *Store) CreateSession(userID, playerName, roomID string) *Session {
	return st.CreateSessionWithToken(uuid.New().String(), userID, playerName, roomID)
}

// CreateSessionWithToken is CreateSession for a caller that already has
// a token to key the session under, e.g. the message router binding a
// session to the game ticket a JOIN_ROOM presented rather than minting
// an unrelated second identifier.
func (st *Store) CreateSessionWithToken(token, userID, playerName, roomID string) *Session {
	sess := newSession(token, userID, playerName, roomID)

	st.mu.Lock()
	st.sessions[token] = sess
	st.mu.Unlock()

	st.mirrorToRedis(sess)
	return sess
}

// Rebind moves a session to a new token, the way the room manager's
// game ticket supersedes a lobby join ticket once a room transitions to
// a started game, and attaches the seat the player was dealt.
func (st *Store) Rebind(oldToken, newToken, gameID string, seat int, connID string) error {
	st.mu.Lock()
	sess, ok := st.sessions[oldToken]
	if !ok {
		st.mu.Unlock()
		return &NotFoundError{Token: oldToken}
	}
	delete(st.sessions, oldToken)
	st.sessions[newToken] = sess
	st.mu.Unlock()

	sess.mu.Lock()
	sess.Token = newToken
	sess.GameID = gameID
	sess.Seat = seat
	sess.ConnID = connID
	sess.mu.Unlock()

	if st.redis != nil {
		if cli, err := st.redis.GetClient(); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			cli.Del(ctx, redisKey(oldToken))
			cancel()
		}
	}
	st.mirrorToRedis(sess)
	return nil
}

// Get looks up a session by token.
func (st *Store) Get(token string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[token]
	return sess, ok
}

// BindSeat attaches a session to the game and seat it was dealt once
// the room starts play.
func (st *Store) BindSeat(token, gameID string, seat int, connID string) error {
	sess, ok := st.Get(token)
	if !ok {
		return &NotFoundError{Token: token}
	}
	sess.mu.Lock()
	sess.GameID = gameID
	sess.Seat = seat
	sess.ConnID = connID
	sess.mu.Unlock()
	st.mirrorToRedis(sess)
	return nil
}

// MarkDisconnected flags a token's session as having lost its
// connection, starting the reconnection grace window.
func (st *Store) MarkDisconnected(token string, at time.Time) error {
	sess, ok := st.Get(token)
	if !ok {
		return &NotFoundError{Token: token}
	}
	sess.MarkDisconnected(at)
	st.mirrorToRedis(sess)
	return nil
}

// ClearDisconnected attaches a fresh connection id to a reconnecting
// session.
func (st *Store) ClearDisconnected(token, connID string) error {
	sess, ok := st.Get(token)
	if !ok {
		return &NotFoundError{Token: token}
	}
	sess.ClearDisconnected(connID)
	st.mirrorToRedis(sess)
	return nil
}

// Remove drops a session entirely, e.g. once its game has ended and the
// replay has been persisted.
func (st *Store) Remove(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
	if st.redis == nil {
		return
	}
	cli, err := st.redis.GetClient()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli.Del(ctx, redisKey(token))
}

// NotFoundError reports that a token names no known session.
type NotFoundError struct{ Token string }

func (e *NotFoundError) Error() string { return "session: no session for token " + e.Token }

// ReconnectionError explains why a reconnect attempt was refused.
type ReconnectionError struct{ Reason string }

func (e *ReconnectionError) Error() string { return "session: " + e.Reason }

// AuthorizeReconnect enforces the reconnection rule: the ticket's user
// must match the session's user, the session must already hold a seat,
// it must not currently be bound to a live connection, and (when
// maxGrace is positive) it must be within the disconnection grace
// window.
func (st *Store) AuthorizeReconnect(token, userID string, now time.Time, maxGrace time.Duration) (*Session, error) {
	sess, ok := st.Get(token)
	if !ok {
		return nil, &ReconnectionError{Reason: "no session for this ticket"}
	}
	sess.mu.RLock()
	sameUser := sess.UserID == userID
	hasSeat := sess.Seat >= 0
	sess.mu.RUnlock()

	if !sameUser {
		return nil, &ReconnectionError{Reason: "ticket user does not match session owner"}
	}
	if !hasSeat {
		return nil, &ReconnectionError{Reason: "session has not been seated in a game"}
	}
	if sess.isLive() {
		return nil, &ReconnectionError{Reason: "session already has a live connection"}
	}
	if maxGrace > 0 {
		elapsed, disconnected := sess.DisconnectedFor(now)
		if disconnected && elapsed > maxGrace {
			return nil, &ReconnectionError{Reason: "disconnection grace period has expired"}
		}
	}
	return sess, nil
}

func redisKey(token string) string { return "mahjong:session:" + token }

// mirrorToRedis write-through caches the session's reconnection-relevant
// fields. Failures are tolerated: the in-memory map remains the
// authority for the process that owns the session, and a cache miss
// just means a cross-process reconnect falls back to asking that
// process directly.
func (st *Store) mirrorToRedis(sess *Session) {
	if st.redis == nil {
		return
	}
	cli, err := st.redis.GetClient()
	if err != nil {
		return
	}
	sess.mu.RLock()
	fields := map[string]any{
		"user_id":     sess.UserID,
		"player_name": sess.PlayerName,
		"room_id":     sess.RoomID,
		"game_id":     sess.GameID,
		"seat":        sess.Seat,
	}
	sess.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli.HSet(ctx, redisKey(sess.Token), fields)
	cli.Expire(ctx, redisKey(sess.Token), 24*time.Hour)
}
