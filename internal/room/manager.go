package room

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"mahjongserver/common/cache"
	"mahjongserver/common/log"
	"mahjongserver/internal/mahjong"
)

// TicketSigner mints the per-player game ticket a room hands out in
// GAME_STARTING, proving to the game server that this connection's user
// was dealt into the named game.
type TicketSigner interface {
	SignTicket(userID, username, gameID string, seat int) (string, error)
}

// GameStarter is the subset of gameservice.Service a room transition
// needs; the room manager depends on this seam rather than the
// concrete type so tests can stub it out.
type GameStarter interface {
	StartGame(gameID string, playerNames [4]string, aiSeats [4]bool, seed string, settings mahjong.Settings) ([]mahjong.Event, error)
}

// StartedGame is what TryStartGame hands back: the new game's id, the
// per-player tickets (seat-indexed), and the events the first round
// produced.
type StartedGame struct {
	GameID  string
	Tickets [4]string
	Events  []mahjong.Event
}

// Manager owns every pending room and reaps ones that outlive their
// TTL without transitioning to a game.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	connRoom map[string]string // connID -> roomID

	ttl      time.Duration
	settings mahjong.Settings
	ticket   TicketSigner
	starter  GameStarter
	closed   *cache.GeneralCache
}

// ClosedRoomRecord is what a reaped or completed room leaves behind in
// the closed-room cache, so a late status query gets a specific reason
// instead of an opaque ROOM_NOT_FOUND.
type ClosedRoomRecord struct {
	RoomID   string
	ClosedAt time.Time
	Reason   string
}

func NewManager(ttl time.Duration, settings mahjong.Settings, ticket TicketSigner, starter GameStarter) (*Manager, error) {
	closed, err := cache.NewGeneralCache(1<<20, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("room: building closed-room cache: %w", err)
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
		ttl:      ttl,
		settings: settings,
		ticket:   ticket,
		starter:  starter,
		closed:   closed,
	}, nil
}

func generateRoomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "room_" + hex.EncodeToString(b)
}

// CreateRoom opens a new room with the creating connection as host and
// sole occupant of seat 0.
func (m *Manager) CreateRoom(hostConnID, hostUserID, hostUsername string) (*Room, error) {
	return m.CreateRoomWithID(generateRoomID(), hostConnID, hostUserID, hostUsername)
}

// CreateRoomWithID is CreateRoom for a caller that already has the room
// id to use, e.g. the message router lazily creating the room a JOIN_ROOM
// ticket named when that connection turns out to be its first occupant.
func (m *Manager) CreateRoomWithID(roomID, hostConnID, hostUserID, hostUsername string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, inRoom := m.connRoom[hostConnID]; inRoom {
		return nil, errOf(CodeAlreadyInRoom, hostConnID)
	}
	if _, exists := m.rooms[roomID]; exists {
		return nil, errOf(CodeAlreadyInRoom, roomID)
	}

	r := newRoom(roomID, hostConnID, hostUserID, hostUsername, time.Now())
	m.rooms[r.RoomID] = r
	m.connRoom[hostConnID] = r.RoomID
	log.Info("room: created %s host=%s", r.RoomID, hostUserID)
	return r, nil
}

// JoinRoom runs the whole join sequence under the room's join lock, so
// two connections racing to fill the last seat can't both observe it
// empty.
func (m *Manager) JoinRoom(roomID, connID, userID, username string) (*Room, int, error) {
	r, ok := m.GetRoom(roomID)
	if !ok {
		return nil, 0, errOf(CodeRoomNotFound, roomID)
	}

	r.joinLock.Lock()
	defer r.joinLock.Unlock()

	m.mu.Lock()
	if _, inRoom := m.connRoom[connID]; inRoom {
		m.mu.Unlock()
		return nil, 0, errOf(CodeAlreadyInRoom, connID)
	}
	m.mu.Unlock()

	r.mu.Lock()
	if r.Transitioning {
		r.mu.Unlock()
		return nil, 0, errOf(CodeRoomTransitioning, roomID)
	}
	seat := r.firstEmptySeat()
	if seat == -1 {
		r.mu.Unlock()
		return nil, 0, errOf(CodeRoomFull, roomID)
	}
	r.Seats[seat] = connID
	r.Players[connID] = &Player{ConnID: connID, UserID: userID, Username: username}
	r.mu.Unlock()

	m.mu.Lock()
	m.connRoom[connID] = roomID
	m.mu.Unlock()

	log.Info("room: %s seat=%d joined by %s", roomID, seat, userID)
	return r, seat, nil
}

// LeaveRoom removes a connection from its room. A host leaving before
// the game starts dissolves the room for everyone still in it.
func (m *Manager) LeaveRoom(connID string) error {
	m.mu.RLock()
	roomID, ok := m.connRoom[connID]
	m.mu.RUnlock()
	if !ok {
		return errOf(CodeNotInRoom, connID)
	}
	r, ok := m.GetRoom(roomID)
	if !ok {
		return errOf(CodeRoomNotFound, roomID)
	}

	r.mu.Lock()
	isHost := connID == r.HostConnID
	delete(r.Players, connID)
	if seat, found := r.seatOf(connID); found {
		r.Seats[seat] = ""
	}
	r.mu.Unlock()

	m.mu.Lock()
	delete(m.connRoom, connID)
	m.mu.Unlock()

	if isHost {
		m.closeRoom(roomID, "host left")
		return nil
	}
	return nil
}

// SetReady flips a non-host player's ready flag.
func (m *Manager) SetReady(connID string, ready bool) error {
	m.mu.RLock()
	roomID, ok := m.connRoom[connID]
	m.mu.RUnlock()
	if !ok {
		return errOf(CodeNotInRoom, connID)
	}
	r, ok := m.GetRoom(roomID)
	if !ok {
		return errOf(CodeRoomNotFound, roomID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[connID]
	if !ok {
		return errOf(CodeNotInRoom, connID)
	}
	p.Ready = ready
	return nil
}

// TryStartGame runs the host-triggered transition: requires the caller
// to be host, all three other seats filled and ready, signs a ticket
// per player, and asks the game starter to deal the first round. On
// any failure it resets transitioning and readiness so the room can
// retry.
func (m *Manager) TryStartGame(roomID, hostConnID string, aiSeats [4]bool, gameIDForSeed string) (*StartedGame, error) {
	r, ok := m.GetRoom(roomID)
	if !ok {
		return nil, errOf(CodeRoomNotFound, roomID)
	}

	r.mu.Lock()
	if r.HostConnID != hostConnID {
		r.mu.Unlock()
		return nil, errOf(CodeNotHost, hostConnID)
	}
	if r.Transitioning {
		r.mu.Unlock()
		return nil, errOf(CodeRoomTransitioning, roomID)
	}
	if !r.allNonHostReady() {
		r.mu.Unlock()
		return nil, errOf(CodeNotAllReady, roomID)
	}
	r.Transitioning = true

	var playerNames [4]string
	var connIDs [4]string
	var userIDs [4]string
	var usernames [4]string
	for seat, connID := range r.Seats {
		p := r.Players[connID]
		playerNames[seat] = p.Username
		connIDs[seat] = connID
		userIDs[seat] = p.UserID
		usernames[seat] = p.Username
	}
	r.mu.Unlock()

	gameID := gameIDForSeed
	if gameID == "" {
		gameID = roomID
	}

	events, err := m.starter.StartGame(gameID, playerNames, aiSeats, "", m.settings)
	if err != nil {
		m.resetTransition(r)
		return nil, errOf(CodeStartFailed, err.Error())
	}

	var tickets [4]string
	for seat, userID := range userIDs {
		if connIDs[seat] == "" {
			continue
		}
		tok, err := m.ticket.SignTicket(userID, usernames[seat], gameID, seat)
		if err != nil {
			m.resetTransition(r)
			return nil, errOf(CodeStartFailed, err.Error())
		}
		tickets[seat] = tok
	}

	m.closeRoom(roomID, "transitioned to game "+gameID)
	log.Info("room: %s transitioned to game %s", roomID, gameID)
	return &StartedGame{GameID: gameID, Tickets: tickets, Events: events}, nil
}

func (m *Manager) resetTransition(r *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transitioning = false
	for connID, p := range r.Players {
		if connID != r.HostConnID {
			p.Ready = false
		}
	}
}

// GetRoom looks up a room by id.
func (m *Manager) GetRoom(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// ListRooms returns a snapshot of every room currently pending (not yet
// transitioned into a game), for the lobby-listing HTTP endpoint.
func (m *Manager) ListRooms() []RoomSnapshot {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Snapshot())
	}
	return out
}

// RoomForConn looks up the room a connection currently holds a seat in.
func (m *Manager) RoomForConn(connID string) (*Room, bool) {
	m.mu.RLock()
	roomID, ok := m.connRoom[connID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return m.GetRoom(roomID)
}

// ClosedRecord reports why a room id no longer resolves, if it was
// recently closed and is still in the cache window.
func (m *Manager) ClosedRecord(roomID string) (ClosedRoomRecord, bool) {
	v, ok := m.closed.Get(roomID)
	if !ok {
		return ClosedRoomRecord{}, false
	}
	rec, ok := v.(ClosedRoomRecord)
	return rec, ok
}

func (m *Manager) closeRoom(roomID, reason string) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, roomID)
	r.mu.RLock()
	for connID := range r.Players {
		delete(m.connRoom, connID)
	}
	r.mu.RUnlock()
	m.mu.Unlock()

	m.closed.Set(roomID, ClosedRoomRecord{RoomID: roomID, ClosedAt: time.Now(), Reason: reason})
}

// RunReaper blocks, waking every interval to close rooms that outlived
// ttl without starting a game. It returns when ctx is cancelled.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	m.mu.RLock()
	var stale []string
	now := time.Now()
	for id, r := range m.rooms {
		r.mu.RLock()
		expired := !r.Transitioning && now.Sub(r.CreatedAt) > m.ttl
		r.mu.RUnlock()
		if expired {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		r, ok := m.GetRoom(id)
		if !ok {
			continue
		}
		r.joinLock.Lock()
		r.mu.RLock()
		stillExpired := !r.Transitioning
		r.mu.RUnlock()
		if stillExpired {
			m.closeRoom(id, "ttl expired")
			log.Info("room: reaped %s after ttl", id)
		}
		r.joinLock.Unlock()
	}
}
