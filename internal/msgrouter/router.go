package msgrouter

import (
	"errors"
	"sync"
	"time"

	"mahjongserver/common/log"
	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/mahjong"
	"mahjongserver/internal/room"
	"mahjongserver/internal/session"
	"mahjongserver/internal/ticket"
)

// Router is the message router (component H): it owns no connections,
// only the collaborators it dispatches to, and a connID -> Session index
// so a GAME_ACTION or CHAT arriving on a bare connection id can find the
// session bound to it. Saving a finished game's replay and summary
// record, and tearing down its actor and timers, is not this package's
// job: Games' own GameLifecycle hook does that, because it is the only
// place that sees both a player-triggered and a timeout-triggered game
// end the same way.
type Router struct {
	Rooms    *room.Manager
	Sessions *session.Store
	Games    *gameservice.Service

	Secret         string
	TicketTTL      time.Duration
	ReconnectGrace time.Duration
	Now            func() time.Time

	mu          sync.Mutex
	connSession map[string]*session.Session
}

func NewRouter(rooms *room.Manager, sessions *session.Store, games *gameservice.Service, secret string, ticketTTL, reconnectGrace time.Duration) *Router {
	return &Router{
		Rooms:          rooms,
		Sessions:       sessions,
		Games:          games,
		Secret:         secret,
		TicketTTL:      ticketTTL,
		ReconnectGrace: reconnectGrace,
		connSession:    make(map[string]*session.Session),
	}
}

func (rt *Router) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}

// IssueLobbyTicket mints the ticket a client presents in JOIN_ROOM to
// attach to a pending room. Nothing in this deployment calls it: the
// HTTP surface (component M) signs its tickets through the container's
// own TicketIssuer, built on a RoomSigner with the same secret. In a
// multi-service deployment a separate lobby service would own it,
// signing with the same shared secret.
func (rt *Router) IssueLobbyTicket(userID, username, roomID string) (string, error) {
	signer := ticket.RoomSigner{Secret: rt.Secret, TTL: rt.TicketTTL, Now: rt.Now}
	return signer.SignTicket(userID, username, roomID, 0)
}

// HandleMessage decodes and dispatches one inbound frame, returning
// every outbound frame it produces, addressed by connection id. A
// malformed frame always yields exactly one INVALID_MESSAGE reply to
// the sender.
func (rt *Router) HandleMessage(connID string, raw []byte) []Outbound {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	tag, ok := env.tag()
	if !ok {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, "missing t")}
	}

	switch tag {
	case tagJoinRoom:
		return rt.handleJoinRoom(connID, env)
	case tagLeaveRoom:
		return rt.handleLeaveRoom(connID)
	case tagReconnect:
		return rt.handleReconnect(connID, env)
	case tagSetReady:
		return rt.handleSetReady(connID, env)
	case tagGameAction:
		return rt.handleGameAction(connID, env)
	case tagChat:
		return rt.handleChat(connID, env)
	case tagPing:
		return []Outbound{encode(connID, TypePong, nil)}
	default:
		return []Outbound{errorMessage(connID, ErrInvalidMessage, "unknown message type "+tag)}
	}
}

func (rt *Router) verifyTicket(connID, ticketStr, wantRoomID string) (*ticket.GameTicket, []Outbound) {
	gt, err := ticket.VerifyTicket(ticketStr, rt.Secret, rt.now())
	if err != nil {
		return nil, []Outbound{errorMessage(connID, ErrInvalidTicket, "invalid game ticket")}
	}
	if gt.RoomID != wantRoomID {
		return nil, []Outbound{errorMessage(connID, ErrInvalidTicket, "ticket room_id mismatch")}
	}
	return gt, nil
}

func (rt *Router) bindConn(connID string, sess *session.Session) {
	rt.mu.Lock()
	rt.connSession[connID] = sess
	rt.mu.Unlock()
}

func (rt *Router) sessionFor(connID string) (*session.Session, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sess, ok := rt.connSession[connID]
	return sess, ok
}

func (rt *Router) unbindConn(connID string) {
	rt.mu.Lock()
	delete(rt.connSession, connID)
	rt.mu.Unlock()
}

// otherConnsInGame returns every other live connection currently bound
// to gameID, for events that notify table-mates outside the event
// router's own domain-event path (e.g. a reconnect notice).
func (rt *Router) otherConnsInGame(gameID, excludeConnID string) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	var out []string
	for connID, sess := range rt.connSession {
		if connID == excludeConnID {
			continue
		}
		if sess.GameID == gameID {
			out = append(out, connID)
		}
	}
	return out
}

// SeatConnsForGame returns every live connection currently bound to
// gameID, indexed by seat, for the connection layer to resolve a
// seat-targeted or broadcast domain event against.
func (rt *Router) SeatConnsForGame(gameID string) map[int]string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make(map[int]string)
	for connID, sess := range rt.connSession {
		if sess.GameID == gameID {
			out[sess.Seat] = connID
		}
	}
	return out
}

func (rt *Router) handleJoinRoom(connID string, env inboundEnvelope) []Outbound {
	fields, err := parseJoinOrReconnect(env)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	gt, errOut := rt.verifyTicket(connID, fields.GameTicket, fields.RoomID)
	if errOut != nil {
		return errOut
	}

	r, exists := rt.Rooms.GetRoom(fields.RoomID)
	if !exists {
		created, err := rt.Rooms.CreateRoomWithID(fields.RoomID, connID, gt.UserID, gt.Username)
		if err != nil {
			return []Outbound{errorMessage(connID, roomErrorCode(err), err.Error())}
		}
		r = created
	} else {
		joined, _, err := rt.Rooms.JoinRoom(fields.RoomID, connID, gt.UserID, gt.Username)
		if err != nil {
			return []Outbound{errorMessage(connID, roomErrorCode(err), err.Error())}
		}
		r = joined
	}

	sess := rt.Sessions.CreateSessionWithToken(fields.GameTicket, gt.UserID, gt.Username, fields.RoomID)
	rt.bindConn(connID, sess)

	snap := r.Snapshot()
	var names []string
	var ready []bool
	for _, p := range snap.Players {
		names = append(names, p.Username)
		ready = append(ready, p.Ready)
	}

	out := []Outbound{encode(connID, TypeRoomJoined, map[string]any{
		"room_id":        snap.RoomID,
		"player_name":    gt.Username,
		"players":        roomPlayerInfo(names, ready),
		"num_ai_players": 0,
	})}
	out = append(out, rt.broadcastToRoom(snap, connID, TypePlayerJoined, map[string]any{"player_name": gt.Username})...)
	return out
}

func (rt *Router) handleLeaveRoom(connID string) []Outbound {
	r, ok := rt.Rooms.RoomForConn(connID)
	var name string
	if ok {
		if p, found := playerByConn(r.Snapshot(), connID); found {
			name = p.Username
		}
	}
	if err := rt.Rooms.LeaveRoom(connID); err != nil {
		return []Outbound{errorMessage(connID, roomErrorCode(err), err.Error())}
	}
	rt.unbindConn(connID)

	out := []Outbound{encode(connID, TypeRoomLeft, nil)}
	if ok {
		out = append(out, rt.broadcastToRoom(r.Snapshot(), connID, TypePlayerLeft, map[string]any{"player_name": name})...)
	}
	return out
}

func (rt *Router) handleSetReady(connID string, env inboundEnvelope) []Outbound {
	ready, err := parseSetReady(env)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	r, ok := rt.Rooms.RoomForConn(connID)
	if !ok {
		return []Outbound{errorMessage(connID, ErrNotInRoom, "not in a room")}
	}
	if err := rt.Rooms.SetReady(connID, ready); err != nil {
		return []Outbound{errorMessage(connID, roomErrorCode(err), err.Error())}
	}

	snap := r.Snapshot()
	p, _ := playerByConn(snap, connID)
	out := rt.broadcastToRoom(snap, "", TypePlayerReadyChanged, map[string]any{
		"player_name": p.Username,
		"ready":       ready,
	})

	if readyToStart(snap) {
		out = append(out, rt.tryStartGame(snap)...)
	}
	return out
}

func readyToStart(snap room.RoomSnapshot) bool {
	if snap.Transitioning || len(snap.Players) != 4 {
		return false
	}
	for _, p := range snap.Players {
		if p.ConnID != snap.HostConnID && !p.Ready {
			return false
		}
	}
	return true
}

func (rt *Router) tryStartGame(snap room.RoomSnapshot) []Outbound {
	started, err := rt.Rooms.TryStartGame(snap.RoomID, snap.HostConnID, [4]bool{}, "")
	if err != nil {
		log.Warn("msgrouter: start game failed for room %s: %v", snap.RoomID, err)
		return rt.broadcastToRoom(snap, "", TypeError, map[string]any{
			"code":    string(ErrGameNotStarted),
			"message": err.Error(),
		})
	}

	var out []Outbound
	for seat, connID := range snap.Seats {
		if connID == "" {
			continue
		}
		sess, ok := rt.sessionFor(connID)
		if ok {
			_ = rt.Sessions.Rebind(sess.Token, started.Tickets[seat], started.GameID, seat, connID)
			rt.bindConn(connID, sess)
		}
		out = append(out, encode(connID, TypeGameStarting, map[string]any{
			"game_id":     started.GameID,
			"seat":        seat,
			"game_ticket": started.Tickets[seat],
		}))
	}
	return out
}

func (rt *Router) handleReconnect(connID string, env inboundEnvelope) []Outbound {
	fields, err := parseJoinOrReconnect(env)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	gt, errOut := rt.verifyTicket(connID, fields.GameTicket, fields.RoomID)
	if errOut != nil {
		return errOut
	}

	sess, err := rt.Sessions.AuthorizeReconnect(fields.GameTicket, gt.UserID, rt.now(), rt.ReconnectGrace)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrReconnectNoSession, err.Error())}
	}

	snapshot, err := rt.Games.BuildReconnectionSnapshot(sess.GameID, sess.Seat)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrReconnectSnapFailed, err.Error())}
	}

	_ = rt.Sessions.ClearDisconnected(sess.Token, connID)
	rt.bindConn(connID, sess)

	out := []Outbound{encode(connID, TypeGameReconnected, map[string]any{"snapshot": snapshot})}
	for _, otherConnID := range rt.otherConnsInGame(sess.GameID, connID) {
		out = append(out, encode(otherConnID, TypePlayerReconnected, map[string]any{"player_name": sess.PlayerName}))
	}
	return out
}

func (rt *Router) handleGameAction(connID string, env inboundEnvelope) []Outbound {
	action, data, err := parseGameAction(env)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	sess, ok := rt.sessionFor(connID)
	if !ok || sess.GameID == "" {
		return []Outbound{errorMessage(connID, ErrNotInGame, "not in a game")}
	}

	events, err := rt.Games.HandleAction(sess.GameID, sess.PlayerName, gameservice.GameAction(action), gameservice.ActionData(data))
	if err != nil {
		return []Outbound{errorMessage(connID, ErrActionFailed, err.Error())}
	}
	// Every event already reached its audience through the event
	// router's sink; the return value is only inspected here to log the
	// one transition that ends this session's interest in the game.
	// Persisting the replay/record and tearing down the actor happens in
	// Games' own GameLifecycle hook, which also sees a timeout-triggered
	// end that never passes through handleGameAction at all.
	for _, evt := range events {
		if _, ok := evt.(mahjong.GameEndEvent); ok {
			log.Info("msgrouter: game %s ended", sess.GameID)
			break
		}
	}
	return nil
}

func (rt *Router) handleChat(connID string, env inboundEnvelope) []Outbound {
	text, err := parseChat(env)
	if err != nil {
		return []Outbound{errorMessage(connID, ErrInvalidMessage, err.Error())}
	}
	sess, bound := rt.sessionFor(connID)
	playerName := ""
	if bound {
		playerName = sess.PlayerName
	}

	if r, ok := rt.Rooms.RoomForConn(connID); ok {
		return rt.broadcastToRoom(r.Snapshot(), "", TypeChat, map[string]any{"player_name": playerName, "text": text})
	}
	return []Outbound{encode(connID, TypeChat, map[string]any{"player_name": playerName, "text": text})}
}

func (rt *Router) broadcastToRoom(snap room.RoomSnapshot, exclude string, msgType SessionMessageType, fields map[string]any) []Outbound {
	var out []Outbound
	for _, p := range snap.Players {
		if p.ConnID == exclude {
			continue
		}
		out = append(out, encode(p.ConnID, msgType, fields))
	}
	return out
}

func playerByConn(snap room.RoomSnapshot, connID string) (room.Player, bool) {
	for _, p := range snap.Players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return room.Player{}, false
}

func roomErrorCode(err error) SessionErrorCode {
	var re *room.Error
	if errors.As(err, &re) {
		switch re.Code {
		case room.CodeRoomNotFound:
			return ErrRoomNotFound
		case room.CodeRoomFull:
			return ErrRoomFull
		case room.CodeAlreadyInRoom:
			return ErrAlreadyInRoom
		case room.CodeNotInRoom:
			return ErrNotInRoom
		case room.CodeRoomTransitioning:
			return ErrRoomTransitioning
		}
	}
	return ErrInvalidMessage
}
