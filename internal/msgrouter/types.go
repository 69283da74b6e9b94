// Package msgrouter decodes inbound MessagePack client envelopes,
// authenticates JOIN_ROOM and RECONNECT against a signed game ticket,
// dispatches game actions to the game service, and encodes the server's
// replies back into envelopes. It holds no socket of its own: the
// connection layer (component I) hands it raw frames and a connection
// id, and gets back a list of addressed outbound frames to write.
package msgrouter

// Wire tags for the client -> server envelope's "t" field.
const (
	tagJoinRoom   = "JOIN_ROOM"
	tagLeaveRoom  = "LEAVE_ROOM"
	tagReconnect  = "RECONNECT"
	tagSetReady   = "SET_READY"
	tagGameAction = "GAME_ACTION"
	tagChat       = "CHAT"
	tagPing       = "PING"
)

// SessionMessageType is the server -> client envelope's "t" field for
// everything that isn't a game event (component G covers those).
type SessionMessageType string

const (
	TypeRoomJoined          SessionMessageType = "room_joined"
	TypeRoomLeft            SessionMessageType = "room_left"
	TypePlayerJoined        SessionMessageType = "player_joined"
	TypePlayerLeft          SessionMessageType = "player_left"
	TypePlayerReadyChanged  SessionMessageType = "player_ready_changed"
	TypeGameStarting        SessionMessageType = "game_starting"
	TypeGameLeft            SessionMessageType = "game_left"
	TypeChat                SessionMessageType = "chat"
	TypeError               SessionMessageType = "session_error"
	TypePong                SessionMessageType = "pong"
	TypeGameReconnected     SessionMessageType = "game_reconnected"
	TypePlayerReconnected   SessionMessageType = "player_reconnected"
)

// SessionErrorCode enumerates the codes session_error carries.
type SessionErrorCode string

const (
	ErrAlreadyInGame        SessionErrorCode = "already_in_game"
	ErrAlreadyInRoom        SessionErrorCode = "already_in_room"
	ErrRoomNotFound         SessionErrorCode = "room_not_found"
	ErrRoomFull             SessionErrorCode = "room_full"
	ErrRoomTransitioning    SessionErrorCode = "room_transitioning"
	ErrNotInRoom            SessionErrorCode = "not_in_room"
	ErrNotInGame            SessionErrorCode = "not_in_game"
	ErrGameNotStarted       SessionErrorCode = "game_not_started"
	ErrInvalidMessage       SessionErrorCode = "invalid_message"
	ErrActionFailed         SessionErrorCode = "action_failed"
	ErrReconnectNoSession   SessionErrorCode = "reconnect_no_session"
	ErrReconnectNoSeat      SessionErrorCode = "reconnect_no_seat"
	ErrReconnectGameGone    SessionErrorCode = "reconnect_game_gone"
	ErrReconnectMismatch    SessionErrorCode = "reconnect_game_mismatch"
	ErrReconnectRetryLater  SessionErrorCode = "reconnect_retry_later"
	ErrReconnectInRoom      SessionErrorCode = "reconnect_in_room"
	ErrReconnectActive      SessionErrorCode = "reconnect_already_active"
	ErrReconnectSnapFailed  SessionErrorCode = "reconnect_snapshot_failed"
	ErrInvalidTicket        SessionErrorCode = "invalid_ticket"
)
