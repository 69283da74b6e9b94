package room

// Code is one of the room lifecycle's typed error codes, carried
// through to the message router so it can be reported to the client
// without the room package knowing anything about the wire format.
type Code string

const (
	CodeRoomNotFound      Code = "ROOM_NOT_FOUND"
	CodeRoomFull          Code = "ROOM_FULL"
	CodeAlreadyInRoom     Code = "ALREADY_IN_ROOM"
	CodeNotInRoom         Code = "NOT_IN_ROOM"
	CodeRoomTransitioning Code = "ROOM_TRANSITIONING"
	CodeNotHost           Code = "NOT_HOST"
	CodeNotAllReady       Code = "NOT_ALL_READY"
	CodeStartFailed       Code = "START_FAILED"
)

// Error is a typed room-lifecycle failure.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "room: " + string(e.Code)
	}
	return "room: " + string(e.Code) + ": " + e.Detail
}

func errOf(code Code, detail string) error { return &Error{Code: code, Detail: detail} }
