package msgrouter

import (
	"fmt"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// inboundEnvelope is the generic shape every client frame decodes into
// before type-specific field validation narrows it.
type inboundEnvelope map[string]any

func decodeEnvelope(raw []byte) (inboundEnvelope, error) {
	var env inboundEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("msgrouter: decode envelope: %w", err)
	}
	return env, nil
}

func (env inboundEnvelope) tag() (string, bool) {
	t, ok := env["t"].(string)
	return t, ok
}

func stringField(env inboundEnvelope, key string) (string, bool) {
	v, ok := env[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(env inboundEnvelope, key string) (bool, bool) {
	v, ok := env[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// joinOrReconnectFields is the shared {room_id, game_ticket} payload of
// JOIN_ROOM and RECONNECT.
type joinOrReconnectFields struct {
	RoomID     string
	GameTicket string
}

func parseJoinOrReconnect(env inboundEnvelope) (joinOrReconnectFields, error) {
	roomID, ok := stringField(env, "room_id")
	if !ok || roomID == "" || len(roomID) > 50 {
		return joinOrReconnectFields{}, fmt.Errorf("msgrouter: room_id is required")
	}
	ticket, ok := stringField(env, "game_ticket")
	if !ok || ticket == "" || len(ticket) > 2000 {
		return joinOrReconnectFields{}, fmt.Errorf("msgrouter: game_ticket is required")
	}
	return joinOrReconnectFields{RoomID: roomID, GameTicket: ticket}, nil
}

func parseSetReady(env inboundEnvelope) (bool, error) {
	ready, ok := boolField(env, "ready")
	if !ok {
		return false, fmt.Errorf("msgrouter: ready must be a bool")
	}
	return ready, nil
}

func parseChat(env inboundEnvelope) (string, error) {
	text, ok := stringField(env, "text")
	if !ok || text == "" || utf8.RuneCountInString(text) > 1000 {
		return "", fmt.Errorf("msgrouter: text must be 1..1000 characters")
	}
	for _, r := range text {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return "", fmt.Errorf("msgrouter: text must not contain control characters")
		}
		if r == 0x7F {
			return "", fmt.Errorf("msgrouter: text must not contain control characters")
		}
	}
	return text, nil
}

// parseGameAction extracts the action tag "a" and hands the rest of the
// envelope through as ActionData; gameservice.validateActionData does
// the per-action schema check, so this layer only confirms "a" exists.
func parseGameAction(env inboundEnvelope) (string, map[string]any, error) {
	action, ok := stringField(env, "a")
	if !ok || action == "" {
		return "", nil, fmt.Errorf("msgrouter: a is required for GAME_ACTION")
	}
	data := make(map[string]any, len(env))
	for k, v := range env {
		if k == "t" || k == "a" {
			continue
		}
		data[k] = v
	}
	return action, data, nil
}
