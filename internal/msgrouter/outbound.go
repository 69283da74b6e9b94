package msgrouter

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"mahjongserver/internal/mahjong"
)

// Outbound pairs one encoded frame with the connection it is addressed
// to. The connection layer (component I) is responsible for the actual
// write; this package only decides content and destination.
type Outbound struct {
	ConnID string
	Frame  []byte
}

// encode flattens a {"t": type, ...fields} map into a single MessagePack
// map, matching the wire envelope shape client messages arrive in.
func encode(connID string, msgType SessionMessageType, fields map[string]any) Outbound {
	body := make(map[string]any, len(fields)+1)
	body["t"] = string(msgType)
	for k, v := range fields {
		body[k] = v
	}
	frame, err := msgpack.Marshal(body)
	if err != nil {
		// A map of plain Go values (strings, ints, bools, slices of
		// the same) always marshals; a failure here means a caller
		// put something msgpack can't encode into fields, which is a
		// programming error, not a runtime condition to recover from.
		panic("msgrouter: encode " + string(msgType) + ": " + err.Error())
	}
	return Outbound{ConnID: connID, Frame: frame}
}

func errorMessage(connID string, code SessionErrorCode, message string) Outbound {
	return encode(connID, TypeError, map[string]any{"code": string(code), "message": message})
}

// EncodeEvent turns one routed domain event into the wire frame a game
// connection receives: the event's own fields, flattened into a map
// alongside a "t" tag naming its event type. Domain events carry no
// msgpack tags of their own (mahjong.Event implementations are plain
// structs shared with the rule engine's own tests), so this round-trips
// through a map to get the same flattened shape encode() produces for
// session messages rather than inventing a second wire convention.
func EncodeEvent(gameID string, evt mahjong.Event) ([]byte, error) {
	raw, err := msgpack.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("msgrouter: marshal event %s: %w", evt.EventType(), err)
	}
	var fields map[string]any
	if err := msgpack.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("msgrouter: flatten event %s: %w", evt.EventType(), err)
	}
	fields["t"] = evt.EventType()
	fields["game_id"] = gameID
	frame, err := msgpack.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("msgrouter: re-marshal event %s: %w", evt.EventType(), err)
	}
	return frame, nil
}

func roomPlayerInfo(names []string, ready []bool) []map[string]any {
	out := make([]map[string]any, len(names))
	for i := range names {
		out[i] = map[string]any{"name": names[i], "ready": ready[i]}
	}
	return out
}
