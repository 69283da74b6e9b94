// Package replay records a game's event stream to a reloadable trace
// (component J) and reconstructs the player actions that produced it, so
// a finished or abandoned game can be replayed end to end through the
// same gameservice.Service that ran it live.
package replay

import (
	"encoding/json"
	"fmt"

	"mahjongserver/internal/mahjong"
)

// Version tags the replay file format. Bumped whenever a field is added
// or removed from encodeRecord's output in a way that would break an
// older loader.
const Version = 1

// encodeRecord flattens one domain event into the same generic-map shape
// msgrouter.EncodeEvent produces for the live wire: the event's own
// fields plus a "type" tag, round-tripped through JSON rather than typed
// per event struct since mahjong.Event implementations carry no json
// tags of their own.
func encodeRecord(evt mahjong.Event) (string, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("replay: marshal event %s: %w", evt.EventType(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("replay: flatten event %s: %w", evt.EventType(), err)
	}
	fields["type"] = evt.EventType()
	line, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("replay: re-marshal event %s: %w", evt.EventType(), err)
	}
	return string(line), nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(raw))
	for _, elem := range raw {
		n, ok := asInt(elem)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
