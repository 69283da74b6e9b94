// Package eventrouter turns the domain events the rule engine emits
// into transport-addressed events: some broadcast to every seat at a
// table, some target exactly one. It holds no connections itself; the
// connection layer (component I) resolves a Target to live sockets.
package eventrouter

import "mahjongserver/internal/mahjong"

// Target names who should receive a routed event.
type Target struct {
	Broadcast bool
	Seat      int // meaningful only when Broadcast is false
}

func BroadcastTarget() Target {
	return Target{Broadcast: true}
}

func SeatTarget(seat int) Target {
	return Target{Seat: seat}
}

// Routed pairs one event with where it should go.
type Routed struct {
	Target Target
	Event  mahjong.Event
}

// Route splits a batch of domain events into transport-addressed ones,
// in the same order they were emitted. A CALL_PROMPT event fans out
// into one per pending seat, each holding only that seat's own caller
// entry, per the DISCARD-prompt rule that a seat with both a ron and a
// meld option sees only the ron prompt.
func Route(events []mahjong.Event) []Routed {
	var out []Routed
	for _, evt := range events {
		switch e := evt.(type) {
		case mahjong.DrawEvent:
			out = append(out, Routed{Target: SeatTarget(e.Seat), Event: e})
		case mahjong.FuritenEvent:
			out = append(out, Routed{Target: SeatTarget(e.Seat), Event: e})
		case mahjong.ErrorEvent:
			out = append(out, Routed{Target: SeatTarget(e.Seat), Event: e})
		case mahjong.CallPromptEvent:
			out = append(out, splitCallPrompt(e)...)
		default:
			out = append(out, Routed{Target: BroadcastTarget(), Event: evt})
		}
	}
	return out
}

// splitCallPrompt gives each pending seat its own copy of the prompt
// filtered to its own entry: a seat with a ron option sees a RON
// prompt even if it also had a meld option on the same discard.
func splitCallPrompt(e mahjong.CallPromptEvent) []Routed {
	bySeat := make(map[int]mahjong.CallerEntry)
	for _, caller := range e.Callers {
		existing, ok := bySeat[caller.Seat]
		if !ok || (caller.IsRon && !existing.IsRon) {
			bySeat[caller.Seat] = caller
		}
	}

	out := make([]Routed, 0, len(bySeat))
	for seat, caller := range bySeat {
		filtered := mahjong.CallPromptEvent{
			CallType: e.CallType,
			TileID:   e.TileID,
			FromSeat: e.FromSeat,
			Callers:  []mahjong.CallerEntry{caller},
		}
		out = append(out, Routed{Target: SeatTarget(seat), Event: filtered})
	}
	return out
}
