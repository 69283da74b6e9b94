package mahjong

// ResolutionKind is the outcome of resolving a fully-answered pending
// call prompt.
type ResolutionKind int

const (
	ResolutionAllPassed ResolutionKind = iota
	ResolutionRon
	ResolutionTripleRon
	ResolutionMeld
)

// TripleRonCount is the number of simultaneous ron declarations that
// forces an abortive draw instead of awarding the win.
const TripleRonCount = 3

// meldCallPriority ranks meld responses: kan and pon outrank chi, with
// chi always the lowest priority regardless of seat distance.
var meldCallPriority = map[MeldType]int{
	MeldOpenKan: 0,
	MeldPon:     0,
	MeldChi:     1,
}

// CallResolution is the decided outcome of a pending call prompt, ready
// for the transition function to apply.
type CallResolution struct {
	Kind      ResolutionKind
	RonSeats  []int // in counter-clockwise caller order, for ron/triple ron
	MeldSeat  int
	MeldType  MeldType
	MeldTiles []Tile
}

// ResolvePendingCall picks the highest-priority response among everyone
// who has answered a pending call prompt: ron beats any meld call, three
// simultaneous ron calls abort the round instead of awarding a win, and
// among meld calls kan/pon beat chi with ties broken by counter-clockwise
// distance from the discarder.
func ResolvePendingCall(prompt *PendingCallPrompt) CallResolution {
	if prompt == nil {
		return CallResolution{Kind: ResolutionAllPassed}
	}

	callerOrder := make(map[int]int, len(prompt.Callers))
	for i, c := range prompt.Callers {
		callerOrder[c.Seat] = i
	}

	var ronSeats []int
	var meldResponses []CallResponse
	for _, r := range prompt.Responses {
		switch r.Action {
		case CallResponseRon:
			ronSeats = append(ronSeats, r.Seat)
		case CallResponseMeld:
			meldResponses = append(meldResponses, r)
		}
	}

	if len(ronSeats) > 0 {
		sortBySeatOrder(ronSeats, callerOrder)
		if len(ronSeats) >= TripleRonCount {
			return CallResolution{Kind: ResolutionTripleRon, RonSeats: ronSeats}
		}
		return CallResolution{Kind: ResolutionRon, RonSeats: ronSeats}
	}

	if len(meldResponses) > 0 {
		best := pickBestMeldResponse(meldResponses, prompt)
		if best != nil {
			tiles := []Tile{}
			if best.Meld != nil {
				tiles = best.Meld.Tiles
			}
			meldType := MeldPon
			if best.Meld != nil {
				meldType = best.Meld.Type
			}
			return CallResolution{Kind: ResolutionMeld, MeldSeat: best.Seat, MeldType: meldType, MeldTiles: tiles}
		}
	}

	return CallResolution{Kind: ResolutionAllPassed}
}

func sortBySeatOrder(seats []int, order map[int]int) {
	for i := 1; i < len(seats); i++ {
		for j := i; j > 0 && order[seats[j-1]] > order[seats[j]]; j-- {
			seats[j-1], seats[j] = seats[j], seats[j-1]
		}
	}
}

func pickBestMeldResponse(responses []CallResponse, prompt *PendingCallPrompt) *CallResponse {
	var best *CallResponse
	bestPriority, bestDistance := 99, 99
	for i := range responses {
		r := &responses[i]
		if r.Meld == nil {
			continue
		}
		priority, ok := meldCallPriority[r.Meld.Type]
		if !ok {
			priority = 99
		}
		distance := mod4(r.Seat - prompt.FromSeat)
		if priority < bestPriority || (priority == bestPriority && distance < bestDistance) {
			best, bestPriority, bestDistance = r, priority, distance
		}
	}
	return best
}

// CheckFourKans reports the four-kans abortive draw: four kans have
// been called across the table and they are not all from a single
// player (a single player's fourth kan instead lets them keep playing
// toward suukantsu).
func CheckFourKans(rs RoundState) bool {
	if rs.KanCount < 4 {
		return false
	}
	for _, count := range rs.KanCallerSeats {
		if count == rs.KanCount {
			return false
		}
	}
	return true
}

// CheckFourRiichi reports the four-riichi abortive draw: every seat has
// declared riichi in the same round.
func CheckFourRiichi(rs RoundState) bool {
	for _, p := range rs.Players {
		if !p.IsRiichi {
			return false
		}
	}
	return true
}

// CheckFourWinds reports the suufon renda abortive draw: all four
// players discarded the same wind tile on their first discard, before
// any call interrupted the round.
func CheckFourWinds(rs RoundState) bool {
	if rs.AnyCallMade || rs.FirstGoAroundDiscards < 4 {
		return false
	}
	if len(rs.AllDiscards) < 4 {
		return false
	}
	first := rs.AllDiscards[0].TileID.Type()
	if !first.IsWind() {
		return false
	}
	for i := 1; i < 4; i++ {
		if rs.AllDiscards[i].TileID.Type() != first {
			return false
		}
	}
	return true
}

// CheckNineTerminals reports kyuushu kyuuhai eligibility: the checking
// player holds nine or more distinct terminal/honor tile types on their
// first discard opportunity, with no calls yet made.
func CheckNineTerminals(p Player, anyCallMade bool, isFirstTurn bool) bool {
	if anyCallMade || !isFirstTurn {
		return false
	}
	seen := map[TileType]bool{}
	for _, t := range p.Tiles {
		if t.Type().IsTerminalOrHonor() {
			seen[t.Type()] = true
		}
	}
	return len(seen) >= 9
}
