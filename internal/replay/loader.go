package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/mahjong"
)

// LoadError reports a malformed or unreplayable replay file, tagged with
// the 1-indexed line it came from (the leading version line is line 1).
type LoadError struct {
	Line   int
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("replay: line %d: %s", e.Line, e.Reason)
}

// InputAction is one player action reconstructed from the recorded
// event stream, ready to feed back through gameservice.Service.HandleAction.
type InputAction struct {
	Seat   int
	Action gameservice.GameAction
	Data   gameservice.ActionData
}

// Input is everything a rerun needs to reproduce a recorded game:
// the seed and seat assignment StartGame was called with, and the
// ordered actions every seat submitted.
type Input struct {
	Seed        string
	PlayerNames [4]string
	AISeats     [4]bool
	Actions     []InputAction
}

// nonActionTypes are event types that report state rather than
// something a player did; they produce no InputAction. CALL_PROMPT,
// ERROR and FURITEN are never written by Collector, but are skipped
// defensively rather than rejected, in case of a hand-edited file.
var nonActionTypes = map[string]bool{
	"GAME_STARTED":    true,
	"ROUND_STARTED":   true,
	"DRAW":            true,
	"DORA_REVEALED":   true,
	"RIICHI_DECLARED": true,
	"GAME_END":        true,
	"CALL_PROMPT":     true,
	"ERROR":           true,
	"FURITEN":         true,
}

// LoadFromFile reads and parses a replay file written by Collector.
func LoadFromFile(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromString parses replay content already held in memory.
func LoadFromString(content string) (*Input, error) {
	return LoadFromReader(strings.NewReader(content))
}

// LoadFromReader parses one replay document: a version header line
// followed by one JSON record per line, the first of which must be a
// GAME_STARTED event.
func LoadFromReader(r io.Reader) (*Input, error) {
	scanner := bufio.NewScanner(bufio.NewReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	if !scanner.Scan() {
		return nil, &LoadError{Line: 1, Reason: "empty replay file"}
	}
	lineNum++
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, &LoadError{Line: lineNum, Reason: "malformed version header: " + err.Error()}
	}

	in := &Input{}
	seenGameStarted := false
	lastDiscard := map[int]int{}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &LoadError{Line: lineNum, Reason: "malformed json: " + err.Error()}
		}
		typ, ok := asString(rec["type"])
		if !ok {
			return nil, &LoadError{Line: lineNum, Reason: "record missing type"}
		}

		if !seenGameStarted {
			if typ != "GAME_STARTED" {
				return nil, &LoadError{Line: lineNum, Reason: "first record must be GAME_STARTED"}
			}
			if err := populateGameStarted(in, rec); err != nil {
				return nil, &LoadError{Line: lineNum, Reason: err.Error()}
			}
			seenGameStarted = true
			continue
		}

		if nonActionTypes[typ] {
			continue
		}

		actions, err := extractAction(typ, rec, lastDiscard, lineNum)
		if err != nil {
			return nil, err
		}
		in.Actions = append(in.Actions, actions...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenGameStarted {
		return nil, &LoadError{Line: lineNum, Reason: "replay has no GAME_STARTED record"}
	}
	return in, nil
}

func populateGameStarted(in *Input, rec map[string]any) error {
	seed, ok := asString(rec["Seed"])
	if !ok {
		return fmt.Errorf("GAME_STARTED missing Seed")
	}
	in.Seed = seed

	names, ok := rec["PlayerNames"].([]any)
	if !ok || len(names) != 4 {
		return fmt.Errorf("GAME_STARTED missing PlayerNames")
	}
	for i, n := range names {
		s, ok := asString(n)
		if !ok {
			return fmt.Errorf("GAME_STARTED PlayerNames[%d] is not a string", i)
		}
		in.PlayerNames[i] = s
	}

	if ai, ok := rec["AISeats"].([]any); ok && len(ai) == 4 {
		for i, v := range ai {
			b, _ := asBool(v)
			in.AISeats[i] = b
		}
	}
	return nil
}

// extractAction reconstructs the player action a DISCARD, MELD or
// ROUND_END record represents. lastDiscard tracks the most recent tile
// each seat has discarded, which is how a MELD record's called tile is
// recovered: MeldEvent carries the full completed meld and who it was
// called from, but not which of its tiles was the one claimed off the
// discard pile, since that is exactly the FromSeat seat's last discard.
func extractAction(typ string, rec map[string]any, lastDiscard map[int]int, lineNum int) ([]InputAction, error) {
	switch typ {
	case "DISCARD":
		seat, ok1 := asInt(rec["Seat"])
		tileID, ok2 := asInt(rec["TileID"])
		if !ok1 || !ok2 {
			return nil, &LoadError{Line: lineNum, Reason: "DISCARD missing Seat/TileID"}
		}
		lastDiscard[seat] = tileID
		action := gameservice.ActionDiscard
		if riichi, _ := asBool(rec["IsRiichiDiscard"]); riichi {
			action = gameservice.ActionDeclareRiichi
		}
		return []InputAction{{Seat: seat, Action: action, Data: gameservice.ActionData{"tile_id": tileID}}}, nil

	case "MELD":
		action, err := extractMeldAction(rec, lastDiscard, lineNum)
		if err != nil {
			return nil, err
		}
		return []InputAction{*action}, nil

	case "ROUND_END":
		return extractRoundEndAction(rec, lineNum)

	default:
		return nil, &LoadError{Line: lineNum, Reason: fmt.Sprintf("unknown event type %q", typ)}
	}
}

func extractMeldAction(rec map[string]any, lastDiscard map[int]int, lineNum int) (*InputAction, error) {
	seat, ok1 := asInt(rec["Seat"])
	fromSeat, ok2 := asInt(rec["FromSeat"])
	meldType, ok3 := asInt(rec["MeldType"])
	tiles, ok4 := asIntSlice(rec["Tiles"])
	if !ok1 || !ok2 || !ok3 || !ok4 || len(tiles) == 0 {
		return nil, &LoadError{Line: lineNum, Reason: "MELD missing Seat/FromSeat/MeldType/Tiles"}
	}

	switch mahjong.MeldType(meldType) {
	case mahjong.MeldClosedKan:
		return &InputAction{Seat: seat, Action: gameservice.ActionCallKan, Data: gameservice.ActionData{
			"tile_id": tiles[0], "kan_type": string(gameservice.KanClosed),
		}}, nil

	case mahjong.MeldAddedKan:
		added := tiles[len(tiles)-1]
		return &InputAction{Seat: seat, Action: gameservice.ActionCallKan, Data: gameservice.ActionData{
			"tile_id": added, "kan_type": string(gameservice.KanAdded),
		}}, nil

	case mahjong.MeldOpenKan, mahjong.MeldPon, mahjong.MeldChi:
		calledTile, ok := lastDiscard[fromSeat]
		if !ok {
			return nil, &LoadError{Line: lineNum, Reason: "MELD called before any discard by its FromSeat"}
		}
		data := gameservice.ActionData{"tile_id": calledTile}
		action := gameservice.ActionCallPon
		switch mahjong.MeldType(meldType) {
		case mahjong.MeldOpenKan:
			action = gameservice.ActionCallKan
			data["kan_type"] = string(gameservice.KanOpen)
		case mahjong.MeldChi:
			action = gameservice.ActionCallChi
			seq := otherTwo(tiles, calledTile)
			if len(seq) != 2 {
				return nil, &LoadError{Line: lineNum, Reason: "MELD chi does not resolve to two sequence tiles"}
			}
			data["sequence_tiles"] = []int{seq[0], seq[1]}
		}
		return &InputAction{Seat: seat, Action: action, Data: data}, nil

	default:
		return nil, &LoadError{Line: lineNum, Reason: fmt.Sprintf("unknown meld type %d", meldType)}
	}
}

func otherTwo(tiles []int, exclude int) []int {
	removed := false
	var out []int
	for _, t := range tiles {
		if !removed && t == exclude {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out
}

// extractRoundEndAction reconstructs the winning declaration that ended
// a round. Abortive draws (exhaustive, nine terminals, four winds, four
// riichi, four kans) carry no reconstructable triggering seat in
// RoundEndEvent, so they join GAME_END in producing no action: the
// round-ending transition they describe already follows automatically
// from the turn/call actions already in the trace.
func extractRoundEndAction(rec map[string]any, lineNum int) ([]InputAction, error) {
	kind, ok := asString(rec["Kind"])
	if !ok {
		return nil, &LoadError{Line: lineNum, Reason: "ROUND_END missing Kind"}
	}
	switch mahjong.RoundEndKind(kind) {
	case mahjong.RoundEndTsumo:
		seats, err := winnerSeats(rec, lineNum)
		if err != nil {
			return nil, err
		}
		return []InputAction{{Seat: seats[0], Action: gameservice.ActionDeclareTsumo, Data: gameservice.ActionData{}}}, nil
	case mahjong.RoundEndRon, mahjong.RoundEndTripleRon:
		// Every winner in Wins answers the same open call prompt with its
		// own CALL_RON; a double or triple ron only resolves once all of
		// them have responded, the same as the live call-prompt flow.
		seats, err := winnerSeats(rec, lineNum)
		if err != nil {
			return nil, err
		}
		actions := make([]InputAction, len(seats))
		for i, seat := range seats {
			actions[i] = InputAction{Seat: seat, Action: gameservice.ActionCallRon, Data: gameservice.ActionData{}}
		}
		return actions, nil
	default:
		return nil, nil
	}
}

func winnerSeats(rec map[string]any, lineNum int) ([]int, error) {
	wins, ok := rec["Wins"].([]any)
	if !ok || len(wins) == 0 {
		return nil, &LoadError{Line: lineNum, Reason: "ROUND_END missing Wins"}
	}
	seats := make([]int, 0, len(wins))
	for _, w := range wins {
		obj, ok := w.(map[string]any)
		if !ok {
			return nil, &LoadError{Line: lineNum, Reason: "ROUND_END Wins element is not an object"}
		}
		seat, ok := asInt(obj["WinnerSeat"])
		if !ok {
			return nil, &LoadError{Line: lineNum, Reason: "ROUND_END Wins element missing WinnerSeat"}
		}
		seats = append(seats, seat)
	}
	return seats, nil
}
