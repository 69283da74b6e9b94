package gameservice

import "mahjongserver/internal/mahjong"

// CallKind tells GetCallResponse which flavor of call opportunity a seat
// is being asked about.
type CallKind int

const (
	CallKindRon CallKind = iota
	CallKindChankan
	CallKindMeld
)

// AIDecision is what an AIPlayer wants to do on its own turn.
type AIDecision struct {
	Action GameAction
	Data   ActionData
}

// AIPlayer decides actions for one AI-controlled seat. The turn pump
// calls GetTurnAction once per committed transition while this seat is
// current and no call prompt is pending; it calls the ShouldCall*
// methods once per seat while a call prompt is open.
type AIPlayer interface {
	GetTurnAction(player mahjong.Player, rs mahjong.RoundState) (AIDecision, bool)
	ShouldCallPon(player mahjong.Player, discarded mahjong.Tile, rs mahjong.RoundState) bool
	ShouldCallChi(player mahjong.Player, discarded mahjong.Tile, options []mahjong.Meld, rs mahjong.RoundState) (*mahjong.Meld, bool)
	ShouldCallKan(player mahjong.Player, kanType KanType, tileType mahjong.TileType, rs mahjong.RoundState) bool
	ShouldCallRon(player mahjong.Player, discarded mahjong.Tile, rs mahjong.RoundState) bool
}

// TsumogiriAI is the simplest AI strategy: discard whatever was just
// drawn, decline every call opportunity. It exists as the fallback
// filler for AI seats until a real strategy is registered; the rest of
// the interface is designed so a scoring-aware strategy can slot in
// without touching the turn pump.
type TsumogiriAI struct{}

func (TsumogiriAI) GetTurnAction(player mahjong.Player, _ mahjong.RoundState) (AIDecision, bool) {
	if len(player.Tiles) == 0 {
		return AIDecision{}, false
	}
	lastTile := player.Tiles[len(player.Tiles)-1]
	return AIDecision{Action: ActionDiscard, Data: ActionData{"tile_id": int(lastTile)}}, true
}

func (TsumogiriAI) ShouldCallPon(mahjong.Player, mahjong.Tile, mahjong.RoundState) bool { return false }

func (TsumogiriAI) ShouldCallChi(mahjong.Player, mahjong.Tile, []mahjong.Meld, mahjong.RoundState) (*mahjong.Meld, bool) {
	return nil, false
}

func (TsumogiriAI) ShouldCallKan(mahjong.Player, KanType, mahjong.TileType, mahjong.RoundState) bool {
	return false
}

func (TsumogiriAI) ShouldCallRon(mahjong.Player, mahjong.Tile, mahjong.RoundState) bool { return false }

// AIPlayerController routes round-state queries to the registered AI for
// each seat and maps its decision onto a (GameAction, ActionData) pair
// ready for the same dispatch path a human action would take.
type AIPlayerController struct {
	players map[int]AIPlayer
}

// NewAIPlayerController builds a controller from an initial seat->AI map
// (seats absent from the map are treated as human).
func NewAIPlayerController(seed map[int]AIPlayer) *AIPlayerController {
	players := make(map[int]AIPlayer, len(seed))
	for seat, ai := range seed {
		players[seat] = ai
	}
	return &AIPlayerController{players: players}
}

func (c *AIPlayerController) IsAIPlayer(seat int) bool {
	_, ok := c.players[seat]
	return ok
}

func (c *AIPlayerController) AddAIPlayer(seat int, ai AIPlayer) {
	c.players[seat] = ai
}

// GetTurnAction returns the action an AI seat wants to take on its own
// turn, or ok=false if the seat is not AI-controlled or the AI has
// nothing to do.
func (c *AIPlayerController) GetTurnAction(seat int, rs mahjong.RoundState) (GameAction, ActionData, bool) {
	ai, isAI := c.players[seat]
	if !isAI {
		return "", nil, false
	}
	decision, ok := ai.GetTurnAction(rs.Players[seat], rs)
	if !ok {
		return "", nil, false
	}
	return decision.Action, decision.Data, true
}

// GetCallResponse returns the action an AI seat wants to take in
// response to a pending call prompt, or ok=false to mean pass/decline.
func (c *AIPlayerController) GetCallResponse(seat int, rs mahjong.RoundState, kind CallKind, tileID mahjong.Tile, caller *mahjong.CallerEntry) (GameAction, ActionData, bool) {
	ai, isAI := c.players[seat]
	if !isAI {
		return "", nil, false
	}
	player := rs.Players[seat]

	switch kind {
	case CallKindRon, CallKindChankan:
		if ai.ShouldCallRon(player, tileID, rs) {
			return ActionCallRon, ActionData{}, true
		}
		return "", nil, false
	case CallKindMeld:
		if caller == nil || caller.MeldOption == nil {
			return "", nil, false
		}
		meld := caller.MeldOption
		switch meld.Type {
		case mahjong.MeldPon:
			if ai.ShouldCallPon(player, tileID, rs) {
				return ActionCallPon, ActionData{"tile_id": int(tileID)}, true
			}
		case mahjong.MeldChi:
			options := chiOptionsForSeat(rs, seat, tileID)
			if chosen, ok := ai.ShouldCallChi(player, tileID, options, rs); ok && chosen != nil {
				return ActionCallChi, ActionData{
					"tile_id":        int(tileID),
					"sequence_tiles": [2]int{int(chosen.Tiles[0]), int(chosen.Tiles[1])},
				}, true
			}
		case mahjong.MeldOpenKan:
			if ai.ShouldCallKan(player, KanOpen, meld.TileTypeOf(), rs) {
				return ActionCallKan, ActionData{"tile_id": int(tileID), "kan_type": string(KanOpen)}, true
			}
		}
		return "", nil, false
	default:
		return "", nil, false
	}
}

// chiOptionsForSeat re-derives the candidate chi melds available to a
// seat for a given discard; the AI controller needs this to offer the
// same option set the call prompt carried.
func chiOptionsForSeat(rs mahjong.RoundState, seat int, tileID mahjong.Tile) []mahjong.Meld {
	if rs.PendingCallPrompt == nil {
		return nil
	}
	var options []mahjong.Meld
	for _, entry := range rs.PendingCallPrompt.Callers {
		if entry.Seat == seat && entry.MeldOption != nil && entry.MeldOption.Type == mahjong.MeldChi {
			options = append(options, *entry.MeldOption)
		}
	}
	return options
}
