package gameservice

import "mahjongserver/internal/mahjong"

// ReconnectionSnapshot is everything a client needs to repaint the board
// after a dropped connection: its own hand, the public table state, and
// whatever prompt (if any) is currently waiting on this seat.
type ReconnectionSnapshot struct {
	GameID            string
	Seat              int
	Hand              []mahjong.Tile
	Players           [4]PlayerView
	DealerSeat        int
	CurrentPlayerSeat int
	RoundWind         mahjong.Wind
	RoundNumber       int
	HonbaSticks       int
	RiichiSticks      int
	TilesRemaining    int
	DoraIndicators    []mahjong.Tile
	Phase             mahjong.RoundPhase
	PendingPrompt     *mahjong.CallPromptEvent
}

// PlayerView is the publicly-visible slice of another seat's state:
// everything except their concealed hand.
type PlayerView struct {
	Seat      int
	Name      string
	Score     int
	Discards  []mahjong.Discard
	Melds     []mahjong.Meld
	IsRiichi  bool
	HandCount int
}

func (a *gameActor) buildSnapshot(seat int) (ReconnectionSnapshot, error) {
	if seat < 0 || seat > 3 {
		return ReconnectionSnapshot{}, &ValidationError{Reason: "seat out of range"}
	}
	rs := a.state.Round
	var views [4]PlayerView
	for i, p := range rs.Players {
		views[i] = PlayerView{
			Seat:      p.Seat,
			Name:      a.playerNames[i],
			Score:     p.Score,
			Discards:  p.Discards,
			Melds:     p.Melds,
			IsRiichi:  p.IsRiichi,
			HandCount: len(p.Tiles),
		}
	}

	var prompt *mahjong.CallPromptEvent
	if rs.PendingCallPrompt != nil && rs.PendingCallPrompt.PendingSeats[seat] {
		prompt = seatCallPrompt(rs.PendingCallPrompt, seat)
	}

	return ReconnectionSnapshot{
		GameID:            a.gameID,
		Seat:              seat,
		Hand:              append([]mahjong.Tile(nil), rs.Players[seat].Tiles...),
		Players:           views,
		DealerSeat:        rs.DealerSeat,
		CurrentPlayerSeat: rs.CurrentPlayerSeat,
		RoundWind:         rs.RoundWind,
		RoundNumber:       a.state.RoundNumber,
		HonbaSticks:       a.state.HonbaSticks,
		RiichiSticks:      a.state.RiichiSticks,
		TilesRemaining:    rs.Wall.TilesRemaining(),
		DoraIndicators:    append([]mahjong.Tile(nil), rs.Wall.DoraIndicators...),
		Phase:             rs.Phase,
		PendingPrompt:     prompt,
	}, nil
}

// seatCallPrompt narrows a full CallerEntry list down to one seat's own
// entry (its ron entry when it has one), matching the event router's per-seat CALL_PROMPT splitting
// (component G) so a reconnecting client sees exactly what it would
// have received live.
func seatCallPrompt(prompt *mahjong.PendingCallPrompt, seat int) *mahjong.CallPromptEvent {
	var chosen *mahjong.CallerEntry
	for _, entry := range prompt.Callers {
		if entry.Seat != seat {
			continue
		}
		if chosen == nil || (entry.IsRon && !chosen.IsRon) {
			e := entry
			chosen = &e
		}
	}
	var mine []mahjong.CallerEntry
	if chosen != nil {
		mine = []mahjong.CallerEntry{*chosen}
	}
	return &mahjong.CallPromptEvent{
		CallType: prompt.CallType,
		TileID:   prompt.TileID,
		FromSeat: prompt.FromSeat,
		Callers:  mine,
	}
}
