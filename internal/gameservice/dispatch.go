package gameservice

import "mahjongserver/internal/mahjong"

// dispatchAction routes one validated action onto the pure transition
// functions, picking between "this is a response to the open call
// prompt" and "this is seat's own turn action" based on round state
// rather than on the action name alone (CALL_KAN, for instance, means
// two different things depending on kan_type and whether a prompt is
// open).
func dispatchAction(gs mahjong.GameState, seat int, action GameAction, data ActionData) (mahjong.GameState, []mahjong.Event, error) {
	if err := validateActionData(action, data); err != nil {
		return gs, nil, err
	}

	rs := gs.Round
	if rs.PendingCallPrompt != nil && rs.PendingCallPrompt.PendingSeats[seat] {
		return dispatchCallResponse(gs, seat, action, data)
	}

	switch action {
	case ActionDiscard:
		tileID, err := tileIDField(data)
		if err != nil {
			return gs, nil, err
		}
		return mahjong.ApplyDiscard(gs, seat, tileID, false, false)
	case ActionDeclareRiichi:
		tileID, err := tileIDField(data)
		if err != nil {
			return gs, nil, err
		}
		return mahjong.ApplyDiscard(gs, seat, tileID, false, true)
	case ActionDeclareTsumo:
		return mahjong.ApplyTsumo(gs)
	case ActionCallKyuushu:
		return mahjong.ApplyKyuushuKyuuhai(gs, seat)
	case ActionCallKan:
		tileID, err := tileIDField(data)
		if err != nil {
			return gs, nil, err
		}
		kt := KanType(data["kan_type"].(string))
		switch kt {
		case KanClosed:
			return mahjong.ApplyClosedKan(gs, seat, tileID.Type())
		case KanAdded:
			return mahjong.ApplyAddedKan(gs, seat, tileID.Type())
		default:
			return gs, nil, &ValidationError{Reason: "an open kan must respond to a discard, not be declared standalone"}
		}
	default:
		return gs, nil, &ValidationError{Reason: "action not valid outside an open call prompt"}
	}
}

// dispatchCallResponse resolves a GameAction that answers this seat's
// entry in the currently open call prompt.
func dispatchCallResponse(gs mahjong.GameState, seat int, action GameAction, data ActionData) (mahjong.GameState, []mahjong.Event, error) {
	prompt := gs.Round.PendingCallPrompt
	switch action {
	case ActionPass:
		return mahjong.ApplyCallResponse(gs, seat, mahjong.CallResponsePass, nil)
	case ActionCallRon:
		return mahjong.ApplyCallResponse(gs, seat, mahjong.CallResponseRon, nil)
	case ActionCallPon, ActionCallChi, ActionCallKan:
		meld, err := findMeldOption(prompt, seat, action, data)
		if err != nil {
			return gs, nil, err
		}
		return mahjong.ApplyCallResponse(gs, seat, mahjong.CallResponseMeld, meld)
	default:
		return gs, nil, &ValidationError{Reason: "action does not answer the open call prompt"}
	}
}

// findMeldOption looks up the precomputed meld option this seat was
// offered, rather than trusting the client to construct a Meld itself.
// A chi response additionally has to pick among the (up to three)
// sequence variants by matching the submitted sequence_tiles.
func findMeldOption(prompt *mahjong.PendingCallPrompt, seat int, action GameAction, data ActionData) (*mahjong.Meld, error) {
	if prompt == nil {
		return nil, &ValidationError{Reason: "no call prompt is open"}
	}
	wantType := map[GameAction]mahjong.MeldType{
		ActionCallPon: mahjong.MeldPon,
		ActionCallChi: mahjong.MeldChi,
		ActionCallKan: mahjong.MeldOpenKan,
	}[action]

	var wantSeq [2]mahjong.Tile
	hasWantSeq := false
	if action == ActionCallChi {
		if pair, ok := sequenceTilesField(data); ok {
			wantSeq = [2]mahjong.Tile{mahjong.Tile(pair[0]), mahjong.Tile(pair[1])}
		}
		hasWantSeq = true
	}

	for _, entry := range prompt.Callers {
		if entry.Seat != seat || entry.MeldOption == nil || entry.MeldOption.Type != wantType {
			continue
		}
		if !hasWantSeq {
			m := *entry.MeldOption
			return &m, nil
		}
		if meldMatchesSequence(*entry.MeldOption, wantSeq) {
			m := *entry.MeldOption
			return &m, nil
		}
	}
	return nil, &ValidationError{Reason: "no matching meld option for this seat"}
}

func meldMatchesSequence(m mahjong.Meld, seq [2]mahjong.Tile) bool {
	found := map[mahjong.Tile]bool{}
	for _, t := range m.Tiles {
		if t != m.CalledTileID {
			found[t] = true
		}
	}
	return found[seq[0]] && found[seq[1]]
}
