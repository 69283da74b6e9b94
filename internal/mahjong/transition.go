package mahjong

// This file wires together wall, hand, win, yaku, score, and call
// resolution into the actual state transitions a round goes through:
// draw, discard, call-prompt responses, and round settlement. Every
// function takes a value and returns a new value; none mutate their
// arguments, matching RoundState/GameState's copy-on-write convention.

// ApplyDraw draws the next tile for the current player and returns the
// updated game state plus the events produced. ok is false when the
// wall is exhausted, which the caller resolves as an exhaustive draw.
func ApplyDraw(gs GameState) (GameState, []Event, bool) {
	rs := CloneRound(gs.Round)
	wall, tile, ok := rs.Wall.Draw()
	if !ok {
		return gs, nil, false
	}
	rs.Wall = wall
	seat := rs.CurrentPlayerSeat
	rs.Players[seat].Tiles = append(rs.Players[seat].Tiles, tile)
	rs.Players[seat].IsRinshan = false

	ngs := CloneGame(gs)
	ngs.Round = rs
	events := []Event{DrawEvent{Seat: seat, TileID: tile, TilesRemaining: rs.Wall.TilesRemaining()}}
	return ngs, events, true
}

// ApplyReplacementDraw draws a rinshan tile for a kan and marks the
// drawing player's next win eligible for rinshan kaihou.
func ApplyReplacementDraw(gs GameState, seat int) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	wall, tile, err := rs.Wall.DrawFromDeadWall()
	if err != nil {
		return gs, nil, err
	}
	rs.Wall = wall
	rs.Players[seat].Tiles = append(rs.Players[seat].Tiles, tile)
	rs.Players[seat].IsRinshan = true

	ngs := CloneGame(gs)
	ngs.Round = rs
	events := []Event{DrawEvent{Seat: seat, TileID: tile, FromDeadWall: true, TilesRemaining: rs.Wall.TilesRemaining()}}
	return ngs, events, nil
}

// ApplyDiscard removes tileID from seat's hand, records the discard,
// and opens a call prompt for every other seat that can ron, pon, kan,
// or (for the next seat only) chi on it. If nobody can respond, the
// round advances immediately to the next player's draw.
func ApplyDiscard(gs GameState, seat int, tileID Tile, isTsumogiri bool, declareRiichi bool) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	player := rs.Players[seat]
	idx := indexOfTile(player.Tiles, tileID)
	if idx < 0 {
		return gs, nil, &InvalidDiscardError{Reason: "tile not in hand"}
	}
	remainingTiles := append(append([]Tile(nil), player.Tiles[:idx:idx]...), player.Tiles[idx+1:]...)
	if declareRiichi {
		remainingHand := player
		remainingHand.Tiles = remainingTiles
		if !canDeclareRiichi(remainingHand, rs.Wall) {
			return gs, nil, &InvalidActionError{Reason: "riichi requirements not met"}
		}
	}
	isRiichiDiscard := declareRiichi
	player.Tiles = remainingTiles
	discard := Discard{TileID: tileID, IsTsumogiri: isTsumogiri, IsRiichiDiscard: isRiichiDiscard}
	player.Discards = append(player.Discards, discard)
	rs.Players[seat] = player
	rs.AllDiscards = append(rs.AllDiscards, discard)
	if !rs.AnyCallMade {
		rs.FirstGoAroundDiscards++
	}

	events := []Event{DiscardEvent{Seat: seat, TileID: tileID, IsTsumogiri: isTsumogiri, IsRiichiDiscard: isRiichiDiscard}}

	callers := computeCallOptions(rs, seat, tileID)
	ngs := CloneGame(gs)
	ngs.Round = rs
	if len(callers) == 0 {
		return advanceAfterNoCalls(ngs, seat, events)
	}

	pending := map[int]bool{}
	for _, c := range callers {
		pending[c.Seat] = true
	}
	rs.PendingCallPrompt = &PendingCallPrompt{
		CallType:     CallPromptDiscard,
		TileID:       tileID,
		FromSeat:     seat,
		Callers:      callers,
		PendingSeats: pending,
	}
	rs.Phase = PhasePlaying
	ngs.Round = rs
	events = append(events, CallPromptEvent{CallType: CallPromptDiscard, TileID: tileID, FromSeat: seat, Callers: callers})
	return ngs, events, nil
}

func indexOfTile(tiles []Tile, id Tile) int {
	for i, t := range tiles {
		if t == id {
			return i
		}
	}
	return -1
}

// computeCallOptions lists every other seat's available response to a
// discard: ron for anyone whose hand completes, pon/kan for anyone
// holding two (or three) matching tiles, chi only for the seat whose
// turn follows the discarder.
func computeCallOptions(rs RoundState, discarder int, tile Tile) []CallerEntry {
	var callers []CallerEntry
	for offset := 1; offset <= 3; offset++ {
		seat := mod4(discarder + offset)
		p := rs.Players[seat]
		ctx := YakuContext{Player: p, WinningTile: tile, SeatWind: SeatWind(seat, rs.DealerSeat), RoundWind: rs.RoundWind}
		if CanCallRon(ctx) {
			callers = append(callers, CallerEntry{Seat: seat, IsRon: true})
		}
		if m, ok := ponOption(p, tile, seat, discarder); ok {
			callers = append(callers, CallerEntry{Seat: seat, MeldOption: &m})
		}
		if m, ok := kanOption(p, tile, seat, discarder); ok {
			callers = append(callers, CallerEntry{Seat: seat, MeldOption: &m})
		}
		if offset == 1 {
			for _, m := range chiOptions(p, tile, seat, discarder) {
				mm := m
				callers = append(callers, CallerEntry{Seat: seat, MeldOption: &mm})
			}
		}
	}
	return callers
}

func ponOption(p Player, tile Tile, seat, fromSeat int) (Meld, bool) {
	matches := matchingTiles(p.Tiles, tile.Type())
	if len(matches) < 2 {
		return Meld{}, false
	}
	tiles := append([]Tile{tile}, matches[:2]...)
	return Meld{Type: MeldPon, Tiles: tiles, Opened: true, CalledTileID: tile, CallerSeat: seat, FromSeat: fromSeat, HasFromSeat: true}, true
}

func kanOption(p Player, tile Tile, seat, fromSeat int) (Meld, bool) {
	matches := matchingTiles(p.Tiles, tile.Type())
	if len(matches) < 3 {
		return Meld{}, false
	}
	tiles := append([]Tile{tile}, matches[:3]...)
	return Meld{Type: MeldOpenKan, Tiles: tiles, Opened: true, CalledTileID: tile, CallerSeat: seat, FromSeat: fromSeat, HasFromSeat: true}, true
}

func chiOptions(p Player, tile Tile, seat, fromSeat int) []Meld {
	tt := tile.Type()
	if !tt.IsNumber() {
		return nil
	}
	counts := Hand34(p.Tiles)
	var out []Meld
	v := tt.NumberValue()
	suitBase := tt - TileType(v-1)
	tryRun := func(lowVal int) {
		if lowVal < 1 || lowVal+2 > 9 {
			return
		}
		low := suitBase + TileType(lowVal-1)
		need := [3]TileType{low, low + 1, low + 2}
		for _, n := range need {
			if n == tt {
				continue
			}
			if counts[n] < 1 {
				return
			}
		}
		var tiles []Tile
		for _, n := range need {
			if n == tt {
				tiles = append(tiles, tile)
				continue
			}
			tiles = append(tiles, firstOfType(p.Tiles, n))
		}
		out = append(out, Meld{Type: MeldChi, Tiles: tiles, Opened: true, CalledTileID: tile, CallerSeat: seat, FromSeat: fromSeat, HasFromSeat: true})
	}
	tryRun(v - 2)
	tryRun(v - 1)
	tryRun(v)
	return out
}

func matchingTiles(tiles []Tile, tt TileType) []Tile {
	var out []Tile
	for _, t := range tiles {
		if t.Type() == tt {
			out = append(out, t)
		}
	}
	return out
}

func firstOfType(tiles []Tile, tt TileType) Tile {
	for _, t := range tiles {
		if t.Type() == tt {
			return t
		}
	}
	return -1
}

// ApplyCallResponse records one seat's answer to the current call
// prompt and, once every pending seat has answered, resolves it.
func ApplyCallResponse(gs GameState, seat int, action CallResponseAction, meld *Meld) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	prompt := rs.PendingCallPrompt
	if prompt == nil || !prompt.PendingSeats[seat] {
		return gs, nil, &InvalidActionError{Reason: "no pending call for this seat"}
	}
	prompt.Responses = append(prompt.Responses, CallResponse{Seat: seat, Action: action, Meld: meld})
	delete(prompt.PendingSeats, seat)
	if action == CallResponseMeld || action == CallResponseRon {
		rs.AnyCallMade = true
	}

	ngs := CloneGame(gs)
	ngs.Round = rs
	if len(prompt.PendingSeats) > 0 {
		return ngs, nil, nil
	}
	return resolveCallPrompt(ngs, prompt)
}

func resolveCallPrompt(gs GameState, prompt *PendingCallPrompt) (GameState, []Event, error) {
	resolution := ResolvePendingCall(prompt)
	rs := CloneRound(gs.Round)
	rs.PendingCallPrompt = nil
	ngs := CloneGame(gs)
	ngs.Round = rs

	switch resolution.Kind {
	case ResolutionTripleRon:
		return settleAbortiveDraw(ngs, RoundEndTripleRon)
	case ResolutionRon:
		return settleRon(ngs, resolution.RonSeats, prompt)
	case ResolutionMeld:
		return settleMeldCall(ngs, resolution, prompt)
	default:
		if prompt.CallType == CallPromptChankan {
			return settleChankanDeclined(ngs, prompt)
		}
		return settleAllPassed(ngs, prompt)
	}
}

// settleChankanDeclined completes the added kan once everyone has
// passed on the chance to rob it, drawing its replacement tile.
func settleChankanDeclined(gs GameState, prompt *PendingCallPrompt) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	rs.KanCount++
	if rs.KanCallerSeats == nil {
		rs.KanCallerSeats = map[int]int{}
	}
	rs.KanCallerSeats[prompt.FromSeat]++
	rs.Wall = rs.Wall.IncrementPendingDora()
	ngs := CloneGame(gs)
	ngs.Round = rs
	if CheckFourKans(rs) {
		return settleAbortiveDraw(ngs, RoundEndFourKans)
	}
	return ApplyReplacementDraw(ngs, prompt.FromSeat)
}

func settleRon(gs GameState, ronSeats []int, prompt *PendingCallPrompt) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	var wins []WinResult
	var deltas [4]int
	for _, seat := range ronSeats {
		p := rs.Players[seat]
		candidate := append(append([]Tile(nil), p.Tiles...), prompt.TileID)
		ctx := YakuContext{
			Player:            p,
			WinningTile:       prompt.TileID,
			SeatWind:          SeatWind(seat, rs.DealerSeat),
			RoundWind:         rs.RoundWind,
			IsHoutei:          rs.Wall.IsExhausted(),
			IsChankan:         prompt.CallType == CallPromptChankan,
			DoraIndicators:    rs.Wall.DoraIndicators,
			UraDoraIndicators: rs.Wall.CollectUraDoraIndicators(false, len(rs.Wall.DoraIndicators)),
		}
		ctx.Player.Tiles = candidate
		hand, ok := EvaluateWin(ctx)
		if !ok {
			continue
		}
		isDealer := seat == rs.DealerSeat
		pts := ScoreRon(hand, isDealer, gs.HonbaSticks)
		deltas[seat] += pts
		deltas[prompt.FromSeat] -= pts
		wins = append(wins, winResultFromHand(hand, seat, prompt.FromSeat, false))
	}
	return finishRound(gs, rs, RoundEndRon, wins, deltas)
}

func winResultFromHand(hand EvaluatedHand, winnerSeat, fromSeat int, isTsumo bool) WinResult {
	var yaku []Yaku
	dora, ura, aka, yakumanCount := 0, 0, 0, 0
	for _, y := range hand.Yaku {
		yaku = append(yaku, y.Yaku)
		switch y.Yaku {
		case YakuDora:
			dora += y.Han
		case YakuUraDora:
			ura += y.Han
		case YakuAkaDora:
			aka += y.Han
		}
	}
	if hand.YakumanMultiplier > 0 {
		yakumanCount = hand.YakumanMultiplier
	}
	return WinResult{
		WinnerSeat:   winnerSeat,
		Han:          hand.Han,
		Fu:           hand.Fu,
		Yaku:         yaku,
		YakumanCount: yakumanCount,
		DoraCount:    dora,
		UraDoraCount: ura,
		AkaDoraCount: aka,
		IsTsumo:      isTsumo,
		FromSeat:     fromSeat,
	}
}

func settleMeldCall(gs GameState, resolution CallResolution, prompt *PendingCallPrompt) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	seat := resolution.MeldSeat
	p := rs.Players[seat]
	meld := Meld{
		Type: resolution.MeldType, Tiles: resolution.MeldTiles, Opened: true,
		CalledTileID: prompt.TileID, CallerSeat: seat, FromSeat: prompt.FromSeat, HasFromSeat: true,
	}
	remaining := removeCalledTilesFromHand(p.Tiles, meld.Tiles, prompt.TileID)
	p.Tiles = remaining
	p.Melds = append(p.Melds, meld)
	rs.Players[seat] = p
	rs.PlayersWithOpenHands[seat] = true
	rs.CurrentPlayerSeat = seat
	rs.AnyCallMade = true

	ngs := CloneGame(gs)
	ngs.Round = rs
	events := []Event{MeldEvent{Seat: seat, MeldType: meld.Type, Tiles: meld.Tiles, FromSeat: prompt.FromSeat}}

	if meld.Type.IsKan() {
		rs.KanCount++
		if rs.KanCallerSeats == nil {
			rs.KanCallerSeats = map[int]int{}
		}
		rs.KanCallerSeats[seat]++
		rs.Wall = rs.Wall.IncrementPendingDora()
		ngs.Round = rs
		if CheckFourKans(rs) {
			return settleAbortiveDraw(ngs, RoundEndFourKans)
		}
		drawGs, drawEvents, err := ApplyReplacementDraw(ngs, seat)
		if err != nil {
			return ngs, events, err
		}
		return drawGs, append(events, drawEvents...), nil
	}

	return ngs, events, nil
}

func removeCalledTilesFromHand(hand []Tile, meldTiles []Tile, called Tile) []Tile {
	remove := make([]Tile, 0, len(meldTiles))
	for _, t := range meldTiles {
		if t == called {
			continue
		}
		remove = append(remove, t)
	}
	out := append([]Tile(nil), hand...)
	for _, r := range remove {
		idx := indexOfTile(out, r)
		if idx >= 0 {
			out = append(out[:idx:idx], out[idx+1:]...)
		}
	}
	return out
}

func settleAllPassed(gs GameState, prompt *PendingCallPrompt) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	var events []Event
	if rs.Wall.PendingDoraCount > 0 {
		wall, revealed, err := rs.Wall.RevealPendingDora()
		if err == nil {
			rs.Wall = wall
			events = append(events, DoraRevealedEvent{Indicators: revealed})
		}
	}
	discarder := rs.Players[prompt.FromSeat]
	if len(discarder.Discards) > 0 && discarder.Discards[len(discarder.Discards)-1].IsRiichiDiscard && !discarder.IsRiichi {
		discarder.IsRiichi = true
		discarder.IsIppatsu = true
		rs.Players[prompt.FromSeat] = discarder
		events = append(events, RiichiDeclaredEvent{Seat: prompt.FromSeat, IsDaburi: discarder.IsDaburi})
		if CheckFourRiichi(rs) {
			ngs := CloneGame(gs)
			ngs.Round = rs
			return settleAbortiveDraw(ngs, RoundEndFourRiichi)
		}
	}
	if CheckFourWinds(rs) {
		ngs := CloneGame(gs)
		ngs.Round = rs
		return settleAbortiveDraw(ngs, RoundEndFourWinds)
	}

	rs.CurrentPlayerSeat = mod4(prompt.FromSeat + 1)
	rs.TurnCount++
	for seat := range rs.Players {
		if seat != prompt.FromSeat {
			rs.Players[seat].IsIppatsu = false
		}
	}
	ngs := CloneGame(gs)
	ngs.Round = rs
	if rs.Wall.IsExhausted() {
		return settleExhaustiveDraw(ngs)
	}
	drawGs, drawEvents, ok := ApplyDraw(ngs)
	if !ok {
		return settleExhaustiveDraw(ngs)
	}
	return drawGs, append(events, drawEvents...), nil
}

func advanceAfterNoCalls(gs GameState, fromSeat int, priorEvents []Event) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	if rs.Wall.PendingDoraCount > 0 {
		wall, revealed, err := rs.Wall.RevealPendingDora()
		if err == nil {
			rs.Wall = wall
			priorEvents = append(priorEvents, DoraRevealedEvent{Indicators: revealed})
		}
	}
	rs.CurrentPlayerSeat = mod4(fromSeat + 1)
	rs.TurnCount++
	ngs := CloneGame(gs)
	ngs.Round = rs
	if rs.Wall.IsExhausted() {
		return settleExhaustiveDraw(ngs)
	}
	drawGs, drawEvents, ok := ApplyDraw(ngs)
	if !ok {
		return settleExhaustiveDraw(ngs)
	}
	return drawGs, append(priorEvents, drawEvents...), nil
}

func settleExhaustiveDraw(gs GameState) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	var tenpaiSeats []int
	for seat, p := range rs.Players {
		if len(GetWaitingTiles(p.Tiles, p.Melds)) > 0 {
			tenpaiSeats = append(tenpaiSeats, seat)
		}
	}
	var deltas [4]int
	if len(tenpaiSeats) > 0 && len(tenpaiSeats) < 4 {
		share := 3000 / len(tenpaiSeats)
		payShare := 3000 / (4 - len(tenpaiSeats))
		tenpaiSet := map[int]bool{}
		for _, s := range tenpaiSeats {
			tenpaiSet[s] = true
			deltas[s] += share
		}
		for seat := range rs.Players {
			if !tenpaiSet[seat] {
				deltas[seat] -= payShare
			}
		}
	}
	return finishRound(gs, rs, RoundEndExhaustive, nil, deltas)
}

func settleAbortiveDraw(gs GameState, kind RoundEndKind) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	var deltas [4]int
	return finishRound(gs, rs, kind, nil, deltas)
}

// finishRound applies score deltas, updates the honba and riichi-stick
// counts, and emits the round-end and (if the game is over) game-end
// events. The dealer itself rotates in StartNextRound.
func finishRound(gs GameState, rs RoundState, kind RoundEndKind, wins []WinResult, deltas [4]int) (GameState, []Event, error) {
	rs.Phase = PhaseFinished
	ngs := CloneGame(gs)
	ngs.Round = rs
	for seat := range ngs.Round.Players {
		ngs.Round.Players[seat].Score += deltas[seat]
	}

	dealerWonOrTenpai := RoundKeepsDealer(kind, wins, deltas, ngs.Round.DealerSeat)
	if dealerWonOrTenpai {
		ngs.HonbaSticks++
	} else {
		ngs.HonbaSticks = 0
	}
	if len(wins) > 0 {
		ngs.RiichiSticks = 0
	}

	var newScores [4]int
	for i, p := range ngs.Round.Players {
		newScores[i] = p.Score
	}
	events := []Event{RoundEndEvent{Kind: kind, Wins: wins, ScoreDeltas: deltas, NewScores: newScores}}

	if ngs.RoundNumber+1 >= totalRoundsForSettings(ngs.Settings) && !dealerWonOrTenpai {
		ngs.Phase = GameFinished
		events = append(events, gameEndEvent(ngs))
	}
	return ngs, events, nil
}

// RoundKeepsDealer reports whether the round's outcome keeps the current
// dealer seated for another hand (a win or qualifying draw by the dealer),
// exported so callers outside the package can decide when to advance to
// StartNextRound with dealerRetained=false.
func RoundKeepsDealer(kind RoundEndKind, wins []WinResult, deltas [4]int, dealerSeat int) bool {
	if kind == RoundEndExhaustive || kind == RoundEndFourWinds || kind == RoundEndFourRiichi || kind == RoundEndFourKans || kind == RoundEndTripleRon {
		return deltas[dealerSeat] >= 0
	}
	for _, w := range wins {
		if w.WinnerSeat == dealerSeat {
			return true
		}
	}
	return false
}

func totalRoundsForSettings(s Settings) int {
	return 8 // east + south, four dealers each; hanchan length is fixed regardless of target score
}

func gameEndEvent(gs GameState) Event {
	var finals [4]int
	for i, p := range gs.Round.Players {
		finals[i] = p.Score
	}
	placements := rankSeats(finals)
	return GameEndEvent{FinalScores: finals, Placements: placements}
}

func rankSeats(scores [4]int) [4]int {
	order := [4]int{0, 1, 2, 3}
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && scores[order[j-1]] < scores[order[j]]; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
	var placements [4]int
	for rank, seat := range order {
		placements[seat] = rank
	}
	return placements
}

// StartNextRound deals a fresh wall for the next round, rotating the
// dealer when the previous round wasn't kept.
func StartNextRound(gs GameState, dealerRetained bool) (GameState, []Event, error) {
	ngs := CloneGame(gs)
	if !dealerRetained {
		ngs.RoundNumber++
		ngs.UniqueDealers++
	}
	dealerSeat := mod4(ngs.UniqueDealers)
	roundWind := WindEast
	if ngs.UniqueDealers >= 4 {
		roundWind = WindSouth
	}
	wall, err := NewWall(ngs.Seed, uint32(ngs.RoundNumber), dealerSeat)
	if err != nil {
		return gs, nil, err
	}
	wall, hands, err := DealInitialHands(wall, dealerSeat)
	if err != nil {
		return gs, nil, err
	}

	var players [4]Player
	for seat := 0; seat < 4; seat++ {
		players[seat] = Player{Seat: seat, Tiles: hands[seat], Score: ngs.Round.Players[seat].Score}
	}

	ngs.Round = RoundState{
		Wall:                 wall,
		Players:              players,
		DealerSeat:           dealerSeat,
		CurrentPlayerSeat:    dealerSeat,
		RoundWind:            roundWind,
		Phase:                PhasePlaying,
		PlayersWithOpenHands: map[int]bool{},
		KanCallerSeats:       map[int]int{},
	}

	events := []Event{RoundStartedEvent{
		DealerSeat: dealerSeat, RoundWind: roundWind, RoundNumber: ngs.RoundNumber,
		Honba: ngs.HonbaSticks, RiichiSticks: ngs.RiichiSticks, DealerDice: wall.Dice,
	}}
	return ngs, events, nil
}

func canDeclareRiichi(p Player, w Wall) bool {
	if p.IsRiichi || !p.IsMenzen() {
		return false
	}
	if p.Score < 1000 {
		return false
	}
	if w.TilesRemaining() < 4 {
		return false
	}
	return len(GetWaitingTiles(p.Tiles, p.Melds)) > 0
}

// ApplyTsumo settles the round as a self-draw win for the current
// player, who must hold a just-drawn tile already counted in Tiles.
func ApplyTsumo(gs GameState) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	seat := rs.CurrentPlayerSeat
	p := rs.Players[seat]
	winTile := p.Tiles[len(p.Tiles)-1]
	ctx := YakuContext{
		Player:            p,
		WinningTile:       winTile,
		IsTsumo:           true,
		SeatWind:          SeatWind(seat, rs.DealerSeat),
		RoundWind:         rs.RoundWind,
		IsRinshan:         p.IsRinshan,
		IsHaitei:          rs.Wall.IsExhausted(),
		IsTenhou:          IsTenhou(seat, rs.DealerSeat, rs.TurnCount, rs.AnyCallMade),
		IsChiihou:         IsChiihou(seat, rs.DealerSeat, rs.TurnCount, rs.AnyCallMade),
		DoraIndicators:    rs.Wall.DoraIndicators,
		UraDoraIndicators: rs.Wall.CollectUraDoraIndicators(false, len(rs.Wall.DoraIndicators)),
	}
	if !CanDeclareTsumo(ctx) {
		return gs, nil, &InvalidActionError{Reason: "hand is not a winning tsumo"}
	}
	hand, _ := EvaluateWin(ctx)
	isDealer := seat == rs.DealerSeat
	dealerPay, nonDealerPay := ScoreTsumo(hand, isDealer, gs.HonbaSticks)

	var deltas [4]int
	for other := 0; other < 4; other++ {
		if other == seat {
			continue
		}
		pay := nonDealerPay
		if other == rs.DealerSeat {
			pay = dealerPay
		}
		deltas[other] -= pay
		deltas[seat] += pay
	}
	wins := []WinResult{winResultFromHand(hand, seat, seat, true)}
	return finishRound(gs, rs, RoundEndTsumo, wins, deltas)
}

// ApplyKyuushuKyuuhai settles the round as an abortive draw declared by
// a player holding nine-plus terminal/honor types on their first go.
func ApplyKyuushuKyuuhai(gs GameState, seat int) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	p := rs.Players[seat]
	isFirstTurn := len(p.Discards) == 0
	if !CheckNineTerminals(p, rs.AnyCallMade, isFirstTurn) {
		return gs, nil, &InvalidActionError{Reason: "nine terminals requirements not met"}
	}
	return settleAbortiveDraw(CloneGame(gs), RoundEndNineTerminals)
}

// ApplyClosedKan lets the current player upgrade four concealed copies
// of a tile into a closed kan, drawing a replacement tile afterward.
func ApplyClosedKan(gs GameState, seat int, tileType TileType) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	p := rs.Players[seat]
	matches := matchingTiles(p.Tiles, tileType)
	if len(matches) != 4 {
		return gs, nil, &InvalidActionError{Reason: "need all four copies for a closed kan"}
	}
	meld := Meld{Type: MeldClosedKan, Tiles: matches, Opened: false, CallerSeat: seat}
	p.Tiles = removeCalledTilesFromHand(p.Tiles, matches, -1)
	p.Melds = append(p.Melds, meld)
	rs.Players[seat] = p
	rs.KanCount++
	if rs.KanCallerSeats == nil {
		rs.KanCallerSeats = map[int]int{}
	}
	rs.KanCallerSeats[seat]++
	rs.Wall = rs.Wall.IncrementPendingDora()

	ngs := CloneGame(gs)
	ngs.Round = rs
	events := []Event{MeldEvent{Seat: seat, MeldType: MeldClosedKan, Tiles: matches, FromSeat: seat}}
	if CheckFourKans(rs) {
		return settleAbortiveDraw(ngs, RoundEndFourKans)
	}
	drawGs, drawEvents, err := ApplyReplacementDraw(ngs, seat)
	if err != nil {
		return ngs, events, err
	}
	return drawGs, append(events, drawEvents...), nil
}

// ApplyAddedKan upgrades an existing pon into an added kan, opening a
// chankan prompt for anyone who can rob it before the replacement draw.
func ApplyAddedKan(gs GameState, seat int, tileType TileType) (GameState, []Event, error) {
	rs := CloneRound(gs.Round)
	p := rs.Players[seat]
	meldIdx := -1
	for i, m := range p.Melds {
		if m.Type == MeldPon && m.TileTypeOf() == tileType {
			meldIdx = i
			break
		}
	}
	if meldIdx < 0 {
		return gs, nil, &InvalidActionError{Reason: "no matching pon to upgrade"}
	}
	drawnIdx := -1
	for i, t := range p.Tiles {
		if t.Type() == tileType {
			drawnIdx = i
			break
		}
	}
	if drawnIdx < 0 {
		return gs, nil, &InvalidActionError{Reason: "need the fourth copy in hand to upgrade"}
	}
	addedTile := p.Tiles[drawnIdx]
	newMeld := p.Melds[meldIdx]
	newMeld.Type = MeldAddedKan
	newMeld.Tiles = append(append([]Tile(nil), newMeld.Tiles...), addedTile)
	p.Melds[meldIdx] = newMeld
	p.Tiles = append(p.Tiles[:drawnIdx:drawnIdx], p.Tiles[drawnIdx+1:]...)
	rs.Players[seat] = p

	var callers []CallerEntry
	for offset := 1; offset <= 3; offset++ {
		other := mod4(seat + offset)
		op := rs.Players[other]
		ctx := YakuContext{Player: op, WinningTile: addedTile, SeatWind: SeatWind(other, rs.DealerSeat), RoundWind: rs.RoundWind, IsChankan: true}
		if IsChankanPossible(ctx, addedTile) && CanCallRon(ctx) {
			callers = append(callers, CallerEntry{Seat: other, IsRon: true})
		}
	}

	ngs := CloneGame(gs)
	events := []Event{MeldEvent{Seat: seat, MeldType: MeldAddedKan, Tiles: newMeld.Tiles, FromSeat: seat}}
	if len(callers) == 0 {
		rs.KanCount++
		if rs.KanCallerSeats == nil {
			rs.KanCallerSeats = map[int]int{}
		}
		rs.KanCallerSeats[seat]++
		rs.Wall = rs.Wall.IncrementPendingDora()
		ngs.Round = rs
		if CheckFourKans(rs) {
			return settleAbortiveDraw(ngs, RoundEndFourKans)
		}
		drawGs, drawEvents, err := ApplyReplacementDraw(ngs, seat)
		if err != nil {
			return ngs, events, err
		}
		return drawGs, append(events, drawEvents...), nil
	}

	pending := map[int]bool{}
	for _, c := range callers {
		pending[c.Seat] = true
	}
	rs.PendingCallPrompt = &PendingCallPrompt{CallType: CallPromptChankan, TileID: addedTile, FromSeat: seat, Callers: callers, PendingSeats: pending}
	ngs.Round = rs
	events = append(events, CallPromptEvent{CallType: CallPromptChankan, TileID: addedTile, FromSeat: seat, Callers: callers})
	return ngs, events, nil
}
