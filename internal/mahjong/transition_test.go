package mahjong

import "testing"

// testWall returns a wall with enough live and dead tiles for a single
// draw/discard cycle without touching the RNG-derived shuffle.
func testWall(live []Tile) Wall {
	dead := make([]Tile, 14)
	for i := range dead {
		dead[i] = Tile(int(Man1)*4 + i)
	}
	return Wall{LiveTiles: live, DeadWallTiles: dead, DoraIndicators: []Tile{dead[2]}}
}

// tenpaiHand returns a 14-tile hand: discarding the trailing North tile
// leaves a 13-tile ryanmen tenpai hand waiting on 3s/6s.
func tenpaiHand() []Tile {
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man2)...)
	tiles = append(tiles, seqTiles(Man5)...)
	tiles = append(tiles, seqTiles(Pin1)...)
	tiles = append(tiles, tilesOfType(Pin9, 2)...)
	tiles = append(tiles, Tile(int(Sou4)*4), Tile(int(Sou5)*4))
	tiles = append(tiles, Tile(int(North)*4))
	return tiles
}

func baseGameState() GameState {
	var players [4]Player
	for s := 0; s < 4; s++ {
		players[s] = Player{Seat: s, Score: 25000}
	}
	rs := RoundState{
		Wall:                 testWall([]Tile{Tile(int(Sou1) * 4), Tile(int(Sou2) * 4)}),
		Players:              players,
		DealerSeat:           0,
		CurrentPlayerSeat:    0,
		RoundWind:            WindEast,
		Phase:                PhasePlaying,
		PlayersWithOpenHands: map[int]bool{},
		KanCallerSeats:       map[int]int{},
	}
	return GameState{Round: rs, RoundNumber: 0, Settings: DefaultSettings()}
}

func TestApplyDrawAddsTileAndAdvancesWall(t *testing.T) {
	gs := baseGameState()
	before := gs.Round.Wall.TilesRemaining()
	ngs, events, ok := ApplyDraw(gs)
	if !ok {
		t.Fatalf("expected a successful draw")
	}
	if len(ngs.Round.Players[0].Tiles) != 1 {
		t.Fatalf("expected drawn tile added to hand, got %d tiles", len(ngs.Round.Players[0].Tiles))
	}
	if ngs.Round.Wall.TilesRemaining() != before-1 {
		t.Fatalf("expected live wall to shrink by one")
	}
	if len(events) != 1 || events[0].EventType() != "DRAW" {
		t.Fatalf("expected a single draw event, got %v", events)
	}
}

func TestApplyDrawExhaustedWall(t *testing.T) {
	gs := baseGameState()
	gs.Round.Wall.LiveTiles = nil
	_, _, ok := ApplyDraw(gs)
	if ok {
		t.Fatalf("expected draw to fail on an exhausted wall")
	}
}

func TestApplyDiscardRemovesTileAndAdvances(t *testing.T) {
	gs := baseGameState()
	tile := Tile(int(Man1) * 4)
	gs.Round.Players[0].Tiles = []Tile{tile}
	ngs, events, err := ApplyDiscard(gs, 0, tile, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ngs.Round.Players[0].Tiles) != 0 {
		t.Fatalf("expected discarded tile removed from hand")
	}
	if len(ngs.Round.Players[0].Discards) != 1 {
		t.Fatalf("expected discard recorded")
	}
	foundDiscard := false
	for _, e := range events {
		if e.EventType() == "DISCARD" {
			foundDiscard = true
		}
	}
	if !foundDiscard {
		t.Fatalf("expected a discard event among %v", events)
	}
}

func TestApplyDiscardRejectsTileNotInHand(t *testing.T) {
	gs := baseGameState()
	_, _, err := ApplyDiscard(gs, 0, Tile(999), false, false)
	if err == nil {
		t.Fatalf("expected an error discarding a tile not in hand")
	}
}

func TestApplyDiscardRiichiDeclarationGating(t *testing.T) {
	gs := baseGameState()
	hand := tenpaiHand()
	discard := hand[len(hand)-1]
	gs.Round.Players[0].Tiles = hand
	gs.Round.Wall.LiveTiles = []Tile{Tile(int(Sou1) * 4), Tile(int(Sou2) * 4), Tile(int(Sou3) * 4), Tile(int(Sou4) * 4)}

	ngs, _, err := ApplyDiscard(gs, 0, discard, false, true)
	if err != nil {
		t.Fatalf("expected riichi declaration to succeed when tenpai: %v", err)
	}
	last := ngs.Round.Players[0].Discards[len(ngs.Round.Players[0].Discards)-1]
	if !last.IsRiichiDiscard {
		t.Fatalf("expected the discard to be marked as a riichi declaration")
	}
}

func TestApplyDiscardRiichiRejectedWhenNotTenpai(t *testing.T) {
	gs := baseGameState()
	tile := Tile(int(Man1) * 4)
	gs.Round.Players[0].Tiles = []Tile{tile, Tile(int(Man2) * 4), Tile(int(Pin9) * 4)}
	_, _, err := ApplyDiscard(gs, 0, tile, false, true)
	if err == nil {
		t.Fatalf("expected riichi declaration to be rejected when not tenpai")
	}
}

func TestDiscardOpensPonCallPromptAndResolves(t *testing.T) {
	gs := baseGameState()
	discard := Tile(int(East) * 4)
	gs.Round.Players[0].Tiles = []Tile{discard}
	gs.Round.Players[2].Tiles = []Tile{Tile(int(East)*4 + 1), Tile(int(East)*4 + 2)}

	ngs, events, err := ApplyDiscard(gs, 0, discard, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ngs.Round.PendingCallPrompt == nil {
		t.Fatalf("expected a pending call prompt for the pon option")
	}
	foundPrompt := false
	for _, e := range events {
		if e.EventType() == "CALL_PROMPT" {
			foundPrompt = true
		}
	}
	if !foundPrompt {
		t.Fatalf("expected a call prompt event")
	}

	meld := Meld{Type: MeldPon, Tiles: []Tile{discard, Tile(int(East)*4 + 1), Tile(int(East)*4 + 2)}}
	ngs2, events2, err := ApplyCallResponse(ngs, 2, CallResponseMeld, &meld)
	if err != nil {
		t.Fatalf("unexpected error resolving pon: %v", err)
	}
	if len(ngs2.Round.Players[2].Melds) != 1 {
		t.Fatalf("expected the pon meld recorded for seat 2")
	}
	if ngs2.Round.CurrentPlayerSeat != 2 {
		t.Fatalf("expected turn to jump to the caller, got seat %d", ngs2.Round.CurrentPlayerSeat)
	}
	foundMeld := false
	for _, e := range events2 {
		if e.EventType() == "MELD" {
			foundMeld = true
		}
	}
	if !foundMeld {
		t.Fatalf("expected a meld event among %v", events2)
	}
}

func TestApplyTsumoSettlesRoundAndPays(t *testing.T) {
	gs := baseGameState()
	var tiles []Tile
	tiles = append(tiles, seqTiles(Man2)...)
	tiles = append(tiles, seqTiles(Man5)...)
	tiles = append(tiles, seqTiles(Pin2)...)
	tiles = append(tiles, tilesOfType(Pin7, 2)...)
	tiles = append(tiles, seqTiles(Sou4)...)
	gs.Round.Players[0].Tiles = tiles
	gs.Round.Players[0].Seat = 0
	gs.Round.DealerSeat = 0
	gs.Round.CurrentPlayerSeat = 0

	ngs, events, err := ApplyTsumo(gs)
	if err != nil {
		t.Fatalf("expected a winning tsumo: %v", err)
	}
	if ngs.Round.Phase != PhaseFinished {
		t.Fatalf("expected the round to finish")
	}
	if ngs.Round.Players[0].Score <= 25000 {
		t.Fatalf("expected the winner's score to increase, got %d", ngs.Round.Players[0].Score)
	}
	foundEnd := false
	for _, e := range events {
		if e.EventType() == "ROUND_END" {
			foundEnd = true
		}
	}
	if !foundEnd {
		t.Fatalf("expected a round-end event among %v", events)
	}
}

func TestApplyTsumoRejectsNonWinningHand(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Tiles = []Tile{Tile(int(Man1) * 4), Tile(int(Man3) * 4), Tile(int(Man5) * 4)}
	_, _, err := ApplyTsumo(gs)
	if err == nil {
		t.Fatalf("expected an error for a non-winning tsumo attempt")
	}
}

func TestApplyClosedKanDrawsReplacement(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Tiles = tilesOfType(Man1, 4)
	before := gs.Round.Wall.DeadWallTiles
	ngs, events, err := ApplyClosedKan(gs, 0, Man1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ngs.Round.Players[0].Melds) != 1 || ngs.Round.Players[0].Melds[0].Type != MeldClosedKan {
		t.Fatalf("expected a closed kan meld recorded")
	}
	if len(ngs.Round.Players[0].Tiles) != 1 {
		t.Fatalf("expected the replacement draw to leave exactly one tile in hand, got %d", len(ngs.Round.Players[0].Tiles))
	}
	if len(ngs.Round.Wall.DeadWallTiles) != len(before) {
		t.Fatalf("expected the dead wall to stay the same size after replenishment")
	}
	foundDraw := false
	for _, e := range events {
		if e.EventType() == "DRAW" {
			foundDraw = true
		}
	}
	if !foundDraw {
		t.Fatalf("expected a replacement draw event among %v", events)
	}
}

func TestApplyClosedKanRejectsWithoutFourCopies(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Tiles = tilesOfType(Man1, 3)
	_, _, err := ApplyClosedKan(gs, 0, Man1)
	if err == nil {
		t.Fatalf("expected an error without all four copies")
	}
}

func TestApplyAddedKanOpensChankanPrompt(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Melds = []Meld{{Type: MeldPon, Tiles: tilesOfType(Man1, 3), Opened: true, HasFromSeat: true}}
	gs.Round.Players[0].Tiles = []Tile{Tile(int(Man1)*4 + 3)}

	// Seat 1 needs a genuine tanki wait on Man1 for chankan to apply: four
	// complete groups plus a single Man1 waiting to pair up.
	var waitingTiles []Tile
	waitingTiles = append(waitingTiles, seqTiles(Man2)...)
	waitingTiles = append(waitingTiles, seqTiles(Man5)...)
	waitingTiles = append(waitingTiles, seqTiles(Pin1)...)
	waitingTiles = append(waitingTiles, seqTiles(Sou1)...)
	waitingTiles = append(waitingTiles, Tile(int(Man1)*4+1))
	gs.Round.Players[1].Tiles = waitingTiles

	ngs, events, err := ApplyAddedKan(gs, 0, Man1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ngs.Round.Players[0].Melds[0].Type != MeldAddedKan {
		t.Fatalf("expected the pon upgraded to an added kan")
	}
	foundPrompt := false
	for _, e := range events {
		if e.EventType() == "CALL_PROMPT" {
			foundPrompt = true
		}
	}
	if !foundPrompt || ngs.Round.PendingCallPrompt == nil {
		t.Fatalf("expected a chankan prompt to open when seat 1 can rob the kan")
	}
}

func TestApplyKyuushuKyuuhaiAbortsRound(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Tiles = []Tile{
		Tile(int(Man1) * 4), Tile(int(Man9) * 4), Tile(int(Pin1) * 4), Tile(int(Pin9) * 4),
		Tile(int(Sou1) * 4), Tile(int(Sou9) * 4), Tile(int(East) * 4), Tile(int(South) * 4),
		Tile(int(West) * 4), Tile(int(North)*4 + 0), Tile(int(North)*4 + 1), Tile(int(Man2) * 4),
		Tile(int(Man3) * 4),
	}
	ngs, events, err := ApplyKyuushuKyuuhai(gs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ngs.Round.Phase != PhaseFinished {
		t.Fatalf("expected the round to end")
	}
	found := false
	for _, e := range events {
		if re, ok := e.(RoundEndEvent); ok && re.Kind == RoundEndNineTerminals {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a nine-terminals round-end event among %v", events)
	}
}

func TestStartNextRoundRotatesDealerWhenNotRetained(t *testing.T) {
	gs := baseGameState()
	gs.Seed = "ab"
	for i := 0; i < 95; i++ {
		gs.Seed += "cd"
	}
	ngs, events, err := StartNextRound(gs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ngs.RoundNumber != gs.RoundNumber+1 {
		t.Fatalf("expected round number to advance")
	}
	if ngs.Round.DealerSeat != 1 {
		t.Fatalf("expected dealer to rotate to seat 1, got %d", ngs.Round.DealerSeat)
	}
	for _, p := range ngs.Round.Players {
		if len(p.Tiles) != 13 {
			t.Fatalf("expected each seat dealt 13 tiles, got %d", len(p.Tiles))
		}
	}
	found := false
	for _, e := range events {
		if e.EventType() == "ROUND_STARTED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a round-started event among %v", events)
	}
}

func TestStartNextRoundKeepsDealerScores(t *testing.T) {
	gs := baseGameState()
	gs.Round.Players[0].Score = 30000
	gs.Seed = "ab"
	for i := 0; i < 95; i++ {
		gs.Seed += "cd"
	}
	ngs, _, err := StartNextRound(gs, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ngs.Round.DealerSeat != 0 {
		t.Fatalf("expected dealer to stay at seat 0 when retained")
	}
	if ngs.Round.Players[0].Score != 30000 {
		t.Fatalf("expected score to carry over into the new round")
	}
}
