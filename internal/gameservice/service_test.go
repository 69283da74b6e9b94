package gameservice

import (
	"testing"

	"mahjongserver/internal/mahjong"
)

func testSeed() string {
	seed := "ab"
	for i := 0; i < 95; i++ {
		seed += "cd"
	}
	return seed
}

// collectingSink records every published event for assertions; it
// stands in for the event router in tests.
type collectingSink struct {
	events []mahjong.Event
}

func (s *collectingSink) Publish(gameID string, events []mahjong.Event) {
	s.events = append(s.events, events...)
}

func TestStartGameDealsHandsAndSeatsAI(t *testing.T) {
	sink := &collectingSink{}
	svc := NewService(sink)
	names := [4]string{"alice", "ai-1", "ai-2", "ai-3"}
	aiSeats := [4]bool{false, true, true, true}

	events, err := svc.StartGame("g1", names, aiSeats, testSeed(), mahjong.DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundStart := false
	for _, e := range events {
		if e.EventType() == "GAME_STARTED" {
			foundStart = true
		}
	}
	if !foundStart {
		t.Fatalf("expected a GAME_STARTED event, got %v", events)
	}

	snap, err := svc.BuildReconnectionSnapshot("g1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Hand) != 13 && len(snap.Hand) != 14 {
		t.Fatalf("expected seat 0 to hold 13 or 14 tiles, got %d", len(snap.Hand))
	}
}

func TestStartGameRejectsDuplicateGameID(t *testing.T) {
	svc := NewService(nil)
	names := [4]string{"a", "b", "c", "d"}
	var aiSeats [4]bool
	if _, err := svc.StartGame("dup", names, aiSeats, testSeed(), mahjong.DefaultSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.StartGame("dup", names, aiSeats, testSeed(), mahjong.DefaultSettings()); err == nil {
		t.Fatalf("expected an error starting a game id twice")
	}
}

func TestHandleActionRejectsUnknownGame(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.HandleAction("nope", "alice", ActionDiscard, ActionData{"tile_id": 0}); err == nil {
		t.Fatalf("expected an error for an unknown game id")
	}
}

func TestHandleActionRejectsUnknownPlayer(t *testing.T) {
	svc := NewService(nil)
	names := [4]string{"alice", "bob", "carol", "dave"}
	var aiSeats [4]bool
	if _, err := svc.StartGame("g2", names, aiSeats, testSeed(), mahjong.DefaultSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.HandleAction("g2", "stranger", ActionDiscard, ActionData{"tile_id": 0}); err == nil {
		t.Fatalf("expected an error for a player not seated in the game")
	}
}

func TestHandleActionDiscardInvalidTileReturnsErrorEvent(t *testing.T) {
	svc := NewService(nil)
	names := [4]string{"alice", "bob", "carol", "dave"}
	var aiSeats [4]bool
	if _, err := svc.StartGame("g3", names, aiSeats, testSeed(), mahjong.DefaultSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := svc.HandleAction("g3", "alice", ActionDiscard, ActionData{"tile_id": 9999})
	if err != nil {
		t.Fatalf("expected a nil error with an ERROR event on validation failure, got %v", err)
	}
	if len(events) != 1 || events[0].EventType() != "ERROR" {
		t.Fatalf("expected a single ERROR event, got %v", events)
	}
}

func TestHandleActionDiscardValidTileEmitsDiscard(t *testing.T) {
	svc := NewService(nil)
	names := [4]string{"alice", "bob", "carol", "dave"}
	var aiSeats [4]bool
	_, err := svc.StartGame("g4", names, aiSeats, testSeed(), mahjong.DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := svc.BuildReconnectionSnapshot("g4", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dealer := snap.DealerSeat
	tileToDiscard := snap.Hand[len(snap.Hand)-1]

	events, err := svc.HandleAction("g4", names[dealer], ActionDiscard, ActionData{"tile_id": int(tileToDiscard)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundDiscard := false
	for _, e := range events {
		if e.EventType() == "DISCARD" {
			foundDiscard = true
		}
	}
	if !foundDiscard {
		t.Fatalf("expected a DISCARD event among %v", events)
	}
}

// stubTurnAI always discards the last tile and is used to exercise the
// AI turn pump end to end through the service, independent of
// TsumogiriAI's own unit coverage.
type stubTurnAI struct{ calls int }

func (a *stubTurnAI) GetTurnAction(player mahjong.Player, _ mahjong.RoundState) (AIDecision, bool) {
	a.calls++
	if len(player.Tiles) == 0 {
		return AIDecision{}, false
	}
	return AIDecision{Action: ActionDiscard, Data: ActionData{"tile_id": int(player.Tiles[len(player.Tiles)-1])}}, true
}

func (a *stubTurnAI) ShouldCallPon(mahjong.Player, mahjong.Tile, mahjong.RoundState) bool { return false }
func (a *stubTurnAI) ShouldCallChi(mahjong.Player, mahjong.Tile, []mahjong.Meld, mahjong.RoundState) (*mahjong.Meld, bool) {
	return nil, false
}
func (a *stubTurnAI) ShouldCallKan(mahjong.Player, KanType, mahjong.TileType, mahjong.RoundState) bool {
	return false
}
func (a *stubTurnAI) ShouldCallRon(mahjong.Player, mahjong.Tile, mahjong.RoundState) bool { return false }

func TestAIPlayerControllerGetTurnActionRoutesDiscard(t *testing.T) {
	ai := &stubTurnAI{}
	controller := NewAIPlayerController(map[int]AIPlayer{1: ai})

	rs := mahjong.RoundState{
		Players: [4]mahjong.Player{
			{Seat: 0, Tiles: []mahjong.Tile{0}},
			{Seat: 1, Tiles: []mahjong.Tile{5, 9}},
			{Seat: 2, Tiles: []mahjong.Tile{0}},
			{Seat: 3, Tiles: []mahjong.Tile{0}},
		},
	}

	action, data, ok := controller.GetTurnAction(1, rs)
	if !ok {
		t.Fatalf("expected the AI seat to produce a turn action")
	}
	if action != ActionDiscard || data["tile_id"] != 9 {
		t.Fatalf("expected a discard of tile 9, got %v %v", action, data)
	}

	if _, _, ok := controller.GetTurnAction(0, rs); ok {
		t.Fatalf("expected no action for a non-AI seat")
	}
}

func TestTsumogiriAIDeclinesEveryCall(t *testing.T) {
	ai := TsumogiriAI{}
	p := mahjong.Player{Seat: 1}
	rs := mahjong.RoundState{}
	if ai.ShouldCallPon(p, 0, rs) {
		t.Fatalf("tsumogiri AI should never call pon")
	}
	if ai.ShouldCallRon(p, 0, rs) {
		t.Fatalf("tsumogiri AI should never call ron")
	}
	if _, ok := ai.ShouldCallChi(p, 0, nil, rs); ok {
		t.Fatalf("tsumogiri AI should never call chi")
	}
	if ai.ShouldCallKan(p, KanOpen, mahjong.Man1, rs) {
		t.Fatalf("tsumogiri AI should never call kan")
	}
}

func TestHandleTimeoutTurnAutoDiscardsDrawnTile(t *testing.T) {
	svc := NewService(nil)
	names := [4]string{"alice", "bob", "carol", "dave"}
	var aiSeats [4]bool
	if _, err := svc.StartGame("g5", names, aiSeats, testSeed(), mahjong.DefaultSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := svc.BuildReconnectionSnapshot("g5", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := svc.HandleTimeout("g5", snap.DealerSeat, TimeoutTurn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundDiscard := false
	for _, e := range events {
		if e.EventType() == "DISCARD" {
			foundDiscard = true
		}
	}
	if !foundDiscard {
		t.Fatalf("expected the turn timeout to auto-discard, got %v", events)
	}
}

func TestValidateActionDataRejectsMissingFields(t *testing.T) {
	if err := validateActionData(ActionDiscard, ActionData{}); err == nil {
		t.Fatalf("expected missing tile_id to fail validation")
	}
	if err := validateActionData(ActionCallChi, ActionData{"tile_id": 0}); err == nil {
		t.Fatalf("expected missing sequence_tiles to fail validation")
	}
	if err := validateActionData(ActionCallKan, ActionData{"tile_id": 0, "kan_type": "BOGUS"}); err == nil {
		t.Fatalf("expected an invalid kan_type to fail validation")
	}
	if err := validateActionData(ActionPass, ActionData{}); err != nil {
		t.Fatalf("unexpected error validating a PASS action: %v", err)
	}
}
