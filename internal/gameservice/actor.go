package gameservice

import (
	"time"

	"mahjongserver/internal/mahjong"

	"mahjongserver/common/log"
)

// roundAdvanceWindow is how long a seat gets to send CONFIRM_ROUND
// before the timeout subsystem sends it on the seat's behalf. It isn't
// part of mahjong.Settings because, unlike the turn/meld clocks, it
// never trades against a seat's time bank.
const roundAdvanceWindow = 30 * time.Second

// request is the single union of messages the actor loop accepts;
// exactly one of its non-nil fields is populated.
type request struct {
	action   *actionRequest
	timeout  *timeoutRequest
	snapshot *snapshotRequest
}

type actionRequest struct {
	seat   int
	action GameAction
	data   ActionData
	reply  chan actionResult
}

type timeoutRequest struct {
	seat  int
	kind  TimeoutType
	reply chan actionResult
}

type snapshotRequest struct {
	seat  int
	reply chan snapshotResult
}

type actionResult struct {
	events []mahjong.Event
	err    error
}

type snapshotResult struct {
	snapshot ReconnectionSnapshot
	err      error
}

// gameActor owns one game's authoritative state. Every read or write
// goes through inbox, so state is touched by exactly one goroutine and
// needs no mutex.
type gameActor struct {
	gameID       string
	state        mahjong.GameState
	ai           *AIPlayerController
	playerNames  [4]string
	confirmed    map[int]bool // seats that have CONFIRM_ROUNDed a finished round
	lastRoundEnd *mahjong.RoundEndEvent
	inbox        chan request
	done         chan struct{}
	sink         EventSink
	timers       TimerController
	onTimeout    func(seat int, kind TimeoutType)
	onGameEnd    func(gameID string, end mahjong.GameEndEvent)
}

// EventSink receives every event an actor's transitions produce, in
// commit order, tagged with the game it came from. The event router
// (component G) implements this to fan events out to connections; tests
// can use a slice-collecting stub.
type EventSink interface {
	Publish(gameID string, events []mahjong.Event)
}

func newGameActor(gameID string, state mahjong.GameState, names [4]string, ai *AIPlayerController, sink EventSink, timers TimerController, onTimeout func(seat int, kind TimeoutType), onGameEnd func(gameID string, end mahjong.GameEndEvent)) *gameActor {
	return &gameActor{
		gameID:      gameID,
		state:       state,
		ai:          ai,
		playerNames: names,
		confirmed:   map[int]bool{},
		inbox:       make(chan request, 64),
		done:        make(chan struct{}),
		sink:        sink,
		timers:      timers,
		onTimeout:   onTimeout,
		onGameEnd:   onGameEnd,
	}
}

func (a *gameActor) run() {
	for {
		select {
		case req := <-a.inbox:
			a.handleRequest(req)
		case <-a.done:
			return
		}
	}
}

func (a *gameActor) stop() {
	close(a.done)
}

func (a *gameActor) handleRequest(req request) {
	switch {
	case req.action != nil:
		events, err := a.handleAction(req.action.seat, req.action.action, req.action.data)
		req.action.reply <- actionResult{events: events, err: err}
	case req.timeout != nil:
		events, err := a.handleTimeout(req.timeout.seat, req.timeout.kind)
		req.timeout.reply <- actionResult{events: events, err: err}
	case req.snapshot != nil:
		snap, err := a.buildSnapshot(req.snapshot.seat)
		req.snapshot.reply <- snapshotResult{snapshot: snap, err: err}
	}
}

func (a *gameActor) handleAction(seat int, action GameAction, data ActionData) ([]mahjong.Event, error) {
	if action == ActionConfirmRound {
		return a.confirmRound(seat)
	}

	gs, events, err := dispatchAction(a.state, seat, action, data)
	if err != nil {
		errEvent := mahjong.ErrorEvent{Seat: seat, Code: "VALIDATION_ERROR", Message: err.Error()}
		a.publish([]mahjong.Event{errEvent})
		return []mahjong.Event{errEvent}, nil
	}
	a.commit(gs)
	events = append(events, a.resolveOpenCallPrompt()...)
	events = append(events, a.runAITurnPump()...)
	a.publish(events)
	return events, nil
}

// confirmRound records one seat's acknowledgement of a finished round;
// once all four have confirmed, it deals the next round (or leaves the
// game finished if the round that just ended was the last one).
func (a *gameActor) confirmRound(seat int) ([]mahjong.Event, error) {
	if a.state.Round.Phase != mahjong.PhaseFinished {
		return nil, &ValidationError{Reason: "no round is awaiting confirmation"}
	}
	a.confirmed[seat] = true
	if len(a.confirmed) < 4 {
		return nil, nil
	}
	if a.state.Phase == mahjong.GameFinished {
		return nil, nil
	}

	dealerRetained := false
	if a.lastRoundEnd != nil {
		dealerRetained = mahjong.RoundKeepsDealer(a.lastRoundEnd.Kind, a.lastRoundEnd.Wins, a.lastRoundEnd.ScoreDeltas, a.state.Round.DealerSeat)
	}
	gs, events, err := mahjong.StartNextRound(a.state, dealerRetained)
	if err != nil {
		return nil, err
	}
	a.commit(gs)
	a.confirmed = map[int]bool{}
	a.lastRoundEnd = nil
	if a.timers != nil {
		a.timers.AddRoundBonus(a.gameID)
	}

	gs, drawEvents, drew := mahjong.ApplyDraw(a.state)
	if drew {
		a.commit(gs)
		events = append(events, drawEvents...)
	}
	events = append(events, a.resolveOpenCallPrompt()...)
	events = append(events, a.runAITurnPump()...)
	a.publish(events)
	return events, nil
}

func (a *gameActor) handleTimeout(seat int, kind TimeoutType) ([]mahjong.Event, error) {
	switch kind {
	case TimeoutMeldDecision:
		return a.handleAction(seat, ActionPass, ActionData{})
	case TimeoutTurn:
		player := a.state.Round.Players[seat]
		if len(player.Tiles) == 0 {
			return nil, &ValidationError{Reason: "no tile to auto-discard"}
		}
		drawn := player.Tiles[len(player.Tiles)-1]
		return a.handleAction(seat, ActionDiscard, ActionData{"tile_id": int(drawn)})
	case TimeoutRoundAdvance:
		return a.handleAction(seat, ActionConfirmRound, ActionData{})
	default:
		return nil, &ValidationError{Reason: "unknown timeout type"}
	}
}

func (a *gameActor) commit(gs mahjong.GameState) {
	a.state = gs
}

// resolveOpenCallPrompt answers, on behalf of every AI seat with a
// pending entry, the call prompt a just-committed transition may have
// opened. Human seats are left pending for handle_action.
func (a *gameActor) resolveOpenCallPrompt() []mahjong.Event {
	var events []mahjong.Event
	for {
		prompt := a.state.Round.PendingCallPrompt
		if prompt == nil {
			return events
		}
		acted := false
		for pendingSeat := range prompt.PendingSeats {
			if !a.ai.IsAIPlayer(pendingSeat) {
				continue
			}
			kind, caller := callKindFor(prompt, pendingSeat)
			action, data, ok := a.ai.GetCallResponse(pendingSeat, a.state.Round, kind, prompt.TileID, caller)
			if !ok {
				action, data = ActionPass, ActionData{}
			}
			gs, evs, err := dispatchAction(a.state, pendingSeat, action, data)
			if err != nil {
				log.Warn("gameservice: AI call response rejected, falling back to pass: game=%s seat=%d err=%s", a.gameID, pendingSeat, err.Error())
				gs, evs, err = dispatchAction(a.state, pendingSeat, ActionPass, ActionData{})
				if err != nil {
					log.Error("gameservice: AI pass fallback failed: game=%s seat=%d err=%s", a.gameID, pendingSeat, err.Error())
					continue
				}
			}
			a.commit(gs)
			events = append(events, evs...)
			acted = true
			break
		}
		if !acted {
			return events
		}
	}
}

func callKindFor(prompt *mahjong.PendingCallPrompt, seat int) (CallKind, *mahjong.CallerEntry) {
	if prompt.CallType == mahjong.CallPromptChankan {
		return CallKindChankan, nil
	}
	for _, entry := range prompt.Callers {
		if entry.Seat != seat {
			continue
		}
		if entry.IsRon {
			e := entry
			return CallKindRon, &e
		}
		e := entry
		return CallKindMeld, &e
	}
	return CallKindMeld, nil
}

// runAITurnPump replays AI decisions for as long as the current player
// is AI-controlled, no call prompt is open, and the round is still in
// progress.
func (a *gameActor) runAITurnPump() []mahjong.Event {
	var events []mahjong.Event
	for {
		rs := a.state.Round
		if rs.Phase != mahjong.PhasePlaying || rs.PendingCallPrompt != nil {
			return events
		}
		seat := rs.CurrentPlayerSeat
		if !a.ai.IsAIPlayer(seat) {
			return events
		}
		action, data, ok := a.ai.GetTurnAction(seat, rs)
		if !ok {
			return events
		}
		gs, evs, err := dispatchAction(a.state, seat, action, data)
		if err != nil {
			log.Warn("gameservice: AI turn action rejected: game=%s seat=%d err=%s", a.gameID, seat, err.Error())
			return events
		}
		a.commit(gs)
		events = append(events, evs...)
		events = append(events, a.resolveOpenCallPrompt()...)
	}
}

func (a *gameActor) publish(events []mahjong.Event) {
	var gameEnd *mahjong.GameEndEvent
	for _, evt := range events {
		switch e := evt.(type) {
		case mahjong.RoundEndEvent:
			cp := e
			a.lastRoundEnd = &cp
		case mahjong.GameEndEvent:
			cp := e
			gameEnd = &cp
		}
	}
	if a.sink != nil && len(events) > 0 {
		a.sink.Publish(a.gameID, events)
	}
	if gameEnd != nil {
		if a.timers != nil {
			a.timers.CleanupGame(a.gameID)
		}
		if a.onGameEnd != nil {
			a.onGameEnd(a.gameID, *gameEnd)
		}
		return
	}
	if a.timers != nil {
		a.armTimers()
	}
}

// armTimers starts whichever per-seat clock the current state calls
// for and cancels the rest. It runs after every transition that can
// change whose move it is: the opening deal, a player action, a
// resolved timeout, and a round's CONFIRM_ROUND rollover.
func (a *gameActor) armTimers() {
	rs := a.state.Round
	switch {
	case rs.Phase == mahjong.PhaseFinished:
		for seat := 0; seat < 4; seat++ {
			if a.confirmed[seat] || a.ai.IsAIPlayer(seat) {
				continue
			}
			a.startTimer(seat, TimeoutRoundAdvance)
		}
	case rs.PendingCallPrompt != nil:
		for seat := range rs.PendingCallPrompt.PendingSeats {
			if a.ai.IsAIPlayer(seat) {
				continue
			}
			a.startTimer(seat, TimeoutMeldDecision)
		}
	case rs.Phase == mahjong.PhasePlaying:
		seat := rs.CurrentPlayerSeat
		a.timers.CancelOtherTimers(a.gameID, seat)
		if !a.ai.IsAIPlayer(seat) {
			a.startTimer(seat, TimeoutTurn)
		}
	}
}

func (a *gameActor) startTimer(seat int, kind TimeoutType) {
	cb := func(seat int) { a.onTimeout(seat, kind) }
	var err error
	switch kind {
	case TimeoutTurn:
		err = a.timers.StartTurnTimer(a.gameID, seat, cb)
	case TimeoutMeldDecision:
		err = a.timers.StartMeldTimer(a.gameID, seat, cb)
	case TimeoutRoundAdvance:
		err = a.timers.StartRoundAdvanceTimer(a.gameID, seat, roundAdvanceWindow, cb)
	}
	if err != nil {
		log.Warn("gameservice: arm %s timer failed: game=%s seat=%d err=%v", kind, a.gameID, seat, err)
	}
}
