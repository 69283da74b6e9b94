package replay

import (
	"fmt"

	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/mahjong"
)

// Step captures one replayed action's outcome, for a caller comparing a
// rerun against the original trace.
type Step struct {
	Seat   int
	Action gameservice.GameAction
	Events []mahjong.Event
}

// Trace is the full outcome of replaying an Input through a fresh
// gameservice.Service.
type Trace struct {
	StartupEvents []mahjong.Event
	Steps         []Step
}

// RunError wraps an action that failed to replay with the step that
// produced it, so a caller can report which recorded action diverged.
type RunError struct {
	StepIndex int
	Action    InputAction
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("replay: step %d (seat %d, %s): %v", e.StepIndex, e.Action.Seat, e.Action.Action, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Run feeds in's recorded actions back through games, a freshly
// constructed gameservice.Service, in a newly started gameID. After
// every action it also offers a CONFIRM_ROUND on behalf of all four
// seats: gameActor rejects this as a no-op validation error ("no round
// is awaiting confirmation") whenever no round is actually finished, so
// it is always safe to offer rather than only when a round just ended.
func Run(games *gameservice.Service, gameID string, in *Input, settings mahjong.Settings) (*Trace, error) {
	startupEvents, err := games.StartGame(gameID, in.PlayerNames, in.AISeats, in.Seed, settings)
	if err != nil {
		return nil, fmt.Errorf("replay: start game: %w", err)
	}
	trace := &Trace{StartupEvents: startupEvents}

	for i, action := range in.Actions {
		events, err := games.HandleAction(gameID, in.PlayerNames[action.Seat], action.Action, action.Data)
		if err != nil {
			return trace, &RunError{StepIndex: i, Action: action, Err: err}
		}
		if errEvt := firstErrorEvent(events); errEvt != nil {
			return trace, &RunError{StepIndex: i, Action: action, Err: fmt.Errorf("%s: %s", errEvt.Code, errEvt.Message)}
		}
		trace.Steps = append(trace.Steps, Step{Seat: action.Seat, Action: action.Action, Events: events})

		confirmEvents := confirmAllSeats(games, gameID, in.PlayerNames)
		if len(confirmEvents) > 0 {
			trace.Steps = append(trace.Steps, Step{Action: gameservice.ActionConfirmRound, Events: confirmEvents})
		}
	}
	return trace, nil
}

// confirmAllSeats offers CONFIRM_ROUND for every seat in turn, ignoring
// the validation error a seat gets back when no round is actually
// awaiting confirmation (already confirmed, or none pending).
func confirmAllSeats(games *gameservice.Service, gameID string, playerNames [4]string) []mahjong.Event {
	var all []mahjong.Event
	for seat := 0; seat < 4; seat++ {
		events, err := games.HandleAction(gameID, playerNames[seat], gameservice.ActionConfirmRound, gameservice.ActionData{})
		if err != nil {
			continue
		}
		all = append(all, events...)
	}
	return all
}

func firstErrorEvent(events []mahjong.Event) *mahjong.ErrorEvent {
	for _, evt := range events {
		if errEvt, ok := evt.(mahjong.ErrorEvent); ok {
			return &errEvt
		}
	}
	return nil
}
