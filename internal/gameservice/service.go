package gameservice

import (
	"fmt"
	"sync"
	"time"

	"mahjongserver/internal/gametimer"
	"mahjongserver/internal/mahjong"
	"mahjongserver/internal/wallrng"

	"mahjongserver/common/log"
)

// TimerController is the subset of gametimer.Manager a running game
// needs to arm and tear down its per-seat clocks. *gametimer.Manager
// satisfies it; tests stub it out to assert on which timers got armed
// without waiting on a real clock.
type TimerController interface {
	CreateTimers(gameID string, cfg gametimer.Config)
	StartTurnTimer(gameID string, seat int, cb func(seat int)) error
	StartMeldTimer(gameID string, seat int, cb func(seat int)) error
	StartRoundAdvanceTimer(gameID string, seat int, duration time.Duration, cb func(seat int)) error
	CancelOtherTimers(gameID string, excludeSeat int)
	AddRoundBonus(gameID string)
	CleanupGame(gameID string)
}

// GameLifecycle lets a caller outside the package observe a game's
// start and end without gameservice importing storage or replay. OnEnd
// fires exactly once per game, from inside the actor that just
// produced the GAME_END event, regardless of whether the ending
// transition was a player's own action or the timeout subsystem acting
// on a stalled seat on their behalf.
type GameLifecycle struct {
	OnStart func(gameID string, playerNames [4]string, seed, rngVersion string)
	OnEnd   func(gameID string, end mahjong.GameEndEvent)
}

// Service owns every in-progress game's actor. It is the package's one
// exported entry point; the room manager (component E) calls StartGame
// once a room transitions to play, the message router (component H)
// calls HandleAction for every inbound game action, and the timer
// callback StartGame wires calls HandleTimeout when a clock expires.
type Service struct {
	mu        sync.RWMutex
	actors    map[string]*gameActor
	sink      EventSink
	timers    TimerController
	lifecycle GameLifecycle
}

// SetLifecycle wires the start/end hooks. It exists as a post-construction
// setter rather than a constructor option because the container's OnEnd
// closure needs to call back into the very *Service it is attached to
// (to StopGame), which does not exist yet at NewService time.
func (s *Service) SetLifecycle(lc GameLifecycle) {
	s.lifecycle = lc
}

// ServiceOption configures optional Service collaborators in the usual
// functional-option shape.
type ServiceOption func(*Service)

// WithTimers arms a turn/meld/round-advance clock per seat for every
// game the service starts. Omitting it (the zero value, nil) leaves
// games running without any timeout enforcement, which is what the
// package's own unit tests want.
func WithTimers(timers TimerController) ServiceOption {
	return func(s *Service) { s.timers = timers }
}

func NewService(sink EventSink, opts ...ServiceOption) *Service {
	s := &Service{actors: make(map[string]*gameActor), sink: sink}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGame deals the first round and spins up the game's actor
// goroutine. aiSeats marks which of the four seats are AI-controlled;
// playerNames must be in seat order. An empty seed draws fresh
// randomness; a caller replaying a recorded game passes the original
// seed to reproduce it byte for byte.
func (s *Service) StartGame(gameID string, playerNames [4]string, aiSeats [4]bool, seed string, settings mahjong.Settings) ([]mahjong.Event, error) {
	s.mu.Lock()
	if _, exists := s.actors[gameID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("gameservice: game %s already started", gameID)
	}

	if seed == "" {
		var err error
		seed, err = wallrng.GenerateSeed()
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	settings, err := mahjong.NewSettings(settings)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	dealerSeat := 0
	wall, err := mahjong.NewWall(seed, 0, dealerSeat)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	wall, hands, err := mahjong.DealInitialHands(wall, dealerSeat)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var players [4]mahjong.Player
	for seat := 0; seat < 4; seat++ {
		players[seat] = mahjong.Player{
			Seat:  seat,
			Name:  playerNames[seat],
			IsAI:  aiSeats[seat],
			Tiles: hands[seat],
			Score: settings.StartingScore,
		}
	}

	gs := mahjong.GameState{
		Round: mahjong.RoundState{
			Wall:                 wall,
			Players:              players,
			DealerSeat:           dealerSeat,
			CurrentPlayerSeat:    dealerSeat,
			RoundWind:            mahjong.WindEast,
			Phase:                mahjong.PhasePlaying,
			PlayersWithOpenHands: map[int]bool{},
			KanCallerSeats:       map[int]int{},
		},
		RoundNumber: 0,
		Phase:       mahjong.GameInProgress,
		Seed:        seed,
		Settings:    settings,
		RNGVersion:  wallrng.RNGVersion,
	}

	ai := NewAIPlayerController(map[int]AIPlayer{})
	for seat, isAI := range aiSeats {
		if isAI {
			ai.AddAIPlayer(seat, TsumogiriAI{})
		}
	}

	gs, drawEvents, drew := mahjong.ApplyDraw(gs)
	if !drew {
		s.mu.Unlock()
		return nil, fmt.Errorf("gameservice: wall too small to deal an opening draw")
	}

	timeoutCb := func(seat int, kind TimeoutType) {
		if _, err := s.HandleTimeout(gameID, seat, kind); err != nil {
			log.Warn("gameservice: timeout callback failed: game=%s seat=%d kind=%s err=%v", gameID, seat, kind, err)
		}
	}
	actor := newGameActor(gameID, gs, playerNames, ai, s.sink, s.timers, timeoutCb, s.lifecycle.OnEnd)
	if s.timers != nil {
		s.timers.CreateTimers(gameID, gametimer.Config{
			MaxBankSeconds:    settings.MaxBankSeconds,
			BaseTurnSeconds:   settings.BaseTurnSeconds,
			MeldDecisionSecs:  settings.MeldDecisionSecs,
			RoundBonusSeconds: settings.RoundBonusSeconds,
		})
	}
	s.actors[gameID] = actor
	// Released before the actor goroutine starts and before the opening
	// deal is published: both can run arbitrary user-supplied
	// callbacks (the timeout hook, the lifecycle hook), and neither may
	// call back into a Service method that reacquires mu.
	s.mu.Unlock()
	go actor.run()

	if s.lifecycle.OnStart != nil {
		s.lifecycle.OnStart(gameID, playerNames, seed, wallrng.RNGVersion)
	}

	events := []mahjong.Event{
		mahjong.GameStartedEvent{GameID: gameID, PlayerNames: playerNames, AISeats: aiSeats, Seed: seed, RNGVersion: wallrng.RNGVersion},
		mahjong.RoundStartedEvent{DealerSeat: dealerSeat, RoundWind: mahjong.WindEast, RoundNumber: 0, DealerDice: wall.Dice},
	}
	events = append(events, drawEvents...)
	events = append(events, actor.resolveOpenCallPrompt()...)
	events = append(events, actor.runAITurnPump()...)
	actor.publish(events)
	log.Info("gameservice: started game %s", gameID)
	return events, nil
}

// HandleAction validates and dispatches one player's action, returning
// every event the resulting commit (including any AI turn pump that
// followed it) produced. A validation failure returns a single ERROR
// event rather than an error value, matching the wire contract that
// game actions always get an event-stream reply.
func (s *Service) HandleAction(gameID, playerName string, action GameAction, data ActionData) ([]mahjong.Event, error) {
	actor, err := s.actorFor(gameID)
	if err != nil {
		return nil, err
	}
	seat, err := seatForPlayer(actor, playerName)
	if err != nil {
		return nil, err
	}

	reply := make(chan actionResult, 1)
	actor.inbox <- request{action: &actionRequest{seat: seat, action: action, data: data, reply: reply}}
	result := <-reply
	return result.events, result.err
}

// HandleTimeout synthesizes the default action for an expired clock:
// pass for a meld/ron decision, discard-of-the-drawn-tile for a turn
// timeout, confirmation for a round-advance timeout.
func (s *Service) HandleTimeout(gameID string, seat int, kind TimeoutType) ([]mahjong.Event, error) {
	actor, err := s.actorFor(gameID)
	if err != nil {
		return nil, err
	}
	reply := make(chan actionResult, 1)
	actor.inbox <- request{timeout: &timeoutRequest{seat: seat, kind: kind, reply: reply}}
	result := <-reply
	return result.events, result.err
}

// BuildReconnectionSnapshot returns the state a reconnecting client
// needs to repaint the board.
func (s *Service) BuildReconnectionSnapshot(gameID string, seat int) (ReconnectionSnapshot, error) {
	actor, err := s.actorFor(gameID)
	if err != nil {
		return ReconnectionSnapshot{}, err
	}
	reply := make(chan snapshotResult, 1)
	actor.inbox <- request{snapshot: &snapshotRequest{seat: seat, reply: reply}}
	result := <-reply
	return result.snapshot, result.err
}

// StopGame tears down a finished or abandoned game's actor goroutine.
func (s *Service) StopGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor, ok := s.actors[gameID]; ok {
		actor.stop()
		delete(s.actors, gameID)
	}
	if s.timers != nil {
		s.timers.CleanupGame(gameID)
	}
}

func (s *Service) actorFor(gameID string) (*gameActor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[gameID]
	if !ok {
		return nil, fmt.Errorf("gameservice: no such game %s", gameID)
	}
	return actor, nil
}

func seatForPlayer(actor *gameActor, playerName string) (int, error) {
	for seat, name := range actor.playerNames {
		if name == playerName {
			return seat, nil
		}
	}
	return 0, fmt.Errorf("gameservice: player %q is not seated in this game", playerName)
}
