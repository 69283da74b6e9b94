package gametimer

import (
	"fmt"
	"sync"
	"time"
)

// Manager owns every in-progress game's four seat timers. One Manager
// serves every game in the process; gameservice's actor calls into it
// on every phase transition and tears its entry down once the game
// ends.
type Manager struct {
	mu    sync.Mutex
	games map[string]*gameTimers
}

type gameTimers struct {
	seats [4]*SeatTimer
}

func NewManager() *Manager {
	return &Manager{games: make(map[string]*gameTimers)}
}

// CreateTimers allocates four fresh seat timers for a newly started
// game.
func (m *Manager) CreateTimers(gameID string, cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gt := &gameTimers{}
	for i := range gt.seats {
		gt.seats[i] = newSeatTimer(cfg)
	}
	m.games[gameID] = gt
}

func (m *Manager) get(gameID string) (*gameTimers, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gt, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("gametimer: no timers for game %s", gameID)
	}
	return gt, nil
}

// StartTurnTimer starts one seat's draining turn clock. cb receives
// the seat that timed out.
func (m *Manager) StartTurnTimer(gameID string, seat int, cb func(seat int)) error {
	gt, err := m.get(gameID)
	if err != nil {
		return err
	}
	return gt.seats[seat].StartTurnTimer(func() { cb(seat) })
}

// StartMeldTimer starts one seat's fixed meld-decision window.
func (m *Manager) StartMeldTimer(gameID string, seat int, cb func(seat int)) error {
	gt, err := m.get(gameID)
	if err != nil {
		return err
	}
	return gt.seats[seat].StartMeldTimer(func() { cb(seat) })
}

// StartRoundAdvanceTimer starts one seat's fixed round-advance
// confirmation window.
func (m *Manager) StartRoundAdvanceTimer(gameID string, seat int, duration time.Duration, cb func(seat int)) error {
	gt, err := m.get(gameID)
	if err != nil {
		return err
	}
	return gt.seats[seat].StartFixedTimer(duration, func() { cb(seat) })
}

// CancelOtherTimers stops every seat's timer except excludeSeat, used
// when a discard closes every other seat's call-response window at
// once.
func (m *Manager) CancelOtherTimers(gameID string, excludeSeat int) {
	gt, err := m.get(gameID)
	if err != nil {
		return
	}
	for seat, t := range gt.seats {
		if seat == excludeSeat {
			continue
		}
		t.Stop()
	}
}

// StopTimer stops a single seat's running timer, if any.
func (m *Manager) StopTimer(gameID string, seat int) bool {
	gt, err := m.get(gameID)
	if err != nil {
		return false
	}
	return gt.seats[seat].Stop()
}

// AddRoundBonus credits every seat's bank with the configured
// round-bonus seconds, called once at the start of each new round.
func (m *Manager) AddRoundBonus(gameID string) {
	gt, err := m.get(gameID)
	if err != nil {
		return
	}
	for _, t := range gt.seats {
		t.AddRoundBonus()
	}
}

// CleanupGame stops every timer for a finished game and drops its
// entry.
func (m *Manager) CleanupGame(gameID string) {
	m.mu.Lock()
	gt, ok := m.games[gameID]
	delete(m.games, gameID)
	m.mu.Unlock()
	if !ok {
		return
	}
	for _, t := range gt.seats {
		t.Stop()
	}
}
