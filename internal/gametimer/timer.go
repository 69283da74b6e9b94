// Package gametimer runs the per-seat clocks a live game needs: a
// draining turn bank, a fixed meld-decision window, and a fixed
// round-advance confirmation window. Every fired callback runs with a
// recover so a panic inside it never takes down the timer goroutine.
package gametimer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mahjongserver/common/log"
)

// State mirrors a seat's timer lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateTimedOut
)

// SeatTimer is one seat's turn clock: a bank of seconds that drains
// across turns, replenished only by add_round_bonus, plus whatever
// fixed-duration timer (meld decision, round advance) is currently
// running in its place.
type SeatTimer struct {
	mu             sync.Mutex
	bankSeconds    float64
	maxBank        float64
	baseTurnSecs   float64
	meldDecision   float64
	roundBonus     float64
	state          State
	running        bool
	turnStartedAt  time.Time
	cancel         context.CancelFunc
}

// Config bundles the durations a SeatTimer needs, lifted from the
// game's Settings so the timer package never imports the rule engine.
type Config struct {
	MaxBankSeconds    float64
	BaseTurnSeconds   float64
	MeldDecisionSecs  float64
	RoundBonusSeconds float64
}

func newSeatTimer(cfg Config) *SeatTimer {
	return &SeatTimer{
		bankSeconds:  cfg.MaxBankSeconds,
		maxBank:      cfg.MaxBankSeconds,
		baseTurnSecs: cfg.BaseTurnSeconds,
		meldDecision: cfg.MeldDecisionSecs,
		roundBonus:   cfg.RoundBonusSeconds,
		state:        StateIdle,
	}
}

// Bank reports the seat's current banked seconds.
func (t *SeatTimer) Bank() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bankSeconds
}

// State reports the timer's current lifecycle state.
func (t *SeatTimer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// AddRoundBonus adds the configured round bonus to the bank, capped at
// the configured maximum.
func (t *SeatTimer) AddRoundBonus() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bankSeconds += t.roundBonus
	if t.bankSeconds > t.maxBank {
		t.bankSeconds = t.maxBank
	}
}

// StartTurnTimer starts the seat's turn clock: base_turn_seconds plus
// whatever is left in the bank. Stopping it early deducts only the
// portion of elapsed time beyond base_turn_seconds from the bank.
func (t *SeatTimer) StartTurnTimer(cb func()) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return fmt.Errorf("gametimer: turn timer already running")
	}
	duration := t.baseTurnSecs + t.bankSeconds
	t.running = true
	t.state = StateRunning
	t.turnStartedAt = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), floatSeconds(duration))
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx, cb, true)
	return nil
}

// StartMeldTimer starts a fixed meld_decision_seconds window that does
// not touch the bank.
func (t *SeatTimer) StartMeldTimer(cb func()) error {
	return t.startFixed(floatSeconds(t.meldDecision), cb)
}

// StartFixedTimer starts an arbitrary fixed-duration window (used for
// round-advance confirmation), which also does not touch the bank.
func (t *SeatTimer) StartFixedTimer(duration time.Duration, cb func()) error {
	return t.startFixed(duration, cb)
}

func (t *SeatTimer) startFixed(duration time.Duration, cb func()) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return fmt.Errorf("gametimer: a timer is already running for this seat")
	}
	t.running = true
	t.state = StateRunning
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx, cb, false)
	return nil
}

func (t *SeatTimer) run(ctx context.Context, cb func(), drainsBank bool) {
	<-ctx.Done()

	t.mu.Lock()
	timedOut := ctx.Err() == context.DeadlineExceeded
	if timedOut {
		t.state = StateTimedOut
		if drainsBank {
			t.bankSeconds = 0
		}
	} else {
		t.state = StateStopped
		if drainsBank {
			elapsed := time.Since(t.turnStartedAt).Seconds()
			used := elapsed - t.baseTurnSecs
			if used > 0 {
				t.bankSeconds -= used
			}
			if t.bankSeconds < 0 {
				t.bankSeconds = 0
			}
		}
	}
	t.running = false
	t.mu.Unlock()

	if timedOut && cb != nil {
		safeCall(cb)
	}
}

// Stop cancels a running timer, reporting whether one was running.
func (t *SeatTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.cancel == nil {
		return false
	}
	t.cancel()
	return true
}

func safeCall(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("gametimer: timeout callback panicked: %v", r)
		}
	}()
	cb()
}

func floatSeconds(s float64) time.Duration {
	if s < 0 {
		s = 0
	}
	return time.Duration(s * float64(time.Second))
}
