package mahjong

import "fmt"

// InvalidDiscardError is returned when a discard action fails a rule
// check (tile not in hand, kuikae violation, riichi-locked hand shape).
type InvalidDiscardError struct{ Reason string }

func (e *InvalidDiscardError) Error() string { return fmt.Sprintf("mahjong: invalid discard: %s", e.Reason) }

// InvalidActionError is returned for any other rule violation (illegal
// call, riichi preconditions unmet, kan drawn from an empty dead wall).
type InvalidActionError struct{ Reason string }

func (e *InvalidActionError) Error() string { return fmt.Sprintf("mahjong: invalid action: %s", e.Reason) }
