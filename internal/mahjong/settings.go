package mahjong

import "fmt"

// UnsupportedSettingsError is returned when a settings value names a rule
// variant this engine does not implement. Construction fails closed:
// unexercised flags are rejected rather than silently approximated.
type UnsupportedSettingsError struct {
	Field string
	Value string
}

func (e *UnsupportedSettingsError) Error() string {
	return fmt.Sprintf("mahjong: unsupported setting %s=%s", e.Field, e.Value)
}

// RenhouValue selects how a human-discard-on-first-go-around win
// (renhou) is scored.
type RenhouValue string

const (
	RenhouValueMangan RenhouValue = "MANGAN"
	RenhouValueBaiman RenhouValue = "BAIMAN"
)

// Settings bundles the configurable rule-variant toggles. Zero value is
// not valid; use NewSettings. The rule engine reads none of the toggles
// from HasAkaDora through NineTerminalsAllow: red fives always count,
// open tanyao is always allowed, double-yakuman hands always score
// double, 4-han-30-fu is not rounded up to mangan, 13+ han always scores
// as a yakuman, and every abortive draw is always in force.
type Settings struct {
	HasAkaDora          bool
	HasOpenTanyao       bool
	HasDoubleYakuman    bool
	KiriageMangan       bool // round 4-han-30-fu / 3-han-60-fu up to mangan
	KazoeYakuman        bool // 13+ han scores as yakuman rather than sanbaiman
	TripleRonAbortive   bool
	FourKanAbortive     bool
	FourRiichiAbortive  bool
	FourWindAbortive    bool
	NineTerminalsAllow  bool
	RenhouValue         RenhouValue
	TieBreakBySeatOrder bool // MUST be true; false is an unsupported variant
	Agariyame           bool // MUST be false; true is an unsupported variant

	TargetScore       int
	StartingScore     int
	UmaFirst          int
	UmaSecond         int
	UmaThird          int
	UmaFourth         int
	MaxBankSeconds    float64
	BaseTurnSeconds   float64
	MeldDecisionSecs  float64
	RoundBonusSeconds float64
	RoomTTLSeconds    int
	HeartbeatTimeout  float64
}

// DefaultSettings returns the standard ruleset used when a room does not
// override anything: red fives, open tanyao, no double yakuman, kiriage
// mangan off, kazoe yakuman on, all abortive draws enabled.
func DefaultSettings() Settings {
	return Settings{
		HasAkaDora:          true,
		HasOpenTanyao:       true,
		HasDoubleYakuman:    false,
		KiriageMangan:       false,
		KazoeYakuman:        true,
		TripleRonAbortive:   true,
		FourKanAbortive:     true,
		FourRiichiAbortive:  true,
		FourWindAbortive:    true,
		NineTerminalsAllow:  true,
		RenhouValue:         RenhouValueMangan,
		TieBreakBySeatOrder: true,
		Agariyame:           false,
		TargetScore:         30000,
		StartingScore:       25000,
		UmaFirst:            20,
		UmaSecond:           10,
		UmaThird:            -10,
		UmaFourth:           -20,
		MaxBankSeconds:      60,
		BaseTurnSeconds:     20,
		MeldDecisionSecs:    7,
		RoundBonusSeconds:   10,
		RoomTTLSeconds:      600,
		HeartbeatTimeout:    30,
	}
}

// NewSettings validates a candidate settings value, rejecting the
// configuration flags this engine never exercised rather than
// approximating their behavior.
func NewSettings(s Settings) (Settings, error) {
	if s.Agariyame {
		return Settings{}, &UnsupportedSettingsError{Field: "agariyame", Value: "true"}
	}
	if s.RenhouValue == RenhouValueBaiman {
		return Settings{}, &UnsupportedSettingsError{Field: "renhou_value", Value: string(RenhouValueBaiman)}
	}
	if !s.TieBreakBySeatOrder {
		return Settings{}, &UnsupportedSettingsError{Field: "tie_break_by_seat_order", Value: "false"}
	}
	return s, nil
}
