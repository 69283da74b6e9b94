package storage

import (
	"context"
	"time"
)

// GameRecord is one finished game's durable summary: enough to list a
// player's history and to locate the full replay if one was kept.
type GameRecord struct {
	GameID      string
	Seed        string
	RNGVersion  string
	PlayerNames [4]string
	FinalScores [4]int
	Placements  [4]int
	ReplayPath  string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// GameRecordRepository is the played-game index; accounts are out of
// scope for this module (see IdentityProvider).
type GameRecordRepository interface {
	SaveCompletedGame(ctx context.Context, record GameRecord) error
	GetGame(ctx context.Context, gameID string) (GameRecord, error)
	ListGamesForUser(ctx context.Context, userName string, limit int) ([]GameRecord, error)
}

// ErrNotFound is returned by GetGame when gameID has no saved record.
type ErrNotFound struct{ GameID string }

func (e *ErrNotFound) Error() string { return "storage: no game record for " + e.GameID }
