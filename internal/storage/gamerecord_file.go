package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileGameRecordRepository is the zero-infra GameRecordRepository: one
// atomically-written JSON sidecar file per game, named after the game
// id alongside its replay file. It satisfies the same interface as
// MongoGameRecordRepository so cmd/mahjongserver can pick either one
// from configuration without the rest of the module knowing which.
type FileGameRecordRepository struct {
	dir string
	mu  sync.Mutex
}

func NewFileGameRecordRepository(dir string) *FileGameRecordRepository {
	return &FileGameRecordRepository{dir: dir}
}

func (r *FileGameRecordRepository) path(gameID string) string {
	return filepath.Join(r.dir, gameID+".json")
}

func (r *FileGameRecordRepository) SaveCompletedGame(_ context.Context, record GameRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeFileAtomic(r.path(record.GameID), raw, 0o600)
}

func (r *FileGameRecordRepository) GetGame(_ context.Context, gameID string) (GameRecord, error) {
	raw, err := os.ReadFile(r.path(gameID))
	if err != nil {
		if os.IsNotExist(err) {
			return GameRecord{}, &ErrNotFound{GameID: gameID}
		}
		return GameRecord{}, err
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return GameRecord{}, err
	}
	return rec, nil
}

// ListGamesForUser scans every sidecar file in dir; the file backend is
// meant for the zero-infra/test path, not for a deployment with enough
// history to make a directory scan expensive.
func (r *FileGameRecordRepository) ListGamesForUser(ctx context.Context, userName string, limit int) ([]GameRecord, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []GameRecord
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		gameID := entry.Name()[:len(entry.Name())-len(".json")]
		rec, err := r.GetGame(ctx, gameID)
		if err != nil {
			continue
		}
		for _, name := range rec.PlayerNames {
			if name == userName {
				out = append(out, rec)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
