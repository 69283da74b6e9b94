package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(gameID string, names [4]string) GameRecord {
	return GameRecord{
		GameID:      gameID,
		Seed:        "seed-1",
		RNGVersion:  "v1",
		PlayerNames: names,
		FinalScores: [4]int{32000, 28000, 22000, 18000},
		Placements:  [4]int{0, 1, 2, 3},
		ReplayPath:  gameID + ".txt.gz",
		StartedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2026, 1, 1, 12, 45, 0, 0, time.UTC),
	}
}

func TestFileGameRecordRepositoryRoundTripsASavedRecord(t *testing.T) {
	repo := NewFileGameRecordRepository(t.TempDir())
	record := sampleRecord("g1", [4]string{"alice", "bob", "carol", "dave"})

	require.NoError(t, repo.SaveCompletedGame(context.Background(), record))

	got, err := repo.GetGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, record.GameID, got.GameID)
	assert.Equal(t, record.PlayerNames, got.PlayerNames)
	assert.Equal(t, record.FinalScores, got.FinalScores)
	assert.True(t, record.StartedAt.Equal(got.StartedAt))
}

func TestFileGameRecordRepositoryGetGameMissingReturnsErrNotFound(t *testing.T) {
	repo := NewFileGameRecordRepository(t.TempDir())
	_, err := repo.GetGame(context.Background(), "nope")
	require.Error(t, err)
	var notFound *ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFileGameRecordRepositoryListGamesForUserFiltersByPlayerName(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileGameRecordRepository(dir)
	ctx := context.Background()

	require.NoError(t, repo.SaveCompletedGame(ctx, sampleRecord("g1", [4]string{"alice", "bob", "carol", "dave"})))
	require.NoError(t, repo.SaveCompletedGame(ctx, sampleRecord("g2", [4]string{"eve", "frank", "gina", "hank"})))
	require.NoError(t, repo.SaveCompletedGame(ctx, sampleRecord("g3", [4]string{"alice", "eve", "frank", "gina"})))

	games, err := repo.ListGamesForUser(ctx, "alice", 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.GameID)
	}
	assert.ElementsMatch(t, []string{"g1", "g3"}, ids)
}

func TestFileGameRecordRepositoryListGamesForUserRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileGameRecordRepository(dir)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, repo.SaveCompletedGame(ctx, sampleRecord(id, [4]string{"zoe", "b", "c", "d"})))
	}

	games, err := repo.ListGamesForUser(ctx, "zoe", 2)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestFileGameRecordRepositoryListGamesForUserEmptyDirReturnsNil(t *testing.T) {
	repo := NewFileGameRecordRepository(t.TempDir())
	games, err := repo.ListGamesForUser(context.Background(), "ghost", 0)
	require.NoError(t, err)
	assert.Empty(t, games)
}
