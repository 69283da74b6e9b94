package replay

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mahjongserver/internal/eventrouter"
	"mahjongserver/internal/mahjong"
)

type stubStore struct {
	saved   bool
	gameID  string
	content string
}

func (s *stubStore) SaveReplay(_ context.Context, gameID string, content string) error {
	s.saved = true
	s.gameID = gameID
	s.content = content
	return nil
}

type dispatcherFunc func(gameID string, routed []eventrouter.Routed)

func (f dispatcherFunc) Deliver(gameID string, routed []eventrouter.Routed) { f(gameID, routed) }

func TestCollectorKeepsBroadcastAndSeatDrawDropsRest(t *testing.T) {
	c := NewCollector()
	c.StartGame("g1")
	routed := []eventrouter.Routed{
		{Target: eventrouter.BroadcastTarget(), Event: mahjong.GameStartedEvent{Seed: "s"}},
		{Target: eventrouter.SeatTarget(0), Event: mahjong.ErrorEvent{Seat: 0, Code: "BAD_ACTION"}},
		{Target: eventrouter.SeatTarget(0), Event: mahjong.FuritenEvent{Seat: 0}},
		{Target: eventrouter.SeatTarget(1), Event: mahjong.DrawEvent{Seat: 1, TileID: 5}},
		{Target: eventrouter.BroadcastTarget(), Event: mahjong.DiscardEvent{Seat: 1, TileID: 5}},
	}
	c.CollectEvents("g1", routed)

	store := &stubStore{}
	c.SaveAndCleanup(context.Background(), "g1", store)
	require.True(t, store.saved)
	assert.Equal(t, "g1", store.gameID)
	assert.True(t, strings.Contains(store.content, `"type":"GAME_STARTED"`))
	assert.True(t, strings.Contains(store.content, `"type":"DRAW"`))
	assert.True(t, strings.Contains(store.content, `"type":"DISCARD"`))
	assert.False(t, strings.Contains(store.content, `"type":"ERROR"`))
	assert.False(t, strings.Contains(store.content, `"type":"FURITEN"`))
}

func TestCollectorHeaderLineIsVersionOne(t *testing.T) {
	c := NewCollector()
	c.StartGame("g1")
	c.CollectEvents("g1", []eventrouter.Routed{{Target: eventrouter.BroadcastTarget(), Event: mahjong.GameStartedEvent{}}})

	store := &stubStore{}
	c.SaveAndCleanup(context.Background(), "g1", store)
	lines := strings.Split(strings.TrimRight(store.content, "\n"), "\n")
	require.True(t, len(lines) >= 2)
	assert.Equal(t, `{"version":1}`, lines[0])
}

func TestCollectorSaveAndCleanupSkipsUnknownGame(t *testing.T) {
	c := NewCollector()
	store := &stubStore{}
	c.SaveAndCleanup(context.Background(), "missing-game", store)
	assert.False(t, store.saved)
}

func TestCollectorCleanupGameDiscardsWithoutSaving(t *testing.T) {
	c := NewCollector()
	c.StartGame("g2")
	c.CollectEvents("g2", []eventrouter.Routed{{Target: eventrouter.BroadcastTarget(), Event: mahjong.GameStartedEvent{}}})
	c.CleanupGame("g2")

	store := &stubStore{}
	c.SaveAndCleanup(context.Background(), "g2", store)
	assert.False(t, store.saved)
}

func TestRecordingDispatcherForwardsToInnerAndRecords(t *testing.T) {
	c := NewCollector()
	c.StartGame("g3")
	var delivered []eventrouter.Routed
	inner := dispatcherFunc(func(_ string, routed []eventrouter.Routed) {
		delivered = routed
	})
	d := RecordingDispatcher{Inner: inner, Collector: c}
	routed := []eventrouter.Routed{{Target: eventrouter.BroadcastTarget(), Event: mahjong.GameStartedEvent{}}}
	d.Deliver("g3", routed)

	assert.Len(t, delivered, 1)
	store := &stubStore{}
	c.SaveAndCleanup(context.Background(), "g3", store)
	assert.True(t, store.saved)
}

func TestRecordingDispatcherToleratesNilInner(t *testing.T) {
	c := NewCollector()
	c.StartGame("g4")
	d := RecordingDispatcher{Collector: c}
	assert.NotPanics(t, func() {
		d.Deliver("g4", []eventrouter.Routed{{Target: eventrouter.BroadcastTarget(), Event: mahjong.GameStartedEvent{}}})
	})
}
