package eventrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mahjongserver/internal/mahjong"
)

func TestRouteTargetsDrawToDrawerOnly(t *testing.T) {
	routed := Route([]mahjong.Event{mahjong.DrawEvent{Seat: 2, TileID: 5}})
	require.Len(t, routed, 1)
	assert.Equal(t, SeatTarget(2), routed[0].Target)
}

func TestRouteBroadcastsDiscard(t *testing.T) {
	routed := Route([]mahjong.Event{mahjong.DiscardEvent{Seat: 1, TileID: 9}})
	require.Len(t, routed, 1)
	assert.Equal(t, BroadcastTarget(), routed[0].Target)
}

func TestRouteTargetsErrorAndFuritenToSeat(t *testing.T) {
	routed := Route([]mahjong.Event{
		mahjong.ErrorEvent{Seat: 3, Code: "VALIDATION_ERROR"},
		mahjong.FuritenEvent{Seat: 0, IsFuriten: true},
	})
	require.Len(t, routed, 2)
	assert.Equal(t, SeatTarget(3), routed[0].Target)
	assert.Equal(t, SeatTarget(0), routed[1].Target)
}

func TestRouteSplitsCallPromptPerPendingSeat(t *testing.T) {
	meld := &mahjong.Meld{Type: mahjong.MeldPon}
	prompt := mahjong.CallPromptEvent{
		CallType: mahjong.CallPromptDiscard,
		TileID:   7,
		FromSeat: 0,
		Callers: []mahjong.CallerEntry{
			{Seat: 1, IsRon: false, MeldOption: meld},
			{Seat: 2, IsRon: true},
		},
	}

	routed := Route([]mahjong.Event{prompt})
	require.Len(t, routed, 2)

	bySeat := map[int]mahjong.CallPromptEvent{}
	for _, r := range routed {
		cp := r.Event.(mahjong.CallPromptEvent)
		bySeat[r.Target.Seat] = cp
	}

	require.Contains(t, bySeat, 1)
	require.Contains(t, bySeat, 2)
	assert.Len(t, bySeat[1].Callers, 1)
	assert.False(t, bySeat[1].Callers[0].IsRon)
	assert.True(t, bySeat[2].Callers[0].IsRon)
}

func TestRouteCallPromptPrefersRonOverMeldForSameSeat(t *testing.T) {
	meld := &mahjong.Meld{Type: mahjong.MeldChi}
	prompt := mahjong.CallPromptEvent{
		CallType: mahjong.CallPromptDiscard,
		TileID:   7,
		FromSeat: 0,
		Callers: []mahjong.CallerEntry{
			{Seat: 1, IsRon: false, MeldOption: meld},
			{Seat: 1, IsRon: true},
		},
	}

	routed := Route([]mahjong.Event{prompt})
	require.Len(t, routed, 1)
	cp := routed[0].Event.(mahjong.CallPromptEvent)
	assert.True(t, cp.Callers[0].IsRon)
}

type collectingDispatcher struct {
	calls []struct {
		gameID string
		routed []Routed
	}
}

func (d *collectingDispatcher) Deliver(gameID string, routed []Routed) {
	d.calls = append(d.calls, struct {
		gameID string
		routed []Routed
	}{gameID, routed})
}

func TestGameServiceSinkPublishRoutesThroughDispatcher(t *testing.T) {
	d := &collectingDispatcher{}
	sink := GameServiceSink{Dispatcher: d}

	sink.Publish("game-1", []mahjong.Event{mahjong.DiscardEvent{Seat: 0, TileID: 1}})

	require.Len(t, d.calls, 1)
	assert.Equal(t, "game-1", d.calls[0].gameID)
	assert.Equal(t, BroadcastTarget(), d.calls[0].routed[0].Target)
}

func TestGameServiceSinkPublishIgnoresEmptyEvents(t *testing.T) {
	d := &collectingDispatcher{}
	sink := GameServiceSink{Dispatcher: d}
	sink.Publish("game-1", nil)
	assert.Empty(t, d.calls)
}
