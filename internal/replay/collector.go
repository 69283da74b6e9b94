package replay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"mahjongserver/internal/eventrouter"
	"mahjongserver/internal/mahjong"

	"mahjongserver/common/log"
)

// Collector buffers one JSON-line replay record per qualifying event,
// per in-progress game. It mirrors the live broadcast feed rather than
// any one seat's view: a seat-targeted DrawEvent is kept (it is the only
// seat-targeted event worth reconstructing a replay from), while
// CallPromptEvent, ErrorEvent and FuritenEvent are dropped since they
// carry no information a rerun of the recorded actions doesn't already
// reproduce.
type Collector struct {
	mu      sync.Mutex
	buffers map[string][]string
}

func NewCollector() *Collector {
	return &Collector{buffers: make(map[string][]string)}
}

// StartGame opens an empty buffer for gameID. Calling CollectEvents
// without a prior StartGame also works (the buffer is created lazily),
// but calling it explicitly at game start keeps an abandoned game's
// CleanupGame a no-op rather than a map-miss.
func (c *Collector) StartGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.buffers[gameID]; !ok {
		c.buffers[gameID] = nil
	}
}

// CollectEvents appends every qualifying event in routed, in order, to
// gameID's buffer.
func (c *Collector) CollectEvents(gameID string, routed []eventrouter.Routed) {
	var lines []string
	for _, r := range routed {
		if !shouldInclude(r) {
			continue
		}
		line, err := encodeRecord(r.Event)
		if err != nil {
			log.Error("replay: encode event for game %s: %v", gameID, err)
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	c.mu.Lock()
	c.buffers[gameID] = append(c.buffers[gameID], lines...)
	c.mu.Unlock()
}

func shouldInclude(r eventrouter.Routed) bool {
	if !r.Target.Broadcast {
		_, isDraw := r.Event.(mahjong.DrawEvent)
		return isDraw
	}
	switch r.Event.(type) {
	case mahjong.CallPromptEvent, mahjong.ErrorEvent, mahjong.FuritenEvent:
		return false
	default:
		return true
	}
}

// SaveAndCleanup assembles gameID's buffer into one replay document and
// hands it to store, then discards the buffer whether or not the save
// succeeded. A storage failure is logged, never returned: losing a
// replay must not be allowed to block the game cleanup it runs
// alongside.
func (c *Collector) SaveAndCleanup(ctx context.Context, gameID string, store Store) {
	c.mu.Lock()
	lines, ok := c.buffers[gameID]
	delete(c.buffers, gameID)
	c.mu.Unlock()
	if !ok {
		return
	}

	content, err := assembleContent(lines)
	if err != nil {
		log.Error("replay: assemble content for game %s: %v", gameID, err)
		return
	}
	if err := store.SaveReplay(ctx, gameID, content); err != nil {
		log.Error("replay: save replay for game %s: %v", gameID, err)
	}
}

// CleanupGame discards gameID's buffer without persisting it, for a
// room that never finished (every player disconnected, the host closed
// an empty lobby, and so on).
func (c *Collector) CleanupGame(gameID string) {
	c.mu.Lock()
	delete(c.buffers, gameID)
	c.mu.Unlock()
}

// RecordingDispatcher wraps another Dispatcher so every event delivered
// live also gets appended to its game's replay buffer, without either
// the connection layer or the collector needing to know about the
// other. cmd/mahjongserver wires it in front of wsconn.Hub.
type RecordingDispatcher struct {
	Inner     eventrouter.Dispatcher
	Collector *Collector
}

func (d RecordingDispatcher) Deliver(gameID string, routed []eventrouter.Routed) {
	d.Collector.CollectEvents(gameID, routed)
	if d.Inner != nil {
		d.Inner.Deliver(gameID, routed)
	}
}

func assembleContent(lines []string) (string, error) {
	header, err := json.Marshal(map[string]any{"version": Version})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Write(header)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
