package eventrouter

import "mahjongserver/internal/mahjong"

// Dispatcher delivers one game's routed events to live connections; the
// connection layer (component I) implements it.
type Dispatcher interface {
	Deliver(gameID string, routed []Routed)
}

// GameServiceSink adapts a Dispatcher to gameservice.EventSink, so
// Service.StartGame/HandleAction/HandleTimeout can publish straight
// into the transport layer without gameservice importing it.
type GameServiceSink struct {
	Dispatcher Dispatcher
}

func (s GameServiceSink) Publish(gameID string, events []mahjong.Event) {
	if s.Dispatcher == nil || len(events) == 0 {
		return
	}
	s.Dispatcher.Deliver(gameID, Route(events))
}
