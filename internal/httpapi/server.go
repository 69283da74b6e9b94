// Package httpapi is the module's HTTP surface (component M): health and
// status probes plus lobby-ticket issuance and a pending-room listing.
// All actual gameplay still flows over the websocket connection
// (component I); this package only gets a user from "I want to play" to
// "here is a signed ticket to join over the socket".
//
// The teacher's common/http wrapper (functional-options HttpServer,
// Context façade) is built for a deployment with several independent
// HTTP surfaces sharing one request/response convention. This module has
// exactly one, so this package talks to gin.Engine directly instead of
// going through that extra layer, while keeping the same shape: one
// constructor with options, a middleware chain applied once, a
// uniform JSON response envelope.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mahjongserver/common/log"
	"mahjongserver/internal/room"
)

// RoomLister is the subset of room.Manager the lobby listing endpoint
// needs.
type RoomLister interface {
	ListRooms() []room.RoomSnapshot
}

// TicketIssuer mints the lobby ticket a client presents over the
// websocket connection's JOIN_ROOM message.
type TicketIssuer interface {
	SignTicket(userID, username, gameID string, seat int) (string, error)
}

// Config is everything NewServer needs to stand up the HTTP surface.
type Config struct {
	Port           int
	Mode           string // gin.DebugMode or gin.ReleaseMode; empty keeps gin's default
	MaxRequestBody int64  // bytes; 0 uses DefaultMaxRequestBody
	StatsviteMount string // mount path for the debug statsviz handler; empty disables it
}

// DefaultMaxRequestBody bounds a POST /games body before the handler
// ever sees it.
const DefaultMaxRequestBody = 64 * 1024

// Server owns the gin engine and the net/http.Server wrapping it, so it
// can be started and shut down the same way the rest of the module's
// long-running pieces are.
type Server struct {
	engine    *gin.Engine
	http      *http.Server
	startedAt time.Time
}

func NewServer(cfg Config, rooms RoomLister, tickets TicketIssuer) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	maxBody := cfg.MaxRequestBody
	if maxBody <= 0 {
		maxBody = DefaultMaxRequestBody
	}

	engine := gin.New()
	engine.Use(requestLoggerMiddleware(), recoveryMiddleware(), corsMiddleware())

	h := &handlers{rooms: rooms, tickets: tickets, startedAt: time.Now()}
	engine.GET("/health", h.health)
	engine.GET("/status", h.status)
	engine.GET("/rooms", h.listRooms)
	engine.POST("/games", bodySizeLimit(maxBody), h.createGame)
	mountStatsviz(engine, cfg.StatsviteMount)

	return &Server{
		engine:    engine,
		http:      &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: engine},
		startedAt: h.startedAt,
	}
}

// Engine exposes the underlying router for tests that want to drive
// requests through httptest without a live listener.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Start() error {
	log.Info("httpapi: listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
