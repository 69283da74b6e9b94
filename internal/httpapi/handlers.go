package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"

	"mahjongserver/internal/room"
)

type handlers struct {
	rooms     RoomLister
	tickets   TicketIssuer
	startedAt time.Time
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, newOKResponse(gin.H{"status": "ok"}))
}

// statusPayload is GET /status's body: process uptime plus the same
// CPU/memory figures the teacher's load monitor reports to service
// discovery, repurposed here as a plain read-only probe instead of a
// periodic push.
type statusPayload struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemAllocBytes uint64  `json:"mem_alloc_bytes"`
	RoomCount     int     `json:"room_count"`
	PlayerCount   int     `json:"player_count"`
}

func (h *handlers) status(c *gin.Context) {
	cpuPercent := 0.0
	if percentages, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percentages) > 0 {
		cpuPercent = percentages[0]
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rooms := h.rooms.ListRooms()
	playerCount := 0
	for _, r := range rooms {
		playerCount += len(r.Players)
	}

	c.JSON(http.StatusOK, newOKResponse(statusPayload{
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemAllocBytes: mem.Alloc,
		RoomCount:     len(rooms),
		PlayerCount:   playerCount,
	}))
}

// roomSummary is the client-facing view of a pending room: no connIDs,
// since those are an internal wiring detail of the websocket layer.
type roomSummary struct {
	RoomID      string    `json:"room_id"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *handlers) listRooms(c *gin.Context) {
	rooms := h.rooms.ListRooms()
	summaries := make([]roomSummary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, summarizeRoom(r))
	}
	c.JSON(http.StatusOK, newOKResponse(summaries))
}

func summarizeRoom(r room.RoomSnapshot) roomSummary {
	return roomSummary{
		RoomID:      r.RoomID,
		PlayerCount: len(r.Players),
		MaxPlayers:  len(r.Seats),
		CreatedAt:   r.CreatedAt,
	}
}

type createGameRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Username string `json:"username" binding:"required"`
	RoomID   string `json:"room_id"`
}

type createGameResponse struct {
	RoomID string `json:"room_id"`
	Ticket string `json:"ticket"`
}

// createGame issues a signed room ticket for the requesting user. It
// does not create the room record itself: the room is lazily created
// the moment the first ticket-bearing connection sends JOIN_ROOM over
// the websocket, exactly as a second player's JOIN_ROOM fills an
// already-pending room. A fresh room id is minted here when the caller
// doesn't already have one to rejoin.
func (h *handlers) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, newErrorResponse("request body too large"))
			return
		}
		c.JSON(http.StatusBadRequest, newErrorResponse("invalid request body"))
		return
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = generateGameID()
	}

	ticketStr, err := h.tickets.SignTicket(req.UserID, req.Username, roomID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, newErrorResponse("failed to issue ticket"))
		return
	}

	c.JSON(http.StatusOK, newOKResponse(createGameResponse{RoomID: roomID, Ticket: ticketStr}))
}

func generateGameID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "room_" + hex.EncodeToString(b)
}
