package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mahjongserver/internal/room"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRoomLister struct {
	rooms []room.RoomSnapshot
}

func (s *stubRoomLister) ListRooms() []room.RoomSnapshot { return s.rooms }

type stubTicketIssuer struct {
	err    error
	issued string
}

func (s *stubTicketIssuer) SignTicket(userID, username, gameID string, seat int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "signed-" + gameID, nil
}

func newTestServer(rooms RoomLister, tickets TicketIssuer) *Server {
	return NewServer(Config{Port: 0}, rooms, tickets)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthReturnsOK(t *testing.T) {
	srv := newTestServer(&stubRoomLister{}, &stubTicketIssuer{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.OK)
}

func TestStatusReportsRoomAndPlayerCounts(t *testing.T) {
	rooms := &stubRoomLister{rooms: []room.RoomSnapshot{
		{RoomID: "r1", Players: []room.Player{{UserID: "a"}, {UserID: "b"}}},
		{RoomID: "r2", Players: []room.Player{{UserID: "c"}}},
	}}
	srv := newTestServer(rooms, &stubTicketIssuer{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.OK)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["room_count"])
	assert.Equal(t, float64(3), data["player_count"])
}

func TestListRoomsOmitsConnIDs(t *testing.T) {
	rooms := &stubRoomLister{rooms: []room.RoomSnapshot{
		{RoomID: "r1", Seats: [4]string{"conn-1", "", "", ""}, Players: []room.Player{{ConnID: "conn-1", UserID: "a"}}},
	}}
	srv := newTestServer(rooms, &stubTicketIssuer{})
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "conn-1")
	assert.Contains(t, rec.Body.String(), `"room_id":"r1"`)
}

func TestCreateGameIssuesATicketWithAGeneratedRoomID(t *testing.T) {
	srv := newTestServer(&stubRoomLister{}, &stubTicketIssuer{})
	body, err := json.Marshal(createGameRequest{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.OK)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	roomID, _ := data["room_id"].(string)
	assert.NotEmpty(t, roomID)
	ticket, _ := data["ticket"].(string)
	assert.Equal(t, "signed-"+roomID, ticket)
}

func TestCreateGameHonorsExplicitRoomID(t *testing.T) {
	srv := newTestServer(&stubRoomLister{}, &stubTicketIssuer{})
	body, err := json.Marshal(createGameRequest{UserID: "u1", Username: "alice", RoomID: "room_fixed"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"room_id":"room_fixed"`)
	assert.Contains(t, rec.Body.String(), `"ticket":"signed-room_fixed"`)
}

func TestCreateGameRejectsMissingFields(t *testing.T) {
	srv := newTestServer(&stubRoomLister{}, &stubTicketIssuer{})
	body, _ := json.Marshal(map[string]string{"user_id": "u1"})

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGameSurfacesTicketSigningFailure(t *testing.T) {
	srv := newTestServer(&stubRoomLister{}, &stubTicketIssuer{err: assertError{}})
	body, _ := json.Marshal(createGameRequest{UserID: "u1", Username: "alice"})

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateGameRejectsOversizedBody(t *testing.T) {
	srv := NewServer(Config{Port: 0, MaxRequestBody: 16}, &stubRoomLister{}, &stubTicketIssuer{})
	body, _ := json.Marshal(createGameRequest{UserID: "u1", Username: "a-very-long-username-that-exceeds-the-limit"})

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type assertError struct{}

func (assertError) Error() string { return "signing failed" }
