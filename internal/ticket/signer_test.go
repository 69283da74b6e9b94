package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomSignerProducesVerifiableTicket(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	signer := RoomSigner{Secret: testSecret, TTL: 10 * time.Minute, Now: func() time.Time { return fixed }}

	token, err := signer.SignTicket("user-9", "yuki", "game-42", 2)
	require.NoError(t, err)

	out, err := VerifyTicket(token, testSecret, fixed)
	require.NoError(t, err)
	assert.Equal(t, "user-9", out.UserID)
	assert.Equal(t, "yuki", out.Username)
	assert.Equal(t, "game-42", out.RoomID)
	assert.Equal(t, fixed.Add(10*time.Minute).Unix(), out.ExpiresAt)
}

func TestRoomSignerClampsOversizedTTL(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	signer := RoomSigner{Secret: testSecret, TTL: 2 * time.Hour, Now: func() time.Time { return fixed }}

	token, err := signer.SignTicket("user-9", "yuki", "game-42", 2)
	require.NoError(t, err)

	out, err := VerifyTicket(token, testSecret, fixed)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(MaxTTL).Unix(), out.ExpiresAt)
}
