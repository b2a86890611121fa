package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestSessionFromFlatResponse(t *testing.T) {
	body := `{
		"access_token": "at-1",
		"refresh_token": "rt-1",
		"token_type": "bearer",
		"expires_in": 3600,
		"user": {"id": "u1", "email": "ada@example.com"}
	}`
	var resp AuthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	session := resp.Session(anchor)
	assert.Equal(t, "at-1", session.AccessToken)
	assert.Equal(t, "rt-1", session.RefreshToken)
	assert.Equal(t, anchor.Unix()+3600, session.ExpiresAt, "expires_in anchors at the caller's now")
	assert.Equal(t, "u1", resp.User.ID)
}

func TestSessionFromNestedTokens(t *testing.T) {
	body := `{
		"user": {"id": "u1", "email": "ada@example.com"},
		"tokens": {
			"access_token": "at-2",
			"refresh_token": "rt-2",
			"expires_at": 1893456000
		}
	}`
	var resp AuthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	session := resp.Session(anchor)
	assert.Equal(t, "at-2", session.AccessToken)
	assert.Equal(t, "rt-2", session.RefreshToken)
	assert.Equal(t, int64(1893456000), session.ExpiresAt, "absolute expiry passes through untouched")
}

// The nested block wins when a server sends both shapes.
func TestSessionPrefersNestedTokens(t *testing.T) {
	resp := AuthResponse{
		AccessToken:  "flat",
		RefreshToken: "flat-r",
		ExpiresIn:    60,
		Tokens:       &Tokens{AccessToken: "nested", RefreshToken: "nested-r", ExpiresAt: 42},
	}

	session := resp.Session(anchor)
	assert.Equal(t, "nested", session.AccessToken)
	assert.Equal(t, int64(42), session.ExpiresAt)
}

func TestSessionFlatAbsoluteExpiryWinsOverExpiresIn(t *testing.T) {
	resp := AuthResponse{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		ExpiresAt:    500,
	}

	session := resp.Session(anchor)
	assert.Equal(t, int64(500), session.ExpiresAt)
}

func TestErrorBodyShape(t *testing.T) {
	body := `{"error": "NOT_FOUND", "message": "task not found", "status_code": 404}`
	var eb ErrorBody
	require.NoError(t, json.Unmarshal([]byte(body), &eb))
	assert.Equal(t, "NOT_FOUND", eb.Error)
	assert.Equal(t, "task not found", eb.Message)
	assert.Equal(t, 404, eb.StatusCode)
}
