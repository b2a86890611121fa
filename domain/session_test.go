package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	skew := 30 * time.Second

	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{"well in the future", now.Add(time.Hour).Unix(), false},
		{"already past", now.Add(-time.Minute).Unix(), true},
		{"inside the skew window", now.Add(10 * time.Second).Unix(), true},
		{"just outside the skew window", now.Add(31 * time.Second).Unix(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.IsExpired(now, skew))
		})
	}
}

func TestSessionNilIsExpired(t *testing.T) {
	var s *Session
	assert.True(t, s.IsExpired(time.Now(), 0))
}

func TestSessionComplete(t *testing.T) {
	assert.True(t, (&Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}).Complete())
	assert.False(t, (&Session{AccessToken: "a", RefreshToken: "r"}).Complete())
	assert.False(t, (&Session{AccessToken: "a", ExpiresAt: 1}).Complete())
	assert.False(t, (&Session{RefreshToken: "r", ExpiresAt: 1}).Complete())
}
