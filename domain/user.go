package domain

import "time"

// User represents the authenticated identity cached alongside the session.
// The cached copy is a hint for offline-tolerant auth checks; the server's
// verify response supersedes it whenever reachable.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
