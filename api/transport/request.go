package transport

// LoginRequest carries user credentials for /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest carries registration fields for /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RefreshRequest carries the refresh token (and the cached user's email,
// which the auth service uses to locate the token record) for /auth/refresh.
type RefreshRequest struct {
	Email        string `json:"email,omitempty"`
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest identifies the refresh token to revoke on /auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TaskCreate is the payload for POST /tasks.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// TaskUpdate is the partial patch for PUT /tasks/{id}. Nil fields are
// omitted from the wire payload and left untouched server-side.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}
