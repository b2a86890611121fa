package transport

import (
	"time"

	"github.com/fastygo/client/domain"
)

// Tokens is the nested credential block some auth deployments return.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthResponse covers both auth response shapes seen in the wild: a flat body
// with expires_in seconds, and a nested tokens object with an absolute
// expires_at. Session() normalizes either into an absolute-epoch session so
// nothing past the transport boundary cares which form the server speaks.
type AuthResponse struct {
	User         domain.User `json:"user"`
	Tokens       *Tokens     `json:"tokens,omitempty"`
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	TokenType    string      `json:"token_type,omitempty"`
	ExpiresIn    int64       `json:"expires_in,omitempty"`
	ExpiresAt    int64       `json:"expires_at,omitempty"`
}

// Session normalizes the response into a credential session anchored at now.
func (r *AuthResponse) Session(now time.Time) domain.Session {
	if r.Tokens != nil {
		return domain.Session{
			AccessToken:  r.Tokens.AccessToken,
			RefreshToken: r.Tokens.RefreshToken,
			ExpiresAt:    r.Tokens.ExpiresAt,
		}
	}
	expiresAt := r.ExpiresAt
	if expiresAt == 0 {
		expiresAt = now.Unix() + r.ExpiresIn
	}
	return domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

// VerifyResponse is the body of GET /auth/verify.
type VerifyResponse struct {
	User domain.User `json:"user"`
}

// ErrorBody is the uniform failure shape the backend emits.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}
