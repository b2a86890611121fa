package repository

import (
	"context"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
)

// AuthAPI covers the remote auth endpoints the session manager depends on.
// Implementations route every call through the request gateway.
type AuthAPI interface {
	Login(ctx context.Context, req transport.LoginRequest) (*transport.AuthResponse, error)
	Signup(ctx context.Context, req transport.SignupRequest) (*transport.AuthResponse, error)
	// Logout revokes the refresh token server-side. Callers treat failures as
	// non-fatal; local teardown proceeds regardless.
	Logout(ctx context.Context, refreshToken string) error
	// Verify confirms the current access token and returns the server's view
	// of the authenticated user.
	Verify(ctx context.Context) (*domain.User, error)
}
