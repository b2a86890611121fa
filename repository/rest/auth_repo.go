// Package rest implements the remote API repositories on top of the request
// gateway.
package rest

import (
	"context"
	"net/http"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/internal/gateway"
)

type AuthRepository struct {
	gw *gateway.Client
}

func NewAuthRepository(gw *gateway.Client) *AuthRepository {
	return &AuthRepository{gw: gw}
}

// Login exchanges credentials for a session. No Authorization header is
// attached; there is no prior session on this path.
func (r *AuthRepository) Login(ctx context.Context, req transport.LoginRequest) (*transport.AuthResponse, error) {
	var resp transport.AuthResponse
	if err := r.gw.JSONNoAuth(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *AuthRepository) Signup(ctx context.Context, req transport.SignupRequest) (*transport.AuthResponse, error) {
	var resp transport.AuthResponse
	if err := r.gw.JSONNoAuth(ctx, http.MethodPost, "/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *AuthRepository) Logout(ctx context.Context, refreshToken string) error {
	req := transport.LogoutRequest{RefreshToken: refreshToken}
	return r.gw.JSON(ctx, http.MethodPost, "/auth/logout", req, nil)
}

func (r *AuthRepository) Verify(ctx context.Context) (*domain.User, error) {
	var resp transport.VerifyResponse
	if err := r.gw.JSON(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
