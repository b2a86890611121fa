package gateway

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
)

const refreshPath = "/auth/refresh"

// refreshSession renews the access token using the stored refresh token.
// Concurrent callers that discover a stale token at the same moment converge
// on a single in-flight refresh and share its outcome; duplicate refresh
// requests would risk the server invalidating the in-flight refresh token.
//
// Any failure here is terminal for the session: credentials are cleared, the
// expiry event is broadcast, and the caller's original request fails.
func (c *Client) refreshSession(ctx context.Context) (*domain.Session, error) {
	v, err, shared := c.refresh.Do("refresh", func() (interface{}, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight token refresh")
	}
	return v.(*domain.Session), nil
}

func (c *Client) doRefresh(ctx context.Context) (*domain.Session, error) {
	session, err := c.creds.LoadSession()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to load credentials", err)
	}
	if session == nil || session.RefreshToken == "" {
		c.clearCredentials()
		c.publishExpired()
		return nil, domain.ErrSessionExpired
	}

	req := transport.RefreshRequest{RefreshToken: session.RefreshToken}
	if user, err := c.creds.LoadUser(); err == nil && user != nil {
		req.Email = user.Email
	}

	var resp transport.AuthResponse
	if err := c.do(ctx, http.MethodPost, refreshPath, req, &resp, false); err != nil {
		c.logger.Warn("token refresh failed", zap.Error(err))
		c.clearCredentials()
		c.publishExpired()
		return nil, domain.WrapError(domain.ErrCodeSessionExpired, "session expired, please login again", err)
	}

	renewed := resp.Session(c.now())
	if renewed.RefreshToken == "" {
		// Some deployments rotate only the access token.
		renewed.RefreshToken = session.RefreshToken
	}
	if err := c.creds.SaveSession(renewed); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to persist refreshed session", err)
	}

	c.logger.Info("access token refreshed", zap.Int64("expires_at", renewed.ExpiresAt))
	return &renewed, nil
}
