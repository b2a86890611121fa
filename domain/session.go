package domain

import "time"

// Session holds the credential triple issued by the auth service. Tokens are
// opaque to the client; ExpiresAt is an absolute unix timestamp in seconds.
// Either all three fields are present or the session does not exist — the
// credential store never persists a partial triple.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// IsExpired reports whether the access token is unusable at the reference
// time, applying skew as a safety margin so renewal happens before the server
// would actually reject the token.
func (s *Session) IsExpired(reference time.Time, skew time.Duration) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return reference.Add(skew).Unix() >= s.ExpiresAt
}

// Complete reports whether all three credential fields are populated.
func (s *Session) Complete() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != "" && s.ExpiresAt > 0
}
