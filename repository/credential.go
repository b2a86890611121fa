package repository

import "github.com/fastygo/client/domain"

// CredentialRepository persists the credential triple and the cached user
// profile. Implementations are synchronous key-value stores with no token
// introspection; tokens are opaque strings plus a numeric expiry.
//
// LoadSession returns (nil, nil) when any part of the triple is absent — a
// partial session is treated as no session.
type CredentialRepository interface {
	LoadSession() (*domain.Session, error)
	SaveSession(session domain.Session) error
	ClearSession() error

	LoadUser() (*domain.User, error)
	SaveUser(user domain.User) error
	ClearUser() error
}
