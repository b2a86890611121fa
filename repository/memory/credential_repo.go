// Package memory provides an in-memory credential store for tests and
// ephemeral sessions that should not outlive the process.
package memory

import (
	"sync"

	"github.com/fastygo/client/domain"
)

type CredentialRepository struct {
	mu      sync.RWMutex
	session *domain.Session
	user    *domain.User
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{}
}

func (r *CredentialRepository) LoadSession() (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil || !r.session.Complete() {
		return nil, nil
	}
	copied := *r.session
	return &copied, nil
}

func (r *CredentialRepository) SaveSession(session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = &session
	return nil
}

func (r *CredentialRepository) ClearSession() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return nil
}

func (r *CredentialRepository) LoadUser() (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return nil, nil
	}
	copied := *r.user
	return &copied, nil
}

func (r *CredentialRepository) SaveUser(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = &user
	return nil
}

func (r *CredentialRepository) ClearUser() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = nil
	return nil
}
