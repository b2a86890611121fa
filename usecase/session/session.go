// Package session orchestrates login, signup, logout, startup
// re-authentication, and reacts to credential expiry broadcasts.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/internal/notifier"
	"github.com/fastygo/client/repository"
)

// Status is the tri-state auth check result consumers key redirects off.
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusChecking        Status = "checking"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// DefaultVerifyTimeout bounds the startup server verification. When the
// budget elapses the cached identity wins over server freshness.
const DefaultVerifyTimeout = 5 * time.Second

// Manager tracks credential state. All mutation of the session and the
// cached user funnels through its operations.
type Manager struct {
	auth   repository.AuthAPI
	creds  repository.CredentialRepository
	bus    *notifier.Bus
	logger *zap.Logger

	verifyTimeout time.Duration
	now           func() time.Time

	mu         sync.Mutex
	status     Status
	user       *domain.User
	errMsg     string
	checking   bool
	generation int

	stopWatch func()
}

// Option customizes a Manager.
type Option func(*Manager)

func WithVerifyTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.verifyTimeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func New(auth repository.AuthAPI, creds repository.CredentialRepository, bus *notifier.Bus, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		auth:          auth,
		creds:         creds,
		bus:           bus,
		logger:        logger,
		verifyTimeout: DefaultVerifyTimeout,
		now:           time.Now,
		status:        StatusUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to the expiry broadcast so a refresh failure anywhere in
// the gateway forces logout here. Stop with Stop.
func (m *Manager) Start() {
	if m.bus == nil {
		return
	}
	events, unsubscribe := m.bus.Subscribe()
	done := make(chan struct{})
	m.stopWatch = func() {
		unsubscribe()
		<-done
	}
	go func() {
		defer close(done)
		for event := range events {
			if event == notifier.EventTokenExpired {
				m.expire()
			}
		}
	}()
}

// Stop detaches the expiry watcher.
func (m *Manager) Stop() {
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
}

// Login exchanges credentials for a session, persists it together with the
// user profile, and transitions to authenticated. The failure message is
// recorded for passive consumers and the error returned for active ones.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := m.auth.Login(ctx, transport.LoginRequest{Email: email, Password: password})
	if err != nil {
		m.recordFailure("login failed", err)
		return nil, err
	}
	return m.adoptSession(resp)
}

// Signup registers a new account; the server logs the account in as part of
// signup, so the response carries a full session.
func (m *Manager) Signup(ctx context.Context, email, password, name string) (*domain.User, error) {
	resp, err := m.auth.Signup(ctx, transport.SignupRequest{Email: email, Password: password, Name: name})
	if err != nil {
		m.recordFailure("signup failed", err)
		return nil, err
	}
	return m.adoptSession(resp)
}

// Logout notifies the server on a best-effort basis, then unconditionally
// clears local credentials. Calling it while already logged out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	session, err := m.creds.LoadSession()
	if err == nil && session != nil {
		if err := m.auth.Logout(ctx, session.RefreshToken); err != nil {
			// Failure to notify the server never blocks local teardown.
			m.logger.Warn("server logout failed", zap.Error(err))
		}
	}
	m.teardown("")
	return nil
}

// CheckAuth resolves the startup session state. With no cached credentials it
// resolves unauthenticated immediately. With cached credentials it attempts a
// bounded-time server verification; whichever of {verify response, timeout}
// lands first wins, and a timeout or failed verify keeps the cached identity.
// Only the gateway's expiry broadcast logs the user out.
func (m *Manager) CheckAuth(ctx context.Context) (Status, error) {
	m.mu.Lock()
	if m.checking {
		status := m.status
		m.mu.Unlock()
		return status, nil
	}
	m.checking = true
	m.status = StatusChecking
	generation := m.generation
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.checking = false
		m.mu.Unlock()
	}()

	cachedUser, err := m.creds.LoadUser()
	if err != nil {
		m.resolve(generation, StatusUnauthenticated, nil)
		return StatusUnauthenticated, domain.WrapError(domain.ErrCodeInternal, "failed to load cached user", err)
	}
	session, err := m.creds.LoadSession()
	if err != nil {
		m.resolve(generation, StatusUnauthenticated, nil)
		return StatusUnauthenticated, domain.WrapError(domain.ErrCodeInternal, "failed to load credentials", err)
	}
	if session == nil || cachedUser == nil {
		m.resolve(generation, StatusUnauthenticated, nil)
		return StatusUnauthenticated, nil
	}

	user := cachedUser
	if verified, ok := m.verifyWithBudget(ctx); ok {
		user = verified
		if err := m.creds.SaveUser(*verified); err != nil {
			m.logger.Warn("failed to refresh cached user", zap.Error(err))
		}
	}

	m.resolve(generation, StatusAuthenticated, user)
	return StatusAuthenticated, nil
}

// verifyWithBudget races the verify call against the timeout budget. First
// resolution wins; timeout counts as success-with-stale-data, not failure.
func (m *Manager) verifyWithBudget(ctx context.Context) (*domain.User, bool) {
	verifyCtx, cancel := context.WithTimeout(ctx, m.verifyTimeout)
	defer cancel()

	type outcome struct {
		user *domain.User
		err  error
	}
	results := make(chan outcome, 1)
	go func() {
		user, err := m.auth.Verify(verifyCtx)
		results <- outcome{user: user, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil || res.user == nil {
			m.logger.Debug("verification failed, keeping cached identity", zap.Error(res.err))
			return nil, false
		}
		return res.user, true
	case <-verifyCtx.Done():
		m.logger.Debug("verification timed out, keeping cached identity")
		return nil, false
	}
}

// Status returns the current tri-state check result.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// User returns the current identity, nil when unauthenticated.
func (m *Manager) User() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	copied := *m.user
	return &copied
}

// Err returns the last recorded failure message for passive UI consumption.
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// ClearError resets the recorded failure message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

func (m *Manager) adoptSession(resp *transport.AuthResponse) (*domain.User, error) {
	session := resp.Session(m.now())
	if err := m.creds.SaveSession(session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to persist session", err)
	}
	if err := m.creds.SaveUser(resp.User); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to persist user", err)
	}

	m.mu.Lock()
	user := resp.User
	m.user = &user
	m.status = StatusAuthenticated
	m.errMsg = ""
	m.generation++
	m.mu.Unlock()

	m.logger.Info("session established", zap.String("user_id", user.ID))
	return &user, nil
}

func (m *Manager) recordFailure(fallback string, err error) {
	msg := domain.MessageOf(err)
	if msg == "" {
		msg = fallback
	}
	m.mu.Lock()
	m.errMsg = msg
	if m.status != StatusAuthenticated {
		m.status = StatusUnauthenticated
	}
	m.mu.Unlock()
}

func (m *Manager) expire() {
	m.logger.Info("token expiry broadcast received, forcing logout")
	m.teardown(domain.ErrSessionExpired.Message)
}

func (m *Manager) teardown(errMsg string) {
	if err := m.creds.ClearSession(); err != nil {
		m.logger.Warn("failed to clear session", zap.Error(err))
	}
	if err := m.creds.ClearUser(); err != nil {
		m.logger.Warn("failed to clear cached user", zap.Error(err))
	}

	m.mu.Lock()
	m.user = nil
	m.status = StatusUnauthenticated
	m.errMsg = errMsg
	m.generation++
	m.mu.Unlock()
}

// resolve applies a check outcome unless a login or logout happened while the
// check was in flight.
func (m *Manager) resolve(generation int, status Status, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	m.status = status
	m.user = user
}
