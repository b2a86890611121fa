package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/internal/notifier"
	"github.com/fastygo/client/repository/memory"
)

type fixture struct {
	creds  *memory.CredentialRepository
	bus    *notifier.Bus
	client *Client
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := memory.NewCredentialRepository()
	bus := notifier.New()
	t.Cleanup(bus.Close)

	return &fixture{
		creds:  creds,
		bus:    bus,
		client: New(server.URL, creds, bus, nil),
	}
}

func sessionExpiringIn(ttl time.Duration) domain.Session {
	return domain.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(ttl).Unix(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAttachesBearerToken(t *testing.T) {
	var gotAuth string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []domain.Task{})
	}))
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(time.Hour)))

	var tasks []domain.Task
	require.NoError(t, f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, &tasks))
	assert.Equal(t, "Bearer access-token", gotAuth)
}

func TestNoSessionFailsWithoutNetworkCall(t *testing.T) {
	calls := 0
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	err := f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Zero(t, calls)
}

func TestCredentialExemptPathSendsNoAuthHeader(t *testing.T) {
	var gotAuth string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	var out map[string]string
	require.NoError(t, f.client.JSONNoAuth(context.Background(), http.MethodPost, "/auth/login", map[string]string{"email": "a@b.c"}, &out))
	assert.Empty(t, gotAuth)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        func(w http.ResponseWriter)
		wantCode    domain.ErrorCode
		wantMessage string
	}{
		{
			name:   "json error body",
			status: http.StatusNotFound,
			body: func(w http.ResponseWriter) {
				writeJSON(w, http.StatusNotFound, map[string]interface{}{
					"error": "not_found", "message": "task does not exist", "status_code": 404,
				})
			},
			wantCode:    domain.ErrCodeNotFound,
			wantMessage: "task does not exist",
		},
		{
			name:   "validation failure",
			status: http.StatusBadRequest,
			body: func(w http.ResponseWriter) {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{
					"error": "invalid", "message": "title is required", "status_code": 400,
				})
			},
			wantCode:    domain.ErrCodeInvalid,
			wantMessage: "title is required",
		},
		{
			name:   "conflict",
			status: http.StatusConflict,
			body: func(w http.ResponseWriter) {
				writeJSON(w, http.StatusConflict, map[string]interface{}{
					"error": "conflict", "message": "task changed server-side", "status_code": 409,
				})
			},
			wantCode:    domain.ErrCodeConflict,
			wantMessage: "task changed server-side",
		},
		{
			name:   "non-json failure body synthesizes message",
			status: http.StatusInternalServerError,
			body: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("<html>boom</html>"))
			},
			wantCode:    domain.ErrCodeInternal,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.body(w)
			}))
			require.NoError(t, f.creds.SaveSession(sessionExpiringIn(time.Hour)))

			err := f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, nil)
			require.Error(t, err)

			var dErr *domain.Error
			require.ErrorAs(t, err, &dErr)
			assert.Equal(t, tt.wantCode, dErr.Code)
			assert.Equal(t, tt.wantMessage, dErr.Message)
			assert.Equal(t, tt.status, dErr.StatusCode)
		})
	}
}

func TestSuccessfulNonJSONBodyYieldsEmptyResult(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(time.Hour)))

	var out map[string]string
	require.NoError(t, f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, &out))
	assert.Empty(t, out)
}

// An access token expired a minute ago with a valid refresh token triggers
// exactly one refresh; the original call then proceeds with the new token.
func TestRefreshOnExpiredToken(t *testing.T) {
	var refreshCalls int64
	var taskAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "refresh-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "bad refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "renewed-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		taskAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []domain.Task{})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(-time.Minute)))

	var tasks []domain.Task
	require.NoError(t, f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, &tasks))

	assert.EqualValues(t, 1, atomic.LoadInt64(&refreshCalls))
	assert.Equal(t, "Bearer renewed-token", taskAuth)

	persisted, err := f.creds.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "renewed-token", persisted.AccessToken)
	// Deployments that rotate only the access token keep the old refresh token.
	assert.Equal(t, "refresh-token", persisted.RefreshToken)
	assert.Greater(t, persisted.ExpiresAt, time.Now().Unix())
}

// N concurrent calls discovering a stale token converge on one refresh whose
// outcome all of them share.
func TestSingleFlightRefresh(t *testing.T) {
	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "renewed-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Task{})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(-time.Minute)))

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var tasks []domain.Task
			errs[i] = f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, &tasks)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(&refreshCalls))
}

func TestRefreshFailureClearsCredentialsAndBroadcasts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "refresh token revoked"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(-time.Minute)))
	require.NoError(t, f.creds.SaveUser(domain.User{ID: "u1", Email: "a@b.c"}))

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	err := f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSessionExpired))

	session, loadErr := f.creds.LoadSession()
	require.NoError(t, loadErr)
	assert.Nil(t, session)
	user, loadErr := f.creds.LoadUser()
	require.NoError(t, loadErr)
	assert.Nil(t, user)

	select {
	case event := <-events:
		assert.Equal(t, notifier.EventTokenExpired, event)
	case <-time.After(time.Second):
		t.Fatal("expiry event never broadcast")
	}
}

// A 401 on an authenticated call means the server rejected a token we thought
// was fresh; the session is torn down rather than retried.
func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "token revoked"})
	}))
	require.NoError(t, f.creds.SaveSession(sessionExpiringIn(time.Hour)))

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	err := f.client.JSON(context.Background(), http.MethodGet, "/tasks", nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSessionExpired))

	session, loadErr := f.creds.LoadSession()
	require.NoError(t, loadErr)
	assert.Nil(t, session)

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("expiry event never broadcast")
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	creds := memory.NewCredentialRepository()
	require.NoError(t, creds.SaveSession(sessionExpiringIn(time.Hour)))
	client := New("http://127.0.0.1:1", creds, nil, nil, WithTimeout(time.Second))

	err := client.JSON(context.Background(), http.MethodGet, "/tasks", nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}
