// Package session owns the authentication credential lifecycle: startup
// verification, login, demo login, logout, and the session state exposed to
// the rest of the client.
package session

import (
	"context"
	"sync"

	"github.com/filehaven/filehaven/internal/api"
	"github.com/filehaven/filehaven/internal/logging"
	"github.com/filehaven/filehaven/internal/models"
)

// Status is the session state-machine position.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusVerifying       Status = "verifying"
	StatusAuthenticated   Status = "authenticated"
)

// Demo identity. The server ships a fixed sandboxed account for it; the
// navigation layer scopes the default path for this principal.
const (
	DemoUsername = "demo"
	demoPassword = "demo"
)

// State is the in-memory view of the session. It is rebuilt from the
// persisted credential on every process start and never persisted itself.
type State struct {
	Principal *models.Principal
	Status    Status
	LastError string
}

// Authenticated reports whether a principal is established.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// CredentialStore persists the bearer token across restarts. Absence means
// unauthenticated. At most one credential is live per client instance.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Result is the outcome of a login attempt. Login never returns transport
// errors; every failure is folded into this value.
type Result struct {
	Success bool
	Error   string
}

// loginFlight shares one in-flight login between concurrent callers so a
// second invocation never issues a duplicate request.
type loginFlight struct {
	done   chan struct{}
	result Result
}

// Manager drives the Unauthenticated -> Verifying -> Authenticated state
// machine. It is the only writer of the session state and the only owner of
// the persisted credential.
type Manager struct {
	client *api.Client
	store  CredentialStore
	logger *logging.Logger

	mu       sync.Mutex
	state    State
	started  bool
	inflight *loginFlight
}

// NewManager creates a session manager and installs the auth-rejection hook
// on the API client, so a token the server stops accepting triggers the
// implicit logout mandated for lazy expiry detection.
func NewManager(client *api.Client, store CredentialStore, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	m := &Manager{
		client: client,
		store:  store,
		logger: logger,
		state:  State{Status: StatusUnauthenticated},
	}
	client.SetAuthRejectedHook(m.handleAuthRejected)
	return m
}

// Startup restores the session from the persisted credential, verifying it
// against the server. It runs exactly once per process; later calls return
// the current state unchanged. Any verification failure (network, rejection,
// malformed response) discards the persisted credential and leaves the
// session unauthenticated; startup itself never fails.
func (m *Manager) Startup(ctx context.Context) State {
	m.mu.Lock()
	if m.started {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.started = true

	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to read persisted credential")
		token = ""
	}
	if token == "" {
		m.state = State{Status: StatusUnauthenticated}
		state := m.state
		m.mu.Unlock()
		return state
	}

	m.state.Status = StatusVerifying
	m.mu.Unlock()

	m.client.SetToken(token)
	principal, verifyErr := m.client.Verify(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if verifyErr != nil {
		m.logger.Debug().Err(verifyErr).Msg("startup token verification failed")
		if err := m.store.Clear(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to discard persisted credential")
		}
		m.client.ClearToken()
		m.state = State{Status: StatusUnauthenticated}
		return m.state
	}

	m.state = State{Principal: principal, Status: StatusAuthenticated}
	return m.state
}

// Login authenticates with the given credentials. A concurrent call while a
// login is in flight observes Verifying and shares the first call's result
// instead of issuing a duplicate request. Transport failures never escape:
// the outcome is always a Result.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	m.mu.Lock()
	if f := m.inflight; f != nil {
		m.mu.Unlock()
		select {
		case <-f.done:
			return f.result
		case <-ctx.Done():
			return Result{Error: "login cancelled"}
		}
	}

	f := &loginFlight{done: make(chan struct{})}
	m.inflight = f
	m.state.Status = StatusVerifying
	m.state.LastError = ""
	m.mu.Unlock()

	result := m.doLogin(ctx, username, password)

	m.mu.Lock()
	f.result = result
	m.inflight = nil
	m.mu.Unlock()
	close(f.done)

	return result
}

// LoginDemo authenticates against the fixed demo identity. Same contract as
// Login; the sandboxed default path for demo sessions is navigation policy,
// not session policy.
func (m *Manager) LoginDemo(ctx context.Context) Result {
	return m.Login(ctx, DemoUsername, demoPassword)
}

func (m *Manager) doLogin(ctx context.Context, username, password string) Result {
	token, err := m.client.Login(ctx, username, password)
	if err != nil {
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "login failed"
		}
		m.setUnauthenticated(msg)
		return Result{Error: msg}
	}

	if err := m.store.Save(token); err != nil {
		// Session still works for this process; it just won't survive a
		// restart.
		m.logger.Warn().Err(err).Msg("failed to persist credential")
	}
	m.client.SetToken(token)

	principal, err := m.client.Me(ctx)
	if err != nil {
		// The token worked moments ago but the principal fetch failed.
		// Treat the attempt as failed and roll the credential back so the
		// session is not half-established.
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "login failed"
		}
		if clearErr := m.store.Clear(); clearErr != nil {
			m.logger.Warn().Err(clearErr).Msg("failed to discard persisted credential")
		}
		m.client.ClearToken()
		m.setUnauthenticated(msg)
		return Result{Error: msg}
	}

	m.mu.Lock()
	m.state = State{Principal: principal, Status: StatusAuthenticated}
	m.mu.Unlock()

	m.logger.Debug().Str("username", principal.Username).Msg("login succeeded")
	return Result{Success: true}
}

func (m *Manager) setUnauthenticated(lastError string) {
	m.mu.Lock()
	m.state = State{Status: StatusUnauthenticated, LastError: lastError}
	m.mu.Unlock()
}

// Logout discards the persisted credential and resets the session. It is
// synchronous, unconditional, idempotent, and never fails.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to discard persisted credential")
	}
	m.client.ClearToken()

	m.mu.Lock()
	m.state = State{Status: StatusUnauthenticated}
	m.mu.Unlock()
}

// State returns a read-only snapshot of the session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	if state.Principal != nil {
		principal := *state.Principal
		state.Principal = &principal
	}
	return state
}

// handleAuthRejected is installed as the API client's auth-rejection hook.
// The server stopped accepting the token, so the next observation of the
// session must reflect an unauthenticated state.
func (m *Manager) handleAuthRejected() {
	m.logger.Debug().Msg("token rejected by server, logging out")
	m.Logout()
}
