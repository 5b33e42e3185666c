// Package session owns the authentication token and username: the only
// shared mutable state between the outgoing requests and the rest of
// the controller. The token is written here and nowhere else.
package session

import (
	"context"
	"strings"
	"sync"

	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/poll"
	"ltvpilot/internal/report"
	"ltvpilot/internal/store/sessionstore"
	"ltvpilot/internal/view"
)

// Fallback messages for failures where the service supplied none.
const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
	registerNotice   = "Registration successful. Please log in."
)

// API is the auth surface of the strategy client.
type API interface {
	Login(ctx context.Context, username, password string) (*strategy.LoginResult, error)
	Register(ctx context.Context, username, email, password string) error
}

// Manager drives login, registration, restore and logout, and carries
// the live token. It implements strategy.TokenSource.
type Manager struct {
	store    *sessionstore.Store
	views    *view.Router
	reporter *report.Reporter

	api    API
	poller *poll.Scheduler
	runCtx context.Context

	mu       sync.RWMutex
	token    string
	username string
}

func NewManager(store *sessionstore.Store, views *view.Router, reporter *report.Reporter) *Manager {
	return &Manager{store: store, views: views, reporter: reporter, runCtx: context.Background()}
}

// Attach wires the pieces that need the manager during their own
// construction. runCtx outlives individual requests; the poll loop is
// started on it, not on a request context.
func (m *Manager) Attach(runCtx context.Context, api API, poller *poll.Scheduler) {
	if runCtx != nil {
		m.runCtx = runCtx
	}
	m.api = api
	m.poller = poller
}

// Token returns the current bearer token, empty without a session.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Username returns the authenticated username, empty without a session.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// Active reports whether a session exists. A session exists iff a
// token is present.
func (m *Manager) Active() bool {
	return m.Token() != ""
}

// Login authenticates, persists the session and enters the dashboard.
// Failures are surfaced through the reporter; the returned error only
// signals the outcome to the caller.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.reporter.UserError(strategy.UserMessage(err, loginFallback))
		if strategy.IsTransport(err) {
			m.reporter.Diagnostic("login transport failure: %v", err)
		}
		return err
	}
	if err := m.establish(res.AccessToken, res.Username); err != nil {
		m.reporter.UserError(loginFallback)
		m.reporter.Diagnostic("persisting session failed: %v", err)
		return err
	}
	if err := m.views.To(view.StateDashboard); err != nil {
		m.reporter.Diagnostic("entering dashboard failed: %v", err)
	}
	m.poller.Start(m.runCtx)
	return nil
}

// Register creates an account. Success routes back to the login view
// with a notice; it never establishes a session.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	if err := m.api.Register(ctx, username, email, password); err != nil {
		m.reporter.UserError(strategy.UserMessage(err, registerFallback))
		if strategy.IsTransport(err) {
			m.reporter.Diagnostic("register transport failure: %v", err)
		}
		return err
	}
	if err := m.views.To(view.StateLogin); err != nil {
		m.reporter.Diagnostic("returning to login failed: %v", err)
	}
	m.reporter.UserSuccess(registerNotice)
	return nil
}

// Restore re-enters the dashboard from a previously persisted token,
// without re-authenticating. Token freshness is not checked here; an
// expired token surfaces when a later request fails. Returns whether a
// session was restored.
func (m *Manager) Restore() (bool, error) {
	token, err := m.store.Get(sessionstore.KeyAuthToken)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	username, err := m.store.Get(sessionstore.KeyAuthUsername)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	m.token = token
	m.username = username
	m.mu.Unlock()
	if err := m.views.To(view.StateDashboard); err != nil {
		m.reporter.Diagnostic("restoring dashboard view failed: %v", err)
	}
	m.poller.Start(m.runCtx)
	return true, nil
}

// Logout tears the session down: stops polling, clears persisted and
// in-memory credentials, returns to the login view. Safe to call with
// no session and safe to call twice.
func (m *Manager) Logout() error {
	m.poller.Stop()
	m.mu.Lock()
	m.token = ""
	m.username = ""
	m.mu.Unlock()

	var firstErr error
	for _, key := range []string{sessionstore.KeyAuthToken, sessionstore.KeyAuthUsername} {
		if err := m.store.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := m.store.ClearLastSnapshot(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.views.To(view.StateLogin); err != nil {
		m.reporter.Diagnostic("returning to login failed: %v", err)
	}
	if firstErr != nil {
		m.reporter.Diagnostic("clearing persisted session failed: %v", firstErr)
	}
	return firstErr
}

func (m *Manager) establish(token, username string) error {
	m.mu.Lock()
	m.token = token
	m.username = username
	m.mu.Unlock()
	if err := m.store.Put(sessionstore.KeyAuthToken, token); err != nil {
		return err
	}
	return m.store.Put(sessionstore.KeyAuthUsername, username)
}
