package orgvclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// SessionState tracks whether the client currently holds an authenticated
// session and who it belongs to. It is the single consumer-facing view of
// session existence: the session itself lives in server-side cookies and is
// never held here as a token.
//
// The state reacts to four invalidation sources: a failed refresh (via the
// broadcaster), an explicit local logout, a logout signalled by another
// instance, and a failed self-details probe.
type SessionState struct {
	client  *Client
	notices *noticeCenter
	logger  *slog.Logger

	mu            sync.RWMutex
	user          *UserSummary
	authenticated bool
	checked       bool
}

func newSessionState(c *Client) *SessionState {
	return &SessionState{
		client:  c,
		notices: c.notices,
		logger:  c.logger,
	}
}

// Bootstrap primes the anti-forgery token and probes the current session.
// It is the first call a consumer makes; until it returns, Ready reports
// false and authenticated calls should be withheld.
func (s *SessionState) Bootstrap(ctx context.Context) error {
	if err := s.client.BootstrapCSRF(ctx); err != nil {
		return err
	}
	if err := s.CheckAuth(ctx); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	return nil
}

// CheckAuth probes the session by fetching the caller's own details. On
// success the cached user is replaced; a 401 (refresh exhausted included)
// clears the state and returns ErrNotAuthenticated.
func (s *SessionState) CheckAuth(ctx context.Context) error {
	var user UserSummary
	err := s.client.getJSON(ctx, pathSelfDetails, nil, &user)
	if err != nil {
		s.mu.Lock()
		s.user = nil
		s.authenticated = false
		s.checked = true
		s.mu.Unlock()

		if IsSessionExpired(err) || errors.Is(err, ErrNotAuthenticated) {
			return ErrNotAuthenticated
		}
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.authenticated = true
	s.checked = true
	s.mu.Unlock()
	return nil
}

// RefreshUser re-fetches the cached user after an operation that changed it
// (details update, email change, MFA toggle).
func (s *SessionState) RefreshUser(ctx context.Context) error {
	return s.CheckAuth(ctx)
}

// Logout ends the session everywhere: best-effort server call, cross-instance
// signal, then local clear. The local clear happens regardless of the server
// call's outcome so a dead server cannot trap the user in a stale session.
func (s *SessionState) Logout(ctx context.Context) error {
	err := s.client.postJSON(ctx, pathLogout, nil, nil)
	if err != nil && !IsSessionExpired(err) {
		s.logger.Warn("server logout failed, clearing local session anyway", "error", err)
	}
	s.client.broadcaster.SignalLogout(ctx)
	s.LocalLogout()
	return err
}

// LocalLogout clears the cached session state without any network call. It
// is idempotent: signals are at-least-once and several sources may fire for
// the same logout.
func (s *SessionState) LocalLogout() {
	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()
	if wasAuthenticated {
		s.logger.Info("session cleared")
	}
}

// sessionExpired is the broadcaster's session-expired handler: clear state
// and tell the user once.
func (s *SessionState) sessionExpired() {
	s.mu.RLock()
	wasAuthenticated := s.authenticated
	s.mu.RUnlock()
	s.LocalLogout()
	if wasAuthenticated {
		s.notices.notify(NoticeWarning, noticeIDSessionExpired, "Your session has expired. Please log in again.")
	}
}

// Current returns the cached user, if authenticated.
func (s *SessionState) Current() (UserSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return UserSummary{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether the client currently holds a session.
func (s *SessionState) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Ready reports whether the initial session probe has completed.
func (s *SessionState) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checked
}

// Authorities returns the permission set of the current user; empty when
// unauthenticated.
func (s *SessionState) Authorities() AuthoritySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return AuthoritySet{}
	}
	return authoritiesOf(s.user)
}
