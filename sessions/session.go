package sessions

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
)

// State is the authentication state of a Session.
type State int

const (
	// Anonymous holds no tokens. It is both the initial state and the state
	// a session returns to after logout or an unrecoverable refresh failure.
	Anonymous State = iota
	// Authenticated holds an access and a refresh token.
	Authenticated
	// Refreshing is transient while a new access token is being requested.
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Credentials is the token pair returned by a successful login.
type Credentials struct {
	AccessToken  string // Short-lived bearer token
	RefreshToken string // Long-lived token exchanged for new access tokens
}

// TeardownListener is called after a session has been cleared.
type TeardownListener func(reason error)

// Session owns the in-memory credentials of one logged in admin.
// It is the single writer of the access token; the gateway reads and
// replaces it only through these methods.
type Session struct {
	mu        sync.RWMutex
	creds     Credentials
	state     State
	listeners []TeardownListener
}

// New returns an Anonymous session.
func New() *Session {
	return &Session{state: Anonymous}
}

// Login stores a freshly issued token pair and moves to Authenticated.
func (s *Session) Login(creds Credentials) error {
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return fmt.Errorf("[Session.Login] both tokens are required: %w", apierrors.ErrInvalidToken)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.state = Authenticated
	return nil
}

// Restore resumes a session from previously stored credentials. Unlike Login
// the refresh token may be missing, in which case an expired access token
// cannot be recovered.
func (s *Session) Restore(creds Credentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("[Session.Restore] access token is required: %w", apierrors.ErrInvalidToken)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.state = Authenticated
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether the session currently holds tokens.
func (s *Session) IsAuthenticated() bool {
	return s.State() != Anonymous
}

// BeginRefresh marks the session as Refreshing and returns the refresh token
// to exchange. It fails when there is none.
func (s *Session) BeginRefresh() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.RefreshToken == "" {
		return "", apierrors.ErrNoRefreshToken
	}
	s.state = Refreshing
	return s.creds.RefreshToken, nil
}

// CompleteRefresh replaces the access token obtained by exchanging
// refreshToken. It fails with ErrSessionChanged if the session no longer
// holds that refresh token, e.g. after a logout or a new login.
func (s *Session) CompleteRefresh(refreshToken, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("[Session.CompleteRefresh] empty access token: %w", apierrors.ErrInvalidToken)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if refreshToken == "" || s.creds.RefreshToken != refreshToken {
		return apierrors.ErrSessionChanged
	}
	s.creds.AccessToken = accessToken
	s.state = Authenticated
	return nil
}

// AbortRefresh leaves Refreshing without changing the tokens.
func (s *Session) AbortRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Refreshing {
		s.state = Authenticated
	}
}

// OnTeardown registers a listener for forced and voluntary logouts.
func (s *Session) OnTeardown(listener TeardownListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Teardown clears both tokens, returns to Anonymous and notifies listeners.
// Listeners run outside the lock so they may inspect the session.
func (s *Session) Teardown(reason error) {
	s.mu.Lock()
	wasAnonymous := s.state == Anonymous && s.creds == (Credentials{})
	s.creds = Credentials{}
	s.state = Anonymous
	listeners := make([]TeardownListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if wasAnonymous {
		return
	}
	for _, l := range listeners {
		l(reason)
	}
}

// Logout is a voluntary Teardown.
func (s *Session) Logout() {
	s.Teardown(apierrors.ErrLoggedOut)
}
