// Package session owns the authentication state of one user agent: who is
// logged in, with which role, and the bearer token that proves it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"procurement-portal/internal/api"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/models"
	"procurement-portal/internal/routes"
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrInProgress is returned by Login while another login is running.
var ErrInProgress = errors.New("session: authentication already in progress")

// ErrUnsupportedRole is returned by Login when the account's role is neither
// GPO nor VENDOR. The token is discarded.
var ErrUnsupportedRole = errors.New("session: account role is not supported")

// Backend is the part of the HTTP client binding the store drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Profile(ctx context.Context) (*models.User, error)
	SetToken(token string)
	ClearToken()
	OnUnauthorized(fn func())
}

// Store is the single source of truth for the current user. Views read it
// through State, User and IsAuthenticated; only Login, Logout, CheckAuth and
// backend invalidation mutate it.
type Store struct {
	client Backend
	tokens TokenStore
	logger *slog.Logger
	notify func(msg string)

	mu       sync.Mutex
	state    State
	user     *models.User
	expired  bool
	notified bool
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithNotifier sets the sink for user notices such as "session expired".
func WithNotifier(fn func(msg string)) Option {
	return func(s *Store) { s.notify = fn }
}

// New creates a Store and registers it as client's authorization failure
// handler.
func New(client Backend, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		client: client,
		tokens: tokens,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "session")
	client.OnUnauthorized(s.invalidate)
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// User returns a copy of the current profile, or nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Expired reports whether the backend invalidated the session.
func (s *Store) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// Login authenticates and returns the landing route for the user's role.
// On failure the store is left anonymous and the classified error returned.
func (s *Store) Login(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	if s.state == Authenticating {
		s.mu.Unlock()
		return "", ErrInProgress
	}
	s.state = Authenticating
	s.mu.Unlock()

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.clear()
		s.logger.Info("login failed", "email", email, "kind", api.KindOf(err).String())
		return "", err
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		s.clear()
		return "", fmt.Errorf("persist token: %w", err)
	}
	s.client.SetToken(resp.Token)

	user, err := s.client.Profile(ctx)
	if err != nil {
		s.clear()
		s.logger.Warn("profile fetch after login failed", "email", email, "error", err)
		return "", err
	}

	if !user.Role.Valid() {
		s.clear()
		s.logger.Warn("login refused for unsupported role", "user_id", user.ID, "role", user.Role)
		return "", ErrUnsupportedRole
	}

	s.authenticated(user)
	s.logger.Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return routes.HomeFor(user.Role), nil
}

// Logout drops the session and returns the login route.
func (s *Store) Logout() string {
	s.clear()
	s.logger.Info("logged out")
	return routes.Login
}

// CheckAuth revalidates the durable token. Without a token it returns false
// without touching the network.
func (s *Store) CheckAuth(ctx context.Context) bool {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("load token failed", "error", err)
	}
	if token == "" {
		if s.State() != Anonymous {
			s.clear()
		}
		return false
	}

	s.mu.Lock()
	s.state = Authenticating
	s.mu.Unlock()
	s.client.SetToken(token)

	user, err := s.client.Profile(ctx)
	if err != nil {
		s.clear()
		s.logger.Info("stored token rejected", "kind", api.KindOf(err).String())
		return false
	}

	s.authenticated(user)
	return true
}

func (s *Store) authenticated(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.state = Authenticated
	s.expired = false
	s.notified = false
	s.mu.Unlock()
}

// clear is the logout cleanup shared by every exit from the authenticated
// state.
func (s *Store) clear() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("clear token failed", "error", err)
	}
	s.client.ClearToken()

	s.mu.Lock()
	s.user = nil
	s.state = Anonymous
	s.mu.Unlock()
}

// invalidate runs when any non-login request is answered with 401.
func (s *Store) invalidate() {
	s.mu.Lock()
	first := !s.notified
	s.notified = true
	s.expired = true
	s.mu.Unlock()

	s.clear()
	s.logger.Info("session invalidated by backend")

	if first && s.notify != nil {
		s.notify(api.MsgSessionExpired)
	}
}
