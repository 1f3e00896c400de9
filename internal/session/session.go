// Package session holds the signed-in user of the client application.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/abyuwono/bagasi/internal/client"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

const LoginRoute = "/login"

// API is the slice of the API client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (*authuc.LoginResult, error)
	Me(ctx context.Context) (*client.Account, error)
	Token(ctx context.Context) string
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// State is what subscribers observe.
type State struct {
	User          *authuc.User
	Authenticated bool
	// Deactivated keeps the session but asks the user to reactivate.
	Deactivated bool
}

type Store struct {
	api API
	nav Navigator

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func New(api API, nav Navigator) *Store {
	return &Store{api: api, nav: nav, subs: map[int]func(State){}}
}

func (s *Store) CurrentUser() *authuc.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe calls fn after every state change until the returned func is called.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Init restores the session from a persisted token.
// A token the API rejects is dropped silently; a deactivated account keeps its token.
func (s *Store) Init(ctx context.Context) error {
	if s.api.Token(ctx) == "" {
		s.set(State{})
		return nil
	}

	me, err := s.api.Me(ctx)
	if err != nil {
		var ae *client.APIError
		if !errors.As(err, &ae) {
			// unreachable server; keep the token for the next start
			return err
		}
		slog.DebugContext(ctx, "stored token rejected", "err", err)
		if cerr := s.api.ClearToken(ctx); cerr != nil {
			return cerr
		}
		s.set(State{})
		return nil
	}

	user := me.User
	if me.Deactivated {
		user.Active = false
	}
	s.set(State{User: &user, Authenticated: true, Deactivated: !user.Active})
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) (*authuc.User, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.dropStaleToken(ctx)
		if client.IsUnauthorized(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if res.Token == "" || res.User == nil || !res.User.Active {
		s.dropStaleToken(ctx)
		return nil, ErrAccountDeactivated
	}

	if err := s.api.SetToken(ctx, res.Token); err != nil {
		return nil, err
	}
	user := *res.User
	s.set(State{User: &user, Authenticated: true})
	return &user, nil
}

func (s *Store) dropStaleToken(ctx context.Context) {
	if err := s.api.ClearToken(ctx); err != nil {
		slog.WarnContext(ctx, "token clear failed", "err", err)
	}
}

// Logout always ends on the login screen, even when the token cannot be removed.
func (s *Store) Logout(ctx context.Context) {
	s.dropStaleToken(ctx)
	s.set(State{})
	if s.nav != nil {
		s.nav.Navigate(LoginRoute)
	}
}

// Expire drops the user after the API rejected the token. It does not navigate.
func (s *Store) Expire() {
	s.set(State{})
}
