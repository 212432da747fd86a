// Package session holds the signed-in identity and hands its credential to
// call sites.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

// Backend is the slice of *api.Client the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Register(ctx context.Context, in api.RegisterInput) (orders.User, error)
	Me(ctx context.Context, cred api.Credential) (orders.User, error)
}

type Store struct {
	backend Backend
	tokens  TokenStore
	log     *logrus.Entry

	mu    sync.RWMutex
	gen   uint64 // bumped on every session change; Restore applies only if unchanged
	token string
	user  *orders.User
}

func New(backend Backend, tokens TokenStore, log *logrus.Entry) *Store {
	return &Store{backend: backend, tokens: tokens, log: log}
}

// Install makes u the current identity and persists token.
func (s *Store) Install(u orders.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tokens.Save(token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.gen++
	s.token = token
	s.user = &u
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) (orders.User, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return orders.User{}, err
	}
	if err := s.Install(res.User, res.AccessToken); err != nil {
		return orders.User{}, err
	}
	return res.User, nil
}

// Register creates an account; it does not sign in.
func (s *Store) Register(ctx context.Context, in api.RegisterInput) (orders.User, error) {
	return s.backend.Register(ctx, in)
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// clearLocked drops the session; s.mu must be held.
func (s *Store) clearLocked() {
	s.gen++
	s.token = ""
	s.user = nil
	if err := s.tokens.Clear(); err != nil {
		s.log.WithError(err).Warn("clear stored token")
	}
}

// Restore revalidates a stored token against the backend. Any failure,
// including an unreadable token store, ends in a full logout; it never
// returns an error to the caller. It reports whether a session is active.
// A Login or Logout that lands while the check is in flight wins: the
// result of the check is then dropped.
func (s *Store) Restore(ctx context.Context) bool {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	token, err := s.tokens.Load()
	if err != nil {
		s.log.WithError(err).Debug("load stored token")
		return s.logoutIfCurrent(gen)
	}
	if token == "" {
		return s.Authenticated()
	}
	u, err := s.backend.Me(ctx, api.Credential(token))
	if err != nil {
		s.log.WithError(err).Debug("stored token rejected")
		return s.logoutIfCurrent(gen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return s.user != nil
	}
	s.gen++
	s.token = token
	s.user = &u
	return true
}

func (s *Store) logoutIfCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return s.user != nil
	}
	s.clearLocked()
	return false
}

// Credential is the token to pass on authenticated calls; empty when signed
// out.
func (s *Store) Credential() api.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return api.Credential(s.token)
}

func (s *Store) User() (orders.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return orders.User{}, false
	}
	return *s.user, true
}

func (s *Store) Authenticated() bool {
	_, ok := s.User()
	return ok
}
