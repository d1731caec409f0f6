// Package session holds the authentication state for the storefront. The
// store is a process-wide container constructed once and injected into
// consumers; it persists under its own key so a restart keeps the user
// logged in.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pcforge/storefront/internal/domain"
	"github.com/pcforge/storefront/internal/kv"
)

const stateKey = "auth-storage"

// Reconciler is the slice of the cart store the session lifecycle drives:
// login pulls the server cart into local state, logout clears local state.
type Reconciler interface {
	FetchServerCart(ctx context.Context) error
	Clear(ctx context.Context) error
}

type Store struct {
	mu      sync.RWMutex
	session domain.Session
	state   kv.Store
	carts   Reconciler
	log     zerolog.Logger
}

func NewStore(state kv.Store, log zerolog.Logger) *Store {
	s := &Store{
		state: state,
		log:   log,
	}
	s.restore()
	return s
}

// AttachReconciler wires the cart store in after construction; the two
// stores reference each other, so one of the edges has to be late-bound.
func (s *Store) AttachReconciler(r Reconciler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts = r
}

// Login commits the credential and then reconciles the cart against the
// server. The commit is awaited before the reconciliation call so the fetch
// always sees the new token; reconciliation failure is logged but does not
// fail the login itself.
func (s *Store) Login(ctx context.Context, token, username string) error {
	s.mu.Lock()
	s.session = domain.Session{Token: token, Username: username}
	err := s.persistLocked(ctx)
	carts := s.carts
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.log.Info().Str("username", username).Msg("logged in")

	if carts != nil {
		if rerr := carts.FetchServerCart(ctx); rerr != nil {
			s.log.Warn().Err(rerr).Msg("cart reconciliation after login failed")
		}
	}
	return nil
}

// Logout clears the local session and the local cart. The server-side cart
// is left untouched so the next login restores it.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = domain.Session{}
	err := s.persistLocked(ctx)
	carts := s.carts
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.log.Info().Msg("logged out")

	if carts != nil {
		if cerr := carts.Clear(ctx); cerr != nil {
			s.log.Warn().Err(cerr).Msg("clearing local cart on logout failed")
		}
	}
	return nil
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated()
}

// Token returns the bearer credential and whether a session is active.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token, s.session.Authenticated()
}

func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Username
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.session)
	if err != nil {
		return err
	}
	return s.state.Put(ctx, stateKey, data)
}

func (s *Store) restore() {
	data, err := s.state.Get(context.Background(), stateKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Msg("restoring persisted session failed")
		}
		return
	}
	if err := json.Unmarshal(data, &s.session); err != nil {
		s.log.Warn().Err(err).Msg("persisted session is corrupt, starting anonymous")
		s.session = domain.Session{}
	}
}
