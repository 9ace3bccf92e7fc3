// Package session holds the EventHub client's authentication state.
//
// A Store records who is logged in and the bearer credential issued by the
// backend, and writes both through to a Storage so the session survives
// process restarts. The user and the credential are always set together or
// cleared together. One Store exists per process; main builds it, restores
// it, and passes it to everything that needs it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Keys of the two persisted entries.
const (
	UserKey  = "eventhub.user"
	TokenKey = "eventhub.token"
)

var (
	// ErrMalformed marks a persisted entry that could not be decoded.
	ErrMalformed = errors.New("malformed session entry")

	// ErrAccountCreatedLoginFailed is reported by Err after Register created
	// the account but the automatic login that follows failed. The account
	// exists server-side; logging in again may succeed.
	ErrAccountCreatedLoginFailed = errors.New("account created but automatic login failed")
)

// Authenticator is the part of the backend client the store needs.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error)
	RegisterAccount(ctx context.Context, req model.AccountRequest) error
}

// Store is the process-wide session state.
type Store struct {
	auth    Authenticator
	storage Storage
	logger  *logrus.Logger

	mu         sync.RWMutex
	user       *model.Identity
	credential string
	restored   bool
	pending    int
	lastErr    error
}

// NewStore returns an unauthenticated store that reports Loading until
// Restore has run.
func NewStore(auth Authenticator, storage Storage, logger *logrus.Logger) *Store {
	return &Store{auth: auth, storage: storage, logger: logger}
}

// Restore loads the persisted pair. A missing or malformed entry leaves the
// store unauthenticated; that outcome is logged, never returned.
func (s *Store) Restore(ctx context.Context) {
	user, credential, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = true
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithContext(ctx).WithError(err).Debug("discarding persisted session")
		}
		s.user, s.credential = nil, ""
		return
	}
	s.user, s.credential = user, credential
}

func (s *Store) load(ctx context.Context) (*model.Identity, string, error) {
	rawUser, err := s.storage.Get(ctx, UserKey)
	if err != nil {
		return nil, "", err
	}
	credential, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		return nil, "", err
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, "", fmt.Errorf("%w: empty credential", ErrMalformed)
	}

	var user model.Identity
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if user.ID == "" || user.Email == "" {
		return nil, "", fmt.Errorf("%w: identity missing id or email", ErrMalformed)
	}
	return &user, credential, nil
}

// Login authenticates against the backend. On success the identity and
// credential are stored and persisted and true is returned. On any failure
// the previous state is kept and false is returned; Err describes why.
// Concurrent calls are not deduplicated: the last one to finish wins.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.begin()
	defer s.end()
	return s.login(ctx, email, password)
}

func (s *Store) login(ctx context.Context, email, password string) bool {
	logger := s.logger.WithContext(ctx).WithField("email", email)

	resp, err := s.auth.Login(ctx, model.Credentials{Email: email, Password: password})
	if err != nil {
		logger.WithError(err).Warn("login failed")
		s.fail(fmt.Errorf("login: %w", err))
		return false
	}

	user := resp.User
	if err := s.commit(ctx, &user, resp.Token); err != nil {
		logger.WithError(err).Error("persisting session failed")
		s.fail(err)
		return false
	}
	logger.WithField("role", user.Role).Info("logged in")
	return true
}

// Register creates an account and then logs in with the same credentials.
// It returns true only when both steps succeed. When the account was created
// but the login failed, false is returned and Err wraps
// ErrAccountCreatedLoginFailed.
func (s *Store) Register(ctx context.Context, name, email, password string, role model.Role) bool {
	s.begin()
	defer s.end()

	logger := s.logger.WithContext(ctx).WithField("email", email)
	req := model.AccountRequest{Name: name, Email: email, Password: password, Role: role}
	if err := s.auth.RegisterAccount(ctx, req); err != nil {
		logger.WithError(err).Warn("registration failed")
		s.fail(fmt.Errorf("register: %w", err))
		return false
	}

	if !s.login(ctx, email, password) {
		s.mu.Lock()
		s.lastErr = fmt.Errorf("%w: %w", ErrAccountCreatedLoginFailed, s.lastErr)
		s.mu.Unlock()
		logger.Warn("account created but automatic login failed")
		return false
	}
	return true
}

// Logout clears the in-memory state and both persisted entries. It always
// succeeds from the caller's point of view; storage errors are logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user, s.credential = nil, ""
	s.lastErr = nil
	for _, key := range []string{UserKey, TokenKey} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("key", key).Error("removing persisted session entry")
		}
	}
}

// commit persists the new pair and then swaps it in. If persisting fails
// the previous pair is written back and memory is left untouched.
func (s *Store) commit(ctx context.Context, user *model.Identity, credential string) error {
	if credential == "" {
		return errors.New("backend returned an empty credential")
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, string(encoded), credential); err != nil {
		s.rollback(ctx)
		return err
	}
	s.user, s.credential = user, credential
	s.lastErr = nil
	return nil
}

func (s *Store) persist(ctx context.Context, encodedUser, credential string) error {
	if err := s.storage.Set(ctx, TokenKey, credential); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	if err := s.storage.Set(ctx, UserKey, encodedUser); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}

// rollback rewrites the in-memory pair to storage, or clears storage when
// there is none, so the persisted entries never describe two different
// sessions. Called with mu held.
func (s *Store) rollback(ctx context.Context) {
	var err error
	if s.user != nil {
		var encoded []byte
		if encoded, err = json.Marshal(s.user); err == nil {
			err = s.persist(ctx, string(encoded), s.credential)
		}
	} else {
		err = errors.Join(s.storage.Delete(ctx, TokenKey), s.storage.Delete(ctx, UserKey))
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("restoring persisted session after failed write")
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Loading reports whether restoration has not finished yet or a login or
// registration is outstanding.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.restored || s.pending > 0
}

// Err returns the reason the most recent Login or Register failed, or nil
// after a success or Logout.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.Session{}
	}
	user := *s.user
	return model.Session{User: &user, Credential: s.credential}
}

// Credential returns the bearer credential, or "" when logged out.
// It satisfies apiclient.TokenSource.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// User returns the logged-in identity.
func (s *Store) User() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.Identity{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	return s.Snapshot().Authenticated()
}
