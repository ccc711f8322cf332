// Package session holds the authenticated identity and its API token, and
// persists both between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/apiclient"
	"github.com/hms/hms/internal/platform/persist"
	"github.com/hms/hms/internal/store"
)

// Session is the persisted identity. Opaque tokens leave ExpiresAt zero.
type Session struct {
	User          *identity.User `json:"user"`
	Token         string         `json:"token,omitempty"`
	Authenticated bool           `json:"isAuthenticated"`
	ExpiresAt     time.Time      `json:"expiresAt,omitempty"`
}

// Expired reports whether the token carried an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenHolder attaches the session token to outgoing requests.
type TokenHolder interface {
	SetToken(token string)
}

// Hospital is the cache a session synchronizes on login and clears on
// logout.
type Hospital interface {
	Sync(ctx context.Context) store.SyncReport
	Reset()
}

// Store owns the current session. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	current  Session
	auth     identity.Authenticator
	tokens   TokenHolder
	hospital Hospital
	backend  persist.Backend
	logger   zerolog.Logger
	now      func() time.Time
}

// Config wires a Store. Hospital and Backend are optional.
type Config struct {
	Auth     identity.Authenticator
	Tokens   TokenHolder
	Hospital Hospital
	Backend  persist.Backend
	Logger   zerolog.Logger
	Now      func() time.Time
}

func New(cfg Config) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		auth:     cfg.Auth,
		tokens:   cfg.Tokens,
		hospital: cfg.Hospital,
		backend:  cfg.Backend,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.current)
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated
}

// Login exchanges credentials for a token. Rejected credentials and server
// validation failures return false with a nil error; transport failures are
// returned. On success the token is attached, the session is persisted and
// the hospital cache is synchronized.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			s.logger.Info().Int("status", apiErr.Status).Str("reason", apiErr.Message()).Msg("login rejected")
			return false, nil
		}
		if errors.Is(err, identity.ErrNoToken) {
			s.logger.Warn().Err(err).Msg("login rejected")
			return false, nil
		}
		return false, err
	}

	user := res.User
	user.Role = identity.NormalizeRole(string(user.Role))
	next := Session{
		User:          &user,
		Token:         res.Token,
		Authenticated: true,
		ExpiresAt:     tokenExpiry(res.Token),
	}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	s.tokens.SetToken(res.Token)
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("logged in")

	if err := s.persist(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session")
	}
	if s.hospital != nil {
		if report := s.hospital.Sync(ctx); !report.OK() {
			s.logger.Warn().Int("failed", len(report.Failures)).Msg("hospital sync after login incomplete")
		}
	}
	return true, nil
}

// Logout clears the identity, detaches the token and empties the hospital
// cache so nothing leaks to the next user.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = Session{}
	s.mu.Unlock()
	s.tokens.SetToken("")
	if s.hospital != nil {
		s.hospital.Reset()
	}
	s.logger.Info().Msg("logged out")
	return s.persist(ctx)
}

// UpdateUser merges patch into the current user without a server call. It
// reports false when nobody is logged in.
func (s *Store) UpdateUser(ctx context.Context, patch identity.UserPatch) (bool, error) {
	s.mu.Lock()
	if s.current.User == nil {
		s.mu.Unlock()
		return false, nil
	}
	u := patch.Apply(*s.current.User)
	u.UpdatedAt = s.now().UTC()
	s.current.User = &u
	s.mu.Unlock()
	return true, s.persist(ctx)
}

// Restore loads the persisted session and re-attaches its token. An expired
// JWT discards the session. A missing document is not an error.
func (s *Store) Restore(ctx context.Context) (Session, error) {
	if s.backend == nil {
		return Session{}, nil
	}
	var loaded Session
	if err := persist.LoadState(ctx, s.backend, persist.KeyAuth, &loaded); err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("restore session: %w", err)
	}
	if loaded.ExpiresAt.IsZero() {
		loaded.ExpiresAt = tokenExpiry(loaded.Token)
	}
	if loaded.Token == "" || loaded.Expired(s.now()) {
		if loaded.Token != "" {
			s.logger.Info().Time("expired_at", loaded.ExpiresAt).Msg("persisted session expired")
		}
		s.mu.Lock()
		s.current = Session{}
		s.mu.Unlock()
		s.tokens.SetToken("")
		return Session{}, s.persist(ctx)
	}
	if loaded.User != nil {
		u := *loaded.User
		u.Role = identity.NormalizeRole(string(u.Role))
		loaded.User = &u
	}
	loaded.Authenticated = true
	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	s.tokens.SetToken(loaded.Token)
	return copySession(loaded), nil
}

func (s *Store) persist(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return persist.SaveState(ctx, s.backend, persist.KeyAuth, s.Current())
}

// tokenExpiry reads exp from a JWT without verifying it. Opaque tokens and
// tokens without exp have no local expiry.
func tokenExpiry(token string) time.Time {
	if strings.Count(token, ".") != 2 {
		return time.Time{}
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	unverified, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := unverified.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func copySession(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
