// Package persist stores the serialized hospital cache and session between
// runs. Every backend is a flat key/value store holding one opaque JSON
// document per key.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Keys under which the two persisted documents live.
const (
	KeyHospital = "hospital-storage"
	KeyAuth     = "auth-storage"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("persist: not found")

// Backend is a key/value document store.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends with a remote connection to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	Path        string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32
	RedisURL    string
	RedisPrefix string
}

// Open creates the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMemory:
		return NewMemory(), nil
	case "", BackendFile:
		b, err = NewFile(cfg.Path)
	case BackendSQLite:
		b, err = NewSQLite(filepath.Join(orDefault(cfg.Path, ".hms"), "state.db"))
	case BackendPostgres:
		b, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns)
	case BackendRedis:
		b, err = NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// envelope matches the {"state": ..., "version": 0} layout the browser
// client used for its local storage documents.
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Encode wraps state in the versioned envelope.
func Encode(state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return json.Marshal(envelope{State: raw, Version: 0})
}

// Decode unwraps the envelope into state.
func Decode(data []byte, state any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.State, state); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// SaveState encodes state and stores it under key.
func SaveState(ctx context.Context, b Backend, key string, state any) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := b.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadState reads key into state. A missing key returns ErrNotFound.
func LoadState(ctx context.Context, b Backend, key string, state any) error {
	data, err := b.Load(ctx, key)
	if err != nil {
		return err
	}
	return Decode(data, state)
}

// Saver writes one document and logs failures instead of returning them.
// It is meant for change subscribers that have no caller to report to.
type Saver struct {
	backend Backend
	key     string
	logger  zerolog.Logger
}

func NewSaver(b Backend, key string, logger zerolog.Logger) *Saver {
	return &Saver{backend: b, key: key, logger: logger}
}

// Save persists state, logging any error.
func (s *Saver) Save(ctx context.Context, state any) {
	if err := SaveState(ctx, s.backend, s.key, state); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("failed to persist state")
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
