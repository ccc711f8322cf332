package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/hospital"
	"github.com/hms/hms/internal/platform/apiclient"
	"github.com/hms/hms/internal/platform/persist"
	"github.com/hms/hms/internal/platform/telemetry"
	"github.com/hms/hms/internal/session"
	"github.com/hms/hms/internal/store"
)

// app is everything one command needs, restored from the state backend.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	backend  persist.Backend
	client   *apiclient.Client
	hospital *hospital.Service
	sessions *session.Store
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger()
}

// openApp loads config from envFile, opens the state backend and restores
// the session and cache from it.
func openApp(ctx context.Context, envFile string, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := newLogger(cfg, logOut)
	metrics := telemetry.New()

	backend, err := persist.Open(ctx, cfg.PersistConfig())
	if err != nil {
		return nil, fmt.Errorf("open state backend: %w", err)
	}

	client, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithAuthScheme(cfg.AuthScheme),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(metrics),
	)
	if err != nil {
		backend.Close()
		return nil, err
	}

	st := store.New(store.WithLogger(logger), store.WithMetrics(metrics))
	svc := hospital.NewService(st, hospital.NewClients(client, loc, logger), logger)
	sessions := session.New(session.Config{
		Auth:     identity.NewAuthClient(client),
		Tokens:   client,
		Hospital: svc,
		Backend:  backend,
		Logger:   logger,
	})

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		backend:  backend,
		client:   client,
		hospital: svc,
		sessions: sessions,
	}
	if _, err := sessions.Restore(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("session not restored")
	}
	if err := hospital.RestoreCache(ctx, st, backend); err != nil {
		a.logger.Warn().Err(err).Msg("cache not restored")
	}
	return a, nil
}

// close persists the cache and releases the backend.
func (a *app) close(ctx context.Context) error {
	saveErr := hospital.SaveCache(ctx, a.hospital.Store(), a.backend)
	if saveErr != nil {
		a.logger.Error().Err(saveErr).Msg("failed to save cache")
	}
	if err := a.backend.Close(); err != nil {
		return fmt.Errorf("close state backend: %w", err)
	}
	return saveErr
}

func (a *app) requireSession() error {
	if !a.sessions.Authenticated() {
		return fmt.Errorf("not signed in, run hms login first")
	}
	return nil
}
