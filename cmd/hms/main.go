package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/dashboard"
	"github.com/hms/hms/internal/hospital"
	"github.com/hms/hms/internal/platform/websocket"
	"github.com/hms/hms/internal/store"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hms",
		Short:         "Hospital management client: cache, sync and local read API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "path to the env file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(pairsCmd())
	rootCmd.AddCommand(statsCmd())
	return rootCmd
}

// withApp opens the app for cmd, runs fn and persists the cache afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, envFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(context.Background()); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache over the local read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				stop := hospital.AutoSave(a.hospital.Store(), a.backend, a.logger)
				defer stop()
				hub := websocket.NewHub(a.logger)
				stopFeed := dashboard.Feed(a.hospital.Store(), hub)
				defer stopFeed()

				if a.sessions.Authenticated() {
					if report := a.hospital.Sync(ctx); !report.OK() {
						a.logger.Warn().Interface("failures", report.Failures).Msg("initial sync incomplete")
					}
				}

				h := dashboard.NewHandler(a.hospital, a.sessions, a.cfg.LowStockThreshold)
				e := dashboard.NewServer(dashboard.ServerConfig{
					Logger:         a.logger,
					Metrics:        a.metrics,
					Backend:        a.backend,
					Hub:            hub,
					CORSOrigins:    a.cfg.CORSOrigins,
					RequestTimeout: timeout,
					Version:        version,
				}, h)

				errCh := make(chan error, 1)
				go func() {
					addr := ":" + a.cfg.Port
					a.logger.Info().Str("addr", addr).Str("api", a.client.BaseURL()).Msg("starting server")
					if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}()

				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(quit)
				select {
				case <-quit:
				case err := <-errCh:
					return fmt.Errorf("server error: %w", err)
				}

				a.logger.Info().Msg("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := e.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				a.logger.Info().Msg("server stopped")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "request-timeout", 30*time.Second, "deadline for each local API request")
	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and synchronize the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ok, err := a.sessions.Login(ctx, email, password)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				if !ok {
					return errors.New("login rejected: check email and password")
				}
				u := a.sessions.Current().User
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", u.Email, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				cur := a.sessions.Current()
				if !cur.Authenticated || cur.User == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
					return nil
				}
				return printJSON(cmd.OutOrStdout(), cur.User)
			})
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload every resource from the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a.hospital.Sync(ctx))
			})
		},
	}
}

func listCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:       "list <collection>",
		Short:     "Print a cached collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: store.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if refresh {
					if err := a.requireSession(); err != nil {
						return err
					}
					if err := a.hospital.Refresh(ctx, args[0]); err != nil {
						return err
					}
				}
				items, ok := cached(a.hospital.Store(), args[0])
				if !ok {
					return fmt.Errorf("unknown collection %q", args[0])
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the collection from the backend first")
	return cmd
}

func cached(st *store.Store, name string) (any, bool) {
	switch name {
	case store.Patients:
		return st.Patients().All(), true
	case store.StaffMembers:
		return st.Staff().All(), true
	case store.Appointments:
		return st.Appointments().All(), true
	case store.Diagnoses:
		return st.Diagnoses().All(), true
	case store.LabOrders:
		return st.LabOrders().All(), true
	case store.LabResults:
		return st.LabResults().All(), true
	case store.Medicines:
		return st.Medicines().All(), true
	case store.Sales:
		return st.Sales().All(), true
	case store.LabTests:
		return st.LabTests().All(), true
	case store.Prescriptions:
		return st.Prescriptions().All(), true
	}
	return nil, false
}

func pairsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairs <lab-result-id>",
		Short: "Pair a lab result's values with its order's tests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				pairs, ok := a.hospital.LabResultPairs(args[0])
				if !ok {
					return fmt.Errorf("lab result %s not cached or has no order", args[0])
				}
				return printJSON(cmd.OutOrStdout(), pairs)
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.hospital.Stats(ctx, a.cfg.LowStockThreshold))
			})
		},
	}
}
