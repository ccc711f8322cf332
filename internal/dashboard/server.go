package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/persist"
	"github.com/hms/hms/internal/platform/telemetry"
	"github.com/hms/hms/internal/platform/websocket"
)

// ServerConfig wires the echo instance around a Handler. Metrics, Backend
// and Hub are optional.
type ServerConfig struct {
	Logger         zerolog.Logger
	Metrics        *telemetry.Metrics
	Backend        persist.Backend
	Hub            *websocket.Hub
	CORSOrigins    []string
	RequestTimeout time.Duration
	Version        string
}

// NewServer builds the echo instance with the global middleware, the
// health, metrics and change feed endpoints, and h mounted under /api/v1.
func NewServer(cfg ServerConfig, h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(cfg.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(cfg.Logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(cfg.Metrics.MetricsMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", health(cfg.Backend, cfg.Version))
	if cfg.Metrics != nil {
		e.GET("/metrics", cfg.Metrics.PrometheusHandler())
	}
	// Long-lived, so kept outside the request deadline.
	if cfg.Hub != nil {
		e.GET("/events", websocket.NewHandler(cfg.Hub, cfg.CORSOrigins).Connect)
	}

	api := e.Group("/api/v1", middleware.RequestTimeout(cfg.RequestTimeout))
	h.RegisterRoutes(api)
	return e
}

// health reports ok, degrading to 503 when a remote state backend stops
// answering.
func health(b persist.Backend, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := map[string]string{"status": "ok", "version": version}
		p, ok := b.(persist.Pinger)
		if !ok {
			return c.JSON(http.StatusOK, resp)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["state"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp["state"] = "ok"
		return c.JSON(http.StatusOK, resp)
	}
}
