// Package server exposes the bot over HTTP: the webhook endpoint, a
// health check and delivery statistics.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
	"github.com/hrygo/remindbot/server/internal/observability"
)

// SecretHeader carries the webhook secret registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// HealthChecker reports the delivery pipeline's health.
type HealthChecker interface {
	Check(ctx context.Context) reminder.HealthStatus
}

// Config holds the server's collaborators. Health, Delivery and Updates
// may be nil, in which case the matching parts of the responses are
// omitted.
type Config struct {
	Addr          string
	WebhookSecret string
	Handle        telegram.UpdateHandler
	Health        HealthChecker
	Delivery      *reminder.MetricsCollector
	Updates       *observability.Metrics
}

// Server is the HTTP front of the bot.
type Server struct {
	config Config
	echo   *echo.Echo
	logger *slog.Logger
}

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Delivery *reminder.Stats         `json:"delivery,omitempty"`
	Updates  *observability.Snapshot `json:"updates,omitempty"`
}

func NewServer(config Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config: config,
		echo:   e,
		logger: slog.Default(),
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/v1/stats", s.handleStats)
	if config.Handle != nil {
		e.POST("/telegram/webhook", s.handleWebhook)
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.config.Addr)
	err := s.echo.Start(s.config.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleWebhook processes one update synchronously. Telegram redelivers
// updates that are not acknowledged with 200, so handler failures are
// logged by the bot and never surface as HTTP errors.
func (s *Server) handleWebhook(c echo.Context) error {
	// Without a configured secret every update is rejected.
	got := c.Request().Header.Get(SecretHeader)
	if s.config.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.config.WebhookSecret)) != 1 {
		return c.NoContent(http.StatusUnauthorized)
	}

	update := new(telegram.Update)
	if err := c.Bind(update); err != nil {
		s.logger.Warn("invalid webhook payload", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 30*time.Second)
	defer cancel()
	s.config.Handle(ctx, update)
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.config.Health == nil {
		return c.JSON(http.StatusOK, reminder.HealthStatus{Healthy: true})
	}
	status := s.config.Health.Check(c.Request().Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) handleStats(c echo.Context) error {
	var resp StatsResponse
	if s.config.Delivery != nil {
		stats := s.config.Delivery.GetStats()
		resp.Delivery = &stats
	}
	if s.config.Updates != nil {
		snapshot := s.config.Updates.Snapshot()
		resp.Updates = &snapshot
	}
	return c.JSON(http.StatusOK, resp)
}
