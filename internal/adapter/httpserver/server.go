// Package httpserver exposes the praise engine over a JSON HTTP API.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saucecodee/praise/internal/adapter/metrics"
	"github.com/saucecodee/praise/internal/analytics"
	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/platform/config"
)

type appService interface {
	CreatePeriod(ctx context.Context, name string, endDate time.Time) (*domain.Period, error)
	UpdatePeriod(ctx context.Context, periodID uuid.UUID, name string, endDate time.Time) (*domain.Period, error)
	ListPeriods(ctx context.Context) ([]domain.Period, error)
	GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.Period, error)
	VerifyPoolSize(ctx context.Context, periodID uuid.UUID) (domain.PoolSize, error)
	AssignQuantifiers(ctx context.Context, periodID uuid.UUID) error
	ClosePeriod(ctx context.Context, periodID uuid.UUID) error
	GetPeriodDetails(ctx context.Context, periodID, callerID uuid.UUID) (*domain.PeriodDetails, error)
	ListReceiverPraise(ctx context.Context, periodID, receiverID, callerID uuid.UUID) ([]domain.Praise, error)
	ListQuantifierPraise(ctx context.Context, periodID, quantifierID uuid.UUID) ([]app.AssignedPraise, error)
	PeriodAnalytics(ctx context.Context, periodID uuid.UUID) (*analytics.Report, error)

	CreatePraise(ctx context.Context, in app.PraiseInput) (*app.CreatePraiseResult, error)
	GetPraise(ctx context.Context, praiseID, callerID uuid.UUID) (*domain.Praise, error)
	SubmitQuantification(ctx context.Context, praiseID, quantifierID uuid.UUID, outcome domain.Outcome) (*domain.Quantification, error)

	ListSettings(ctx context.Context) ([]domain.Setting, error)
	SetSetting(ctx context.Context, key, value string) (*domain.Setting, error)
	ListPeriodSettings(ctx context.Context, periodID uuid.UUID) ([]domain.Setting, error)
	GetPeriodSetting(ctx context.Context, periodID uuid.UUID, key string) (*domain.Setting, error)
	SetPeriodSetting(ctx context.Context, periodID uuid.UUID, key, value string) (*domain.Setting, error)

	CreateUser(ctx context.Context, name string, roles []domain.Role) (*domain.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	AddRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error)
	RemoveRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error)
	SetUserDeactivated(ctx context.Context, userID uuid.UUID, deactivated bool) error
	ListQuantifiers(ctx context.Context) ([]domain.User, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	app    appService

	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck
	startTime      time.Time
}

// NewServer wires the routes. reg may be nil, which disables /metrics and
// request metrics.
func NewServer(cfg *config.Config, app appService, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	srv := &Server{
		echo:         newEcho(),
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	if reg != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(reg)
		srv.metricsHandler = metrics.Handler(reg)
	}

	srv.registerRoutes()
	return srv
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
