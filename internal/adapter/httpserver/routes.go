package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saucecodee/praise/internal/domain"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	var errorsTotal *prometheus.CounterVec
	if s.httpMetrics != nil {
		errorsTotal = s.httpMetrics.ErrorsTotal
	}

	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(apperrors.Middleware(translateError, errorsTotal))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}))
	s.echo.Use(middleware.BodyLimit("1M"))

	s.registerHealthRoutes()
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := s.echo.Group("/api", s.requireAuth)
	admin := s.requireRole(domain.RoleAdmin)
	submitLimiter := newRateLimiter(s.config.SubmitRatePerSecond, s.config.SubmitRateBurst)

	api.GET("/periods", s.handleListPeriods)
	api.POST("/periods", s.handleCreatePeriod, admin)
	api.GET("/periods/:id", s.handleGetPeriod)
	api.PATCH("/periods/:id", s.handleUpdatePeriod, admin)
	api.GET("/periods/:id/verify-quantifiers", s.handleVerifyPoolSize, admin)
	api.PATCH("/periods/:id/assign", s.handleAssignQuantifiers, admin)
	api.PATCH("/periods/:id/close", s.handleClosePeriod, admin)
	api.GET("/periods/:id/details", s.handlePeriodDetails)
	api.GET("/periods/:id/analytics", s.handlePeriodAnalytics)
	api.GET("/periods/:id/receivers/:receiverId/praise", s.handleReceiverPraise)
	api.GET("/periods/:id/quantifiers/:quantifierId/praise", s.handleQuantifierPraise)
	api.GET("/periods/:id/settings", s.handleListPeriodSettings)
	api.GET("/periods/:id/settings/:key", s.handleGetPeriodSetting)
	api.PATCH("/periods/:id/settings/:key", s.handleSetPeriodSetting, admin)

	api.GET("/settings", s.handleListSettings)
	api.PATCH("/settings/:key", s.handleSetSetting, admin)

	api.POST("/praise", s.handleCreatePraise)
	api.GET("/praise/:id", s.handleGetPraise)
	api.PATCH("/praise/:id/quantify", s.handleQuantify, s.requireRole(domain.RoleQuantifier), submitLimiter)

	api.GET("/users/me", s.handleMe)
	api.GET("/admin/quantifiers", s.handleListQuantifiers, admin)
	api.POST("/admin/users", s.handleCreateUser, admin)
	api.GET("/admin/users/:id", s.handleGetUser, admin)
	api.POST("/admin/users/:id/roles", s.handleAddRole, admin)
	api.DELETE("/admin/users/:id/roles/:role", s.handleRemoveRole, admin)
	api.PATCH("/admin/users/:id/deactivate", s.handleSetDeactivated, admin)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			slog.Log(c.Request().Context(), level, "Request", attrs...)
			return nil
		},
	})
}
