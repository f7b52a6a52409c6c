package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/intbank/portal/internal/api/handler"
	"github.com/intbank/portal/internal/api/middleware"
	"github.com/intbank/portal/internal/core/domain"
	"github.com/intbank/portal/internal/core/service"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// checks feeds the readiness probe and may be nil.
func NewRouter(portal *service.Portal, checks map[string]handler.Check, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = portal.Validator
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Debug()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoprometheus.NewMiddleware("portal_http"))

	// --- Dependencies ---
	sessions := portal.Sessions
	auth := middleware.Auth(sessions)
	sessionHandler := handler.NewSessionHandler(sessions, portal.Auth, portal.Registration)
	registrationHandler := handler.NewRegistrationHandler(portal.Registration)
	paymentHandler := handler.NewPaymentHandler(portal.Payments, portal.Converter)
	accountHandler := handler.NewAccountHandler(portal.Account)
	adminHandler := handler.NewAdminHandler(portal.Approvals, portal.Enrollment)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Session ---
	e.GET("/navigate", sessionHandler.Navigate)
	e.GET("/session", sessionHandler.Get)
	e.POST("/session/login", sessionHandler.Login)
	e.POST("/session/logout", sessionHandler.Logout, auth)

	// --- Registration (guests only) ---
	reg := e.Group("/register", middleware.GuestOnly(sessions))
	reg.GET("", registrationHandler.State)
	reg.PUT("/fields", registrationHandler.SetField)
	reg.POST("/advance", registrationHandler.Advance)
	reg.POST("/retreat", registrationHandler.Retreat)
	reg.POST("/submit", registrationHandler.Submit)
	reg.POST("/reset", registrationHandler.Reset)

	// --- User surface ---
	user := middleware.RBAC(domain.RoleUser)
	account := e.Group("/account", auth, user)
	account.GET("", accountHandler.Overview)
	account.POST("/reload", accountHandler.Reload)
	account.GET("/statements", accountHandler.Statements)
	account.GET("/insights", accountHandler.Insights)

	payments := e.Group("/payments", auth, user)
	payments.GET("/rates", paymentHandler.Rates)
	payments.GET("/intent", paymentHandler.Intent)
	payments.PUT("/intent", paymentHandler.Edit)
	payments.POST("/preview", paymentHandler.Preview)
	payments.POST("/confirm", paymentHandler.Confirm)
	payments.POST("/cancel", paymentHandler.Cancel)
	payments.POST("/reset", paymentHandler.Reset)

	// --- Admin surface ---
	admin := e.Group("/admin", auth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/pending", adminHandler.Pending)
	admin.POST("/pending/refresh", adminHandler.Refresh)
	admin.POST("/pending/:id/approve", adminHandler.Approve)
	admin.POST("/pending/:id/reject", adminHandler.Reject)
	admin.GET("/enrollment", adminHandler.Enrollment)
	admin.PUT("/enrollment", adminHandler.EditEnrollment)
	admin.POST("/enrollment/submit", adminHandler.SubmitEnrollment)

	return e
}
