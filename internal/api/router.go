package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/skillhub/client-registry/docs"
	"github.com/skillhub/client-registry/internal/api/handler"
	"github.com/skillhub/client-registry/internal/api/middleware"
	"github.com/skillhub/client-registry/internal/core/ports"
)

const transferBodyLimit = "10M"

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Clients     ports.ClientService
	Auth        ports.AuthService
	Admin       ports.AdminService
	Idempotency ports.IdempotencyStore // optional
	Health      map[string]ports.Pinger
	JWTSecret   string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("client_registry"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	clientHandler := handler.NewClientHandler(deps.Clients, deps.Idempotency, deps.Logger)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Health)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret), middleware.LoadClient(deps.Clients))

	v1.GET("/me", clientHandler.Me)
	v1.PATCH("/me", clientHandler.UpdateMe)

	admin := middleware.AdminOnly()
	bodyLimit := echomiddleware.BodyLimit(transferBodyLimit)

	clients := v1.Group("/clients")
	clients.GET("", clientHandler.List, admin)
	clients.POST("", clientHandler.Create, admin)
	clients.DELETE("", clientHandler.ClearAll, admin)
	clients.GET("/stats", clientHandler.Stats, admin)
	clients.GET("/export", clientHandler.Export, admin)
	clients.POST("/import", clientHandler.Import, admin, bodyLimit)
	clients.GET("/backup", clientHandler.Backup, admin)
	clients.POST("/restore", clientHandler.Restore, admin, bodyLimit)

	clients.GET("/:id", clientHandler.Get, middleware.SelfOrAdmin("id"))
	clients.PATCH("/:id", clientHandler.Update, admin)
	clients.DELETE("/:id", clientHandler.Delete, admin)
	clients.POST("/:id/admin", adminHandler.GrantAdmin, admin)
	clients.DELETE("/:id/admin", adminHandler.RevokeAdmin, admin)
	clients.PUT("/:id/role", adminHandler.ChangeRole, admin)
	clients.PUT("/:id/status", adminHandler.ChangeStatus, admin)

	return e
}

// requestLogger writes one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= 500:
				event = log.Error().Err(v.Error)
			case v.Error != nil:
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
