package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/dailybuddy/core/internal/adapters/http"
	"github.com/dailybuddy/core/internal/application/services"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/config"
	"github.com/dailybuddy/core/internal/infrastructure/database"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/notify"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	gateway  *notify.Gateway
	registry *prometheus.Registry
}

// Services bundles the application services the server exposes. They are
// built once in the command layer and shared with the scheduler, so
// in-memory state such as the popup stack is a single instance.
type Services struct {
	Auth      *services.AuthService
	Reminders *services.ReminderService
	Agenda    *services.AgendaService
	Pomodoro  *services.PomodoroService
	Popups    *services.PopupService
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger, svcs Services, gateway *notify.Gateway, bus *events.Bus) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(svcs.Auth, appLogger)
	reminderHandler := httpHandlers.NewReminderHandler(svcs.Reminders, appLogger)
	agendaHandler := httpHandlers.NewAgendaHandler(svcs.Agenda, appLogger)
	pomodoroHandler := httpHandlers.NewPomodoroHandler(svcs.Pomodoro, appLogger)
	popupHandler := httpHandlers.NewPopupHandler(svcs.Popups, appLogger)
	eventsHandler := httpHandlers.NewEventsHandler(bus, appLogger)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		db:      db,
		gateway: gateway,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, reminderHandler, agendaHandler, pomodoroHandler, popupHandler, eventsHandler, svcs.Auth)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// Registry returns the metrics registry so the scheduler can register its
// collectors on the same /metrics endpoint. Nil when metrics are disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, reminderHandler *httpHandlers.ReminderHandler, agendaHandler *httpHandlers.AgendaHandler, pomodoroHandler *httpHandlers.PomodoroHandler, popupHandler *httpHandlers.PopupHandler, eventsHandler *httpHandlers.EventsHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	v1.POST("/auth/login", authHandler.Login)

	auth := s.authMiddleware(authService)

	// Reminder routes
	reminderGroup := v1.Group("/reminders", auth)
	reminderGroup.GET("", reminderHandler.ListReminders)
	reminderGroup.POST("", reminderHandler.CreateReminder)
	reminderGroup.GET("/:id", reminderHandler.GetReminder)
	reminderGroup.PUT("/:id", reminderHandler.UpdateReminder)
	reminderGroup.POST("/:id/complete", reminderHandler.CompleteReminder)
	reminderGroup.DELETE("/:id", reminderHandler.DeleteReminder)

	// Medication routes
	medicationGroup := v1.Group("/medications", auth)
	medicationGroup.GET("", agendaHandler.ListMedications)
	medicationGroup.POST("", agendaHandler.CreateMedication)
	medicationGroup.PUT("/:id", agendaHandler.UpdateMedication)
	medicationGroup.DELETE("/:id", agendaHandler.DeleteMedication)

	// Task routes
	taskGroup := v1.Group("/tasks", auth)
	taskGroup.GET("", agendaHandler.ListTasks)
	taskGroup.POST("", agendaHandler.CreateTask)
	taskGroup.PUT("/:id", agendaHandler.UpdateTask)
	taskGroup.DELETE("/:id", agendaHandler.DeleteTask)

	// Habit routes
	habitGroup := v1.Group("/habits", auth)
	habitGroup.GET("", agendaHandler.ListHabits)
	habitGroup.POST("", agendaHandler.CreateHabit)
	habitGroup.POST("/:id/complete", agendaHandler.CompleteHabit)
	habitGroup.DELETE("/:id", agendaHandler.DeleteHabit)

	// Pomodoro routes
	pomodoroGroup := v1.Group("/pomodoro", auth)
	pomodoroGroup.POST("/start", pomodoroHandler.Start)
	pomodoroGroup.GET("/status", pomodoroHandler.Status)
	pomodoroGroup.POST("/stop", pomodoroHandler.Stop)
	pomodoroGroup.POST("/reset", pomodoroHandler.Reset)
	pomodoroGroup.GET("/sessions", pomodoroHandler.ListSessions)

	// Popup routes
	popupGroup := v1.Group("/popups", auth)
	popupGroup.GET("", popupHandler.ListPopups)
	popupGroup.POST("", popupHandler.ShowPopup)
	popupGroup.DELETE("/:id", popupHandler.DismissPopup)
	popupGroup.POST("/:id/snooze", popupHandler.SnoozePopup)
	popupGroup.POST("/:id/actions/:index", popupHandler.ActOnPopup)

	// Event stream
	v1.GET("/events", eventsHandler.Stream, auth)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.registry = prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	s.registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// authMiddleware validates bearer tokens
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			if err := authService.ValidateToken(parts[1]); err != nil {
				s.logger.Warn("Invalid token", "error", err, "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			return next(c)
		}
	}
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Database health check
	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	checks["notify"] = map[string]interface{}{
		"status":   "ok",
		"channels": s.gateway.Channels(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	// Check if server is ready to accept requests
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(*validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
