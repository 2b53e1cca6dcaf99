// Package api exposes the local HTTP surface consumed by the UI.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/meditrack/meditrack/internal/alert"
	"github.com/meditrack/meditrack/internal/config"
	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/medication"
	"github.com/meditrack/meditrack/internal/metrics"
	"github.com/meditrack/meditrack/internal/reminder"
	"github.com/meditrack/meditrack/internal/schedule"
	"github.com/meditrack/meditrack/internal/scheduler"
)

// Server handles the HTTP API
type Server struct {
	app         *fiber.App
	config      *config.Config
	reminders   *reminder.Store
	presenter   *alert.Presenter
	scheduler   *scheduler.Scheduler
	medications *medication.Service
	events      *schedule.Service
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Deps carries the components the server fronts.
type Deps struct {
	Reminders   *reminder.Store
	Presenter   *alert.Presenter
	Scheduler   *scheduler.Scheduler
	Medications *medication.Service
	Events      *schedule.Service
	Metrics     *metrics.Metrics
}

// New creates a new API server
func New(cfg *config.Config, deps Deps, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	m := deps.Metrics
	if m == nil {
		m = metrics.Default()
	}

	s := &Server{
		app:         app,
		config:      cfg,
		reminders:   deps.Reminders,
		presenter:   deps.Presenter,
		scheduler:   deps.Scheduler,
		medications: deps.Medications,
		events:      deps.Events,
		metrics:     m,
		logger:      log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	s.app.Use(func(c *fiber.Ctx) error {
		s.metrics.RecordEndpoint(c.Method() + " " + c.Path())
		err := c.Next()
		s.metrics.RecordRequest(err == nil && c.Response().StatusCode() < 400)
		return err
	})

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/api/metrics", s.handleMetrics)
	s.app.Get("/api/metrics/json", s.handleMetricsJSON)

	api := s.app.Group("/api")
	api.Post("/auth/login", s.handleLogin)

	protected := api.Use(s.authMiddleware())

	// Reminders
	protected.Get("/reminders", s.handleListReminders)
	protected.Post("/reminders", s.handleCreateReminder)
	protected.Put("/reminders/:id", s.handleUpdateReminder)
	protected.Delete("/reminders/:id", s.handleDeleteReminder)
	protected.Patch("/reminders/:id/toggle", s.handleToggleReminder)
	protected.Patch("/reminders/:id/whatsapp", s.handleReminderWhatsApp)

	// Active alert
	protected.Get("/alerts/active", s.handleActiveAlert)
	protected.Post("/alerts/take", s.handleAlertTake)
	protected.Post("/alerts/snooze", s.handleAlertSnooze)
	protected.Post("/alerts/dismiss", s.handleAlertDismiss)
	protected.Get("/alerts/snoozed", s.handleSnoozedAlerts)

	// Medications
	protected.Get("/medications", s.handleListMedications)
	protected.Post("/medications", s.handleCreateMedication)
	protected.Delete("/medications/:id", s.handleDeleteMedication)
	protected.Post("/medications/:id/take", s.handleTakeMedication)
	protected.Post("/medications/:id/skip", s.handleSkipMedication)
	protected.Get("/medications/progress", s.handleMedicationProgress)
	protected.Get("/medications/:id/history", s.handleMedicationHistory)

	// Schedule events
	protected.Get("/events", s.handleListEvents)
	protected.Post("/events", s.handleCreateEvent)
	protected.Put("/events/:id", s.handleUpdateEvent)
	protected.Delete("/events/:id", s.handleDeleteEvent)
	protected.Patch("/events/:id/toggle", s.handleToggleEvent)
	protected.Get("/events/window", s.handleEventWindow)
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; version=0.0.4")
	return c.SendString(s.metrics.Prometheus())
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(s.metrics.Snapshot())
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if s.config.Security.AdminPassword != "" && req.Password != s.config.Security.AdminPassword {
		return c.Status(401).JSON(fiber.Map{"error": "invalid password"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "default",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.config.Security.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		return c.Next()
	}
}

// statusFor maps error taxonomy codes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return 400
	case apperrors.GetCode(err) == "STORE_001",
		apperrors.GetCode(err) == "STORE_002",
		apperrors.GetCode(err) == "STORE_003",
		apperrors.GetCode(err) == "ALERT_001":
		return 404
	case apperrors.IsSync(err):
		return 502
	default:
		return 500
	}
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == 500 {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
