// Package app assembles the HTTP application out of the inventory services.
package app

import (
	"context"
	"time"

	"inventory/internal/handlers"
	"inventory/internal/middleware"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP application.
type Deps struct {
	Products  *services.ProductService
	Inventory *services.InventoryService
	Reports   *services.ReportService
	Auth      *services.AuthService
	Logger    *zap.Logger
	// HealthChecks are probed by GET /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

// New builds the fiber application with every route registered.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "inventory",
		ErrorHandler: errorHandler(d.Logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestLogger(d.Logger))
	app.Use(middleware.Metrics())

	app.Get("/health", healthHandler(d.HealthChecks))
	app.Get("/metrics", middleware.PrometheusHandler())

	apiV1 := app.Group("/api/v1")
	protect := middleware.AuthRequired(d.Auth, d.Logger)

	handlers.NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(apiV1)
	handlers.NewProductHandler(d.Products, d.Inventory, d.Logger).RegisterRoutes(apiV1, protect)
	handlers.NewTransactionHandler(d.Inventory, d.Logger).RegisterRoutes(apiV1, protect)
	handlers.NewReportHandler(d.Reports, d.Logger).RegisterRoutes(apiV1)

	return app
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		results := make(map[string]string, len(checks))

		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				results[name] = err.Error()
				status = "unhealthy"
				code = fiber.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
			"checks": results,
		})
	}
}
