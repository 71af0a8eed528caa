// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"errors"

	"counterparty_analyzer/pkg/api/analysis"
	apiconfig "counterparty_analyzer/pkg/api/config"
	"counterparty_analyzer/pkg/api/middleware"
	"counterparty_analyzer/pkg/core/agent"
	"counterparty_analyzer/pkg/core/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Pipeline    *pipeline.Orchestrator
	Agents      *agent.Manager
	APIKey      string
	BodyLimitMB int
}

// NewApp builds the fiber application with every route registered.
func NewApp(d Deps) *fiber.App {
	cfg := fiber.Config{
		AppName:      "counterparty-analyzer",
		ErrorHandler: errorHandler,
	}
	if d.BodyLimitMB > 0 {
		cfg.BodyLimit = d.BodyLimitMB * 1024 * 1024
	}
	app := fiber.New(cfg)

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger)

	SetupRoutes(app, d)
	return app
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, d Deps) {
	configHandler := apiconfig.NewHandler(d.Agents)
	app.Get("/health", configHandler.HandleHealth)

	api := app.Group("/api/v1", middleware.BearerAuth(d.APIKey))

	analysisHandler := analysis.NewHandler(d.Pipeline)
	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Post("/calculate", analysisHandler.HandleCalculate)
	api.Post("/validate", analysisHandler.HandleValidate)

	api.Get("/config", configHandler.HandleConfig)
	api.Post("/config/switch", configHandler.HandleSwitch)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"status": "error", "message": err.Error()})
}
