package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/probing-go-api/internal/config"
	"github.com/noah-isme/probing-go-api/internal/handler"
	"github.com/noah-isme/probing-go-api/internal/middleware"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/observability"
	"github.com/noah-isme/probing-go-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler   *handler.SessionHandler
	SettingsHandler  *handler.SettingsHandler
	AdminUserHandler *handler.AdminUserHandler
	WorkspaceHandler *handler.WorkspaceHandler
	ReviewHandler    *handler.ReviewHandler
	Workflows        service.WorkflowCatalog
	FeatureGate      middleware.FeatureChecker
	Admins           middleware.AdminChecker
	AuthMiddleware   fiber.Handler
	LinkRateLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	auth := deps.AuthMiddleware
	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.SessionHandler != nil {
		var guards []fiber.Handler
		if deps.LinkRateLimiter != nil {
			guards = append(guards, deps.LinkRateLimiter)
		}
		deps.SessionHandler.Register(api.Group("/session", auth), guards...)
	}

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.RegisterFeatures(api.Group("/features", auth))
	}

	admin := api.Group("/admin", auth, middleware.RequireAdmin(deps.Admins, cfg.LandingPath))
	if deps.SettingsHandler != nil {
		deps.SettingsHandler.RegisterAdmin(admin.Group("/settings"))
	}
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/users"))
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterAdmin(admin.Group("/submissions"))
	}

	v2 := app.Group("/api/v2", auth)

	if deps.WorkspaceHandler != nil {
		for _, workflow := range deps.Workflows {
			deps.WorkspaceHandler.Register(v2, workflow, middleware.RequireFeature(deps.FeatureGate, workflow.Feature, cfg.LandingPath))
		}
	}

	if deps.ReviewHandler != nil {
		results := v2.Group("/results", middleware.RequireFeature(deps.FeatureGate, models.FeatureActivity2, cfg.LandingPath))
		deps.ReviewHandler.RegisterResults(results)
	}
}
