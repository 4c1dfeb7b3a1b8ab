package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/config"
	"github.com/noah-isme/evalia-api/internal/handler"
	"github.com/noah-isme/evalia-api/internal/middleware"
	"github.com/noah-isme/evalia-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ExerciseHandler   *handler.ExerciseHandler
	SubmissionHandler *handler.SubmissionHandler
	CorrectionHandler *handler.CorrectionHandler
	UploadHandler     *handler.UploadHandler
	DashboardHandler  *handler.DashboardHandler
	AdminUserHandler  *handler.AdminUserHandler

	// AuthMiddleware overrides the JWT middleware, mainly for tests.
	AuthMiddleware fiber.Handler
	// Table overrides the role/route permission table. Nil means the
	// default table.
	Table []authz.RoutePermission
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	authenticate := deps.AuthMiddleware
	if authenticate == nil {
		authenticate = middleware.Authenticate(cfg.JWTSecret)
	}

	table := deps.Table
	if table == nil {
		table = authz.DefaultTable()
	}
	authorize := middleware.Authorize(table)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.ExerciseHandler != nil {
		exercises := api.Group("/exercises", authenticate, authorize)
		deps.ExerciseHandler.Register(exercises)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", authenticate, authorize)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.CorrectionHandler != nil {
		corrections := api.Group("/corrections", authenticate, authorize)
		deps.CorrectionHandler.Register(corrections)
	}

	if deps.UploadHandler != nil {
		uploads := api.Group("/uploads", authenticate, authorize)
		deps.UploadHandler.Register(uploads)
	}

	if deps.DashboardHandler != nil {
		student := api.Group("/student", authenticate, authorize)
		deps.DashboardHandler.Register(student)
	}

	if deps.AdminUserHandler != nil {
		admin := api.Group("/admin", authenticate, authorize)
		users := admin.Group("/users")
		deps.AdminUserHandler.Register(users)
	}
}
