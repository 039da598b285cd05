package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/roster-service/internal/api/http/handlers"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Roster         *handlers.RosterHandler
	Ingest         *handlers.IngestHandler
	Self           *handlers.SelfHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.Logout)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/staff", cfg.Roster.List)
	admin.Get("/staff/export", cfg.Roster.Export)
	admin.Delete("/staff/delete-all", cfg.Roster.DeleteAll)
	admin.Get("/staff/:id<int>", cfg.Roster.Get)
	admin.Put("/staff/:id<int>", cfg.Roster.Update)
	admin.Delete("/staff/:id<int>", cfg.Roster.Delete)
	admin.Post("/upload", cfg.Ingest.Upload)
	admin.Post("/append", cfg.Ingest.Append)
	admin.Post("/bulk-update", cfg.Ingest.BulkUpdate)
	admin.Get("/audit", cfg.Audit.List)

	staff := api.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleStaff))
	staff.Get("/me", cfg.Self.Get)
	staff.Put("/me", cfg.Self.Update)
}
