package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Intake         *handlers.IntakeHandler
	Dashboard      *handlers.DashboardHandler
	Technicians    *handlers.TechniciansHandler
	Exports        *handlers.ExportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Users.Login)

	// Unauthenticated channel for the mail gateway.
	app.Post("/intake/email", cfg.Intake.Email)

	authed := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := authed.Group("/tickets")
	tickets.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleDispatcher), cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/timeline", cfg.Tickets.Timeline)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/start", cfg.Tickets.Start)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reassign", cfg.Tickets.Reassign)
	tickets.Post("/:id/return", cfg.Tickets.Return)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Post("/:id/comments", cfg.Tickets.Comment)

	authed.Get("/dashboard", cfg.Dashboard.Get)
	authed.Get("/exports/closed", cfg.Exports.Closed)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/technicians", cfg.Technicians.List)
	admin.Post("/technicians", cfg.Technicians.Create)
	admin.Put("/technicians/:id", cfg.Technicians.Update)
	admin.Post("/technicians/:id/disable", cfg.Technicians.Disable)
	admin.Post("/credentials", cfg.Users.UpsertCredential)
}
