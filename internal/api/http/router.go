package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-inventory/internal/api/http/handlers"
	"github.com/spec-kit/ticket-inventory/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads and purchase are public; every
// administrative mutation requires an admin or organizer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/api/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/available", cfg.Tickets.ListAvailable)
	tickets.Get("/event/:eventId", cfg.Tickets.ListByEvent)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/purchase", cfg.Tickets.Purchase)

	admin := tickets.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(auth.RoleAdmin, auth.RoleOrganizer))
	admin.Post("/", cfg.Tickets.CreateTicket)
	admin.Post("/batch", cfg.Tickets.CreateTicketsBatch)
	admin.Put("/:id", cfg.Tickets.UpdateTicket)
	admin.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	admin.Post("/:id/validate", cfg.Tickets.ValidateTicket)
	admin.Post("/:id/expire", cfg.Tickets.ExpireTicket)
	admin.Delete("/:id", cfg.Tickets.DeleteTicket)
}
