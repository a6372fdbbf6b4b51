package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/http/handlers"
	"github.com/harsh17045/IssueTracker-sub000/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Staff          *handlers.StaffHandler
	Departments    *handlers.DepartmentsHandler
	Buildings      *handlers.BuildingsHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimiter throttles /api per principal; nil disables throttling.
	RateLimiter *auth.RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Get("/ws", cfg.AuthMiddleware.Handle, cfg.Events.Upgrade, cfg.Events.Stream())

	apiHandlers := []fiber.Handler{cfg.AuthMiddleware.Handle}
	if cfg.RateLimiter != nil {
		apiHandlers = append(apiHandlers, cfg.RateLimiter.Handle)
	}
	api := app.Group("/api", apiHandlers...)

	tickets := api.Group("/tickets")
	tickets.Post("/", auth.RequireEmployee(), cfg.Tickets.Raise)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/unread", cfg.Tickets.Unread)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequireEmployee(), cfg.Tickets.Edit)
	tickets.Post("/:id/status", auth.RequireStaff(), cfg.Tickets.Transition)
	tickets.Post("/:id/comments", cfg.Tickets.Comment)
	tickets.Post("/:id/revoke", auth.RequireEmployee(), cfg.Tickets.Revoke)
	tickets.Post("/:id/view", cfg.Tickets.MarkViewed)

	staff := api.Group("/staff")
	staff.Post("/", auth.RequireAdmin(), cfg.Staff.Create)
	staff.Post("/:id/deactivate", auth.RequireAdmin(), cfg.Staff.Deactivate)
	staff.Post("/:id/locations", cfg.Staff.Assign)
	staff.Put("/:id/locations", cfg.Staff.Replace)
	staff.Get("/:id/locations", cfg.Staff.ListLocations)
	staff.Delete("/:id/locations", cfg.Staff.Release)

	departments := api.Group("/departments")
	departments.Get("/", cfg.Departments.List)
	departments.Post("/", auth.RequireAdmin(), cfg.Departments.Create)
	departments.Patch("/:id", auth.RequireAdmin(), cfg.Departments.Update)
	departments.Get("/:id/available-slots", cfg.Departments.AvailableSlots)

	buildings := api.Group("/buildings")
	buildings.Get("/", cfg.Buildings.List)
	buildings.Get("/:id/floors/:floor", cfg.Buildings.GetFloor)
	buildings.Put("/:id", auth.RequireAdmin(), cfg.Buildings.Save)

	api.Get("/events/poll", cfg.Events.Poll)
}
