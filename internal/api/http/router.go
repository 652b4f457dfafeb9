package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	OpsTickets     *handlers.OpsTicketsHandler
	Policies       *handlers.PoliciesHandler
	Roster         *handlers.RosterHandler
	RefData        *handlers.RefDataHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/refdata/:kind", cfg.RefData.List)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/customers/login", cfg.Auth.LoginCustomer)
	authGroup.Post("/employees/login", cfg.Auth.LoginEmployee)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)
	authProtected.Put("/customers/push-token", auth.RequireCustomer(), cfg.Auth.SetPushToken)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.GetStatusHistory)

	ops := app.Group("/ops", cfg.AuthMiddleware.Handle, auth.RequireEmployeeRole())
	ops.Get("/divisions", cfg.Roster.ListDivisions)

	opsTickets := ops.Group("/tickets")
	opsTickets.Post("", cfg.OpsTickets.CreateTicket)
	opsTickets.Get("", cfg.OpsTickets.ListTickets)
	opsTickets.Get("/sla-breaches", cfg.OpsTickets.ListSlaBreaches)
	opsTickets.Get("/:id", cfg.OpsTickets.GetTicket)
	opsTickets.Post("/:id/classify", cfg.OpsTickets.Classify)
	opsTickets.Post("/:id/transition", cfg.OpsTickets.Transition)
	opsTickets.Get("/:id/history", cfg.OpsTickets.GetStatusHistory)
	opsTickets.Get("/:id/activities", cfg.OpsTickets.ListActivities)
	opsTickets.Post("/:id/notes", cfg.OpsTickets.AddNote)
	opsTickets.Get("/:id/notes", cfg.OpsTickets.ListNotes)
	opsTickets.Delete("/:id", auth.RequireEmployeeRole(domain.EmployeeRoleAdmin), cfg.OpsTickets.SoftDelete)
	opsTickets.Post("/:id/restore", auth.RequireEmployeeRole(domain.EmployeeRoleAdmin), cfg.OpsTickets.Restore)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireEmployeeRole(domain.EmployeeRoleAdmin))
	admin.Get("/policies", cfg.Policies.List)
	admin.Post("/policies", cfg.Policies.Create)
	admin.Get("/policies/:id", cfg.Policies.Get)
	admin.Put("/policies/:id", cfg.Policies.Update)
	admin.Get("/employees", cfg.Roster.ListEmployees)
	admin.Post("/employees", cfg.Roster.CreateEmployee)
	admin.Get("/employees/:id", cfg.Roster.GetEmployee)
	admin.Put("/employees/:id", cfg.Roster.UpdateEmployee)
}
