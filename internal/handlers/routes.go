package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prayershare/backend/internal/middleware"
)

type Handlers struct {
	Auth       *AuthHandler
	Groups     *GroupsHandler
	Requests   *RequestsHandler
	Activities *ActivitiesHandler
}

// RegisterRoutes mounts the health check and the /api tree on app.
func RegisterRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/logout", auth.RequireAuth, h.Auth.Logout)
	authRoutes.Get("/me", auth.RequireAuth, h.Auth.Me)

	groupRoutes := api.Group("/groups", auth.RequireAuth)
	groupRoutes.Post("/", h.Groups.Create)
	groupRoutes.Get("/", h.Groups.List)
	groupRoutes.Get("/:id", h.Groups.Get)
	groupRoutes.Post("/:id/members", h.Groups.AddMember)
	groupRoutes.Get("/:id/requests", h.Groups.Feed)

	requestRoutes := api.Group("/requests", auth.RequireAuth)
	requestRoutes.Post("/", h.Requests.Create)
	requestRoutes.Get("/", h.Requests.ListPersonal)
	requestRoutes.Get("/resolved", h.Requests.ListResolved)
	requestRoutes.Get("/:id", h.Requests.Get)
	requestRoutes.Post("/:id/resolve", h.Requests.Resolve)
	requestRoutes.Delete("/:id", h.Requests.Delete)

	activityRoutes := api.Group("/activities", auth.RequireAuth)
	activityRoutes.Get("/", h.Activities.List)
	activityRoutes.Get("/unread-count", h.Activities.UnreadCount)
	activityRoutes.Put("/read-all", h.Activities.MarkAllRead)
	activityRoutes.Put("/:id/read", h.Activities.MarkRead)
}
