package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskhub/backend/api/handler"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	User   *apiHandler.UserHandler
	Admin  *apiHandler.AdminHandler
	Health *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authenticate Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", authenticate(handlers.Auth.Logout))

	// Task routes
	r.GET("/api/v1/tasks", authenticate(handlers.Task.List))
	r.POST("/api/v1/tasks", authenticate(handlers.Task.Create))
	r.GET("/api/v1/tasks/{id}", authenticate(handlers.Task.Get))
	r.PATCH("/api/v1/tasks/{id}", authenticate(handlers.Task.Update))
	r.DELETE("/api/v1/tasks/{id}", authenticate(handlers.Task.Delete))
	r.POST("/api/v1/tasks/{id}/share", authenticate(handlers.Task.Share))
	r.POST("/api/v1/tasks/{id}/unshare", authenticate(handlers.Task.Unshare))

	// User routes
	r.GET("/api/v1/users", authenticate(handlers.User.Directory))
	r.DELETE("/api/v1/users/me", authenticate(handlers.User.DeleteMe))

	// Admin routes
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	r.GET("/api/v1/admin/users", authenticate(adminOnly(handlers.Admin.ListUsers)))
	r.PATCH("/api/v1/admin/users/{id}/role", authenticate(adminOnly(handlers.Admin.SetRole)))
	r.DELETE("/api/v1/admin/users/{id}", authenticate(adminOnly(handlers.Admin.DeleteUser)))

	return r
}
