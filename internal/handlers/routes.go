package handlers

import (
	"github.com/labstack/echo/v4"
)

// Router bundles the handler groups mounted under /api.
type Router struct {
	Auth      *AuthHandlers
	Tasks     *TaskHandlers
	Family    *FamilyHandlers
	Dashboard *DashboardHandlers
	Health    *HealthHandlers
}

// Register mounts every route. requireAuth guards the token-protected groups and
// authLimit throttles the unauthenticated credential endpoints.
func (r *Router) Register(e *echo.Echo, requireAuth, authLimit echo.MiddlewareFunc) {
	api := e.Group("/api")

	api.GET("/health", r.Health.HealthCheck)

	auth := api.Group("/auth")
	auth.POST("/register", r.Auth.Register, authLimit)
	auth.POST("/login", r.Auth.Login, authLimit)
	auth.POST("/forgot-password", r.Auth.ForgotPassword, authLimit)
	auth.POST("/reset-password", r.Auth.ResetPassword, authLimit)
	auth.GET("/me", r.Auth.Me, requireAuth)

	tasks := api.Group("/tasks", requireAuth)
	tasks.GET("", r.Tasks.ListTasks)
	tasks.POST("", r.Tasks.CreateTask)
	tasks.POST("/archive", r.Tasks.ArchiveTasks)
	tasks.PUT("/:id", r.Tasks.UpdateTask)
	tasks.DELETE("/:id", r.Tasks.DeleteTask)

	family := api.Group("/family", requireAuth)
	family.GET("/info", r.Family.GetInfo)
	family.POST("/create", r.Family.CreateFamily)
	family.POST("/join", r.Family.JoinFamily)
	family.POST("/leave", r.Family.LeaveFamily)
	family.GET("/members", r.Family.ListMembers)
	family.GET("/tasks", r.Family.ListTasks)
	family.POST("/tasks", r.Family.CreateTask)
	family.PUT("/tasks/:id", r.Family.UpdateTask)
	family.DELETE("/tasks/:id", r.Family.DeleteTask)

	dashboard := api.Group("/dashboard", requireAuth)
	dashboard.GET("/stats", r.Dashboard.Stats)
	dashboard.GET("/analytics", r.Dashboard.Analytics)
}
