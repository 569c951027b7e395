package handlers

import (
	"net/http"

	"fireops/auth"
	"fireops/middleware"
	"fireops/models"
)

// Set bundles every handler the API serves.
type Set struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Clients   *ClientHandler
	Visits    *VisitHandler
	Tasks     *TaskHandler
	Reminders *ReminderHandler
	Dashboard *DashboardHandler
}

// Routes registers every endpoint on a new mux. Everything under /api except
// login and refresh requires a valid access token.
func Routes(h *Set, jwtManager *auth.JWTManager, users middleware.UserLookup) *http.ServeMux {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("POST /api/login", h.Auth.Login)
	mux.HandleFunc("POST /api/refresh", h.Auth.RefreshToken)

	authed := middleware.AuthMiddleware(jwtManager, users)
	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(fn))
	}
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	protectAdmin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(adminOnly(fn)))
	}

	protect("GET /api/me", h.Auth.Me)
	protect("GET /api/dashboard", h.Dashboard.Get)

	protect("GET /api/clients", h.Clients.List)
	protect("POST /api/clients", h.Clients.Create)
	protect("GET /api/clients/{id}", h.Clients.Get)
	protect("PUT /api/clients/{id}", h.Clients.Update)
	protect("DELETE /api/clients/{id}", h.Clients.Delete)

	protect("GET /api/visits", h.Visits.List)
	protect("POST /api/visits", h.Visits.Create)
	protect("GET /api/visits/{id}", h.Visits.Get)
	protect("PUT /api/visits/{id}", h.Visits.Update)
	protect("DELETE /api/visits/{id}", h.Visits.Delete)
	protect("POST /api/visits/{id}/complete", h.Visits.Complete)
	protect("GET /api/calendar", h.Visits.Calendar)
	protect("GET /api/calendar/day", h.Visits.CalendarDay)

	protect("GET /api/tasks", h.Tasks.List)
	protect("POST /api/tasks", h.Tasks.Create)
	protect("GET /api/tasks/export", h.Tasks.Export)
	protect("GET /api/tasks/{id}", h.Tasks.Get)
	protect("PUT /api/tasks/{id}", h.Tasks.Update)
	protect("PATCH /api/tasks/{id}/status", h.Tasks.UpdateStatus)
	protect("DELETE /api/tasks/{id}", h.Tasks.Delete)

	protect("GET /api/reminders", h.Reminders.List)
	protect("POST /api/reminders", h.Reminders.Create)
	protect("PUT /api/reminders/{id}", h.Reminders.Update)
	protect("POST /api/reminders/{id}/toggle", h.Reminders.Toggle)
	protect("DELETE /api/reminders/{id}", h.Reminders.Delete)

	// Account management
	protectAdmin("GET /api/users", h.Users.GetUsers)
	protectAdmin("POST /api/users", h.Users.CreateUser)
	protectAdmin("POST /api/users/{id}/password", h.Users.ResetPassword)

	return mux
}
