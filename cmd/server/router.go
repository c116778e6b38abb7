package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/middleware"
)

// setupRouter mounts every route under /api.
func setupRouter(deps *appDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.HealthHandler.Health)

		r.Post("/users/register", deps.UserHandler.Register)
		r.Post("/users/login", deps.UserHandler.Login)
		r.Post("/users/refresh", deps.UserHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.Authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", deps.UserHandler.ListUsers)
				r.Post("/logout", deps.UserHandler.Logout)
				r.Get("/profile", deps.UserHandler.GetProfile)
				r.Put("/profile", deps.UserHandler.UpdateProfile)
				r.Delete("/profile", deps.UserHandler.DeleteProfile)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", deps.TaskHandler.CreateTask)
				r.Get("/", deps.TaskHandler.ListMyTasks)
				r.Get("/assigned", deps.TaskHandler.ListAssignedTasks)
				r.Get("/category/{categoryId}", deps.TaskHandler.ListTasksByCategory)
				r.Get("/status/{status}", deps.TaskHandler.ListTasksByStatus)
				r.Get("/{id}", deps.TaskHandler.GetTask)
				r.Put("/{id}", deps.TaskHandler.UpdateTask)
				r.Delete("/{id}", deps.TaskHandler.DeleteTask)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", deps.CategoryHandler.CreateCategory)
				r.Get("/", deps.CategoryHandler.ListCategories)
				r.Get("/{id}", deps.CategoryHandler.GetCategory)
				r.Put("/{id}", deps.CategoryHandler.UpdateCategory)
				r.Delete("/{id}", deps.CategoryHandler.DeleteCategory)
			})

			r.Route("/collaborations", func(r chi.Router) {
				r.Post("/", deps.CollaborationHandler.AddCollaborator)
				r.Get("/user", deps.CollaborationHandler.ListMyCollaborations)
				r.Get("/task/{taskId}", deps.CollaborationHandler.ListTaskCollaborators)
				r.Delete("/task/{taskId}/user/{userId}", deps.CollaborationHandler.RemoveCollaborator)
				r.Get("/permission/{taskId}", deps.CollaborationHandler.CheckPermission)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/user", deps.ReportHandler.GetUserReport)
				r.Post("/team", deps.ReportHandler.GetTeamReport)
				r.Get("/completed-tasks", deps.ReportHandler.GetCompletedTasks)
			})
		})
	})

	return r
}
