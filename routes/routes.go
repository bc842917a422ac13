package routes

import (
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/app"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/auth"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/handlers"
	appmiddleware "github.com/NowakArtur97/Personal-Kanban-Board-Backend/middleware"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", cfg.Credentials.HeaderName, "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every request passes through the loader; routes decide what they require
	r.Use(deps.AuthMiddleware.Authenticate)

	roleSource := "directory"
	if cfg.Credentials.TrustTokenRoles {
		roleSource = "token"
	}
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, handlers.StatusResponse{
		Environment: cfg.Environment,
		AuthHeader:  cfg.Credentials.HeaderName,
		RoleSource:  roleSource,
	}, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Recorder, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Verifier, deps.Logger)
	taskHandler := handlers.NewTaskHandler(deps.TaskService, deps.Recorder, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Audit, deps.Logger)

	requireUser := deps.AuthMiddleware.RequireRole(auth.RoleUser)
	requireAdmin := deps.AuthMiddleware.RequireRole(auth.RoleAdmin)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", health.HandleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/register", authHandler.HandleRegister)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAdmin).Get("/", userHandler.HandleListUsers)
			r.With(requireUser).Get("/me", userHandler.HandleGetCurrentUser)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.With(requireUser).Get("/", taskHandler.HandleListTasks)
			r.With(requireUser).Post("/", taskHandler.HandleCreateTask)
			r.With(requireAdmin).Delete("/{id}", taskHandler.HandleDeleteTask)
		})

		r.With(requireAdmin).Get("/audit/logs", auditHandler.HandleListAuditLogs)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
