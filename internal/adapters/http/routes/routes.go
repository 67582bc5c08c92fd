package routes

import (
	"loantracker/internal/adapters/http/handlers"
	"loantracker/internal/adapters/http/middleware"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, clk clock.Clock) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionRepo, cfg, clk)
	userService := services.NewUserService(userRepo, sessionRepo, clk)
	loanService := services.NewLoanService(loanRepo, clk)
	maintenanceService := services.NewMaintenanceService(loanRepo, sessionRepo, cfg.Retention, clk)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1", middleware.NoCacheHeaders())
	setupAPIV1Routes(apiV1, authService, healthHandler, authHandler, userHandler, loanHandler, maintenanceHandler)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	sessions services.SessionResolver,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	loanHandler *handlers.LoanHandler,
	maintenanceHandler *handlers.MaintenanceHandler,
) {
	requireAuth := middleware.RequireAuth(sessions)
	requireAdmin := middleware.RequireAdmin()

	// API Info
	router.Get("/", healthHandler.APIInfo)

	// ============================================================
	// Auth routes
	// ============================================================
	auth := router.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Put("/password", requireAuth, authHandler.ChangePassword)

	// ============================================================
	// Loan routes (any signed-in user; edits and deletes are admin only)
	// ============================================================
	loans := router.Group("/loans", requireAuth)
	loans.Get("/", loanHandler.ListLoans)
	loans.Post("/", loanHandler.CreateLoan)
	loans.Get("/summary", loanHandler.Summary)
	loans.Get("/:id", loanHandler.GetLoan)
	loans.Patch("/:id", requireAdmin, loanHandler.UpdateLoan)
	loans.Delete("/:id", requireAdmin, loanHandler.DeleteLoan)
	loans.Post("/:id/status", loanHandler.ChangeStatus)
	loans.Post("/:id/notes", loanHandler.AddNote)

	// ============================================================
	// User management routes (Admin only)
	// ============================================================
	users := router.Group("/users", requireAuth, requireAdmin)
	users.Get("/", userHandler.ListUsers)
	users.Post("/", userHandler.CreateUser)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/:id/reset-password", userHandler.ResetPassword)
	users.Post("/:id/toggle-status", userHandler.ToggleUserStatus)

	// ============================================================
	// Maintenance routes (Admin only)
	// ============================================================
	maintenance := router.Group("/maintenance", requireAuth, requireAdmin)
	maintenance.Get("/stats", maintenanceHandler.StorageStats)
	maintenance.Post("/cleanup", maintenanceHandler.Cleanup)
	maintenance.Post("/sessions/cleanup", maintenanceHandler.CleanupSessions)
}
