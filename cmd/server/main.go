package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"loantracker/internal/adapters/http/middleware"
	"loantracker/internal/adapters/http/routes"
	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"

	_ "loantracker/docs" // Swagger docs
)

// @title Loan Tracker API
// @version 1.0
// @description Internal loan application tracker API

// @BasePath /api/v1

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fatal("❌ Failed to load configuration", err)
	}
	logging.Setup(cfg.LogLevel)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		fatal("❌ Failed to connect to database", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		fatal("❌ Failed to auto migrate", err)
	}
	slog.Info("✅ Database migration completed")

	// Seed the default admin on an empty database
	if err := config.NewSeeder(db).Run(context.Background()); err != nil {
		fatal("❌ Failed to seed database", err)
	}

	clk := clock.Real{}

	// Start Cron Service for the expired session sweep
	maintenanceService := services.NewMaintenanceService(
		repositories.NewLoanRepository(db),
		repositories.NewSessionRepository(db),
		cfg.Retention,
		clk,
	)
	cronService := services.NewCronService(maintenanceService, cfg.Session.SweepCron)
	if err := cronService.Start(); err != nil {
		fatal("❌ Failed to start cron service", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Loan Tracker API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, clk)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	slog.Info("🚀 Server starting", "port", cfg.Port, "mode", cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("❌ Failed to start server", "error", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		slog.Error("❌ Error during shutdown", "error", err)
	}
	slog.Info("✅ Server stopped gracefully")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
