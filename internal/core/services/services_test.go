package services_test

import (
	"testing"
	"time"

	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/testutil"

	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	clock       *clock.Manual
	auth        *services.AuthService
	users       *services.UserService
	loans       *services.LoanService
	maintenance *services.MaintenanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	clk := clock.NewManual(testNow)
	cfg := &config.Config{
		Session: config.SessionConfig{Days: 7, SweepCron: "@hourly"},
		Retention: config.RetentionConfig{
			ReleasedDays:  365,
			CancelledDays: 182,
		},
	}

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	return &fixture{
		db:          db,
		clock:       clk,
		auth:        services.NewAuthService(userRepo, sessionRepo, cfg, clk),
		users:       services.NewUserService(userRepo, sessionRepo, clk),
		loans:       services.NewLoanService(loanRepo, clk),
		maintenance: services.NewMaintenanceService(loanRepo, sessionRepo, cfg.Retention, clk),
	}
}
