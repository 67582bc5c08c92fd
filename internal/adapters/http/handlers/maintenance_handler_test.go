package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"loantracker/internal/adapters/http/handlers"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

type failCancelledDelete struct {
	repositories.LoanRepository
}

func (r failCancelledDelete) DeleteStaleByStatus(ctx context.Context, status domain.LoanStatus, updatedBefore time.Time) (int64, error) {
	if status == domain.StatusCancelled {
		return 0, errors.New("delete failed")
	}
	return r.LoanRepository.DeleteStaleByStatus(ctx, status, updatedBefore)
}

func TestMaintenanceHandler_CleanupReportsPartialCounts(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "admin", "secret123", domain.RoleAdmin)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewManual(now.Add(-400 * 24 * time.Hour))

	loanRepo := repositories.NewLoanRepository(db)
	loans := services.NewLoanService(loanRepo, clk)
	for _, status := range []string{"released", "cancelled"} {
		loan, err := loans.Create(ctx, user.ID, &services.CreateLoanInput{
			ApplicantName:   "Applicant " + status,
			ApplicationDate: "2024-01-01",
			Amount:          "1000",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := loans.ChangeStatus(ctx, user.ID, loan.ID, &services.ChangeStatusInput{Status: status}); err != nil {
			t.Fatalf("ChangeStatus: %v", err)
		}
	}
	clk.Set(now)

	maintenance := services.NewMaintenanceService(
		failCancelledDelete{loanRepo},
		repositories.NewSessionRepository(db),
		config.RetentionConfig{ReleasedDays: 365, CancelledDays: 182},
		clk,
	)
	app := fiber.New()
	app.Post("/cleanup", handlers.NewMaintenanceHandler(maintenance).Cleanup)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/cleanup", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var body struct {
		Success bool                   `json:"success"`
		Error   string                 `json:"error"`
		Data    services.CleanupResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error == "" {
		t.Errorf("body = %+v", body)
	}
	if body.Data.DeletedReleased != 1 || body.Data.DeletedCancelled != 0 {
		t.Errorf("data = %+v, want 1 released and 0 cancelled", body.Data)
	}
}
