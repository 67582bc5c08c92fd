package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/core/domain"
	"loantracker/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createLoan(t *testing.T, repo repositories.LoanRepository, name string, applied time.Time, amount string, creatorID uint) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		ApplicantName:   name,
		ApplicationDate: applied,
		Amount:          decimal.RequireFromString(amount),
		Status:          domain.StatusApplied,
		CreatedByID:     creatorID,
	}
	notes := "Loan application created"
	entry := &models.StatusHistoryEntry{
		NewStatus:   domain.StatusApplied,
		ChangedByID: creatorID,
		ChangedAt:   time.Now().UTC(),
		Notes:       &notes,
	}
	if err := repo.CreateWithHistory(context.Background(), loan, entry); err != nil {
		t.Fatalf("create loan %s: %v", name, err)
	}
	return loan
}

func TestLoanRepository_CreateWithHistory(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)

	loan := createLoan(t, repo, "Juan Dela Cruz", date(2024, 1, 10), "50000.00", user.ID)

	got, err := repo.GetByID(context.Background(), loan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Amount.StringFixed(2) != "50000.00" {
		t.Errorf("amount = %s, want 50000.00", got.Amount.StringFixed(2))
	}
	if got.CreatedBy == nil || got.CreatedBy.DisplayName != "maria" {
		t.Errorf("creator not preloaded: %+v", got.CreatedBy)
	}
	if len(got.StatusHistory) != 1 {
		t.Fatalf("history entries = %d, want 1", len(got.StatusHistory))
	}
	h := got.StatusHistory[0]
	if h.PreviousStatus != nil || h.NewStatus != domain.StatusApplied {
		t.Errorf("initial entry = %v -> %s", h.PreviousStatus, h.NewStatus)
	}
}

func TestLoanRepository_CreateWithHistoryRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)

	loan := &models.Loan{
		ApplicantName:   "Pedro Penduko",
		ApplicationDate: date(2024, 2, 1),
		Amount:          decimal.NewFromInt(1000),
		Status:          domain.StatusApplied,
		CreatedByID:     user.ID,
	}
	// changer references a user that does not exist, so the history insert fails
	entry := &models.StatusHistoryEntry{
		NewStatus:   domain.StatusApplied,
		ChangedByID: 9999,
		ChangedAt:   time.Now().UTC(),
	}
	if err := repo.CreateWithHistory(context.Background(), loan, entry); err == nil {
		t.Fatal("expected foreign key failure")
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("loans after rollback = %d, want 0", count)
	}
}

func TestLoanRepository_ChangeStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)
	loan := createLoan(t, repo, "Juan Dela Cruz", date(2024, 1, 10), "50000", user.ID)

	ctx := context.Background()
	maturity := date(2025, 1, 10)
	changedAt := time.Now().UTC().Add(time.Minute)

	entry, err := repo.ChangeStatus(ctx, loan.ID, repositories.StatusChange{
		NewStatus:    domain.StatusEncoded,
		MaturityDate: &maturity,
		ChangedByID:  user.ID,
		ChangedAt:    changedAt,
	})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if entry.PreviousStatus == nil || *entry.PreviousStatus != domain.StatusApplied {
		t.Errorf("previous status = %v, want applied", entry.PreviousStatus)
	}

	got, err := repo.GetByID(ctx, loan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusEncoded {
		t.Errorf("status = %s, want encoded", got.Status)
	}
	if got.MaturityDate == nil || !got.MaturityDate.Equal(maturity) {
		t.Errorf("maturity = %v, want %v", got.MaturityDate, maturity)
	}
	if len(got.StatusHistory) != 2 || got.StatusHistory[0].NewStatus != domain.StatusEncoded {
		t.Errorf("history not newest first: %+v", got.StatusHistory)
	}

	// maturity date is only written when entering encoded
	other := date(2030, 1, 1)
	if _, err := repo.ChangeStatus(ctx, loan.ID, repositories.StatusChange{
		NewStatus:    domain.StatusReleased,
		MaturityDate: &other,
		ChangedByID:  user.ID,
		ChangedAt:    changedAt.Add(time.Minute),
	}); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	got, _ = repo.GetByID(ctx, loan.ID)
	if !got.MaturityDate.Equal(maturity) {
		t.Errorf("maturity changed to %v", got.MaturityDate)
	}

	if _, err := repo.ChangeStatus(ctx, 4242, repositories.StatusChange{
		NewStatus:   domain.StatusVerified,
		ChangedByID: user.ID,
		ChangedAt:   changedAt,
	}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("missing loan err = %v, want record not found", err)
	}
}

func TestLoanRepository_ListFilters(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)
	ctx := context.Background()

	juan := createLoan(t, repo, "Juan Dela Cruz", date(2024, 1, 10), "50000", user.ID)
	createLoan(t, repo, "Maria Clara", date(2024, 1, 15), "20000", user.ID)
	createLoan(t, repo, "100% Legit_Name", date(2024, 2, 1), "1000", user.ID)

	applied := domain.StatusApplied
	verified := domain.StatusVerified
	from := date(2024, 1, 10)
	before := date(2024, 1, 16)

	tests := []struct {
		name   string
		filter repositories.LoanFilter
		want   []string
	}{
		{"all newest first", repositories.LoanFilter{}, []string{"100% Legit_Name", "Maria Clara", "Juan Dela Cruz"}},
		{"ascending", repositories.LoanFilter{SortAscending: true}, []string{"Juan Dela Cruz", "Maria Clara", "100% Legit_Name"}},
		{"search case insensitive", repositories.LoanFilter{Search: "dela"}, []string{"Juan Dela Cruz"}},
		{"percent is literal", repositories.LoanFilter{Search: "0%"}, []string{"100% Legit_Name"}},
		{"underscore is literal", repositories.LoanFilter{Search: "a_c"}, nil},
		{"date range", repositories.LoanFilter{AppliedFrom: &from, AppliedBefore: &before}, []string{"Maria Clara", "Juan Dela Cruz"}},
		{"status applied", repositories.LoanFilter{Status: &applied}, []string{"100% Legit_Name", "Maria Clara", "Juan Dela Cruz"}},
		{"status verified", repositories.LoanFilter{Status: &verified}, nil},
		{"limit and offset", repositories.LoanFilter{Limit: 1, Offset: 1}, []string{"Maria Clara"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, l := range loans {
				names = append(names, l.ApplicantName)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("names = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("names = %v, want %v", names, tt.want)
					break
				}
			}
			if tt.filter.Limit == 0 && int(total) != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
		})
	}

	// maturity filter only matches loans with a maturity date
	maturity := date(2025, 1, 10)
	if _, err := repo.ChangeStatus(ctx, juan.ID, repositories.StatusChange{
		NewStatus:    domain.StatusEncoded,
		MaturityDate: &maturity,
		ChangedByID:  user.ID,
		ChangedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	mFrom, mBefore := date(2025, 1, 10), date(2025, 1, 11)
	loans, total, err := repo.List(ctx, repositories.LoanFilter{MaturityFrom: &mFrom, MaturityBefore: &mBefore})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(loans) != 1 || loans[0].ID != juan.ID {
		t.Errorf("maturity filter = %d loans, want juan only", total)
	}
}

func TestLoanRepository_SumReleased(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)
	ctx := context.Background()

	total, err := repo.SumReleased(ctx, repositories.LoanFilter{})
	if err != nil {
		t.Fatalf("SumReleased: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("empty total = %s, want 0", total)
	}

	for _, amount := range []string{"50000", "1234.50"} {
		loan := createLoan(t, repo, "Released "+amount, date(2024, 3, 1), amount, user.ID)
		if _, err := repo.ChangeStatus(ctx, loan.ID, repositories.StatusChange{
			NewStatus:   domain.StatusReleased,
			ChangedByID: user.ID,
			ChangedAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("ChangeStatus: %v", err)
		}
	}
	createLoan(t, repo, "Still Applied", date(2024, 3, 1), "99999", user.ID)

	total, err = repo.SumReleased(ctx, repositories.LoanFilter{})
	if err != nil {
		t.Fatalf("SumReleased: %v", err)
	}
	if total.StringFixed(2) != "51234.50" {
		t.Errorf("total = %s, want 51234.50", total.StringFixed(2))
	}

	rows, err := repo.ListReleasedAmounts(ctx, repositories.LoanFilter{Search: "50000"})
	if err != nil {
		t.Fatalf("ListReleasedAmounts: %v", err)
	}
	if len(rows) != 1 || !rows[0].Amount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("rows = %+v", rows)
	}
}

func TestLoanRepository_DeleteCascades(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)
	ctx := context.Background()

	loan := createLoan(t, repo, "Juan Dela Cruz", date(2024, 1, 10), "50000", user.ID)
	if err := repo.AddNote(ctx, &models.LoanNote{LoanID: loan.ID, Content: "called applicant", CreatedByID: user.ID}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	if err := repo.Delete(ctx, loan.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var history, notes int64
	db.Model(&models.StatusHistoryEntry{}).Count(&history)
	db.Model(&models.LoanNote{}).Count(&notes)
	if history != 0 || notes != 0 {
		t.Errorf("children left: history=%d notes=%d", history, notes)
	}

	if err := repo.Delete(ctx, loan.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second delete err = %v, want record not found", err)
	}
}

func TestLoanRepository_StaleByStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewLoanRepository(db)
	user := testutil.CreateUser(t, db, "maria", "secret123", domain.RoleUser)
	ctx := context.Background()

	now := date(2025, 6, 1)
	cutoff := now.AddDate(0, 0, -365)

	old := createLoan(t, repo, "Old Released", date(2023, 1, 1), "1000", user.ID)
	recent := createLoan(t, repo, "Recent Released", date(2024, 12, 1), "1000", user.ID)
	for _, l := range []*models.Loan{old, recent} {
		if err := repo.UpdateFields(ctx, l.ID, map[string]interface{}{"status": domain.StatusReleased}); err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
	}
	db.Model(&models.Loan{}).Where("id = ?", old.ID).UpdateColumn("updated_at", cutoff.Add(-time.Hour))
	db.Model(&models.Loan{}).Where("id = ?", recent.ID).UpdateColumn("updated_at", cutoff.Add(time.Hour))

	count, err := repo.CountStaleByStatus(ctx, domain.StatusReleased, cutoff)
	if err != nil {
		t.Fatalf("CountStaleByStatus: %v", err)
	}
	if count != 1 {
		t.Errorf("stale count = %d, want 1", count)
	}

	deleted, err := repo.DeleteStaleByStatus(ctx, domain.StatusReleased, cutoff)
	if err != nil {
		t.Fatalf("DeleteStaleByStatus: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if ok, _ := repo.Exists(ctx, recent.ID); !ok {
		t.Error("recent loan was deleted")
	}

	byStatus, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if byStatus[domain.StatusReleased] != 1 {
		t.Errorf("by status = %v", byStatus)
	}
}
