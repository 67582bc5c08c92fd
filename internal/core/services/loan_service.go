package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/pkg/currency"
	"loantracker/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxApplicantNameLength = 255
	maxNoteLength          = 1000
	initialHistoryNote     = "Loan application created"
)

// maxAmount is the first value that no longer fits decimal(15,2)
var maxAmount = decimal.New(1, 13)

// amountInput accepts typed amounts such as "50000", "50,000.00" or "₱ 1,250.5"
var amountInput = regexp.MustCompile(`^(₱\s*)?[\d,]*\.?\d+$`)

// LoanService handles loan records, status changes and notes
type LoanService struct {
	loanRepo repositories.LoanRepository
	clock    clock.Clock
}

// NewLoanService creates a new loan service
func NewLoanService(loanRepo repositories.LoanRepository, clk clock.Clock) *LoanService {
	return &LoanService{
		loanRepo: loanRepo,
		clock:    clk,
	}
}

// CreateLoanInput represents create loan input. Amount may carry thousands
// separators.
type CreateLoanInput struct {
	ApplicantName   string `json:"applicant_name"`
	ApplicationDate string `json:"application_date"`
	Amount          string `json:"amount"`
}

// UpdateLoanInput represents a partial loan edit (admin). Status is never
// edited here.
type UpdateLoanInput struct {
	ApplicantName   *string `json:"applicant_name"`
	ApplicationDate *string `json:"application_date"`
	Amount          *string `json:"amount"`
}

// ChangeStatusInput represents a status change request
type ChangeStatusInput struct {
	Status       string  `json:"status"`
	Notes        *string `json:"notes"`
	MaturityDate *string `json:"maturity_date"`
}

// ListLoansInput holds the raw loan list filters
type ListLoansInput struct {
	Status            string
	Search            string
	StartDate         string
	EndDate           string
	MaturityStartDate string
	MaturityEndDate   string
	SortOrder         string
	Limit             int
	Offset            int
}

// MonthTotal is the released total of one month
type MonthTotal struct {
	Month          int    `json:"month"`
	MonthName      string `json:"month_name"`
	Total          string `json:"total"`
	TotalFormatted string `json:"total_formatted"`
}

// YearTotal is the released total of one year with its months
type YearTotal struct {
	Year           int          `json:"year"`
	Total          string       `json:"total"`
	TotalFormatted string       `json:"total_formatted"`
	Months         []MonthTotal `json:"months"`
}

// ============================================================
// Loan records
// ============================================================

// Create creates a loan in status applied together with its first history
// entry
func (s *LoanService) Create(ctx context.Context, actorID uint, input *CreateLoanInput) (*models.LoanResponse, error) {
	name, err := parseApplicantName(input.ApplicantName)
	if err != nil {
		return nil, err
	}
	applied, err := parseApplicationDate(input.ApplicationDate)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	loan := &models.Loan{
		ApplicantName:   name,
		ApplicationDate: applied,
		Amount:          amount,
		Status:          domain.StatusApplied,
		CreatedByID:     actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	notes := initialHistoryNote
	entry := &models.StatusHistoryEntry{
		PreviousStatus: nil,
		NewStatus:      domain.StatusApplied,
		ChangedByID:    actorID,
		ChangedAt:      now,
		Notes:          &notes,
	}

	if err := s.loanRepo.CreateWithHistory(ctx, loan, entry); err != nil {
		return nil, err
	}

	metrics.LoansCreated.Inc()
	slog.Info("✅ Loan created", "loan_id", loan.ID, "applicant", loan.ApplicantName, "by", actorID)

	return s.GetByID(ctx, loan.ID)
}

// Update edits the applicant name, application date or amount of a loan
func (s *LoanService) Update(ctx context.Context, loanID uint, input *UpdateLoanInput) (*models.LoanResponse, error) {
	updates := map[string]interface{}{}

	if input.ApplicantName != nil {
		name, err := parseApplicantName(*input.ApplicantName)
		if err != nil {
			return nil, err
		}
		updates["applicant_name"] = name
	}
	if input.ApplicationDate != nil {
		applied, err := parseApplicationDate(*input.ApplicationDate)
		if err != nil {
			return nil, err
		}
		updates["application_date"] = applied
	}
	if input.Amount != nil {
		amount, err := parseAmount(*input.Amount)
		if err != nil {
			return nil, err
		}
		updates["amount"] = amount
	}

	if len(updates) == 0 {
		return s.GetByID(ctx, loanID)
	}

	updates["updated_at"] = s.clock.Now()
	if err := s.loanRepo.UpdateFields(ctx, loanID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	slog.Info("✅ Loan updated", "loan_id", loanID)
	return s.GetByID(ctx, loanID)
}

// List lists loans matching the filters and the total number of matches
func (s *LoanService) List(ctx context.Context, input *ListLoansInput) ([]*models.LoanResponse, int64, error) {
	filter, err := buildLoanFilter(input, true)
	if err != nil {
		return nil, 0, err
	}

	loans, total, err := s.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.LoanResponse, len(loans))
	for i, l := range loans {
		responses[i] = l.ToResponse()
	}
	return responses, total, nil
}

// GetByID gets a loan with its creator, history and notes
func (s *LoanService) GetByID(ctx context.Context, loanID uint) (*models.LoanResponse, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan.ToResponse(), nil
}

// TotalReleasedAmount sums released loans matching the filters. The status
// filter is ignored. Returns "0" when nothing matches.
func (s *LoanService) TotalReleasedAmount(ctx context.Context, input *ListLoansInput) (string, error) {
	filter, err := buildLoanFilter(input, false)
	if err != nil {
		return "", err
	}

	total, err := s.loanRepo.SumReleased(ctx, filter)
	if err != nil {
		return "", err
	}
	if total.IsZero() {
		return "0", nil
	}
	return total.StringFixed(2), nil
}

// ReleasedBreakdown groups released totals by year and month, newest first.
// The status filter is ignored.
func (s *LoanService) ReleasedBreakdown(ctx context.Context, input *ListLoansInput) ([]YearTotal, error) {
	filter, err := buildLoanFilter(input, false)
	if err != nil {
		return nil, err
	}

	rows, err := s.loanRepo.ListReleasedAmounts(ctx, filter)
	if err != nil {
		return nil, err
	}

	years := map[int]map[time.Month]decimal.Decimal{}
	for _, row := range rows {
		d := row.ApplicationDate.UTC()
		months, ok := years[d.Year()]
		if !ok {
			months = map[time.Month]decimal.Decimal{}
			years[d.Year()] = months
		}
		months[d.Month()] = months[d.Month()].Add(row.Amount)
	}

	breakdown := make([]YearTotal, 0, len(years))
	for year, months := range years {
		yt := YearTotal{Year: year}
		yearSum := decimal.Zero
		for month, sum := range months {
			yearSum = yearSum.Add(sum)
			yt.Months = append(yt.Months, MonthTotal{
				Month:          int(month),
				MonthName:      month.String(),
				Total:          sum.StringFixed(2),
				TotalFormatted: currency.FormatDecimal(sum),
			})
		}
		sort.Slice(yt.Months, func(i, j int) bool {
			return yt.Months[i].Month > yt.Months[j].Month
		})
		yt.Total = yearSum.StringFixed(2)
		yt.TotalFormatted = currency.FormatDecimal(yearSum)
		breakdown = append(breakdown, yt)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Year > breakdown[j].Year
	})

	return breakdown, nil
}

// Delete deletes a loan with its history and notes
func (s *LoanService) Delete(ctx context.Context, loanID uint) error {
	if err := s.loanRepo.Delete(ctx, loanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrLoanNotFound
		}
		return err
	}

	metrics.LoansDeleted.WithLabelValues("admin").Inc()
	slog.Info("🗑️ Loan deleted", "loan_id", loanID)
	return nil
}

// ============================================================
// Status transitions
// ============================================================

// ChangeStatus moves a loan to a new status and records the change. Any
// status may follow any other; entering encoded requires a maturity date.
func (s *LoanService) ChangeStatus(ctx context.Context, actorID, loanID uint, input *ChangeStatusInput) (*models.LoanResponse, error) {
	status := domain.LoanStatus(strings.TrimSpace(input.Status))
	if !status.Valid() {
		return nil, domain.ErrInvalidLoanStatus
	}

	var maturity *time.Time
	if input.MaturityDate != nil && strings.TrimSpace(*input.MaturityDate) != "" {
		t, ok := parseDate(*input.MaturityDate)
		if !ok {
			return nil, domain.NewValidationError("Invalid maturity date format")
		}
		maturity = &t
	}

	if status == domain.StatusEncoded && maturity == nil {
		return nil, domain.ErrMaturityDateRequired
	}

	var notes *string
	if input.Notes != nil {
		if trimmed := strings.TrimSpace(*input.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	entry, err := s.loanRepo.ChangeStatus(ctx, loanID, repositories.StatusChange{
		NewStatus:    status,
		MaturityDate: maturity,
		Notes:        notes,
		ChangedByID:  actorID,
		ChangedAt:    s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	slog.Info("🔄 Loan status changed",
		"loan_id", loanID,
		"from", *entry.PreviousStatus,
		"to", status,
		"by", actorID,
	)

	return s.GetByID(ctx, loanID)
}

// ============================================================
// Notes
// ============================================================

// AddNote appends a note to a loan
func (s *LoanService) AddNote(ctx context.Context, actorID, loanID uint, content string) (*models.LoanNoteResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("Note content is required")
	}
	if utf8.RuneCountInString(content) > maxNoteLength {
		return nil, domain.NewValidationError("Note is too long")
	}

	exists, err := s.loanRepo.Exists(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrLoanNotFound
	}

	now := s.clock.Now()
	note := &models.LoanNote{
		LoanID:      loanID,
		Content:     content,
		CreatedByID: actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.loanRepo.AddNote(ctx, note); err != nil {
		return nil, err
	}

	slog.Info("📝 Loan note added", "loan_id", loanID, "note_id", note.ID)
	return note.ToResponse(), nil
}

// ============================================================
// Input parsing
// ============================================================

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Calendar
// dates are taken as midnight UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseApplicantName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", domain.NewValidationError("Applicant name is required")
	}
	if utf8.RuneCountInString(name) > maxApplicantNameLength {
		return "", domain.NewValidationError("Name is too long")
	}
	return name, nil
}

func parseApplicationDate(s string) (time.Time, error) {
	t, ok := parseDate(s)
	if !ok {
		return time.Time{}, domain.NewValidationError("Valid application date is required")
	}
	return t, nil
}

// parseAmount strips thousands separators and requires a positive amount
// that fits decimal(15,2)
func parseAmount(s string) (decimal.Decimal, error) {
	invalid := domain.NewValidationError("Amount must be a valid positive number")

	s = strings.TrimSpace(s)
	if !amountInput.MatchString(s) {
		return decimal.Zero, invalid
	}
	amount, err := decimal.NewFromString(currency.ParsePHPInput(s))
	if err != nil {
		return decimal.Zero, invalid
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, invalid
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, domain.NewValidationError("Amount is too large")
	}
	return amount, nil
}

// buildLoanFilter validates raw filters. End dates include the whole day.
func buildLoanFilter(input *ListLoansInput, withStatus bool) (repositories.LoanFilter, error) {
	filter := repositories.LoanFilter{
		Search:        strings.TrimSpace(input.Search),
		SortAscending: strings.EqualFold(input.SortOrder, "asc"),
		Limit:         input.Limit,
		Offset:        input.Offset,
	}

	if withStatus && input.Status != "" {
		status := domain.LoanStatus(input.Status)
		if !status.Valid() {
			return filter, domain.ErrInvalidLoanStatus
		}
		filter.Status = &status
	}

	var err error
	if filter.AppliedFrom, err = optionalDate(input.StartDate, false); err != nil {
		return filter, err
	}
	if filter.AppliedBefore, err = optionalDate(input.EndDate, true); err != nil {
		return filter, err
	}
	if filter.MaturityFrom, err = optionalDate(input.MaturityStartDate, false); err != nil {
		return filter, err
	}
	if filter.MaturityBefore, err = optionalDate(input.MaturityEndDate, true); err != nil {
		return filter, err
	}

	return filter, nil
}

func optionalDate(s string, endOfRange bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, ok := parseDate(s)
	if !ok {
		return nil, domain.NewValidationError("Invalid date filter: " + s)
	}
	if endOfRange {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
