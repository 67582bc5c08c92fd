package repositories

import (
	"context"
	"time"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/core/domain"

	"github.com/shopspring/decimal"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	List(ctx context.Context) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// SessionRepository is the session store. Implementations receive hashed
// tokens only.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetValid returns the session only if it is unexpired at now and its
	// owner is active, checked in a single query.
	GetValid(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoanFilter narrows loan queries. Upper date bounds are exclusive.
type LoanFilter struct {
	Status         *domain.LoanStatus
	Search         string
	AppliedFrom    *time.Time
	AppliedBefore  *time.Time
	MaturityFrom   *time.Time
	MaturityBefore *time.Time
	SortAscending  bool
	Limit          int
	Offset         int
}

// StatusChange describes one status transition to persist
type StatusChange struct {
	NewStatus    domain.LoanStatus
	MaturityDate *time.Time
	Notes        *string
	ChangedByID  uint
	ChangedAt    time.Time
}

// ReleasedAmount is one released loan's application date and amount
type ReleasedAmount struct {
	ApplicationDate time.Time
	Amount          decimal.Decimal
}

// LoanRepository defines loan, status history and note data access
type LoanRepository interface {
	// CreateWithHistory inserts the loan and its first history entry atomically
	CreateWithHistory(ctx context.Context, loan *models.Loan, entry *models.StatusHistoryEntry) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	List(ctx context.Context, filter LoanFilter) ([]*models.Loan, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	// ChangeStatus locks the loan row, applies the change and appends
	// history with the locked prior status, all in one transaction
	ChangeStatus(ctx context.Context, id uint, change StatusChange) (*models.StatusHistoryEntry, error)
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)

	AddNote(ctx context.Context, note *models.LoanNote) error

	SumReleased(ctx context.Context, filter LoanFilter) (decimal.Decimal, error)
	ListReleasedAmounts(ctx context.Context, filter LoanFilter) ([]ReleasedAmount, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error)
	CountStaleByStatus(ctx context.Context, status domain.LoanStatus, updatedBefore time.Time) (int64, error)
	DeleteStaleByStatus(ctx context.Context, status domain.LoanStatus, updatedBefore time.Time) (int64, error)
}
