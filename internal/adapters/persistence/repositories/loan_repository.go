package repositories

import (
	"context"
	"strings"
	"time"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// CreateWithHistory creates a loan together with its first history entry
func (r *loanRepository) CreateWithHistory(ctx context.Context, loan *models.Loan, entry *models.StatusHistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(loan).Error; err != nil {
			return err
		}
		entry.LoanID = loan.ID
		return tx.Omit(clause.Associations).Create(entry).Error
	})
}

// GetByID gets a loan by ID with creator, history and notes
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Scopes(withLoanRelations).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// List lists loans matching the filter with the total matching count
func (r *loanRepository) List(ctx context.Context, filter LoanFilter) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Scopes(filterLoans(filter, true)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Scopes(filterLoans(filter, true), withLoanRelations, pageLoans(filter)).
		Find(&loans).Error; err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// UpdateFields updates the given columns of a loan
func (r *loanRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Loan{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ChangeStatus applies a status change and appends its history entry
func (r *loanRepository) ChangeStatus(ctx context.Context, id uint, change StatusChange) (*models.StatusHistoryEntry, error) {
	var entry *models.StatusHistoryEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":     change.NewStatus,
			"updated_at": change.ChangedAt,
		}
		if change.NewStatus == domain.StatusEncoded && change.MaturityDate != nil {
			updates["maturity_date"] = *change.MaturityDate
		}
		if err := tx.Model(&models.Loan{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		previous := loan.Status
		entry = &models.StatusHistoryEntry{
			LoanID:         id,
			PreviousStatus: &previous,
			NewStatus:      change.NewStatus,
			ChangedByID:    change.ChangedByID,
			ChangedAt:      change.ChangedAt,
			Notes:          change.Notes,
		}
		return tx.Omit(clause.Associations).Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete deletes a loan with its history and notes
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteLoans(tx, []uint{id})
		if err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Exists checks if a loan exists
func (r *loanRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// AddNote appends a note to a loan
func (r *loanRepository) AddNote(ctx context.Context, note *models.LoanNote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(note).Error
}

// SumReleased sums the amount of released loans matching the filter.
// The status in the filter is ignored.
func (r *loanRepository) SumReleased(ctx context.Context, filter LoanFilter) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Scopes(filterLoans(filter, false)).
		Where("status = ?", domain.StatusReleased).
		Select("SUM(amount)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ListReleasedAmounts lists date and amount of released loans matching the
// filter. The status in the filter is ignored.
func (r *loanRepository) ListReleasedAmounts(ctx context.Context, filter LoanFilter) ([]ReleasedAmount, error) {
	var rows []ReleasedAmount
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Scopes(filterLoans(filter, false)).
		Where("status = ?", domain.StatusReleased).
		Select("application_date, amount").
		Order("application_date DESC").
		Scan(&rows).Error
	return rows, err
}

// Count counts all loans
func (r *loanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&count).Error
	return count, err
}

// CountByStatus counts loans grouped by status
func (r *loanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int64, error) {
	var rows []struct {
		Status domain.LoanStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.LoanStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountStaleByStatus counts loans in status last updated before the cutoff
func (r *loanRepository) CountStaleByStatus(ctx context.Context, status domain.LoanStatus, updatedBefore time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status = ? AND updated_at < ?", status, updatedBefore).
		Count(&count).Error
	return count, err
}

// DeleteStaleByStatus deletes loans in status last updated before the
// cutoff, with their history and notes, in one transaction
func (r *loanRepository) DeleteStaleByStatus(ctx context.Context, status domain.LoanStatus, updatedBefore time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Loan{}).
			Where("status = ? AND updated_at < ?", status, updatedBefore).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		n, err := deleteLoans(tx, ids)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	return deleted, err
}

// deleteLoans removes children explicitly so the cascade also holds on
// connections without foreign key enforcement
func deleteLoans(tx *gorm.DB, ids []uint) (int64, error) {
	if err := tx.Where("loan_id IN ?", ids).Delete(&models.StatusHistoryEntry{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("loan_id IN ?", ids).Delete(&models.LoanNote{}).Error; err != nil {
		return 0, err
	}
	result := tx.Where("id IN ?", ids).Delete(&models.Loan{})
	return result.RowsAffected, result.Error
}

// pageLoans orders by application date and applies limit/offset. MySQL has
// no OFFSET without LIMIT, so the offset only applies to a limited page.
func pageLoans(filter LoanFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.SortAscending {
			db = db.Order("application_date ASC, id ASC")
		} else {
			db = db.Order("application_date DESC, id DESC")
		}
		if filter.Limit <= 0 {
			return db
		}
		db = db.Limit(filter.Limit)
		if filter.Offset > 0 {
			db = db.Offset(filter.Offset)
		}
		return db
	}
}

func withLoanRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("CreatedBy").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at DESC, id DESC")
		}).
		Preload("StatusHistory.ChangedBy").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Notes.CreatedBy")
}

// likeEscaper escapes LIKE wildcards; '!' is the escape character because
// backslash means different things to MySQL and SQLite
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func filterLoans(filter LoanFilter, withStatus bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if withStatus && filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
			db = db.Where("LOWER(applicant_name) LIKE ? ESCAPE '!'", pattern)
		}
		if filter.AppliedFrom != nil {
			db = db.Where("application_date >= ?", *filter.AppliedFrom)
		}
		if filter.AppliedBefore != nil {
			db = db.Where("application_date < ?", *filter.AppliedBefore)
		}
		if filter.MaturityFrom != nil {
			db = db.Where("maturity_date >= ?", *filter.MaturityFrom)
		}
		if filter.MaturityBefore != nil {
			db = db.Where("maturity_date < ?", *filter.MaturityBefore)
		}
		return db
	}
}
