package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/pkg/metrics"
)

// MaintenanceService runs storage housekeeping: retention cleanup of
// terminal loans and expired session purging
type MaintenanceService struct {
	loanRepo    repositories.LoanRepository
	sessionRepo repositories.SessionRepository
	retention   config.RetentionConfig
	clock       clock.Clock
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	loanRepo repositories.LoanRepository,
	sessionRepo repositories.SessionRepository,
	retention config.RetentionConfig,
	clk clock.Clock,
) *MaintenanceService {
	return &MaintenanceService{
		loanRepo:    loanRepo,
		sessionRepo: sessionRepo,
		retention:   retention,
		clock:       clk,
	}
}

// StorageStats represents storage statistics
type StorageStats struct {
	TotalLoans         int64                       `json:"total_loans"`
	ByStatus           map[domain.LoanStatus]int64 `json:"by_status"`
	EligibleForCleanup int64                       `json:"eligible_for_cleanup"`
	ReleasedCutoff     time.Time                   `json:"released_cutoff"`
	CancelledCutoff    time.Time                   `json:"cancelled_cutoff"`
}

// CleanupResult represents the outcome of a retention cleanup
type CleanupResult struct {
	DeletedReleased  int64 `json:"deleted_released_count"`
	DeletedCancelled int64 `json:"deleted_cancelled_count"`
}

// cutoffs returns the last-updated thresholds for released and cancelled
// loans; loans updated strictly before them are eligible
func (s *MaintenanceService) cutoffs() (time.Time, time.Time) {
	now := s.clock.Now()
	return now.Add(-s.retention.ReleasedPeriod()), now.Add(-s.retention.CancelledPeriod())
}

// StorageStats returns loan counts and how many loans cleanup would remove
func (s *MaintenanceService) StorageStats(ctx context.Context) (*StorageStats, error) {
	total, err := s.loanRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.loanRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	releasedCutoff, cancelledCutoff := s.cutoffs()

	released, err := s.loanRepo.CountStaleByStatus(ctx, domain.StatusReleased, releasedCutoff)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.loanRepo.CountStaleByStatus(ctx, domain.StatusCancelled, cancelledCutoff)
	if err != nil {
		return nil, err
	}

	return &StorageStats{
		TotalLoans:         total,
		ByStatus:           byStatus,
		EligibleForCleanup: released + cancelled,
		ReleasedCutoff:     releasedCutoff,
		CancelledCutoff:    cancelledCutoff,
	}, nil
}

// Cleanup deletes released and cancelled loans past their retention period.
// The two deletes commit independently; on error the counts deleted so far
// are returned with it.
func (s *MaintenanceService) Cleanup(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{}
	releasedCutoff, cancelledCutoff := s.cutoffs()

	released, err := s.loanRepo.DeleteStaleByStatus(ctx, domain.StatusReleased, releasedCutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup released loans: %w", err)
	}
	result.DeletedReleased = released
	metrics.LoansDeleted.WithLabelValues("retention").Add(float64(released))

	cancelled, err := s.loanRepo.DeleteStaleByStatus(ctx, domain.StatusCancelled, cancelledCutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup cancelled loans: %w", err)
	}
	result.DeletedCancelled = cancelled
	metrics.LoansDeleted.WithLabelValues("retention").Add(float64(cancelled))

	slog.Info("🧹 Retention cleanup finished",
		"released", result.DeletedReleased,
		"cancelled", result.DeletedCancelled,
	)
	return result, nil
}

// CleanupExpiredSessions deletes sessions whose expiry has passed
func (s *MaintenanceService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	metrics.SessionsDeleted.Add(float64(n))
	if n > 0 {
		slog.Info("🧹 Expired sessions purged", "count", n)
	}
	return n, nil
}
