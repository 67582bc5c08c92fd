package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one scheduled session purge
const sweepTimeout = time.Minute

// CronService runs scheduled housekeeping. Only the expired-session sweep is
// scheduled; loan retention cleanup stays an admin action.
type CronService struct {
	cron        *cron.Cron
	maintenance *MaintenanceService
	schedule    string
}

// NewCronService creates a new cron service for the given schedule spec
// (standard five-field cron or a descriptor such as @hourly)
func NewCronService(maintenance *MaintenanceService, schedule string) *CronService {
	return &CronService{
		cron:        cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		maintenance: maintenance,
		schedule:    schedule,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweepExpiredSessions); err != nil {
		return fmt.Errorf("invalid session sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	slog.Info("🚀 CronService started", "session_sweep", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("🛑 CronService stopped")
}

func (s *CronService) sweepExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.maintenance.CleanupExpiredSessions(ctx); err != nil {
		slog.Error("❌ Session sweep failed", "error", err)
	}
}
