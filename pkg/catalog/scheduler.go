package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic catalog sync passes on a cron schedule.
type Scheduler struct {
	ingester *Ingester
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for periodic catalog syncs.
//
// Common schedules:
//   - "0 */6 * * *" - every six hours
//   - "0 3 * * *"   - daily at 3 AM
func NewScheduler(ingester *Ingester, schedule string) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "catalog.scheduler"),
	}
}

// Start begins scheduled syncing. An empty schedule makes Start a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("catalog sync schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule catalog sync: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("catalog scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSync executes one scheduled sync pass.
func (s *Scheduler) runSync(ctx context.Context) {
	s.logger.Info("starting scheduled catalog sync")

	report := s.ingester.SyncAll(ctx)
	for _, r := range report.Reports {
		if r.Err != nil {
			s.logger.Error("scheduled sync failed for provider",
				"provider", r.Provider,
				"error", r.Err,
			)
		}
	}
	s.logger.Info("scheduled catalog sync completed",
		"providers", len(report.Reports),
		"failed", report.Failed(),
	)
}

// Stop stops the scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("catalog scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
