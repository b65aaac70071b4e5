// Package daemon runs the background sweeper: it completes in-progress
// sprints whose end date has passed and backfills missing reports for
// closed sprints.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/httpapi"
	"github.com/MeenalAppSphere/sprintd/internal/sprint"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// Sweeper periodically reconciles sprint state with the clock.
type Sweeper struct {
	store    store.Store
	mgr      *sprint.Manager
	hub      *httpapi.Hub
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewSweeper builds a sweeper. hub may be nil; interval <= 0 uses the
// default. now is the clock, nil means time.Now.
func NewSweeper(st store.Store, mgr *sprint.Manager, hub *httpapi.Hub, log *slog.Logger, interval time.Duration, now func() time.Time) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = models.DefaultSweepIntervalSec * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: st, mgr: mgr, hub: hub, log: log, interval: interval, now: now}
}

// Run sweeps on a ticker until ctx is done. Errors are logged, never fatal.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	overdue, err := s.store.ListOverdueSprints(ctx, s.now())
	if err != nil {
		s.log.Error("list overdue sprints failed", "err", err)
	}
	for _, sp := range overdue {
		completed, err := s.mgr.CompleteSprint(ctx, sp.SprintID)
		if err != nil {
			s.log.Error("auto-complete failed", "sprint_id", sp.SprintID, "err", err)
			continue
		}
		s.log.Info("sprint auto-completed", "sprint_id", sp.SprintID, "name", sp.Name)
		if s.hub != nil {
			s.hub.Publish(httpapi.EventSprintUpdate, completed)
		}
	}

	count, err := s.mgr.CreateMissingReports(ctx)
	if err != nil {
		s.log.Error("report backfill failed", "err", err)
		return
	}
	if count > 0 {
		s.log.Info("backfilled sprint reports", "count", count)
	}
}
