package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/sprint"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

func TestSweepCompletesOverdueSprints(t *testing.T) {
	t.Parallel()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "apollo", 6, "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	// A sprint published last month whose window ended a week ago.
	now := time.Now().UTC()
	sp := store.Sprint{
		SprintID:  "s1",
		ProjectID: p.ProjectID,
		Name:      "Overdue",
		StartedAt: now.AddDate(0, -1, 0),
		EndAt:     now.AddDate(0, 0, -7),
		Status:    models.SprintInProgress,
		CreatedAt: now.AddDate(0, -1, 0),
		UpdatedAt: now.AddDate(0, -1, 0),
	}
	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.InsertSprint(ctx, sp)
	})
	if err != nil {
		t.Fatalf("insert sprint: %v", err)
	}

	mgr := sprint.NewManager(s, nil)
	sw := NewSweeper(s, mgr, nil, nil, 0, nil)
	sw.Sweep(ctx)

	got, err := s.GetSprint(ctx, "s1")
	if err != nil {
		t.Fatalf("get sprint: %v", err)
	}
	if got.Status != models.SprintCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}

	// A second pass is a no-op.
	sw.Sweep(ctx)
	got, err = s.GetSprint(ctx, "s1")
	if err != nil {
		t.Fatalf("get sprint: %v", err)
	}
	if got.Status != models.SprintCompleted {
		t.Fatalf("status after second sweep = %s", got.Status)
	}
}

func TestSweepBackfillsReports(t *testing.T) {
	t.Parallel()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "apollo", 6, "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	now := time.Now().UTC()
	sp := store.Sprint{
		SprintID:  "s1",
		ProjectID: p.ProjectID,
		Name:      "Closed without report",
		StartedAt: now.AddDate(0, -1, 0),
		EndAt:     now.AddDate(0, 0, -7),
		Status:    models.SprintClosed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.InsertSprint(ctx, sp)
	})
	if err != nil {
		t.Fatalf("insert sprint: %v", err)
	}

	sw := NewSweeper(s, sprint.NewManager(s, nil), nil, nil, 0, nil)
	sw.Sweep(ctx)

	report, err := s.GetReport(ctx, p.ProjectID, "s1")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if report == nil {
		t.Fatal("report not backfilled")
	}
}
