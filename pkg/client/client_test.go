package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/httpapi"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

func newTestClient(t *testing.T, opts httpapi.Options, clientOpts ...Option) *Client {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	app := httpapi.New(s, opts)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, clientOpts...)
}

func TestClientSprintFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestClient(t, httpapi.Options{})

	project, err := c.CreateProject(ctx, "apollo", 8, "0,1,2,3,4,5,6")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	member, err := c.CreateMember(ctx, project.ProjectID, models.Member{
		Name:           "ada",
		Email:          "ada@example.com",
		CapacityPerDay: 8,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	todo, err := c.CreateStatus(ctx, project.ProjectID, "todo", 0)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	done, err := c.CreateStatus(ctx, project.ProjectID, "done", 1)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}

	start := time.Now().Add(24 * time.Hour)
	sp, err := c.CreateSprint(ctx, project.ProjectID, SprintDefinition{
		Name:      "iteration one",
		Goal:      "ship the thing",
		StartedAt: start,
		EndAt:     start.AddDate(0, 0, 13),
	})
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	if sp.Status != models.SprintDraft {
		t.Fatalf("status = %q, want draft", sp.Status)
	}
	if sp.TotalCapacity != 14*8 {
		t.Fatalf("total capacity = %v, want 112", sp.TotalCapacity)
	}

	detail, err := c.GetSprint(ctx, project.ProjectID, sp.SprintID)
	if err != nil {
		t.Fatalf("get sprint: %v", err)
	}
	if len(detail.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(detail.Columns))
	}

	if _, err := c.PublishSprint(ctx, project.ProjectID, sp.SprintID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	task, err := c.CreateTask(ctx, project.ProjectID, models.Task{
		Name:           "build login",
		AssigneeID:     &member.MemberID,
		StatusID:       todo.StatusID,
		EstimatedHours: 5,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	updated, err := c.AddTask(ctx, project.ProjectID, sp.SprintID, task.TaskID, detail.Columns[0].ColumnID, member.MemberID, false)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if updated.TotalEstimation != 5 {
		t.Fatalf("total estimation = %v, want 5", updated.TotalEstimation)
	}

	logRes, err := c.LogTime(ctx, project.ProjectID, sp.SprintID, task.TaskID, TimeLogEntry{
		MemberID:    member.MemberID,
		LoggedHours: 3,
		StartedAt:   start,
		EndedAt:     start.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("log time: %v", err)
	}
	if logRes.Task.RemainingHours != 2 {
		t.Fatalf("remaining = %v, want 2", logRes.Task.RemainingHours)
	}

	closed, err := c.CloseSprint(ctx, project.ProjectID, sp.SprintID, []string{done.StatusID})
	if err != nil {
		t.Fatalf("close sprint: %v", err)
	}
	if closed.Sprint.Status != models.SprintClosed {
		t.Fatalf("status = %q, want closed", closed.Sprint.Status)
	}
	if len(closed.Report.ReportTasks) != 1 || closed.Report.ReportTasks[0].LoggedHours != 3 {
		t.Fatalf("unexpected report tasks: %+v", closed.Report.ReportTasks)
	}

	report, err := c.Report(ctx, project.ProjectID, sp.SprintID, false, nil)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if report.SprintID != sp.SprintID {
		t.Fatalf("report sprint = %q, want %q", report.SprintID, sp.SprintID)
	}
}

func TestClientAPIErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestClient(t, httpapi.Options{})

	project, err := c.CreateProject(ctx, "hermes", 8, "0,1,2,3,4,5,6")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	_, err = c.CreateSprint(ctx, project.ProjectID, SprintDefinition{
		Goal:      "goal without a name",
		StartedAt: time.Now().Add(24 * time.Hour),
		EndAt:     time.Now().Add(48 * time.Hour),
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Code != models.ValidationMissingName {
		t.Fatalf("got %d %q, want 400 missing_name", apiErr.StatusCode, apiErr.Code)
	}

	_, err = c.Report(ctx, project.ProjectID, "no-such-sprint", false, nil)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Fatalf("report err = %v, want 404 *APIError", err)
	}
}

func TestClientAPIKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	app := httpapi.New(s, httpapi.Options{APIKey: "sesame"})
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	unauthed := New(srv.URL)
	if _, err := unauthed.ListProjects(ctx); err == nil {
		t.Fatal("expected 401 without key")
	}

	authed := New(srv.URL, WithAPIKey("sesame"))
	if _, err := authed.ListProjects(ctx); err != nil {
		t.Fatalf("list with key: %v", err)
	}

	// Health stays open so probes work without credentials.
	if _, err := unauthed.Health(ctx); err != nil {
		t.Fatalf("health without key: %v", err)
	}
}

func TestClientBackfillReports(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newTestClient(t, httpapi.Options{})

	created, err := c.BackfillReports(ctx)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
}
