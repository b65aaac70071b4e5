package sprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// 2024-01-01 is a Monday.
var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	store   store.Store
	mgr     *Manager
	project store.Project
	member  store.Member
	todo    store.Status
	done    store.Status
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	p, err := s.CreateProject(ctx, "apollo", 6, "1,2,3,4,5")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	m, err := s.CreateMember(ctx, p.ProjectID, "ada", "ada@example.com", 6, "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	todo, err := s.CreateStatus(ctx, p.ProjectID, "todo", 0)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	done, err := s.CreateStatus(ctx, p.ProjectID, "done", 1)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}

	return &env{
		store:   s,
		mgr:     NewManager(s, func() time.Time { return testNow }),
		project: p,
		member:  m,
		todo:    todo,
		done:    done,
	}
}

func (e *env) definition(name string) Definition {
	return Definition{
		ProjectID: e.project.ProjectID,
		Name:      name,
		Goal:      "ship it",
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:     time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}
}

func (e *env) createSprint(t *testing.T, name string) *store.Sprint {
	t.Helper()
	sp, err := e.mgr.CreateSprint(context.Background(), e.definition(name))
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	return sp
}

func (e *env) createTask(t *testing.T, name string, assignee *string, estimate float64) store.Task {
	t.Helper()
	task, err := e.store.CreateTask(context.Background(), store.Task{
		ProjectID:      e.project.ProjectID,
		Name:           name,
		AssigneeID:     assignee,
		StatusID:       e.todo.StatusID,
		EstimatedHours: estimate,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (e *env) todoColumn(t *testing.T, sprintID string) string {
	t.Helper()
	columns, err := e.store.ListSprintColumns(context.Background(), sprintID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	for _, c := range columns {
		if c.StatusID == e.todo.StatusID {
			return c.ColumnID
		}
	}
	t.Fatal("todo column missing")
	return ""
}

func TestCreateSprintSnapshotsCapacity(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	sp := e.createSprint(t, "Sprint One")

	// 10 working days Mon-Fri at 6h/day.
	if sp.TotalCapacity != 60 {
		t.Fatalf("total capacity = %v, want 60", sp.TotalCapacity)
	}
	if sp.Status != models.SprintDraft {
		t.Fatalf("status = %s, want draft", sp.Status)
	}

	caps, err := e.store.ListMemberCapacities(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list capacities: %v", err)
	}
	var sum float64
	for _, c := range caps {
		sum += c.CapacityHours
	}
	if sum != sp.TotalCapacity {
		t.Fatalf("capacity snapshot sum %v != total %v", sum, sp.TotalCapacity)
	}

	columns, err := e.store.ListSprintColumns(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("expected a column per status, got %d", len(columns))
	}

	project, err := e.store.GetProject(ctx, e.project.ProjectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.ActiveSprintID == nil || *project.ActiveSprintID != sp.SprintID {
		t.Fatalf("active sprint pointer not set: %+v", project.ActiveSprintID)
	}
}

func TestCreateSprintValidationOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	def := e.definition("Sprint One")
	def.EndAt = def.StartedAt.AddDate(0, 0, -1)
	_, err := e.mgr.CreateSprint(ctx, def)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Kind != models.ValidationEndBeforeStart {
		t.Fatalf("err = %v, want EndBeforeStart validation error", err)
	}

	def = e.definition("Sprint One")
	def.Name = "  "
	_, err = e.mgr.CreateSprint(ctx, def)
	if !errors.As(err, &verr) || verr.Kind != models.ValidationMissingName {
		t.Fatalf("err = %v, want MissingName", err)
	}

	def = e.definition("Sprint One")
	def.StartedAt = time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	_, err = e.mgr.CreateSprint(ctx, def)
	if !errors.As(err, &verr) || verr.Kind != models.ValidationStartInPast {
		t.Fatalf("err = %v, want StartDateInPast", err)
	}

	e.createSprint(t, "Sprint One")
	_, err = e.mgr.CreateSprint(ctx, e.definition("sprint ONE"))
	if !errors.As(err, &verr) || verr.Kind != models.ValidationDuplicateName {
		t.Fatalf("err = %v, want DuplicateName", err)
	}
}

func TestAddTaskRules(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	var rerr *RuleError

	unassigned := e.createTask(t, "orphan", nil, 4)
	_, err := e.mgr.AddTask(ctx, sp.SprintID, unassigned.TaskID, col, e.member.MemberID, false)
	if !errors.As(err, &rerr) || rerr.Code != models.RuleTaskNoAssignee {
		t.Fatalf("err = %v, want taskNoAssignee", err)
	}

	noEstimate := e.createTask(t, "vague", &e.member.MemberID, 0)
	_, err = e.mgr.AddTask(ctx, sp.SprintID, noEstimate.TaskID, col, e.member.MemberID, false)
	if !errors.As(err, &rerr) || rerr.Code != models.RuleTaskNoEstimate {
		t.Fatalf("err = %v, want taskNoEstimate", err)
	}

	task := e.createTask(t, "real", &e.member.MemberID, 4)
	got, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, false)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if got.TotalEstimation != 4 {
		t.Fatalf("total estimation = %v, want 4", got.TotalEstimation)
	}

	_, err = e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, false)
	if !errors.As(err, &rerr) || rerr.Code != models.RuleAlreadyInSprint {
		t.Fatalf("err = %v, want alreadyInSprint", err)
	}
}

func TestAddTaskCapacityExceedAndForce(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	// Single-day sprint: capacity snapshot is 6h/day x 1 working day = 6,
	// so use a member with 8h/day for the classic 5h+4h vs 8h case.
	m8, err := e.store.CreateMember(ctx, e.project.ProjectID, "lin", "", 8, "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	def := e.definition("Tight Sprint")
	def.StartedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	def.EndAt = def.StartedAt
	def.MemberIDs = []string{m8.MemberID}
	sp, err := e.mgr.CreateSprint(ctx, def)
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	if sp.TotalCapacity != 8 {
		t.Fatalf("total capacity = %v, want 8", sp.TotalCapacity)
	}
	col := e.todoColumn(t, sp.SprintID)

	first := e.createTask(t, "first", &m8.MemberID, 5)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, first.TaskID, col, m8.MemberID, false); err != nil {
		t.Fatalf("add first: %v", err)
	}

	second := e.createTask(t, "second", &m8.MemberID, 4)
	_, err = e.mgr.AddTask(ctx, sp.SprintID, second.TaskID, col, m8.MemberID, false)
	var rerr *RuleError
	if !errors.As(err, &rerr) || rerr.Code != models.RuleMemberCapacityExceed {
		t.Fatalf("err = %v, want memberCapacityExceed", err)
	}

	got, err := e.mgr.AddTask(ctx, sp.SprintID, second.TaskID, col, m8.MemberID, true)
	if err != nil {
		t.Fatalf("force add: %v", err)
	}
	if got.TotalEstimation != 9 {
		t.Fatalf("total estimation = %v, want 9", got.TotalEstimation)
	}
}

func assertDenseColumns(t *testing.T, links []store.SprintTask) {
	t.Helper()
	perColumn := make(map[string][]int)
	for _, l := range links {
		perColumn[l.ColumnID] = append(perColumn[l.ColumnID], l.Sequence)
	}
	for col, seqs := range perColumn {
		seen := make(map[int]bool, len(seqs))
		for _, s := range seqs {
			seen[s] = true
		}
		for i := 0; i < len(seqs); i++ {
			if !seen[i] {
				t.Fatalf("column %s sequences not dense: %v", col, seqs)
			}
		}
	}
}

func TestMoveTaskKeepsSequencesDense(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	todoCol := e.todoColumn(t, sp.SprintID)

	columns, err := e.store.ListSprintColumns(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	var doneCol string
	for _, c := range columns {
		if c.StatusID == e.done.StatusID {
			doneCol = c.ColumnID
		}
	}

	var tasks []store.Task
	for _, name := range []string{"a", "b", "c"} {
		task := e.createTask(t, name, &e.member.MemberID, 2)
		if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, todoCol, e.member.MemberID, true); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		tasks = append(tasks, task)
	}

	// b moves to done, then a moves ahead of c within todo, then b back.
	moves := []struct {
		task     string
		from, to string
		seq      int
	}{
		{tasks[1].TaskID, todoCol, doneCol, 0},
		{tasks[0].TaskID, todoCol, todoCol, 1},
		{tasks[1].TaskID, doneCol, todoCol, 0},
	}
	for _, mv := range moves {
		if _, err := e.mgr.MoveTask(ctx, sp.SprintID, mv.task, mv.from, mv.to, mv.seq, e.member.MemberID); err != nil {
			t.Fatalf("move %s: %v", mv.task, err)
		}
		links, err := e.store.ListSprintTasks(ctx, sp.SprintID)
		if err != nil {
			t.Fatalf("list links: %v", err)
		}
		assertDenseColumns(t, links)
	}

	// Final order in todo: b, c, a.
	links, err := e.store.ListSprintTasks(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	order := make(map[int]string)
	for _, l := range links {
		if l.ColumnID != todoCol {
			t.Fatalf("task %s left outside todo", l.TaskID)
		}
		order[l.Sequence] = l.TaskID
	}
	if order[0] != tasks[1].TaskID || order[1] != tasks[2].TaskID || order[2] != tasks[0].TaskID {
		t.Fatalf("unexpected final order: %v", order)
	}

	moved, err := e.store.ListSprintTasks(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	for _, l := range moved {
		if l.TaskID == tasks[1].TaskID && l.MovedAt == nil {
			t.Fatal("moved_at not recorded")
		}
	}
}

func TestLogTimeOverLogging(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	task := e.createTask(t, "work", &e.member.MemberID, 8)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); err != nil {
		t.Fatalf("add task: %v", err)
	}

	res, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, TimeLogEntry{MemberID: e.member.MemberID, LoggedHours: 5})
	if err != nil {
		t.Fatalf("log time: %v", err)
	}
	if res.Task.LoggedHours != 5 || res.Task.RemainingHours != 3 || res.Task.OverLoggedHours != 0 {
		t.Fatalf("after 5h: %+v", res.Task)
	}
	if res.Sprint.TotalLogged != 5 {
		t.Fatalf("sprint total logged = %v, want 5", res.Sprint.TotalLogged)
	}

	// 5 + 6 = 11 against an 8h estimate: remaining 0, excess 3.
	res, err = e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, TimeLogEntry{MemberID: e.member.MemberID, LoggedHours: 6})
	if err != nil {
		t.Fatalf("log time: %v", err)
	}
	if res.Task.RemainingHours != 0 {
		t.Fatalf("remaining = %v, want 0", res.Task.RemainingHours)
	}
	if res.Task.OverLoggedHours != 3 {
		t.Fatalf("over logged = %v, want 3", res.Task.OverLoggedHours)
	}
	if res.Sprint.TotalLogged != 11 || res.Sprint.TotalOverLogged != 3 {
		t.Fatalf("sprint totals = %v logged / %v over, want 11 / 3", res.Sprint.TotalLogged, res.Sprint.TotalOverLogged)
	}
}

func TestLogTimeIdempotentReplay(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	task := e.createTask(t, "work", &e.member.MemberID, 8)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); err != nil {
		t.Fatalf("add task: %v", err)
	}

	entry := TimeLogEntry{EntryID: "retry-key-1", MemberID: e.member.MemberID, LoggedHours: 3}
	if _, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, entry); err != nil {
		t.Fatalf("log time: %v", err)
	}
	res, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, entry)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Task.LoggedHours != 3 || res.Sprint.TotalLogged != 3 {
		t.Fatalf("replay double-applied: task %v, sprint %v", res.Task.LoggedHours, res.Sprint.TotalLogged)
	}
}

func TestDeleteTimeLogReversesAggregates(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	task := e.createTask(t, "work", &e.member.MemberID, 8)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); err != nil {
		t.Fatalf("add task: %v", err)
	}

	entry := TimeLogEntry{EntryID: "log-a", MemberID: e.member.MemberID, LoggedHours: 10}
	if _, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, entry); err != nil {
		t.Fatalf("log time: %v", err)
	}

	res, err := e.mgr.DeleteTimeLog(ctx, sp.SprintID, "log-a")
	if err != nil {
		t.Fatalf("delete time log: %v", err)
	}
	if res.Task.LoggedHours != 0 || res.Task.RemainingHours != 8 || res.Task.OverLoggedHours != 0 {
		t.Fatalf("aggregates not reversed: %+v", res.Task)
	}
	if res.Sprint.TotalLogged != 0 || res.Sprint.TotalOverLogged != 0 {
		t.Fatalf("sprint totals not reversed: %+v", res.Sprint)
	}

	var nferr *NotFoundError
	if _, err := e.mgr.DeleteTimeLog(ctx, sp.SprintID, "log-a"); !errors.As(err, &nferr) {
		t.Fatalf("second delete = %v, want NotFoundError", err)
	}
}

func TestPublishAndCompleteGuards(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")

	var serr *StateError
	if _, err := e.mgr.CompleteSprint(ctx, sp.SprintID); !errors.As(err, &serr) {
		t.Fatalf("complete draft = %v, want StateError", err)
	}

	got, err := e.mgr.PublishSprint(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.Status != models.SprintInProgress {
		t.Fatalf("status = %s, want in_progress", got.Status)
	}
	if _, err := e.mgr.PublishSprint(ctx, sp.SprintID); !errors.As(err, &serr) {
		t.Fatalf("double publish = %v, want StateError", err)
	}

	got, err = e.mgr.CompleteSprint(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != models.SprintCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
}

func TestCloseSprintTwice(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	task := e.createTask(t, "work", &e.member.MemberID, 8)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, TimeLogEntry{MemberID: e.member.MemberID, LoggedHours: 2}); err != nil {
		t.Fatalf("log time: %v", err)
	}

	res, err := e.mgr.CloseSprint(ctx, sp.SprintID, []string{e.done.StatusID})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Sprint.Status != models.SprintClosed {
		t.Fatalf("status = %s, want closed", res.Sprint.Status)
	}
	if len(res.Report.ReportTasks) != 1 || res.Report.ReportTasks[0].LoggedHours != 2 {
		t.Fatalf("unexpected report tasks: %+v", res.Report.ReportTasks)
	}
	if len(res.Report.ReportMembers) != 1 || res.Report.ReportMembers[0].TotalLoggedHours != 2 {
		t.Fatalf("unexpected report members: %+v", res.Report.ReportMembers)
	}

	var serr *StateError
	if _, err := e.mgr.CloseSprint(ctx, sp.SprintID, nil); !errors.As(err, &serr) {
		t.Fatalf("second close = %v, want StateError", err)
	}

	report, err := e.mgr.Report(ctx, e.project.ProjectID, sp.SprintID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if report.SprintID != sp.SprintID {
		t.Fatalf("report sprint = %s", report.SprintID)
	}

	// Mutations on a closed sprint are all rejected.
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); !errors.As(err, &serr) {
		t.Fatalf("add to closed = %v, want StateError", err)
	}
	if _, err := e.mgr.LogTime(ctx, sp.SprintID, task.TaskID, TimeLogEntry{LoggedHours: 1}); !errors.As(err, &serr) {
		t.Fatalf("log on closed = %v, want StateError", err)
	}

	project, err := e.store.GetProject(ctx, e.project.ProjectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.ActiveSprintID != nil {
		t.Fatal("active sprint pointer not cleared on close")
	}
}

func TestPreviewReportDoesNotPersist(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")

	preview, err := e.mgr.PreviewReport(ctx, sp.SprintID, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.SprintID != sp.SprintID {
		t.Fatalf("preview sprint = %s", preview.SprintID)
	}

	var nferr *NotFoundError
	if _, err := e.mgr.Report(ctx, e.project.ProjectID, sp.SprintID); !errors.As(err, &nferr) {
		t.Fatalf("report after preview = %v, want NotFoundError", err)
	}
}

func TestCreateMissingReportsIdempotent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	// Simulate a crash mid-closure: sprint closed, no report row.
	sp := e.createSprint(t, "Sprint One")
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.UpdateSprintStatus(ctx, sp.SprintID, models.SprintClosed, testNow)
	})
	if err != nil {
		t.Fatalf("force close: %v", err)
	}

	count, err := e.mgr.CreateMissingReports(ctx)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if count != 1 {
		t.Fatalf("backfill count = %d, want 1", count)
	}
	count, err = e.mgr.CreateMissingReports(ctx)
	if err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	if count != 0 {
		t.Fatalf("second backfill count = %d, want 0", count)
	}
}

func TestRemoveTaskReversesEstimation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	a := e.createTask(t, "a", &e.member.MemberID, 3)
	b := e.createTask(t, "b", &e.member.MemberID, 5)
	for _, task := range []store.Task{a, b} {
		if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, true); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := e.mgr.RemoveTask(ctx, sp.SprintID, a.TaskID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.TotalEstimation != 5 {
		t.Fatalf("total estimation = %v, want 5", got.TotalEstimation)
	}

	links, err := e.store.ListSprintTasks(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 || links[0].Sequence != 0 {
		t.Fatalf("column not resequenced: %+v", links)
	}

	task, err := e.store.GetTask(ctx, a.TaskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.SprintID != nil {
		t.Fatal("task sprint pointer not cleared")
	}
}

func TestCloseSprintReleasesTasksForNextSprint(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	first := e.createSprint(t, "Sprint One")
	task := e.createTask(t, "carryover", &e.member.MemberID, 4)
	if _, err := e.mgr.AddTask(ctx, first.SprintID, task.TaskID, e.todoColumn(t, first.SprintID), e.member.MemberID, false); err != nil {
		t.Fatalf("add to first sprint: %v", err)
	}

	if _, err := e.mgr.CloseSprint(ctx, first.SprintID, nil); err != nil {
		t.Fatalf("close first sprint: %v", err)
	}

	got, err := e.store.GetTask(ctx, task.TaskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.SprintID != nil {
		t.Fatalf("task sprint pointer = %v, want cleared on close", *got.SprintID)
	}

	// Board links stay behind for the report.
	links, err := e.store.ListSprintTasks(ctx, first.SprintID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("closed sprint links = %d, want 1", len(links))
	}

	second := e.createSprint(t, "Sprint Two")
	updated, err := e.mgr.AddTask(ctx, second.SprintID, task.TaskID, e.todoColumn(t, second.SprintID), e.member.MemberID, false)
	if err != nil {
		t.Fatalf("add to second sprint: %v", err)
	}
	if updated.TotalEstimation != 4 {
		t.Fatalf("second sprint estimation = %v, want 4", updated.TotalEstimation)
	}
}

func TestMoveTaskRejectsUnknownColumn(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")
	col := e.todoColumn(t, sp.SprintID)

	task := e.createTask(t, "work", &e.member.MemberID, 2)
	if _, err := e.mgr.AddTask(ctx, sp.SprintID, task.TaskID, col, e.member.MemberID, false); err != nil {
		t.Fatalf("add: %v", err)
	}

	var nferr *NotFoundError
	_, err := e.mgr.MoveTask(ctx, sp.SprintID, task.TaskID, col, "no-such-column", 0, e.member.MemberID)
	if !errors.As(err, &nferr) || nferr.Entity != "column" {
		t.Fatalf("move to unknown column = %v, want column NotFoundError", err)
	}
	_, err = e.mgr.MoveTask(ctx, sp.SprintID, task.TaskID, "no-such-column", col, 0, e.member.MemberID)
	if !errors.As(err, &nferr) || nferr.Entity != "column" {
		t.Fatalf("move from unknown column = %v, want column NotFoundError", err)
	}

	links, err := e.store.ListSprintTasks(ctx, sp.SprintID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 || links[0].ColumnID != col {
		t.Fatalf("link moved despite rejection: %+v", links)
	}
}

func TestCloseSprintDropsLockEntry(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	sp := e.createSprint(t, "Sprint One")

	if _, err := e.mgr.PublishSprint(ctx, sp.SprintID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := e.mgr.CloseSprint(ctx, sp.SprintID, nil); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, ok := e.mgr.locks.Load(sp.SprintID); ok {
		t.Fatal("lock entry kept for closed sprint")
	}
}

func TestCreateSprintUnknownProject(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	def := e.definition("Sprint One")
	def.ProjectID = "no-such-project"

	var nferr *NotFoundError
	_, err := e.mgr.CreateSprint(context.Background(), def)
	if !errors.As(err, &nferr) || nferr.Entity != "project" {
		t.Fatalf("err = %v, want project NotFoundError", err)
	}
}
