// Package sprint implements the sprint lifecycle: validation, capacity
// snapshots, task assignment, time logging with transactional aggregate
// maintenance, and closed-sprint report snapshots.
package sprint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MeenalAppSphere/sprintd/internal/capacity"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// Manager orchestrates sprint lifecycle transitions. Every mutation runs in
// a single store transaction; a per-sprint mutex serializes the
// check-then-act sections (capacity checks, sequence assignment) so
// concurrent calls for the same sprint cannot race on totals or sequences.
type Manager struct {
	store store.Store
	now   func() time.Time

	locks sync.Map // sprintID -> *sync.Mutex
}

// NewManager returns a Manager over the given store. now is the clock used
// for validation and timestamps; nil means time.Now.
func NewManager(st store.Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: st, now: now}
}

func (m *Manager) lock(sprintID string) func() {
	v, _ := m.locks.LoadOrStore(sprintID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// TimeLogEntry is a client-submitted time log. EntryID is optional; when
// set it acts as an idempotency key so a retried request is a no-op replay.
type TimeLogEntry struct {
	EntryID     string    `json:"entry_id,omitempty"`
	MemberID    string    `json:"member_id"`
	Description string    `json:"description,omitempty"`
	LoggedHours float64   `json:"logged_hours"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// LogTimeResult carries the post-log task and sprint rows.
type LogTimeResult struct {
	Task   store.Task   `json:"task"`
	Sprint store.Sprint `json:"sprint"`
}

// CloseResult carries the closed sprint and its committed report.
type CloseResult struct {
	Sprint store.Sprint       `json:"sprint"`
	Report store.SprintReport `json:"report"`
}

// CreateSprint validates the definition, snapshots member capacities,
// builds one board column per project status, and persists everything plus
// the project's active-sprint pointer in one transaction.
func (m *Manager) CreateSprint(ctx context.Context, def Definition) (*store.Sprint, error) {
	now := m.now().UTC()
	if err := Validate(ctx, m.store, def, m.now()); err != nil {
		return nil, err
	}

	project, err := m.store.GetProject(ctx, def.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "project", ID: def.ProjectID}
		}
		return nil, &TxError{Err: err}
	}

	members, err := m.store.ListMembers(ctx, def.ProjectID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if len(def.MemberIDs) > 0 {
		invited := make(map[string]bool, len(def.MemberIDs))
		for _, id := range def.MemberIDs {
			invited[id] = true
		}
		kept := members[:0]
		for _, mem := range members {
			if invited[mem.MemberID] {
				kept = append(kept, mem)
			}
		}
		members = kept
	}

	projectDays := capacity.ParseWeekdays(project.WorkingDays)
	var caps []store.MemberCapacity
	var totalCapacity float64
	for _, mem := range members {
		perDay := mem.CapacityPerDay
		if perDay == 0 {
			perDay = project.DefaultCapacityPerDay
		}
		days := capacity.ResolveSchedule(capacity.ParseWeekdays(mem.WorkingDays), projectDays)
		hours, err := capacity.MemberHours(perDay, days, def.StartedAt, def.EndAt)
		if err != nil {
			return nil, fmt.Errorf("capacity for member %s: %w", mem.MemberID, err)
		}
		caps = append(caps, store.MemberCapacity{
			MemberID:       mem.MemberID,
			CapacityHours:  hours,
			CapacityPerDay: perDay,
		})
		totalCapacity += hours
	}

	statuses, err := m.store.ListStatuses(ctx, def.ProjectID)
	if err != nil {
		return nil, &TxError{Err: err}
	}

	sp := store.Sprint{
		SprintID:      uuid.NewString(),
		ProjectID:     def.ProjectID,
		Name:          def.Name,
		Goal:          def.Goal,
		StartedAt:     def.StartedAt.UTC(),
		EndAt:         def.EndAt.UTC(),
		Status:        models.SprintDraft,
		TotalCapacity: totalCapacity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertSprint(ctx, sp); err != nil {
			return err
		}
		for _, mc := range caps {
			mc.SprintID = sp.SprintID
			if err := tx.InsertMemberCapacity(ctx, mc); err != nil {
				return err
			}
		}
		for i, st := range statuses {
			col := store.SprintColumn{
				SprintID: sp.SprintID,
				ColumnID: uuid.NewString(),
				StatusID: st.StatusID,
				Name:     st.Name,
				Position: i,
			}
			if err := tx.InsertSprintColumn(ctx, col); err != nil {
				return err
			}
		}
		id := sp.SprintID
		return tx.SetProjectActiveSprint(ctx, def.ProjectID, &id)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sp.SprintID)
}

// PublishSprint moves a draft sprint to in_progress.
func (m *Manager) PublishSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status != models.SprintDraft {
		return nil, &StateError{Op: "publish sprint", Status: sp.Status}
	}
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.UpdateSprintStatus(ctx, sprintID, models.SprintInProgress, m.now().UTC())
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sprintID)
}

// CompleteSprint moves an in_progress sprint to completed. Completed
// sprints still accept time log corrections; only close is terminal.
func (m *Manager) CompleteSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status != models.SprintInProgress {
		return nil, &StateError{Op: "complete sprint", Status: sp.Status}
	}
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.UpdateSprintStatus(ctx, sprintID, models.SprintCompleted, m.now().UTC())
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sprintID)
}

// AddTask links a task into a sprint column. It rejects tasks without an
// assignee or estimate, tasks already linked to a sprint, and additions
// that would push the assignee past their capacity snapshot unless force
// is set. Totals are recomputed inside the transaction.
func (m *Manager) AddTask(ctx context.Context, sprintID, taskID, columnID, actorID string, force bool) (*store.Sprint, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "add task", Status: sp.Status}
	}

	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if task == nil {
		return nil, &NotFoundError{Entity: "task", ID: taskID}
	}
	if task.AssigneeID == nil || *task.AssigneeID == "" {
		return nil, &RuleError{Code: models.RuleTaskNoAssignee, Message: "task has no assignee"}
	}
	if task.EstimatedHours <= 0 {
		return nil, &RuleError{Code: models.RuleTaskNoEstimate, Message: "task has no estimate"}
	}
	if task.SprintID != nil {
		return nil, &RuleError{Code: models.RuleAlreadyInSprint,
			Message: fmt.Sprintf("task is already in sprint %s", *task.SprintID)}
	}

	columns, err := m.store.ListSprintColumns(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	var column *store.SprintColumn
	for i := range columns {
		if columns[i].ColumnID == columnID {
			column = &columns[i]
			break
		}
	}
	if column == nil {
		return nil, &NotFoundError{Entity: "column", ID: columnID}
	}

	tasks, err := m.store.ListTasksBySprint(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}

	if !force {
		if err := m.checkCapacity(ctx, sprintID, *task.AssigneeID, task.EstimatedHours, tasks); err != nil {
			return nil, err
		}
	}

	links, err := m.store.ListSprintTasks(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	sequence := 0
	for _, l := range links {
		if l.ColumnID == columnID {
			sequence++
		}
	}

	totalEstimation := task.EstimatedHours
	for _, t := range tasks {
		totalEstimation += t.EstimatedHours
	}

	now := m.now().UTC()
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		entry := store.SprintTask{
			SprintID:  sprintID,
			TaskID:    taskID,
			ColumnID:  columnID,
			Sequence:  sequence,
			AddedByID: actorID,
			AddedAt:   now,
		}
		if err := tx.InsertSprintTask(ctx, entry); err != nil {
			return err
		}
		id := sprintID
		if err := tx.SetTaskSprint(ctx, taskID, &id, now); err != nil {
			return err
		}
		return tx.UpdateSprintTotals(ctx, sprintID, totalEstimation, sp.TotalLogged, sp.TotalOverLogged, now)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sprintID)
}

// checkCapacity compares the assignee's committed estimates plus the
// incoming one against their capacity snapshot. Members without a snapshot
// entry are unchecked.
func (m *Manager) checkCapacity(ctx context.Context, sprintID, assigneeID string, estimate float64, sprintTasks []store.Task) error {
	caps, err := m.store.ListMemberCapacities(ctx, sprintID)
	if err != nil {
		return &TxError{Err: err}
	}
	var snapshot *store.MemberCapacity
	for i := range caps {
		if caps[i].MemberID == assigneeID {
			snapshot = &caps[i]
			break
		}
	}
	if snapshot == nil {
		return nil
	}
	committed := estimate
	for _, t := range sprintTasks {
		if t.AssigneeID != nil && *t.AssigneeID == assigneeID {
			committed += t.EstimatedHours
		}
	}
	if committed > snapshot.CapacityHours {
		return &RuleError{
			Code: models.RuleMemberCapacityExceed,
			Message: fmt.Sprintf("assignee committed %.1fh exceeds capacity %.1fh",
				committed, snapshot.CapacityHours),
		}
	}
	return nil
}

// RemoveTask unlinks a task, re-sequences its column, recomputes the
// sprint's total estimation, and clears the task's sprint pointer.
func (m *Manager) RemoveTask(ctx context.Context, sprintID, taskID string) (*store.Sprint, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "remove task", Status: sp.Status}
	}

	links, err := m.store.ListSprintTasks(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	var removed *store.SprintTask
	for i := range links {
		if links[i].TaskID == taskID {
			removed = &links[i]
			break
		}
	}
	if removed == nil {
		return nil, &NotFoundError{Entity: "sprint task", ID: taskID}
	}

	tasks, err := m.store.ListTasksBySprint(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	var totalEstimation float64
	for _, t := range tasks {
		if t.TaskID != taskID {
			totalEstimation += t.EstimatedHours
		}
	}

	// Remaining tasks in the removed task's column, in stored order.
	var column []store.SprintTask
	for _, l := range links {
		if l.ColumnID == removed.ColumnID && l.TaskID != taskID {
			column = append(column, l)
		}
	}

	now := m.now().UTC()
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.DeleteSprintTask(ctx, sprintID, taskID); err != nil {
			return err
		}
		for i, l := range column {
			if l.Sequence == i {
				continue
			}
			if err := tx.UpdateSprintTaskPlacement(ctx, sprintID, l.TaskID, l.ColumnID, i); err != nil {
				return err
			}
		}
		if err := tx.SetTaskSprint(ctx, taskID, nil, now); err != nil {
			return err
		}
		return tx.UpdateSprintTotals(ctx, sprintID, totalEstimation, sp.TotalLogged, sp.TotalOverLogged, now)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sprintID)
}

// MoveTask reassigns a task to a column position and re-sequences both
// affected columns so sequence numbers stay dense with stable relative
// order for untouched tasks.
func (m *Manager) MoveTask(ctx context.Context, sprintID, taskID, fromColumn, toColumn string, newSequence int, actorID string) (*store.Sprint, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "move task", Status: sp.Status}
	}

	columns, err := m.store.ListSprintColumns(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.ColumnID] = true
	}
	if !known[fromColumn] {
		return nil, &NotFoundError{Entity: "column", ID: fromColumn}
	}
	if !known[toColumn] {
		return nil, &NotFoundError{Entity: "column", ID: toColumn}
	}

	links, err := m.store.ListSprintTasks(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}

	var moved *store.SprintTask
	var source, target []store.SprintTask
	for i := range links {
		l := links[i]
		switch {
		case l.TaskID == taskID:
			if l.ColumnID != fromColumn {
				return nil, &NotFoundError{Entity: "sprint task in column " + fromColumn, ID: taskID}
			}
			moved = &links[i]
		case l.ColumnID == fromColumn:
			source = append(source, l)
		case l.ColumnID == toColumn:
			target = append(target, l)
		}
	}
	if moved == nil {
		return nil, &NotFoundError{Entity: "sprint task", ID: taskID}
	}
	if fromColumn == toColumn {
		target = source
		source = nil
	}

	if newSequence < 0 {
		newSequence = 0
	}
	if newSequence > len(target) {
		newSequence = len(target)
	}
	entry := *moved
	entry.ColumnID = toColumn
	target = append(target, store.SprintTask{})
	copy(target[newSequence+1:], target[newSequence:])
	target[newSequence] = entry

	now := m.now().UTC()
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		for i, l := range source {
			if err := tx.UpdateSprintTaskPlacement(ctx, sprintID, l.TaskID, fromColumn, i); err != nil {
				return err
			}
		}
		for i, l := range target {
			if err := tx.UpdateSprintTaskPlacement(ctx, sprintID, l.TaskID, toColumn, i); err != nil {
				return err
			}
		}
		return tx.SetSprintTaskMoved(ctx, sprintID, taskID, actorID, now)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}
	return m.mustGetSprint(ctx, sprintID)
}

// LogTime appends a time log against a sprint task and applies the deltas
// to the task's logged/remaining/over-logged hours and the sprint totals in
// the same transaction. A replayed EntryID returns the current rows
// without inserting again.
func (m *Manager) LogTime(ctx context.Context, sprintID, taskID string, entry TimeLogEntry) (*LogTimeResult, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "log time", Status: sp.Status}
	}
	if entry.LoggedHours <= 0 || math.IsNaN(entry.LoggedHours) || math.IsInf(entry.LoggedHours, 0) {
		return nil, fmt.Errorf("%w: logged hours %v", capacity.ErrInvalidDuration, entry.LoggedHours)
	}

	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if task == nil {
		return nil, &NotFoundError{Entity: "task", ID: taskID}
	}
	if task.SprintID == nil || *task.SprintID != sprintID {
		return nil, &NotFoundError{Entity: "sprint task", ID: taskID}
	}

	if entry.EntryID != "" {
		existing, err := m.store.GetTimeLog(ctx, entry.EntryID)
		if err != nil {
			return nil, &TxError{Err: err}
		}
		if existing != nil {
			return &LogTimeResult{Task: *task, Sprint: *sp}, nil
		}
	}

	logged := task.LoggedHours + entry.LoggedHours
	remaining := task.EstimatedHours - logged
	if remaining < 0 {
		remaining = 0
	}
	over := logged - task.EstimatedHours
	if over < 0 {
		over = 0
	}
	overDelta := over - task.OverLoggedHours

	logID := entry.EntryID
	if logID == "" {
		logID = uuid.NewString()
	}
	now := m.now().UTC()
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	endedAt := entry.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		tl := store.TimeLog{
			LogID:          logID,
			TaskID:         taskID,
			SprintID:       sprintID,
			MemberID:       entry.MemberID,
			Description:    entry.Description,
			LoggedHours:    entry.LoggedHours,
			RemainingAtLog: remaining,
			StartedAt:      startedAt,
			EndedAt:        endedAt,
			CreatedAt:      now,
		}
		if err := tx.InsertTimeLog(ctx, tl); err != nil {
			return err
		}
		if err := tx.UpdateTaskHours(ctx, taskID, logged, remaining, over, now); err != nil {
			return err
		}
		return tx.UpdateSprintTotals(ctx, sprintID, sp.TotalEstimation,
			sp.TotalLogged+entry.LoggedHours, sp.TotalOverLogged+overDelta, now)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}

	task, err = m.store.GetTask(ctx, taskID)
	if err != nil || task == nil {
		return nil, &TxError{Err: fmt.Errorf("reload task %s: %v", taskID, err)}
	}
	sp, err = m.mustGetSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return &LogTimeResult{Task: *task, Sprint: *sp}, nil
}

// DeleteTimeLog soft-deletes a log entry and reverses its contribution
// from the task and sprint aggregates.
func (m *Manager) DeleteTimeLog(ctx context.Context, sprintID, logID string) (*LogTimeResult, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "delete time log", Status: sp.Status}
	}

	tl, err := m.store.GetTimeLog(ctx, logID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if tl == nil || tl.DeletedAt != nil || tl.SprintID != sprintID {
		return nil, &NotFoundError{Entity: "time log", ID: logID}
	}

	task, err := m.store.GetTask(ctx, tl.TaskID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if task == nil {
		return nil, &NotFoundError{Entity: "task", ID: tl.TaskID}
	}

	logged := task.LoggedHours - tl.LoggedHours
	if logged < 0 {
		logged = 0
	}
	remaining := task.EstimatedHours - logged
	if remaining < 0 {
		remaining = 0
	}
	over := logged - task.EstimatedHours
	if over < 0 {
		over = 0
	}
	overDelta := over - task.OverLoggedHours

	now := m.now().UTC()
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SoftDeleteTimeLog(ctx, logID, now); err != nil {
			return err
		}
		if err := tx.UpdateTaskHours(ctx, task.TaskID, logged, remaining, over, now); err != nil {
			return err
		}
		return tx.UpdateSprintTotals(ctx, sprintID, sp.TotalEstimation,
			sp.TotalLogged-tl.LoggedHours, sp.TotalOverLogged+overDelta, now)
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}

	task, err = m.store.GetTask(ctx, tl.TaskID)
	if err != nil || task == nil {
		return nil, &TxError{Err: fmt.Errorf("reload task %s: %v", tl.TaskID, err)}
	}
	sp, err = m.mustGetSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return &LogTimeResult{Task: *task, Sprint: *sp}, nil
}

// CloseSprint marks the sprint closed and generates and persists its
// report in the same transaction. finalStatusIDs classify a task as
// finished in the report. Closing is terminal and rejected once closed.
// Tasks keep their board links for the report, but their sprint pointers
// are cleared so unfinished work can be carried into a later sprint.
func (m *Manager) CloseSprint(ctx context.Context, sprintID string, finalStatusIDs []string) (*CloseResult, error) {
	unlock := m.lock(sprintID)
	defer unlock()

	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintClosed {
		return nil, &StateError{Op: "close sprint", Status: sp.Status}
	}

	report, err := m.buildReport(ctx, sp, finalStatusIDs)
	if err != nil {
		return nil, err
	}

	tasks, err := m.store.ListTasksBySprint(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	project, err := m.store.GetProject(ctx, sp.ProjectID)
	if err != nil {
		return nil, &TxError{Err: err}
	}

	now := m.now().UTC()
	err = m.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.UpdateSprintStatus(ctx, sprintID, models.SprintClosed, now); err != nil {
			return err
		}
		if err := tx.SaveReport(ctx, *report); err != nil {
			return err
		}
		for _, task := range tasks {
			if err := tx.SetTaskSprint(ctx, task.TaskID, nil, now); err != nil {
				return err
			}
		}
		if project.ActiveSprintID != nil && *project.ActiveSprintID == sprintID {
			return tx.SetProjectActiveSprint(ctx, sp.ProjectID, nil)
		}
		return nil
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}

	sp, err = m.mustGetSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	// The sprint is terminal; its lock entry is no longer needed.
	m.locks.Delete(sprintID)
	return &CloseResult{Sprint: *sp, Report: *report}, nil
}

func (m *Manager) getSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	sp, err := m.store.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if sp == nil || sp.DeletedAt != nil {
		return nil, &NotFoundError{Entity: "sprint", ID: sprintID}
	}
	return sp, nil
}

// mustGetSprint re-reads a sprint that was just written.
func (m *Manager) mustGetSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	sp, err := m.store.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if sp == nil {
		return nil, &TxError{Err: fmt.Errorf("sprint %s vanished after write", sprintID)}
	}
	return sp, nil
}

// Sprint returns a sprint with its columns, task links, and capacity
// snapshot for read endpoints.
func (m *Manager) Sprint(ctx context.Context, sprintID string) (*store.Sprint, []store.SprintColumn, []store.SprintTask, []store.MemberCapacity, error) {
	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	columns, err := m.store.ListSprintColumns(ctx, sprintID)
	if err != nil {
		return nil, nil, nil, nil, &TxError{Err: err}
	}
	links, err := m.store.ListSprintTasks(ctx, sprintID)
	if err != nil {
		return nil, nil, nil, nil, &TxError{Err: err}
	}
	caps, err := m.store.ListMemberCapacities(ctx, sprintID)
	if err != nil {
		return nil, nil, nil, nil, &TxError{Err: err}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].ColumnID != links[j].ColumnID {
			return links[i].ColumnID < links[j].ColumnID
		}
		return links[i].Sequence < links[j].Sequence
	})
	return sp, columns, links, caps, nil
}
