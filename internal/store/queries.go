package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func toNull(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// scanSprintRow scans a row with sprint columns (used by GetSprint and list queries).
func scanSprintRow(row interface{ Scan(dest ...any) error }) (*Sprint, error) {
	var sp Sprint
	var startedAt, endAt, createdAt, updatedAt int64
	var deletedAt *int64
	err := row.Scan(&sp.SprintID, &sp.ProjectID, &sp.Name, &sp.Goal, &startedAt, &endAt, &sp.Status,
		&sp.TotalCapacity, &sp.TotalEstimation, &sp.TotalLogged, &sp.TotalOverLogged,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	sp.StartedAt = time.Unix(startedAt, 0).UTC()
	sp.EndAt = time.Unix(endAt, 0).UTC()
	sp.CreatedAt = time.Unix(createdAt, 0).UTC()
	sp.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	sp.DeletedAt = unixPtr(deletedAt)
	return &sp, nil
}

// scanTaskRow scans a row with task columns.
func scanTaskRow(row interface{ Scan(dest ...any) error }) (*Task, error) {
	var t Task
	var createdAt, updatedAt int64
	var deletedAt *int64
	err := row.Scan(&t.TaskID, &t.ProjectID, &t.Name, &t.DisplayName, &t.Description, &t.AssigneeID,
		&t.TaskType, &t.Priority, &t.StatusID, &t.EstimatedHours, &t.LoggedHours, &t.RemainingHours,
		&t.OverLoggedHours, &t.SprintID, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	t.DeletedAt = unixPtr(deletedAt)
	return &t, nil
}

func (s *sqliteStore) CreateProject(ctx context.Context, name string, defaultCapacityPerDay float64, workingDays string) (Project, error) {
	if name == "" {
		return Project{}, errors.New("project name required")
	}
	if workingDays == "" {
		workingDays = "1,2,3,4,5"
	}
	id := newID()
	now := time.Now().UTC().Unix()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO projects(project_id, name, default_capacity_per_day, working_days, created_at) VALUES(?, ?, ?, ?, ?)`,
		id, name, defaultCapacityPerDay, workingDays, now)
	if err != nil {
		return Project{}, err
	}
	return Project{ProjectID: id, Name: name, DefaultCapacityPerDay: defaultCapacityPerDay, WorkingDays: workingDays, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

func (s *sqliteStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var p Project
	var createdAt int64
	err := s.stmtGetProject.QueryRowContext(ctx, projectID).
		Scan(&p.ProjectID, &p.Name, &p.ActiveSprintID, &p.DefaultCapacityPerDay, &p.WorkingDays, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return Project{}, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (s *sqliteStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT project_id, name, active_sprint_id, default_capacity_per_day, working_days, created_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Project
	for rows.Next() {
		var p Project
		var createdAt int64
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.ActiveSprintID, &p.DefaultCapacityPerDay, &p.WorkingDays, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateMember(ctx context.Context, projectID, name, email string, capacityPerDay float64, workingDays string) (Member, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return Member{}, err
	}
	if name == "" {
		return Member{}, errors.New("member name required")
	}
	id := newID()
	now := time.Now().UTC().Unix()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO members(member_id, project_id, name, email, capacity_per_day, working_days, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		id, projectID, name, email, capacityPerDay, workingDays, now)
	if err != nil {
		return Member{}, err
	}
	return Member{MemberID: id, ProjectID: projectID, Name: name, Email: email, CapacityPerDay: capacityPerDay, WorkingDays: workingDays, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

func (s *sqliteStore) GetMember(ctx context.Context, memberID string) (Member, error) {
	var m Member
	var createdAt int64
	err := s.DB.QueryRowContext(ctx, `SELECT member_id, project_id, name, email, capacity_per_day, working_days, created_at FROM members WHERE member_id = ?`, memberID).
		Scan(&m.MemberID, &m.ProjectID, &m.Name, &m.Email, &m.CapacityPerDay, &m.WorkingDays, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}
		return Member{}, err
	}
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return m, nil
}

func (s *sqliteStore) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT member_id, project_id, name, email, capacity_per_day, working_days, created_at FROM members WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Member
	for rows.Next() {
		var m Member
		var createdAt int64
		if err := rows.Scan(&m.MemberID, &m.ProjectID, &m.Name, &m.Email, &m.CapacityPerDay, &m.WorkingDays, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateStatus(ctx context.Context, projectID, name string, position int) (Status, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return Status{}, err
	}
	if name == "" {
		return Status{}, errors.New("status name required")
	}
	id := newID()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO statuses(status_id, project_id, name, position) VALUES(?, ?, ?, ?)`,
		id, projectID, name, position)
	if err != nil {
		return Status{}, err
	}
	return Status{StatusID: id, ProjectID: projectID, Name: name, Position: position}, nil
}

func (s *sqliteStore) ListStatuses(ctx context.Context, projectID string) ([]Status, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT status_id, project_id, name, position FROM statuses WHERE project_id = ? ORDER BY position ASC, name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Status
	for rows.Next() {
		var st Status
		if err := rows.Scan(&st.StatusID, &st.ProjectID, &st.Name, &st.Position); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateTask(ctx context.Context, t Task) (Task, error) {
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return Task{}, err
	}
	if t.Name == "" {
		return Task{}, errors.New("task name required")
	}
	if t.TaskID == "" {
		t.TaskID = newID()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.RemainingHours = t.EstimatedHours
	_, err := s.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		t.TaskID, t.ProjectID, t.Name, t.DisplayName, t.Description, toNull(t.AssigneeID),
		t.TaskType, t.Priority, t.StatusID, t.EstimatedHours, t.LoggedHours, t.RemainingHours,
		t.OverLoggedHours, toNull(t.SprintID), now.Unix(), now.Unix())
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *sqliteStore) GetTask(ctx context.Context, taskID string) (*Task, error) {
	row := s.stmtGetTask.QueryRowContext(ctx, taskID)
	t, err := scanTaskRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *sqliteStore) ListTasksBySprint(ctx context.Context, sprintID string) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE sprint_id = ? AND deleted_at IS NULL ORDER BY created_at ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetSprint(ctx context.Context, sprintID string) (*Sprint, error) {
	row := s.stmtGetSprint.QueryRowContext(ctx, sprintID)
	sp, err := scanSprintRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sp, nil
}

func (s *sqliteStore) ListSprintsByProject(ctx context.Context, projectID string, limit int) ([]Sprint, error) {
	q := `SELECT ` + sprintColumns + ` FROM sprints WHERE project_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`
	args := []any{projectID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SprintNameExists(ctx context.Context, projectID, name string) (bool, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sprints WHERE project_id = ? AND LOWER(name) = LOWER(?) AND deleted_at IS NULL`,
		projectID, strings.TrimSpace(name)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) ListSprintColumns(ctx context.Context, sprintID string) ([]SprintColumn, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT sprint_id, column_id, status_id, name, position FROM sprint_columns WHERE sprint_id = ? ORDER BY position ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SprintColumn
	for rows.Next() {
		var c SprintColumn
		if err := rows.Scan(&c.SprintID, &c.ColumnID, &c.StatusID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ListSprintTasks(ctx context.Context, sprintID string) ([]SprintTask, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT sprint_id, task_id, column_id, sequence, added_by_id, added_at, moved_by_id, moved_at FROM sprint_tasks WHERE sprint_id = ? ORDER BY column_id ASC, sequence ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SprintTask
	for rows.Next() {
		var st SprintTask
		var addedAt int64
		var movedAt *int64
		if err := rows.Scan(&st.SprintID, &st.TaskID, &st.ColumnID, &st.Sequence, &st.AddedByID, &addedAt, &st.MovedByID, &movedAt); err != nil {
			return nil, err
		}
		st.AddedAt = time.Unix(addedAt, 0).UTC()
		st.MovedAt = unixPtr(movedAt)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ListMemberCapacities(ctx context.Context, sprintID string) ([]MemberCapacity, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT sprint_id, member_id, capacity_hours, capacity_per_day FROM sprint_member_capacity WHERE sprint_id = ? ORDER BY member_id ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []MemberCapacity
	for rows.Next() {
		var mc MemberCapacity
		if err := rows.Scan(&mc.SprintID, &mc.MemberID, &mc.CapacityHours, &mc.CapacityPerDay); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ListOverdueSprints(ctx context.Context, now time.Time) ([]Sprint, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints WHERE status = 'in_progress' AND end_at < ? AND deleted_at IS NULL ORDER BY end_at ASC`,
		now.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetTimeLog(ctx context.Context, logID string) (*TimeLog, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT log_id, task_id, sprint_id, member_id, description, logged_hours, remaining_at_log, started_at, ended_at, created_at, deleted_at FROM time_logs WHERE log_id = ?`, logID)
	tl, err := scanTimeLogRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tl, nil
}

func scanTimeLogRow(row interface{ Scan(dest ...any) error }) (*TimeLog, error) {
	var tl TimeLog
	var startedAt, endedAt, createdAt int64
	var deletedAt *int64
	err := row.Scan(&tl.LogID, &tl.TaskID, &tl.SprintID, &tl.MemberID, &tl.Description,
		&tl.LoggedHours, &tl.RemainingAtLog, &startedAt, &endedAt, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	tl.StartedAt = time.Unix(startedAt, 0).UTC()
	tl.EndedAt = time.Unix(endedAt, 0).UTC()
	tl.CreatedAt = time.Unix(createdAt, 0).UTC()
	tl.DeletedAt = unixPtr(deletedAt)
	return &tl, nil
}

func (s *sqliteStore) ListTimeLogsBySprint(ctx context.Context, sprintID string) ([]TimeLog, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT log_id, task_id, sprint_id, member_id, description, logged_hours, remaining_at_log, started_at, ended_at, created_at, deleted_at FROM time_logs WHERE sprint_id = ? ORDER BY created_at ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TimeLog
	for rows.Next() {
		tl, err := scanTimeLogRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tl)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SumLoggedHours(ctx context.Context, taskID string) (float64, error) {
	var sum float64
	err := s.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(logged_hours), 0) FROM time_logs WHERE task_id = ? AND deleted_at IS NULL`, taskID).Scan(&sum)
	return sum, err
}

func (s *sqliteStore) GetReport(ctx context.Context, projectID, sprintID string) (*SprintReport, error) {
	var r SprintReport
	var finalStatuses, reportTasks, reportMembers string
	var generatedAt int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT project_id, sprint_id, final_status_ids, report_tasks, report_members, generated_at FROM sprint_reports WHERE project_id = ? AND sprint_id = ?`,
		projectID, sprintID).Scan(&r.ProjectID, &r.SprintID, &finalStatuses, &reportTasks, &reportMembers, &generatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(finalStatuses), &r.FinalStatusIDs); err != nil {
		return nil, fmt.Errorf("decode final_status_ids: %w", err)
	}
	if err := json.Unmarshal([]byte(reportTasks), &r.ReportTasks); err != nil {
		return nil, fmt.Errorf("decode report_tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(reportMembers), &r.ReportMembers); err != nil {
		return nil, fmt.Errorf("decode report_members: %w", err)
	}
	r.GeneratedAt = time.Unix(generatedAt, 0).UTC()
	return &r, nil
}

func (s *sqliteStore) ListClosedSprintsWithoutReport(ctx context.Context) ([]Sprint, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+sprintColumns+` FROM sprints sp
WHERE sp.status = 'closed' AND sp.deleted_at IS NULL
  AND NOT EXISTS (SELECT 1 FROM sprint_reports r WHERE r.project_id = sp.project_id AND r.sprint_id = sp.sprint_id)
ORDER BY sp.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}
