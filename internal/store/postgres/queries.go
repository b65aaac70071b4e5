package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MeenalAppSphere/sprintd/internal/store"
)

const sprintColumns = `sprint_id, project_id, name, goal, started_at, end_at, status, total_capacity, total_estimation, total_logged, total_over_logged, created_at, updated_at, deleted_at`

const taskColumns = `task_id, project_id, name, display_name, description, assignee_id, task_type, priority, status_id, estimated_hours, logged_hours, remaining_hours, over_logged_hours, sprint_id, created_at, updated_at, deleted_at`

const timeLogColumns = `log_id, task_id, sprint_id, member_id, description, logged_hours, remaining_at_log, started_at, ended_at, created_at, deleted_at`

type scannable interface {
	Scan(dest ...any) error
}

func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func scanSprintRow(row scannable) (*store.Sprint, error) {
	var sp store.Sprint
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

func scanTaskRow(row scannable) (*store.Task, error) {
	var t store.Task
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

func scanTimeLogRow(row scannable) (*store.TimeLog, error) {
	var tl store.TimeLog
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

func (s *Store) CreateProject(ctx context.Context, name string, defaultCapacityPerDay float64, workingDays string) (store.Project, error) {
	if name == "" {
		return store.Project{}, errors.New("project name required")
	}
	if workingDays == "" {
		workingDays = "1,2,3,4,5"
	}
	id := uuid.NewString()
	now := time.Now().UTC().Unix()
	_, err := s.pool.Exec(ctx, `INSERT INTO projects(project_id, name, default_capacity_per_day, working_days, created_at) VALUES($1, $2, $3, $4, $5)`,
		id, name, defaultCapacityPerDay, workingDays, now)
	if err != nil {
		return store.Project{}, err
	}
	return store.Project{ProjectID: id, Name: name, DefaultCapacityPerDay: defaultCapacityPerDay, WorkingDays: workingDays, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (store.Project, error) {
	var p store.Project
	var createdAt int64
	err := s.pool.QueryRow(ctx, `SELECT project_id, name, active_sprint_id, default_capacity_per_day, working_days, created_at FROM projects WHERE project_id = $1`, projectID).
		Scan(&p.ProjectID, &p.Name, &p.ActiveSprintID, &p.DefaultCapacityPerDay, &p.WorkingDays, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Project{}, fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
		}
		return store.Project{}, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT project_id, name, active_sprint_id, default_capacity_per_day, working_days, created_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Project
	for rows.Next() {
		var p store.Project
		var createdAt int64
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.ActiveSprintID, &p.DefaultCapacityPerDay, &p.WorkingDays, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateMember(ctx context.Context, projectID, name, email string, capacityPerDay float64, workingDays string) (store.Member, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return store.Member{}, err
	}
	if name == "" {
		return store.Member{}, errors.New("member name required")
	}
	id := uuid.NewString()
	now := time.Now().UTC().Unix()
	_, err := s.pool.Exec(ctx, `INSERT INTO members(member_id, project_id, name, email, capacity_per_day, working_days, created_at) VALUES($1, $2, $3, $4, $5, $6, $7)`,
		id, projectID, name, email, capacityPerDay, workingDays, now)
	if err != nil {
		return store.Member{}, err
	}
	return store.Member{MemberID: id, ProjectID: projectID, Name: name, Email: email, CapacityPerDay: capacityPerDay, WorkingDays: workingDays, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

func (s *Store) GetMember(ctx context.Context, memberID string) (store.Member, error) {
	var m store.Member
	var createdAt int64
	err := s.pool.QueryRow(ctx, `SELECT member_id, project_id, name, email, capacity_per_day, working_days, created_at FROM members WHERE member_id = $1`, memberID).
		Scan(&m.MemberID, &m.ProjectID, &m.Name, &m.Email, &m.CapacityPerDay, &m.WorkingDays, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Member{}, fmt.Errorf("member %s: %w", memberID, store.ErrNotFound)
		}
		return store.Member{}, err
	}
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context, projectID string) ([]store.Member, error) {
	rows, err := s.pool.Query(ctx, `SELECT member_id, project_id, name, email, capacity_per_day, working_days, created_at FROM members WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Member
	for rows.Next() {
		var m store.Member
		var createdAt int64
		if err := rows.Scan(&m.MemberID, &m.ProjectID, &m.Name, &m.Email, &m.CapacityPerDay, &m.WorkingDays, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateStatus(ctx context.Context, projectID, name string, position int) (store.Status, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return store.Status{}, err
	}
	if name == "" {
		return store.Status{}, errors.New("status name required")
	}
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `INSERT INTO statuses(status_id, project_id, name, position) VALUES($1, $2, $3, $4)`,
		id, projectID, name, position)
	if err != nil {
		return store.Status{}, err
	}
	return store.Status{StatusID: id, ProjectID: projectID, Name: name, Position: position}, nil
}

func (s *Store) ListStatuses(ctx context.Context, projectID string) ([]store.Status, error) {
	rows, err := s.pool.Query(ctx, `SELECT status_id, project_id, name, position FROM statuses WHERE project_id = $1 ORDER BY position ASC, name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Status
	for rows.Next() {
		var st store.Status
		if err := rows.Scan(&st.StatusID, &st.ProjectID, &st.Name, &st.Position); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CreateTask(ctx context.Context, t store.Task) (store.Task, error) {
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return store.Task{}, err
	}
	if t.Name == "" {
		return store.Task{}, errors.New("task name required")
	}
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.RemainingHours = t.EstimatedHours
	_, err := s.pool.Exec(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NULL)`,
		t.TaskID, t.ProjectID, t.Name, t.DisplayName, t.Description, t.AssigneeID,
		t.TaskType, t.Priority, t.StatusID, t.EstimatedHours, t.LoggedHours, t.RemainingHours,
		t.OverLoggedHours, t.SprintID, now.Unix(), now.Unix())
	if err != nil {
		return store.Task{}, err
	}
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string) (*store.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = $1 AND deleted_at IS NULL`, taskID)
	t, err := scanTaskRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTasksBySprint(ctx context.Context, sprintID string) ([]store.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE sprint_id = $1 AND deleted_at IS NULL ORDER BY created_at ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) GetSprint(ctx context.Context, sprintID string) (*store.Sprint, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sprintColumns+` FROM sprints WHERE sprint_id = $1`, sprintID)
	sp, err := scanSprintRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sp, nil
}

func (s *Store) ListSprintsByProject(ctx context.Context, projectID string, limit int) ([]store.Sprint, error) {
	q := `SELECT ` + sprintColumns + ` FROM sprints WHERE project_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	args := []any{projectID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *Store) SprintNameExists(ctx context.Context, projectID, name string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sprints WHERE project_id = $1 AND LOWER(name) = LOWER($2) AND deleted_at IS NULL`,
		projectID, strings.TrimSpace(name)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListSprintColumns(ctx context.Context, sprintID string) ([]store.SprintColumn, error) {
	rows, err := s.pool.Query(ctx, `SELECT sprint_id, column_id, status_id, name, position FROM sprint_columns WHERE sprint_id = $1 ORDER BY position ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SprintColumn
	for rows.Next() {
		var c store.SprintColumn
		if err := rows.Scan(&c.SprintID, &c.ColumnID, &c.StatusID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListSprintTasks(ctx context.Context, sprintID string) ([]store.SprintTask, error) {
	rows, err := s.pool.Query(ctx, `SELECT sprint_id, task_id, column_id, sequence, added_by_id, added_at, moved_by_id, moved_at FROM sprint_tasks WHERE sprint_id = $1 ORDER BY column_id ASC, sequence ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SprintTask
	for rows.Next() {
		var st store.SprintTask
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

func (s *Store) ListMemberCapacities(ctx context.Context, sprintID string) ([]store.MemberCapacity, error) {
	rows, err := s.pool.Query(ctx, `SELECT sprint_id, member_id, capacity_hours, capacity_per_day FROM sprint_member_capacity WHERE sprint_id = $1 ORDER BY member_id ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.MemberCapacity
	for rows.Next() {
		var mc store.MemberCapacity
		if err := rows.Scan(&mc.SprintID, &mc.MemberID, &mc.CapacityHours, &mc.CapacityPerDay); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (s *Store) ListOverdueSprints(ctx context.Context, now time.Time) ([]store.Sprint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sprintColumns+` FROM sprints WHERE status = 'in_progress' AND end_at < $1 AND deleted_at IS NULL ORDER BY end_at ASC`,
		now.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *Store) GetTimeLog(ctx context.Context, logID string) (*store.TimeLog, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE log_id = $1`, logID)
	tl, err := scanTimeLogRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tl, nil
}

func (s *Store) ListTimeLogsBySprint(ctx context.Context, sprintID string) ([]store.TimeLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE sprint_id = $1 ORDER BY created_at ASC`, sprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TimeLog
	for rows.Next() {
		tl, err := scanTimeLogRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tl)
	}
	return out, rows.Err()
}

func (s *Store) SumLoggedHours(ctx context.Context, taskID string) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(logged_hours), 0) FROM time_logs WHERE task_id = $1 AND deleted_at IS NULL`, taskID).Scan(&sum)
	return sum, err
}

func (s *Store) GetReport(ctx context.Context, projectID, sprintID string) (*store.SprintReport, error) {
	var r store.SprintReport
	var finalStatuses, reportTasks, reportMembers string
	var generatedAt int64
	err := s.pool.QueryRow(ctx,
		`SELECT project_id, sprint_id, final_status_ids, report_tasks, report_members, generated_at FROM sprint_reports WHERE project_id = $1 AND sprint_id = $2`,
		projectID, sprintID).Scan(&r.ProjectID, &r.SprintID, &finalStatuses, &reportTasks, &reportMembers, &generatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *Store) ListClosedSprintsWithoutReport(ctx context.Context) ([]store.Sprint, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+sprintColumns+` FROM sprints sp
WHERE sp.status = 'closed' AND sp.deleted_at IS NULL
  AND NOT EXISTS (SELECT 1 FROM sprint_reports r WHERE r.project_id = sp.project_id AND r.sprint_id = sp.sprint_id)
ORDER BY sp.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Sprint
	for rows.Next() {
		sp, err := scanSprintRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}
