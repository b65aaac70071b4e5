package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MeenalAppSphere/sprintd/internal/store"
)

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) InsertSprint(ctx context.Context, sp store.Sprint) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sprints(`+sprintColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL)`,
		sp.SprintID, sp.ProjectID, sp.Name, sp.Goal, sp.StartedAt.Unix(), sp.EndAt.Unix(), sp.Status,
		sp.TotalCapacity, sp.TotalEstimation, sp.TotalLogged, sp.TotalOverLogged,
		sp.CreatedAt.Unix(), sp.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert sprint: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateSprintStatus(ctx context.Context, sprintID, status string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sprints SET status = $1, updated_at = $2 WHERE sprint_id = $3`,
		status, at.Unix(), sprintID)
	if err != nil {
		return fmt.Errorf("update sprint status: %w", err)
	}
	return requireRow(tag.RowsAffected(), "sprint", sprintID)
}

func (t *pgTx) UpdateSprintTotals(ctx context.Context, sprintID string, totalEstimation, totalLogged, totalOverLogged float64, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sprints SET total_estimation = $1, total_logged = $2, total_over_logged = $3, updated_at = $4 WHERE sprint_id = $5`,
		totalEstimation, totalLogged, totalOverLogged, at.Unix(), sprintID)
	if err != nil {
		return fmt.Errorf("update sprint totals: %w", err)
	}
	return requireRow(tag.RowsAffected(), "sprint", sprintID)
}

func (t *pgTx) InsertSprintColumn(ctx context.Context, c store.SprintColumn) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sprint_columns(sprint_id, column_id, status_id, name, position) VALUES($1, $2, $3, $4, $5)`,
		c.SprintID, c.ColumnID, c.StatusID, c.Name, c.Position)
	if err != nil {
		return fmt.Errorf("insert sprint column: %w", err)
	}
	return nil
}

func (t *pgTx) InsertMemberCapacity(ctx context.Context, mc store.MemberCapacity) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sprint_member_capacity(sprint_id, member_id, capacity_hours, capacity_per_day) VALUES($1, $2, $3, $4)`,
		mc.SprintID, mc.MemberID, mc.CapacityHours, mc.CapacityPerDay)
	if err != nil {
		return fmt.Errorf("insert member capacity: %w", err)
	}
	return nil
}

func (t *pgTx) SetProjectActiveSprint(ctx context.Context, projectID string, sprintID *string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE projects SET active_sprint_id = $1 WHERE project_id = $2`, sprintID, projectID)
	if err != nil {
		return fmt.Errorf("set active sprint: %w", err)
	}
	return requireRow(tag.RowsAffected(), "project", projectID)
}

func (t *pgTx) InsertSprintTask(ctx context.Context, st store.SprintTask) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO sprint_tasks(sprint_id, task_id, column_id, sequence, added_by_id, added_at, moved_by_id, moved_at) VALUES($1, $2, $3, $4, $5, $6, NULL, NULL)`,
		st.SprintID, st.TaskID, st.ColumnID, st.Sequence, st.AddedByID, st.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert sprint task: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteSprintTask(ctx context.Context, sprintID, taskID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sprint_tasks WHERE sprint_id = $1 AND task_id = $2`, sprintID, taskID)
	if err != nil {
		return fmt.Errorf("delete sprint task: %w", err)
	}
	return requireRow(tag.RowsAffected(), "sprint task", taskID)
}

func (t *pgTx) UpdateSprintTaskPlacement(ctx context.Context, sprintID, taskID, columnID string, sequence int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sprint_tasks SET column_id = $1, sequence = $2 WHERE sprint_id = $3 AND task_id = $4`,
		columnID, sequence, sprintID, taskID)
	if err != nil {
		return fmt.Errorf("update sprint task placement: %w", err)
	}
	return requireRow(tag.RowsAffected(), "sprint task", taskID)
}

func (t *pgTx) SetSprintTaskMoved(ctx context.Context, sprintID, taskID, movedByID string, movedAt time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sprint_tasks SET moved_by_id = $1, moved_at = $2 WHERE sprint_id = $3 AND task_id = $4`,
		movedByID, movedAt.Unix(), sprintID, taskID)
	if err != nil {
		return fmt.Errorf("set sprint task moved: %w", err)
	}
	return requireRow(tag.RowsAffected(), "sprint task", taskID)
}

func (t *pgTx) SetTaskSprint(ctx context.Context, taskID string, sprintID *string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE tasks SET sprint_id = $1, updated_at = $2 WHERE task_id = $3`,
		sprintID, at.Unix(), taskID)
	if err != nil {
		return fmt.Errorf("set task sprint: %w", err)
	}
	return requireRow(tag.RowsAffected(), "task", taskID)
}

func (t *pgTx) UpdateTaskHours(ctx context.Context, taskID string, logged, remaining, overLogged float64, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE tasks SET logged_hours = $1, remaining_hours = $2, over_logged_hours = $3, updated_at = $4 WHERE task_id = $5`,
		logged, remaining, overLogged, at.Unix(), taskID)
	if err != nil {
		return fmt.Errorf("update task hours: %w", err)
	}
	return requireRow(tag.RowsAffected(), "task", taskID)
}

func (t *pgTx) InsertTimeLog(ctx context.Context, tl store.TimeLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO time_logs(`+timeLogColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)`,
		tl.LogID, tl.TaskID, tl.SprintID, tl.MemberID, tl.Description, tl.LoggedHours,
		tl.RemainingAtLog, tl.StartedAt.Unix(), tl.EndedAt.Unix(), tl.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert time log: %w", err)
	}
	return nil
}

func (t *pgTx) SoftDeleteTimeLog(ctx context.Context, logID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE time_logs SET deleted_at = $1 WHERE log_id = $2 AND deleted_at IS NULL`,
		at.Unix(), logID)
	if err != nil {
		return fmt.Errorf("soft delete time log: %w", err)
	}
	return requireRow(tag.RowsAffected(), "time log", logID)
}

func (t *pgTx) SaveReport(ctx context.Context, r store.SprintReport) error {
	finalStatuses, err := json.Marshal(r.FinalStatusIDs)
	if err != nil {
		return fmt.Errorf("encode final_status_ids: %w", err)
	}
	reportTasks, err := json.Marshal(r.ReportTasks)
	if err != nil {
		return fmt.Errorf("encode report_tasks: %w", err)
	}
	reportMembers, err := json.Marshal(r.ReportMembers)
	if err != nil {
		return fmt.Errorf("encode report_members: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
INSERT INTO sprint_reports(project_id, sprint_id, final_status_ids, report_tasks, report_members, generated_at)
VALUES($1, $2, $3, $4, $5, $6)
ON CONFLICT(project_id, sprint_id) DO UPDATE SET
  final_status_ids = excluded.final_status_ids,
  report_tasks = excluded.report_tasks,
  report_members = excluded.report_members,
  generated_at = excluded.generated_at`,
		r.ProjectID, r.SprintID, string(finalStatuses), string(reportTasks), string(reportMembers), r.GeneratedAt.Unix())
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func requireRow(n int64, entity, id string) error {
	if n == 0 {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
