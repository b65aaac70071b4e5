package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// sqliteTx wraps a started transaction. All writes that must land together
// (sprint status flips, aggregate updates, report snapshots) go through here.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) InsertSprint(ctx context.Context, sp Sprint) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO sprints(`+sprintColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		sp.SprintID, sp.ProjectID, sp.Name, sp.Goal, sp.StartedAt.Unix(), sp.EndAt.Unix(), sp.Status,
		sp.TotalCapacity, sp.TotalEstimation, sp.TotalLogged, sp.TotalOverLogged,
		sp.CreatedAt.Unix(), sp.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert sprint: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateSprintStatus(ctx context.Context, sprintID, status string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE sprints SET status = ?, updated_at = ? WHERE sprint_id = ?`,
		status, at.Unix(), sprintID)
	if err != nil {
		return fmt.Errorf("update sprint status: %w", err)
	}
	return requireRow(res, "sprint", sprintID)
}

func (t *sqliteTx) UpdateSprintTotals(ctx context.Context, sprintID string, totalEstimation, totalLogged, totalOverLogged float64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sprints SET total_estimation = ?, total_logged = ?, total_over_logged = ?, updated_at = ? WHERE sprint_id = ?`,
		totalEstimation, totalLogged, totalOverLogged, at.Unix(), sprintID)
	if err != nil {
		return fmt.Errorf("update sprint totals: %w", err)
	}
	return requireRow(res, "sprint", sprintID)
}

func (t *sqliteTx) InsertSprintColumn(ctx context.Context, c SprintColumn) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO sprint_columns(sprint_id, column_id, status_id, name, position) VALUES(?, ?, ?, ?, ?)`,
		c.SprintID, c.ColumnID, c.StatusID, c.Name, c.Position)
	if err != nil {
		return fmt.Errorf("insert sprint column: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertMemberCapacity(ctx context.Context, mc MemberCapacity) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO sprint_member_capacity(sprint_id, member_id, capacity_hours, capacity_per_day) VALUES(?, ?, ?, ?)`,
		mc.SprintID, mc.MemberID, mc.CapacityHours, mc.CapacityPerDay)
	if err != nil {
		return fmt.Errorf("insert member capacity: %w", err)
	}
	return nil
}

func (t *sqliteTx) SetProjectActiveSprint(ctx context.Context, projectID string, sprintID *string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE projects SET active_sprint_id = ? WHERE project_id = ?`,
		toNull(sprintID), projectID)
	if err != nil {
		return fmt.Errorf("set active sprint: %w", err)
	}
	return requireRow(res, "project", projectID)
}

func (t *sqliteTx) InsertSprintTask(ctx context.Context, st SprintTask) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO sprint_tasks(sprint_id, task_id, column_id, sequence, added_by_id, added_at, moved_by_id, moved_at) VALUES(?, ?, ?, ?, ?, ?, NULL, NULL)`,
		st.SprintID, st.TaskID, st.ColumnID, st.Sequence, st.AddedByID, st.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert sprint task: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteSprintTask(ctx context.Context, sprintID, taskID string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM sprint_tasks WHERE sprint_id = ? AND task_id = ?`, sprintID, taskID)
	if err != nil {
		return fmt.Errorf("delete sprint task: %w", err)
	}
	return requireRow(res, "sprint task", taskID)
}

func (t *sqliteTx) UpdateSprintTaskPlacement(ctx context.Context, sprintID, taskID, columnID string, sequence int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sprint_tasks SET column_id = ?, sequence = ? WHERE sprint_id = ? AND task_id = ?`,
		columnID, sequence, sprintID, taskID)
	if err != nil {
		return fmt.Errorf("update sprint task placement: %w", err)
	}
	return requireRow(res, "sprint task", taskID)
}

func (t *sqliteTx) SetSprintTaskMoved(ctx context.Context, sprintID, taskID, movedByID string, movedAt time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sprint_tasks SET moved_by_id = ?, moved_at = ? WHERE sprint_id = ? AND task_id = ?`,
		movedByID, movedAt.Unix(), sprintID, taskID)
	if err != nil {
		return fmt.Errorf("set sprint task moved: %w", err)
	}
	return requireRow(res, "sprint task", taskID)
}

func (t *sqliteTx) SetTaskSprint(ctx context.Context, taskID string, sprintID *string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE tasks SET sprint_id = ?, updated_at = ? WHERE task_id = ?`,
		toNull(sprintID), at.Unix(), taskID)
	if err != nil {
		return fmt.Errorf("set task sprint: %w", err)
	}
	return requireRow(res, "task", taskID)
}

func (t *sqliteTx) UpdateTaskHours(ctx context.Context, taskID string, logged, remaining, overLogged float64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET logged_hours = ?, remaining_hours = ?, over_logged_hours = ?, updated_at = ? WHERE task_id = ?`,
		logged, remaining, overLogged, at.Unix(), taskID)
	if err != nil {
		return fmt.Errorf("update task hours: %w", err)
	}
	return requireRow(res, "task", taskID)
}

func (t *sqliteTx) InsertTimeLog(ctx context.Context, tl TimeLog) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO time_logs(log_id, task_id, sprint_id, member_id, description, logged_hours, remaining_at_log, started_at, ended_at, created_at, deleted_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		tl.LogID, tl.TaskID, tl.SprintID, tl.MemberID, tl.Description, tl.LoggedHours,
		tl.RemainingAtLog, tl.StartedAt.Unix(), tl.EndedAt.Unix(), tl.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert time log: %w", err)
	}
	return nil
}

func (t *sqliteTx) SoftDeleteTimeLog(ctx context.Context, logID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE time_logs SET deleted_at = ? WHERE log_id = ? AND deleted_at IS NULL`,
		at.Unix(), logID)
	if err != nil {
		return fmt.Errorf("soft delete time log: %w", err)
	}
	return requireRow(res, "time log", logID)
}

func (t *sqliteTx) SaveReport(ctx context.Context, r SprintReport) error {
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
	_, err = t.tx.ExecContext(ctx, `
INSERT INTO sprint_reports(project_id, sprint_id, final_status_ids, report_tasks, report_members, generated_at)
VALUES(?, ?, ?, ?, ?, ?)
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

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
