package sprint

import (
	"context"
	"sort"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/store"
)

func unixTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

// buildReport assembles a denormalized snapshot of the sprint's outcome:
// value-copied task entries plus per-member rollups from non-deleted time
// logs. Nothing is persisted here.
func (m *Manager) buildReport(ctx context.Context, sp *store.Sprint, finalStatusIDs []string) (*store.SprintReport, error) {
	tasks, err := m.store.ListTasksBySprint(ctx, sp.SprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	logs, err := m.store.ListTimeLogsBySprint(ctx, sp.SprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}

	final := make(map[string]bool, len(finalStatusIDs))
	for _, id := range finalStatusIDs {
		final[id] = true
	}

	reportTasks := make([]store.ReportTask, 0, len(tasks))
	for _, t := range tasks {
		var assignee *string
		if t.AssigneeID != nil {
			id := *t.AssigneeID
			assignee = &id
		}
		reportTasks = append(reportTasks, store.ReportTask{
			TaskID:         t.TaskID,
			Name:           t.Name,
			DisplayName:    t.DisplayName,
			Description:    t.Description,
			AssigneeID:     assignee,
			TaskType:       t.TaskType,
			Priority:       t.Priority,
			StatusID:       t.StatusID,
			EstimatedHours: t.EstimatedHours,
			LoggedHours:    t.LoggedHours,
			Finished:       final[t.StatusID],
		})
	}

	// Group non-deleted logs by author, with a per-task breakdown.
	type taskAgg struct {
		hours  float64
		lastAt int64
	}
	perMember := make(map[string]map[string]*taskAgg)
	memberTotals := make(map[string]float64)
	for _, l := range logs {
		if l.DeletedAt != nil {
			continue
		}
		byTask := perMember[l.MemberID]
		if byTask == nil {
			byTask = make(map[string]*taskAgg)
			perMember[l.MemberID] = byTask
		}
		agg := byTask[l.TaskID]
		if agg == nil {
			agg = &taskAgg{}
			byTask[l.TaskID] = agg
		}
		agg.hours += l.LoggedHours
		if at := l.CreatedAt.Unix(); at > agg.lastAt {
			agg.lastAt = at
		}
		memberTotals[l.MemberID] += l.LoggedHours
	}

	memberIDs := make([]string, 0, len(perMember))
	for id := range perMember {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	reportMembers := make([]store.ReportMember, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		byTask := perMember[memberID]
		taskIDs := make([]string, 0, len(byTask))
		for id := range byTask {
			taskIDs = append(taskIDs, id)
		}
		sort.Strings(taskIDs)

		entry := store.ReportMember{
			MemberID:         memberID,
			TotalLoggedHours: memberTotals[memberID],
		}
		for _, taskID := range taskIDs {
			agg := byTask[taskID]
			entry.Tasks = append(entry.Tasks, store.ReportMemberTask{
				TaskID:       taskID,
				LoggedHours:  agg.hours,
				LastLoggedAt: unixTime(agg.lastAt),
			})
		}
		reportMembers = append(reportMembers, entry)
	}

	return &store.SprintReport{
		ProjectID:      sp.ProjectID,
		SprintID:       sp.SprintID,
		FinalStatusIDs: append([]string(nil), finalStatusIDs...),
		ReportTasks:    reportTasks,
		ReportMembers:  reportMembers,
		GeneratedAt:    m.now().UTC(),
	}, nil
}

// Report returns the persisted report for a closed sprint.
func (m *Manager) Report(ctx context.Context, projectID, sprintID string) (*store.SprintReport, error) {
	r, err := m.store.GetReport(ctx, projectID, sprintID)
	if err != nil {
		return nil, &TxError{Err: err}
	}
	if r == nil {
		return nil, &NotFoundError{Entity: "report", ID: sprintID}
	}
	return r, nil
}

// PreviewReport builds a live report for any non-deleted sprint without
// persisting it.
func (m *Manager) PreviewReport(ctx context.Context, sprintID string, finalStatusIDs []string) (*store.SprintReport, error) {
	sp, err := m.getSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return m.buildReport(ctx, sp, finalStatusIDs)
}

// CreateMissingReports regenerates reports for closed sprints that lack
// one, e.g. after a crash between close and report commit. Idempotent;
// returns the number of reports created.
func (m *Manager) CreateMissingReports(ctx context.Context) (int, error) {
	sprints, err := m.store.ListClosedSprintsWithoutReport(ctx)
	if err != nil {
		return 0, &TxError{Err: err}
	}
	count := 0
	for i := range sprints {
		sp := sprints[i]
		report, err := m.buildReport(ctx, &sp, nil)
		if err != nil {
			return count, err
		}
		err = m.store.WithTx(ctx, func(tx store.Tx) error {
			return tx.SaveReport(ctx, *report)
		})
		if err != nil {
			return count, &TxError{Err: err}
		}
		count++
	}
	return count, nil
}
