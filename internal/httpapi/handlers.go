package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/capacity"
	otelx "github.com/MeenalAppSphere/sprintd/internal/otel"
	"github.com/MeenalAppSphere/sprintd/internal/sprint"
	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeError maps domain errors onto HTTP statuses: validation and business
// rules are 400, state conflicts 409, missing entities 404, store failures
// 500.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var verr *sprint.ValidationError
	if errors.As(err, &verr) {
		writeJSONError(w, http.StatusBadRequest, verr.Message, verr.Kind)
		return
	}
	var rerr *sprint.RuleError
	if errors.As(err, &rerr) {
		writeJSONError(w, http.StatusBadRequest, rerr.Message, rerr.Code)
		return
	}
	var serr *sprint.StateError
	if errors.As(err, &serr) {
		writeJSONError(w, http.StatusConflict, serr.Error(), "sprint_state")
		return
	}
	var nferr *sprint.NotFoundError
	if errors.As(err, &nferr) {
		writeJSONError(w, http.StatusNotFound, nferr.Error(), "not_found")
		return
	}
	if errors.Is(err, capacity.ErrInvalidDuration) {
		writeJSONError(w, http.StatusBadRequest, err.Error(), "invalid_duration")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, err.Error(), "not_found")
		return
	}
	a.log.Error("request failed", "err", err)
	writeJSONError(w, http.StatusInternalServerError, "internal error", "internal")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "bad_request")
		return false
	}
	return true
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"sse_subscribers": a.hub.SubscriberCount(),
	})
}

func (a *App) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                  string  `json:"name"`
		DefaultCapacityPerDay float64 `json:"default_capacity_per_day"`
		WorkingDays           string  `json:"working_days"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "project name is required", "bad_request")
		return
	}
	p, err := a.store.CreateProject(r.Context(), req.Name, req.DefaultCapacityPerDay, req.WorkingDays)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.store.ListProjects(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	if projects == nil {
		projects = []store.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *App) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string  `json:"name"`
		Email          string  `json:"email"`
		CapacityPerDay float64 `json:"capacity_per_day"`
		WorkingDays    string  `json:"working_days"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := a.store.CreateMember(r.Context(), r.PathValue("id"), req.Name, req.Email, req.CapacityPerDay, req.WorkingDays)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *App) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.store.ListMembers(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if members == nil {
		members = []store.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (a *App) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := a.store.CreateStatus(r.Context(), r.PathValue("id"), req.Name, req.Position)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *App) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := a.store.ListStatuses(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if statuses == nil {
		statuses = []store.Status{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (a *App) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req store.Task
	if !decodeBody(w, r, &req) {
		return
	}
	req.ProjectID = r.PathValue("id")
	task, err := a.store.CreateTask(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *App) handleCreateSprint(w http.ResponseWriter, r *http.Request) {
	var def sprint.Definition
	if !decodeBody(w, r, &def) {
		return
	}
	def.ProjectID = r.PathValue("id")
	sp, err := a.mgr.CreateSprint(r.Context(), def)
	otelx.RecordSprintOp(r.Context(), "create", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventSprintUpdate, sp)
	writeJSON(w, http.StatusCreated, sp)
}

func (a *App) handleListSprints(w http.ResponseWriter, r *http.Request) {
	sprints, err := a.store.ListSprintsByProject(r.Context(), r.PathValue("id"), models.DefaultSprintListLimit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if sprints == nil {
		sprints = []store.Sprint{}
	}
	writeJSON(w, http.StatusOK, sprints)
}

func (a *App) handleGetSprint(w http.ResponseWriter, r *http.Request) {
	sp, columns, links, caps, err := a.mgr.Sprint(r.Context(), r.PathValue("sid"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sprint":          sp,
		"columns":         columns,
		"tasks":           links,
		"member_capacity": caps,
	})
}

func (a *App) handlePublishSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := a.mgr.PublishSprint(r.Context(), r.PathValue("sid"))
	otelx.RecordSprintOp(r.Context(), "publish", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventSprintUpdate, sp)
	writeJSON(w, http.StatusOK, sp)
}

func (a *App) handleCompleteSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := a.mgr.CompleteSprint(r.Context(), r.PathValue("sid"))
	otelx.RecordSprintOp(r.Context(), "complete", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventSprintUpdate, sp)
	writeJSON(w, http.StatusOK, sp)
}

func (a *App) handleCloseSprint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FinalStatusIDs []string `json:"final_status_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()
	res, err := a.mgr.CloseSprint(r.Context(), r.PathValue("sid"), req.FinalStatusIDs)
	otelx.RecordSprintOp(r.Context(), "close", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	otelx.RecordReportDuration(r.Context(), time.Since(start))
	a.hub.Publish(EventSprintUpdate, res.Sprint)
	a.hub.Publish(EventReportReady, res.Report)
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID   string `json:"task_id"`
		ColumnID string `json:"column_id"`
		ActorID  string `json:"actor_id"`
		Force    bool   `json:"force"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sp, err := a.mgr.AddTask(r.Context(), r.PathValue("sid"), req.TaskID, req.ColumnID, req.ActorID, req.Force)
	otelx.RecordSprintOp(r.Context(), "add_task", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventTaskUpdate, sp)
	writeJSON(w, http.StatusOK, sp)
}

func (a *App) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	sp, err := a.mgr.RemoveTask(r.Context(), r.PathValue("sid"), r.PathValue("tid"))
	otelx.RecordSprintOp(r.Context(), "remove_task", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventTaskUpdate, sp)
	writeJSON(w, http.StatusOK, sp)
}

func (a *App) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromColumn  string `json:"from_column"`
		ToColumn    string `json:"to_column"`
		NewSequence int    `json:"new_sequence"`
		ActorID     string `json:"actor_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sp, err := a.mgr.MoveTask(r.Context(), r.PathValue("sid"), r.PathValue("tid"),
		req.FromColumn, req.ToColumn, req.NewSequence, req.ActorID)
	otelx.RecordSprintOp(r.Context(), "move_task", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventTaskUpdate, sp)
	writeJSON(w, http.StatusOK, sp)
}

func (a *App) handleLogTime(w http.ResponseWriter, r *http.Request) {
	var entry sprint.TimeLogEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	res, err := a.mgr.LogTime(r.Context(), r.PathValue("sid"), r.PathValue("tid"), entry)
	otelx.RecordSprintOp(r.Context(), "log_time", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	otelx.RecordLoggedHours(r.Context(), entry.LoggedHours)
	a.hub.Publish(EventTaskUpdate, res.Task)
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleDeleteTimeLog(w http.ResponseWriter, r *http.Request) {
	res, err := a.mgr.DeleteTimeLog(r.Context(), r.PathValue("sid"), r.PathValue("logID"))
	otelx.RecordSprintOp(r.Context(), "delete_time_log", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.Publish(EventTaskUpdate, res.Task)
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	sprintID := r.PathValue("sid")
	if r.URL.Query().Get("preview") == "1" {
		var finalStatusIDs []string
		if raw := r.URL.Query().Get("final_status_ids"); raw != "" {
			finalStatusIDs = strings.Split(raw, ",")
		}
		report, err := a.mgr.PreviewReport(r.Context(), sprintID, finalStatusIDs)
		if err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}
	report, err := a.mgr.Report(r.Context(), projectID, sprintID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleBackfillReports(w http.ResponseWriter, r *http.Request) {
	count, err := a.mgr.CreateMissingReports(r.Context())
	otelx.RecordSprintOp(r.Context(), "backfill_reports", err)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": count})
}
