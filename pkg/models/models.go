// Package models provides shared types for the sprintd HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Project is a container of members, statuses, tasks, and sprints.
type Project struct {
	ProjectID             string    `json:"project_id"`
	Name                  string    `json:"name"`
	ActiveSprintID        *string   `json:"active_sprint_id,omitempty"`
	DefaultCapacityPerDay float64   `json:"default_capacity_per_day,omitempty"`
	WorkingDays           string    `json:"working_days,omitempty"`
	CreatedAt             time.Time `json:"created_at,omitempty"`
}

// Member is a project member with a per-day working capacity.
type Member struct {
	MemberID       string    `json:"member_id"`
	ProjectID      string    `json:"project_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	CapacityPerDay float64   `json:"capacity_per_day,omitempty"`
	WorkingDays    string    `json:"working_days,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Status is a project task status; sprint columns mirror these.
type Status struct {
	StatusID  string `json:"status_id"`
	ProjectID string `json:"project_id,omitempty"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// Task is a work item with an estimate and running logged-time aggregates.
type Task struct {
	TaskID          string     `json:"task_id"`
	ProjectID       string     `json:"project_id,omitempty"`
	Name            string     `json:"name"`
	DisplayName     string     `json:"display_name,omitempty"`
	Description     string     `json:"description,omitempty"`
	AssigneeID      *string    `json:"assignee_id,omitempty"`
	TaskType        string     `json:"task_type,omitempty"`
	Priority        string     `json:"priority,omitempty"`
	StatusID        string     `json:"status_id,omitempty"`
	EstimatedHours  float64    `json:"estimated_hours"`
	LoggedHours     float64    `json:"logged_hours"`
	RemainingHours  float64    `json:"remaining_hours"`
	OverLoggedHours float64    `json:"over_logged_hours"`
	SprintID        *string    `json:"sprint_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Sprint is a time-boxed container of tasks with a capacity budget.
type Sprint struct {
	SprintID        string     `json:"sprint_id"`
	ProjectID       string     `json:"project_id"`
	Name            string     `json:"name"`
	Goal            string     `json:"goal"`
	StartedAt       time.Time  `json:"started_at"`
	EndAt           time.Time  `json:"end_at"`
	Status          string     `json:"status"`
	TotalCapacity   float64    `json:"total_capacity"`
	TotalEstimation float64    `json:"total_estimation"`
	TotalLogged     float64    `json:"total_logged"`
	TotalOverLogged float64    `json:"total_over_logged"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// SprintColumn is a kanban bucket within a sprint board.
type SprintColumn struct {
	SprintID string `json:"sprint_id,omitempty"`
	ColumnID string `json:"column_id"`
	StatusID string `json:"status_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// SprintTask links a task into a sprint column at a position.
type SprintTask struct {
	SprintID  string     `json:"sprint_id,omitempty"`
	TaskID    string     `json:"task_id"`
	ColumnID  string     `json:"column_id"`
	Sequence  int        `json:"sequence"`
	AddedByID string     `json:"added_by_id,omitempty"`
	AddedAt   time.Time  `json:"added_at,omitempty"`
	MovedByID *string    `json:"moved_by_id,omitempty"`
	MovedAt   *time.Time `json:"moved_at,omitempty"`
}

// MemberCapacity is a per-member working-capacity snapshot taken at sprint creation.
type MemberCapacity struct {
	SprintID       string  `json:"sprint_id,omitempty"`
	MemberID       string  `json:"member_id"`
	CapacityHours  float64 `json:"capacity_hours"`
	CapacityPerDay float64 `json:"capacity_per_day"`
}

// TimeLog is an append-only record of logged time against a task.
type TimeLog struct {
	LogID          string     `json:"log_id"`
	TaskID         string     `json:"task_id"`
	SprintID       string     `json:"sprint_id,omitempty"`
	MemberID       string     `json:"member_id"`
	Description    string     `json:"description,omitempty"`
	LoggedHours    float64    `json:"logged_hours"`
	RemainingAtLog float64    `json:"remaining_at_log"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        time.Time  `json:"ended_at"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// ReportTask is a value-copied task entry inside a sprint report.
type ReportTask struct {
	TaskID         string  `json:"task_id"`
	Name           string  `json:"name"`
	DisplayName    string  `json:"display_name,omitempty"`
	Description    string  `json:"description,omitempty"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	TaskType       string  `json:"task_type,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	StatusID       string  `json:"status_id,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	LoggedHours    float64 `json:"logged_hours"`
	Finished       bool    `json:"finished"`
}

// ReportMemberTask is one task's share of a member's logged time.
type ReportMemberTask struct {
	TaskID       string    `json:"task_id"`
	LoggedHours  float64   `json:"logged_hours"`
	LastLoggedAt time.Time `json:"last_logged_at"`
}

// ReportMember aggregates a member's logged time across a sprint.
type ReportMember struct {
	MemberID         string             `json:"member_id"`
	TotalLoggedHours float64            `json:"total_logged_hours"`
	Tasks            []ReportMemberTask `json:"tasks,omitempty"`
}

// SprintReport is a point-in-time snapshot of a sprint's outcome.
type SprintReport struct {
	ProjectID      string         `json:"project_id"`
	SprintID       string         `json:"sprint_id"`
	FinalStatusIDs []string       `json:"final_status_ids,omitempty"`
	ReportTasks    []ReportTask   `json:"report_tasks,omitempty"`
	ReportMembers  []ReportMember `json:"report_members,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// LogTimeResult is the /timelogs response: the updated task plus sprint totals.
type LogTimeResult struct {
	Task   Task   `json:"task"`
	Sprint Sprint `json:"sprint"`
}

// CloseResult is the /close response: the closed sprint plus its report.
type CloseResult struct {
	Sprint Sprint       `json:"sprint"`
	Report SprintReport `json:"report"`
}
