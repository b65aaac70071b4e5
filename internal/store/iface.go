package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by lookups that report a missing row as an error
// (GetProject, GetMember); callers match it with errors.Is.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface for projects, members, sprints, tasks,
// time logs, and sprint reports.
// Implementations: the default SQLite store (this package) and *postgres.Store.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name string, defaultCapacityPerDay float64, workingDays string) (Project, error)
	GetProject(ctx context.Context, projectID string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	// Members
	CreateMember(ctx context.Context, projectID, name, email string, capacityPerDay float64, workingDays string) (Member, error)
	GetMember(ctx context.Context, memberID string) (Member, error)
	ListMembers(ctx context.Context, projectID string) ([]Member, error)

	// Statuses
	CreateStatus(ctx context.Context, projectID, name string, position int) (Status, error)
	ListStatuses(ctx context.Context, projectID string) ([]Status, error)

	// Tasks
	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	ListTasksBySprint(ctx context.Context, sprintID string) ([]Task, error)

	// Sprints
	GetSprint(ctx context.Context, sprintID string) (*Sprint, error)
	ListSprintsByProject(ctx context.Context, projectID string, limit int) ([]Sprint, error)
	// SprintNameExists reports whether a non-deleted sprint with the name
	// (case-insensitive) exists in the project.
	SprintNameExists(ctx context.Context, projectID, name string) (bool, error)
	ListSprintColumns(ctx context.Context, sprintID string) ([]SprintColumn, error)
	ListSprintTasks(ctx context.Context, sprintID string) ([]SprintTask, error)
	ListMemberCapacities(ctx context.Context, sprintID string) ([]MemberCapacity, error)
	// ListOverdueSprints returns in-progress sprints whose end date passed.
	ListOverdueSprints(ctx context.Context, now time.Time) ([]Sprint, error)

	// Time logs
	GetTimeLog(ctx context.Context, logID string) (*TimeLog, error)
	ListTimeLogsBySprint(ctx context.Context, sprintID string) ([]TimeLog, error)
	SumLoggedHours(ctx context.Context, taskID string) (float64, error)

	// Reports
	GetReport(ctx context.Context, projectID, sprintID string) (*SprintReport, error)
	ListClosedSprintsWithoutReport(ctx context.Context) ([]Sprint, error)

	// WithTx runs fn inside a single all-or-nothing transaction. The error
	// returned by fn aborts the transaction and is returned verbatim.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the mutation surface available inside a WithTx transaction.
type Tx interface {
	InsertSprint(ctx context.Context, s Sprint) error
	UpdateSprintStatus(ctx context.Context, sprintID, status string, at time.Time) error
	// UpdateSprintTotals overwrites the three running totals in one write
	// (total capacity is fixed at creation); callers recompute them from
	// loaded rows rather than incrementing.
	UpdateSprintTotals(ctx context.Context, sprintID string, totalEstimation, totalLogged, totalOverLogged float64, at time.Time) error
	InsertSprintColumn(ctx context.Context, c SprintColumn) error
	InsertMemberCapacity(ctx context.Context, mc MemberCapacity) error
	SetProjectActiveSprint(ctx context.Context, projectID string, sprintID *string) error

	InsertSprintTask(ctx context.Context, st SprintTask) error
	DeleteSprintTask(ctx context.Context, sprintID, taskID string) error
	// UpdateSprintTaskPlacement moves a linked task to a column/sequence.
	UpdateSprintTaskPlacement(ctx context.Context, sprintID, taskID, columnID string, sequence int) error
	SetSprintTaskMoved(ctx context.Context, sprintID, taskID, movedByID string, movedAt time.Time) error

	SetTaskSprint(ctx context.Context, taskID string, sprintID *string, at time.Time) error
	UpdateTaskHours(ctx context.Context, taskID string, logged, remaining, overLogged float64, at time.Time) error

	InsertTimeLog(ctx context.Context, tl TimeLog) error
	SoftDeleteTimeLog(ctx context.Context, logID string, at time.Time) error

	// SaveReport replaces any existing report for (project, sprint) wholesale.
	SaveReport(ctx context.Context, r SprintReport) error
}
