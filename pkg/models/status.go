package models

// Sprint statuses. Transitions are one-directional:
// draft -> in_progress -> completed -> closed.
const (
	SprintDraft      = "draft"
	SprintInProgress = "in_progress"
	SprintCompleted  = "completed"
	SprintClosed     = "closed"
)

// Business-rule failure codes for sprint task assignment.
const (
	RuleTaskNoAssignee       = "task_no_assignee"
	RuleTaskNoEstimate       = "task_no_estimate"
	RuleAlreadyInSprint      = "task_already_in_sprint"
	RuleMemberCapacityExceed = "member_capacity_exceed"
)

// Validation failure kinds for sprint definitions, in check order.
const (
	ValidationMissingName    = "missing_name"
	ValidationMissingGoal    = "missing_goal"
	ValidationMissingStart   = "missing_start_date"
	ValidationMissingEnd     = "missing_end_date"
	ValidationStartInPast    = "start_date_in_past"
	ValidationEndBeforeStart = "end_before_start"
	ValidationDuplicateName  = "duplicate_name"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultSprintListLimit     = 500
	DefaultSSEChannelBuffer    = 256
	DefaultSweepIntervalSec    = 60
)
