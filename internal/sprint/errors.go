package sprint

import "fmt"

// ValidationError reports a sprint definition that failed one of the ordered
// validator checks. Kind is one of the models.Validation* constants.
type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}

// RuleError reports a business-rule rejection during task assignment or time
// logging. Code is one of the models.Rule* constants. These are client
// errors: the caller fixes the request, the server never retries.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule violation (%s): %s", e.Code, e.Message)
}

// StateError reports an operation attempted against a sprint in an
// incompatible lifecycle state, e.g. logging time on a closed sprint.
type StateError struct {
	Op     string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: sprint is %s", e.Op, e.Status)
}

// NotFoundError reports a missing sprint, task, column, time log, or report.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// TxError wraps a store failure during a lifecycle transaction. The
// operation rolled back entirely; callers may retry idempotent requests.
type TxError struct {
	Err error
}

func (e *TxError) Error() string { return "transaction failed: " + e.Err.Error() }

func (e *TxError) Unwrap() error { return e.Err }
