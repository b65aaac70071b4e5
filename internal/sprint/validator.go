package sprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MeenalAppSphere/sprintd/internal/store"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// Definition is a candidate sprint as submitted by a client.
type Definition struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	StartedAt time.Time `json:"started_at"`
	EndAt     time.Time `json:"end_at"`
	// MemberIDs limits the capacity snapshot to the named members.
	// Empty means every member of the project.
	MemberIDs []string `json:"member_ids,omitempty"`
}

// ValidateDefinition runs the synchronous checks in fixed order; the first
// failure wins. The start-date check compares at day granularity in now's
// location. The duplicate-name check needs the store and lives in Validate.
func ValidateDefinition(def Definition, now time.Time) error {
	if strings.TrimSpace(def.Name) == "" {
		return &ValidationError{Kind: models.ValidationMissingName, Message: "sprint name is required"}
	}
	if strings.TrimSpace(def.Goal) == "" {
		return &ValidationError{Kind: models.ValidationMissingGoal, Message: "sprint goal is required"}
	}
	if def.StartedAt.IsZero() {
		return &ValidationError{Kind: models.ValidationMissingStart, Message: "sprint start date is required"}
	}
	if def.EndAt.IsZero() {
		return &ValidationError{Kind: models.ValidationMissingEnd, Message: "sprint end date is required"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := def.StartedAt.In(now.Location())
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	if startDay.Before(today) {
		return &ValidationError{
			Kind:    models.ValidationStartInPast,
			Message: fmt.Sprintf("start date %s is before today", startDay.Format("2006-01-02")),
		}
	}
	if def.EndAt.Before(def.StartedAt) {
		return &ValidationError{
			Kind:    models.ValidationEndBeforeStart,
			Message: fmt.Sprintf("end date %s is before start date %s",
				def.EndAt.Format("2006-01-02"), def.StartedAt.Format("2006-01-02")),
		}
	}
	return nil
}

// Validate runs all checks including the duplicate-name lookup.
func Validate(ctx context.Context, st store.Store, def Definition, now time.Time) error {
	if err := ValidateDefinition(def, now); err != nil {
		return err
	}
	exists, err := st.SprintNameExists(ctx, def.ProjectID, def.Name)
	if err != nil {
		return &TxError{Err: err}
	}
	if exists {
		return &ValidationError{
			Kind:    models.ValidationDuplicateName,
			Message: fmt.Sprintf("a sprint named %q already exists in this project", strings.TrimSpace(def.Name)),
		}
	}
	return nil
}
