package pipeline

import (
	"fmt"
	"time"

	"SLComply/internal/domain"
)

// StatusLookup returns the current status of a change.
type StatusLookup func(id int64) (domain.Status, bool)

// PlanStatusUpdates converts reviewer edits into field-level updates. The
// whole batch is validated before anything is planned, so an unknown status
// or ID yields no updates at all. Every planned status change is accompanied
// by the flag changes that produce it, plus a lastSubmit stamp.
//
// Reverting to "not started" leaves validatedNotRelevant untouched, so a
// change once validated as not relevant derives back to "not relevant" on
// the next refresh.
func PlanStatusUpdates(batch []domain.StatusEdit, current StatusLookup, now time.Time) ([]domain.Update, error) {
	targets := make([]domain.Status, len(batch))
	existing := make([]domain.Status, len(batch))
	for i, edit := range batch {
		target, err := ParseStatus(edit.Value)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", edit.ID, err)
		}
		status, ok := current(edit.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", domain.ErrChangeNotFound, edit.ID)
		}
		targets[i] = target
		existing[i] = status
	}

	var updates []domain.Update
	for i, edit := range batch {
		target := targets[i]
		if target != domain.StatusNotRelevant && target == existing[i] {
			continue
		}

		set := func(field domain.Field, value any) {
			updates = append(updates, domain.Update{ID: edit.ID, Field: field, Value: value})
		}

		switch target {
		case domain.StatusNotRelevant:
			set(domain.FieldValidatedNotRelevant, true)
			set(domain.FieldStatus, domain.StatusNotRelevant)
		case domain.StatusReviewed:
			set(domain.FieldStatus, domain.StatusReviewed)
			set(domain.FieldReviewed, true)
			set(domain.FieldAddressed, false)
		case domain.StatusNotStarted:
			set(domain.FieldStatus, domain.StatusNotStarted)
			set(domain.FieldReviewed, false)
			set(domain.FieldAddressed, false)
		default:
			set(domain.FieldStatus, target)
			set(domain.FieldAddressed, true)
			set(domain.FieldReviewed, true)
		}
		set(domain.FieldLastSubmit, now)
	}

	return updates, nil
}
