package domain

import "time"

// Field names a column touched by a status update.
type Field string

const (
	FieldStatus               Field = "status"
	FieldReviewed             Field = "reviewed"
	FieldAddressed            Field = "addressed"
	FieldValidatedNotRelevant Field = "validatedNotRelevant"
	FieldLastSubmit           Field = "lastSubmit"
)

// Persisted reports whether the field is stored; status is derived from the flags.
func (f Field) Persisted() bool {
	return f != FieldStatus
}

// Update is a single field-level mutation for one change.
type Update struct {
	ID    int64
	Field Field
	Value any
}

// StatusEdit is a reviewer's requested status for one change.
type StatusEdit struct {
	ID    int64
	Value string
}

// Apply mirrors the update onto an in-memory change.
func (u Update) Apply(c *Change) {
	switch u.Field {
	case FieldStatus:
		if v, ok := u.Value.(Status); ok {
			c.Status = v
		}
	case FieldReviewed:
		if v, ok := u.Value.(bool); ok {
			c.Reviewed = v
		}
	case FieldAddressed:
		if v, ok := u.Value.(bool); ok {
			c.Addressed = v
		}
	case FieldValidatedNotRelevant:
		if v, ok := u.Value.(bool); ok {
			c.ValidatedNotRelevant = v
		}
	case FieldLastSubmit:
		if v, ok := u.Value.(time.Time); ok {
			c.LastSubmit = v
		}
	}
}
