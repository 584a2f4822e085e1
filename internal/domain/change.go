package domain

import (
	"strings"
	"time"
)

// Level is a relevance value in {0, 0.5, 1}.
type Level float64

const (
	LevelNone   Level = 0
	LevelSoft   Level = 0.5
	LevelStrong Level = 1
)

// Label maps a classifier score to the relevance wording shown to reviewers.
func (l Level) Label() string {
	switch {
	case l == LevelStrong:
		return "relevant"
	case l == LevelSoft:
		return "maybe relevant"
	default:
		return "not relevant"
	}
}

// Category separates government legislation from non-government guidance.
type Category string

const (
	CategoryGov    Category = "gov"
	CategoryNonGov Category = "non-gov"
)

// Matches reports whether a raw documentType value belongs to the category.
// Matching is by the literal prefixes "gov" and "non".
func (c Category) Matches(documentType string) bool {
	switch c {
	case CategoryGov:
		return strings.HasPrefix(documentType, "gov")
	case CategoryNonGov:
		return strings.HasPrefix(documentType, "non")
	default:
		return false
	}
}

// Status is the review workflow state of a change.
type Status string

const (
	StatusNotStarted  Status = "not started"
	StatusReviewed    Status = "reviewed"
	StatusAddressed   Status = "addressed"
	StatusNotRelevant Status = "not relevant"
)

// DeriveStatus applies the flag precedence validatedNotRelevant > addressed > reviewed.
func DeriveStatus(validatedNotRelevant, addressed, reviewed bool) Status {
	switch {
	case validatedNotRelevant:
		return StatusNotRelevant
	case addressed:
		return StatusAddressed
	case reviewed:
		return StatusReviewed
	default:
		return StatusNotStarted
	}
}

// Change is one detected textual difference between two document revisions.
type Change struct {
	ID  int64
	Row int

	DocumentName string
	DocumentType string
	SectionTitle string
	PageNumber   int

	CurrentRevision     time.Time
	CurrentRevisionRaw  string
	PreviousRevision    time.Time
	PreviousRevisionRaw string
	RevisionNumber      string
	PrevRevisionNumber  string

	ChangeText        string
	PreviousParagraph string
	NextParagraph     string

	Relevance Level

	Reviewed             bool
	Addressed            bool
	ValidatedNotRelevant bool
	Status               Status

	// Links holds the raw SL columns keyed by their internal column name.
	Links map[string]Level

	LastSubmit time.Time
}

// Document returns the cleaned document name.
func (c Change) Document() string { return c.DocumentName }

// Type returns the raw documentType value.
func (c Change) Type() string { return c.DocumentType }

// RevisionDate returns the current revision date.
func (c Change) RevisionDate() time.Time { return c.CurrentRevision }

// Section returns the section title.
func (c Change) Section() string { return c.SectionTitle }

// LinkRelation is one unpivoted SL column value for a change.
type LinkRelation struct {
	ChangeID int64
	Key      string
	Document string
	Level    Level
}

// EnrichedChange is a Change extended with display columns.
type EnrichedChange struct {
	Change
	StrongLinks   string
	SoftLinks     string
	ChangeContext string
}

// GraphRow pairs a relevant change with one related document for the visual views.
type GraphRow struct {
	Change
	RelatedDocument string
	LinkLevel       Level
}

// CategoryOf classifies a raw documentType value; unknown values yield "".
func CategoryOf(documentType string) Category {
	switch {
	case CategoryGov.Matches(documentType):
		return CategoryGov
	case CategoryNonGov.Matches(documentType):
		return CategoryNonGov
	default:
		return ""
	}
}
