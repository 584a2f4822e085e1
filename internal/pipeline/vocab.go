package pipeline

import (
	"fmt"
	"strings"

	"SLComply/internal/domain"
)

// DateLayout is the display format of revision dates.
const DateLayout = "2006-01-02"

// Option lists offered to reviewers.
var (
	DocTypes           = []string{"Legislation", "Guidance"}
	RelevanceClasses   = []string{"not relevant", "relevant", "maybe relevant", "all"}
	RecencyPeriods     = []string{"1 month", "3 months", "6 months", "1 year", "2 years", "Historical"}
	LinkRelevanceTypes = []string{"Strong", "Soft"}
	StatusLabels       = []string{"Not Started", "Reviewed", "Addressed", "Not Relevant"}
)

// RelevanceClass selects changes by classifier score and review status.
type RelevanceClass string

const (
	ClassRelevant      RelevanceClass = "relevant"
	ClassMaybeRelevant RelevanceClass = "maybe relevant"
	ClassNotRelevant   RelevanceClass = "not relevant"
	ClassAll           RelevanceClass = "all"
)

// ParseRelevanceClass accepts the four relevance classes, case-insensitively.
func ParseRelevanceClass(value string) (RelevanceClass, error) {
	switch RelevanceClass(strings.ToLower(strings.TrimSpace(value))) {
	case ClassRelevant:
		return ClassRelevant, nil
	case ClassMaybeRelevant:
		return ClassMaybeRelevant, nil
	case ClassNotRelevant:
		return ClassNotRelevant, nil
	case ClassAll:
		return ClassAll, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidRelevanceClass, value)
}

// ParseDocType maps "Legislation"/"Guidance" (or a category name) to a category.
func ParseDocType(value string) (domain.Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "legislation", string(domain.CategoryGov):
		return domain.CategoryGov, nil
	case "guidance", string(domain.CategoryNonGov):
		return domain.CategoryNonGov, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidDocType, value)
}

// ParseLinkRelevance maps "Strong" to 1.0 and "Soft" to 0.5.
func ParseLinkRelevance(value string) (domain.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strong":
		return domain.LevelStrong, nil
	case "soft":
		return domain.LevelSoft, nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLinkRelevance, value)
}

// ParseStatus accepts one of the four workflow states, case-insensitively.
func ParseStatus(value string) (domain.Status, error) {
	switch s := domain.Status(strings.ToLower(strings.TrimSpace(value))); s {
	case domain.StatusNotStarted, domain.StatusReviewed, domain.StatusAddressed, domain.StatusNotRelevant:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, value)
}
