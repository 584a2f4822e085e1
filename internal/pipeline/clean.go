package pipeline

import (
	"regexp"
	"strings"

	"SLComply/internal/domain"
)

var (
	nameDateExpr     = regexp.MustCompile(`\s([0-9]{4}-[0-9]{2}-[0-9]{2})`)
	nameRevisionExpr = regexp.MustCompile(`\sRev[0-9]+|\.[0-9]+`)
)

// CleanDocumentName removes the revision date and revision number suffixes
// the detector appends to file-derived names.
func CleanDocumentName(name string) string {
	name = nameDateExpr.ReplaceAllString(name, "")
	name = nameRevisionExpr.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// Clean drops rows without a document name, normalizes names and types and
// derives each row's status from its review flags.
func Clean(changes []domain.Change) []domain.Change {
	cleaned := make([]domain.Change, 0, len(changes))
	for _, change := range changes {
		if strings.TrimSpace(change.DocumentName) == "" {
			continue
		}
		change.DocumentName = CleanDocumentName(change.DocumentName)
		change.DocumentType = strings.TrimSpace(change.DocumentType)
		change.RevisionNumber = strings.TrimSpace(change.RevisionNumber)
		change.PrevRevisionNumber = strings.TrimSpace(change.PrevRevisionNumber)
		change.Status = domain.DeriveStatus(change.ValidatedNotRelevant, change.Addressed, change.Reviewed)
		cleaned = append(cleaned, change)
	}
	return cleaned
}
