package pipeline

import (
	"strings"
	"time"

	"SLComply/internal/domain"
)

// Row is the common shape of enriched changes and graph rows.
type Row interface {
	Type() string
	Document() string
	RevisionDate() time.Time
	Section() string
}

func filter[R any](rows []R, keep func(R) bool) []R {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// ByCategory keeps rows whose documentType belongs to the category.
func ByCategory[R Row](rows []R, category domain.Category) []R {
	return filter(rows, func(r R) bool { return category.Matches(r.Type()) })
}

// ByDocument keeps rows for exactly one document name.
func ByDocument[R Row](rows []R, name string) []R {
	return filter(rows, func(r R) bool { return r.Document() == name })
}

// ByWindow keeps rows revised strictly after the window cutoff; historical
// windows keep everything.
func ByWindow[R Row](rows []R, window Window) []R {
	if window.Historical {
		return rows
	}
	return filter(rows, func(r R) bool { return window.Contains(r.RevisionDate()) })
}

// ByRecency resolves the period against now and applies ByWindow.
func ByRecency[R Row](rows []R, period string, now time.Time) ([]R, error) {
	window, err := ResolveRecency(period, now)
	if err != nil {
		return nil, err
	}
	return ByWindow(rows, window), nil
}

// IsAllSections recognizes the "All"/"all" section sentinel.
func IsAllSections(section string) bool {
	return strings.EqualFold(strings.TrimSpace(section), "all")
}

// BySection keeps rows with the given section title, or all rows for the sentinel.
func BySection[R Row](rows []R, section string) []R {
	if IsAllSections(section) {
		return rows
	}
	return filter(rows, func(r R) bool { return r.Section() == section })
}

// ByRelevance selects rows for a relevance class. A change validated as not
// relevant never counts as relevant or maybe relevant, whatever its score.
func ByRelevance(rows []domain.EnrichedChange, class RelevanceClass) []domain.EnrichedChange {
	switch class {
	case ClassRelevant:
		return filter(rows, func(r domain.EnrichedChange) bool {
			return r.Relevance == domain.LevelStrong && r.Status != domain.StatusNotRelevant
		})
	case ClassMaybeRelevant:
		return filter(rows, func(r domain.EnrichedChange) bool {
			return r.Relevance == domain.LevelSoft && r.Status != domain.StatusNotRelevant
		})
	case ClassNotRelevant:
		return filter(rows, func(r domain.EnrichedChange) bool {
			return r.Relevance == domain.LevelNone || r.Status == domain.StatusNotRelevant
		})
	default:
		return rows
	}
}

// ByLinkLevel keeps graph rows whose related-document link has the given level.
func ByLinkLevel(rows []domain.GraphRow, level domain.Level) []domain.GraphRow {
	return filter(rows, func(r domain.GraphRow) bool { return r.LinkLevel == level })
}
