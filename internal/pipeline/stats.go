package pipeline

import (
	"sort"
	"time"

	"SLComply/internal/domain"
)

// BacklogStats counts changes per review status.
type BacklogStats struct {
	NotStarted int `json:"not started"`
	Reviewed   int `json:"reviewed"`
	Addressed  int `json:"addressed"`
}

// Backlog counts not-started, reviewed and addressed changes revised on or after since.
func Backlog(rows []domain.EnrichedChange, since time.Time) BacklogStats {
	var stats BacklogStats
	for _, row := range rows {
		if row.CurrentRevision.Before(since) {
			continue
		}
		switch row.Status {
		case domain.StatusNotStarted:
			stats.NotStarted++
		case domain.StatusReviewed:
			stats.Reviewed++
		case domain.StatusAddressed:
			stats.Addressed++
		}
	}
	return stats
}

// RecentDocStats summarizes the classifier scores of a document's latest revision.
type RecentDocStats struct {
	Document      string          `json:"doc"`
	Category      domain.Category `json:"category"`
	RevisionDate  time.Time       `json:"rev_date"`
	FormattedDate string          `json:"rev_formatted_date"`
	Relevant      int             `json:"relevant"`
	MaybeRelevant int             `json:"maybe_relevant"`
	NotRelevant   int             `json:"not_relevant"`
}

// TopRecent returns stats for the n most recently revised documents, newest first.
func TopRecent(rows []domain.EnrichedChange, n int) []RecentDocStats {
	type docKey struct {
		name     string
		category domain.Category
	}

	latest := map[docKey]time.Time{}
	for _, row := range rows {
		key := docKey{row.DocumentName, domain.CategoryOf(row.DocumentType)}
		if t, ok := latest[key]; !ok || row.CurrentRevision.After(t) {
			latest[key] = row.CurrentRevision
		}
	}

	stats := map[docKey]*RecentDocStats{}
	for _, row := range rows {
		key := docKey{row.DocumentName, domain.CategoryOf(row.DocumentType)}
		if !row.CurrentRevision.Equal(latest[key]) {
			continue
		}
		s, ok := stats[key]
		if !ok {
			s = &RecentDocStats{
				Document:      key.name,
				Category:      key.category,
				RevisionDate:  latest[key],
				FormattedDate: latest[key].Format("02/01/2006"),
			}
			stats[key] = s
		}
		switch row.Relevance {
		case domain.LevelStrong:
			s.Relevant++
		case domain.LevelSoft:
			s.MaybeRelevant++
		case domain.LevelNone:
			s.NotRelevant++
		}
	}

	out := make([]RecentDocStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RevisionDate.Equal(out[j].RevisionDate) {
			return out[i].RevisionDate.After(out[j].RevisionDate)
		}
		return out[i].Document < out[j].Document
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SectionOption is a section title keyed by the row index of its first occurrence.
type SectionOption struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Sections lists distinct section titles in source row order.
func Sections(rows []domain.EnrichedChange) []SectionOption {
	first := map[string]int{}
	for _, row := range rows {
		if i, ok := first[row.SectionTitle]; !ok || row.Row < i {
			first[row.SectionTitle] = row.Row
		}
	}

	out := make([]SectionOption, 0, len(first))
	for title, index := range first {
		out = append(out, SectionOption{Index: index, Title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Documents lists the distinct document names of a category, sorted.
func Documents[R Row](rows []R, category domain.Category) []string {
	seen := map[string]struct{}{}
	for _, row := range ByCategory(rows, category) {
		seen[row.Document()] = struct{}{}
	}
	return sortedSet(seen)
}
