package pipeline

import (
	"time"

	"SLComply/internal/domain"
	"SLComply/internal/registry"
)

var testNow = time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

type changeOpt func(*domain.Change)

func newChange(id int64, doc, docType string, revised time.Time, opts ...changeOpt) domain.Change {
	c := domain.Change{
		ID:                 id,
		Row:                int(id),
		DocumentName:       doc,
		DocumentType:       docType,
		SectionTitle:       "Intro",
		PageNumber:         1,
		CurrentRevision:    revised,
		CurrentRevisionRaw: revised.Format(DateLayout),
		ChangeText:         "text of change",
		Status:             domain.StatusNotStarted,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func withScore(level domain.Level) changeOpt {
	return func(c *domain.Change) { c.Relevance = level }
}

func withSection(title string) changeOpt {
	return func(c *domain.Change) { c.SectionTitle = title }
}

func withLinks(links map[string]domain.Level) changeOpt {
	return func(c *domain.Change) { c.Links = links }
}

func withStatus(status domain.Status) changeOpt {
	return func(c *domain.Change) {
		c.Status = status
		c.ValidatedNotRelevant = status == domain.StatusNotRelevant
		c.Addressed = status == domain.StatusAddressed
		c.Reviewed = status == domain.StatusReviewed || status == domain.StatusAddressed
	}
}

func withPrevious(revised time.Time, revision, prevRevision string) changeOpt {
	return func(c *domain.Change) {
		c.PreviousRevision = revised
		c.PreviousRevisionRaw = revised.Format(DateLayout)
		c.RevisionNumber = revision
		c.PrevRevisionNumber = prevRevision
	}
}

// enriched runs the same steps as Build: cleaning, then link normalization
// and enrichment.
func enriched(changes ...domain.Change) []domain.EnrichedChange {
	cleaned := Clean(changes)
	return Enrich(cleaned, NormalizeLinks(cleaned, registry.NewRegistry()))
}
