package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SLComply/internal/domain"
)

// DetailQuery selects one document/section/relevance view.
type DetailQuery struct {
	DocType   string
	Document  string
	Recency   string
	Section   string
	Relevance string
}

// DetailRow is one line of the change table.
type DetailRow struct {
	RevisionNumber  string        `json:"revisionNumber,omitempty"`
	CurrentRevision string        `json:"currentRevision"`
	SectionTitle    string        `json:"sectionTitle"`
	PageNumber      int           `json:"pageNumber"`
	ChangeContext   string        `json:"changeContext"`
	Relevance       string        `json:"relevance"`
	StrongLinks     string        `json:"strongLinks"`
	SoftLinks       string        `json:"softLinks"`
	ID              int64         `json:"id"`
	Status          domain.Status `json:"status"`
}

// Detail is the change-review payload for one selection.
type Detail struct {
	DocType  string          `json:"doc_type"`
	Category domain.Category `json:"category"`
	Document string          `json:"document"`

	NumTotalChanges           int `json:"num_tot_changes"`
	NumSectionChanges         int `json:"num_sec_changes"`
	NumRelevantSectionChanges int `json:"num_rel_sec_changes"`

	CurrentRevision      string `json:"current_rev"`
	PreviousRevision     string `json:"previous_rev"`
	CurrentRevisionFile  string `json:"current_rev_file"`
	PreviousRevisionFile string `json:"previous_rev_file"`
	CurrentRevisionURL   string `json:"current_rev_pdf"`
	PreviousRevisionURL  string `json:"previous_rev_pdf"`

	TableHeading  string      `json:"table_heading"`
	StatusOptions []string    `json:"status"`
	Rows          []DetailRow `json:"detail_df"`
}

// AssembleDetail filters the enriched table for one selection and builds the
// detail payload. Revision bookkeeping uses the document's full history,
// independent of the recency window.
func AssembleDetail(rows []domain.EnrichedChange, q DetailQuery, now time.Time) (Detail, error) {
	category, err := ParseDocType(q.DocType)
	if err != nil {
		return Detail{}, err
	}
	class, err := ParseRelevanceClass(q.Relevance)
	if err != nil {
		return Detail{}, err
	}
	window, err := ResolveRecency(q.Recency, now)
	if err != nil {
		return Detail{}, err
	}

	history := ByDocument(ByCategory(rows, category), q.Document)
	if len(history) == 0 {
		return Detail{}, fmt.Errorf("%w: %s (%s)", domain.ErrDocumentNotFound, q.Document, category)
	}

	recent := ByWindow(history, window)
	section := BySection(recent, q.Section)
	selected := ByRelevance(section, class)

	latest := latestRevision(history)
	currentRev := formatRevision(latest.CurrentRevision, latest.CurrentRevisionRaw)
	previousRev := formatRevision(latest.PreviousRevision, latest.PreviousRevisionRaw)

	detail := Detail{
		DocType:                   q.DocType,
		Category:                  category,
		Document:                  q.Document,
		NumTotalChanges:           len(recent),
		NumSectionChanges:         len(section),
		NumRelevantSectionChanges: len(ByRelevance(section, ClassRelevant)),
		CurrentRevision:           currentRev,
		PreviousRevision:          previousRev,
		TableHeading:              tableHeading(q.Section),
		StatusOptions:             StatusLabels,
		Rows:                      detailRows(selected, category),
	}

	if category == domain.CategoryGov {
		detail.CurrentRevisionFile = revisionFile(q.Document, currentRev)
		detail.PreviousRevisionFile = revisionFile(q.Document, previousRev)
	} else {
		detail.CurrentRevisionFile = revisionFile(q.Document, latest.RevisionNumber, currentRev)
		detail.PreviousRevisionFile = revisionFile(q.Document, strings.TrimSpace(latest.PrevRevisionNumber), previousRev)
	}

	return detail, nil
}

// latestRevision picks the row with the greatest revision date, breaking
// ties on the full raw revision string.
func latestRevision(rows []domain.EnrichedChange) domain.EnrichedChange {
	best := rows[0]
	for _, row := range rows[1:] {
		switch {
		case row.CurrentRevision.After(best.CurrentRevision):
			best = row
		case row.CurrentRevision.Equal(best.CurrentRevision) && row.CurrentRevisionRaw > best.CurrentRevisionRaw:
			best = row
		}
	}
	return best
}

func formatRevision(t time.Time, raw string) string {
	if !t.IsZero() {
		return t.Format(DateLayout)
	}
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		return raw[:len(DateLayout)]
	}
	return raw
}

func revisionFile(parts ...string) string {
	return strings.Join(parts, " ") + ".pdf"
}

func tableHeading(section string) string {
	if IsAllSections(section) {
		return "Document Changes Detailed Table"
	}
	return fmt.Sprintf("Section %s Changes Detailed Table", section)
}

// detailRows converts and orders rows by revision date, then ID, both descending.
func detailRows(rows []domain.EnrichedChange, category domain.Category) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		line := DetailRow{
			CurrentRevision: formatRevision(row.CurrentRevision, row.CurrentRevisionRaw),
			SectionTitle:    row.SectionTitle,
			PageNumber:      row.PageNumber,
			ChangeContext:   row.ChangeContext,
			Relevance:       row.Relevance.Label(),
			StrongLinks:     row.StrongLinks,
			SoftLinks:       row.SoftLinks,
			ID:              row.ID,
			Status:          row.Status,
		}
		if category == domain.CategoryNonGov {
			line.RevisionNumber = row.RevisionNumber
		}
		out = append(out, line)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentRevision != out[j].CurrentRevision {
			return out[i].CurrentRevision > out[j].CurrentRevision
		}
		return out[i].ID > out[j].ID
	})
	return out
}
