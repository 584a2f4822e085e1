package pipeline

import (
	"strings"

	"SLComply/internal/domain"
)

const (
	linkSeparator    = "<br>"
	missingParagraph = "None"
)

// Enrich adds the strong/soft link display columns and the change context to
// every change. Links are suppressed, not filtered, for changes scored below
// maybe-relevant.
func Enrich(changes []domain.Change, relations []domain.LinkRelation) []domain.EnrichedChange {
	strong := map[int64][]string{}
	soft := map[int64][]string{}
	for _, rel := range relations {
		switch rel.Level {
		case domain.LevelStrong:
			strong[rel.ChangeID] = append(strong[rel.ChangeID], rel.Document)
		case domain.LevelSoft:
			soft[rel.ChangeID] = append(soft[rel.ChangeID], rel.Document)
		}
	}

	enriched := make([]domain.EnrichedChange, 0, len(changes))
	for _, change := range changes {
		row := domain.EnrichedChange{
			Change:        change,
			ChangeContext: ChangeContext(change.ChangeText, change.PreviousParagraph, change.NextParagraph),
		}
		if change.Relevance >= domain.LevelSoft {
			row.StrongLinks = strings.Join(strong[change.ID], linkSeparator)
			row.SoftLinks = strings.Join(soft[change.ID], linkSeparator)
		}
		enriched = append(enriched, row)
	}
	return enriched
}

// ChangeContext formats the previous paragraph, the change and the next
// paragraph as one HTML block.
func ChangeContext(change, previous, next string) string {
	var b strings.Builder
	b.WriteString("<strong><i>Previous:</i></strong><br>")
	b.WriteString(orMissing(previous))
	b.WriteString("<br><br><strong>Change:</strong><br>")
	b.WriteString(orMissing(change))
	b.WriteString("<br><br><strong><i>Next:</i></strong><br>")
	b.WriteString(orMissing(next))
	return b.String()
}

func orMissing(text string) string {
	if text == "" {
		return missingParagraph
	}
	return text
}

// GraphRows joins relevant changes with their related documents for the
// hierarchy and flow views. The SL columns are dropped from each row.
func GraphRows(changes []domain.Change, relations []domain.LinkRelation) []domain.GraphRow {
	byChange := map[int64][]domain.LinkRelation{}
	for _, rel := range relations {
		byChange[rel.ChangeID] = append(byChange[rel.ChangeID], rel)
	}

	var rows []domain.GraphRow
	for _, change := range changes {
		if change.Relevance < domain.LevelSoft {
			continue
		}
		change.Links = nil
		for _, rel := range byChange[change.ID] {
			rows = append(rows, domain.GraphRow{
				Change:          change,
				RelatedDocument: rel.Document,
				LinkLevel:       rel.Level,
			})
		}
	}
	return rows
}
