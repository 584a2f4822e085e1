package pipeline

import (
	"sort"

	"SLComply/internal/domain"
	"SLComply/internal/registry"
)

// NormalizeLinks unpivots the SL columns of every change into one relation
// per (change, related document) with a non-zero level. Keys the registry
// cannot decode are skipped and remain listed in reg.Rejected().
func NormalizeLinks(changes []domain.Change, reg *registry.Registry) []domain.LinkRelation {
	type pair struct {
		id  int64
		doc string
	}

	index := map[pair]int{}
	var relations []domain.LinkRelation

	for _, change := range changes {
		if !hasRelation(change.Links) {
			continue
		}

		category := domain.CategoryOf(change.DocumentType)
		for _, key := range sortedKeys(change.Links) {
			level := change.Links[key]
			if level == domain.LevelNone {
				continue
			}

			name, err := reg.Register(category, key)
			if err != nil {
				continue
			}

			p := pair{id: change.ID, doc: name}
			if i, ok := index[p]; ok {
				if level > relations[i].Level {
					relations[i].Level = level
				}
				continue
			}
			index[p] = len(relations)
			relations = append(relations, domain.LinkRelation{
				ChangeID: change.ID,
				Key:      key,
				Document: name,
				Level:    level,
			})
		}
	}

	return relations
}

func hasRelation(links map[string]domain.Level) bool {
	for _, level := range links {
		if level != domain.LevelNone {
			return true
		}
	}
	return false
}

func sortedKeys(links map[string]domain.Level) []string {
	keys := make([]string, 0, len(links))
	for key := range links {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
