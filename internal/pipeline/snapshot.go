package pipeline

import (
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"SLComply/internal/domain"
	"SLComply/internal/registry"
)

// Snapshot holds every table derived from one read of the change source.
// A published snapshot is never mutated; updates produce a modified copy.
type Snapshot struct {
	Version string
	BuiltAt time.Time

	Changes   []domain.EnrichedChange
	Graph     []domain.GraphRow
	Relations []domain.LinkRelation
	Registry  *registry.Registry

	GovDocs    []string
	NonGovDocs []string
	TopDocs    []RecentDocStats

	index map[int64][]int
}

// BuildOptions parameterizes snapshot construction.
type BuildOptions struct {
	Version      string
	TopDocuments int
	Now          time.Time
}

// Empty returns a snapshot without rows, served before the first refresh succeeds.
func Empty() *Snapshot {
	return &Snapshot{Registry: registry.NewRegistry(), index: map[int64][]int{}}
}

// Build runs cleaning, link normalization and enrichment over the raw rows.
func Build(ctx context.Context, raw []domain.Change, opts BuildOptions) (*Snapshot, error) {
	changes := Clean(raw)
	reg := registry.NewRegistry()
	relations := NormalizeLinks(changes, reg)

	snap := &Snapshot{
		Version:   opts.Version,
		BuiltAt:   opts.Now,
		Relations: relations,
		Registry:  reg,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Changes = Enrich(changes, relations)
		if err := gctx.Err(); err != nil {
			return err
		}
		snap.GovDocs = Documents(snap.Changes, domain.CategoryGov)
		snap.NonGovDocs = Documents(snap.Changes, domain.CategoryNonGov)
		snap.TopDocs = TopRecent(snap.Changes, opts.TopDocuments)
		return nil
	})
	g.Go(func() error {
		snap.Graph = GraphRows(changes, relations)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.reindex()
	return snap, nil
}

func (s *Snapshot) reindex() {
	s.index = make(map[int64][]int, len(s.Changes))
	for i, row := range s.Changes {
		s.index[row.ID] = append(s.index[row.ID], i)
	}
}

// Status returns the current status of a change.
func (s *Snapshot) Status(id int64) (domain.Status, bool) {
	positions := s.index[id]
	if len(positions) == 0 {
		return "", false
	}
	return s.Changes[positions[0]].Status, true
}

// Documents lists document names for a category.
func (s *Snapshot) Documents(category domain.Category) []string {
	if category == domain.CategoryGov {
		return s.GovDocs
	}
	return s.NonGovDocs
}

// WithUpdates returns a copy of the snapshot with the updates mirrored onto
// the affected changes. The receiver is left untouched.
func (s *Snapshot) WithUpdates(updates []domain.Update) *Snapshot {
	next := *s
	next.Changes = slices.Clone(s.Changes)
	for _, u := range updates {
		for _, i := range s.index[u.ID] {
			u.Apply(&next.Changes[i].Change)
		}
	}
	return &next
}
