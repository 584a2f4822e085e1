package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"SLComply/internal/domain"
	"SLComply/internal/pipeline"
)

var reviewNow = time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	mu      sync.Mutex
	changes []domain.Change
	err     error
	calls   int
}

func (s *stubSource) LoadChanges(context.Context) ([]domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Change(nil), s.changes...), nil
}

type stubWriter struct {
	err     error
	batches [][]domain.Update
}

func (w *stubWriter) ApplyUpdates(_ context.Context, updates []domain.Update) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, updates)
	return nil
}

type stubLinker struct{ err error }

func (l stubLinker) DocumentURL(_ context.Context, category domain.Category, filename string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return "https://blob.local/" + string(category) + "/" + filename, nil
}

type memoryCache struct {
	entries map[string][]byte
	gets    int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.entries[key] = payload
	return nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func fixtureChanges() []domain.Change {
	return []domain.Change{
		{
			ID: 1, Row: 0, DocumentName: "Doc A", DocumentType: "gov", SectionTitle: "Intro",
			CurrentRevision: day(2024, 3, 1), CurrentRevisionRaw: "2024-03-01",
			PreviousRevision: day(2023, 6, 1), PreviousRevisionRaw: "2023-06-01",
			ChangeText: "new clause", Relevance: domain.LevelStrong,
			Links: map[string]domain.Level{"SLM_1_05_03": domain.LevelStrong, "SLM_1_06_01": domain.LevelSoft},
		},
		{
			ID: 2, Row: 1, DocumentName: "Doc A", DocumentType: "gov", SectionTitle: "Scope",
			CurrentRevision: day(2024, 3, 1), CurrentRevisionRaw: "2024-03-01",
			ChangeText: "scope change", Relevance: domain.LevelSoft, Reviewed: true,
			Links: map[string]domain.Level{"SLM_1_05_03": domain.LevelStrong, "bad key": domain.LevelSoft},
		},
		{
			ID: 3, Row: 2, DocumentName: "Doc B", DocumentType: "non-gov", SectionTitle: "Intro",
			CurrentRevision: day(2021, 1, 1), CurrentRevisionRaw: "2021-01-01",
			RevisionNumber: "2", PrevRevisionNumber: "1", Addressed: true,
		},
	}
}

func newTestService(t *testing.T, deps ReviewDeps) *ReviewService {
	t.Helper()
	if deps.Source == nil {
		deps.Source = &stubSource{changes: fixtureChanges()}
	}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	deps.Now = func() time.Time { return reviewNow }
	svc := NewReviewService(deps)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return svc
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{})
	snap := svc.Snapshot()
	if snap.Version == "" || len(snap.Changes) != 3 {
		t.Fatalf("unexpected snapshot: version=%q changes=%d", snap.Version, len(snap.Changes))
	}

	docs, err := svc.Documents("Legislation")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 1 || docs[0] != "Doc A" {
		t.Fatalf("documents = %v", docs)
	}
	if _, err := svc.Documents("Memo"); !errors.Is(err, domain.ErrInvalidDocType) {
		t.Fatalf("error = %v, want ErrInvalidDocType", err)
	}
}

func TestRelatedDocuments(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{})
	related, err := svc.RelatedDocuments("Legislation")
	if err != nil {
		t.Fatalf("RelatedDocuments: %v", err)
	}
	if len(related) != 2 || related[0] != "SLM 1.05.03" || related[1] != "SLM 1.06.01" {
		t.Fatalf("related = %v", related)
	}

	guidance, err := svc.RelatedDocuments("Guidance")
	if err != nil || len(guidance) != 0 {
		t.Fatalf("guidance related = %v, %v", guidance, err)
	}
	if _, err := svc.RelatedDocuments("Memo"); !errors.Is(err, domain.ErrInvalidDocType) {
		t.Fatalf("error = %v, want ErrInvalidDocType", err)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	source := &stubSource{changes: fixtureChanges()}
	svc := newTestService(t, ReviewDeps{Source: source})
	before := svc.Snapshot()

	source.mu.Lock()
	source.err = errors.New("connection refused")
	source.mu.Unlock()

	err := svc.Refresh(context.Background())
	if !errors.Is(err, domain.ErrDataSourceUnavailable) {
		t.Fatalf("error = %v, want ErrDataSourceUnavailable", err)
	}
	if svc.Snapshot() != before {
		t.Fatalf("previous snapshot must stay published")
	}
}

func TestSections(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{})
	sections, err := svc.Sections("Legislation", "Doc A", "1 year")
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(sections) != 2 || sections[0].Title != "Intro" || sections[1].Title != "Scope" {
		t.Fatalf("sections = %+v", sections)
	}

	sections, err = svc.Sections("Guidance", "Doc B", "1 month")
	if err != nil || len(sections) != 0 {
		t.Fatalf("expected no sections in window, got %+v (%v)", sections, err)
	}

	if _, err := svc.Sections("Guidance", "Doc A", "1 year"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDetailAttachesDocumentLinks(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{Linker: stubLinker{}})
	detail, err := svc.Detail(context.Background(), pipeline.DetailQuery{
		DocType: "Legislation", Document: "Doc A", Recency: "1 year", Section: "All", Relevance: "all",
	})
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.CurrentRevisionURL != "https://blob.local/gov/Doc A 2024-03-01.pdf" {
		t.Fatalf("current url = %q", detail.CurrentRevisionURL)
	}
	if detail.NumTotalChanges != 2 || len(detail.Rows) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	broken := newTestService(t, ReviewDeps{Linker: stubLinker{err: errors.New("offline")}})
	detail, err = broken.Detail(context.Background(), pipeline.DetailQuery{
		DocType: "Legislation", Document: "Doc A", Recency: "1 year", Section: "All", Relevance: "all",
	})
	if err != nil {
		t.Fatalf("link failures must not fail the detail: %v", err)
	}
	if detail.CurrentRevisionURL != "" || detail.CurrentRevisionFile == "" {
		t.Fatalf("unexpected detail links: %+v", detail)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{BacklogStart: day(2022, 1, 1), TopDocuments: 3})
	if got := svc.BacklogStats(time.Time{}); got != (pipeline.BacklogStats{NotStarted: 1, Reviewed: 1}) {
		t.Fatalf("backlog = %+v", got)
	}
	if got := svc.BacklogStats(day(2020, 1, 1)); got.Addressed != 1 {
		t.Fatalf("backlog with explicit cutoff = %+v", got)
	}

	top := svc.TopRecentStats(3)
	if len(top) != 2 || top[0].Document != "Doc A" || top[0].Relevant != 1 || top[0].MaybeRelevant != 1 {
		t.Fatalf("top documents = %+v", top)
	}
	if one := svc.TopRecentStats(1); len(one) != 1 {
		t.Fatalf("expected one document, got %+v", one)
	}
}

func TestSaveStatusesMirrorsIntoSnapshot(t *testing.T) {
	t.Parallel()

	writer := &stubWriter{}
	svc := newTestService(t, ReviewDeps{Writer: writer})

	result, err := svc.SaveStatuses(context.Background(), []domain.StatusEdit{
		{ID: 1, Value: "Addressed"},
		{ID: 2, Value: "Reviewed"},
	})
	if err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}
	if !result.Success || result.Message != "Your changes have been saved at 31/03/2024 12:00:00" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(writer.batches) != 1 || len(writer.batches[0]) != 4 {
		t.Fatalf("writer batches = %+v", writer.batches)
	}
	if status, _ := svc.Snapshot().Status(1); status != domain.StatusAddressed {
		t.Fatalf("status after save = %q", status)
	}
}

func TestSaveStatusesFailureLeavesSnapshot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, ReviewDeps{Writer: &stubWriter{err: errors.New("tx aborted")}})
	before := svc.Snapshot()

	result, err := svc.SaveStatuses(context.Background(), []domain.StatusEdit{{ID: 1, Value: "Reviewed"}})
	if !errors.Is(err, domain.ErrPersistenceWriteFailed) {
		t.Fatalf("error = %v, want ErrPersistenceWriteFailed", err)
	}
	if result.Success || !strings.Contains(result.Message, "have not been saved") {
		t.Fatalf("unexpected result: %+v", result)
	}
	if svc.Snapshot() != before {
		t.Fatalf("snapshot must not change on failed save")
	}

	if _, err := svc.SaveStatuses(context.Background(), []domain.StatusEdit{{ID: 1, Value: "Pending"}}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestGraphViewsUseCache(t *testing.T) {
	t.Parallel()

	cache := &memoryCache{entries: map[string][]byte{}}
	svc := newTestService(t, ReviewDeps{Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	flow, err := svc.FlowView(ctx, "Legislation", "Strong", "1 year")
	if err != nil {
		t.Fatalf("FlowView: %v", err)
	}
	if len(flow.Nodes) != 2 || len(flow.Links) != 1 || flow.Links[0].Value != 2 {
		t.Fatalf("unexpected flow: %+v", flow)
	}
	if len(cache.entries) != 1 {
		t.Fatalf("flow view not cached: %v", cache.entries)
	}

	again, err := svc.FlowView(ctx, "Legislation", "strong", "1 year")
	if err != nil {
		t.Fatalf("FlowView: %v", err)
	}
	if len(again.Links) != 1 || len(cache.entries) != 1 {
		t.Fatalf("expected cache hit, got %+v", again)
	}

	tree, err := svc.HierarchyView(ctx, "Legislation", "Doc A", "Soft", "Historical")
	if err != nil {
		t.Fatalf("HierarchyView: %v", err)
	}
	if len(tree.Nodes) != 3 || tree.Nodes[0].Value != 1 || tree.Nodes[1].Label != "SLM 1.06.01" {
		t.Fatalf("unexpected hierarchy: %+v", tree)
	}

	if _, err := svc.HierarchyView(ctx, "Legislation", "Doc Z", "Soft", "Historical"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound", err)
	}
	if _, err := svc.FlowView(ctx, "Legislation", "Medium", "1 year"); !errors.Is(err, domain.ErrInvalidLinkRelevance) {
		t.Fatalf("error = %v, want ErrInvalidLinkRelevance", err)
	}
}

func TestHierarchyCacheKeepsDocumentCase(t *testing.T) {
	t.Parallel()

	changes := []domain.Change{
		{
			ID: 1, Row: 0, DocumentName: "Doc A", DocumentType: "gov", SectionTitle: "Intro",
			CurrentRevision: day(2024, 3, 1), CurrentRevisionRaw: "2024-03-01",
			ChangeText: "upper", Relevance: domain.LevelStrong,
			Links: map[string]domain.Level{"SLM_1_05_03": domain.LevelSoft},
		},
		{
			ID: 2, Row: 1, DocumentName: "DOC A", DocumentType: "gov", SectionTitle: "Intro",
			CurrentRevision: day(2024, 3, 1), CurrentRevisionRaw: "2024-03-01",
			ChangeText: "shouting", Relevance: domain.LevelStrong,
			Links: map[string]domain.Level{"SLM_2_01": domain.LevelSoft},
		},
	}
	cache := &memoryCache{entries: map[string][]byte{}}
	svc := newTestService(t, ReviewDeps{Source: &stubSource{changes: changes}, Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	for doc, want := range map[string]string{"Doc A": "SLM 1.05.03", "DOC A": "SLM 2.01"} {
		tree, err := svc.HierarchyView(ctx, "Legislation", doc, "Soft", "Historical")
		if err != nil {
			t.Fatalf("HierarchyView(%s): %v", doc, err)
		}
		if len(tree.Nodes) != 3 || tree.Nodes[1].Label != want {
			t.Fatalf("HierarchyView(%s) = %+v, want related %s", doc, tree, want)
		}
	}
	if len(cache.entries) != 2 {
		t.Fatalf("expected one cache entry per document, got %d", len(cache.entries))
	}

	if viewKey("flow", "v1", "", "Legislation", " Strong ") != "slcomply:view:flow:v1:legislation:strong" {
		t.Fatalf("unexpected flow key")
	}
}
