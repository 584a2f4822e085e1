package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"SLComply/internal/domain"
	"SLComply/internal/pipeline"
	"SLComply/internal/ports"
)

const (
	savedMessageLayout = "02/01/2006 15:04:05"
	saveFailedMessage  = "There was an error connecting to the database, the current selections have not been saved."
	defaultTopDocs     = 3
)

// ReviewDeps wires the driven adapters into the review service.
type ReviewDeps struct {
	Source ports.ChangeSource
	Writer ports.ChangeWriter
	Linker ports.DocumentLinker
	Cache  ports.ViewCache
	Logger *slog.Logger
	Now    func() time.Time

	TopDocuments int
	BacklogStart time.Time
	TreemapRoot  string
	CacheTTL     time.Duration
}

// ReviewService owns the published change snapshot and serves every read and
// write against it. Readers always see one complete snapshot.
type ReviewService struct {
	source ports.ChangeSource
	writer ports.ChangeWriter
	linker ports.DocumentLinker
	cache  ports.ViewCache
	logger *slog.Logger
	now    func() time.Time

	topDocuments int
	backlogStart time.Time
	treemapRoot  string
	cacheTTL     time.Duration

	snapshot atomic.Pointer[pipeline.Snapshot]
}

// SaveResult reports the outcome of a status save to the reviewer.
type SaveResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	SavedAt time.Time `json:"savedAt,omitempty"`
	Updates int       `json:"updates"`
}

// NewReviewService constructs the service with an empty snapshot.
func NewReviewService(deps ReviewDeps) *ReviewService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	top := deps.TopDocuments
	if top <= 0 {
		top = defaultTopDocs
	}
	root := deps.TreemapRoot
	if root == "" {
		root = pipeline.DefaultTreemapRoot
	}

	s := &ReviewService{
		source:       deps.Source,
		writer:       deps.Writer,
		linker:       deps.Linker,
		cache:        deps.Cache,
		logger:       logger.With("component", "review"),
		now:          now,
		topDocuments: top,
		backlogStart: deps.BacklogStart,
		treemapRoot:  root,
		cacheTTL:     deps.CacheTTL,
	}
	s.snapshot.Store(pipeline.Empty())
	return s
}

// Snapshot returns the currently published snapshot.
func (s *ReviewService) Snapshot() *pipeline.Snapshot {
	return s.snapshot.Load()
}

// Refresh rebuilds every derived table from the change source and publishes
// the result. On failure the previous snapshot stays in place.
func (s *ReviewService) Refresh(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("%w: no change source configured", domain.ErrDataSourceUnavailable)
	}

	cycle := uuid.NewString()
	started := s.now()
	log := s.logger.With("cycle", cycle)
	log.Debug("refresh started")

	raw, err := s.source.LoadChanges(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrDataSourceUnavailable, err)
		log.Error("refresh failed, keeping previous snapshot", "error", err)
		return err
	}

	snap, err := pipeline.Build(ctx, raw, pipeline.BuildOptions{
		Version:      cycle,
		TopDocuments: s.topDocuments,
		Now:          started,
	})
	if err != nil {
		log.Error("refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("build snapshot: %w", err)
	}

	if rejected := snap.Registry.Rejected(); len(rejected) > 0 {
		errs := make([]error, 0, len(rejected))
		for _, key := range rejected {
			_, rErr := snap.Registry.Resolve(key)
			errs = append(errs, rErr)
		}
		log.Warn("skipped related-document columns", "count", len(rejected), "error", errors.Join(errs...))
	}

	s.snapshot.Store(snap)
	log.Info("refresh completed",
		"version", snap.Version,
		"changes", len(snap.Changes),
		"relations", len(snap.Relations),
		"duration", s.now().Sub(started))
	return nil
}

// Documents lists the documents of a category ("Legislation" or "Guidance").
func (s *ReviewService) Documents(docType string) ([]string, error) {
	category, err := pipeline.ParseDocType(docType)
	if err != nil {
		return nil, err
	}
	return s.snapshot.Load().Documents(category), nil
}

// RelatedDocuments lists the related documents linked from a category's
// changes in the published snapshot.
func (s *ReviewService) RelatedDocuments(docType string) ([]string, error) {
	category, err := pipeline.ParseDocType(docType)
	if err != nil {
		return nil, err
	}
	return s.snapshot.Load().Registry.Documents(category), nil
}

// Sections lists the section titles of a document within the recency window.
func (s *ReviewService) Sections(docType, document, recency string) ([]pipeline.SectionOption, error) {
	category, err := pipeline.ParseDocType(docType)
	if err != nil {
		return nil, err
	}
	window, err := pipeline.ResolveRecency(recency, s.now())
	if err != nil {
		return nil, err
	}

	history := pipeline.ByDocument(pipeline.ByCategory(s.snapshot.Load().Changes, category), document)
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrDocumentNotFound, document, category)
	}
	return pipeline.Sections(pipeline.ByWindow(history, window)), nil
}

// Detail assembles the change-review payload and attaches revision PDF links.
func (s *ReviewService) Detail(ctx context.Context, q pipeline.DetailQuery) (pipeline.Detail, error) {
	detail, err := pipeline.AssembleDetail(s.snapshot.Load().Changes, q, s.now())
	if err != nil {
		return pipeline.Detail{}, err
	}

	detail.CurrentRevisionURL = s.documentURL(ctx, detail.Category, detail.CurrentRevisionFile)
	detail.PreviousRevisionURL = s.documentURL(ctx, detail.Category, detail.PreviousRevisionFile)
	return detail, nil
}

func (s *ReviewService) documentURL(ctx context.Context, category domain.Category, filename string) string {
	if s.linker == nil || filename == "" {
		return ""
	}
	url, err := s.linker.DocumentURL(ctx, category, filename)
	if err != nil {
		s.logger.Warn("document link unavailable", "file", filename, "category", category, "error", err)
		return ""
	}
	return url
}

// BacklogStats counts changes per status revised on or after since; a zero
// since uses the configured reporting start.
func (s *ReviewService) BacklogStats(since time.Time) pipeline.BacklogStats {
	if since.IsZero() {
		since = s.backlogStart
	}
	return pipeline.Backlog(s.snapshot.Load().Changes, since)
}

// TopRecentStats reports the n most recently revised documents.
func (s *ReviewService) TopRecentStats(n int) []pipeline.RecentDocStats {
	snap := s.snapshot.Load()
	if n == s.topDocuments && snap.TopDocs != nil {
		return snap.TopDocs
	}
	return pipeline.TopRecent(snap.Changes, n)
}

// PlanStatusUpdates plans a batch of status edits against the published snapshot.
func (s *ReviewService) PlanStatusUpdates(batch []domain.StatusEdit) ([]domain.Update, error) {
	return pipeline.PlanStatusUpdates(batch, s.snapshot.Load().Status, s.now())
}

// SaveStatuses plans a batch, persists it in one transaction and mirrors the
// updates into the published snapshot. A refresh racing with a save may
// publish a snapshot read before the write; the next refresh picks it up.
func (s *ReviewService) SaveStatuses(ctx context.Context, batch []domain.StatusEdit) (SaveResult, error) {
	now := s.now()
	updates, err := pipeline.PlanStatusUpdates(batch, s.snapshot.Load().Status, now)
	if err != nil {
		return SaveResult{}, err
	}

	if len(updates) > 0 {
		if s.writer == nil {
			err = errors.New("no change writer configured")
		} else {
			err = s.writer.ApplyUpdates(ctx, updates)
		}
		if err != nil {
			s.logger.Error("save statuses failed", "edits", len(batch), "error", err)
			return SaveResult{Message: saveFailedMessage}, fmt.Errorf("%w: %w", domain.ErrPersistenceWriteFailed, err)
		}

		for {
			current := s.snapshot.Load()
			if s.snapshot.CompareAndSwap(current, current.WithUpdates(updates)) {
				break
			}
		}
	}

	s.logger.Info("statuses saved", "edits", len(batch), "updates", len(updates))
	return SaveResult{
		Success: true,
		Message: "Your changes have been saved at " + now.Format(savedMessageLayout),
		SavedAt: now,
		Updates: len(updates),
	}, nil
}

// HierarchyView prepares the treemap payload for one document.
func (s *ReviewService) HierarchyView(ctx context.Context, docType, document, linkRelevance, recency string) (pipeline.HierarchyView, error) {
	category, level, window, err := s.graphParams(docType, linkRelevance, recency)
	if err != nil {
		return pipeline.HierarchyView{}, err
	}

	snap := s.snapshot.Load()
	if _, found := slices.BinarySearch(snap.Documents(category), document); !found {
		return pipeline.HierarchyView{}, fmt.Errorf("%w: %s (%s)", domain.ErrDocumentNotFound, document, category)
	}

	key := viewKey("hierarchy", snap.Version, document, string(category), linkRelevance, recency)
	var view pipeline.HierarchyView
	if s.cachedView(ctx, key, &view) {
		return view, nil
	}

	rows := pipeline.ByDocument(pipeline.ByCategory(snap.Graph, category), document)
	rows = pipeline.ByWindow(pipeline.ByLinkLevel(rows, level), window)
	view = pipeline.PrepareHierarchy(rows, s.treemapRoot)
	s.storeView(ctx, key, view)
	return view, nil
}

// FlowView prepares the document flow payload for a category.
func (s *ReviewService) FlowView(ctx context.Context, docType, linkRelevance, recency string) (pipeline.FlowView, error) {
	category, level, window, err := s.graphParams(docType, linkRelevance, recency)
	if err != nil {
		return pipeline.FlowView{}, err
	}

	snap := s.snapshot.Load()
	key := viewKey("flow", snap.Version, "", string(category), linkRelevance, recency)
	var view pipeline.FlowView
	if s.cachedView(ctx, key, &view) {
		return view, nil
	}

	rows := pipeline.ByWindow(pipeline.ByLinkLevel(pipeline.ByCategory(snap.Graph, category), level), window)
	view, err = pipeline.PrepareFlow(rows)
	if err != nil {
		return pipeline.FlowView{}, fmt.Errorf("prepare flow: %w", err)
	}
	s.storeView(ctx, key, view)
	return view, nil
}

func (s *ReviewService) graphParams(docType, linkRelevance, recency string) (domain.Category, domain.Level, pipeline.Window, error) {
	category, err := pipeline.ParseDocType(docType)
	if err != nil {
		return "", 0, pipeline.Window{}, err
	}
	level, err := pipeline.ParseLinkRelevance(linkRelevance)
	if err != nil {
		return "", 0, pipeline.Window{}, err
	}
	window, err := pipeline.ResolveRecency(recency, s.now())
	if err != nil {
		return "", 0, pipeline.Window{}, err
	}
	return category, level, window, nil
}

// viewKey folds case in option parameters only; document names are case
// sensitive.
func viewKey(kind, version, document string, params ...string) string {
	parts := make([]string, 0, len(params)+3)
	parts = append(parts, kind, version)
	for _, p := range params {
		parts = append(parts, strings.ToLower(strings.TrimSpace(p)))
	}
	if document != "" {
		parts = append(parts, document)
	}
	return "slcomply:view:" + strings.Join(parts, ":")
}

func (s *ReviewService) cachedView(ctx context.Context, key string, target any) bool {
	if s.cache == nil {
		return false
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("view cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		s.logger.Warn("view cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (s *ReviewService) storeView(ctx context.Context, key string, view any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		s.logger.Warn("view cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logger.Warn("view cache write failed", "key", key, "error", err)
	}
}
