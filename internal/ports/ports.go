package ports

import (
	"context"
	"time"

	"SLComply/internal/domain"
)

// ChangeSource reads the raw detected-change table.
type ChangeSource interface {
	LoadChanges(ctx context.Context) ([]domain.Change, error)
}

// ChangeWriter persists status updates; all updates in one call commit together or not at all.
type ChangeWriter interface {
	ApplyUpdates(ctx context.Context, updates []domain.Update) error
}

// DocumentLinker returns a time-limited URL for a stored revision PDF.
type DocumentLinker interface {
	DocumentURL(ctx context.Context, category domain.Category, filename string) (string, error)
}

// ViewCache stores prepared view payloads between refreshes.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Scheduler controls when refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
