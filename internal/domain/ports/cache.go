package ports

import (
	"context"
	"time"

	"quickfx/internal/domain/model"
)

// QuoteStore is the shared state between the foreground and refresh jobs: quotes,
// one-shot error slots and pending markers. Writes replace whole entries.
type QuoteStore interface {
	GetQuote(ctx context.Context, key string) (*model.CacheEntry, bool, error)
	SetQuote(ctx context.Context, key string, entry *model.CacheEntry) error

	SetError(ctx context.Context, rec *model.ErrorRecord) error
	// TakeError returns and deletes the record in the slot for kind, if any.
	TakeError(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error)

	// AcquirePending sets the pending marker for key unless a live one exists.
	// It reports whether the caller now owns the marker.
	AcquirePending(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsPending(ctx context.Context, key string) (bool, error)
	ReleasePending(ctx context.Context, key string) error

	Close() error
}
