package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 500

	// recordTimeout bounds the audit write independently of the caller's
	// deadline; the mutation being described has already committed.
	recordTimeout = 2 * time.Second
)

// Entry is an append-only record of one ledger-affecting action. Entries are
// never updated or deleted.
type Entry struct {
	ID            string
	ActorID       string
	Action        string
	EntityType    string
	EntityID      string
	Details       map[string]any
	SourceAddress string
	CreatedAt     time.Time
}

// Filter narrows a Search. Zero-valued fields are ignored; set fields are
// combined conjunctively.
type Filter struct {
	ActorID    string
	Action     string
	EntityType string
	Limit      int
}

// Store persists audit entries. Implementations return errors; the Recorder
// decides what happens to them.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Search(ctx context.Context, filter Filter) ([]Entry, error)
}

// FailureSink receives entries that could not be persisted. Failures end up
// here instead of with the caller, so an audit outage never aborts the
// operation being recorded.
type FailureSink func(entry Entry, err error)

// SlogFailureSink writes dropped audit entries to the structured logger.
func SlogFailureSink(logger *slog.Logger) FailureSink {
	return func(entry Entry, err error) {
		logger.Error("audit write failed",
			slog.String("action", entry.Action),
			slog.String("actor_id", entry.ActorID),
			slog.Any("error", err))
	}
}

// Recorder wraps a Store with the best-effort contract: Record never
// propagates a storage failure to the triggering operation.
type Recorder struct {
	store Store
	sink  FailureSink
}

// NewRecorder builds a recorder. A nil sink discards failures silently, which
// is only appropriate in tests.
func NewRecorder(store Store, sink FailureSink) *Recorder {
	return &Recorder{store: store, sink: sink}
}

// Record persists the entry, stamping identity and timestamp if unset. The
// write is detached from the caller's context and time-boxed on its own:
// callers invoke Record only after their mutation has committed, so neither a
// caller cancellation nor a store failure may undo or fail that mutation.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := r.store.Append(writeCtx, entry); err != nil {
		if r.sink != nil {
			r.sink(entry, err)
		}
	}
}

// Search returns entries matching the filter, newest first. The limit is
// clamped to keep the reporting surface bounded.
func (r *Recorder) Search(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}
	return r.store.Search(ctx, filter)
}
