// Package persist writes dirty character aggregates to storage on a
// debounced schedule. The in-memory aggregate is always the source of
// truth: a failed flush keeps the character dirty and retries with
// backoff, and nothing here ever blocks or rolls back gameplay.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/storage"
)

// Source provides current in-memory snapshots. Implemented by the engine.
type Source interface {
	Snapshot(id uuid.UUID) (*character.Character, bool)
}

// Flusher batches dirty characters and saves them on an interval.
type Flusher struct {
	store    storage.Store
	source   Source
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	dirty   map[uuid.UUID]struct{}
	backoff time.Duration
}

const maxBackoff = 2 * time.Minute

// New creates a flusher with the real clock.
func New(store storage.Store, source Source, interval time.Duration, logger *slog.Logger) *Flusher {
	return &Flusher{
		store:    store,
		source:   source,
		clock:    clockwork.NewRealClock(),
		interval: interval,
		logger:   logger,
		dirty:    make(map[uuid.UUID]struct{}),
	}
}

// WithClock swaps the clock. Tests drive time through a fake.
func (f *Flusher) WithClock(clock clockwork.Clock) *Flusher {
	f.clock = clock
	return f
}

// MarkDirty schedules a character for the next flush. Safe for
// concurrent use; marking an already-dirty character is a no-op.
func (f *Flusher) MarkDirty(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty[id] = struct{}{}
}

// DirtyCount reports how many characters await a flush.
func (f *Flusher) DirtyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dirty)
}

// Run flushes on the debounce interval until the context ends. After a
// failed cycle the wait doubles, up to maxBackoff, and resets on the
// next clean flush. A final flush runs on shutdown.
func (f *Flusher) Run(ctx context.Context) {
	for {
		wait := f.interval
		f.mu.Lock()
		if f.backoff > 0 {
			wait = f.backoff
		}
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			f.Flush(context.Background())
			f.logger.Info("Flusher stopped")
			return
		case <-f.clock.After(wait):
			f.Flush(ctx)
		}
	}
}

// Flush writes every dirty character once. Characters whose save fails
// stay dirty for the next cycle.
func (f *Flusher) Flush(ctx context.Context) (flushed, failed int) {
	f.mu.Lock()
	ids := make([]uuid.UUID, 0, len(f.dirty))
	for id := range f.dirty {
		ids = append(ids, id)
	}
	f.dirty = make(map[uuid.UUID]struct{})
	f.mu.Unlock()

	for _, id := range ids {
		snap, ok := f.source.Snapshot(id)
		if !ok {
			// Evicted since it was marked; nothing to persist.
			continue
		}
		if err := f.store.SaveCharacter(ctx, snap); err != nil {
			f.logger.Error("Failed to flush character, will retry",
				"character_id", id,
				"error", err)
			f.MarkDirty(id)
			failed++
			continue
		}
		flushed++
	}

	f.mu.Lock()
	if failed > 0 {
		if f.backoff == 0 {
			f.backoff = f.interval
		}
		f.backoff *= 2
		if f.backoff > maxBackoff {
			f.backoff = maxBackoff
		}
	} else {
		f.backoff = 0
	}
	f.mu.Unlock()

	if flushed > 0 {
		f.logger.Debug("Flushed characters", "count", flushed, "failed", failed)
	}
	return flushed, failed
}
