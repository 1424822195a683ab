// Package engine owns the character aggregate and applies delta
// envelopes to it. Application is single-writer per character,
// copy-then-swap: callers never observe a partially applied batch.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/delta"
	"github.com/hamitcf1/aetherius/pkg/storage"
)

// Saver receives dirty-character notifications. The debounced flusher
// implements this; persistence lag never blocks the pipeline.
type Saver interface {
	MarkDirty(id uuid.UUID)
}

// Notifier receives advisory post-commit notifications (ambient mood,
// SSE fan-out). Failures are logged and ignored: notification is not
// part of the invariant surface.
type Notifier interface {
	EnvelopeApplied(ctx context.Context, characterID uuid.UUID, entry character.JournalEntry)
}

// ApplyResult is everything one envelope produced: the committed
// snapshot, its journal entry, the effect summary, and a pending combat
// start for the session manager when the envelope requested one.
type ApplyResult struct {
	Character   *character.Character   `json:"character"`
	Journal     character.JournalEntry `json:"journal"`
	Summary     Summary                `json:"summary"`
	CombatStart *delta.CombatStart     `json:"combat_start,omitempty"`
}

// aggregate pairs a cached character with its writer lock. Envelopes
// for the same character serialize on this lock; different characters
// never contend.
type aggregate struct {
	mu sync.Mutex
	c  *character.Character
}

// Engine is the apply pipeline service.
type Engine struct {
	store    storage.Store
	logger   *slog.Logger
	saver    Saver
	notifier Notifier
	perks    []character.PerkDef

	mu    sync.Mutex
	chars map[uuid.UUID]*aggregate
}

// New creates an engine over the given store.
func New(store storage.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		chars:  make(map[uuid.UUID]*aggregate),
	}
}

// WithSaver attaches the async persistence hook.
func (e *Engine) WithSaver(s Saver) *Engine {
	e.saver = s
	return e
}

// WithNotifier attaches the advisory notifier.
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// LoadPerks fetches perk definitions once at startup.
func (e *Engine) LoadPerks(ctx context.Context) error {
	perks, err := e.store.ListPerks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load perk definitions: %w", err)
	}
	e.perks = perks
	return nil
}

// Create makes a new character and persists it synchronously; creation
// is the one write that must not race the flusher.
func (e *Engine) Create(ctx context.Context, name, race, class string) (*character.Character, error) {
	c := character.New(name, race, class)
	if err := e.store.SaveCharacter(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save new character: %w", err)
	}

	e.mu.Lock()
	e.chars[c.ID] = &aggregate{c: c}
	e.mu.Unlock()

	e.logger.Info("Character created", "character_id", c.ID, "name", name, "class", class)
	return c.Clone(), nil
}

// Get returns the current aggregate snapshot, loading from storage on a
// cache miss. Returns nil when the character does not exist.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	agg, err := e.aggregate(ctx, id)
	if err != nil || agg == nil {
		return nil, err
	}
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.c.Clone(), nil
}

// Delete removes the character from cache and storage.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	delete(e.chars, id)
	e.mu.Unlock()
	return e.store.DeleteCharacter(ctx, id)
}

// Snapshot returns the cached aggregate without touching storage. Used
// by the flusher as its dirty-state source.
func (e *Engine) Snapshot(id uuid.UUID) (*character.Character, bool) {
	e.mu.Lock()
	agg, ok := e.chars[id]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.c.Clone(), true
}

// Apply validates and applies one envelope atomically. On success the
// new snapshot is swapped in, exactly one journal entry is appended,
// the character is marked dirty for async persistence, and the advisory
// notifier fires. On any error the previous snapshot stays untouched.
func (e *Engine) Apply(ctx context.Context, id uuid.UUID, env *delta.Envelope) (*ApplyResult, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	agg, err := e.aggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, fmt.Errorf("character not found: %s", id)
	}

	agg.mu.Lock()
	defer agg.mu.Unlock()

	snap := agg.c.Clone()
	worker := newApplyWorker(snap, env, e.perks, e.logger)
	if err := worker.apply(); err != nil {
		return nil, err
	}

	title, body := SynthesizeJournal(env, &worker.sum)
	entry := character.NewJournalEntry(snap.ID, title, body)

	// Commit point: swap the snapshot in.
	agg.c = snap

	// Journal append and persistence are post-commit: a slow or failing
	// backend never rolls back or blocks the in-memory aggregate.
	if err := e.store.AppendJournal(ctx, entry); err != nil {
		e.logger.Error("Failed to append journal entry",
			"character_id", snap.ID,
			"entry_id", entry.ID,
			"error", err)
	}
	if e.saver != nil {
		e.saver.MarkDirty(snap.ID)
	}
	if e.notifier != nil {
		e.notifier.EnvelopeApplied(ctx, snap.ID, entry)
	}

	return &ApplyResult{
		Character:   snap.Clone(),
		Journal:     entry,
		Summary:     worker.sum,
		CombatStart: env.CombatStart,
	}, nil
}

// aggregate returns the cached entry for the character, populating the
// cache from storage on first touch.
func (e *Engine) aggregate(ctx context.Context, id uuid.UUID) (*aggregate, error) {
	e.mu.Lock()
	agg, ok := e.chars[id]
	e.mu.Unlock()
	if ok {
		return agg, nil
	}

	c, err := e.store.LoadCharacter(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another request may have raced the load.
	if existing, ok := e.chars[id]; ok {
		return existing, nil
	}
	agg = &aggregate{c: c}
	e.chars[id] = agg
	return agg, nil
}
