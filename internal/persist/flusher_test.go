package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/storage"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

type mapSource map[uuid.UUID]*character.Character

func (s mapSource) Snapshot(id uuid.UUID) (*character.Character, bool) {
	c, ok := s[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func TestFlushWritesDirtyCharacters(t *testing.T) {
	store := storage.NewMock()
	c := character.New("Lyra", "", "")
	source := mapSource{c.ID: c}
	f := New(store, source, time.Second, noopLogger)

	f.MarkDirty(c.ID)
	f.MarkDirty(c.ID) // re-marking is a no-op
	if f.DirtyCount() != 1 {
		t.Fatalf("expected 1 dirty character, got %d", f.DirtyCount())
	}

	flushed, failed := f.Flush(context.Background())
	if flushed != 1 || failed != 0 {
		t.Fatalf("expected 1 flushed, got %d/%d", flushed, failed)
	}
	if f.DirtyCount() != 0 {
		t.Errorf("dirty set should drain, got %d", f.DirtyCount())
	}

	saved, err := store.LoadCharacter(context.Background(), c.ID)
	if err != nil || saved == nil {
		t.Fatalf("character not persisted: %v", err)
	}
}

func TestFlushKeepsFailedCharactersDirty(t *testing.T) {
	store := storage.NewMock()
	c := character.New("Lyra", "", "")
	source := mapSource{c.ID: c}
	f := New(store, source, time.Second, noopLogger)

	store.SaveErr = errors.New("redis down")
	f.MarkDirty(c.ID)

	flushed, failed := f.Flush(context.Background())
	if flushed != 0 || failed != 1 {
		t.Fatalf("expected 1 failure, got %d/%d", flushed, failed)
	}
	if f.DirtyCount() != 1 {
		t.Errorf("failed character should stay dirty, got %d", f.DirtyCount())
	}

	// Recovery drains the retry backlog.
	store.SaveErr = nil
	flushed, failed = f.Flush(context.Background())
	if flushed != 1 || failed != 0 {
		t.Fatalf("retry should succeed, got %d/%d", flushed, failed)
	}
}

func TestFlushSkipsEvictedCharacters(t *testing.T) {
	store := storage.NewMock()
	f := New(store, mapSource{}, time.Second, noopLogger)

	f.MarkDirty(uuid.New())
	flushed, failed := f.Flush(context.Background())
	if flushed != 0 || failed != 0 {
		t.Errorf("evicted character should be skipped silently, got %d/%d", flushed, failed)
	}
	if store.SaveCalls != 0 {
		t.Errorf("no save should happen for an evicted character, got %d", store.SaveCalls)
	}
}

func TestRunFlushesOnInterval(t *testing.T) {
	store := storage.NewMock()
	c := character.New("Lyra", "", "")
	source := mapSource{c.ID: c}
	clock := clockwork.NewFakeClock()
	f := New(store, source, 5*time.Second, noopLogger).WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	f.MarkDirty(c.ID)
	clock.Advance(5 * time.Second)

	deadline := time.After(2 * time.Second)
	for f.DirtyCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("interval flush never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRunFinalFlushOnShutdown(t *testing.T) {
	store := storage.NewMock()
	c := character.New("Lyra", "", "")
	source := mapSource{c.ID: c}
	clock := clockwork.NewFakeClock()
	f := New(store, source, time.Minute, noopLogger).WithClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	f.MarkDirty(c.ID)
	cancel()
	<-done

	if f.DirtyCount() != 0 {
		t.Error("shutdown must flush the remaining dirty set")
	}
	saved, err := store.LoadCharacter(context.Background(), c.ID)
	if err != nil || saved == nil {
		t.Fatalf("character not persisted on shutdown: %v", err)
	}
}
