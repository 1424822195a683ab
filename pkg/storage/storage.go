// Package storage defines the persistence contract for the progression
// engine: character aggregates and the append-only journal live in a
// document store, while static resources (enemy archetypes, perk
// definitions) load from the filesystem.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/combat"
)

// Store is the unified persistence interface consumed by the engine and
// handlers. The in-memory aggregate is the source of truth; saves are
// asynchronous and a failed save never rolls state back.
type Store interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Character aggregate (document store)
	SaveCharacter(ctx context.Context, c *character.Character) error
	LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error)
	DeleteCharacter(ctx context.Context, id uuid.UUID) error

	// Journal (append-only)
	AppendJournal(ctx context.Context, entry character.JournalEntry) error
	ListJournal(ctx context.Context, characterID uuid.UUID) ([]character.JournalEntry, error)

	// Static resources (filesystem)
	GetEnemyTemplate(ctx context.Context, archetype string) (*combat.Enemy, error)
	ListEnemyTemplates(ctx context.Context) ([]string, error)
	ListPerks(ctx context.Context) ([]character.PerkDef, error)
}
