package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/combat"
)

// Mock is an in-memory Store for tests. Error fields, when set, are
// returned by the corresponding method to exercise failure paths.
type Mock struct {
	mu         sync.Mutex
	characters map[uuid.UUID]*character.Character
	journals   map[uuid.UUID][]character.JournalEntry
	Templates  map[string]*combat.Enemy
	Perks      []character.PerkDef

	SaveErr    error
	LoadErr    error
	AppendErr  error
	SaveCalls  int
	AppendCall int
}

var _ Store = (*Mock)(nil)

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{
		characters: make(map[uuid.UUID]*character.Character),
		journals:   make(map[uuid.UUID][]character.JournalEntry),
		Templates:  make(map[string]*combat.Enemy),
	}
}

func (m *Mock) Ping(ctx context.Context) error { return nil }
func (m *Mock) Close() error                   { return nil }

func (m *Mock) SaveCharacter(ctx context.Context, c *character.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.characters[c.ID] = c.Clone()
	return nil
}

func (m *Mock) LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	c, ok := m.characters[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *Mock) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.characters, id)
	delete(m.journals, id)
	return nil
}

func (m *Mock) AppendJournal(ctx context.Context, entry character.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCall++
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.journals[entry.CharacterID] = append(m.journals[entry.CharacterID], entry)
	return nil
}

func (m *Mock) ListJournal(ctx context.Context, characterID uuid.UUID) ([]character.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]character.JournalEntry(nil), m.journals[characterID]...), nil
}

func (m *Mock) GetEnemyTemplate(ctx context.Context, archetype string) (*combat.Enemy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.Templates[archetype]
	if !ok {
		return nil, fmt.Errorf("enemy template not found: %s", archetype)
	}
	cp := *tpl
	return &cp, nil
}

func (m *Mock) ListEnemyTemplates(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Templates))
	for id := range m.Templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Mock) ListPerks(ctx context.Context) ([]character.PerkDef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]character.PerkDef(nil), m.Perks...), nil
}
