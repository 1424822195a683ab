package combat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/delta"
)

// TemplateSource provides enemy archetype templates. Implemented by the
// storage layer.
type TemplateSource interface {
	GetEnemyTemplate(ctx context.Context, archetype string) (*Enemy, error)
}

// Manager owns the live combat sessions. One session per character at a
// time; sessions are transient and evicted once resolved and looted or
// reaped when idle.
type Manager struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*Session
	byChar    map[uuid.UUID]uuid.UUID
	templates TemplateSource
	logger    *slog.Logger
	seed      func() int64
}

// NewManager creates a session manager backed by the given template source.
func NewManager(templates TemplateSource, logger *slog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		byChar:    make(map[uuid.UUID]uuid.UUID),
		templates: templates,
		logger:    logger,
		seed:      func() int64 { return time.Now().UnixNano() },
	}
}

// WithSeed fixes the seed source. Tests use this for deterministic rolls.
func (m *Manager) WithSeed(seed func() int64) *Manager {
	m.seed = seed
	return m
}

// Start opens a session for the character from a validated combat_start
// delta. A character with an unresolved session cannot start another.
func (m *Manager) Start(ctx context.Context, c *character.Character, start *delta.CombatStart) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sid, ok := m.byChar[c.ID]; ok {
		if existing, ok := m.sessions[sid]; ok && existing.State() != StateResolved {
			return nil, &ConflictError{Op: "start", Reason: "character already in combat"}
		}
	}

	templates := make(map[string]*Enemy, len(start.Enemies))
	for _, spec := range start.Enemies {
		if _, ok := templates[spec.Archetype]; ok {
			continue
		}
		tpl, err := m.templates.GetEnemyTemplate(ctx, spec.Archetype)
		if err != nil {
			return nil, fmt.Errorf("failed to load enemy template %q: %w", spec.Archetype, err)
		}
		templates[spec.Archetype] = tpl
	}

	s, err := NewSession(c, start, templates, m.logger, m.seed())
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID] = s
	m.byChar[c.ID] = s.ID

	if m.logger != nil {
		m.logger.Info("Combat session started",
			"session_id", s.ID,
			"character_id", c.ID,
			"enemies", len(start.Enemies),
			"ambush", start.Ambush)
	}
	return s, nil
}

// Get returns a session by id, or nil.
func (m *Manager) Get(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// List returns a snapshot of every registered session.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	return snaps
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		delete(m.byChar, s.CharacterID)
		delete(m.sessions, id)
	}
}

// Reap force-resolves sessions idle longer than maxIdle and returns how
// many it touched. Sessions already resolved and still idle past the
// cutoff are evicted so abandoned encounters do not pile up. Wired to a
// cron job in cmd/api.
func (m *Manager) Reap(maxIdle time.Duration) int {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxIdle)
	reaped := 0
	for _, s := range sessions {
		if !s.IdleSince().Before(cutoff) {
			continue
		}
		if s.State() != StateResolved {
			s.ForceResolve()
			reaped++
			continue
		}
		m.Remove(s.ID)
	}
	return reaped
}
