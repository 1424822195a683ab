// Package events publishes advisory notifications to Redis pub/sub.
// Downstream consumers (ambient mood, SSE fan-out) subscribe per
// character. Publishing is best-effort: failures are logged and never
// affect the apply pipeline or combat resolution.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hamitcf1/aetherius/pkg/character"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeJournalCreated   EventType = "journal.created"
	EventTypeCharacterUpdated EventType = "character.updated"
	EventTypeCombatStarted    EventType = "combat.started"
	EventTypeCombatResolved   EventType = "combat.resolved"
)

// Event is the wire shape published to subscribers.
type Event struct {
	Type        EventType      `json:"type"`
	CharacterID string         `json:"character_id"`
	Data        map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// EnvelopeApplied implements the engine's Notifier hook: one applied
// envelope fans out as a journal event plus a character-updated event.
func (b *Broadcaster) EnvelopeApplied(ctx context.Context, characterID uuid.UUID, entry character.JournalEntry) {
	b.publish(ctx, characterID, Event{
		Type:        EventTypeJournalCreated,
		CharacterID: characterID.String(),
		Data: map[string]any{
			"entry_id": entry.ID.String(),
			"title":    entry.Title,
		},
	})
	b.publish(ctx, characterID, Event{
		Type:        EventTypeCharacterUpdated,
		CharacterID: characterID.String(),
	})
}

// CombatStarted announces a new combat session.
func (b *Broadcaster) CombatStarted(ctx context.Context, characterID, sessionID uuid.UUID) {
	b.publish(ctx, characterID, Event{
		Type:        EventTypeCombatStarted,
		CharacterID: characterID.String(),
		Data:        map[string]any{"session_id": sessionID.String()},
	})
}

// CombatResolved announces a terminal combat outcome.
func (b *Broadcaster) CombatResolved(ctx context.Context, characterID, sessionID uuid.UUID, outcome string) {
	b.publish(ctx, characterID, Event{
		Type:        EventTypeCombatResolved,
		CharacterID: characterID.String(),
		Data: map[string]any{
			"session_id": sessionID.String(),
			"outcome":    outcome,
		},
	})
}

func channelForCharacter(id uuid.UUID) string {
	return fmt.Sprintf("events:character:%s", id.String())
}

func (b *Broadcaster) publish(ctx context.Context, characterID uuid.UUID, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	if err := b.redisClient.Publish(ctx, channelForCharacter(characterID), data).Err(); err != nil {
		// Advisory only: log and move on.
		b.logger.Warn("Failed to publish event",
			"type", event.Type,
			"character_id", characterID,
			"error", err)
	}
}
