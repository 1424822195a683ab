// Package storage implements the Store interface with Redis for
// character state and the journal, and the filesystem for static
// resources (enemy archetypes, perk definitions).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/combat"
	"github.com/hamitcf1/aetherius/pkg/storage"
)

// RedisStore implements storage.Store.
type RedisStore struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

var _ storage.Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. dataDir holds the static
// JSON resources.
func NewRedisStore(redisURL string, dataDir string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStore{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Client exposes the underlying connection for the pub/sub broadcaster.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Character operations (Redis-backed)

func characterKey(id uuid.UUID) string {
	return "character:" + id.String()
}

func journalKey(id uuid.UUID) string {
	return "journal:" + id.String()
}

func (r *RedisStore) SaveCharacter(ctx context.Context, c *character.Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal character", "character_id", c.ID, "error", err)
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	if err := r.client.Set(ctx, characterKey(c.ID), string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save character", "character_id", c.ID, "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	cmd := r.client.Get(ctx, characterKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Character not found", "character_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load character", "character_id", id, "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	var c character.Character
	if err := json.Unmarshal([]byte(cmd.Val()), &c); err != nil {
		r.logger.Error("Failed to unmarshal character", "character_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	return &c, nil
}

func (r *RedisStore) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, characterKey(id), journalKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete character", "character_id", id, "error", err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// Journal operations (Redis list, append-only)

func (r *RedisStore) AppendJournal(ctx context.Context, entry character.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	if err := r.client.RPush(ctx, journalKey(entry.CharacterID), data).Err(); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

func (r *RedisStore) ListJournal(ctx context.Context, characterID uuid.UUID) ([]character.JournalEntry, error) {
	raw, err := r.client.LRange(ctx, journalKey(characterID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}

	entries := make([]character.JournalEntry, 0, len(raw))
	for _, item := range raw {
		var entry character.JournalEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			r.logger.Warn("Skipping malformed journal entry", "character_id", characterID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Enemy template operations (filesystem-backed)

func (r *RedisStore) GetEnemyTemplate(ctx context.Context, archetype string) (*combat.Enemy, error) {
	path := filepath.Join(r.dataDir, "enemies", archetype+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("enemy template not found: %s: %w", archetype, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read enemy template %s: %w", archetype, err)
	}

	var e combat.Enemy
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse enemy template %s: %w", archetype, err)
	}
	e.Archetype = archetype // filename wins over any id in the JSON
	return &e, nil
}

func (r *RedisStore) ListEnemyTemplates(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dataDir, "enemies"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read enemies directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			ids = append(ids, entry.Name()[:len(entry.Name())-5])
		}
	}
	return ids, nil
}

// Perk definitions (filesystem-backed)

func (r *RedisStore) ListPerks(ctx context.Context) ([]character.PerkDef, error) {
	entries, err := os.ReadDir(filepath.Join(r.dataDir, "perks"))
	if err != nil {
		if os.IsNotExist(err) {
			return []character.PerkDef{}, nil
		}
		return nil, fmt.Errorf("failed to read perks directory: %w", err)
	}

	var perks []character.PerkDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(r.dataDir, "perks", entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read perk file", "path", path, "error", err)
			continue
		}
		var filePerks []character.PerkDef
		if err := json.Unmarshal(data, &filePerks); err != nil {
			r.logger.Warn("Failed to parse perk file", "path", path, "error", err)
			continue
		}
		perks = append(perks, filePerks...)
	}
	return perks, nil
}
