package combat

import (
	"fmt"

	"github.com/hamitcf1/aetherius/pkg/delta"
)

// RolledLoot is one concrete drop offered to the player after victory.
type RolledLoot struct {
	ID      string          `json:"id"`
	EnemyID string          `json:"enemy_id"`
	Item    delta.ItemDelta `json:"item"`
}

// LootSelection is the player's choice over the rolled entries: take
// everything, take a named subset, or skip with no penalty.
type LootSelection struct {
	All      bool     `json:"all,omitempty"`
	Skip     bool     `json:"skip,omitempty"`
	EntryIDs []string `json:"entry_ids,omitempty"`
}

// maxDropsPerEnemy bounds how many table entries one enemy can yield.
func maxDropsPerEnemy(tier int) int {
	return 2 + tier
}

// Loot rolls the drop tables and returns the offered entries. The roll
// happens exactly once, on the first call after victory; repeated calls
// return the same cached entries, so peeking can never reroll a drop.
func (s *Session) Loot() ([]RolledLoot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolved || s.outcome != OutcomeVictory {
		return nil, &StateError{Op: "loot", State: s.state}
	}
	if s.lootResolved {
		return nil, ErrLootResolved
	}
	if !s.lootRolled {
		s.rolledLoot = s.rollLootLocked()
		s.lootRolled = true
	}
	return append([]RolledLoot(nil), s.rolledLoot...), nil
}

// rollLootLocked reads each defeated enemy's table once: dropChance
// gates each entry, quantity comes from the entry's range, and when an
// enemy over-rolls its cap the kept entries are drawn by rarityWeight.
func (s *Session) rollLootLocked() []RolledLoot {
	var rolled []RolledLoot
	for _, e := range s.enemies {
		if !e.IsDefeated() || len(e.Loot) == 0 {
			continue
		}
		var candidates []LootEntry
		for _, entry := range e.Loot {
			if s.rng.Float64() < entry.DropChance {
				candidates = append(candidates, entry)
			}
		}
		candidates = s.trimByRarity(candidates, maxDropsPerEnemy(e.Tier))

		for _, entry := range candidates {
			qty := entry.QuantityMin
			if entry.QuantityMax > entry.QuantityMin {
				qty += s.rng.Intn(entry.QuantityMax - entry.QuantityMin + 1)
			}
			if qty < 1 {
				qty = 1
			}
			item := entry.Item
			item.Quantity = qty
			rolled = append(rolled, RolledLoot{
				ID:      fmt.Sprintf("%s/%d", e.ID, len(rolled)),
				EnemyID: e.ID,
				Item:    item,
			})
		}
	}
	return rolled
}

// trimByRarity keeps at most n entries, drawn without replacement with
// probability proportional to rarityWeight.
func (s *Session) trimByRarity(entries []LootEntry, n int) []LootEntry {
	if len(entries) <= n {
		return entries
	}
	pool := append([]LootEntry(nil), entries...)
	kept := make([]LootEntry, 0, n)
	for len(kept) < n && len(pool) > 0 {
		total := 0
		for _, e := range pool {
			w := e.RarityWeight
			if w < 1 {
				w = 1
			}
			total += w
		}
		pick := s.rng.Intn(total)
		for i, e := range pool {
			w := e.RarityWeight
			if w < 1 {
				w = 1
			}
			if pick < w {
				kept = append(kept, e)
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
			pick -= w
		}
	}
	return kept
}

// ClaimLoot finalizes the loot phase and emits the full reward (items,
// experience, gold, vitals, time, skill tags) as one envelope for the
// apply pipeline, so the reward cannot partially land. The lootResolved
// flag is set exactly once; repeat calls are a no-op returning
// ErrLootResolved. Unselected entries are discarded permanently.
func (s *Session) ClaimLoot(sel LootSelection) (*delta.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolved || s.outcome != OutcomeVictory {
		return nil, &StateError{Op: "claim loot", State: s.state}
	}
	if s.lootResolved {
		return nil, ErrLootResolved
	}
	if !s.lootRolled {
		s.rolledLoot = s.rollLootLocked()
		s.lootRolled = true
	}

	env := s.baseResultLocked()

	for _, e := range s.enemies {
		env.XPChange += EnemyXP(e.Level, e.Tier, e.Kind)
		env.GoldChange += EnemyGold(e.Level, e.Tier, e.Kind)
	}

	if !sel.Skip {
		selected := make(map[string]bool, len(sel.EntryIDs))
		for _, id := range sel.EntryIDs {
			selected[id] = true
		}
		for _, rl := range s.rolledLoot {
			if sel.All || selected[rl.ID] {
				env.NewItems = append(env.NewItems, rl.Item)
			}
		}
	}

	s.lootResolved = true
	if s.logger != nil {
		s.logger.Info("Loot phase resolved",
			"session_id", s.ID,
			"character_id", s.CharacterID,
			"items", len(env.NewItems),
			"xp", env.XPChange,
			"gold", env.GoldChange)
	}
	return env, nil
}
