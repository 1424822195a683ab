package combat

import (
	"github.com/hamitcf1/aetherius/pkg/delta"
)

// Ability is one attack option available to an enemy or the player.
type Ability struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DamageMult float64 `json:"damage_mult,omitempty"`
	School     string  `json:"school,omitempty"` // damage school matched against weaknesses/resistances
}

// LootEntry is one possible drop in an enemy's loot table. Entries are
// rolled at resolution time only; the table itself is read at most once
// per combat session.
type LootEntry struct {
	Item         delta.ItemDelta `json:"item"`
	QuantityMin  int             `json:"quantity_min"`
	QuantityMax  int             `json:"quantity_max"`
	DropChance   float64         `json:"drop_chance"`
	RarityWeight int             `json:"rarity_weight,omitempty"`
}

// Enemy is one combatant on the opposing side. Templates in
// data/enemies define archetypes; encounters spawn instances from a
// template plus per-encounter overrides.
type Enemy struct {
	ID        string `json:"id"`
	Archetype string `json:"archetype"`
	Name      string `json:"name"`
	Kind      string `json:"kind,omitempty"` // beast, humanoid, undead, daedra
	Level     int    `json:"level"`
	Tier      int    `json:"tier"` // 0 common, 1 elite, 2 boss

	MaxHealth  int `json:"max_health"`
	Health     int `json:"health"`
	Armor      int `json:"armor"`
	BaseDamage int `json:"base_damage"`

	// Per-level growth applied when an encounter overrides Level.
	HealthPerLevel int `json:"health_per_level,omitempty"`
	DamagePerLevel int `json:"damage_per_level,omitempty"`

	Abilities   []Ability   `json:"abilities,omitempty"`
	Loot        []LootEntry `json:"loot,omitempty"`
	Weaknesses  []string    `json:"weaknesses,omitempty"`
	Resistances []string    `json:"resistances,omitempty"`
}

// NewEnemy builds an encounter instance from a template and the enemy
// spec carried by the combat_start delta. Non-zero spec fields override
// the template; stats scale with the requested level through the
// template's per-level growth, never by per-enemy exceptions.
func NewEnemy(id string, template *Enemy, spec delta.EnemySpec) *Enemy {
	if template == nil {
		return nil
	}
	e := *template
	e.ID = id
	e.Archetype = spec.Archetype

	if spec.Name != "" {
		e.Name = spec.Name
	}
	if spec.Tier > 0 {
		e.Tier = spec.Tier
	}
	if spec.Level > 0 && spec.Level != template.Level {
		levels := spec.Level - template.Level
		e.Level = spec.Level
		e.MaxHealth += levels * e.HealthPerLevel
		e.BaseDamage += levels * e.DamagePerLevel
		if e.MaxHealth < 1 {
			e.MaxHealth = 1
		}
		if e.BaseDamage < 1 {
			e.BaseDamage = 1
		}
	}
	if e.Level < 1 {
		e.Level = 1
	}

	e.Health = e.MaxHealth

	e.Abilities = append([]Ability(nil), template.Abilities...)
	e.Loot = append([]LootEntry(nil), template.Loot...)
	e.Weaknesses = append([]string(nil), template.Weaknesses...)
	e.Resistances = append([]string(nil), template.Resistances...)
	return &e
}

// TakeDamage reduces health, flooring at zero.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.Health -= n
	if e.Health < 0 {
		e.Health = 0
	}
}

// IsDefeated reports whether the enemy is out of the fight.
func (e *Enemy) IsDefeated() bool {
	return e.Health <= 0
}

// Ability returns the ability with the given id, falling back to a
// plain strike so an unknown id still resolves a turn.
func (e *Enemy) Ability(id string) Ability {
	for _, a := range e.Abilities {
		if a.ID == id {
			return a
		}
	}
	return Ability{ID: "strike", Name: "Strike", DamageMult: 1.0}
}

const (
	TierCommon = 0
	TierElite  = 1
	TierBoss   = 2
)

// EnemyXP is the single centralized experience rule. It depends only on
// enemy attributes (level, tier, kind), is intentionally small in
// magnitude, and is never overridden per enemy by name.
func EnemyXP(level, tier int, kind string) int {
	if level < 1 {
		level = 1
	}
	xp := level*8 + tier*12
	switch kind {
	case "daedra":
		xp = xp * 5 / 4
	case "undead":
		xp = xp * 11 / 10
	}
	if xp < 1 {
		xp = 1
	}
	return xp
}

// EnemyGold follows the same attribute-driven rule as EnemyXP. Beasts
// carry nothing.
func EnemyGold(level, tier int, kind string) int {
	if kind == "beast" {
		return 0
	}
	if level < 1 {
		level = 1
	}
	return level*3 + tier*5
}
