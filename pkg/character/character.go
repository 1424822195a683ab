package character

import (
	"time"

	"github.com/google/uuid"
)

// Stats are the maximum vital pools for a character. They only change
// through stat updates and level-up bonuses.
type Stats struct {
	MaxHealth  int `json:"max_health"`
	MaxMagicka int `json:"max_magicka"`
	MaxStamina int `json:"max_stamina"`
}

// Vitals are the current vital values, each clamped to [0, max].
type Vitals struct {
	Health  int `json:"health"`
	Magicka int `json:"magicka"`
	Stamina int `json:"stamina"`
}

// Needs are survival meters on a 0-100 scale. Higher is worse.
// Values carry one decimal place so slow passive accrual is not lost
// to integer truncation.
type Needs struct {
	Hunger  float64 `json:"hunger"`
	Thirst  float64 `json:"thirst"`
	Fatigue float64 `json:"fatigue"`
}

// Archetype buckets a character class for level-up stat bonuses.
type Archetype string

const (
	ArchetypeCaster  Archetype = "caster"
	ArchetypeStealth Archetype = "stealth"
	ArchetypeOther   Archetype = "other"
)

// Character is the full persisted aggregate for one player character.
// It is owned by the apply pipeline: all mutation goes through envelope
// application, never through direct field writes by callers.
type Character struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Race       string    `json:"race,omitempty"`
	Class      string    `json:"class,omitempty"`
	Background string    `json:"background,omitempty"`

	Level      int    `json:"level"`
	Experience int    `json:"experience"`
	Stats      Stats  `json:"stats"`
	Vitals     Vitals `json:"vitals"`
	Gold       int    `json:"gold"`

	Clock Clock `json:"clock"`
	Needs Needs `json:"needs"`

	Skills map[string]int `json:"skills,omitempty"`
	Perks  []string       `json:"perks,omitempty"`

	Inventory []InventoryItem `json:"inventory,omitempty"`
	Quests    []Quest         `json:"quests,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a level-1 character with default pools and a fresh clock.
func New(name, race, class string) *Character {
	now := time.Now().UTC()
	return &Character{
		ID:         uuid.New(),
		Name:       name,
		Race:       race,
		Class:      class,
		Level:      1,
		Experience: 0,
		Stats:      Stats{MaxHealth: 100, MaxMagicka: 100, MaxStamina: 100},
		Vitals:     Vitals{Health: 100, Magicka: 100, Stamina: 100},
		Gold:       50,
		Clock:      Clock{Day: 1, Hour: 8, Minute: 0},
		Skills:     make(map[string]int),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy of the aggregate. The apply pipeline mutates
// a clone and swaps it in on success, so readers never see a partially
// applied envelope.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Skills != nil {
		cp.Skills = make(map[string]int, len(c.Skills))
		for k, v := range c.Skills {
			cp.Skills[k] = v
		}
	}
	if c.Perks != nil {
		cp.Perks = append([]string(nil), c.Perks...)
	}
	if c.Inventory != nil {
		cp.Inventory = make([]InventoryItem, len(c.Inventory))
		for i, it := range c.Inventory {
			cp.Inventory[i] = it.clone()
		}
	}
	if c.Quests != nil {
		cp.Quests = make([]Quest, len(c.Quests))
		for i, q := range c.Quests {
			cp.Quests[i] = q.clone()
		}
	}
	return &cp
}

// ArchetypeClass maps a class name to its bonus archetype.
func (c *Character) ArchetypeClass() Archetype {
	return ClassifyClass(c.Class)
}

// ClassifyClass buckets a free-form class name into caster, stealth or other.
func ClassifyClass(class string) Archetype {
	switch foldName(class) {
	case "mage", "sorcerer", "wizard", "necromancer", "conjurer", "healer", "battlemage":
		return ArchetypeCaster
	case "thief", "assassin", "rogue", "scout", "nightblade", "archer":
		return ArchetypeStealth
	default:
		return ArchetypeOther
	}
}

// ClampVitals pulls every current vital back into [0, max].
func (c *Character) ClampVitals() {
	c.Vitals.Health = clampInt(c.Vitals.Health, 0, c.Stats.MaxHealth)
	c.Vitals.Magicka = clampInt(c.Vitals.Magicka, 0, c.Stats.MaxMagicka)
	c.Vitals.Stamina = clampInt(c.Vitals.Stamina, 0, c.Stats.MaxStamina)
}

// ClampNeeds pulls every need back into [0, 100], keeping one decimal.
func (c *Character) ClampNeeds() {
	c.Needs.Hunger = clampNeed(c.Needs.Hunger)
	c.Needs.Thirst = clampNeed(c.Needs.Thirst)
	c.Needs.Fatigue = clampNeed(c.Needs.Fatigue)
}

// HasPerk reports whether the perk is already in the character's set.
func (c *Character) HasPerk(id string) bool {
	for _, p := range c.Perks {
		if p == id {
			return true
		}
	}
	return false
}

// GrantPerk adds a perk to the set. Perks are append-only and never
// revoked; granting an existing perk is a no-op.
func (c *Character) GrantPerk(id string) bool {
	if c.HasPerk(id) {
		return false
	}
	c.Perks = append(c.Perks, id)
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampNeed(v float64) float64 {
	v = Round1(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
