// Package delta defines the update batch applied to a character
// aggregate. An Envelope is a compact set of optional state-change
// instructions emitted by gameplay events (narration, survival actions,
// shop transactions, combat end). Envelopes are validated as a whole and
// applied atomically: either every field takes effect or none do.
package delta

import "github.com/hamitcf1/aetherius/pkg/character"

// Narrative is the story text attached to an envelope. It becomes the
// journal entry title and body when present.
type Narrative struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// ItemDelta describes one inventory add or removal. Quantity defaults
// to 1 when omitted. Optional combat stats ride along on adds and fill
// missing fields on merge without overwriting known values.
type ItemDelta struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Armor    *int   `json:"armor,omitempty"`
	Damage   *int   `json:"damage,omitempty"`
	Value    *int   `json:"value,omitempty"`
}

// StatUpdates overwrites max-stat pools. Nil fields are untouched.
type StatUpdates struct {
	MaxHealth  *int `json:"max_health,omitempty"`
	MaxMagicka *int `json:"max_magicka,omitempty"`
	MaxStamina *int `json:"max_stamina,omitempty"`
}

// VitalsChange holds additive deltas to current vitals, clamped to
// [0, max] on application.
type VitalsChange struct {
	Health  *int `json:"health,omitempty"`
	Magicka *int `json:"magicka,omitempty"`
	Stamina *int `json:"stamina,omitempty"`
}

// NeedsChange holds additive deltas to survival needs, applied on top of
// passive accrual and clamped to [0, 100].
type NeedsChange struct {
	Hunger  *float64 `json:"hunger,omitempty"`
	Thirst  *float64 `json:"thirst,omitempty"`
	Fatigue *float64 `json:"fatigue,omitempty"`
}

// QuestDelta creates a new quest in active status.
type QuestDelta struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Objectives  []string `json:"objectives,omitempty"`
}

// QuestUpdate moves an existing quest forward by case-insensitive title
// match. GMOverride permits transitions that the monotonic status rule
// would otherwise reject.
type QuestUpdate struct {
	Title               string                `json:"title"`
	Status              character.QuestStatus `json:"status,omitempty"`
	CompletedObjectives []int                 `json:"completed_objectives,omitempty"`
	GMOverride          bool                  `json:"gm_override,omitempty"`
}

// CharacterUpdates overwrites narrative profile fields directly. These
// carry no numeric invariants.
type CharacterUpdates struct {
	Name       *string `json:"name,omitempty"`
	Race       *string `json:"race,omitempty"`
	Class      *string `json:"class,omitempty"`
	Background *string `json:"background,omitempty"`
}

// EnemySpec names one enemy for a combat start: an archetype template id
// plus per-encounter overrides.
type EnemySpec struct {
	Archetype string `json:"archetype"`
	Name      string `json:"name,omitempty"`
	Level     int    `json:"level,omitempty"`
	Tier      int    `json:"tier,omitempty"`
}

// CombatStart requests a combat session. The pipeline validates it and
// hands it back to the caller; the combat manager opens the session.
type CombatStart struct {
	Enemies          []EnemySpec `json:"enemies"`
	Location         string      `json:"location,omitempty"`
	Ambush           bool        `json:"ambush,omitempty"`
	FleeAllowed      bool        `json:"flee_allowed"`
	SurrenderAllowed bool        `json:"surrender_allowed"`
}

// Envelope is one batched update. Every field is optional, but an
// envelope with no fields at all is rejected by Validate.
type Envelope struct {
	Narrative          *Narrative        `json:"narrative,omitempty"`
	NewItems           []ItemDelta       `json:"new_items,omitempty"`
	RemovedItems       []ItemDelta       `json:"removed_items,omitempty"`
	StatUpdates        *StatUpdates      `json:"stat_updates,omitempty"`
	VitalsChange       *VitalsChange     `json:"vitals_change,omitempty"`
	GoldChange         int               `json:"gold_change,omitempty"`
	XPChange           int               `json:"xp_change,omitempty"`
	TimeAdvanceMinutes int               `json:"time_advance_minutes,omitempty"`
	NeedsChange        *NeedsChange      `json:"needs_change,omitempty"`
	NewQuests          []QuestDelta      `json:"new_quests,omitempty"`
	UpdateQuests       []QuestUpdate     `json:"update_quests,omitempty"`
	CharacterUpdates   *CharacterUpdates `json:"character_updates,omitempty"`
	CombatStart        *CombatStart      `json:"combat_start,omitempty"`

	// ActionTags feed the skill/perk tracker. They never grant XP.
	ActionTags []string `json:"action_tags,omitempty"`
}

// IsEmpty reports whether the envelope carries no instructions at all.
func (e *Envelope) IsEmpty() bool {
	return e == nil || (e.Narrative == nil &&
		len(e.NewItems) == 0 &&
		len(e.RemovedItems) == 0 &&
		e.StatUpdates == nil &&
		e.VitalsChange == nil &&
		e.GoldChange == 0 &&
		e.XPChange == 0 &&
		e.TimeAdvanceMinutes == 0 &&
		e.NeedsChange == nil &&
		len(e.NewQuests) == 0 &&
		len(e.UpdateQuests) == 0 &&
		e.CharacterUpdates == nil &&
		e.CombatStart == nil &&
		len(e.ActionTags) == 0)
}
