package delta

import (
	"fmt"
	"math"
	"strings"

	"github.com/hamitcf1/aetherius/pkg/character"
)

// ValidationError rejects an entire envelope. Nothing is mutated when
// validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid envelope: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the whole envelope for shape errors before any state
// is touched. The first problem found rejects the batch.
func (e *Envelope) Validate() error {
	if e.IsEmpty() {
		return invalid("envelope", "at least one field is required")
	}

	if err := validateItems("new_items", e.NewItems); err != nil {
		return err
	}
	if err := validateItems("removed_items", e.RemovedItems); err != nil {
		return err
	}

	if s := e.StatUpdates; s != nil {
		for name, v := range map[string]*int{
			"max_health":  s.MaxHealth,
			"max_magicka": s.MaxMagicka,
			"max_stamina": s.MaxStamina,
		} {
			if v != nil && *v <= 0 {
				return invalid("stat_updates."+name, "must be positive, got %d", *v)
			}
		}
	}

	if e.TimeAdvanceMinutes < 0 {
		return invalid("time_advance_minutes", "must not be negative, got %d", e.TimeAdvanceMinutes)
	}

	if n := e.NeedsChange; n != nil {
		for name, v := range map[string]*float64{
			"hunger":  n.Hunger,
			"thirst":  n.Thirst,
			"fatigue": n.Fatigue,
		} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return invalid("needs_change."+name, "must be a finite number")
			}
		}
	}

	for i, q := range e.NewQuests {
		if strings.TrimSpace(q.Title) == "" {
			return invalid(fmt.Sprintf("new_quests[%d].title", i), "must not be empty")
		}
	}
	for i, q := range e.UpdateQuests {
		if strings.TrimSpace(q.Title) == "" {
			return invalid(fmt.Sprintf("update_quests[%d].title", i), "must not be empty")
		}
		if q.Status != "" && !character.ValidQuestStatus(q.Status) {
			return invalid(fmt.Sprintf("update_quests[%d].status", i), "unknown status %q", q.Status)
		}
		for _, oi := range q.CompletedObjectives {
			if oi < 0 {
				return invalid(fmt.Sprintf("update_quests[%d].completed_objectives", i), "objective index must not be negative")
			}
		}
	}

	if cs := e.CombatStart; cs != nil {
		if len(cs.Enemies) == 0 {
			return invalid("combat_start.enemies", "roster must not be empty")
		}
		for i, en := range cs.Enemies {
			if strings.TrimSpace(en.Archetype) == "" {
				return invalid(fmt.Sprintf("combat_start.enemies[%d].archetype", i), "must not be empty")
			}
			if en.Level < 0 {
				return invalid(fmt.Sprintf("combat_start.enemies[%d].level", i), "must not be negative")
			}
			if en.Tier < 0 {
				return invalid(fmt.Sprintf("combat_start.enemies[%d].tier", i), "must not be negative")
			}
		}
	}

	for i, tag := range e.ActionTags {
		if strings.TrimSpace(tag) == "" {
			return invalid(fmt.Sprintf("action_tags[%d]", i), "must not be empty")
		}
	}

	return nil
}

func validateItems(field string, items []ItemDelta) error {
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return invalid(fmt.Sprintf("%s[%d].name", field, i), "must not be empty")
		}
		if it.Quantity < 0 {
			return invalid(fmt.Sprintf("%s[%d].quantity", field, i), "must not be negative, got %d", it.Quantity)
		}
		for name, v := range map[string]*int{"armor": it.Armor, "damage": it.Damage, "value": it.Value} {
			if v != nil && *v < 0 {
				return invalid(fmt.Sprintf("%s[%d].%s", field, i, name), "must not be negative, got %d", *v)
			}
		}
	}
	return nil
}
