package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/delta"
)

// Summary records the numeric effects an envelope actually had, for
// journal synthesis and API responses. Same envelope + same summary
// always produce the same journal text.
type Summary struct {
	TimeAdvanced  int      `json:"time_advanced,omitempty"`
	NeedsChanged  bool     `json:"needs_changed,omitempty"`
	VitalsChanged bool     `json:"vitals_changed,omitempty"`
	StatsChanged  bool     `json:"stats_changed,omitempty"`
	GoldDelta     int      `json:"gold_delta,omitempty"`
	XPApplied     int      `json:"xp_applied,omitempty"`
	LevelsGained  int      `json:"levels_gained,omitempty"`
	ItemsAdded    []string `json:"items_added,omitempty"`
	ItemsRemoved  []string `json:"items_removed,omitempty"`
	QuestsAdded   []string `json:"quests_added,omitempty"`
	QuestsUpdated []string `json:"quests_updated,omitempty"`
	PerksUnlocked []string `json:"perks_unlocked,omitempty"`
}

// applyWorker runs one validated envelope against a cloned snapshot in
// the fixed pipeline order. The caller swaps the snapshot in only when
// apply returns nil, so a mid-pipeline rejection leaves nothing behind.
type applyWorker struct {
	snap   *character.Character
	env    *delta.Envelope
	perks  []character.PerkDef
	logger *slog.Logger
	sum    Summary
}

func newApplyWorker(snap *character.Character, env *delta.Envelope, perks []character.PerkDef, logger *slog.Logger) *applyWorker {
	return &applyWorker{snap: snap, env: env, perks: perks, logger: logger}
}

func (w *applyWorker) apply() error {
	w.applyTime()
	w.applyNeeds()
	w.applyStats()
	w.applyVitals()
	if err := w.applyGold(); err != nil {
		return err
	}
	w.applyInventory()
	w.applyXP()
	w.applyQuests()
	w.applyProfile()
	w.applySkills()
	w.snap.UpdatedAt = time.Now().UTC()
	return nil
}

// applyTime advances the clock and accrues passive needs for the
// elapsed in-game minutes.
func (w *applyWorker) applyTime() {
	minutes := w.env.TimeAdvanceMinutes
	if minutes <= 0 {
		return
	}
	w.snap.Clock.Advance(minutes)
	accrueNeeds(&w.snap.Needs, minutes)
	w.sum.TimeAdvanced = minutes
}

// applyNeeds adds explicit need deltas on top of passive accrual.
func (w *applyWorker) applyNeeds() {
	n := w.env.NeedsChange
	if n == nil {
		return
	}
	if n.Hunger != nil {
		w.snap.Needs.Hunger += *n.Hunger
	}
	if n.Thirst != nil {
		w.snap.Needs.Thirst += *n.Thirst
	}
	if n.Fatigue != nil {
		w.snap.Needs.Fatigue += *n.Fatigue
	}
	clampNeeds(&w.snap.Needs)
	w.sum.NeedsChanged = true
}

// applyStats overwrites max pools, then re-clamps current vitals so no
// vital exceeds its shrunken maximum.
func (w *applyWorker) applyStats() {
	s := w.env.StatUpdates
	if s == nil {
		return
	}
	if s.MaxHealth != nil {
		w.snap.Stats.MaxHealth = *s.MaxHealth
	}
	if s.MaxMagicka != nil {
		w.snap.Stats.MaxMagicka = *s.MaxMagicka
	}
	if s.MaxStamina != nil {
		w.snap.Stats.MaxStamina = *s.MaxStamina
	}
	w.snap.ClampVitals()
	w.sum.StatsChanged = true
}

func (w *applyWorker) applyVitals() {
	v := w.env.VitalsChange
	if v == nil {
		return
	}
	if v.Health != nil {
		w.snap.Vitals.Health += *v.Health
	}
	if v.Magicka != nil {
		w.snap.Vitals.Magicka += *v.Magicka
	}
	if v.Stamina != nil {
		w.snap.Vitals.Stamina += *v.Stamina
	}
	w.snap.ClampVitals()
	w.sum.VitalsChanged = true
}

// applyGold rejects the envelope outright when a purchase would
// overdraw: gold never goes negative, and atomicity means the whole
// batch fails rather than partially landing.
func (w *applyWorker) applyGold() error {
	if w.env.GoldChange == 0 {
		return nil
	}
	next := w.snap.Gold + w.env.GoldChange
	if next < 0 {
		return &delta.ValidationError{
			Field:  "gold_change",
			Reason: fmt.Sprintf("insufficient gold: have %d, change %d", w.snap.Gold, w.env.GoldChange),
		}
	}
	w.snap.Gold = next
	w.sum.GoldDelta = w.env.GoldChange
	return nil
}

// applyInventory merges adds by normalized name and subtracts removals,
// deleting any stack that reaches zero. The whole batch operates on a
// copied slice swapped in at the end.
func (w *applyWorker) applyInventory() {
	if len(w.env.NewItems) == 0 && len(w.env.RemovedItems) == 0 {
		return
	}

	items := make([]character.InventoryItem, len(w.snap.Inventory))
	copy(items, w.snap.Inventory)

	for _, in := range w.env.NewItems {
		qty := in.Quantity
		if qty < 1 {
			qty = 1
		}
		incoming := character.InventoryItem{
			ID:          uuid.New(),
			CharacterID: w.snap.ID,
			Name:        strings.TrimSpace(in.Name),
			Type:        in.Type,
			Subtype:     in.Subtype,
			Quantity:    qty,
			Armor:       copyIntPtr(in.Armor),
			Damage:      copyIntPtr(in.Damage),
			Value:       copyIntPtr(in.Value),
		}

		idx := findItem(items, in.Name)
		if idx >= 0 {
			items[idx].Quantity += qty
			items[idx].FillStats(&incoming)
		} else {
			items = append(items, incoming)
		}
		w.sum.ItemsAdded = append(w.sum.ItemsAdded, fmt.Sprintf("%s x%d", incoming.Name, qty))
	}

	for _, out := range w.env.RemovedItems {
		qty := out.Quantity
		if qty < 1 {
			qty = 1
		}
		idx := findItem(items, out.Name)
		if idx < 0 {
			if w.logger != nil {
				w.logger.Warn("Removal for item not in inventory",
					"character_id", w.snap.ID,
					"item", out.Name)
			}
			continue
		}
		items[idx].Quantity -= qty
		name := items[idx].Name
		if items[idx].Quantity <= 0 {
			items = append(items[:idx], items[idx+1:]...)
		}
		w.sum.ItemsRemoved = append(w.sum.ItemsRemoved, fmt.Sprintf("%s x%d", name, qty))
	}

	w.snap.Inventory = items
}

// copyIntPtr detaches an optional stat from the caller's envelope so
// the stored aggregate never aliases request memory.
func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func findItem(items []character.InventoryItem, name string) int {
	key := character.NormalizeName(name)
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (w *applyWorker) applyXP() {
	if w.env.XPChange == 0 {
		return
	}
	w.sum.XPApplied = w.env.XPChange
	w.sum.LevelsGained = applyXP(w.snap, w.env.XPChange)
	if w.sum.LevelsGained > 0 && w.logger != nil {
		w.logger.Info("Level up",
			"character_id", w.snap.ID,
			"level", w.snap.Level,
			"levels_gained", w.sum.LevelsGained)
	}
}

// applyQuests appends new quests as active and moves matched quests
// forward. An ambiguous title (two quests sharing a folded title) or a
// backward transition is a conflict: that update is skipped and logged,
// the rest of the batch proceeds.
func (w *applyWorker) applyQuests() {
	for _, nq := range w.env.NewQuests {
		if len(w.snap.FindQuests(nq.Title)) > 0 {
			if w.logger != nil {
				w.logger.Warn("Duplicate quest title ignored",
					"character_id", w.snap.ID,
					"title", nq.Title)
			}
			continue
		}
		q := character.Quest{
			ID:          uuid.New(),
			CharacterID: w.snap.ID,
			Title:       strings.TrimSpace(nq.Title),
			Description: nq.Description,
			Status:      character.QuestActive,
		}
		for _, obj := range nq.Objectives {
			q.Objectives = append(q.Objectives, character.Objective{Description: obj})
		}
		w.snap.Quests = append(w.snap.Quests, q)
		w.sum.QuestsAdded = append(w.sum.QuestsAdded, q.Title)
	}

	for _, uq := range w.env.UpdateQuests {
		matches := w.snap.FindQuests(uq.Title)
		if len(matches) == 0 {
			if w.logger != nil {
				w.logger.Warn("Quest update for unknown title",
					"character_id", w.snap.ID,
					"title", uq.Title)
			}
			continue
		}
		if len(matches) > 1 {
			if w.logger != nil {
				w.logger.Warn("Ambiguous quest title, update skipped",
					"character_id", w.snap.ID,
					"title", uq.Title,
					"matches", len(matches))
			}
			continue
		}

		q := &w.snap.Quests[matches[0]]
		statusChanges := uq.Status != "" && uq.Status != q.Status
		if statusChanges && !q.CanTransition(uq.Status, uq.GMOverride) {
			// A rejected transition conflicts the whole update: the
			// objectives it carried must not land either.
			if w.logger != nil {
				w.logger.Warn("Quest status transition rejected",
					"character_id", w.snap.ID,
					"title", q.Title,
					"from", q.Status,
					"to", uq.Status)
			}
			continue
		}
		for _, oi := range uq.CompletedObjectives {
			if oi < len(q.Objectives) {
				q.Objectives[oi].Completed = true
			}
		}
		if statusChanges {
			q.Status = uq.Status
			w.sum.QuestsUpdated = append(w.sum.QuestsUpdated, fmt.Sprintf("%s: %s", q.Title, q.Status))
		}
	}
}

// applyProfile overwrites narrative profile fields directly; these
// carry no numeric invariants.
func (w *applyWorker) applyProfile() {
	p := w.env.CharacterUpdates
	if p == nil {
		return
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		w.snap.Name = *p.Name
	}
	if p.Race != nil {
		w.snap.Race = *p.Race
	}
	if p.Class != nil {
		w.snap.Class = *p.Class
	}
	if p.Background != nil {
		w.snap.Background = *p.Background
	}
}

func (w *applyWorker) applySkills() {
	w.sum.PerksUnlocked = applySkillTags(w.snap, w.env.ActionTags, w.perks, w.logger)
}
