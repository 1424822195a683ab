package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/delta"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func runWorker(t *testing.T, c *character.Character, env *delta.Envelope) Summary {
	t.Helper()
	w := newApplyWorker(c, env, nil, noopLogger)
	if err := w.apply(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	return w.sum
}

func TestApplyTimeAdvancesClockAndNeeds(t *testing.T) {
	c := character.New("Lyra", "", "")
	sum := runWorker(t, c, &delta.Envelope{TimeAdvanceMinutes: 120})

	if c.Clock != (character.Clock{Day: 1, Hour: 10, Minute: 0}) {
		t.Errorf("unexpected clock: %+v", c.Clock)
	}
	if c.Needs.Hunger != 1.0 || c.Needs.Thirst != 1.3 || c.Needs.Fatigue != 0.8 {
		t.Errorf("passive accrual missing: %+v", c.Needs)
	}
	if sum.TimeAdvanced != 120 {
		t.Errorf("summary should record time advance, got %d", sum.TimeAdvanced)
	}
}

func TestApplyNeedsDeltaOnTopOfAccrual(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Needs.Hunger = 40

	// Eating a meal while two hours pass: accrual first, then the delta.
	runWorker(t, c, &delta.Envelope{
		TimeAdvanceMinutes: 120,
		NeedsChange:        &delta.NeedsChange{Hunger: floatPtr(-25)},
	})

	if c.Needs.Hunger != 16.0 {
		t.Errorf("expected hunger 16.0 (40 + 1.0 - 25), got %v", c.Needs.Hunger)
	}
}

func TestApplyNeedsClampsAtBounds(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Needs.Fatigue = 30

	runWorker(t, c, &delta.Envelope{
		NeedsChange: &delta.NeedsChange{Fatigue: floatPtr(-999)},
	})

	if c.Needs.Fatigue != 0 {
		t.Errorf("fatigue should clamp to 0, got %v", c.Needs.Fatigue)
	}
}

func TestApplyStatsReclampsVitals(t *testing.T) {
	c := character.New("Lyra", "", "")

	runWorker(t, c, &delta.Envelope{
		StatUpdates: &delta.StatUpdates{MaxHealth: intPtr(60)},
	})

	if c.Stats.MaxHealth != 60 {
		t.Errorf("max health not overwritten: %d", c.Stats.MaxHealth)
	}
	if c.Vitals.Health != 60 {
		t.Errorf("current health should clamp to new max, got %d", c.Vitals.Health)
	}
}

func TestApplyGoldOverdrawRejectsEnvelope(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Gold = 50

	w := newApplyWorker(c, &delta.Envelope{GoldChange: -60}, nil, noopLogger)
	err := w.apply()
	if err == nil {
		t.Fatal("expected overdraw rejection")
	}
	var ve *delta.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *delta.ValidationError, got %T", err)
	}
	if ve.Field != "gold_change" {
		t.Errorf("unexpected field: %s", ve.Field)
	}
}

func TestApplyGoldSpendToZero(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Gold = 50

	sum := runWorker(t, c, &delta.Envelope{GoldChange: -50})

	if c.Gold != 0 {
		t.Errorf("expected exactly zero gold, got %d", c.Gold)
	}
	if sum.GoldDelta != -50 {
		t.Errorf("summary gold delta wrong: %d", sum.GoldDelta)
	}
}

func TestApplyInventoryMergesByFoldedName(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Inventory = []character.InventoryItem{{Name: "Iron Sword", Quantity: 1}}

	runWorker(t, c, &delta.Envelope{
		NewItems: []delta.ItemDelta{
			{Name: "  iron sword ", Quantity: 2, Damage: intPtr(8)},
			{Name: "Healing Potion"},
		},
	})

	if len(c.Inventory) != 2 {
		t.Fatalf("expected 2 stacks, got %d", len(c.Inventory))
	}
	sword := c.Inventory[c.FindItem("iron sword")]
	if sword.Quantity != 3 {
		t.Errorf("expected merged quantity 3, got %d", sword.Quantity)
	}
	if sword.Damage == nil || *sword.Damage != 8 {
		t.Error("merge should fill unknown stats from the incoming item")
	}
	potion := c.Inventory[c.FindItem("healing potion")]
	if potion.Quantity != 1 {
		t.Errorf("omitted quantity should default to 1, got %d", potion.Quantity)
	}
}

func TestApplyInventoryMergeOrderIrrelevant(t *testing.T) {
	// Adding [+2 Torch, +3 Torch] must land identically to
	// [+3 Torch, +2 Torch], whether the adds share an envelope or not.
	build := func(t *testing.T, quantities []int, split bool) *character.Character {
		t.Helper()
		c := character.New("Lyra", "", "")
		if split {
			for _, q := range quantities {
				runWorker(t, c, &delta.Envelope{
					NewItems: []delta.ItemDelta{{Name: "Torch", Quantity: q}},
				})
			}
			return c
		}
		var items []delta.ItemDelta
		for _, q := range quantities {
			items = append(items, delta.ItemDelta{Name: "Torch", Quantity: q})
		}
		runWorker(t, c, &delta.Envelope{NewItems: items})
		return c
	}

	for _, split := range []bool{false, true} {
		a := build(t, []int{2, 3}, split)
		b := build(t, []int{3, 2}, split)

		for _, c := range []*character.Character{a, b} {
			if len(c.Inventory) != 1 {
				t.Fatalf("split=%v: expected one stack, got %d", split, len(c.Inventory))
			}
			if c.Inventory[0].Quantity != 5 {
				t.Errorf("split=%v: expected quantity 5, got %d", split, c.Inventory[0].Quantity)
			}
		}
		if a.Inventory[0].Name != b.Inventory[0].Name {
			t.Errorf("split=%v: stack names diverge: %q vs %q", split, a.Inventory[0].Name, b.Inventory[0].Name)
		}
	}
}

func TestApplyInventoryInsertDetachesStatPointers(t *testing.T) {
	c := character.New("Lyra", "", "")
	dmg := 8

	runWorker(t, c, &delta.Envelope{
		NewItems: []delta.ItemDelta{{Name: "Iron Sword", Damage: &dmg}},
	})

	dmg = 999
	sword := c.Inventory[c.FindItem("iron sword")]
	if sword.Damage == nil || *sword.Damage != 8 {
		t.Error("stored item must not alias the envelope's stat pointer")
	}
}

func TestApplyInventoryRemovalDeletesEmptyStacks(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Inventory = []character.InventoryItem{
		{Name: "Arrow", Quantity: 5},
		{Name: "Rope", Quantity: 1},
	}

	runWorker(t, c, &delta.Envelope{
		RemovedItems: []delta.ItemDelta{
			{Name: "arrow", Quantity: 2},
			{Name: "rope"},
			{Name: "ghost item"}, // unknown removal is skipped, not fatal
		},
	})

	if len(c.Inventory) != 1 {
		t.Fatalf("expected only arrows to remain, got %d stacks", len(c.Inventory))
	}
	if c.Inventory[0].Quantity != 3 {
		t.Errorf("expected 3 arrows, got %d", c.Inventory[0].Quantity)
	}
}

func TestApplyQuestsLifecycle(t *testing.T) {
	c := character.New("Lyra", "", "")

	sum := runWorker(t, c, &delta.Envelope{
		NewQuests: []delta.QuestDelta{
			{Title: "The Long Road", Objectives: []string{"Leave town", "Reach the pass"}},
		},
	})
	if len(c.Quests) != 1 || c.Quests[0].Status != character.QuestActive {
		t.Fatalf("quest not created active: %+v", c.Quests)
	}
	if len(sum.QuestsAdded) != 1 {
		t.Errorf("summary missing quest add: %+v", sum.QuestsAdded)
	}

	runWorker(t, c, &delta.Envelope{
		UpdateQuests: []delta.QuestUpdate{
			{Title: "the long road", Status: character.QuestCompleted, CompletedObjectives: []int{0, 1}},
		},
	})
	if c.Quests[0].Status != character.QuestCompleted {
		t.Errorf("quest not completed: %s", c.Quests[0].Status)
	}
	if !c.Quests[0].Objectives[0].Completed || !c.Quests[0].Objectives[1].Completed {
		t.Error("objectives not marked complete")
	}

	// Backward transition without override is skipped, not an error.
	runWorker(t, c, &delta.Envelope{
		UpdateQuests: []delta.QuestUpdate{{Title: "The Long Road", Status: character.QuestActive}},
	})
	if c.Quests[0].Status != character.QuestCompleted {
		t.Errorf("backward transition should be skipped, got %s", c.Quests[0].Status)
	}

	// A GM override may reopen it.
	runWorker(t, c, &delta.Envelope{
		UpdateQuests: []delta.QuestUpdate{{Title: "The Long Road", Status: character.QuestActive, GMOverride: true}},
	})
	if c.Quests[0].Status != character.QuestActive {
		t.Errorf("gm override should reopen the quest, got %s", c.Quests[0].Status)
	}
}

func TestApplyQuestsRejectedTransitionIsWholeNoOp(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Quests = []character.Quest{{
		Title:      "The Long Road",
		Status:     character.QuestCompleted,
		Objectives: []character.Objective{{Description: "Leave town"}},
	}}

	// The backward transition conflicts, so the objectives riding on the
	// same update must not be marked either.
	runWorker(t, c, &delta.Envelope{
		UpdateQuests: []delta.QuestUpdate{
			{Title: "The Long Road", Status: character.QuestActive, CompletedObjectives: []int{0}},
		},
	})

	if c.Quests[0].Status != character.QuestCompleted {
		t.Errorf("backward transition should be skipped, got %s", c.Quests[0].Status)
	}
	if c.Quests[0].Objectives[0].Completed {
		t.Error("objectives from a rejected update must not land")
	}
}

func TestApplyQuestsAmbiguousTitleSkipped(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Quests = []character.Quest{
		{Title: "The Long Road", Status: character.QuestActive},
		{Title: "the long road", Status: character.QuestActive},
	}

	sum := runWorker(t, c, &delta.Envelope{
		UpdateQuests: []delta.QuestUpdate{{Title: "The Long Road", Status: character.QuestCompleted}},
	})

	for i, q := range c.Quests {
		if q.Status != character.QuestActive {
			t.Errorf("quest %d mutated despite ambiguous title: %s", i, q.Status)
		}
	}
	if len(sum.QuestsUpdated) != 0 {
		t.Errorf("ambiguous update must not be recorded: %+v", sum.QuestsUpdated)
	}
}

func TestApplyDuplicateQuestTitleIgnored(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Quests = []character.Quest{{Title: "The Long Road", Status: character.QuestActive}}

	runWorker(t, c, &delta.Envelope{
		NewQuests: []delta.QuestDelta{{Title: "the long road"}},
	})

	if len(c.Quests) != 1 {
		t.Errorf("duplicate title should not create a second quest, got %d", len(c.Quests))
	}
}

func TestApplyProfileUpdates(t *testing.T) {
	c := character.New("Lyra", "Nord", "warrior")
	name := "Lyra Snow-Strider"
	bg := "Raised in the mountains."
	empty := ""

	runWorker(t, c, &delta.Envelope{
		CharacterUpdates: &delta.CharacterUpdates{Name: &name, Background: &bg},
	})
	if c.Name != name || c.Background != bg {
		t.Errorf("profile not updated: %q %q", c.Name, c.Background)
	}

	// A blank name is ignored rather than wiping identity.
	runWorker(t, c, &delta.Envelope{
		CharacterUpdates: &delta.CharacterUpdates{Name: &empty, Race: &empty},
	})
	if c.Name != name {
		t.Errorf("blank name should be ignored, got %q", c.Name)
	}
	if c.Race != "" {
		t.Errorf("race overwrite should apply, got %q", c.Race)
	}
}

func TestApplyOrderTimeBeforeExplicitNeeds(t *testing.T) {
	// The pipeline always runs accrual before the explicit needs delta,
	// so an envelope that sleeps and rests ends at a deterministic value.
	c := character.New("Lyra", "", "")
	c.Needs.Fatigue = 50

	runWorker(t, c, &delta.Envelope{
		TimeAdvanceMinutes: 480, // +3.0 fatigue accrual
		NeedsChange:        &delta.NeedsChange{Fatigue: floatPtr(-40)},
	})

	if c.Needs.Fatigue != 13.0 {
		t.Errorf("expected fatigue 13.0 (50 + 3.0 - 40), got %v", c.Needs.Fatigue)
	}
}
