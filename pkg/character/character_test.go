package character

import (
	"encoding/json"
	"testing"
)

func TestClockAdvance(t *testing.T) {
	tests := []struct {
		name    string
		start   Clock
		minutes int
		want    Clock
	}{
		{
			name:    "within the hour",
			start:   Clock{Day: 1, Hour: 8, Minute: 0},
			minutes: 30,
			want:    Clock{Day: 1, Hour: 8, Minute: 30},
		},
		{
			name:    "hour rollover",
			start:   Clock{Day: 1, Hour: 8, Minute: 45},
			minutes: 30,
			want:    Clock{Day: 1, Hour: 9, Minute: 15},
		},
		{
			name:    "day rollover",
			start:   Clock{Day: 1, Hour: 23, Minute: 50},
			minutes: 20,
			want:    Clock{Day: 2, Hour: 0, Minute: 10},
		},
		{
			name:    "multiple days",
			start:   Clock{Day: 3, Hour: 12, Minute: 0},
			minutes: 48 * 60,
			want:    Clock{Day: 5, Hour: 12, Minute: 0},
		},
		{
			name:    "zero is a no-op",
			start:   Clock{Day: 1, Hour: 8, Minute: 0},
			minutes: 0,
			want:    Clock{Day: 1, Hour: 8, Minute: 0},
		},
		{
			name:    "negative is ignored",
			start:   Clock{Day: 1, Hour: 8, Minute: 0},
			minutes: -60,
			want:    Clock{Day: 1, Hour: 8, Minute: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := tt.start
			cl.Advance(tt.minutes)
			if cl != tt.want {
				t.Errorf("Advance(%d) = %+v, want %+v", tt.minutes, cl, tt.want)
			}
		})
	}
}

func TestClockAdvanceNeverMovesBackward(t *testing.T) {
	cl := Clock{Day: 2, Hour: 10, Minute: 30}
	before := cl.TotalMinutes()
	for _, m := range []int{1, 59, 60, 1439, 1440} {
		cl.Advance(m)
		if cl.TotalMinutes() <= before {
			t.Fatalf("clock moved backward or stalled after Advance(%d): %d -> %d", m, before, cl.TotalMinutes())
		}
		before = cl.TotalMinutes()
	}
}

func TestNewCharacterDefaults(t *testing.T) {
	c := New("Lyra", "Nord", "warrior")
	if c.Level != 1 {
		t.Errorf("expected level 1, got %d", c.Level)
	}
	if c.Gold != 50 {
		t.Errorf("expected 50 starting gold, got %d", c.Gold)
	}
	if c.Vitals != (Vitals{Health: 100, Magicka: 100, Stamina: 100}) {
		t.Errorf("unexpected starting vitals: %+v", c.Vitals)
	}
	if c.Clock != (Clock{Day: 1, Hour: 8, Minute: 0}) {
		t.Errorf("unexpected starting clock: %+v", c.Clock)
	}
}

func TestClassifyClass(t *testing.T) {
	tests := []struct {
		class string
		want  Archetype
	}{
		{"mage", ArchetypeCaster},
		{"Sorcerer", ArchetypeCaster},
		{"  NECROMANCER  ", ArchetypeCaster},
		{"thief", ArchetypeStealth},
		{"Assassin", ArchetypeStealth},
		{"warrior", ArchetypeOther},
		{"", ArchetypeOther},
		{"spellsword", ArchetypeOther},
	}
	for _, tt := range tests {
		if got := ClassifyClass(tt.class); got != tt.want {
			t.Errorf("ClassifyClass(%q) = %s, want %s", tt.class, got, tt.want)
		}
	}
}

func TestClampVitals(t *testing.T) {
	c := New("Lyra", "", "")
	c.Vitals.Health = 150
	c.Vitals.Magicka = -20
	c.ClampVitals()
	if c.Vitals.Health != c.Stats.MaxHealth {
		t.Errorf("health not clamped to max: %d", c.Vitals.Health)
	}
	if c.Vitals.Magicka != 0 {
		t.Errorf("magicka not clamped to zero: %d", c.Vitals.Magicka)
	}
}

func TestClampNeeds(t *testing.T) {
	c := New("Lyra", "", "")
	c.Needs = Needs{Hunger: 120.55, Thirst: -3, Fatigue: 42.34}
	c.ClampNeeds()
	if c.Needs.Hunger != 100 {
		t.Errorf("hunger not clamped: %v", c.Needs.Hunger)
	}
	if c.Needs.Thirst != 0 {
		t.Errorf("thirst not clamped: %v", c.Needs.Thirst)
	}
	if c.Needs.Fatigue != 42.3 {
		t.Errorf("fatigue not rounded to one decimal: %v", c.Needs.Fatigue)
	}
}

func TestGrantPerkIdempotent(t *testing.T) {
	c := New("Lyra", "", "")
	if !c.GrantPerk("armsman") {
		t.Fatal("first grant should succeed")
	}
	if c.GrantPerk("armsman") {
		t.Fatal("second grant should be a no-op")
	}
	if len(c.Perks) != 1 {
		t.Fatalf("expected 1 perk, got %d", len(c.Perks))
	}
	if !c.HasPerk("armsman") {
		t.Fatal("HasPerk should report the granted perk")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := New("Lyra", "Nord", "thief")
	dmg := 8
	c.Inventory = append(c.Inventory, InventoryItem{Name: "Iron Sword", Quantity: 1, Damage: &dmg})
	c.Quests = append(c.Quests, Quest{Title: "First Steps", Status: QuestActive, Objectives: []Objective{{Description: "Leave town"}}})
	c.Skills["sneak"] = 4
	c.Perks = append(c.Perks, "stealth")

	cp := c.Clone()
	cp.Skills["sneak"] = 99
	cp.Inventory[0].Quantity = 50
	*cp.Inventory[0].Damage = 99
	cp.Quests[0].Objectives[0].Completed = true
	cp.Perks[0] = "changed"

	if c.Skills["sneak"] != 4 {
		t.Error("clone shares the skills map")
	}
	if c.Inventory[0].Quantity != 1 || *c.Inventory[0].Damage != 8 {
		t.Error("clone shares inventory storage")
	}
	if c.Quests[0].Objectives[0].Completed {
		t.Error("clone shares quest objectives")
	}
	if c.Perks[0] != "stealth" {
		t.Error("clone shares the perks slice")
	}
}

func TestCharacterJSONRoundTrip(t *testing.T) {
	c := New("Lyra", "Nord", "mage")
	c.Needs = Needs{Hunger: 12.5, Thirst: 3.1}
	val := 25
	c.Inventory = append(c.Inventory, InventoryItem{Name: "Iron Sword", Quantity: 2, Value: &val})

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Character
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Name != c.Name || back.Needs != c.Needs || back.Clock != c.Clock {
		t.Errorf("round trip mismatch: %+v vs %+v", back, c)
	}
	if len(back.Inventory) != 1 || *back.Inventory[0].Value != 25 {
		t.Errorf("inventory did not survive round trip: %+v", back.Inventory)
	}
}
