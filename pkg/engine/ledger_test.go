package engine

import (
	"testing"

	"github.com/hamitcf1/aetherius/pkg/character"
)

func TestThreshold(t *testing.T) {
	tests := []struct {
		level, want int
	}{
		{1, 100},
		{2, 200},
		{5, 500},
		{0, 100},  // floors at level 1
		{-3, 100}, // floors at level 1
	}
	for _, tt := range tests {
		if got := Threshold(tt.level); got != tt.want {
			t.Errorf("Threshold(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestApplyXPSingleLevelWithCarry(t *testing.T) {
	c := character.New("Lyra", "Nord", "warrior")
	c.Experience = 80

	gained := applyXP(c, 30)

	if gained != 1 {
		t.Fatalf("expected 1 level gained, got %d", gained)
	}
	if c.Level != 2 {
		t.Errorf("expected level 2, got %d", c.Level)
	}
	if c.Experience != 10 {
		t.Errorf("expected 10 xp carried over, got %d", c.Experience)
	}
	// Non-caster, non-stealth: +6 health, +2 stamina, granted filled.
	if c.Stats.MaxHealth != 106 || c.Vitals.Health != 106 {
		t.Errorf("expected 106/106 health, got %d/%d", c.Vitals.Health, c.Stats.MaxHealth)
	}
	if c.Stats.MaxStamina != 102 || c.Vitals.Stamina != 102 {
		t.Errorf("expected 102/102 stamina, got %d/%d", c.Vitals.Stamina, c.Stats.MaxStamina)
	}
	if c.Stats.MaxMagicka != 100 {
		t.Errorf("magicka should not grow for this archetype, got %d", c.Stats.MaxMagicka)
	}
}

func TestApplyXPMultipleLevels(t *testing.T) {
	c := character.New("Selene", "Breton", "mage")

	// 100 + 200 + 50 carries through two transitions.
	gained := applyXP(c, 350)

	if gained != 2 {
		t.Fatalf("expected 2 levels gained, got %d", gained)
	}
	if c.Level != 3 {
		t.Errorf("expected level 3, got %d", c.Level)
	}
	if c.Experience != 50 {
		t.Errorf("expected 50 xp remaining, got %d", c.Experience)
	}
	// Caster bonus is +8 magicka per transition.
	if c.Stats.MaxMagicka != 116 {
		t.Errorf("expected 116 max magicka, got %d", c.Stats.MaxMagicka)
	}
}

func TestApplyXPStealthBonus(t *testing.T) {
	c := character.New("Vex", "Khajiit", "thief")

	applyXP(c, 100)

	if c.Stats.MaxStamina != 105 || c.Stats.MaxHealth != 103 {
		t.Errorf("expected stealth bonus +5 stamina +3 health, got stamina %d health %d",
			c.Stats.MaxStamina, c.Stats.MaxHealth)
	}
}

func TestApplyXPNegativeFloorsAtZero(t *testing.T) {
	c := character.New("Lyra", "", "")
	c.Level = 3
	c.Experience = 40

	gained := applyXP(c, -200)

	if gained != 0 {
		t.Errorf("negative xp must not grant levels, got %d", gained)
	}
	if c.Level != 3 {
		t.Errorf("levels are never lost, got %d", c.Level)
	}
	if c.Experience != 0 {
		t.Errorf("experience floors at zero, got %d", c.Experience)
	}
}

func TestApplyXPLeavesExperienceBelowThreshold(t *testing.T) {
	c := character.New("Lyra", "", "")
	applyXP(c, 1234)
	if c.Experience >= Threshold(c.Level) {
		t.Errorf("experience %d not below threshold %d at level %d",
			c.Experience, Threshold(c.Level), c.Level)
	}
}
