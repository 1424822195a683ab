package engine

import "github.com/hamitcf1/aetherius/pkg/character"

// BaseXP scales the per-level experience threshold.
const BaseXP = 100

// Threshold is the experience required to complete the given level.
func Threshold(level int) int {
	if level < 1 {
		level = 1
	}
	return level * BaseXP
}

// statBonus is the max-pool increment granted on one level-up
// transition. Which pools grow depends on the character's archetype.
type statBonus struct {
	Health  int
	Magicka int
	Stamina int
}

func bonusFor(a character.Archetype) statBonus {
	switch a {
	case character.ArchetypeCaster:
		return statBonus{Magicka: 8}
	case character.ArchetypeStealth:
		return statBonus{Stamina: 5, Health: 3}
	default:
		return statBonus{Health: 6, Stamina: 2}
	}
}

// applyXP accumulates experience and resolves level-ups by carrying the
// remainder forward: while xp reaches the current threshold, subtract it
// and level up, granting exactly one stat bonus per transition. The loop
// runs O(levels gained) and leaves experience < Threshold(level).
// Negative deltas floor at zero experience; levels are never lost.
func applyXP(c *character.Character, xpDelta int) (levelsGained int) {
	newXP := c.Experience + xpDelta
	if newXP < 0 {
		newXP = 0
	}

	for newXP >= Threshold(c.Level) {
		newXP -= Threshold(c.Level)
		c.Level++
		levelsGained++

		b := bonusFor(c.ArchetypeClass())
		c.Stats.MaxHealth += b.Health
		c.Stats.MaxMagicka += b.Magicka
		c.Stats.MaxStamina += b.Stamina
		// The new capacity is granted filled.
		c.Vitals.Health += b.Health
		c.Vitals.Magicka += b.Magicka
		c.Vitals.Stamina += b.Stamina
	}

	c.Experience = newXP
	c.ClampVitals()
	return levelsGained
}
