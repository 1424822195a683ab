package engine

import (
	"log/slog"

	"github.com/hamitcf1/aetherius/pkg/character"
)

// skillIncrements maps an action tag to the fixed progress amount it
// grants. Unlisted tags still count for 1 under their own name, so new
// narration tags degrade gracefully into custom skills.
var skillIncrements = map[string]int{
	// combat tags
	"one_handed":  2,
	"two_handed":  2,
	"archery":     2,
	"block":       2,
	"dodge":       2,
	"sneak":       2,
	"destruction": 2,
	"restoration": 2,
	"alteration":  2,
	"conjuration": 2,
	// adventure tags
	"speech":      1,
	"exploration": 1,
	"crafting":    1,
	"lockpicking": 1,
	"alchemy":     1,
	"survival":    1,
}

// applySkillTags converts tagged actions into skill progress and runs
// the perk unlock check after every increment. Perks already held are
// skipped (the set is idempotent) and never revoked. This channel never
// grants experience; skill progress and XP are independent rewards.
func applySkillTags(c *character.Character, tags []string, perks []character.PerkDef, logger *slog.Logger) (unlocked []string) {
	if len(tags) == 0 {
		return nil
	}
	if c.Skills == nil {
		c.Skills = make(map[string]int)
	}

	for _, tag := range tags {
		skill := character.NormalizeName(tag)
		if skill == "" {
			continue
		}
		inc, ok := skillIncrements[skill]
		if !ok {
			inc = 1
		}
		c.Skills[skill] += inc

		for _, perk := range perks {
			if perk.Skill != skill || c.Skills[skill] < perk.Threshold {
				continue
			}
			if c.GrantPerk(perk.ID) {
				unlocked = append(unlocked, perk.ID)
				if logger != nil {
					logger.Info("Perk unlocked",
						"character_id", c.ID,
						"perk", perk.ID,
						"skill", skill,
						"progress", c.Skills[skill])
				}
			}
		}
	}
	return unlocked
}
