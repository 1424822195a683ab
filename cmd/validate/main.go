package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/combat"
)

// validate checks the static data files (enemy archetypes and perk
// definitions) before deployment, so a malformed table fails CI instead
// of a live combat session.
func main() {
	dataDir := "./data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	v := &DataValidator{}
	v.validateEnemies(filepath.Join(dataDir, "enemies"))
	v.validatePerks(filepath.Join(dataDir, "perks"))

	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(v.errors, "\n"))
		os.Exit(1)
	}
	fmt.Printf("Data files are valid (%d enemies, %d perks)\n", v.enemies, v.perks)
}

type DataValidator struct {
	errors  []string
	enemies int
	perks   int
}

var idPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func (v *DataValidator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf("  - "+format, args...))
}

func (v *DataValidator) validateEnemies(dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		v.errorf("no enemy templates found in %s", dir)
		return
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		if !idPattern.MatchString(name) {
			v.errorf("%s: filename must be lowercase snake_case", file)
		}

		data, err := os.ReadFile(file)
		if err != nil {
			v.errorf("%s: %v", file, err)
			continue
		}

		var e combat.Enemy
		decoder := json.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&e); err != nil {
			v.errorf("%s: strict unmarshal failed: %v", file, err)
			continue
		}

		v.validateEnemy(file, &e)
		v.enemies++
	}
}

func (v *DataValidator) validateEnemy(file string, e *combat.Enemy) {
	if e.Name == "" {
		v.errorf("%s: name is required", file)
	}
	if e.Level < 1 {
		v.errorf("%s: level must be >= 1", file)
	}
	if e.Tier < combat.TierCommon || e.Tier > combat.TierBoss {
		v.errorf("%s: tier must be in [%d, %d]", file, combat.TierCommon, combat.TierBoss)
	}
	if e.MaxHealth < 1 {
		v.errorf("%s: max_health must be >= 1", file)
	}
	if e.BaseDamage < 1 {
		v.errorf("%s: base_damage must be >= 1", file)
	}
	if e.Armor < 0 {
		v.errorf("%s: armor must be >= 0", file)
	}

	seen := map[string]bool{}
	for _, a := range e.Abilities {
		if a.ID == "" || !idPattern.MatchString(a.ID) {
			v.errorf("%s: ability id %q must be lowercase snake_case", file, a.ID)
		}
		if seen[a.ID] {
			v.errorf("%s: duplicate ability id %q", file, a.ID)
		}
		seen[a.ID] = true
		if a.DamageMult < 0 {
			v.errorf("%s: ability %q damage_mult must be >= 0", file, a.ID)
		}
	}

	for i, entry := range e.Loot {
		if entry.Item.Name == "" {
			v.errorf("%s: loot[%d] item name is required", file, i)
		}
		if entry.DropChance < 0 || entry.DropChance > 1 {
			v.errorf("%s: loot[%d] drop_chance must be in [0, 1]", file, i)
		}
		if entry.QuantityMin < 1 {
			v.errorf("%s: loot[%d] quantity_min must be >= 1", file, i)
		}
		if entry.QuantityMax < entry.QuantityMin {
			v.errorf("%s: loot[%d] quantity_max must be >= quantity_min", file, i)
		}
		if entry.RarityWeight < 0 {
			v.errorf("%s: loot[%d] rarity_weight must be >= 0", file, i)
		}
	}
}

func (v *DataValidator) validatePerks(dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		v.errorf("no perk definitions found in %s", dir)
		return
	}

	seen := map[string]bool{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			v.errorf("%s: %v", file, err)
			continue
		}

		var perks []character.PerkDef
		decoder := json.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&perks); err != nil {
			v.errorf("%s: strict unmarshal failed: %v", file, err)
			continue
		}

		for _, p := range perks {
			if p.ID == "" || !idPattern.MatchString(p.ID) {
				v.errorf("%s: perk id %q must be lowercase snake_case", file, p.ID)
			}
			if seen[p.ID] {
				v.errorf("%s: duplicate perk id %q", file, p.ID)
			}
			seen[p.ID] = true
			if p.Name == "" {
				v.errorf("%s: perk %q name is required", file, p.ID)
			}
			if p.Skill == "" {
				v.errorf("%s: perk %q skill is required", file, p.ID)
			}
			if p.Threshold < 1 {
				v.errorf("%s: perk %q threshold must be >= 1", file, p.ID)
			}
			v.perks++
		}
	}
}
