package engine

import (
	"testing"

	"github.com/hamitcf1/aetherius/pkg/character"
)

var testPerks = []character.PerkDef{
	{ID: "armsman", Name: "Armsman", Skill: "one_handed", Threshold: 4},
	{ID: "haggler", Name: "Haggler", Skill: "speech", Threshold: 2},
}

func TestApplySkillTagsIncrements(t *testing.T) {
	c := character.New("Lyra", "", "")

	applySkillTags(c, []string{"one_handed", "speech", "one_handed", "whittling"}, nil, noopLogger)

	if c.Skills["one_handed"] != 4 {
		t.Errorf("combat tag should grant 2 per use, got %d", c.Skills["one_handed"])
	}
	if c.Skills["speech"] != 1 {
		t.Errorf("adventure tag should grant 1, got %d", c.Skills["speech"])
	}
	if c.Skills["whittling"] != 1 {
		t.Errorf("unknown tag should still count for 1, got %d", c.Skills["whittling"])
	}
}

func TestApplySkillTagsUnlocksPerkAtThreshold(t *testing.T) {
	c := character.New("Lyra", "", "")

	unlocked := applySkillTags(c, []string{"one_handed"}, testPerks, noopLogger)
	if len(unlocked) != 0 {
		t.Fatalf("progress 2 is below threshold 4, got unlock %v", unlocked)
	}

	unlocked = applySkillTags(c, []string{"one_handed"}, testPerks, noopLogger)
	if len(unlocked) != 1 || unlocked[0] != "armsman" {
		t.Fatalf("expected armsman unlock at threshold, got %v", unlocked)
	}
	if !c.HasPerk("armsman") {
		t.Error("perk not granted on the character")
	}

	// Crossing the threshold again must not re-unlock.
	unlocked = applySkillTags(c, []string{"one_handed"}, testPerks, noopLogger)
	if len(unlocked) != 0 {
		t.Errorf("perk unlock must be idempotent, got %v", unlocked)
	}
	if len(c.Perks) != 1 {
		t.Errorf("expected exactly one perk, got %v", c.Perks)
	}
}

func TestApplySkillTagsNormalizesTagNames(t *testing.T) {
	c := character.New("Lyra", "", "")
	applySkillTags(c, []string{"  SPEECH ", "speech"}, testPerks, noopLogger)
	if c.Skills["speech"] != 2 {
		t.Errorf("folded tags should share one skill, got %+v", c.Skills)
	}
	if !c.HasPerk("haggler") {
		t.Error("haggler should unlock at progress 2")
	}
}

func TestApplySkillTagsGrantNoExperience(t *testing.T) {
	c := character.New("Lyra", "", "")
	applySkillTags(c, []string{"one_handed", "destruction", "sneak"}, nil, noopLogger)
	if c.Experience != 0 || c.Level != 1 {
		t.Errorf("skill tags must never grant xp: level %d xp %d", c.Level, c.Experience)
	}
}
