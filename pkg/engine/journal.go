package engine

import (
	"fmt"
	"strings"

	"github.com/hamitcf1/aetherius/pkg/delta"
)

// DefaultJournalTitle is used when no delta category offers a better one.
const DefaultJournalTitle = "Field Notes"

// SynthesizeJournal derives the journal entry for an applied envelope.
// It is pure: the same envelope and summary always yield the same text,
// which keeps the pipeline testable. The title is picked by priority
// (narrative > new quest > quest update > items > gold > xp > stats >
// time > needs > default) and the body lists every non-empty category.
func SynthesizeJournal(env *delta.Envelope, sum *Summary) (title, body string) {
	title = DefaultJournalTitle
	switch {
	case env.Narrative != nil && strings.TrimSpace(env.Narrative.Title) != "":
		title = strings.TrimSpace(env.Narrative.Title)
	case len(sum.QuestsAdded) > 0:
		title = "New Quest: " + sum.QuestsAdded[0]
	case len(sum.QuestsUpdated) > 0:
		title = "Quest Update: " + sum.QuestsUpdated[0]
	case len(sum.ItemsAdded) > 0 || len(sum.ItemsRemoved) > 0:
		title = "Spoils and Supplies"
	case sum.GoldDelta != 0:
		title = "Coin Changes Hands"
	case sum.XPApplied != 0:
		title = "Hard-Won Experience"
	case sum.StatsChanged:
		title = "A Change of Constitution"
	case sum.TimeAdvanced > 0:
		title = "Time Passes"
	case sum.NeedsChanged:
		title = "The Body Keeps Count"
	}

	var lines []string
	if env.Narrative != nil && strings.TrimSpace(env.Narrative.Content) != "" {
		lines = append(lines, strings.TrimSpace(env.Narrative.Content))
	}
	for _, q := range sum.QuestsAdded {
		lines = append(lines, "New quest: "+q)
	}
	for _, q := range sum.QuestsUpdated {
		lines = append(lines, "Quest "+q)
	}
	if len(sum.ItemsAdded) > 0 {
		lines = append(lines, "Gained: "+strings.Join(sum.ItemsAdded, ", "))
	}
	if len(sum.ItemsRemoved) > 0 {
		lines = append(lines, "Lost: "+strings.Join(sum.ItemsRemoved, ", "))
	}
	if sum.GoldDelta > 0 {
		lines = append(lines, fmt.Sprintf("Gained %d gold.", sum.GoldDelta))
	} else if sum.GoldDelta < 0 {
		lines = append(lines, fmt.Sprintf("Spent %d gold.", -sum.GoldDelta))
	}
	if sum.XPApplied != 0 {
		lines = append(lines, fmt.Sprintf("Earned %d experience.", sum.XPApplied))
	}
	if sum.LevelsGained > 0 {
		lines = append(lines, fmt.Sprintf("Advanced %d level(s).", sum.LevelsGained))
	}
	for _, p := range sum.PerksUnlocked {
		lines = append(lines, "Perk unlocked: "+p)
	}
	if sum.StatsChanged {
		lines = append(lines, "Attributes shifted.")
	}
	if sum.VitalsChanged {
		lines = append(lines, "Vitals changed.")
	}
	if sum.TimeAdvanced > 0 {
		lines = append(lines, fmt.Sprintf("%d minutes pass.", sum.TimeAdvanced))
	}
	if sum.NeedsChanged {
		lines = append(lines, "Hunger, thirst or fatigue shifted.")
	}

	return title, strings.Join(lines, "\n")
}
