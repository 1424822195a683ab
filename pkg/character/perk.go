package character

// PerkDef is a data-driven perk definition: reaching Threshold progress
// in Skill unlocks the perk. Definitions live in data/perks and are
// loaded through storage.
type PerkDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Skill       string `json:"skill"`
	Threshold   int    `json:"threshold"`
}
