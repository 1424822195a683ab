package character

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var nameFolder = cases.Fold()

// foldName normalizes an item or quest name for identity comparison:
// trimmed, case-folded. "Iron Sword" and " iron sword " are the same item.
func foldName(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

// NormalizeName exposes the identity normalization used for inventory
// merging and quest title matching.
func NormalizeName(name string) string {
	return foldName(name)
}

// InventoryItem is one stack of items owned by a character. Quantity is
// always >= 1; a stack that reaches zero is removed rather than persisted.
// Combat stat fields are optional and nil when unknown.
type InventoryItem struct {
	ID          uuid.UUID `json:"id"`
	CharacterID uuid.UUID `json:"character_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type,omitempty"`
	Subtype     string    `json:"subtype,omitempty"`
	Quantity    int       `json:"quantity"`

	Armor  *int `json:"armor,omitempty"`
	Damage *int `json:"damage,omitempty"`
	Value  *int `json:"value,omitempty"`
}

// Key returns the merge identity of the item within its owner's inventory.
func (it *InventoryItem) Key() string {
	return foldName(it.Name)
}

// FillStats copies optional stat fields from src into the item wherever
// the item's own field is still nil. Existing values are never overwritten.
func (it *InventoryItem) FillStats(src *InventoryItem) {
	if it.Armor == nil && src.Armor != nil {
		it.Armor = cloneIntPtr(src.Armor)
	}
	if it.Damage == nil && src.Damage != nil {
		it.Damage = cloneIntPtr(src.Damage)
	}
	if it.Value == nil && src.Value != nil {
		it.Value = cloneIntPtr(src.Value)
	}
	if it.Type == "" {
		it.Type = src.Type
	}
	if it.Subtype == "" {
		it.Subtype = src.Subtype
	}
}

func (it InventoryItem) clone() InventoryItem {
	cp := it
	cp.Armor = cloneIntPtr(it.Armor)
	cp.Damage = cloneIntPtr(it.Damage)
	cp.Value = cloneIntPtr(it.Value)
	return cp
}

// FindItem returns the index of the inventory stack matching the
// normalized name, or -1.
func (c *Character) FindItem(name string) int {
	key := foldName(name)
	for i := range c.Inventory {
		if c.Inventory[i].Key() == key {
			return i
		}
	}
	return -1
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
