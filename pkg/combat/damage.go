package combat

import (
	"fmt"
	"math"
	"strings"
)

// Roll bounds for combat actions. Rolls come from the UI (player) or the
// session's rand source (enemies).
const (
	RollFloor   = 1
	RollCeiling = 20
)

// rollModifierMin/Max define the linear damage scale across the roll
// domain: a minimum roll deals half damage, a maximum roll half again.
const (
	rollModifierMin = 0.5
	rollModifierMax = 1.5
)

// RollModifier maps a roll to its damage multiplier. It is linear and
// monotonically non-decreasing over [RollFloor, RollCeiling]: for any
// r1 < r2 with identical modifiers, damage(r1) <= damage(r2). Rolls
// outside the domain are clamped.
func RollModifier(roll int) float64 {
	if roll < RollFloor {
		roll = RollFloor
	}
	if roll > RollCeiling {
		roll = RollCeiling
	}
	span := float64(RollCeiling - RollFloor)
	return rollModifierMin + (rollModifierMax-rollModifierMin)*float64(roll-RollFloor)/span
}

// Modifier is one named damage term. Additive modifiers are fractions
// summed on top of 1.0; multiplicative modifiers multiply the result.
// Keeping each term named means the roll contribution is never entangled
// with modifier contributions in the combat log.
type Modifier struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// Breakdown is the fully itemized damage computation for one hit.
type Breakdown struct {
	Base           int        `json:"base"`
	Roll           int        `json:"roll"`
	RollModifier   float64    `json:"roll_modifier"`
	Additive       []Modifier `json:"additive,omitempty"`
	Multiplicative []Modifier `json:"multiplicative,omitempty"`
	Total          int        `json:"total"`
}

// String renders the breakdown for combat logs.
func (b Breakdown) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "base %d x roll %.2f(%d)", b.Base, b.RollModifier, b.Roll)
	for _, m := range b.Additive {
		fmt.Fprintf(&sb, " +%s %.2f", m.Source, m.Value)
	}
	for _, m := range b.Multiplicative {
		fmt.Fprintf(&sb, " x%s %.2f", m.Source, m.Value)
	}
	fmt.Fprintf(&sb, " = %d", b.Total)
	return sb.String()
}

// ComputeDamage evaluates the damage formula:
//
//	damage = round(base * rollModifier(roll) * (1 + sum(additive)) * product(multiplicative))
//
// Damage never goes below zero.
func ComputeDamage(base, roll int, additive, multiplicative []Modifier) Breakdown {
	rm := RollModifier(roll)

	additiveTerm := 1.0
	for _, m := range additive {
		additiveTerm += m.Value
	}
	if additiveTerm < 0 {
		additiveTerm = 0
	}

	multTerm := 1.0
	for _, m := range multiplicative {
		multTerm *= m.Value
	}
	if multTerm < 0 {
		multTerm = 0
	}

	total := int(math.Round(float64(base) * rm * additiveTerm * multTerm))
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Base:           base,
		Roll:           roll,
		RollModifier:   rm,
		Additive:       additive,
		Multiplicative: multiplicative,
		Total:          total,
	}
}
