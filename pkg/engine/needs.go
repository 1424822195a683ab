package engine

import "github.com/hamitcf1/aetherius/pkg/character"

// Passive need accrual rates, in points per in-game minute. All rates
// sit inside [1/200, 1/90] so a full rest cycle of ~480 minutes cannot
// overflow a need in one step.
const (
	HungerPerMinute  = 1.0 / 120.0
	ThirstPerMinute  = 1.0 / 90.0
	FatiguePerMinute = 1.0 / 160.0
)

// accrueNeeds applies passive survival accrual for elapsed in-game
// minutes. Each need moves by elapsed*rate, rounded to one decimal for
// stability, then clamps to [0, 100].
func accrueNeeds(n *character.Needs, elapsedMinutes int) {
	if elapsedMinutes <= 0 {
		return
	}
	m := float64(elapsedMinutes)
	n.Hunger = character.Round1(n.Hunger + m*HungerPerMinute)
	n.Thirst = character.Round1(n.Thirst + m*ThirstPerMinute)
	n.Fatigue = character.Round1(n.Fatigue + m*FatiguePerMinute)
	clampNeeds(n)
}

func clampNeeds(n *character.Needs) {
	n.Hunger = clamp100(n.Hunger)
	n.Thirst = clamp100(n.Thirst)
	n.Fatigue = clamp100(n.Fatigue)
}

func clamp100(v float64) float64 {
	v = character.Round1(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
