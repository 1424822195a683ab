package combat

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"

	"github.com/hamitcf1/aetherius/pkg/character"
	"github.com/hamitcf1/aetherius/pkg/delta"
)

// State is the combat state machine position.
type State string

const (
	StateInit       State = "init"
	StatePlayerTurn State = "player_turn"
	StateEnemyTurn  State = "enemy_turn"
	StateResolved   State = "resolved"
)

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeVictory     Outcome = "victory"
	OutcomeDefeat      Outcome = "defeat"
	OutcomeFled        Outcome = "fled"
	OutcomeSurrendered Outcome = "surrendered"
)

// PlayerAction is one submitted combat action: which ability, against
// which enemy, with the roll the UI produced.
type PlayerAction struct {
	AbilityID string `json:"ability_id"`
	TargetID  string `json:"target_id"`
	Roll      int    `json:"roll"`
}

// TurnEvent is one resolved hit, with the full damage breakdown so the
// roll term and each modifier stay independently visible in the log.
type TurnEvent struct {
	Actor    string    `json:"actor"`
	Target   string    `json:"target"`
	Ability  string    `json:"ability"`
	Damage   Breakdown `json:"damage"`
	Defeated bool      `json:"defeated,omitempty"`
}

// TurnResult is returned from SubmitAction: everything that happened
// between two player turns.
type TurnResult struct {
	Events       []TurnEvent `json:"events"`
	State        State       `json:"state"`
	Outcome      Outcome     `json:"outcome,omitempty"`
	PlayerHealth int         `json:"player_health"`
}

// Session is one bounded combat encounter. It is transient: nothing
// here is persisted beyond the session's lifetime. The character
// aggregate is only touched by the result envelope routed back through
// the apply pipeline.
type Session struct {
	ID          uuid.UUID
	CharacterID uuid.UUID
	Location    string
	Ambush      bool

	FleeAllowed      bool
	SurrenderAllowed bool

	mu      sync.Mutex
	state   State
	outcome Outcome
	turn    int
	enemies []*Enemy
	log     []TurnEvent
	tags    []string

	playerName    string
	playerHealth  int
	startHealth   int
	playerBase    int
	playerArmor   int
	actor         *d20.Actor
	additive      []Modifier
	minutesFought int

	lootRolled   bool
	lootResolved bool
	rolledLoot   []RolledLoot

	rng       *rand.Rand
	logger    *slog.Logger
	updatedAt time.Time
}

// NewSession validates the roster, spawns enemies from templates and
// seeds every enemy at full health. templates maps archetype id to its
// base definition.
func NewSession(c *character.Character, start *delta.CombatStart, templates map[string]*Enemy, logger *slog.Logger, seed int64) (*Session, error) {
	if len(start.Enemies) == 0 {
		return nil, &StateError{Op: "start", State: StateInit}
	}

	s := &Session{
		ID:               uuid.New(),
		CharacterID:      c.ID,
		Location:         start.Location,
		Ambush:           start.Ambush,
		FleeAllowed:      start.FleeAllowed,
		SurrenderAllowed: start.SurrenderAllowed,
		state:            StateInit,
		playerName:       c.Name,
		playerHealth:     c.Vitals.Health,
		startHealth:      c.Vitals.Health,
		rng:              rand.New(rand.NewSource(seed)),
		logger:           logger,
		updatedAt:        time.Now().UTC(),
	}

	for i, spec := range start.Enemies {
		tpl, ok := templates[spec.Archetype]
		if !ok {
			return nil, fmt.Errorf("unknown enemy archetype %q", spec.Archetype)
		}
		id := fmt.Sprintf("%s-%d", spec.Archetype, i+1)
		s.enemies = append(s.enemies, NewEnemy(id, tpl, spec))
	}

	s.playerBase, s.playerArmor = loadout(c)

	actor, err := buildPlayerActor(c, s.playerArmor)
	if err != nil {
		return nil, fmt.Errorf("failed to build player actor: %w", err)
	}
	s.actor = actor
	for _, mod := range actor.GetCombatModifiers() {
		s.additive = append(s.additive, Modifier{
			Source: "perk:" + mod.Reason,
			Value:  float64(mod.Value) * 0.05,
		})
	}

	// An ambush gives the enemies an opening volley before the first
	// player turn.
	s.state = StatePlayerTurn
	if s.Ambush {
		s.state = StateEnemyTurn
		events := s.resolveEnemyTurn()
		s.log = append(s.log, events...)
		if s.playerHealth <= 0 {
			s.terminate(OutcomeDefeat)
		} else {
			s.state = StatePlayerTurn
		}
	}

	return s, nil
}

// buildPlayerActor assembles the d20 actor backing the player's side of
// the formula: skills as attributes, perks as combat modifiers.
func buildPlayerActor(c *character.Character, armor int) (*d20.Actor, error) {
	attrs := make(map[string]int, len(c.Skills))
	for k, v := range c.Skills {
		attrs[k] = v
	}
	mods := make(map[string]int, len(c.Perks))
	for _, perk := range c.Perks {
		mods[perk] = 1
	}

	actor, err := d20.NewActor(c.ID.String()).
		WithHP(c.Stats.MaxHealth).
		WithAC(10 + armor/5).
		WithAttributes(attrs).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return nil, err
	}
	if c.Vitals.Health > 0 && c.Vitals.Health != c.Stats.MaxHealth {
		if err := actor.SetHP(c.Vitals.Health); err != nil {
			return nil, err
		}
	}
	return actor, nil
}

// loadout derives the player's base damage and armor from inventory:
// the best weapon and the sum of worn armor.
func loadout(c *character.Character) (base, armor int) {
	base = 6
	for i := range c.Inventory {
		it := &c.Inventory[i]
		if it.Damage != nil && 6+*it.Damage > base {
			base = 6 + *it.Damage
		}
		if it.Armor != nil {
			armor += *it.Armor
		}
	}
	return base, armor
}

// State returns the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the terminal outcome, or OutcomeNone while running.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// IdleSince reports the time of the last state change, for the reaper.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SubmitAction resolves one player turn and, if the fight continues,
// the answering enemy turn. The session mutex turn-locks the exchange:
// a second submission blocks until the first fully resolves, so the
// same roll can never land twice.
func (s *Session) SubmitAction(action PlayerAction) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlayerTurn {
		return nil, &StateError{Op: "submit action", State: s.state}
	}
	if action.Roll < RollFloor || action.Roll > RollCeiling {
		return nil, fmt.Errorf("roll %d outside [%d, %d]", action.Roll, RollFloor, RollCeiling)
	}

	target := s.enemy(action.TargetID)
	if target == nil || target.IsDefeated() {
		return nil, fmt.Errorf("no living enemy %q", action.TargetID)
	}

	var events []TurnEvent

	// Player hit. Each term is a separate, named modifier.
	var mult []Modifier
	if action.Roll == RollCeiling {
		mult = append(mult, Modifier{Source: "critical", Value: 1.5})
	}
	if contains(target.Weaknesses, action.AbilityID) {
		mult = append(mult, Modifier{Source: "weakness", Value: 1.5})
	}
	if contains(target.Resistances, action.AbilityID) {
		mult = append(mult, Modifier{Source: "resistance", Value: 0.5})
	}
	mult = append(mult, Modifier{Source: "enemy_armor", Value: mitigation(target.Armor)})

	bd := ComputeDamage(s.playerBase, action.Roll, s.additive, mult)
	target.TakeDamage(bd.Total)
	events = append(events, TurnEvent{
		Actor:    s.playerName,
		Target:   target.ID,
		Ability:  action.AbilityID,
		Damage:   bd,
		Defeated: target.IsDefeated(),
	})
	if action.AbilityID != "" {
		s.tags = append(s.tags, action.AbilityID)
	}
	s.minutesFought += 2

	if s.allDefeated() {
		s.log = append(s.log, events...)
		s.terminate(OutcomeVictory)
		return s.turnResult(events), nil
	}

	// Enemy turn resolves deterministically from the session rng.
	s.state = StateEnemyTurn
	events = append(events, s.resolveEnemyTurn()...)
	s.log = append(s.log, events...)

	if s.playerHealth <= 0 {
		s.terminate(OutcomeDefeat)
		return s.turnResult(events), nil
	}

	s.state = StatePlayerTurn
	s.turn++
	s.updatedAt = time.Now().UTC()
	return s.turnResult(events), nil
}

// resolveEnemyTurn runs each surviving enemy's action against the
// player using the same formula family as player hits.
func (s *Session) resolveEnemyTurn() []TurnEvent {
	var events []TurnEvent
	for _, e := range s.enemies {
		if e.IsDefeated() || s.playerHealth <= 0 {
			continue
		}
		roll := s.rng.Intn(RollCeiling-RollFloor+1) + RollFloor
		ability := Ability{ID: "strike", Name: "Strike", DamageMult: 1.0}
		if len(e.Abilities) > 0 {
			ability = e.Abilities[s.rng.Intn(len(e.Abilities))]
		}
		if ability.DamageMult <= 0 {
			ability.DamageMult = 1.0
		}

		additive := []Modifier{{Source: "tier", Value: float64(e.Tier) * 0.1}}
		mult := []Modifier{
			{Source: "ability:" + ability.ID, Value: ability.DamageMult},
			{Source: "player_armor", Value: mitigation(s.playerArmor)},
		}
		bd := ComputeDamage(e.BaseDamage, roll, additive, mult)

		s.playerHealth -= bd.Total
		if s.playerHealth < 0 {
			s.playerHealth = 0
		}
		events = append(events, TurnEvent{
			Actor:    e.ID,
			Target:   s.playerName,
			Ability:  ability.ID,
			Damage:   bd,
			Defeated: s.playerHealth == 0,
		})
	}
	return events
}

// Flee ends the session immediately when the encounter allows it. Any
// in-flight enemy computation is discarded with the turn.
func (s *Session) Flee() (*TurnResult, error) {
	return s.earlyOut("flee", s.FleeAllowed, OutcomeFled)
}

// Surrender ends the session immediately when the encounter allows it.
func (s *Session) Surrender() (*TurnResult, error) {
	return s.earlyOut("surrender", s.SurrenderAllowed, OutcomeSurrendered)
}

func (s *Session) earlyOut(op string, allowed bool, outcome Outcome) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateResolved {
		return nil, &StateError{Op: op, State: s.state}
	}
	if !allowed {
		return nil, &ConflictError{Op: op, Reason: "not permitted in this encounter"}
	}
	s.terminate(outcome)
	return s.turnResult(nil), nil
}

// ForceResolve is the idle reaper's hook: a stale session resolves as
// fled with no reward.
func (s *Session) ForceResolve() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolved {
		s.terminate(OutcomeFled)
		if s.logger != nil {
			s.logger.Warn("Combat session force-resolved",
				"session_id", s.ID,
				"character_id", s.CharacterID)
		}
	}
}

// ResultEnvelope emits the non-loot outcome of the session as a delta:
// vitals change, time spent fighting, and the action tags for the skill
// tracker. On victory the reward envelope from the loot phase carries
// these instead, so the session's effects land exactly once.
func (s *Session) ResultEnvelope() (*delta.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResolved {
		return nil, &StateError{Op: "result", State: s.state}
	}
	if s.outcome == OutcomeVictory {
		return nil, &ConflictError{Op: "result", Reason: "victory results are emitted by the loot phase"}
	}
	return s.baseResultLocked(), nil
}

// baseResultLocked builds the shared portion of the result envelope.
// Caller holds the mutex.
func (s *Session) baseResultLocked() *delta.Envelope {
	healthDelta := s.playerHealth - s.startHealth
	env := &delta.Envelope{
		TimeAdvanceMinutes: s.minutesFought,
		ActionTags:         append([]string(nil), s.tags...),
	}
	if healthDelta != 0 {
		env.VitalsChange = &delta.VitalsChange{Health: intPtr(healthDelta)}
	}
	return env
}

func (s *Session) terminate(outcome Outcome) {
	s.state = StateResolved
	s.outcome = outcome
	s.updatedAt = time.Now().UTC()
}

func (s *Session) turnResult(events []TurnEvent) *TurnResult {
	return &TurnResult{
		Events:       events,
		State:        s.state,
		Outcome:      s.outcome,
		PlayerHealth: s.playerHealth,
	}
}

func (s *Session) enemy(id string) *Enemy {
	for _, e := range s.enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *Session) allDefeated() bool {
	for _, e := range s.enemies {
		if !e.IsDefeated() {
			return false
		}
	}
	return true
}

// Snapshot is the API view of a session.
type Snapshot struct {
	ID           uuid.UUID   `json:"id"`
	CharacterID  uuid.UUID   `json:"character_id"`
	Location     string      `json:"location,omitempty"`
	State        State       `json:"state"`
	Outcome      Outcome     `json:"outcome,omitempty"`
	Turn         int         `json:"turn"`
	PlayerHealth int         `json:"player_health"`
	Enemies      []*Enemy    `json:"enemies"`
	Log          []TurnEvent `json:"log,omitempty"`
	LootResolved bool        `json:"loot_resolved"`
}

// Snapshot returns a copy of the session safe to serialize.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	enemies := make([]*Enemy, len(s.enemies))
	for i, e := range s.enemies {
		cp := *e
		enemies[i] = &cp
	}
	return Snapshot{
		ID:           s.ID,
		CharacterID:  s.CharacterID,
		Location:     s.Location,
		State:        s.state,
		Outcome:      s.outcome,
		Turn:         s.turn,
		PlayerHealth: s.playerHealth,
		Enemies:      enemies,
		Log:          append([]TurnEvent(nil), s.log...),
		LootResolved: s.lootResolved,
	}
}

// mitigation converts armor points into a damage multiplier, capped so
// armor never zeroes a hit outright.
func mitigation(armor int) float64 {
	m := 1.0 - float64(armor)*0.02
	if m < 0.4 {
		m = 0.4
	}
	return m
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }
