package combat

import (
	"math"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// Jitter bounds. A roll of 1..JitterResolution maps linearly onto the band.
const (
	JitterMin        = 0.95
	JitterMax        = 1.05
	JitterResolution = 10001
)

// Weapon is an equippable damage source
type Weapon struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Type       string  `json:"type" yaml:"type"`
	BaseDamage float64 `json:"base_damage" yaml:"base_damage"`
	Piercing   float64 `json:"piercing" yaml:"piercing"`

	// Multipliers fold left to right; order matters
	Multipliers []Expr `json:"multipliers" yaml:"multipliers"`
}

// Validate checks every multiplier expression
func (w *Weapon) Validate() error {
	if w == nil {
		return errors.InvalidArgument("weapon is nil")
	}
	for i := range w.Multipliers {
		if err := w.Multipliers[i].Validate(); err != nil {
			return errors.Wrapf(err, "weapon %s multiplier %d", w.ID, i)
		}
	}
	return nil
}

// Armour reduces incoming damage by Protection percent, less the weapon's piercing
type Armour struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Protection float64 `json:"protection" yaml:"protection"`
}

// Jitter rolls a scale factor in [JitterMin, JitterMax]
func Jitter(roller dice.Roller) (float64, error) {
	if roller == nil {
		roller = dice.DefaultRoller
	}
	r, err := roller.Roll(JitterResolution)
	if err != nil {
		return 0, errors.Wrap(err, "failed to roll damage jitter")
	}
	return JitterMin + (JitterMax-JitterMin)*float64(r-1)/float64(JitterResolution-1), nil
}

// RawDamage folds the weapon's multipliers over an accumulator starting at
// zero: add adds the evaluated expression, multiply scales the accumulator
// by one plus it.
func RawDamage(b BaseStats, w *Weapon) (float64, error) {
	if w == nil {
		return 0, errors.InvalidArgument("attacker has no weapon")
	}

	acc := 0.0
	for i := range w.Multipliers {
		m := &w.Multipliers[i]
		v, err := EvaluateMultiplier(b, m)
		if err != nil {
			return 0, errors.Wrapf(err, "weapon %s multiplier %d", w.ID, i)
		}

		switch m.Op {
		case OpAdd:
			acc += v
		case OpMultiply:
			acc *= 1 + v
		default:
			return 0, errors.InvalidArgumentf("weapon %s multiplier %d: unknown operation %q", w.ID, i, m.Op)
		}
	}
	return acc, nil
}

// CalculateDamage computes one attack from attacker against defender before
// armour. The result is floored at zero.
func CalculateDamage(roller dice.Roller, attacker, defender *Entity) (float64, error) {
	if attacker == nil || defender == nil {
		return 0, errors.InvalidArgument("attacker and defender are required")
	}

	raw, err := RawDamage(attacker.Stats, attacker.Weapon)
	if err != nil {
		return 0, err
	}

	jitter, err := Jitter(roller)
	if err != nil {
		return 0, err
	}

	return math.Max(raw*jitter, 0), nil
}

// Mitigate applies armour protection reduced by weapon piercing
func Mitigate(damage float64, w *Weapon, a *Armour) float64 {
	if a == nil {
		return math.Max(damage, 0)
	}

	piercing := 0.0
	if w != nil {
		piercing = w.Piercing
	}
	reduction := math.Min(math.Max(0, a.Protection-piercing), 100) / 100
	return math.Max(damage*(1-reduction), 0)
}

// AttackResult is one resolved attack
type AttackResult struct {
	AttackerID string
	DefenderID string
	Raw        float64
	Dealt      float64
	DefenderHP float64
	Defeated   bool
}

// Attack resolves damage, applies armour and deals it to the defender
func Attack(roller dice.Roller, attacker, defender *Entity) (*AttackResult, error) {
	raw, err := CalculateDamage(roller, attacker, defender)
	if err != nil {
		return nil, err
	}

	dealt := Mitigate(raw, attacker.Weapon, defender.Armour)
	defender.TakeDamage(dealt)

	return &AttackResult{
		AttackerID: attacker.GetID(),
		DefenderID: defender.GetID(),
		Raw:        raw,
		Dealt:      dealt,
		DefenderHP: defender.HP(),
		Defeated:   defender.Defeated(),
	}, nil
}
