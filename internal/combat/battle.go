package combat

import (
	"context"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// Phase is a point in an attack that abilities can trigger on
type Phase string

const (
	// PhaseImmediate abilities proc as soon as they are confirmed
	PhaseImmediate Phase = "immediate"
	PhaseRound     Phase = "round"
	PhaseWindup    Phase = "windup"
	PhaseSwing     Phase = "swing"
	PhaseRecovery  Phase = "recovery"
)

const phaseEventPrefix = "combat.phase."

// IsValid reports whether the phase is known
func (p Phase) IsValid() bool {
	switch p {
	case PhaseImmediate, PhaseRound, PhaseWindup, PhaseSwing, PhaseRecovery:
		return true
	default:
		return false
	}
}

// EventType is the bus event type published for the phase
func (p Phase) EventType() string {
	return phaseEventPrefix + string(p)
}

// BattleConfig holds the dependencies for a battle
type BattleConfig struct {
	// EventBus carries phase triggers. Nil creates a private bus.
	EventBus events.EventBus
}

// Battle is the shared clock abilities are timed against. Time moves only
// through Advance; phases are announced with Trigger.
type Battle struct {
	bus       events.EventBus
	time      int
	abilities []*Ability
}

// NewBattle creates a battle at time zero
func NewBattle(cfg *BattleConfig) *Battle {
	var bus events.EventBus
	if cfg != nil {
		bus = cfg.EventBus
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Battle{bus: bus}
}

// Time returns the current battle tick
func (b *Battle) Time() int { return b.time }

// Advance moves the clock forward
func (b *Battle) Advance(ticks int) {
	if ticks > 0 {
		b.time += ticks
	}
}

// Trigger announces a phase to every confirmed ability, then drops the
// subscriptions of abilities that have finished.
func (b *Battle) Trigger(ctx context.Context, phase Phase, source core.Entity) error {
	if !phase.IsValid() || phase == PhaseImmediate {
		return errors.InvalidArgumentf("cannot trigger phase %q", phase)
	}

	if err := b.bus.Publish(ctx, events.NewGameEvent(phase.EventType(), source, nil)); err != nil {
		return errors.Wrapf(err, "failed to publish %s", phase)
	}

	return b.sweep()
}

// Abilities returns the abilities still waiting on a trigger
func (b *Battle) Abilities() []*Ability {
	return append([]*Ability(nil), b.abilities...)
}

func (b *Battle) track(a *Ability) {
	b.abilities = append(b.abilities, a)
}

func (b *Battle) sweep() error {
	kept := b.abilities[:0]
	var firstErr error
	for _, a := range b.abilities {
		if !a.finished() {
			kept = append(kept, a)
			continue
		}
		if err := a.unsubscribe(b.bus); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to unsubscribe ability %s", a.Name())
		}
	}
	for i := len(kept); i < len(b.abilities); i++ {
		b.abilities[i] = nil
	}
	b.abilities = kept
	return firstErr
}
