package combat

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// AbilityState tracks an ability from creation to its single proc
type AbilityState int

const (
	AbilityUnconfirmed AbilityState = iota
	AbilityConfirmed
	AbilityProcced
	AbilityCancelled
)

// String implements fmt.Stringer
func (s AbilityState) String() string {
	switch s {
	case AbilityUnconfirmed:
		return "unconfirmed"
	case AbilityConfirmed:
		return "confirmed"
	case AbilityProcced:
		return "procced"
	case AbilityCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// AbilitySpec describes an ability independent of who uses it
type AbilitySpec struct {
	Name     string       `json:"name" yaml:"name"`
	Trigger  Phase        `json:"trigger" yaml:"trigger"`
	Windup   int          `json:"windup" yaml:"windup"`
	Swing    int          `json:"swing" yaml:"swing"`
	Recovery int          `json:"recovery" yaml:"recovery"`
	Effect   StatusEffect `json:"effect" yaml:"effect"`

	// TargetSelf applies the effect to the initiator instead of the target
	TargetSelf bool `json:"target_self" yaml:"target_self"`
}

// Validate checks the ability definition
func (s *AbilitySpec) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", s.Name, vb)
	if !s.Trigger.IsValid() {
		vb.Fieldf("trigger", "unknown phase %q", s.Trigger)
	}
	if s.Windup < 0 || s.Swing < 0 || s.Recovery < 0 {
		vb.Field("timing", "cannot be negative")
	}
	errors.ValidateRequired("effect.type", s.Effect.Type, vb)
	return vb.Build()
}

// AbilityConfig binds an ability definition to combatants and a battle
type AbilityConfig struct {
	Spec      AbilitySpec
	Initiator *Entity
	Target    *Entity
	Battle    *Battle
}

// Ability is one use of an ability in a battle. It procs at most once, and
// only while the battle clock is within its finish time.
type Ability struct {
	spec      AbilitySpec
	initiator *Entity
	target    *Entity
	battle    *Battle
	begin     int

	state          AbilityState
	subscriptionID string
}

// NewAbility creates an unconfirmed ability starting at the battle's current time
func NewAbility(cfg *AbilityConfig) (*Ability, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config cannot be nil")
	}
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.Initiator == nil {
		return nil, errors.InvalidArgument("ability initiator is required")
	}
	if cfg.Battle == nil {
		return nil, errors.InvalidArgument("ability battle is required")
	}

	return &Ability{
		spec:      cfg.Spec,
		initiator: cfg.Initiator,
		target:    cfg.Target,
		battle:    cfg.Battle,
		begin:     cfg.Battle.Time(),
	}, nil
}

func (a *Ability) Name() string        { return a.spec.Name }
func (a *Ability) State() AbilityState { return a.state }

// FinishTime is the last tick on which the ability may still proc
func (a *Ability) FinishTime() int {
	return a.begin + a.spec.Windup + a.spec.Swing + a.spec.Recovery - 1
}

// Confirm arms the ability. Calling it again is a no-op.
func (a *Ability) Confirm() {
	if a.state != AbilityUnconfirmed {
		return
	}
	a.state = AbilityConfirmed

	if a.spec.Trigger == PhaseImmediate {
		a.proc()
		return
	}

	a.subscriptionID = a.battle.bus.SubscribeFunc(a.spec.Trigger.EventType(), 0, a.onTrigger)
	a.battle.track(a)
}

func (a *Ability) onTrigger(ctx context.Context, _ events.Event) error {
	if a.state != AbilityConfirmed {
		return nil
	}

	if now := a.battle.Time(); now > a.FinishTime() {
		a.state = AbilityCancelled
		slog.DebugContext(ctx, "ability expired before its trigger",
			"ability", a.spec.Name,
			"initiator", a.initiator.GetID(),
			"battle_time", now,
			"finish_time", a.FinishTime())
		return nil
	}

	a.proc()
	return nil
}

func (a *Ability) proc() {
	a.state = AbilityProcced

	recipient := a.target
	if a.spec.TargetSelf || recipient == nil {
		recipient = a.initiator
	}

	effect := a.spec.Effect
	effect.Source = a.initiator.GetID()
	recipient.AddStatus(effect)
}

func (a *Ability) finished() bool {
	return a.state == AbilityProcced || a.state == AbilityCancelled
}

func (a *Ability) unsubscribe(bus events.EventBus) error {
	if a.subscriptionID == "" {
		return nil
	}
	id := a.subscriptionID
	a.subscriptionID = ""
	return bus.Unsubscribe(id)
}
