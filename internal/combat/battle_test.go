package combat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

type BattleTestSuite struct {
	suite.Suite
	ctx      context.Context
	battle   *combat.Battle
	attacker *combat.Entity
	defender *combat.Entity
}

func (s *BattleTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.battle = combat.NewBattle(nil)

	var err error
	s.attacker, err = combat.NewEntity(&combat.EntityConfig{ID: "attacker", Stats: tens})
	s.Require().NoError(err)
	s.defender, err = combat.NewEntity(&combat.EntityConfig{ID: "defender", Stats: tens})
	s.Require().NoError(err)
}

func (s *BattleTestSuite) newAbility(trigger combat.Phase) *combat.Ability {
	a, err := combat.NewAbility(&combat.AbilityConfig{
		Spec: combat.AbilitySpec{
			Name:     "rend",
			Trigger:  trigger,
			Windup:   1,
			Swing:    1,
			Recovery: 1,
			Effect:   combat.StatusEffect{Type: "bleed", ApplyType: combat.ApplyStackable, Value: 2, Duration: 3},
		},
		Initiator: s.attacker,
		Target:    s.defender,
		Battle:    s.battle,
	})
	s.Require().NoError(err)
	return a
}

func (s *BattleTestSuite) TestProcsOnTrigger() {
	a := s.newAbility(combat.PhaseSwing)
	s.Equal(combat.AbilityUnconfirmed, a.State())

	a.Confirm()
	s.Equal(combat.AbilityConfirmed, a.State())
	s.Len(s.battle.Abilities(), 1)

	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseWindup, s.attacker))
	s.Equal(combat.AbilityConfirmed, a.State(), "other phases are ignored")

	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseSwing, s.attacker))
	s.Equal(combat.AbilityProcced, a.State())
	s.Empty(s.battle.Abilities())

	statuses := s.defender.Statuses()
	s.Require().Len(statuses, 1)
	s.Equal("bleed", statuses[0].Type)
	s.Equal("attacker", statuses[0].Source)
}

func (s *BattleTestSuite) TestProcsOnlyOnce() {
	a := s.newAbility(combat.PhaseSwing)
	a.Confirm()
	a.Confirm()

	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseSwing, s.attacker))
	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseSwing, s.attacker))

	s.Len(s.defender.Statuses(), 1)
}

func (s *BattleTestSuite) TestStaleAbilityNeverProcs() {
	a := s.newAbility(combat.PhaseRecovery)
	a.Confirm()
	s.Equal(2, a.FinishTime())

	s.battle.Advance(2)
	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseWindup, s.attacker))
	s.Equal(combat.AbilityConfirmed, a.State(), "still inside the window at the finish tick")

	s.battle.Advance(1)
	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseRecovery, s.attacker))
	s.Equal(combat.AbilityCancelled, a.State())
	s.Empty(s.defender.Statuses())
	s.Empty(s.battle.Abilities())
}

func (s *BattleTestSuite) TestImmediateAbility() {
	a := s.newAbility(combat.PhaseImmediate)
	a.Confirm()

	s.Equal(combat.AbilityProcced, a.State())
	s.Len(s.defender.Statuses(), 1)
	s.Empty(s.battle.Abilities())
}

func (s *BattleTestSuite) TestSelfTargeting() {
	a, err := combat.NewAbility(&combat.AbilityConfig{
		Spec: combat.AbilitySpec{
			Name:       "brace",
			Trigger:    combat.PhaseRound,
			Recovery:   1,
			TargetSelf: true,
			Effect:     combat.StatusEffect{Type: "guard", ApplyType: combat.ApplyPersistent, Value: 10},
		},
		Initiator: s.attacker,
		Target:    s.defender,
		Battle:    s.battle,
	})
	s.Require().NoError(err)
	a.Confirm()

	s.Require().NoError(s.battle.Trigger(s.ctx, combat.PhaseRound, s.attacker))
	s.Len(s.attacker.Statuses(), 1)
	s.Empty(s.defender.Statuses())
}

func (s *BattleTestSuite) TestValidation() {
	_, err := combat.NewAbility(&combat.AbilityConfig{
		Spec:      combat.AbilitySpec{Name: "x", Trigger: "dusk", Effect: combat.StatusEffect{Type: "t"}},
		Initiator: s.attacker,
		Battle:    s.battle,
	})
	s.True(errors.IsInvalidArgument(err))

	err = s.battle.Trigger(s.ctx, combat.PhaseImmediate, s.attacker)
	s.True(errors.IsInvalidArgument(err))
}

func (s *BattleTestSuite) TestAdvance() {
	s.battle.Advance(3)
	s.battle.Advance(-1)
	s.Equal(3, s.battle.Time())
}

func TestBattleTestSuite(t *testing.T) {
	suite.Run(t, new(BattleTestSuite))
}
