// Package clash runs the clash demo: two users pit stored combat characters
// against each other. Both users hold a battle event for the duration, so a
// user can only be in one clash at a time.
package clash

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/data"
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

const (
	DefaultRounds = 10
	MaxRounds     = 50
)

// Service defines the interface for clash operations
type Service interface {
	// RegisterCharacter stores a combat character for a user
	RegisterCharacter(ctx context.Context, input *RegisterCharacterInput) (*RegisterCharacterOutput, error)

	// Clash fights two characters until one falls or the rounds run out
	Clash(ctx context.Context, input *ClashInput) (*ClashOutput, error)
}

// Config holds the dependencies for the clash orchestrator
type Config struct {
	ProfileService profile.Service
	DocumentRepo   documents.Repository
	Catalog        *data.Catalog
	DiceRoller     dice.Roller
	IDGenerator    idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if c.ProfileService == nil {
		vb.RequiredField("ProfileService")
	}
	if c.DocumentRepo == nil {
		vb.RequiredField("DocumentRepo")
	}
	if c.Catalog == nil {
		vb.RequiredField("Catalog")
	}
	return vb.Build()
}

type orchestrator struct {
	profiles profile.Service
	docs     documents.Repository
	catalog  *data.Catalog
	roller   dice.Roller
	idGen    idgen.Generator
}

// NewOrchestrator creates a new clash orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &orchestrator{
		profiles: cfg.ProfileService,
		docs:     cfg.DocumentRepo,
		catalog:  cfg.Catalog,
		roller:   cfg.DiceRoller,
		idGen:    cfg.IDGenerator,
	}
	if o.roller == nil {
		o.roller = dice.DefaultRoller
	}
	if o.idGen == nil {
		o.idGen = idgen.NewUUID("cc")
	}
	return o, nil
}

func (o *orchestrator) RegisterCharacter(ctx context.Context, input *RegisterCharacterInput) (*RegisterCharacterOutput, error) {
	if input == nil || input.Character == nil {
		return nil, errors.InvalidArgument("character is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("user_id", input.UserID, vb)
	errors.ValidateRequired("name", input.Character.Name, vb)
	errors.ValidateRequired("weapon", input.Character.WeaponID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}
	if err := o.catalog.CheckReferences(input.Character); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, err.Error())
	}

	character := *input.Character
	character.OwnerID = input.UserID
	if character.ID == "" {
		character.ID = o.idGen.Generate()
	}

	payload, err := json.Marshal(&character)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode combat character")
	}

	_, err = o.docs.Save(ctx, documents.SaveInput{
		Collection: entities.CollectionCombatCharacters,
		ID:         character.ID,
		Data:       payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save combat character %s", character.ID)
	}

	_, err = o.profiles.Edit(ctx, &profile.EditInput{
		ProfileType: entities.ProfileTypeUser,
		Identity:    input.UserID,
		Apply: func(p *entities.Profile) error {
			if !slices.Contains(p.User.CombatCharacters, character.ID) {
				p.User.CombatCharacters = append(p.User.CombatCharacters, character.ID)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &RegisterCharacterOutput{Character: &character}, nil
}

// loadCharacter reads a stored character, falling back to the catalog's demo
// characters which anyone may use.
func (o *orchestrator) loadCharacter(ctx context.Context, userID, characterID string) (*entities.CombatCharacter, error) {
	out, err := o.docs.Get(ctx, documents.GetInput{
		Collection: entities.CollectionCombatCharacters,
		ID:         characterID,
	})
	if err != nil {
		if !errors.IsNotFound(err) {
			return nil, err
		}
		demo, derr := o.catalog.Character(characterID)
		if derr != nil {
			return nil, errors.NotFoundf("combat character %s not found", characterID)
		}
		return demo, nil
	}

	var c entities.CombatCharacter
	if err := json.Unmarshal(out.Document.Data, &c); err != nil {
		return nil, errors.Wrapf(err, "failed to decode combat character %s", characterID)
	}
	if c.OwnerID != "" && c.OwnerID != userID {
		return nil, errors.PermissionDenied("you can only clash with your own characters")
	}
	return &c, nil
}

func (o *orchestrator) buildEntity(c *entities.CombatCharacter) (*combat.Entity, []*combat.AbilitySpec, error) {
	weapon, err := o.catalog.Weapon(c.WeaponID)
	if err != nil {
		return nil, nil, err
	}

	var armour *combat.Armour
	if c.ArmourID != "" {
		if armour, err = o.catalog.Armour(c.ArmourID); err != nil {
			return nil, nil, err
		}
	}

	specs := make([]*combat.AbilitySpec, 0, len(c.Abilities))
	for _, name := range c.Abilities {
		spec, err := o.catalog.Ability(name)
		if err != nil {
			return nil, nil, err
		}
		specs = append(specs, spec)
	}

	e, err := combat.NewEntity(&combat.EntityConfig{
		ID:     c.ID,
		Name:   c.Name,
		Stats:  c.Stats,
		Weapon: weapon,
		Armour: armour,
	})
	if err != nil {
		return nil, nil, err
	}
	return e, specs, nil
}

// openBattles registers a battle event on both users, or on neither
func (o *orchestrator) openBattles(ctx context.Context, userIDs ...string) ([]*interaction.Event, error) {
	events := make([]*interaction.Event, 0, len(userIDs))
	for _, id := range userIDs {
		reg, err := o.profiles.Register(ctx, &profile.RegisterInput{
			ProfileType: entities.ProfileTypeUser,
			Identity:    id,
			Kind:        interaction.KindBattle,
		})
		if err != nil {
			for _, e := range events {
				e.Stop()
			}
			if errors.IsAlreadyExists(err) {
				return nil, errors.Wrapf(err, "user %s is already in a battle", id)
			}
			return nil, err
		}
		events = append(events, reg.Event)
	}
	return events, nil
}

type side struct {
	entity *combat.Entity
	specs  []*combat.AbilitySpec
}

func (o *orchestrator) Clash(ctx context.Context, input *ClashInput) (*ClashOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	rounds := input.MaxRounds
	if rounds == 0 {
		rounds = DefaultRounds
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("attacker_user_id", input.AttackerUserID, vb)
	errors.ValidateRequired("attacker_character_id", input.AttackerCharacterID, vb)
	errors.ValidateRequired("defender_user_id", input.DefenderUserID, vb)
	errors.ValidateRequired("defender_character_id", input.DefenderCharacterID, vb)
	errors.ValidateRange("rounds", rounds, 1, MaxRounds, vb)
	if input.AttackerUserID != "" && input.AttackerUserID == input.DefenderUserID {
		vb.Field("defender_user_id", "cannot clash with yourself")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	attackerChar, err := o.loadCharacter(ctx, input.AttackerUserID, input.AttackerCharacterID)
	if err != nil {
		return nil, err
	}
	defenderChar, err := o.loadCharacter(ctx, input.DefenderUserID, input.DefenderCharacterID)
	if err != nil {
		return nil, err
	}

	attacker, attackerSpecs, err := o.buildEntity(attackerChar)
	if err != nil {
		return nil, err
	}
	defender, defenderSpecs, err := o.buildEntity(defenderChar)
	if err != nil {
		return nil, err
	}

	battles, err := o.openBattles(ctx, input.AttackerUserID, input.DefenderUserID)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, e := range battles {
			e.Stop()
		}
	}()

	battle := combat.NewBattle(nil)
	sides := [2]side{
		{entity: attacker, specs: attackerSpecs},
		{entity: defender, specs: defenderSpecs},
	}

	out := &ClashOutput{}
	for n := 1; n <= rounds; n++ {
		round := Round{Number: n}
		for i := range sides {
			actor, target := sides[i], sides[1-i]
			turn, err := o.takeTurn(ctx, battle, actor, target)
			if err != nil {
				return nil, err
			}
			round.Turns = append(round.Turns, *turn)
			if turn.Defeated {
				break
			}
		}
		out.Rounds = append(out.Rounds, round)

		for _, e := range battles {
			e.Touch()
		}
		if attacker.Defeated() || defender.Defeated() {
			break
		}
	}

	out.Attacker = summarize(attacker)
	out.Defender = summarize(defender)
	out.WinnerID = winner(attacker, defender)

	slog.InfoContext(ctx, "clash finished",
		"attacker_user_id", input.AttackerUserID,
		"attacker", attacker.GetID(),
		"defender_user_id", input.DefenderUserID,
		"defender", defender.GetID(),
		"rounds", len(out.Rounds),
		"winner", out.WinnerID)

	return out, nil
}

// takeTurn runs one attack through the phases, arming the actor's abilities
// against the target first.
func (o *orchestrator) takeTurn(ctx context.Context, battle *combat.Battle, actor, target side) (*Turn, error) {
	abilities := make([]*combat.Ability, 0, len(actor.specs))
	for _, spec := range actor.specs {
		a, err := combat.NewAbility(&combat.AbilityConfig{
			Spec:      *spec,
			Initiator: actor.entity,
			Target:    target.entity,
			Battle:    battle,
		})
		if err != nil {
			return nil, err
		}
		a.Confirm()
		abilities = append(abilities, a)
	}

	for _, phase := range []combat.Phase{combat.PhaseRound, combat.PhaseWindup} {
		if err := battle.Trigger(ctx, phase, actor.entity); err != nil {
			return nil, err
		}
	}

	result, err := combat.Attack(o.roller, actor.entity, target.entity)
	if err != nil {
		return nil, err
	}

	for _, phase := range []combat.Phase{combat.PhaseSwing, combat.PhaseRecovery} {
		if err := battle.Trigger(ctx, phase, actor.entity); err != nil {
			return nil, err
		}
	}
	battle.Advance(1)

	turn := &Turn{
		ActorID:  actor.entity.GetID(),
		TargetID: target.entity.GetID(),
		Raw:      result.Raw,
		Dealt:    result.Dealt,
		TargetHP: result.DefenderHP,
		Defeated: result.Defeated,
	}
	for _, a := range abilities {
		turn.Abilities = append(turn.Abilities, AbilityOutcome{Name: a.Name(), State: a.State()})
	}
	return turn, nil
}

func summarize(e *combat.Entity) Combatant {
	return Combatant{
		CharacterID: e.GetID(),
		Name:        e.Name,
		MaxHP:       e.MaxHP(),
		HP:          e.HP(),
		Statuses:    e.Statuses(),
	}
}

// winner picks the side left standing, else the one with more health left
// as a fraction of its maximum.
func winner(a, b *combat.Entity) string {
	switch {
	case a.Defeated() && !b.Defeated():
		return b.GetID()
	case b.Defeated() && !a.Defeated():
		return a.GetID()
	}

	fa, fb := a.HP()/a.MaxHP(), b.HP()/b.MaxHP()
	switch {
	case fa > fb:
		return a.GetID()
	case fb > fa:
		return b.GetID()
	default:
		return ""
	}
}
