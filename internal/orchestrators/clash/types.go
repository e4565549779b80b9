package clash

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
)

// RegisterCharacterInput contains the parameters for storing a combat character
type RegisterCharacterInput struct {
	UserID    string
	Character *entities.CombatCharacter
}

// RegisterCharacterOutput contains the stored character
type RegisterCharacterOutput struct {
	Character *entities.CombatCharacter
}

// ClashInput contains the parameters for a clash between two users' characters
type ClashInput struct {
	AttackerUserID      string
	AttackerCharacterID string
	DefenderUserID      string
	DefenderCharacterID string

	// MaxRounds caps the fight. Zero uses DefaultRounds.
	MaxRounds int
}

// Turn is one side's attack within a round
type Turn struct {
	ActorID   string
	TargetID  string
	Raw       float64
	Dealt     float64
	TargetHP  float64
	Defeated  bool
	Abilities []AbilityOutcome
}

// AbilityOutcome reports what an ability did during a turn
type AbilityOutcome struct {
	Name  string
	State combat.AbilityState
}

// Round pairs the turns taken in one round
type Round struct {
	Number int
	Turns  []Turn
}

// Combatant is the end-of-clash state of one side
type Combatant struct {
	CharacterID string
	Name        string
	MaxHP       float64
	HP          float64
	Statuses    []combat.StatusEffect
}

// ClashOutput contains the full fight log and the winner
type ClashOutput struct {
	Rounds   []Round
	Attacker Combatant
	Defender Combatant

	// WinnerID is the winning character ID, empty on a draw
	WinnerID string
}
