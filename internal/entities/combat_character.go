package entities

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
)

// CombatCharacter is a stored clash combatant. Equipment and abilities are
// catalog references resolved when the character enters a clash.
type CombatCharacter struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	OwnerID   string           `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Stats     combat.BaseStats `json:"stats" yaml:"stats"`
	WeaponID  string           `json:"weapon_id" yaml:"weapon"`
	ArmourID  string           `json:"armour_id,omitempty" yaml:"armour,omitempty"`
	Abilities []string         `json:"abilities,omitempty" yaml:"abilities,omitempty"`
}
