package combat

import (
	"math"

	"github.com/KirkDiggler/rpg-toolkit/core"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// EntityType is reported through core.Entity
const EntityType = "combatant"

// ApplyType controls how a status effect lands on an entity
type ApplyType string

const (
	// ApplyStackable effects add a new entry each time
	ApplyStackable ApplyType = "stackable"
	// ApplyPersistent effects replace an existing entry of the same type
	ApplyPersistent ApplyType = "persistent"
)

// StatusEffect is a plain record attached to an entity
type StatusEffect struct {
	Type      string    `json:"type" yaml:"type"`
	ApplyType ApplyType `json:"apply_type" yaml:"apply_type"`
	Value     float64   `json:"value" yaml:"value"`
	Duration  int       `json:"duration" yaml:"duration"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// EntityConfig holds what is needed to build a combatant
type EntityConfig struct {
	ID       string
	Name     string
	Stats    BaseStats
	Weapon   *Weapon
	Armour   *Armour
	Location string
}

// Entity is a combatant built for one calculation
type Entity struct {
	ID       string
	Name     string
	Stats    BaseStats
	Weapon   *Weapon
	Armour   *Armour
	Location string

	maxHP    float64
	maxOrg   float64
	hp       float64
	org      float64
	statuses []StatusEffect
}

// Ensure Entity implements core.Entity
var _ core.Entity = (*Entity)(nil)

// NewEntity derives max HP and organisation and starts the entity at full
func NewEntity(cfg *EntityConfig) (*Entity, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config cannot be nil")
	}
	if cfg.ID == "" {
		return nil, errors.InvalidArgument("entity ID is required")
	}
	if cfg.Weapon != nil {
		if err := cfg.Weapon.Validate(); err != nil {
			return nil, err
		}
	}

	maxHP := DeriveHP(cfg.Stats)
	maxOrg := DeriveOrg(cfg.Stats)

	return &Entity{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Stats:    cfg.Stats,
		Weapon:   cfg.Weapon,
		Armour:   cfg.Armour,
		Location: cfg.Location,
		maxHP:    maxHP,
		maxOrg:   maxOrg,
		hp:       maxHP,
		org:      maxOrg,
	}, nil
}

// GetID implements core.Entity
func (e *Entity) GetID() string { return e.ID }

// GetType implements core.Entity
func (e *Entity) GetType() string { return EntityType }

func (e *Entity) MaxHP() float64  { return e.maxHP }
func (e *Entity) MaxOrg() float64 { return e.maxOrg }
func (e *Entity) HP() float64     { return e.hp }
func (e *Entity) Org() float64    { return e.org }

// Defeated reports whether HP has run out
func (e *Entity) Defeated() bool { return e.hp <= 0 }

// TakeDamage reduces HP, never below zero. Negative amounts are ignored.
func (e *Entity) TakeDamage(amount float64) {
	if amount <= 0 {
		return
	}
	e.hp = math.Max(e.hp-amount, 0)
}

// AddStatus attaches an effect
func (e *Entity) AddStatus(effect StatusEffect) {
	if effect.ApplyType == ApplyPersistent {
		for i := range e.statuses {
			if e.statuses[i].Type == effect.Type {
				e.statuses[i] = effect
				return
			}
		}
	}
	e.statuses = append(e.statuses, effect)
}

// Statuses returns a copy of the attached effects
func (e *Entity) Statuses() []StatusEffect {
	return append([]StatusEffect(nil), e.statuses...)
}
