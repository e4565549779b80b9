package combat

import (
	"math"
	"sort"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// Stat is a key that resolves to a number for an entity: either a raw base
// attribute or a derived reality.
type Stat string

// Base attributes
const (
	StatStrength     Stat = "str"
	StatDexterity    Stat = "dex"
	StatSpeed        Stat = "spd"
	StatSize         Stat = "siz"
	StatIntelligence Stat = "int"
	StatSpirit       Stat = "spr"
	StatFaith        Stat = "fai"
)

// Derived realities
const (
	StatBruteForce          Stat = "bruteForce"
	StatWeaponPrecision     Stat = "weaponPrecision"
	StatAccuracy            Stat = "accuracy"
	StatMagicPotential      Stat = "magicPotential"
	StatSpiritualConnection Stat = "spiritualConnection"
	StatDivineConnection    Stat = "divineConnection"
)

// HP and organisation curve constants
const (
	LogCoStrHP = 8.3
	XCoStrHP   = 0.6
	LogCoSizHP = 12.0
	XCoSizHP   = 0.7

	LogCoOrg = 11.1
	XCoOrg   = 0.23
)

// BaseStats are the seven raw attributes of a combatant
type BaseStats struct {
	Str float64 `json:"str" yaml:"str"`
	Dex float64 `json:"dex" yaml:"dex"`
	Spd float64 `json:"spd" yaml:"spd"`
	Siz float64 `json:"siz" yaml:"siz"`
	Int float64 `json:"int" yaml:"int"`
	Spr float64 `json:"spr" yaml:"spr"`
	Fai float64 `json:"fai" yaml:"fai"`
}

var statAccessors = map[Stat]func(BaseStats) float64{
	StatStrength:     func(b BaseStats) float64 { return b.Str },
	StatDexterity:    func(b BaseStats) float64 { return b.Dex },
	StatSpeed:        func(b BaseStats) float64 { return b.Spd },
	StatSize:         func(b BaseStats) float64 { return b.Siz },
	StatIntelligence: func(b BaseStats) float64 { return b.Int },
	StatSpirit:       func(b BaseStats) float64 { return b.Spr },
	StatFaith:        func(b BaseStats) float64 { return b.Fai },

	StatBruteForce:          BruteForce,
	StatWeaponPrecision:     WeaponPrecision,
	StatAccuracy:            Accuracy,
	StatMagicPotential:      MagicPotential,
	StatSpiritualConnection: SpiritualConnection,
	StatDivineConnection:    DivineConnection,
}

// IsValid reports whether the key resolves to a base attribute or reality
func (s Stat) IsValid() bool {
	_, ok := statAccessors[s]
	return ok
}

// Stats returns every known stat key in sorted order
func Stats() []Stat {
	out := make([]Stat, 0, len(statAccessors))
	for s := range statAccessors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Value resolves a stat key against base attributes
func Value(b BaseStats, s Stat) (float64, error) {
	fn, ok := statAccessors[s]
	if !ok {
		return 0, errors.InvalidArgumentf("unknown stat %q", s).WithMeta("stat", string(s))
	}
	return fn(b), nil
}

// logTerm returns coefficient*ln(x*v+1). Negative inputs shrink the term;
// a non-positive log argument contributes 0.
func logTerm(coefficient, x, v float64) float64 {
	if x*v+1 <= 0 {
		return 0
	}
	return coefficient * math.Log(x*v+1)
}

// DeriveHP computes maximum health
func DeriveHP(b BaseStats) float64 {
	return 10 +
		logTerm(LogCoStrHP, XCoStrHP, b.Str*0.33) +
		logTerm(LogCoSizHP, XCoSizHP, b.Siz*0.67)
}

// DeriveOrg computes maximum organisation
func DeriveOrg(b BaseStats) float64 {
	return 5 +
		logTerm(LogCoOrg, XCoOrg, b.Fai+b.Spr*0.4-b.Int*0.1) +
		0.1*DeriveHP(b)
}

// BruteForce is raw physical output. Negative size counts as zero.
func BruteForce(b BaseStats) float64 {
	siz := math.Max(b.Siz, 0)
	return b.Str * 0.45 * (1 + math.Pow(siz, 1.5)*0.3 + b.Spd*0.1)
}

// WeaponPrecision is skill with a wielded weapon
func WeaponPrecision(b BaseStats) float64 {
	return b.Dex*0.85 + b.Spd*0.15
}

// Accuracy is ranged and targeting skill
func Accuracy(b BaseStats) float64 {
	return b.Dex*0.75 + b.Spd*0.25
}

// MagicPotential is arcane output
func MagicPotential(b BaseStats) float64 {
	return b.Int*0.25 + b.Spr*0.15 - b.Fai*0.1
}

// SpiritualConnection is spirit-based output
func SpiritualConnection(b BaseStats) float64 {
	return b.Spr*0.25 + b.Fai*0.15 - b.Int*0.1
}

// DivineConnection is faith-based output
func DivineConnection(b BaseStats) float64 {
	return b.Fai*0.25 + b.Spr*0.15 - b.Int*0.1
}
