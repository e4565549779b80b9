// Package data loads the read-only combat catalog: weapons, armour,
// abilities and the demo combat characters.
package data

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// DefaultCatalog is the catalog file name looked up in each data directory
const DefaultCatalog = "catalog.yaml"

// Catalog is the decoded catalog file
type Catalog struct {
	Weapons    []*combat.Weapon            `yaml:"weapons"`
	Armours    []*combat.Armour            `yaml:"armours"`
	Abilities  []*combat.AbilitySpec       `yaml:"abilities"`
	Characters []*entities.CombatCharacter `yaml:"characters"`

	weapons    map[string]*combat.Weapon
	armours    map[string]*combat.Armour
	abilities  map[string]*combat.AbilitySpec
	characters map[string]*entities.CombatCharacter
}

// Loader reads catalog files from a list of directories, first match wins
type Loader struct {
	dataDirs []string
}

// NewLoader creates a loader searching dataDirs in order
func NewLoader(dataDirs []string) *Loader {
	return &Loader{dataDirs: dataDirs}
}

// LoadCatalog finds, decodes and indexes a catalog file
func (l *Loader) LoadCatalog(name string) (*Catalog, error) {
	if name == "" {
		name = DefaultCatalog
	}

	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()

		var c Catalog
		if err := yaml.NewDecoder(f).Decode(&c); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode catalog "+path)
		}
		if err := c.index(); err != nil {
			return nil, errors.Wrapf(err, "invalid catalog %s", path)
		}
		return &c, nil
	}

	return nil, errors.NotFoundf("could not find catalog %s in any data directory", name).
		WithMeta("dirs", l.dataDirs)
}

// index validates the catalog and builds the lookup tables
func (c *Catalog) index() error {
	c.weapons = make(map[string]*combat.Weapon, len(c.Weapons))
	for _, w := range c.Weapons {
		if w.ID == "" {
			return errors.InvalidArgument("weapon without id")
		}
		if _, dup := c.weapons[w.ID]; dup {
			return errors.AlreadyExistsf("duplicate weapon %s", w.ID)
		}
		if err := w.Validate(); err != nil {
			return err
		}
		c.weapons[w.ID] = w
	}

	c.armours = make(map[string]*combat.Armour, len(c.Armours))
	for _, a := range c.Armours {
		if a.ID == "" {
			return errors.InvalidArgument("armour without id")
		}
		if _, dup := c.armours[a.ID]; dup {
			return errors.AlreadyExistsf("duplicate armour %s", a.ID)
		}
		c.armours[a.ID] = a
	}

	c.abilities = make(map[string]*combat.AbilitySpec, len(c.Abilities))
	for _, a := range c.Abilities {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := c.abilities[a.Name]; dup {
			return errors.AlreadyExistsf("duplicate ability %s", a.Name)
		}
		c.abilities[a.Name] = a
	}

	c.characters = make(map[string]*entities.CombatCharacter, len(c.Characters))
	for _, ch := range c.Characters {
		if ch.ID == "" {
			return errors.InvalidArgument("character without id")
		}
		if _, dup := c.characters[ch.ID]; dup {
			return errors.AlreadyExistsf("duplicate character %s", ch.ID)
		}
		if err := c.CheckReferences(ch); err != nil {
			return err
		}
		c.characters[ch.ID] = ch
	}

	return nil
}

// CheckReferences verifies that a character's equipment and abilities exist
func (c *Catalog) CheckReferences(ch *entities.CombatCharacter) error {
	if _, err := c.Weapon(ch.WeaponID); err != nil {
		return errors.Wrapf(err, "character %s", ch.ID)
	}
	if ch.ArmourID != "" {
		if _, err := c.Armour(ch.ArmourID); err != nil {
			return errors.Wrapf(err, "character %s", ch.ID)
		}
	}
	for _, name := range ch.Abilities {
		if _, err := c.Ability(name); err != nil {
			return errors.Wrapf(err, "character %s", ch.ID)
		}
	}
	return nil
}

// Weapon looks up a weapon by ID
func (c *Catalog) Weapon(id string) (*combat.Weapon, error) {
	w, ok := c.weapons[id]
	if !ok {
		return nil, errors.NotFoundf("weapon %q not found", id)
	}
	return w, nil
}

// Armour looks up an armour by ID
func (c *Catalog) Armour(id string) (*combat.Armour, error) {
	a, ok := c.armours[id]
	if !ok {
		return nil, errors.NotFoundf("armour %q not found", id)
	}
	return a, nil
}

// Ability looks up an ability by name
func (c *Catalog) Ability(name string) (*combat.AbilitySpec, error) {
	a, ok := c.abilities[name]
	if !ok {
		return nil, errors.NotFoundf("ability %q not found", name)
	}
	return a, nil
}

// Character looks up a demo character by ID
func (c *Catalog) Character(id string) (*entities.CombatCharacter, error) {
	ch, ok := c.characters[id]
	if !ok {
		return nil, errors.NotFoundf("character %q not found", id)
	}
	return ch, nil
}
