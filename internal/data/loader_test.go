package data_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/data"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

type LoaderTestSuite struct {
	suite.Suite
	dir string
}

func (s *LoaderTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *LoaderTestSuite) write(dir, name, body string) {
	s.Require().NoError(os.MkdirAll(dir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

const minimalCatalog = `
weapons:
  - id: club
    base_damage: 3
    multipliers:
      - [str, add, 1]
armours:
  - id: rags
    protection: 5
abilities:
  - name: bash
    trigger: swing
    swing: 1
    effect: {type: dazed, apply_type: stackable, value: 1}
characters:
  - id: grog
    name: Grog
    stats: {str: 10}
    weapon: club
    armour: rags
    abilities: [bash]
`

func (s *LoaderTestSuite) TestLoadCatalog() {
	s.write(s.dir, "catalog.yaml", minimalCatalog)

	c, err := data.NewLoader([]string{s.dir}).LoadCatalog("")
	s.Require().NoError(err)

	w, err := c.Weapon("club")
	s.Require().NoError(err)
	s.Require().Len(w.Multipliers, 1)
	s.Equal(combat.StatStrength, w.Multipliers[0].Stat)

	ch, err := c.Character("grog")
	s.Require().NoError(err)
	s.Equal(10.0, ch.Stats.Str)
	s.Equal("club", ch.WeaponID)

	_, err = c.Armour("plate")
	s.True(errors.IsNotFound(err))
}

func (s *LoaderTestSuite) TestFirstDirectoryWins() {
	override := filepath.Join(s.dir, "override")
	base := filepath.Join(s.dir, "base")
	s.write(base, "catalog.yaml", minimalCatalog)
	s.write(override, "catalog.yaml", "weapons:\n  - id: stick\n    multipliers: []\n")

	c, err := data.NewLoader([]string{filepath.Join(s.dir, "missing"), override, base}).LoadCatalog("catalog.yaml")
	s.Require().NoError(err)

	_, err = c.Weapon("stick")
	s.NoError(err)
	_, err = c.Weapon("club")
	s.True(errors.IsNotFound(err))
}

func (s *LoaderTestSuite) TestNotFound() {
	_, err := data.NewLoader([]string{s.dir}).LoadCatalog("nope.yaml")
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *LoaderTestSuite) TestInvalidCatalogs() {
	testCases := []struct {
		name string
		body string
		code errors.Code
	}{
		{
			name: "unknown stat",
			body: "weapons:\n  - id: w\n    multipliers:\n      - [luck, add, 1]\n",
			code: errors.CodeInvalidArgument,
		},
		{
			name: "duplicate weapon",
			body: "weapons:\n  - id: w\n  - id: w\n",
			code: errors.CodeAlreadyExists,
		},
		{
			name: "dangling weapon reference",
			body: "characters:\n  - id: c\n    weapon: ghost\n",
			code: errors.CodeNotFound,
		},
		{
			name: "malformed multiplier",
			body: "weapons:\n  - id: w\n    multipliers:\n      - [str, add]\n",
			code: errors.CodeInvalidArgument,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			dir := filepath.Join(s.dir, tc.name)
			s.write(dir, "catalog.yaml", tc.body)

			_, err := data.NewLoader([]string{dir}).LoadCatalog("catalog.yaml")
			s.Require().Error(err)
			s.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (s *LoaderTestSuite) TestShippedCatalog() {
	c, err := data.NewLoader([]string{filepath.Join("..", "..", "data")}).LoadCatalog(data.DefaultCatalog)
	s.Require().NoError(err)
	s.NotEmpty(c.Characters)
	for _, ch := range c.Characters {
		s.NoError(c.CheckReferences(ch))
	}
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}
