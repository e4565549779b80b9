package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-community-bot/internal/combat"
	"github.com/KirkDiggler/rpg-community-bot/internal/data"
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/clash"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

func TestSeedCharacters(t *testing.T) {
	ctx := context.Background()
	catalog, err := data.NewLoader([]string{"../../data"}).LoadCatalog("")
	require.NoError(t, err)

	repo := documents.NewInMemory(nil)
	require.NoError(t, seedCharacters(ctx, repo, catalog))

	out, err := repo.List(ctx, documents.ListInput{Collection: entities.CollectionCombatCharacters})
	require.NoError(t, err)
	assert.Len(t, out.Documents, len(catalog.Characters))
}

func TestPrintClash(t *testing.T) {
	out := &clash.ClashOutput{
		Rounds: []clash.Round{{
			Number: 1,
			Turns: []clash.Turn{{
				ActorID:  "aldric",
				TargetID: "sera",
				Raw:      40,
				Dealt:    30,
				TargetHP: 0,
				Defeated: true,
				Abilities: []clash.AbilityOutcome{
					{Name: "rend", State: combat.AbilityProcced},
				},
			}},
		}},
		Attacker: clash.Combatant{CharacterID: "aldric", Name: "Aldric", MaxHP: 120, HP: 120},
		Defender: clash.Combatant{CharacterID: "sera", Name: "Sera", MaxHP: 30},
		WinnerID: "aldric",
	}

	var buf bytes.Buffer
	printClash(&buf, out)

	text := buf.String()
	assert.Contains(t, text, "Aldric hits Sera for 30.0 (raw 40.0), Sera at 0.0 HP")
	assert.Contains(t, text, "Sera is defeated!")
	assert.Contains(t, text, "Winner: Aldric")
}

func TestReportError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "user facing error keeps its message",
			err: errors.Wrap(
				errors.NotFoundf("combat character %s not found", "ghost"),
				"failed to start clash"),
			want: "Error: failed to start clash\n",
		},
		{
			name: "infrastructure error is collapsed",
			err: errors.WrapWithCode(stderrors.New("dial tcp 10.0.0.1:6379: refused"),
				errors.CodeUnavailable, "redis is unreachable"),
			want: "Error: Something went wrong, please try again later.\n",
		},
		{
			name: "usage error prints as-is",
			err:  stderrors.New(`required flag(s) "attacker" not set`),
			want: "Error: required flag(s) \"attacker\" not set\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tc.err)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}
