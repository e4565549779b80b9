package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/clash"
)

var (
	clashAttacker     string
	clashDefender     string
	clashAttackerUser string
	clashDefenderUser string
	clashRounds       int
)

var clashCmd = &cobra.Command{
	Use:   "clash",
	Short: "Fight two combat characters",
	Long:  `Runs a clash between two combat characters and prints the round-by-round log.`,
	RunE:  runClash,
}

func init() {
	clashCmd.Flags().StringVar(&clashAttacker, "attacker", "", "attacking character ID")
	clashCmd.Flags().StringVar(&clashDefender, "defender", "", "defending character ID")
	clashCmd.Flags().StringVar(&clashAttackerUser, "attacker-user", "cli-attacker", "user ID owning the attacker")
	clashCmd.Flags().StringVar(&clashDefenderUser, "defender-user", "cli-defender", "user ID owning the defender")
	clashCmd.Flags().IntVar(&clashRounds, "rounds", clash.DefaultRounds, "maximum number of rounds")
	_ = clashCmd.MarkFlagRequired("attacker")
	_ = clashCmd.MarkFlagRequired("defender")
}

func runClash(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out, err := a.clashes.Clash(ctx, &clash.ClashInput{
		AttackerUserID:      clashAttackerUser,
		AttackerCharacterID: clashAttacker,
		DefenderUserID:      clashDefenderUser,
		DefenderCharacterID: clashDefender,
		MaxRounds:           clashRounds,
	})
	if err != nil {
		return err
	}

	printClash(cmd.OutOrStdout(), out)
	return nil
}

func printClash(w io.Writer, out *clash.ClashOutput) {
	names := map[string]string{
		out.Attacker.CharacterID: out.Attacker.Name,
		out.Defender.CharacterID: out.Defender.Name,
	}
	name := func(id string) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return id
	}

	fmt.Fprintf(w, "%s (%.1f HP) vs %s (%.1f HP)\n",
		out.Attacker.Name, out.Attacker.MaxHP, out.Defender.Name, out.Defender.MaxHP)

	for _, round := range out.Rounds {
		fmt.Fprintf(w, "\n=== Round %d ===\n", round.Number)
		for _, turn := range round.Turns {
			fmt.Fprintf(w, "%s hits %s for %.1f (raw %.1f), %s at %.1f HP\n",
				name(turn.ActorID), name(turn.TargetID), turn.Dealt, turn.Raw, name(turn.TargetID), turn.TargetHP)
			for _, ab := range turn.Abilities {
				fmt.Fprintf(w, "  %s: %s\n", ab.Name, ab.State)
			}
			if turn.Defeated {
				fmt.Fprintf(w, "%s is defeated!\n", name(turn.TargetID))
			}
		}
	}

	fmt.Fprintln(w)
	for _, c := range []clash.Combatant{out.Attacker, out.Defender} {
		fmt.Fprintf(w, "%s: %.1f/%.1f HP", c.Name, c.HP, c.MaxHP)
		for _, st := range c.Statuses {
			fmt.Fprintf(w, " [%s %.1f]", st.Type, st.Value)
		}
		fmt.Fprintln(w)
	}

	if out.WinnerID == "" {
		fmt.Fprintln(w, "Result: draw")
		return
	}
	fmt.Fprintf(w, "Winner: %s\n", name(out.WinnerID))
}
