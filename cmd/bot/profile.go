package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
)

var (
	profileType string
	profileID   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile commands",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a stored profile as JSON",
	RunE:  runProfileShow,
}

func init() {
	profileShowCmd.Flags().StringVar(&profileType, "type", string(entities.ProfileTypeUser), "profile type (user|guild)")
	profileShowCmd.Flags().StringVar(&profileID, "id", "", "user or guild ID")
	_ = profileShowCmd.MarkFlagRequired("id")

	profileCmd.AddCommand(profileShowCmd)
}

func runProfileShow(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	pt := entities.ProfileType(profileType)
	if !pt.IsValid() {
		return errors.InvalidArgumentf("unknown profile type %q", profileType)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out, err := a.profiles.ProfileData(ctx, &profile.ProfileDataInput{
		ProfileType: pt,
		Identity:    profileID,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out.Profile, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode profile")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
