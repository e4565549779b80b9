// Package main is the entry point for the community bot CLI
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KirkDiggler/rpg-community-bot/internal/config"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

var (
	cfgFile string

	// v collects defaults, flags and RPGBOT_* overrides for config.Load
	v = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "rpg-bot",
	Short: "RPG community bot",
	Long:  `Runs the community bot's profile sessions and clash demo against the configured document store.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError logs the full error chain and prints a short line for the
// user. Usage errors from cobra are not structured and print as-is.
func reportError(w io.Writer, err error) {
	var structured *errors.Error
	if !errors.As(err, &structured) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	slog.Error("Command failed", "code", errors.GetCode(err), "error", err)
	fmt.Fprintf(w, "Error: %s\n", errors.UserMessage(err))
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./rpgbot.yaml)")
	flags.String("store", config.BackendMemory, "document store backend (memory|redis)")
	flags.String("redis-endpoint", "localhost:6379", "redis address when --store=redis")
	flags.String("catalog", "data/catalog.yaml", "path to the combat catalog")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")

	bindFlag(v, "store.backend", "store")
	bindFlag(v, "redis.endpoint", "redis-endpoint")
	bindFlag(v, "data.catalog", "catalog")
	bindFlag(v, "log.level", "log-level")
	bindFlag(v, "log.format", "log-format")

	rootCmd.AddCommand(clashCmd)
	rootCmd.AddCommand(profileCmd)
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}
