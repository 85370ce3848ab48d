// Package commands implements the clawback CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/clawback/internal/config"
	"github.com/mmynk/clawback/pkg/logging"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// app holds state shared by every subcommand.
type app struct {
	cfgPath  string
	jsonLogs bool
	cfg      *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "clawback",
		Short:   "Shared trip expenses for group chats",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logging.Setup(cfg.Log.Level, a.jsonLogs)
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "clawback.yaml", "config file (missing means defaults)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "log JSON instead of colored text")

	rootCmd.AddCommand(
		newServeCommand(a),
		newHandleCommand(a),
		newParseCommand(a),
		newTripsCommand(a),
		newBalancesCommand(a),
		newCleanupCommand(a),
		newTokenCommand(a),
	)

	return rootCmd
}
