package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/cmd/fnctl/commands"
	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "fnctl",
		Short: "Manage serverless functions and secrets in a hosted record store",
		Long: `fnctl lists, creates, updates and deletes the functions and secrets of a
project, and browses the documentation of the record-store API.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; destructive commands need --yes")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewFunctionsCommand(cfg),
		commands.NewSecretsCommand(cfg),
		commands.NewDocsCommand(cfg),
		commands.NewServeCommand(cfg),
	)

	return rootCmd.ExecuteContext(context.Background())
}
