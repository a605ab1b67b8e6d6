package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/cmd/vaultops/commands"
	"github.com/systmms/vaultops/internal/config"
	"github.com/systmms/vaultops/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		root    string
		noColor bool
		debug   bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "vaultops",
		Short: "Audit and manage environment secrets",
		Long: `vaultops compares the secrets an environment requires against the
secrets its store holds and reports anything missing, incorrect, or unknown.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Root = root
			cfg.Debug = debug
			cfg.NoColor = noColor
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&root, "root", ".", "Configuration tree directory")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewAuditCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewTemplateCommand(cfg),
		commands.NewExportCommand(cfg),
		commands.NewSchemaCommand(cfg),
	)

	return rootCmd.Execute()
}
