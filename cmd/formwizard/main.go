// Formwizard fills in multi-step validated forms from the terminal.
//
// It ships the registration, user, reactive user and skills forms, accepts
// extra form definitions from its config file, and can store accepted
// submissions in a remote record store.
//
// Usage:
//
//	formwizard [command] [flags]
//
// Running without arguments opens the default form in the interactive wizard.
// See 'formwizard --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "formwizard",
	Short: "Multi-step form wizard",
	Long: `Fill in multi-step forms with validation at every step.

Each form is an ordered list of field groups. A group must be valid before
the wizard moves past it, and the whole form must be valid before it can be
submitted. Accepted submissions can be stored in a remote record store.

If no command is specified, the default form opens in the interactive wizard.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run wizard when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("formwizard %s\n", version.Full())
	},
}
