package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/formwizard/internal/config"
	"github.com/muurk/formwizard/internal/discovery"
	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/ui"
	"github.com/muurk/formwizard/internal/wizard"
	"github.com/muurk/formwizard/internal/wizard/prompt"
	"github.com/muurk/formwizard/internal/wizard/tui"
)

// Global flags
var (
	apiURL       string
	outputFormat string
	logLevel     string
)

// Command flags
var (
	sendRecord    bool
	scanTimeout   int
	valuesFile    string
	overwriteConf bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Record store URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.Flags().BoolVar(&sendRecord, "send", false, "Store the accepted submission as a record")

	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
}

// setup runs before every command
func setup(cmd *cobra.Command, args []string) error {
	switch outputFormat {
	case "detailed", "compact", "json":
	default:
		return fmt.Errorf("unknown output format %q (use detailed, compact or json)", outputFormat)
	}
	return logging.Initialize(logLevel)
}

// loadConfig loads the config file and applies the global flag overrides
func loadConfig() (*config.Registry, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if apiURL != "" {
		reg.API.BaseURL = apiURL
	}
	if logLevel == "" && os.Getenv(logging.LogLevelEnvVar) == "" && reg.Preferences.LogLevel != "" {
		if err := logging.Initialize(reg.Preferences.LogLevel); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newRecordsClient(reg *config.Registry) *records.Client {
	client := records.NewClient(reg.API.BaseURL)
	client.SetTimeout(reg.APITimeout())
	client.SetRetry(reg.API.Retries, time.Second)
	return client
}

// lookupForm resolves the form named by args, falling back to the configured default
func lookupForm(reg *config.Registry, args []string) (*wizard.Catalog, *wizard.Definition, error) {
	catalog, err := reg.Catalog()
	if err != nil {
		return nil, nil, err
	}

	id := reg.Preferences.DefaultForm
	if len(args) > 0 {
		id = args[0]
	}
	def, ok := catalog.Lookup(id)
	if !ok {
		return nil, nil, fmt.Errorf("unknown form %q (see 'formwizard forms')", id)
	}
	return catalog, def, nil
}

// signalContext returns a context canceled on Ctrl+C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// wizardCmd launches the interactive TUI
var wizardCmd = &cobra.Command{
	Use:   "wizard [form-id]",
	Short: "Fill in a form in the interactive wizard",
	Long: `Launch the full-screen wizard.

Without a form ID the configured default form (registration unless changed)
opens directly. Press esc on the first step to pick another form from the
list, or 'r' there to browse stored records.

With --send every accepted submission is stored in the record store.`,
	Example: `  # Open the default form
  formwizard wizard
  # Or simply (wizard is default):
  formwizard

  # Fill in the skills list and store the result
  formwizard wizard skills --send`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().BoolVar(&sendRecord, "send", false, "Store the accepted submission as a record")
}

func runWizard(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the wizard needs an interactive terminal (use 'formwizard submit' for scripted input)")
	}

	reg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, def, err := lookupForm(reg, args)
	if err != nil {
		return err
	}

	model, err := tui.NewAppModel(tui.Options{
		Catalog: catalog,
		Form:    def.ID,
		Records: newRecordsClient(reg),
		Send:    sendRecord,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}
	return nil
}

// promptCmd runs a form as a sequence of line prompts
var promptCmd = &cobra.Command{
	Use:   "prompt [form-id]",
	Short: "Fill in a form with line-by-line prompts",
	Long: `Ask for every field of a form on the command line.

Fields of the current group are asked in order. When a group cannot be left
because of invalid fields, the errors are printed and only those fields are
asked again. At the last group you can submit, go back, or edit it again.

Suited to terminals where the full-screen wizard is not available.`,
	Example: `  # Registration with line prompts
  formwizard prompt registration

  # Store the result and print it as JSON
  formwizard prompt reactive-user --send --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().BoolVar(&sendRecord, "send", false, "Store the accepted submission as a record")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("prompts need an interactive terminal (use 'formwizard submit' for scripted input)")
	}

	reg, err := loadConfig()
	if err != nil {
		return err
	}
	_, def, err := lookupForm(reg, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(nil)
	printer.PrintHeader(def.Title, "prompt", map[string]string{"Form": def.ID, "Kind": string(def.Kind)})

	values, err := prompt.New(prompt.WithOutput(os.Stdout)).RunDefinition(ctx, def)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			printer.Println(ui.StepPendingStyle.Render("  Cancelled."))
			return nil
		}
		return err
	}

	sub, err := newSubmission(def, values)
	if err != nil {
		return err
	}
	return report(cmd.Context(), reg, def, sub)
}

// formsCmd lists the available form definitions
var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "List available forms",
	Long: `List the built-in forms plus the forms defined in the config file.

A configured form with the same ID as a built-in replaces it.`,
	Args: cobra.NoArgs,
	RunE: runForms,
}

func runForms(cmd *cobra.Command, args []string) error {
	reg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := reg.Catalog()
	if err != nil {
		return err
	}
	defs := catalog.List()

	switch outputFormat {
	case "json":
		return printJSON(defs)
	case "compact":
		for _, def := range defs {
			fmt.Printf("%-16s %-7s %s\n", def.ID, def.Kind, def.Title)
		}
	default:
		printer := ui.NewPrinter(nil)
		details := make([]ui.Detail, 0, len(defs))
		for _, def := range defs {
			details = append(details, ui.Detail{
				Key:   def.ID,
				Value: fmt.Sprintf("%s (%s, %d steps, %d fields)", def.Title, def.Kind, len(def.Groups), def.FieldCount()),
			})
		}
		printer.PrintSuccess(fmt.Sprintf("%d forms available", len(defs)), details...)
	}
	return nil
}

// scanCmd discovers formwizard servers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for formwizard servers on the network",
	Long: `Scan for formwizard servers using mDNS/DNS-SD discovery.

Servers started with advertising enabled announce themselves as
_formwizard._tcp. Each one found is listed with its address and metadata.`,
	Example: `  # Scan using the configured timeout
  formwizard scan

  # Quick 2-second scan
  formwizard scan --timeout 2`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default: preferences.scan_timeout)")
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := loadConfig()
	if err != nil {
		return err
	}
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = reg.Preferences.ScanTimeout
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
	defer cancel()

	if outputFormat != "json" {
		fmt.Printf("Scanning for formwizard servers (timeout: %ds)...\n\n", timeout)
	}

	servers, err := discovery.NewScanner().Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	logging.Debug("scan finished", zap.Int("servers", len(servers)))

	if outputFormat == "json" {
		return printJSON(servers)
	}

	if len(servers) == 0 {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure formwizard-server is running with --advertise")
		fmt.Println("  - Check that multicast traffic is allowed on this network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d server(s):\n\n", len(servers))
	for i, s := range servers {
		if outputFormat == "compact" {
			fmt.Printf("%d. %s\n", i+1, s)
			continue
		}
		fmt.Printf("%d. %s\n", i+1, s.Instance)
		fmt.Printf("   Host:    %s\n", s.Hostname)
		fmt.Printf("   URL:     %s\n", s.BaseURL())
		if len(s.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", s.Metadata)
		}
		fmt.Println()
	}
	return nil
}

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with default settings and an example
custom form. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig(overwriteConf)
		if err != nil {
			return err
		}
		ui.NewPrinter(nil).PrintSuccess("Configuration written", ui.Detail{Key: "Path", Value: path})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration as YAML after environment overrides are
applied. The server token is never printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		shown := *reg
		server := *reg.Server
		if server.Token != "" {
			server.Token = "********"
		}
		shown.Server = &server

		data, err := yaml.Marshal(shown)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Printf("# %s\n%s", path, strings.TrimLeft(string(data), "\n"))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&overwriteConf, "force", false, "Replace an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
