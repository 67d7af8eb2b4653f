// Formwizard-server serves form wizard sessions over HTTP and websockets.
//
// Clients create a session for a form, set field values, advance, retreat
// and submit through a JSON API. Every change is pushed to websocket
// subscribers as a snapshot of the session. Accepted submissions can be
// stored in the record store, and the server can announce itself over mDNS.
//
// Usage:
//
//	formwizard-server server [flags]
//
// See 'formwizard-server server --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/formwizard/internal/config"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/server"
	"github.com/muurk/formwizard/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "formwizard-server",
	Short: "Formwizard session server",
	Long: `A JSON and websocket API over form wizard sessions.

For filling in forms from a terminal, use the separate 'formwizard' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	host        string
	port        int
	token       string
	sessionTTL  time.Duration
	advertise   bool
	instance    string
	defaultForm string
	apiURL      string
	noRecords   bool
	logLevel    string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the session server",
	Long: `Start the formwizard session server.

Settings come from the config file and FORMWIZARD_* environment variables;
flags given on the command line take precedence over both.

When a token is set, GET /api/records requires "Authorization: Bearer <token>".
Prefer FORMWIZARD_TOKEN over --token so the token stays out of the process list.`,
	Example: `  # Start with the configured settings
  formwizard-server server

  # Listen on localhost only, with debug logging
  formwizard-server server --host 127.0.0.1 --port 9090 --log-level debug

  # Expire idle sessions after five minutes and skip mDNS
  formwizard-server server --session-ttl 5m --advertise=false`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&host, "host", "", "Listen host (default: server.host)")
	serverCmd.Flags().IntVar(&port, "port", 0, "Listen port (default: server.port)")
	serverCmd.Flags().StringVar(&token, "token", "", "Bearer token guarding /api/records")
	serverCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 0, "Idle session lifetime, 0 keeps sessions forever (default: server.session_ttl_seconds)")
	serverCmd.Flags().BoolVar(&advertise, "advertise", true, "Announce the server over mDNS (default: server.advertise)")
	serverCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: hostname)")
	serverCmd.Flags().StringVar(&defaultForm, "default-form", "", "Form used when a session request names none (default: preferences.default_form)")
	serverCmd.Flags().StringVar(&apiURL, "api-url", "", "Record store URL (default: api.base_url)")
	serverCmd.Flags().BoolVar(&noRecords, "no-records", false, "Do not store submissions or proxy /api/records")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := serverConfig(cmd, reg)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(context.Background())
}

// serverConfig merges the registry with the flags that were set explicitly
func serverConfig(cmd *cobra.Command, reg *config.Registry) (*server.Config, error) {
	catalog, err := reg.Catalog()
	if err != nil {
		return nil, err
	}

	cfg := &server.Config{
		Host:        reg.Server.Host,
		Port:        reg.Server.Port,
		Token:       reg.Server.Token,
		SessionTTL:  reg.SessionTTL(),
		DefaultForm: reg.Preferences.DefaultForm,
		Advertise:   reg.Server.Advertise,
		Instance:    instance,
		LogLevel:    logLevel,
		Catalog:     catalog,
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = host
	}
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("token") {
		cfg.Token = token
	}
	if flags.Changed("session-ttl") {
		cfg.SessionTTL = sessionTTL
	}
	if flags.Changed("advertise") {
		cfg.Advertise = advertise
	}
	if flags.Changed("default-form") {
		cfg.DefaultForm = defaultForm
	}
	if !flags.Changed("log-level") && reg.Preferences.LogLevel != "" {
		cfg.LogLevel = reg.Preferences.LogLevel
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if !noRecords {
		base := reg.API.BaseURL
		if flags.Changed("api-url") {
			base = apiURL
		}
		client := records.NewClient(base)
		client.SetTimeout(reg.APITimeout())
		client.SetRetry(reg.API.Retries, time.Second)
		cfg.Records = client
	}

	return cfg, nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("formwizard-server %s\n", version.Full())
	},
}
