package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/ui"
)

var assumeYes bool

func init() {
	rootCmd.AddCommand(helloCmd)
	rootCmd.AddCommand(recordsCmd)

	recordsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	recordsCmd.AddCommand(recordsCreateCmd)
	recordsCmd.AddCommand(recordsUpdateCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}

// helloCmd greets the user with the stored records
var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Show the records in the record store",
	Long: `Connect to the record store and list every stored record.

Equivalent to 'formwizard records list'.`,
	Args: cobra.NoArgs,
	RunE: runRecordsList,
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage records in the record store",
	Long: `List, inspect, create, update and delete records in the record store.

The store is configured with api.base_url in the config file, the
FORMWIZARD_API_URL environment variable or the --api-url flag.`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
	Args:  cobra.NoArgs,
	RunE:  runRecordsList,
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := recordsClient()
		if err != nil {
			return err
		}
		rec, err := client.Get(cmd.Context(), args[0])
		if err != nil {
			return recordsFailed("get record", err)
		}
		return printRecords(rec)
	},
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create <name> [key=value...]",
	Short: "Create a record",
	Example: `  formwizard records create "Ada" city=London skills=go`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordFromArgs("", args)
		if err != nil {
			return err
		}
		client, err := recordsClient()
		if err != nil {
			return err
		}
		created, err := client.Create(cmd.Context(), rec)
		if err != nil {
			return recordsFailed("create record", err)
		}
		return printRecords(created)
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <id> <name> [key=value...]",
	Short: "Replace a record",
	Long: `Replace the name and data of an existing record.

Data keys not given on the command line are removed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordFromArgs(args[0], args[1:])
		if err != nil {
			return err
		}
		client, err := recordsClient()
		if err != nil {
			return err
		}
		updated, err := client.Update(cmd.Context(), rec)
		if err != nil {
			return recordsFailed("update record", err)
		}
		return printRecords(updated)
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := recordsClient()
		if err != nil {
			return err
		}

		printer := ui.NewPrinter(nil)
		if !assumeYes {
			warnings := []string{
				fmt.Sprintf("Record %s will be removed from %s", args[0], client.BaseURL),
				"This cannot be undone",
			}
			if !printer.Confirm(os.Stdin, "Delete record", warnings, "delete") {
				return nil
			}
		}

		msg, err := client.Delete(cmd.Context(), args[0])
		if err != nil {
			return recordsFailed("delete record", err)
		}
		if msg == "" {
			msg = "Record " + args[0] + " deleted"
		}
		if outputFormat == "json" {
			return printJSON(map[string]string{"id": args[0], "message": msg})
		}
		printer.PrintSuccess(msg)
		return nil
	},
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	client, err := recordsClient()
	if err != nil {
		return err
	}
	list, err := client.List(cmd.Context())
	if err != nil {
		return recordsFailed("list records", err)
	}

	if outputFormat == "json" {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No records stored yet.")
		return nil
	}

	fmt.Printf("Found %d record(s):\n\n", len(list))
	out := make([]*records.Record, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return printRecords(out...)
}

func recordsClient() (*records.Client, error) {
	reg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newRecordsClient(reg), nil
}

// recordFromArgs builds a record from a name followed by key=value pairs
func recordFromArgs(id string, args []string) (*records.Record, error) {
	rec := &records.Record{ID: id, Name: records.Sanitize(args[0]), Data: make(map[string]any)}
	for _, arg := range args[1:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid data %q (expected key=value)", arg)
		}
		rec.Data[k] = records.Sanitize(v)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func printRecords(recs ...*records.Record) error {
	switch outputFormat {
	case "json":
		if len(recs) == 1 {
			return printJSON(recs[0])
		}
		return printJSON(recs)
	case "compact":
		for _, r := range recs {
			fmt.Println(r.FormatCompact())
		}
	default:
		for _, r := range recs {
			fmt.Println(r.FormatDetailed())
		}
	}
	return nil
}

// recordsFailed prints a troubleshooting box for a record store error
func recordsFailed(action string, err error) error {
	if outputFormat != "json" {
		ui.NewPrinter(nil).PrintError(records.GetShortErrorMessage(err), err, ui.SplitHint(records.GetTroubleshootingHint(err)))
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
