package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/formwizard/internal/config"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/ui"
	"github.com/muurk/formwizard/internal/wizard"
)

// submitCmd fills a form from a values file without prompting
var submitCmd = &cobra.Command{
	Use:   "submit <form-id>",
	Short: "Fill in and submit a form from a YAML file",
	Long: `Fill in a form from a YAML values file and submit it.

The wizard advances through the groups in order, stopping at the first group
that is not valid. The values file is keyed by group, then field, for
multi-step forms:

  personal:
    name: Ada
    email: ada@example.com

Single-page forms take field values at the top level. List forms take the
head fields plus a sequence under the list name:

  name: Ada
  skills: [go, sql]

Exits non-zero when the form is rejected.`,
	Example: `  # Submit the registration wizard
  formwizard submit registration --values registration.yaml

  # Submit the skills list and store it as a record
  formwizard submit skills --values skills.yaml --send`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&valuesFile, "values", "f", "", "YAML file with the field values (required)")
	submitCmd.Flags().BoolVar(&sendRecord, "send", false, "Store the accepted submission as a record")
	_ = submitCmd.MarkFlagRequired("values")

	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	reg, err := loadConfig()
	if err != nil {
		return err
	}
	_, def, err := lookupForm(reg, args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(valuesFile)
	if err != nil {
		return fmt.Errorf("failed to read values file: %w", err)
	}
	raw, err := decodeValues(data)
	if err != nil {
		return fmt.Errorf("failed to parse values file: %w", err)
	}

	values, problems, err := fill(def, raw)
	if err != nil {
		return err
	}
	if problems != nil {
		reportRejected(def, problems)
		return fmt.Errorf("form %q was rejected", def.ID)
	}

	sub, err := newSubmission(def, values)
	if err != nil {
		return err
	}
	return report(cmd.Context(), reg, def, sub)
}

// fill builds def, sets every value from raw and submits. Values are shaped
// like the prompt renderer's results. When the submit is rejected the
// messages of the offending fields are returned instead; problems is nil
// exactly when the submit was accepted.
func fill(def *wizard.Definition, raw map[string]any) (map[string]any, []string, error) {
	switch def.Kind {
	case wizard.KindForm:
		return fillForm(def, raw)
	case wizard.KindList:
		return fillList(def, raw)
	default:
		return fillWizard(def, raw)
	}
}

func fillWizard(def *wizard.Definition, raw map[string]any) (map[string]any, []string, error) {
	w, err := def.Build()
	if err != nil {
		return nil, nil, err
	}

	for _, group := range sortedKeys(raw) {
		fields, ok := raw[group].(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("values for group %q must be a mapping", group)
		}
		for _, field := range sortedKeys(fields) {
			if err := w.SetFieldValue(group, field, scalar(fields[field])); err != nil {
				return nil, nil, err
			}
		}
	}

	for w.Advance() {
	}
	if !w.IsLast() {
		g := w.CurrentGroup()
		return nil, withGroup(g.Title, g.Errors()), nil
	}

	values, ok := w.Submit()
	if !ok {
		w.Touch()
		g := w.CurrentGroup()
		return nil, withGroup(g.Title, g.Errors()), nil
	}

	out := make(map[string]any, len(values))
	for g, v := range values {
		out[g] = v
	}
	return out, nil, nil
}

func fillForm(def *wizard.Definition, raw map[string]any) (map[string]any, []string, error) {
	f, err := def.BuildForm()
	if err != nil {
		return nil, nil, err
	}
	for _, field := range sortedKeys(raw) {
		if err := f.SetFieldValue(field, scalar(raw[field])); err != nil {
			return nil, nil, err
		}
	}

	values, ok := f.Submit()
	if !ok {
		return nil, f.Group().Errors(), nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil, nil
}

func fillList(def *wizard.Definition, raw map[string]any) (map[string]any, []string, error) {
	f, err := def.BuildList()
	if err != nil {
		return nil, nil, err
	}
	list := f.List()

	for _, key := range sortedKeys(raw) {
		if key != list.Name {
			if err := f.Head().SetFieldValue(key, scalar(raw[key])); err != nil {
				return nil, nil, err
			}
			continue
		}

		entries, ok := raw[key].([]any)
		if !ok && raw[key] != nil {
			return nil, nil, fmt.Errorf("values for list %q must be a sequence", key)
		}
		for _, e := range entries {
			if err := list.SetEntry(list.AddEntry(), scalar(e)); err != nil {
				return nil, nil, err
			}
		}
	}

	values, ok := f.Submit()
	if !ok {
		problems := f.Head().Group().Errors()
		for _, e := range list.Entries() {
			if e.ShowError() {
				problems = append(problems, wizard.ErrorMessage(e))
			}
		}
		return nil, problems, nil
	}
	return values, nil, nil
}

// decodeValues parses a values file keeping every scalar exactly as written,
// so 01500 stays "01500" instead of becoming the integer 832.
// Mappings decode to map[string]any, sequences to []any and nulls to nil.
func decodeValues(data []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	switch v := nodeValue(&doc).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("top level must be a mapping, got %T", v)
	}
}

func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			out[i] = nodeValue(c)
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		explicit := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.ShortTag() == "!!merge" {
				mergeInto(out, nodeValue(val))
				continue
			}
			explicit[key.Value] = nodeValue(val)
		}
		for k, v := range explicit {
			out[k] = v
		}
		return out
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// mergeInto applies a << merge value: a mapping or a sequence of mappings
func mergeInto(dst map[string]any, v any) {
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			dst[k] = val
		}
	case []any:
		// earlier mappings in the sequence take precedence
		for i := len(m) - 1; i >= 0; i-- {
			mergeInto(dst, m[i])
		}
	}
}

// scalar renders a decoded value as field text
func scalar(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withGroup(title string, messages []string) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = title + ": " + m
	}
	return out
}

// submission is an accepted form ready for output
type submission struct {
	Form    string          `json:"form"`
	Values  map[string]any  `json:"values"` // password fields masked
	Record  *records.Record `json:"record,omitempty"`
	details []ui.Detail
}

// newSubmission converts accepted values into printable details and a record.
// Password fields are masked for output and dropped from the record.
func newSubmission(def *wizard.Definition, values map[string]any) (*submission, error) {
	secret := secretFields(def)
	sub := &submission{Form: def.ID, Values: make(map[string]any, len(values))}

	switch def.Kind {
	case wizard.KindList:
		for k, v := range values {
			sub.Values[k] = v
		}
		sub.details = ui.MapDetails(sub.Values)
		sub.Record = records.FromList(def.Title, values)

	case wizard.KindForm:
		gd := def.Groups[0]
		fields := make(map[string]string, len(values))
		for k, v := range values {
			fields[k] = scalar(v)
			if secret[gd.Name+"."+k] {
				sub.Values[k] = mask(fields[k])
			} else {
				sub.Values[k] = fields[k]
			}
		}
		sub.details = ui.MapDetails(sub.Values)
		sub.Record = records.FromSubmission(def.Title, wizard.Values{gd.Name: fields}, secretList(secret))

	default:
		grouped := make(wizard.Values, len(values))
		for _, gd := range def.Groups {
			fields, ok := values[gd.Name].(map[string]string)
			if !ok {
				return nil, fmt.Errorf("missing values for group %q", gd.Name)
			}
			grouped[gd.Name] = fields

			shown := make(map[string]string, len(fields))
			for _, fd := range gd.Fields {
				key := gd.Name + "." + fd.Name
				v := fields[fd.Name]
				if secret[key] {
					v = mask(v)
				}
				shown[fd.Name] = v
				sub.details = append(sub.details, ui.Detail{Key: key, Value: v})
			}
			sub.Values[gd.Name] = shown
		}
		sub.Record = records.FromSubmission(def.Title, grouped, secretList(secret))
	}
	return sub, nil
}

// secretFields returns the group-qualified names of password fields
func secretFields(def *wizard.Definition) map[string]bool {
	secret := make(map[string]bool)
	for _, gd := range def.Groups {
		for _, fd := range gd.Fields {
			if fd.Type == wizard.FieldPassword {
				secret[gd.Name+"."+fd.Name] = true
			}
		}
	}
	return secret
}

func secretList(secret map[string]bool) []string {
	return sortedKeys(secret)
}

func mask(v string) string {
	return strings.Repeat("•", len([]rune(v)))
}

// report prints an accepted submission, storing it first when --send is set
func report(ctx context.Context, reg *config.Registry, def *wizard.Definition, sub *submission) error {
	printer := ui.NewPrinter(nil)

	if sendRecord {
		created, err := newRecordsClient(reg).Create(ctx, sub.Record)
		if err != nil {
			return recordsFailed("store submission", err)
		}
		sub.Record = created
	} else {
		sub.Record = nil
	}

	switch outputFormat {
	case "json":
		return printJSON(sub)
	case "compact":
		for _, d := range sub.details {
			fmt.Printf("%s=%s\n", d.Key, d.Value)
		}
		if sub.Record != nil {
			fmt.Printf("record=%s\n", sub.Record.ID)
		}
	default:
		details := sub.details
		if sub.Record != nil {
			details = append(details, ui.Detail{Key: "Record", Value: sub.Record.ID})
		}
		printer.PrintSuccess(def.Title+" submitted", details...)
	}
	return nil
}

// reportRejected prints the messages of the fields that blocked a submit
func reportRejected(def *wizard.Definition, problems []string) {
	if outputFormat == "json" {
		_ = printJSON(map[string]any{"form": def.ID, "accepted": false, "errors": problems})
		return
	}

	box := ui.NewWarningResult(def.Title + " rejected")
	for _, p := range problems {
		box.AddDetail(ui.FailureMarker, p)
	}
	ui.NewPrinter(nil).Println(box.Render())
}
