package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/muurk/formwizard/internal/ui"
	"github.com/muurk/formwizard/internal/wizard"
)

// Choices offered once the last group is valid
const (
	ChoiceSubmit = iota
	ChoiceBack
	ChoiceEdit
)

var finalChoices = []string{"Submit", "Back", "Edit"}

// Option configures a Runner
type Option func(*Runner)

// WithPromptDriver overrides the survey driver
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where progress and errors are printed
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.printer = ui.NewPrinter(w)
	}
}

// Runner fills forms one prompt at a time
type Runner struct {
	driver  PromptDriver
	printer *ui.Printer
}

// New creates a runner using survey on stdio unless overridden
func New(options ...Option) *Runner {
	r := &Runner{
		driver:  NewSurveyDriver(),
		printer: ui.NewPrinter(nil),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run walks the wizard group by group until it is submitted.
//
// Each field of the current group is prompted, then an advance is attempted;
// when it is blocked the errors are printed and only the invalid fields are
// asked again. On the last group the user picks Submit, Back or Edit.
func (r *Runner) Run(ctx context.Context, w *wizard.Wizard) (wizard.Values, error) {
	fields := allFields
	for {
		if w.Len() > 1 {
			r.printer.PrintProgress(w)
			r.printer.Newline()
		}
		if err := r.askGroup(ctx, w, fields); err != nil {
			return nil, err
		}
		fields = allFields

		if !w.IsLast() {
			if !w.Advance() {
				r.printer.PrintGroupErrors(w.CurrentGroup())
				fields = invalidFields
			}
			continue
		}

		// Touches the group so its errors print
		if !w.CurrentGroup().Valid {
			w.Advance()
			r.printer.PrintGroupErrors(w.CurrentGroup())
			fields = invalidFields
			continue
		}

		for {
			choice, err := r.driver.Select(ctx, SelectConfig{
				Message: "Ready to submit " + w.ID() + "?",
				Options: finalChoices,
			})
			if err != nil {
				return nil, err
			}

			switch choice {
			case ChoiceSubmit:
				if values, ok := w.Submit(); ok {
					return values, nil
				}
				r.printer.PrintWarning("Some steps are incomplete")
				continue
			case ChoiceBack:
				w.Retreat()
			}
			break
		}
	}
}

// RunForm prompts a single-page form until it submits
func (r *Runner) RunForm(ctx context.Context, f *wizard.Form) (map[string]string, error) {
	fields := allFields
	for {
		if err := r.askGroup(ctx, f.Wizard(), fields); err != nil {
			return nil, err
		}
		if values, ok := f.Submit(); ok {
			return values, nil
		}
		r.printer.PrintWarning("Form is invalid!")
		r.printer.PrintGroupErrors(f.Group())
		fields = invalidFields
	}
}

// Menu entries for list forms
const (
	listAdd = iota
	listRemove
	listSubmit
)

// RunList prompts the head fields, then lets the user add and remove
// entries until the form submits.
func (r *Runner) RunList(ctx context.Context, f *wizard.ListForm) (map[string]any, error) {
	head := f.Head().Wizard()
	list := f.List()

	if err := r.askGroup(ctx, head, allFields); err != nil {
		return nil, err
	}

	for {
		options := []string{"Add " + strings.ToLower(list.EntryLabel), "Remove " + strings.ToLower(list.EntryLabel), "Submit"}
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s (%d)", list.Label, list.Len()),
			Options:      options,
			DefaultIndex: listSubmit,
		})
		if err != nil {
			return nil, err
		}

		switch choice {
		case listAdd:
			i := list.AddEntry()
			if err := r.askEntry(ctx, list, i); err != nil {
				return nil, err
			}

		case listRemove:
			if err := r.removeEntry(ctx, list); err != nil {
				return nil, err
			}

		case listSubmit:
			if values, ok := f.Submit(); ok {
				return values, nil
			}
			r.printer.PrintWarning("Form is invalid!")
			if err := r.fixList(ctx, f); err != nil {
				return nil, err
			}
		}
	}
}

// RunDefinition builds def and runs it with the matching loop. Values are
// keyed by group for wizards and by field for single-page and list forms.
func (r *Runner) RunDefinition(ctx context.Context, def *wizard.Definition) (map[string]any, error) {
	switch def.Kind {
	case wizard.KindForm:
		f, err := def.BuildForm()
		if err != nil {
			return nil, err
		}
		values, err := r.RunForm(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(values))
		for k, v := range values {
			out[k] = v
		}
		return out, nil

	case wizard.KindList:
		f, err := def.BuildList()
		if err != nil {
			return nil, err
		}
		return r.RunList(ctx, f)

	default:
		w, err := def.Build()
		if err != nil {
			return nil, err
		}
		values, err := r.Run(ctx, w)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(values))
		for g, v := range values {
			out[g] = v
		}
		return out, nil
	}
}

type fieldFilter func(wizard.Field) bool

func allFields(wizard.Field) bool { return true }

func invalidFields(f wizard.Field) bool { return !f.Valid }

// askGroup prompts the selected fields of the current group in order
func (r *Runner) askGroup(ctx context.Context, w *wizard.Wizard, include fieldFilter) error {
	g := w.CurrentGroup()
	if w.Len() > 1 {
		r.printer.Println(ui.ProgressLabelStyle.Render(g.Title))
	}
	for _, f := range g.Fields {
		if !include(f) {
			continue
		}
		value, err := r.ask(ctx, f)
		if err != nil {
			return err
		}
		if err := w.SetFieldValue(g.Name, f.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) askEntry(ctx context.Context, list *wizard.FieldList, i int) error {
	entry, _ := list.Entry(i)
	value, err := r.ask(ctx, entry)
	if err != nil {
		return err
	}
	return list.SetEntry(i, value)
}

func (r *Runner) removeEntry(ctx context.Context, list *wizard.FieldList) error {
	if list.Len() == 0 {
		r.printer.Println("  Nothing to remove")
		return nil
	}

	entries := list.Entries()
	options := make([]string, len(entries))
	for i, e := range entries {
		options[i] = fmt.Sprintf("%s: %s", e.Label, e.Value)
	}
	i, err := r.driver.Select(ctx, SelectConfig{Message: "Remove which?", Options: options})
	if err != nil {
		return err
	}
	if i < 0 {
		return nil
	}
	return list.RemoveEntry(i)
}

// fixList prints the errors of a rejected list form and asks again for every
// invalid head field and entry
func (r *Runner) fixList(ctx context.Context, f *wizard.ListForm) error {
	head := f.Head().Wizard()
	r.printer.PrintGroupErrors(head.CurrentGroup())
	if err := r.askGroup(ctx, head, invalidFields); err != nil {
		return err
	}

	list := f.List()
	for i, e := range list.Entries() {
		if e.Valid {
			continue
		}
		r.printer.Println(ui.ErrorMessageStyle.Render("  " + ui.FailureMarker + " " + wizard.ErrorMessage(e)))
		if err := r.askEntry(ctx, list, i); err != nil {
			return err
		}
	}
	return nil
}

// ask prompts one field. A blank password answer keeps the value already
// entered, so Back and Edit do not force retyping secrets.
func (r *Runner) ask(ctx context.Context, f wizard.Field) (string, error) {
	cfg := InputConfig{
		Message: f.Label + ":",
		Default: f.Value,
		Help:    fieldHelp(f),
	}

	if f.Type != wizard.FieldPassword {
		return r.driver.Input(ctx, cfg)
	}

	cfg.Default = ""
	value, err := r.driver.Password(ctx, cfg)
	if err != nil {
		return "", err
	}
	if value == "" {
		return f.Value, nil
	}
	return value, nil
}

// fieldHelp describes the field's validator chain
func fieldHelp(f wizard.Field) string {
	var parts []string
	for _, v := range f.Validators() {
		switch v := v.(type) {
		case wizard.Required:
			parts = append(parts, "required")
		case wizard.Email:
			parts = append(parts, "an email address")
		case wizard.MinLength:
			parts = append(parts, fmt.Sprintf("at least %d characters", v.N))
		}
	}
	if f.Type == wizard.FieldPassword {
		parts = append(parts, "leave blank to keep the current value")
	}
	return strings.Join(parts, ", ")
}
