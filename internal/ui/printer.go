package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/muurk/formwizard/internal/wizard"
)

// Printer writes UI components to a writer at a fixed width
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintProgress prints the wizard's step list
func (p *Printer) PrintProgress(w *wizard.Wizard) {
	p.Println(NewProgress(w).SetWidth(p.width).Render())
}

// PrintGroupErrors prints the messages for touched invalid fields of g
func (p *Printer) PrintGroupErrors(g wizard.Group) {
	for _, msg := range g.Errors() {
		p.Println(ErrorMessageStyle.Render("  " + FailureMarker + " " + msg))
	}
}

// ValueDetails flattens submitted values into result details in group order,
// masking password fields.
func ValueDetails(w *wizard.Wizard, values wizard.Values) []Detail {
	secret := make(map[string]bool)
	for _, s := range w.Secrets() {
		secret[s] = true
	}

	var details []Detail
	for _, g := range w.Groups() {
		for _, f := range g.Fields {
			key := g.Name + "." + f.Name
			v := values[g.Name][f.Name]
			if secret[key] {
				v = strings.Repeat("•", len([]rune(v)))
			}
			details = append(details, Detail{Key: key, Value: v})
		}
	}
	return details
}

// MapDetails turns an unordered map into details sorted by key
func MapDetails(m map[string]any) []Detail {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]Detail, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if list, ok := v.([]string); ok {
			v = strings.Join(list, ", ")
		}
		details = append(details, Detail{Key: k, Value: fmt.Sprint(v)})
	}
	return details
}
