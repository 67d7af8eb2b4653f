package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/formwizard/internal/wizard"
)

// StepStatus represents the state of one wizard group
type StepStatus int

const (
	StepPending  StepStatus = iota // Not reached yet
	StepCurrent                    // Active group
	StepComplete                   // Valid
	StepFailed                     // Touched and invalid
)

// Step is one line of the progress display
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g., "2 errors"
}

// Progress renders a wizard's groups as a step list with a progress bar
type Progress struct {
	Label   string
	Steps   []Step
	Current int     // 1-based
	Percent float64 // share of valid groups
	Width   int
	ShowBar bool
	bar     progress.Model
}

// NewProgress builds a progress display from the wizard's current state.
// Groups before the current one are complete when valid and failed
// otherwise; later groups are pending unless already valid.
func NewProgress(w *wizard.Wizard) *Progress {
	groups := w.Groups()
	steps := make([]Step, len(groups))
	valid := 0

	for i, g := range groups {
		step := Step{Number: i + 1, Name: g.Title}
		if g.Valid {
			valid++
		}

		switch {
		case i == w.CurrentIndex() && !g.Valid && len(g.Errors()) > 0:
			step.Status = StepFailed
		case i == w.CurrentIndex():
			step.Status = StepCurrent
		case g.Valid:
			step.Status = StepComplete
		case i < w.CurrentIndex():
			step.Status = StepFailed
		default:
			step.Status = StepPending
		}

		if n := len(g.Errors()); n > 0 {
			step.Message = fmt.Sprintf("%d %s", n, plural(n, "error", "errors"))
		}
		steps[i] = step
	}

	p := &Progress{
		Label:   fmt.Sprintf("Step %d/%d", w.CurrentIndex()+1, w.Len()),
		Steps:   steps,
		Current: w.CurrentIndex() + 1,
		Percent: float64(valid) / float64(len(groups)),
		ShowBar: true,
	}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return p
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	if p.ShowBar {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
			fmt.Sprintf("%s  %3.0f%%", p.bar.ViewAs(p.Percent), p.Percent*100)))
		b.WriteString("\n\n")
	}

	lines := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		lines[i] = p.renderStep(s)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (p *Progress) renderStep(step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepCurrent:
		marker, style = StepMarkerCurrent, StepCurrentStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, len(p.Steps))
	b.WriteString(style.Render(step.Name))

	padding := 30 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
