package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/ui"
	"github.com/muurk/formwizard/internal/wizard"
)

// Status messages shown under the fields
const (
	msgBlocked     = "Fix the highlighted fields to continue"
	msgFormInvalid = "Form is invalid!"
)

// stepKeyMap defines key bindings for the step screen
type stepKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Advance  key.Binding
	Retreat  key.Binding
	Submit   key.Binding
	AddEntry key.Binding
	Remove   key.Binding
	Back     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k stepKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Advance, k.Retreat, k.Submit, k.AddEntry, k.Remove, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k stepKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Advance, k.Retreat, k.Submit},
		{k.AddEntry, k.Remove, k.Back},
	}
}

func newStepKeyMap() stepKeyMap {
	return stepKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Advance: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next step"),
		),
		Retreat: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "previous step"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		AddEntry: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "add entry"),
		),
		Remove: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "remove entry"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// StepModel renders one form: the active group of a wizard, a single-page
// form, or a list form's head fields followed by its entries.
type StepModel struct {
	Def     *wizard.Definition
	Inputs  []textinput.Model // active group fields, then list entries
	Focus   int
	Message string

	// Set once the form is accepted
	Submitted bool
	Values    map[string]any
	Details   []ui.Detail
	Record    *records.Record

	Back bool // user asked to leave the form

	Width  int
	Height int
	Help   help.Model
	Keys   stepKeyMap

	w    *wizard.Wizard
	form *wizard.Form
	list *wizard.ListForm
}

// NewStepModel builds the definition and focuses its first field
func NewStepModel(def *wizard.Definition) (StepModel, error) {
	m := StepModel{
		Def:    def,
		Width:  MinTerminalWidth,
		Height: MinTerminalHeight,
		Help:   help.New(),
		Keys:   newStepKeyMap(),
	}

	var err error
	switch def.Kind {
	case wizard.KindForm:
		if m.form, err = def.BuildForm(); err == nil {
			m.w = m.form.Wizard()
		}
	case wizard.KindList:
		if m.list, err = def.BuildList(); err == nil {
			m.w = m.list.Head().Wizard()
		}
	default:
		m.w, err = def.Build()
	}
	if err != nil {
		return StepModel{}, fmt.Errorf("failed to build form %q: %w", def.ID, err)
	}

	m.syncInputs()
	return m, nil
}

// Wizard returns the controller behind the screen
func (m StepModel) Wizard() *wizard.Wizard {
	return m.w
}

// Init starts the cursor blinking
func (m StepModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m StepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Next):
			m.moveFocus(1)
			return m, nil
		case key.Matches(msg, m.Keys.Prev):
			m.moveFocus(-1)
			return m, nil
		case key.Matches(msg, m.Keys.Advance):
			return m.advance(), nil
		case key.Matches(msg, m.Keys.Retreat):
			return m.retreat(), nil
		case key.Matches(msg, m.Keys.Submit):
			return m.submit(), nil
		case key.Matches(msg, m.Keys.AddEntry):
			return m.addEntry(), nil
		case key.Matches(msg, m.Keys.Remove):
			return m.removeEntry(), nil
		case key.Matches(msg, m.Keys.Back):
			m.Back = true
			return m, nil
		}
	}

	if len(m.Inputs) == 0 {
		return m, nil
	}

	var cmd tea.Cmd
	before := m.Inputs[m.Focus].Value()
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	if m.Inputs[m.Focus].Value() != before {
		m.commit(m.Focus)
		m.Message = ""
		m.updateKeys()
	}
	return m, cmd
}

func (m *StepModel) moveFocus(delta int) {
	if len(m.Inputs) == 0 {
		return
	}
	m.Focus = (m.Focus + delta + len(m.Inputs)) % len(m.Inputs)
	m.focusInput()
}

func (m StepModel) advance() StepModel {
	if m.w.Advance() {
		m.Focus = 0
		m.Message = ""
	} else if !m.w.CurrentGroup().Valid {
		m.Message = msgBlocked
	}
	m.syncInputs()
	return m
}

func (m StepModel) retreat() StepModel {
	if m.w.Retreat() {
		m.Focus = 0
		m.Message = ""
		m.syncInputs()
	}
	return m
}

// submit accepts the form when valid. A rejected wizard submit changes
// nothing; single-page and list forms mark their fields touched.
func (m StepModel) submit() StepModel {
	switch {
	case m.list != nil:
		values, ok := m.list.Submit()
		if !ok {
			m.Message = msgFormInvalid
			break
		}
		m.accept(values, ui.MapDetails(values), records.FromList(m.Def.Title, values))

	case m.form != nil:
		values, ok := m.form.Submit()
		if !ok {
			m.Message = msgFormInvalid
			break
		}
		all := wizard.Values{m.form.Group().Name: values}
		out := make(map[string]any, len(values))
		for k, v := range values {
			out[k] = v
		}
		m.accept(out, ui.ValueDetails(m.w, all), records.FromSubmission(m.Def.Title, all, m.w.Secrets()))

	default:
		values, ok := m.w.Submit()
		if !ok {
			return m
		}
		out := make(map[string]any, len(values))
		for g, v := range values {
			out[g] = v
		}
		m.accept(out, ui.ValueDetails(m.w, values), records.FromSubmission(m.Def.Title, values, m.w.Secrets()))
	}

	m.syncInputs()
	return m
}

func (m *StepModel) accept(values map[string]any, details []ui.Detail, rec *records.Record) {
	m.Submitted = true
	m.Values = values
	m.Details = details
	m.Record = rec
	m.Message = ""
}

func (m StepModel) addEntry() StepModel {
	if m.list == nil {
		return m
	}
	i := m.list.List().AddEntry()
	m.Focus = len(m.w.CurrentGroup().Fields) + i
	m.syncInputs()
	return m
}

func (m StepModel) removeEntry() StepModel {
	if m.list == nil {
		return m
	}
	entry := m.Focus - len(m.w.CurrentGroup().Fields)
	if entry < 0 {
		return m
	}
	if err := m.list.List().RemoveEntry(entry); err != nil {
		logging.Debug("Remove entry ignored", zap.Int("index", entry), zap.Error(err))
		return m
	}
	m.syncInputs()
	return m
}

// commit copies input i into the form and revalidates it
func (m *StepModel) commit(i int) {
	group := m.w.CurrentGroup()
	value := m.Inputs[i].Value()

	var err error
	if i < len(group.Fields) {
		err = m.w.SetFieldValue(group.Name, group.Fields[i].Name, value)
	} else {
		err = m.list.List().SetEntry(i-len(group.Fields), value)
	}
	if err != nil {
		logging.Warn("Failed to set field", zap.String("form", m.Def.ID), zap.Int("input", i), zap.Error(err))
	}
}

// fields returns the models behind Inputs, in the same order
func (m StepModel) fields() []wizard.Field {
	fields := append([]wizard.Field(nil), m.w.CurrentGroup().Fields...)
	if m.list != nil {
		fields = append(fields, m.list.List().Entries()...)
	}
	return fields
}

// syncInputs rebuilds the inputs from the active group and list entries
func (m *StepModel) syncInputs() {
	fields := m.fields()
	m.Inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		m.Inputs[i] = newInput(f)
	}

	if m.Focus >= len(m.Inputs) {
		m.Focus = len(m.Inputs) - 1
	}
	if m.Focus < 0 {
		m.Focus = 0
	}
	m.focusInput()
	m.updateKeys()
}

func (m *StepModel) focusInput() {
	for i := range m.Inputs {
		if i == m.Focus {
			m.Inputs[i].Focus()
		} else {
			m.Inputs[i].Blur()
		}
	}
}

// updateKeys enables the bindings that apply right now
func (m *StepModel) updateKeys() {
	multi := m.Def.Kind == wizard.KindWizard && m.w.Len() > 1
	m.Keys.Advance.SetEnabled(multi && !m.w.IsLast())
	m.Keys.Retreat.SetEnabled(multi && !m.w.IsFirst())

	// A wizard offers submit only once every group is valid
	if m.Def.Kind == wizard.KindWizard {
		m.Keys.Submit.SetEnabled(m.w.Valid())
	} else {
		m.Keys.Submit.SetEnabled(true)
	}

	m.Keys.AddEntry.SetEnabled(m.list != nil)
	m.Keys.Remove.SetEnabled(m.list != nil && m.Focus >= len(m.w.CurrentGroup().Fields))
}

func newInput(f wizard.Field) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = f.Label
	ti.CharLimit = 256
	ti.Width = InputWidth
	if f.Type == wizard.FieldPassword {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.SetValue(f.Value)
	return ti
}

// View renders the step screen
func (m StepModel) View() string {
	return RenderApplicationContainer(m.content(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m StepModel) content() string {
	var b strings.Builder

	b.WriteString(RenderTitle(m.Def.Title))
	b.WriteString("\n")

	if m.Def.Kind == wizard.KindWizard && m.w.Len() > 1 {
		b.WriteString(ui.NewProgress(m.w).SetWidth(m.Width - 6).Render())
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle(m.w.CurrentGroup().Title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fields := m.fields()
	head := len(m.w.CurrentGroup().Fields)
	for i, f := range fields {
		if i == head {
			b.WriteString(RenderSubtitle(m.list.List().Label))
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderField(i, f))
	}
	if m.list != nil && len(fields) == head {
		b.WriteString(RenderSubtitle(m.list.List().Label + ": none yet (ctrl+a to add)"))
		b.WriteString("\n")
	}

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(WarningTextStyle.Render(m.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func (m StepModel) renderField(i int, f wizard.Field) string {
	var b strings.Builder

	label := f.Label
	if f.Required {
		label += " *"
	}
	if i == m.Focus {
		b.WriteString(FocusedLabelStyle.Render("→ " + label))
	} else {
		b.WriteString(BlurredLabelStyle.Render("  " + label))
	}
	b.WriteString("\n  ")
	b.WriteString(m.Inputs[i].View())
	b.WriteString("\n")

	if f.ShowError() {
		b.WriteString(FieldErrorStyle.Render(wizard.ErrorMessage(f)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
