package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/ui"
	"github.com/muurk/formwizard/internal/wizard"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenForms   Screen = "forms"
	ScreenStep    Screen = "step"
	ScreenResult  Screen = "result"
	ScreenRecords Screen = "records"
)

// Options configures the application
type Options struct {
	Catalog *wizard.Catalog
	Form    string        // open this form directly; empty starts on the form list
	Records RecordService // optional record store
	Send    bool          // store every accepted submission as a record
}

// resultKeyMap defines key bindings for the result screen
type resultKeyMap struct {
	Save    key.Binding
	Records key.Binding
	New     key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k resultKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Records, k.New, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k resultKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Save, k.Records, k.New, k.Quit}}
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen  Screen
	PreviousScreen Screen

	Forms   FormsModel
	Step    StepModel
	Records RecordsModel

	// Result state
	Saving  bool
	Saved   *records.Record
	SaveErr error
	Spinner spinner.Model

	Width  int
	Height int

	Help       help.Model
	ResultKeys resultKeyMap

	opts Options
}

// NewAppModel creates the application, starting on opts.Form when set
func NewAppModel(opts Options) (AppModel, error) {
	if opts.Catalog == nil {
		catalog, err := wizard.NewCatalog()
		if err != nil {
			return AppModel{}, err
		}
		opts.Catalog = catalog
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := AppModel{
		CurrentScreen: ScreenForms,
		Forms:         NewFormsModel(opts.Catalog, opts.Records != nil),
		Spinner:       s,
		Width:         MinTerminalWidth,
		Height:        MinTerminalHeight,
		Help:          help.New(),
		ResultKeys: resultKeyMap{
			Save: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "save record"),
			),
			Records: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "records"),
			),
			New: key.NewBinding(
				key.WithKeys("enter", "n"),
				key.WithHelp("enter", "another form"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		opts: opts,
	}

	if opts.Form != "" {
		def, ok := opts.Catalog.Lookup(opts.Form)
		if !ok {
			return AppModel{}, fmt.Errorf("unknown form %q", opts.Form)
		}
		step, err := NewStepModel(def)
		if err != nil {
			return AppModel{}, err
		}
		m.Step = step
		m.CurrentScreen = ScreenStep
	}
	return m, nil
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenStep:
		return m.Step.Init()
	case ScreenRecords:
		return m.Records.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to all screens
		updated, _ := m.Forms.Update(msg)
		m.Forms = updated.(FormsModel)
		m.Step.Width, m.Step.Height = msg.Width, msg.Height
		m.Records.Width, m.Records.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case recordSavedMsg:
		// The user may have left the result screen meanwhile
		if !m.Saving {
			return m, nil
		}
		m.Saving = false
		m.Saved = msg.record
		m.SaveErr = msg.err
		if msg.err != nil {
			logging.Warn("Failed to store submission", zap.String("form", m.Step.Def.ID), zap.Error(msg.err))
		} else {
			logging.Info("Submission stored", zap.String("form", m.Step.Def.ID), zap.String("id", msg.record.ID))
		}
		m.updateResultKeys()
		return m, nil

	case spinner.TickMsg:
		if m.CurrentScreen == ScreenResult {
			if !m.Saving {
				return m, nil
			}
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenForms:
		updated, c := m.Forms.Update(msg)
		m.Forms = updated.(FormsModel)
		cmd = c

		switch {
		case m.Forms.Quit:
			return m, tea.Quit
		case m.Forms.Records:
			m.Forms.Records = false
			return m.transitionTo(ScreenRecords)
		case m.Forms.Selected:
			def := m.Forms.SelectedDefinition()
			m.Forms.Selected = false
			return m.openForm(def)
		}

	case ScreenStep:
		updated, c := m.Step.Update(msg)
		m.Step = updated.(StepModel)
		cmd = c

		if m.Step.Submitted {
			return m.transitionTo(ScreenResult)
		}
		if m.Step.Back {
			return m.transitionTo(ScreenForms)
		}

	case ScreenResult:
		return m.handleResultScreen(msg)

	case ScreenRecords:
		updated, c := m.Records.Update(msg)
		m.Records = updated.(RecordsModel)
		cmd = c

		if m.Records.Quit {
			return m, tea.Quit
		}
		if m.Records.Back {
			return m.goBack()
		}
	}

	return m, cmd
}

// handleResultScreen handles user input on the result screen
func (m AppModel) handleResultScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.ResultKeys.Save):
		return m.save()
	case key.Matches(keyMsg, m.ResultKeys.Records):
		return m.transitionTo(ScreenRecords)
	case key.Matches(keyMsg, m.ResultKeys.New):
		return m.transitionTo(ScreenForms)
	case key.Matches(keyMsg, m.ResultKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m AppModel) openForm(def *wizard.Definition) (tea.Model, tea.Cmd) {
	if def == nil {
		return m, nil
	}
	step, err := NewStepModel(def)
	if err != nil {
		logging.Error("Failed to open form", zap.String("form", def.ID), zap.Error(err))
		return m, nil
	}
	step.Width, step.Height = m.Width, m.Height
	m.Step = step
	return m.transitionTo(ScreenStep)
}

// save stores the accepted submission once
func (m AppModel) save() (tea.Model, tea.Cmd) {
	if m.opts.Records == nil || m.Saving || m.Saved != nil || m.Step.Record == nil {
		return m, nil
	}
	m.Saving = true
	m.SaveErr = nil
	m.updateResultKeys()
	return m, tea.Batch(saveRecord(m.opts.Records, m.Step.Record), m.Spinner.Tick)
}

// transitionTo transitions to a new screen
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen

	var cmd tea.Cmd

	switch screen {
	case ScreenForms:
		m.Step = StepModel{}
		m.Saved, m.SaveErr, m.Saving = nil, nil, false

	case ScreenStep:
		cmd = m.Step.Init()

	case ScreenResult:
		m.Saved, m.SaveErr = nil, nil
		if m.opts.Send {
			var model tea.Model
			model, cmd = m.save()
			m = model.(AppModel)
		}
		m.updateResultKeys()

	case ScreenRecords:
		if m.opts.Records == nil {
			m.CurrentScreen = m.PreviousScreen
			return m, nil
		}
		m.Records = NewRecordsModel(m.opts.Records)
		m.Records.Width, m.Records.Height = m.Width, m.Height
		cmd = m.Records.Init()
	}

	return m, cmd
}

// goBack returns to the previous screen
func (m AppModel) goBack() (tea.Model, tea.Cmd) {
	switch m.PreviousScreen {
	case ScreenResult:
		m.CurrentScreen, m.PreviousScreen = ScreenResult, ScreenRecords
		m.updateResultKeys()
		return m, nil
	default:
		return m.transitionTo(ScreenForms)
	}
}

func (m *AppModel) updateResultKeys() {
	canStore := m.opts.Records != nil
	m.ResultKeys.Save.SetEnabled(canStore && !m.Saving && m.Saved == nil)
	m.ResultKeys.Records.SetEnabled(canStore)
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenForms:
		return m.Forms.View()
	case ScreenStep:
		return m.Step.View()
	case ScreenResult:
		return RenderApplicationContainer(m.buildResultContent(), m.Help.View(m.ResultKeys), m.Width, m.Height)
	case ScreenRecords:
		return m.Records.View()
	default:
		return "Unknown screen"
	}
}

// buildResultContent shows the submitted values and the record store outcome
func (m AppModel) buildResultContent() string {
	var b strings.Builder
	width := m.Width - 6

	b.WriteString(ui.NewSuccessResult(m.Step.Def.Title+" submitted", m.Step.Details...).SetWidth(width).Render())
	b.WriteString("\n\n")

	switch {
	case m.Saving:
		b.WriteString(SpinnerStyle.Render(m.Spinner.View() + " Storing record..."))
	case m.SaveErr != nil:
		b.WriteString(ui.NewFailureResult("Record not stored", errors.New(records.GetShortErrorMessage(m.SaveErr)),
			ui.SplitHint(records.GetTroubleshootingHint(m.SaveErr))).SetWidth(width).Render())
	case m.Saved != nil:
		b.WriteString(SuccessTextStyle.Render("✓ Stored as record " + m.Saved.ID))
	}
	b.WriteString("\n")
	return b.String()
}
