package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/formwizard/internal/wizard"
)

// formsKeyMap defines key bindings for the form list screen
type formsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Records key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Records, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Records, k.Quit},
	}
}

// formItem wraps a Definition for use with bubbles/list
type formItem struct {
	def *wizard.Definition
}

func (f formItem) FilterValue() string {
	return f.def.ID + " " + f.def.Title
}

func (f formItem) Title() string {
	return f.def.Title
}

func (f formItem) Description() string {
	var parts []string
	parts = append(parts, f.def.ID)
	switch f.def.Kind {
	case wizard.KindWizard:
		parts = append(parts, fmt.Sprintf("%d steps", len(f.def.Groups)))
	case wizard.KindList:
		parts = append(parts, "list form")
	default:
		parts = append(parts, "single page")
	}
	parts = append(parts, fmt.Sprintf("%d fields", f.def.FieldCount()))
	return strings.Join(parts, " • ")
}

// FormsModel is the form picker screen
type FormsModel struct {
	List     list.Model
	Selected bool
	Records  bool // records screen requested
	Quit     bool

	Width  int
	Height int
	Help   help.Model
	Keys   formsKeyMap
}

// NewFormsModel lists every definition in the catalog
func NewFormsModel(catalog *wizard.Catalog, withRecords bool) FormsModel {
	defs := catalog.List()
	items := make([]list.Item, len(defs))
	for i, d := range defs {
		items[i] = formItem{def: d}
	}

	l := list.New(items, list.NewDefaultDelegate(), MinTerminalWidth-4, MinTerminalHeight-8)
	l.Title = "Forms"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	keys := formsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Records: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "records"),
			key.WithDisabled(),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
	keys.Records.SetEnabled(withRecords)

	return FormsModel{
		List:   l,
		Width:  MinTerminalWidth,
		Height: MinTerminalHeight,
		Help:   help.New(),
		Keys:   keys,
	}
}

// Init initializes the forms model
func (m FormsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m FormsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-4, msg.Height-8) // Leave room for header/footer

	case tea.KeyMsg:
		// While filtering every key belongs to the list
		if m.List.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.Keys.Enter):
			if m.List.SelectedItem() != nil {
				m.Selected = true
			}
			return m, nil
		case key.Matches(msg, m.Keys.Records):
			m.Records = true
			return m, nil
		case key.Matches(msg, m.Keys.Quit):
			m.Quit = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

// View renders the form list
func (m FormsModel) View() string {
	return RenderApplicationContainer(m.List.View(), m.Help.View(m.Keys), m.Width, m.Height)
}

// SelectedDefinition returns the chosen definition, if any
func (m FormsModel) SelectedDefinition() *wizard.Definition {
	if !m.Selected {
		return nil
	}
	if item, ok := m.List.SelectedItem().(formItem); ok {
		return item.def
	}
	return nil
}
