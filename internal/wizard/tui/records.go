package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/formwizard/internal/records"
)

// RecordService is the subset of the records client the TUI uses
type RecordService interface {
	List(ctx context.Context) ([]records.Record, error)
	Create(ctx context.Context, rec *records.Record) (*records.Record, error)
}

// requestTimeout bounds each record store call made from the TUI
const requestTimeout = 30 * time.Second

// Messages for async operations
type recordsLoadedMsg struct {
	records []records.Record
	err     error
}

type recordSavedMsg struct {
	record *records.Record
	err    error
}

func loadRecords(store RecordService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		list, err := store.List(ctx)
		return recordsLoadedMsg{records: list, err: err}
	}
}

func saveRecord(store RecordService, rec *records.Record) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		created, err := store.Create(ctx, rec)
		return recordSavedMsg{record: created, err: err}
	}
}

// recordsKeyMap defines key bindings for the records screen
type recordsKeyMap struct {
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k recordsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k recordsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Back, k.Quit}}
}

// RecordsModel lists the records held by the record store
type RecordsModel struct {
	Loading bool
	Records []records.Record
	Err     error
	Back    bool
	Quit    bool

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    recordsKeyMap

	store RecordService
}

// NewRecordsModel creates the records screen; Init starts loading
func NewRecordsModel(store RecordService) RecordsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return RecordsModel{
		Loading: true,
		Width:   MinTerminalWidth,
		Height:  MinTerminalHeight,
		Spinner: s,
		Help:    help.New(),
		Keys: recordsKeyMap{
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
		store: store,
	}
}

// Init loads the records
func (m RecordsModel) Init() tea.Cmd {
	return tea.Batch(loadRecords(m.store), m.Spinner.Tick)
}

// Update handles messages and updates the model
func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case recordsLoadedMsg:
		m.Loading = false
		m.Records = msg.records
		m.Err = msg.err

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Refresh):
			if m.Loading {
				return m, nil
			}
			m.Loading = true
			m.Err = nil
			return m, tea.Batch(loadRecords(m.store), m.Spinner.Tick)
		case key.Matches(msg, m.Keys.Back):
			m.Back = true
		case key.Matches(msg, m.Keys.Quit):
			m.Quit = true
		}
	}
	return m, nil
}

// View renders the records screen
func (m RecordsModel) View() string {
	return RenderApplicationContainer(m.content(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m RecordsModel) content() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Records"))
	b.WriteString("\n\n")

	switch {
	case m.Loading:
		b.WriteString(SpinnerStyle.Render(m.Spinner.View() + " Loading records..."))
		b.WriteString("\n")

	case m.Err != nil:
		b.WriteString(RenderError(records.GetShortErrorMessage(m.Err)))
		b.WriteString("\n\n")
		if hint := records.GetTroubleshootingHint(m.Err); hint != "" {
			b.WriteString("  " + strings.ReplaceAll(hint, "\n", "\n  "))
			b.WriteString("\n")
		}

	case len(m.Records) == 0:
		b.WriteString(WarningTextStyle.Render("⚠ The record store is empty"))
		b.WriteString("\n")

	default:
		for i := range m.Records {
			b.WriteString(MenuItemStyle.Render(m.Records[i].FormatCompact()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(RenderSubtitle(fmt.Sprintf("%d records", len(m.Records))))
		b.WriteString("\n")
	}
	return b.String()
}
