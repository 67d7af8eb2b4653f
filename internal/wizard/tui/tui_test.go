package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/wizard"
)

type fakeStore struct {
	mu      sync.Mutex
	created []*records.Record
	list    []records.Record
	err     error
}

func (f *fakeStore) List(ctx context.Context) ([]records.Record, error) {
	return f.list, f.err
}

func (f *fakeStore) Create(ctx context.Context, rec *records.Record) (*records.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	out := *rec
	out.ID = "rec-1"
	return &out, nil
}

func press(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m StepModel, msgs ...tea.Msg) StepModel {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(StepModel)
	}
	return m
}

func newStep(t *testing.T, def *wizard.Definition) StepModel {
	t.Helper()
	m, err := NewStepModel(def)
	require.NoError(t, err)
	return m
}

// run executes cmd and every command it batches, returning the messages
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestStepModel_FillAndAdvance(t *testing.T) {
	m := newStep(t, wizard.Registration())

	require.Len(t, m.Inputs, 2)
	assert.Equal(t, 0, m.Focus)
	assert.False(t, m.Keys.Retreat.Enabled())
	assert.True(t, m.Keys.Advance.Enabled())
	assert.False(t, m.Keys.Submit.Enabled(), "submit is offered only once every group is valid")

	m = step(t, m, runes("Alice"), press(tea.KeyTab), runes("alice@example.com"))
	assert.Equal(t, 1, m.Focus)
	g := m.Wizard().CurrentGroup()
	assert.Equal(t, "Alice", g.Fields[0].Value)
	assert.True(t, g.Valid)

	m = step(t, m, press(tea.KeyCtrlN))
	assert.Equal(t, 1, m.Wizard().CurrentIndex())
	assert.Equal(t, 0, m.Focus)
	assert.Empty(t, m.Inputs[0].Value())
	assert.True(t, m.Keys.Retreat.Enabled())

	m = step(t, m, press(tea.KeyCtrlP))
	assert.Equal(t, 0, m.Wizard().CurrentIndex())
	assert.Equal(t, "Alice", m.Inputs[0].Value(), "values survive a retreat")
}

func TestStepModel_BlockedAdvanceShowsErrors(t *testing.T) {
	m := newStep(t, wizard.Registration())

	m = step(t, m, runes("Bob"), press(tea.KeyCtrlN))

	assert.Equal(t, 0, m.Wizard().CurrentIndex())
	assert.Equal(t, msgBlocked, m.Message)
	for _, f := range m.Wizard().CurrentGroup().Fields {
		assert.True(t, f.Touched, f.Name)
	}
	assert.Contains(t, m.View(), "Email is required")
	assert.NotContains(t, m.View(), "Name is required")

	m = step(t, m, press(tea.KeyTab), runes("x"))
	assert.Empty(t, m.Message, "editing clears the status message")
	assert.Contains(t, m.View(), "Enter a valid email address")
}

func TestStepModel_FocusWraps(t *testing.T) {
	m := newStep(t, wizard.Registration())

	m = step(t, m, press(tea.KeyShiftTab))
	assert.Equal(t, 1, m.Focus)
	m = step(t, m, press(tea.KeyTab))
	assert.Equal(t, 0, m.Focus)
	assert.True(t, m.Inputs[0].Focused())
	assert.False(t, m.Inputs[1].Focused())
}

func TestStepModel_SubmitWizard(t *testing.T) {
	m := newStep(t, wizard.Registration())

	m = step(t, m,
		runes("Alice"), press(tea.KeyTab), runes("a@b.com"), press(tea.KeyCtrlN),
		runes("Oslo"), press(tea.KeyTab), runes("0150"), press(tea.KeyCtrlN),
	)
	require.Equal(t, 2, m.Wizard().CurrentIndex())
	assert.Equal(t, textinput.EchoPassword, m.Inputs[0].EchoMode)
	assert.False(t, m.Keys.Advance.Enabled(), "last group")

	// Submitting with the account group empty is inert
	m = step(t, m, press(tea.KeyCtrlS))
	assert.False(t, m.Submitted)
	assert.Empty(t, m.Message)
	assert.False(t, m.Wizard().CurrentGroup().Fields[0].Touched)

	// Known gap: the confirmation is never compared with the password
	m = step(t, m, runes("hunter2"), press(tea.KeyTab), runes("different"))
	assert.True(t, m.Keys.Submit.Enabled())
	assert.NotContains(t, m.View(), "hunter2")

	m = step(t, m, press(tea.KeyCtrlS))
	require.True(t, m.Submitted)
	assert.Equal(t, map[string]string{"name": "Alice", "email": "a@b.com"}, m.Values["personal"])
	require.NotNil(t, m.Record)
	assert.NotContains(t, m.Record.Data, "account.password")
	assert.Equal(t, "Oslo", m.Record.Data["address.city"])
}

func TestStepModel_FormSubmitTouches(t *testing.T) {
	m := newStep(t, wizard.ReactiveUser())

	assert.False(t, m.Keys.Advance.Enabled())
	assert.True(t, m.Keys.Submit.Enabled())

	m = step(t, m, runes("Al"), press(tea.KeyCtrlS))
	assert.False(t, m.Submitted)
	assert.Equal(t, msgFormInvalid, m.Message)
	view := m.View()
	assert.Contains(t, view, "Name must be at least 3 characters")
	assert.Contains(t, view, "Email is required")

	m = step(t, m, runes("ice"), press(tea.KeyTab), runes("al@ex.io"), press(tea.KeyCtrlS))
	require.True(t, m.Submitted)
	assert.Equal(t, "Alice", m.Values["name"])
}

func TestStepModel_ListEntries(t *testing.T) {
	m := newStep(t, wizard.Skills())

	require.Len(t, m.Inputs, 1)
	assert.False(t, m.Keys.Remove.Enabled())
	assert.Contains(t, m.View(), "none yet")

	m = step(t, m, runes("Ann"), press(tea.KeyCtrlA))
	require.Len(t, m.Inputs, 2)
	assert.Equal(t, 1, m.Focus, "new entry is focused")
	assert.True(t, m.Keys.Remove.Enabled())

	m = step(t, m, runes("Go"), press(tea.KeyCtrlA), press(tea.KeyCtrlS))
	assert.False(t, m.Submitted, "empty entry blocks submit")
	assert.Contains(t, m.View(), "Skill 2 is required")

	m = step(t, m, press(tea.KeyCtrlD))
	require.Len(t, m.Inputs, 2)
	assert.Equal(t, 1, m.Focus)

	m = step(t, m, press(tea.KeyCtrlS))
	require.True(t, m.Submitted)
	assert.Equal(t, []string{"Go"}, m.Values["skills"])
	assert.Equal(t, "Ann", m.Values["name"])
}

func TestStepModel_Back(t *testing.T) {
	m := newStep(t, wizard.User())
	m = step(t, m, press(tea.KeyEsc))
	assert.True(t, m.Back)
}

func TestAppModel_StartsOnForm(t *testing.T) {
	app, err := NewAppModel(Options{Form: "user"})
	require.NoError(t, err)
	assert.Equal(t, ScreenStep, app.CurrentScreen)

	_, err = NewAppModel(Options{Form: "nope"})
	assert.Error(t, err)

	app, err = NewAppModel(Options{})
	require.NoError(t, err)
	assert.Equal(t, ScreenForms, app.CurrentScreen)
	assert.False(t, app.Forms.Keys.Records.Enabled())
	assert.Len(t, app.Forms.List.Items(), 4)
}

func TestAppModel_SubmitAndSend(t *testing.T) {
	store := &fakeStore{}
	app, err := NewAppModel(Options{Form: "user", Records: store, Send: true})
	require.NoError(t, err)

	var model tea.Model = app
	var cmd tea.Cmd
	for _, msg := range []tea.Msg{runes("Eve"), press(tea.KeyTab), runes("eve@example.com"), press(tea.KeyCtrlS)} {
		model, cmd = model.Update(msg)
	}

	app = model.(AppModel)
	require.Equal(t, ScreenResult, app.CurrentScreen)
	assert.True(t, app.Saving)
	assert.False(t, app.ResultKeys.Save.Enabled())
	assert.Contains(t, app.View(), "User form submitted")

	for _, msg := range run(cmd) {
		model, _ = model.Update(msg)
	}
	app = model.(AppModel)

	assert.False(t, app.Saving)
	require.NotNil(t, app.Saved)
	assert.Equal(t, "rec-1", app.Saved.ID)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Eve", store.created[0].Data["user.name"])
	assert.Contains(t, app.View(), "Stored as record rec-1")

	// a second save is refused
	model, cmd = model.Update(runes("s"))
	assert.Nil(t, cmd)
	assert.Len(t, store.created, 1)

	model, _ = model.Update(press(tea.KeyEnter))
	assert.Equal(t, ScreenForms, model.(AppModel).CurrentScreen)
}

func TestAppModel_SaveFailure(t *testing.T) {
	store := &fakeStore{err: records.NewHTTPError(500, "boom")}
	app, err := NewAppModel(Options{Form: "user", Records: store})
	require.NoError(t, err)

	var model tea.Model = app
	model, _ = model.Update(press(tea.KeyCtrlS))
	require.Equal(t, ScreenResult, model.(AppModel).CurrentScreen)
	assert.False(t, model.(AppModel).Saving, "not sent without Send")

	model, cmd := model.Update(runes("s"))
	require.NotNil(t, cmd)
	for _, msg := range run(cmd) {
		model, _ = model.Update(msg)
	}

	app = model.(AppModel)
	require.Error(t, app.SaveErr)
	assert.True(t, app.ResultKeys.Save.Enabled(), "a failed save may be retried")
	assert.Contains(t, app.View(), "Record not stored")
}

func TestAppModel_Records(t *testing.T) {
	store := &fakeStore{list: []records.Record{{ID: "7", Name: "Alice", Data: map[string]any{"a": 1}}}}
	app, err := NewAppModel(Options{Records: store})
	require.NoError(t, err)

	var model tea.Model = app
	model, cmd := model.Update(runes("r"))
	app = model.(AppModel)
	require.Equal(t, ScreenRecords, app.CurrentScreen)
	assert.True(t, app.Records.Loading)

	for _, msg := range run(cmd) {
		model, _ = model.Update(msg)
	}
	app = model.(AppModel)
	assert.False(t, app.Records.Loading)
	assert.Contains(t, app.View(), "Alice")

	model, _ = model.Update(press(tea.KeyEsc))
	assert.Equal(t, ScreenForms, model.(AppModel).CurrentScreen)
}

func TestRecordsModel_Error(t *testing.T) {
	m := NewRecordsModel(&fakeStore{err: &records.RecordError{Type: records.ErrTypeTimeout}})
	for _, msg := range run(m.Init()) {
		updated, _ := m.Update(msg)
		m = updated.(RecordsModel)
	}
	assert.Error(t, m.Err)
	assert.True(t, strings.Contains(m.View(), "timeout"))
}
