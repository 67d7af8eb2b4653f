package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSkills(t *testing.T) *ListForm {
	t.Helper()
	f, err := Skills().BuildList()
	require.NoError(t, err)
	return f
}

func TestFieldList_AddRemove(t *testing.T) {
	l := NewFieldList("skills", "Skills", "Skill", Required{})

	assert.Equal(t, 0, l.AddEntry())
	assert.Equal(t, 1, l.AddEntry())
	assert.Equal(t, 2, l.AddEntry())
	require.NoError(t, l.SetEntry(0, "go"))
	require.NoError(t, l.SetEntry(1, "sql"))
	require.NoError(t, l.SetEntry(2, "rust"))

	require.NoError(t, l.RemoveEntry(1))

	assert.Equal(t, []string{"go", "rust"}, l.Values())
	e, ok := l.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "1", e.Name)
	assert.Equal(t, "Skill 2", e.Label)
}

func TestFieldList_OutOfRange(t *testing.T) {
	l := NewFieldList("skills", "", "")
	l.AddEntry()

	assert.ErrorIs(t, l.RemoveEntry(1), ErrEntryOutOfRange)
	assert.ErrorIs(t, l.RemoveEntry(-1), ErrEntryOutOfRange)
	assert.ErrorIs(t, l.SetEntry(5, "x"), ErrEntryOutOfRange)
	assert.Equal(t, 1, l.Len())

	_, ok := l.Entry(3)
	assert.False(t, ok)
}

func TestFieldList_Validity(t *testing.T) {
	l := NewFieldList("skills", "Skills", "Skill", Required{})
	assert.True(t, l.Valid(), "empty list is valid")

	l.AddEntry()
	assert.False(t, l.Valid(), "new entry starts empty and required")

	require.NoError(t, l.SetEntry(0, "go"))
	assert.True(t, l.Valid())
}

func TestListForm_Submit(t *testing.T) {
	f := newSkills(t)
	require.NoError(t, f.Head().SetFieldValue("name", "Alice"))
	f.List().AddEntry()
	f.List().AddEntry()
	require.NoError(t, f.List().SetEntry(0, "go"))

	_, ok := f.Submit()
	require.False(t, ok)
	for _, e := range f.List().Entries() {
		assert.True(t, e.Touched)
	}

	require.NoError(t, f.List().RemoveEntry(1))
	values, ok := f.Submit()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Alice", "skills": []string{"go"}}, values)
}

func TestListForm_NameRequired(t *testing.T) {
	f := newSkills(t)
	_, ok := f.Submit()
	assert.False(t, ok)

	name, _ := f.Head().Group().Field("name")
	assert.True(t, name.Touched)
}

func TestForm_SubmitTouchesOnFailure(t *testing.T) {
	form, err := ReactiveUser().BuildForm()
	require.NoError(t, err)
	require.NoError(t, form.SetFieldValue("name", "Al"))
	require.NoError(t, form.SetFieldValue("email", "al@example.com"))

	_, ok := form.Submit()
	require.False(t, ok)
	name, _ := form.Group().Field("name")
	assert.True(t, name.Touched)
	assert.Equal(t, KeyMinLength, name.Error)

	require.NoError(t, form.SetFieldValue("name", "Alice"))
	values, ok := form.Submit()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"name": "Alice", "email": "al@example.com"}, values)
}

func TestForm_UserFormHasNoValidation(t *testing.T) {
	form, err := User().BuildForm()
	require.NoError(t, err)

	values, ok := form.Submit()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"name": "", "email": ""}, values)
}
