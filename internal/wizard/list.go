package wizard

import (
	"fmt"
	"strconv"
)

// FieldList is a growable ordered sequence of sibling fields that share one
// validator chain, such as a list of skills.
type FieldList struct {
	Name       string
	Label      string
	EntryLabel string

	entries    []Field
	validators []FieldValidator
}

// NewFieldList creates an empty list. Every entry added later is validated
// with the given chain.
func NewFieldList(name, label, entryLabel string, validators ...FieldValidator) *FieldList {
	if label == "" {
		label = name
	}
	if entryLabel == "" {
		entryLabel = label
	}
	return &FieldList{
		Name:       name,
		Label:      label,
		EntryLabel: entryLabel,
		validators: append([]FieldValidator(nil), validators...),
	}
}

// Len returns the number of entries
func (l *FieldList) Len() int {
	return len(l.entries)
}

// AddEntry appends an empty entry and returns its index
func (l *FieldList) AddEntry() int {
	idx := len(l.entries)
	f := NewField(strconv.Itoa(idx), fmt.Sprintf("%s %d", l.EntryLabel, idx+1), FieldText, l.validators...)
	l.entries = append(l.entries, f)
	return idx
}

// RemoveEntry deletes the entry at index; later entries shift down by one
func (l *FieldList) RemoveEntry(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: %d (len %d)", ErrEntryOutOfRange, index, len(l.entries))
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	l.renumber()
	return nil
}

// SetEntry updates and revalidates the entry at index
func (l *FieldList) SetEntry(index int, value string) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: %d (len %d)", ErrEntryOutOfRange, index, len(l.entries))
	}
	l.entries[index].Value = value
	l.entries[index].revalidate()
	return nil
}

// Entry returns a copy of the entry at index
func (l *FieldList) Entry(index int) (Field, bool) {
	if index < 0 || index >= len(l.entries) {
		return Field{}, false
	}
	return l.entries[index], true
}

// Entries returns copies of all entries in order
func (l *FieldList) Entries() []Field {
	return append([]Field(nil), l.entries...)
}

// Valid reports whether every entry is valid. An empty list is valid.
func (l *FieldList) Valid() bool {
	for _, e := range l.entries {
		if !e.Valid {
			return false
		}
	}
	return true
}

// Values returns the entry values in order
func (l *FieldList) Values() []string {
	values := make([]string, len(l.entries))
	for i, e := range l.entries {
		values[i] = e.Value
	}
	return values
}

func (l *FieldList) touchAll() {
	for i := range l.entries {
		l.entries[i].Touched = true
	}
}

// renumber keeps entry names and labels in step with their positions
func (l *FieldList) renumber() {
	for i := range l.entries {
		l.entries[i].Name = strconv.Itoa(i)
		l.entries[i].Label = fmt.Sprintf("%s %d", l.EntryLabel, i+1)
	}
}

// ListForm is a form with fixed head fields followed by a FieldList.
type ListForm struct {
	head *Form
	list *FieldList
}

// NewListForm combines a head group and a list
func NewListForm(id string, head *Group, list *FieldList) (*ListForm, error) {
	if list == nil {
		return nil, fmt.Errorf("%w: list form %q has no list", ErrInvalidDefinition, id)
	}
	form, err := NewForm(id, head)
	if err != nil {
		return nil, err
	}
	if _, clash := head.Field(list.Name); clash {
		return nil, fmt.Errorf("%w: list %q clashes with a field", ErrDuplicateName, list.Name)
	}
	return &ListForm{head: form, list: list}, nil
}

// Head returns the fixed part of the form
func (f *ListForm) Head() *Form {
	return f.head
}

// List returns the dynamic part of the form
func (f *ListForm) List() *FieldList {
	return f.list
}

// Valid reports whether both the head fields and every entry are valid
func (f *ListForm) Valid() bool {
	return f.head.w.Valid() && f.list.Valid()
}

// Submit returns head values plus the list values under the list's name.
// On failure every head field and entry is marked touched.
func (f *ListForm) Submit() (map[string]any, bool) {
	if !f.Valid() {
		f.head.w.Touch()
		f.list.touchAll()
		return nil, false
	}

	head, _ := f.head.Submit()
	out := make(map[string]any, len(head)+1)
	for k, v := range head {
		out[k] = v
	}
	out[f.list.Name] = f.list.Values()
	return out, true
}
