package wizard

// Form is a single-page form: one group submitted at once.
// Unlike a Wizard, a failed Submit marks every field touched so the errors
// show up immediately.
type Form struct {
	w *Wizard
}

// NewForm wraps a single group
func NewForm(id string, group *Group) (*Form, error) {
	w, err := New(id, group)
	if err != nil {
		return nil, err
	}
	return &Form{w: w}, nil
}

// Wizard exposes the underlying one-group wizard for renderers
func (f *Form) Wizard() *Wizard {
	return f.w
}

// Group returns a copy of the form's group
func (f *Form) Group() Group {
	return f.w.CurrentGroup()
}

// SetFieldValue updates one field of the form
func (f *Form) SetFieldValue(field, value string) error {
	return f.w.SetFieldValue(f.w.groups[0].Name, field, value)
}

// Submit returns the field values when the form is valid. Otherwise every
// field is marked touched and ok is false.
func (f *Form) Submit() (map[string]string, bool) {
	values, ok := f.w.Submit()
	if !ok {
		f.w.Touch()
		return nil, false
	}
	return values[f.w.groups[0].Name], true
}
