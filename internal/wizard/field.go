package wizard

import "fmt"

// FieldType controls how a field is rendered and exported
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
)

// Field is a single input inside a group.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Value    string
	Required bool // true when the chain contains Required
	Touched  bool // errors are rendered only for touched fields
	Valid    bool
	Error    string // key of the first failing validator, "" when valid

	validators []FieldValidator
}

// NewField creates a field with an empty value and evaluates its chain once,
// so a required field starts out invalid.
func NewField(name, label string, typ FieldType, validators ...FieldValidator) Field {
	if label == "" {
		label = name
	}
	if typ == "" {
		typ = FieldText
	}

	f := Field{
		Name:       name,
		Label:      label,
		Type:       typ,
		validators: append([]FieldValidator(nil), validators...),
	}
	for _, v := range validators {
		if _, ok := v.(Required); ok {
			f.Required = true
		}
	}
	f.revalidate()
	return f
}

// Validators returns the field's validator chain in evaluation order
func (f Field) Validators() []FieldValidator {
	return append([]FieldValidator(nil), f.validators...)
}

// ShowError reports whether a renderer should display the field's error
func (f Field) ShowError() bool {
	return f.Touched && !f.Valid
}

func (f *Field) revalidate() {
	f.Error = runChain(f.validators, f.Value)
	f.Valid = f.Error == ""
}

// Group is a named, ordered collection of fields validated together.
type Group struct {
	Name   string
	Title  string
	Fields []Field
	Valid  bool // true iff every field is valid
}

// NewGroup creates a group from fields, rejecting duplicate field names.
func NewGroup(name, title string, fields ...Field) (*Group, error) {
	if title == "" {
		title = name
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: field %q in group %q", ErrDuplicateName, f.Name, name)
		}
		seen[f.Name] = true
	}

	g := &Group{
		Name:   name,
		Title:  title,
		Fields: append([]Field(nil), fields...),
	}
	g.recompute()
	return g, nil
}

// Field returns a copy of the named field
func (g Group) Field(name string) (Field, bool) {
	for _, f := range g.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Values returns the group's field values keyed by field name
func (g Group) Values() map[string]string {
	values := make(map[string]string, len(g.Fields))
	for _, f := range g.Fields {
		values[f.Name] = f.Value
	}
	return values
}

// Errors returns user-facing messages for touched invalid fields, in field order
func (g Group) Errors() []string {
	var errs []string
	for _, f := range g.Fields {
		if f.ShowError() {
			errs = append(errs, ErrorMessage(f))
		}
	}
	return errs
}

func (g *Group) setValue(field, value string) error {
	for i := range g.Fields {
		if g.Fields[i].Name == field {
			g.Fields[i].Value = value
			g.Fields[i].revalidate()
			g.recompute()
			return nil
		}
	}
	return fmt.Errorf("%w: %q in group %q", ErrUnknownField, field, g.Name)
}

func (g *Group) touchAll() {
	for i := range g.Fields {
		g.Fields[i].Touched = true
	}
}

func (g *Group) recompute() {
	g.Valid = true
	for _, f := range g.Fields {
		if !f.Valid {
			g.Valid = false
			return
		}
	}
}

// clone returns a copy that shares no field storage with g
func (g *Group) clone() Group {
	c := *g
	c.Fields = append([]Field(nil), g.Fields...)
	return c
}
