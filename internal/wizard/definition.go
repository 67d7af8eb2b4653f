package wizard

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// Kind selects how a definition is built and rendered
type Kind string

const (
	KindWizard Kind = "wizard" // multi-step, one group per step
	KindForm   Kind = "form"   // single page, one group
	KindList   Kind = "list"   // one head group plus a dynamic field list
)

// ValidatorDef declares one validator in a field's chain
type ValidatorDef struct {
	Kind string `yaml:"kind" json:"kind"`                     // required, email, minlength
	Arg  int    `yaml:"arg,omitempty" json:"arg,omitempty"` // minlength bound
}

// FieldDef declares one field
type FieldDef struct {
	Name       string         `yaml:"name" json:"name"`
	Label      string         `yaml:"label,omitempty" json:"label,omitempty"`
	Type       FieldType      `yaml:"type,omitempty" json:"type,omitempty"`
	Validators []ValidatorDef `yaml:"validators,omitempty" json:"validators,omitempty"`
}

// GroupDef declares one group
type GroupDef struct {
	Name   string     `yaml:"name" json:"name"`
	Title  string     `yaml:"title,omitempty" json:"title,omitempty"`
	Fields []FieldDef `yaml:"fields" json:"fields"`
}

// ListDef declares the dynamic part of a list form
type ListDef struct {
	Name       string         `yaml:"name" json:"name"`
	Label      string         `yaml:"label,omitempty" json:"label,omitempty"`
	EntryLabel string         `yaml:"entry_label,omitempty" json:"entry_label,omitempty"`
	Validators []ValidatorDef `yaml:"validators,omitempty" json:"validators,omitempty"`
}

// Definition describes a form declaratively. Definitions are loaded from the
// config file or taken from the built-ins.
type Definition struct {
	ID     string     `yaml:"id,omitempty" json:"id"`
	Title  string     `yaml:"title" json:"title"`
	Kind   Kind       `yaml:"kind" json:"kind"`
	Groups []GroupDef `yaml:"groups" json:"groups"`
	List   *ListDef   `yaml:"list,omitempty" json:"list,omitempty"`
}

// Normalize fills defaults: the ID is slugified from the title when absent
// and the kind defaults to wizard.
func (d *Definition) Normalize() {
	if d.ID == "" {
		d.ID = slug.Make(d.Title)
	}
	if d.Kind == "" {
		d.Kind = KindWizard
	}
}

// Validate checks the definition without building it
func (d *Definition) Validate() error {
	if d.ID == "" && d.Title == "" {
		return fmt.Errorf("%w: id or title is required", ErrInvalidDefinition)
	}
	if len(d.Groups) == 0 {
		return fmt.Errorf("%w: %s has no groups", ErrInvalidDefinition, d.label())
	}

	switch d.Kind {
	case KindWizard, "":
	case KindForm:
		if len(d.Groups) != 1 {
			return fmt.Errorf("%w: form %s must have exactly one group, has %d", ErrInvalidDefinition, d.label(), len(d.Groups))
		}
	case KindList:
		if len(d.Groups) != 1 {
			return fmt.Errorf("%w: list form %s must have exactly one group, has %d", ErrInvalidDefinition, d.label(), len(d.Groups))
		}
		if d.List == nil || d.List.Name == "" {
			return fmt.Errorf("%w: list form %s needs a named list", ErrInvalidDefinition, d.label())
		}
		if _, err := buildValidators(d.List.Validators); err != nil {
			return fmt.Errorf("%w: list %q: %v", ErrInvalidDefinition, d.List.Name, err)
		}
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidDefinition, d.label(), d.Kind)
	}

	groups := make(map[string]bool, len(d.Groups))
	for _, g := range d.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed group", ErrInvalidDefinition, d.label())
		}
		if groups[g.Name] {
			return fmt.Errorf("%w: group %q", ErrDuplicateName, g.Name)
		}
		groups[g.Name] = true

		fields := make(map[string]bool, len(g.Fields))
		for _, f := range g.Fields {
			if f.Name == "" {
				return fmt.Errorf("%w: group %q has an unnamed field", ErrInvalidDefinition, g.Name)
			}
			if fields[f.Name] {
				return fmt.Errorf("%w: field %q in group %q", ErrDuplicateName, f.Name, g.Name)
			}
			fields[f.Name] = true

			switch f.Type {
			case "", FieldText, FieldEmail, FieldPassword:
			default:
				return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidDefinition, f.Name, f.Type)
			}
			if _, err := buildValidators(f.Validators); err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrInvalidDefinition, f.Name, err)
			}
		}
	}
	return nil
}

// Build creates a Wizard from a wizard or form definition
func (d *Definition) Build() (*Wizard, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Kind == KindList {
		return nil, fmt.Errorf("%w: %s is a list form, use BuildList", ErrInvalidDefinition, d.label())
	}

	groups := make([]*Group, 0, len(d.Groups))
	for _, gd := range d.Groups {
		g, err := gd.build()
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return New(d.ID, groups...)
}

// BuildForm creates a single-page Form from a form definition
func (d *Definition) BuildForm() (*Form, error) {
	d.Normalize()
	if d.Kind != KindForm {
		return nil, fmt.Errorf("%w: %s is a %s, not a form", ErrInvalidDefinition, d.label(), d.Kind)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	g, err := d.Groups[0].build()
	if err != nil {
		return nil, err
	}
	return NewForm(d.ID, g)
}

// BuildList creates a ListForm from a list definition
func (d *Definition) BuildList() (*ListForm, error) {
	d.Normalize()
	if d.Kind != KindList {
		return nil, fmt.Errorf("%w: %s is a %s, not a list form", ErrInvalidDefinition, d.label(), d.Kind)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	head, err := d.Groups[0].build()
	if err != nil {
		return nil, err
	}
	validators, _ := buildValidators(d.List.Validators)
	list := NewFieldList(d.List.Name, d.List.Label, d.List.EntryLabel, validators...)
	return NewListForm(d.ID, head, list)
}

// FieldCount returns the total number of declared fields
func (d *Definition) FieldCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Fields)
	}
	return n
}

func (d *Definition) label() string {
	if d.ID != "" {
		return fmt.Sprintf("%q", d.ID)
	}
	return fmt.Sprintf("%q", d.Title)
}

func (gd GroupDef) build() (*Group, error) {
	fields := make([]Field, 0, len(gd.Fields))
	for _, fd := range gd.Fields {
		validators, err := buildValidators(fd.Validators)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidDefinition, fd.Name, err)
		}
		fields = append(fields, NewField(fd.Name, fd.Label, fd.Type, validators...))
	}
	return NewGroup(gd.Name, gd.Title, fields...)
}

func buildValidators(defs []ValidatorDef) ([]FieldValidator, error) {
	out := make([]FieldValidator, 0, len(defs))
	for _, vd := range defs {
		switch strings.ToLower(vd.Kind) {
		case KeyRequired:
			out = append(out, Required{})
		case KeyEmail:
			out = append(out, Email{})
		case KeyMinLength, "min_length":
			if vd.Arg <= 0 {
				return nil, fmt.Errorf("minlength needs a positive arg, got %d", vd.Arg)
			}
			out = append(out, MinLength{N: vd.Arg})
		default:
			return nil, fmt.Errorf("unknown validator %q", vd.Kind)
		}
	}
	return out, nil
}
