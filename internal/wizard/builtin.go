package wizard

import "sort"

var (
	required  = ValidatorDef{Kind: KeyRequired}
	email     = ValidatorDef{Kind: KeyEmail}
	minLength = func(n int) ValidatorDef { return ValidatorDef{Kind: KeyMinLength, Arg: n} }
)

// Registration is the three-step personal/address/account wizard.
// password and confirmPassword are both required but never compared.
func Registration() *Definition {
	return &Definition{
		ID:    "registration",
		Title: "Registration",
		Kind:  KindWizard,
		Groups: []GroupDef{
			{
				Name:  "personal",
				Title: "Personal details",
				Fields: []FieldDef{
					{Name: "name", Label: "Name", Validators: []ValidatorDef{required}},
					{Name: "email", Label: "Email", Type: FieldEmail, Validators: []ValidatorDef{required, email}},
				},
			},
			{
				Name:  "address",
				Title: "Address",
				Fields: []FieldDef{
					{Name: "city", Label: "City", Validators: []ValidatorDef{required}},
					{Name: "postalCode", Label: "Postal code", Validators: []ValidatorDef{required}},
				},
			},
			{
				Name:  "account",
				Title: "Account",
				Fields: []FieldDef{
					{Name: "password", Label: "Password", Type: FieldPassword, Validators: []ValidatorDef{required}},
					{Name: "confirmPassword", Label: "Confirm password", Type: FieldPassword, Validators: []ValidatorDef{required}},
				},
			},
		},
	}
}

// ReactiveUser is the single-page user form with validation
func ReactiveUser() *Definition {
	return &Definition{
		ID:    "reactive-user",
		Title: "Reactive user form",
		Kind:  KindForm,
		Groups: []GroupDef{
			{
				Name: "user",
				Fields: []FieldDef{
					{Name: "name", Label: "Name", Validators: []ValidatorDef{required, minLength(3)}},
					{Name: "email", Label: "Email", Type: FieldEmail, Validators: []ValidatorDef{required, email}},
				},
			},
		},
	}
}

// User is the single-page user form without validators
func User() *Definition {
	return &Definition{
		ID:    "user",
		Title: "User form",
		Kind:  KindForm,
		Groups: []GroupDef{
			{
				Name: "user",
				Fields: []FieldDef{
					{Name: "name", Label: "Name"},
					{Name: "email", Label: "Email", Type: FieldEmail},
				},
			},
		},
	}
}

// Skills is a name plus a dynamic list of required skills
func Skills() *Definition {
	return &Definition{
		ID:    "skills",
		Title: "Skills",
		Kind:  KindList,
		Groups: []GroupDef{
			{
				Name: "profile",
				Fields: []FieldDef{
					{Name: "name", Label: "Name", Validators: []ValidatorDef{required}},
				},
			},
		},
		List: &ListDef{
			Name:       "skills",
			Label:      "Skills",
			EntryLabel: "Skill",
			Validators: []ValidatorDef{required},
		},
	}
}

// Builtins returns fresh copies of the built-in definitions
func Builtins() []*Definition {
	return []*Definition{Registration(), ReactiveUser(), User(), Skills()}
}

// Catalog indexes definitions by ID. Later definitions override earlier ones
// with the same ID, so configured forms can replace built-ins.
type Catalog struct {
	defs map[string]*Definition
}

// NewCatalog builds a catalog from the built-ins plus extra definitions
func NewCatalog(extra ...*Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition)}
	for _, d := range Builtins() {
		c.defs[d.ID] = d
	}
	for _, d := range extra {
		if d == nil {
			continue
		}
		d.Normalize()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		c.defs[d.ID] = d
	}
	return c, nil
}

// Lookup returns the definition with the given ID
func (c *Catalog) Lookup(id string) (*Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// List returns all definitions sorted by ID
func (c *Catalog) List() []*Definition {
	out := make([]*Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
