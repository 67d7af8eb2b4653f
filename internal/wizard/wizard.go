package wizard

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
)

// Values is an aggregated value set keyed by group name, then field name
type Values map[string]map[string]string

// SubmitFunc receives the aggregated values after a successful Submit
type SubmitFunc func(Values)

// Wizard drives a user through an ordered list of groups.
//
// The current index always stays within [0, Len()-1]. Advance is gated on the
// validity of the current group; Retreat never is.
type Wizard struct {
	id       string
	groups   []*Group
	current  int
	onSubmit SubmitFunc
}

// New creates a wizard positioned on the first group.
// Group order defines transition order and is fixed for the wizard's lifetime.
func New(id string, groups ...*Group) (*Wizard, error) {
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}

	// The wizard owns copies; later changes to the caller's groups do not leak in
	owned := make([]*Group, len(groups))
	seen := make(map[string]bool, len(groups))
	for i, g := range groups {
		if g == nil {
			return nil, fmt.Errorf("%w: nil group", ErrInvalidDefinition)
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("%w: group %q", ErrDuplicateName, g.Name)
		}
		seen[g.Name] = true

		c := g.clone()
		owned[i] = &c
	}

	return &Wizard{
		id:     id,
		groups: owned,
	}, nil
}

// ID returns the identifier of the definition the wizard was built from
func (w *Wizard) ID() string {
	return w.id
}

// OnSubmit registers the listener notified after a successful Submit.
// Only one listener is kept; a later call replaces the earlier one.
func (w *Wizard) OnSubmit(fn SubmitFunc) {
	w.onSubmit = fn
}

// Len returns the number of groups
func (w *Wizard) Len() int {
	return len(w.groups)
}

// CurrentIndex returns the index of the active group
func (w *Wizard) CurrentIndex() int {
	return w.current
}

// IsFirst reports whether the active group is the first one
func (w *Wizard) IsFirst() bool {
	return w.current == 0
}

// IsLast reports whether the active group is the last one
func (w *Wizard) IsLast() bool {
	return w.current == len(w.groups)-1
}

// CurrentGroup returns a copy of the active group for rendering
func (w *Wizard) CurrentGroup() Group {
	return w.groups[w.current].clone()
}

// Group returns a copy of the named group
func (w *Wizard) Group(name string) (Group, bool) {
	g := w.find(name)
	if g == nil {
		return Group{}, false
	}
	return g.clone(), true
}

// Groups returns copies of all groups in order
func (w *Wizard) Groups() []Group {
	out := make([]Group, len(w.groups))
	for i, g := range w.groups {
		out[i] = g.clone()
	}
	return out
}

// SetFieldValue updates one field and revalidates it and its group.
// Any group may be targeted, not only the active one.
func (w *Wizard) SetFieldValue(group, field, value string) error {
	g := w.find(group)
	if g == nil {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	return g.setValue(field, value)
}

// Advance moves to the next group when the active group is valid and
// reports whether the index changed. Advancing from the last group is a
// no-op. When the active group is invalid every one of its fields is marked
// touched so the renderer shows the errors.
func (w *Wizard) Advance() bool {
	g := w.groups[w.current]
	if !g.Valid {
		g.touchAll()
		logging.LogTransition(w.id, "advance_blocked", w.current, w.current,
			zap.String("group", g.Name),
		)
		return false
	}

	if w.IsLast() {
		return false
	}

	from := w.current
	w.current++
	logging.LogTransition(w.id, "advance", from, w.current)
	return true
}

// Retreat moves to the previous group and reports whether the index changed.
// It is never blocked by validation.
func (w *Wizard) Retreat() bool {
	if w.current == 0 {
		return false
	}

	from := w.current
	w.current--
	logging.LogTransition(w.id, "retreat", from, w.current)
	return true
}

// Touch marks every field of the active group touched.
func (w *Wizard) Touch() {
	w.groups[w.current].touchAll()
}

// Valid reports whether every group is valid
func (w *Wizard) Valid() bool {
	for _, g := range w.groups {
		if !g.Valid {
			return false
		}
	}
	return true
}

// Submit returns the aggregated values when every group is valid.
// On failure it returns nil, false and changes nothing: the index stays put
// and no field is touched.
func (w *Wizard) Submit() (Values, bool) {
	if !w.Valid() {
		logging.LogSubmission(w.id, false, zap.Int("index", w.current))
		return nil, false
	}

	values := make(Values, len(w.groups))
	for _, g := range w.groups {
		values[g.Name] = g.Values()
	}

	logging.LogSubmission(w.id, true, zap.Int("groups", len(values)))
	if w.onSubmit != nil {
		w.onSubmit(values)
	}
	return values, true
}

// FieldTypes returns the declared type of every field keyed by group, then field
func (w *Wizard) FieldTypes() map[string]map[string]FieldType {
	out := make(map[string]map[string]FieldType, len(w.groups))
	for _, g := range w.groups {
		types := make(map[string]FieldType, len(g.Fields))
		for _, f := range g.Fields {
			types[f.Name] = f.Type
		}
		out[g.Name] = types
	}
	return out
}

// Secrets returns the "group.field" names of every password field
func (w *Wizard) Secrets() []string {
	var out []string
	for _, g := range w.groups {
		for _, f := range g.Fields {
			if f.Type == FieldPassword {
				out = append(out, g.Name+"."+f.Name)
			}
		}
	}
	return out
}

func (w *Wizard) find(name string) *Group {
	for _, g := range w.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}
