package server

import (
	"github.com/muurk/formwizard/internal/wizard"
)

// Snapshot is the JSON view of a session sent to HTTP and websocket clients.
// Password values are never echoed; Filled reports whether one was entered.
type Snapshot struct {
	ID        string         `json:"id"`
	Form      string         `json:"form"`
	Title     string         `json:"title"`
	Kind      wizard.Kind    `json:"kind"`
	Index     int            `json:"index"`
	Total     int            `json:"total"`
	First     bool           `json:"first"`
	Last      bool           `json:"last"`
	Valid     bool           `json:"valid"`
	Groups    []GroupView    `json:"groups"`
	List      *ListView      `json:"list,omitempty"`
	Submitted bool           `json:"submitted"`
	Values    map[string]any `json:"values,omitempty"`
}

// GroupView is one group in a snapshot
type GroupView struct {
	Name   string      `json:"name"`
	Title  string      `json:"title"`
	Valid  bool        `json:"valid"`
	Fields []FieldView `json:"fields"`
}

// FieldView is one field in a snapshot
type FieldView struct {
	Name    string           `json:"name"`
	Label   string           `json:"label"`
	Type    wizard.FieldType `json:"type"`
	Value   string           `json:"value"`
	Filled  bool             `json:"filled"`
	Touched bool             `json:"touched"`
	Valid   bool             `json:"valid"`
	Error   string           `json:"error,omitempty"`
	Message string           `json:"message,omitempty"` // shown only for touched invalid fields
}

// ListView is the field list of a list form
type ListView struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Valid   bool        `json:"valid"`
	Entries []FieldView `json:"entries"`
}

func fieldView(f wizard.Field) FieldView {
	v := FieldView{
		Name:    f.Name,
		Label:   f.Label,
		Type:    f.Type,
		Value:   f.Value,
		Filled:  f.Value != "",
		Touched: f.Touched,
		Valid:   f.Valid,
		Error:   f.Error,
	}
	if f.Type == wizard.FieldPassword {
		v.Value = ""
	}
	if f.ShowError() {
		v.Message = wizard.ErrorMessage(f)
	}
	return v
}

func (s *Session) snapshotLocked() Snapshot {
	groups := s.w.Groups()
	snap := Snapshot{
		ID:        s.ID,
		Form:      s.Def.ID,
		Title:     s.Def.Title,
		Kind:      s.Def.Kind,
		Index:     s.w.CurrentIndex(),
		Total:     s.w.Len(),
		First:     s.w.IsFirst(),
		Last:      s.w.IsLast(),
		Valid:     s.w.Valid(),
		Groups:    make([]GroupView, len(groups)),
		Submitted: s.result != nil,
		Values:    s.result,
	}

	for i, g := range groups {
		gv := GroupView{Name: g.Name, Title: g.Title, Valid: g.Valid, Fields: make([]FieldView, len(g.Fields))}
		for j, f := range g.Fields {
			gv.Fields[j] = fieldView(f)
		}
		snap.Groups[i] = gv
	}

	if s.list != nil {
		l := s.list.List()
		lv := &ListView{Name: l.Name, Label: l.Label, Valid: l.Valid(), Entries: []FieldView{}}
		for _, e := range l.Entries() {
			lv.Entries = append(lv.Entries, fieldView(e))
		}
		snap.List = lv
		snap.Valid = s.list.Valid()
	}
	return snap
}
