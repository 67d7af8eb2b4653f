package server

import (
	"errors"
	"sync"
	"time"

	"github.com/muurk/formwizard/internal/records"
	"github.com/muurk/formwizard/internal/wizard"
)

// ErrNotList is returned for entry operations on a session whose form has
// no field list.
var ErrNotList = errors.New("form has no field list")

// Session is one remote user's progress through a form. All access goes
// through the session mutex; the wizard itself is single-owner.
type Session struct {
	ID      string
	Def     *wizard.Definition
	Created time.Time

	mu       sync.Mutex
	w        *wizard.Wizard
	form     *wizard.Form
	list     *wizard.ListForm
	lastSeen time.Time
	result   map[string]any
	closed   bool
	subs     map[chan Snapshot]struct{}
}

func newSession(id string, def *wizard.Definition, now time.Time) (*Session, error) {
	s := &Session{
		ID:       id,
		Def:      def,
		Created:  now,
		lastSeen: now,
		subs:     make(map[chan Snapshot]struct{}),
	}

	switch def.Kind {
	case wizard.KindForm:
		f, err := def.BuildForm()
		if err != nil {
			return nil, err
		}
		s.form, s.w = f, f.Wizard()
	case wizard.KindList:
		l, err := def.BuildList()
		if err != nil {
			return nil, err
		}
		s.list, s.w = l, l.Head().Wizard()
	default:
		w, err := def.Build()
		if err != nil {
			return nil, err
		}
		s.w = w
	}
	return s, nil
}

// SetField updates one field. An empty group selects the current group.
func (s *Session) SetField(group, field, value string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group == "" {
		group = s.w.CurrentGroup().Name
	}
	if err := s.w.SetFieldValue(group, field, value); err != nil {
		return Snapshot{}, err
	}
	return s.publishLocked(), nil
}

// Advance moves to the next group when the current one is valid
func (s *Session) Advance() (bool, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.w.Advance()
	return moved, s.publishLocked()
}

// Retreat moves to the previous group
func (s *Session) Retreat() (bool, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.w.Retreat()
	return moved, s.publishLocked()
}

// Submission is the outcome of an accepted submit
type Submission struct {
	Values map[string]any
	Record *records.Record // sanitised, secrets removed
}

// Submit submits the form. For wizards a rejected submit changes nothing;
// single-page and list forms mark their fields touched.
func (s *Session) Submit() (*Submission, bool, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sub *Submission
	switch {
	case s.list != nil:
		values, ok := s.list.Submit()
		if ok {
			sub = &Submission{Values: values, Record: records.FromList(s.Def.Title, values)}
		}
	case s.form != nil:
		values, ok := s.form.Submit()
		if ok {
			group := s.form.Group().Name
			sub = &Submission{
				Values: stringsToAny(values),
				Record: records.FromSubmission(s.Def.Title, wizard.Values{group: values}, s.w.Secrets()),
			}
		}
	default:
		values, ok := s.w.Submit()
		if ok {
			out := make(map[string]any, len(values))
			for g, v := range values {
				out[g] = v
			}
			sub = &Submission{Values: out, Record: records.FromSubmission(s.Def.Title, values, s.w.Secrets())}
		}
	}

	if sub != nil {
		s.result = sub.Values
	}
	return sub, sub != nil, s.publishLocked()
}

// AddEntry appends an empty list entry
func (s *Session) AddEntry() (int, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.list == nil {
		return 0, Snapshot{}, ErrNotList
	}
	i := s.list.List().AddEntry()
	return i, s.publishLocked(), nil
}

// SetEntry updates one list entry
func (s *Session) SetEntry(index int, value string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.list == nil {
		return Snapshot{}, ErrNotList
	}
	if err := s.list.List().SetEntry(index, value); err != nil {
		return Snapshot{}, err
	}
	return s.publishLocked(), nil
}

// RemoveEntry deletes one list entry
func (s *Session) RemoveEntry(index int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.list == nil {
		return Snapshot{}, ErrNotList
	}
	if err := s.list.List().RemoveEntry(index); err != nil {
		return Snapshot{}, err
	}
	return s.publishLocked(), nil
}

// Snapshot returns the current state without notifying subscribers
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers for a snapshot after every mutation. The channel is
// closed when the session ends or cancel is called.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 4)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) seen(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// publishLocked sends the current snapshot to every subscriber, replacing
// a stale queued snapshot when a subscriber is slow.
func (s *Session) publishLocked() Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	return snap
}

func stringsToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
