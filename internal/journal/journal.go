// Package journal compacts the revision history of a work item into a
// baseline plus minimal change actions.
package journal

import (
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

type Options struct {
	// SuppressStartDate drops start_date from every revision after the first.
	SuppressStartDate bool
}

// Dedup removes from a every attribute whose value equals the most recent
// earlier occurrence of that attribute in history. It reports false when
// nothing but the protected attributes remains.
func Dedup(history []model.Action, a model.Action) (model.Action, bool) {
	for _, k := range a.Keys() {
		if prev := lastWith(history, k); prev != nil && prev.Same(k, &a) {
			a.Clear(k)
		}
	}
	if a.Empty() {
		return a, false
	}
	return a, true
}

func lastWith(history []model.Action, k model.Attr) *model.Action {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Has(k) {
			return &history[i]
		}
	}
	return nil
}

// Tracker folds the revisions of one work item in order.
type Tracker struct {
	opts    Options
	history []model.Action
}

func NewTracker(opts Options) *Tracker {
	return &Tracker{opts: opts}
}

// Track records the next revision. rev is expected to carry the item's full
// state at that revision; the first revision becomes the baseline.
func (t *Tracker) Track(rev model.Action) {
	if !rev.Notes.Set || rev.Notes.Value == "" {
		rev.Clear(model.AttrNotes)
	}

	if len(t.history) == 0 {
		notes := rev.Notes
		rev.Clear(model.AttrNotes)
		t.history = append(t.history, rev)
		if notes.Set {
			t.history = append(t.history, model.Action{Author: rev.Author, CreatedAt: rev.CreatedAt, Notes: notes})
		}
		return
	}

	if t.opts.SuppressStartDate {
		rev.Clear(model.AttrStartDate)
	}
	if a, ok := Dedup(t.history, rev); ok {
		t.history = append(t.history, a)
	}
}

// Baseline returns the first revision. It is the zero Action before the
// first call to Track.
func (t *Tracker) Baseline() model.Action {
	if len(t.history) == 0 {
		return model.Action{}
	}
	return t.history[0]
}

// Actions returns the accepted change actions after the baseline.
func (t *Tracker) Actions() []model.Action {
	if len(t.history) < 2 {
		return nil
	}
	return append([]model.Action(nil), t.history[1:]...)
}

// Compact re-runs deduplication over actions relative to baseline.
// Compacting an already compacted list returns it unchanged.
func Compact(baseline model.Action, actions []model.Action) []model.Action {
	history := []model.Action{baseline}
	for _, a := range actions {
		if kept, ok := Dedup(history, a); ok {
			history = append(history, kept)
		}
	}
	return history[1:]
}

// StateAt folds baseline and the first k actions into the item's state.
// Notes hold the most recent comment seen so far.
func StateAt(baseline model.Action, actions []model.Action, k int) model.Action {
	state := baseline
	state.Labels = model.Some(append([]string(nil), baseline.Labels.Value...))
	for i := 0; i < k && i < len(actions); i++ {
		actions[i].ApplyTo(&state)
	}
	return state
}
