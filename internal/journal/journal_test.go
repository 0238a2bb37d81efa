package journal

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

var t0 = time.Date(2018, 6, 1, 9, 0, 0, 0, time.UTC)

// revision builds a full-state revision row as extraction produces it.
func revision(author string, minutes int, mutate func(*model.Action)) model.Action {
	desc := "initial description"
	start := model.Date{Year: 2018, Month: time.June, Day: 1}
	a := model.Action{
		Author:      author,
		CreatedAt:   t0.Add(time.Duration(minutes) * time.Minute),
		Title:       model.Some("Crash on save"),
		Description: model.Some(&desc),
		AssigneeID:  model.Some[*string](nil),
		MilestoneID: model.Some[*string](nil),
		Labels:      model.Some([]string{"Bug"}),
		IsClosed:    model.Some(false),
		StartDate:   model.Some(&start),
		DueDate:     model.Some[*model.Date](nil),
		Notes:       model.Some(""),
	}
	if mutate != nil {
		mutate(&a)
	}
	return a
}

func closeIt(a *model.Action) { a.IsClosed = model.Some(true) }

var _ = Describe("Tracker", func() {
	var tracker *Tracker

	BeforeEach(func() {
		tracker = NewTracker(Options{SuppressStartDate: true})
	})

	It("keeps a single action for a status change followed by a repeat", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 5, closeIt))
		tracker.Track(revision("carol", 10, closeIt))

		actions := tracker.Actions()
		Expect(actions).To(HaveLen(1))
		Expect(actions[0].Author).To(Equal("bob"))
		Expect(actions[0].CreatedAt).To(Equal(t0.Add(5 * time.Minute)))
		Expect(actions[0].Keys()).To(Equal([]model.Attr{model.AttrClosed}))
		Expect(actions[0].IsClosed.Value).To(BeTrue())
	})

	It("uses the first revision as baseline", func() {
		tracker.Track(revision("alice", 0, nil))
		base := tracker.Baseline()
		Expect(base.Author).To(Equal("alice"))
		Expect(base.Title.Value).To(Equal("Crash on save"))
		Expect(base.Notes.Set).To(BeFalse())
		Expect(base.StartDate.Set).To(BeTrue())
	})

	It("keeps notes of the first revision as a note-only action", func() {
		tracker.Track(revision("alice", 0, func(a *model.Action) { a.Notes = model.Some("see attached log") }))

		Expect(tracker.Baseline().Notes.Set).To(BeFalse())
		actions := tracker.Actions()
		Expect(actions).To(HaveLen(1))
		Expect(actions[0].OnlyNotes()).To(BeTrue())
		Expect(actions[0].Author).To(Equal("alice"))
		Expect(actions[0].CreatedAt).To(Equal(t0))
		Expect(actions[0].Notes.Value).To(Equal("see attached log"))
	})

	It("appends nothing for a revision identical to its predecessor", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("alice", 1, nil))
		Expect(tracker.Actions()).To(BeEmpty())
	})

	It("drops empty notes but keeps the other changes of that revision", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 1, func(a *model.Action) {
			a.Title = model.Some("Crash on save (Windows)")
		}))

		actions := tracker.Actions()
		Expect(actions).To(HaveLen(1))
		Expect(actions[0].Has(model.AttrNotes)).To(BeFalse())
		Expect(actions[0].Title.Value).To(Equal("Crash on save (Windows)"))
	})

	It("records comments as note-only actions", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 1, func(a *model.Action) { a.Notes = model.Some("reproduced") }))

		actions := tracker.Actions()
		Expect(actions).To(HaveLen(1))
		Expect(actions[0].OnlyNotes()).To(BeTrue())
	})

	It("suppresses start date changes after the baseline", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 1, func(a *model.Action) {
			later := model.Date{Year: 2018, Month: time.July, Day: 1}
			a.StartDate = model.Some(&later)
		}))
		Expect(tracker.Actions()).To(BeEmpty())
	})

	It("keeps start date changes when suppression is off", func() {
		tracker = NewTracker(Options{})
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 1, func(a *model.Action) {
			later := model.Date{Year: 2018, Month: time.July, Day: 1}
			a.StartDate = model.Some(&later)
		}))
		Expect(tracker.Actions()).To(HaveLen(1))
		Expect(tracker.Actions()[0].Keys()).To(Equal([]model.Attr{model.AttrStartDate}))
	})

	It("compares against the most recent occurrence, not the baseline", func() {
		tracker.Track(revision("alice", 0, nil))
		tracker.Track(revision("bob", 1, closeIt))
		tracker.Track(revision("carol", 2, nil))

		actions := tracker.Actions()
		Expect(actions).To(HaveLen(2))
		Expect(actions[1].IsClosed.Value).To(BeFalse())
	})

	It("keeps a comment written together with the first revision", func() {
		tracker.Track(revision("alice", 0, func(a *model.Action) { a.Notes = model.Some("imported") }))
		Expect(tracker.Baseline().Notes.Set).To(BeFalse())
		Expect(tracker.Actions()).To(HaveLen(1))
		Expect(tracker.Actions()[0].Notes.Value).To(Equal("imported"))
	})
})

var _ = Describe("Compact", func() {
	var (
		raw      []model.Action
		baseline model.Action
		actions  []model.Action
	)

	BeforeEach(func() {
		other := "rewritten"
		raw = []model.Action{
			revision("alice", 0, nil),
			revision("bob", 1, closeIt),
			revision("bob", 2, closeIt),
			revision("carol", 3, func(a *model.Action) {
				a.IsClosed = model.Some(true)
				a.Description = model.Some(&other)
				a.Labels = model.Some([]string{"Bug", "rejected"})
			}),
			revision("dave", 4, func(a *model.Action) {
				a.Description = model.Some(&other)
				a.Notes = model.Some("reopening")
			}),
		}
		tracker := NewTracker(Options{SuppressStartDate: true})
		for _, r := range raw {
			tracker.Track(r)
		}
		baseline = tracker.Baseline()
		actions = tracker.Actions()
	})

	It("is idempotent", func() {
		Expect(actions).To(HaveLen(3))
		Expect(Compact(baseline, actions)).To(Equal(actions))
		Expect(Compact(baseline, Compact(baseline, actions))).To(Equal(actions))
	})

	It("reproduces every raw revision's state by folding", func() {
		// raw revision index -> number of compacted actions at or before it
		accepted := []int{0, 1, 1, 2, 3}
		for i, r := range raw {
			state := StateAt(baseline, actions, accepted[i])
			for _, k := range []model.Attr{
				model.AttrTitle, model.AttrDescription, model.AttrAssignee, model.AttrMilestone,
				model.AttrLabels, model.AttrClosed, model.AttrDueDate,
			} {
				Expect(state.Same(k, &r)).To(BeTrue(), "revision %d attribute %s", i, k)
			}
		}
	})

	It("drops actions that became redundant", func() {
		redundant := append([]model.Action{}, actions...)
		redundant = append(redundant, model.Action{Author: "eve", CreatedAt: t0, IsClosed: model.Some(false)})
		Expect(Compact(baseline, redundant)).To(Equal(actions))
	})
})

var _ = Describe("Dedup", func() {
	It("reports false for a pure no-op", func() {
		base := revision("alice", 0, nil)
		base.Clear(model.AttrNotes)
		_, ok := Dedup([]model.Action{base}, model.Action{Author: "bob", CreatedAt: t0, Title: model.Some("Crash on save")})
		Expect(ok).To(BeFalse())
	})

	It("keeps attributes never seen before", func() {
		a, ok := Dedup(nil, model.Action{Author: "bob", CreatedAt: t0, Notes: model.Some("hi")})
		Expect(ok).To(BeTrue())
		Expect(a.Notes.Value).To(Equal("hi"))
	})
})
