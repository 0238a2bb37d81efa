package replay_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
)

var _ = Describe("Sequencer", func() {
	var (
		ctx    context.Context
		target *fakeTarget
		seq    *replay.Sequencer
	)

	BeforeEach(func() {
		ctx = context.Background()
		target = newFakeTarget()
		seq = replay.NewSequencer(target)
	})

	It("does nothing when the next number is already free", func() {
		Expect(seq.Advance(ctx, 1)).To(Succeed())
		Expect(target.calls).To(BeEmpty())
		Expect(seq.Placeholders()).To(Equal(0))
	})

	It("burns the gap with created and deleted placeholders", func() {
		Expect(seq.Advance(ctx, 4)).To(Succeed())
		Expect(seq.Last()).To(Equal(int64(3)))
		Expect(seq.Placeholders()).To(Equal(3))
		Expect(target.ops("placeholder")).To(HaveLen(3))
		Expect(target.ops("delete")).To(HaveLen(3))
		for _, is := range target.issues {
			Expect(is.deleted).To(BeTrue())
			Expect(is.title).To(Equal("TMP"))
		}
	})

	It("fails when a placeholder lands on or past the reserved number", func() {
		target.next = 7
		err := seq.Advance(ctx, 3)
		Expect(err).To(MatchError(replay.ErrTargetNotEmpty))
		Expect(target.issues[7].deleted).To(BeTrue())
	})

	It("fails when the sequence does not advance", func() {
		target.numbers = []int64{2, 2}
		err := seq.Advance(ctx, 5)
		Expect(err).To(MatchError(replay.ErrSequenceRegression))
		Expect(seq.Last()).To(Equal(int64(2)))
	})

	It("checks the committed number", func() {
		Expect(seq.Commit(2, replay.Ref{IID: 2})).To(Succeed())
		Expect(seq.Last()).To(Equal(int64(2)))
		Expect(seq.Commit(3, replay.Ref{IID: 4})).To(MatchError(replay.ErrIdentifierMismatch))
	})
})
