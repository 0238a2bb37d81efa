package replay_test

import (
	"context"
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
)

var _ = Describe("Replayer.Wiki", func() {
	var (
		target *fakeTarget
		doc    *model.Document
		opts   replay.Options
	)

	BeforeEach(func() {
		target = newFakeTarget()
		target.users = map[string]int64{"alice": 11, "bob": 12}
		doc = model.NewDocument()
		opts = replay.Options{DefaultUserID: 1}
	})

	It("creates then edits pages under each version's author", func() {
		doc.Wiki["3"] = model.WikiPage{Slug: "Home", Title: "Home", Versions: []model.WikiVersion{
			{Author: "alice", CreatedAt: at(1), Text: "v1"},
			{Author: "bob", CreatedAt: at(2), Text: "v2"},
		}}

		res, err := replay.New(target, opts).Wiki(context.Background(), doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Pages).To(Equal(1))
		Expect(res.Versions).To(Equal(2))
		Expect(target.wiki["Home"]).To(Equal([]string{"v1", "v2"}))
		Expect(target.calls).To(Equal([]call{
			{Op: "wiki.create", Sudo: 11, Body: "Home"},
			{Op: "wiki.edit", Sudo: 12, Body: "Home"},
		}))
	})

	It("skips versions identical to the previous one", func() {
		doc.Wiki["3"] = model.WikiPage{Slug: "Home", Versions: []model.WikiVersion{
			{Author: "alice", Text: "same"},
			{Author: "bob", Text: "same"},
			{Author: "alice", Text: "changed"},
		}}

		res, err := replay.New(target, opts).Wiki(context.Background(), doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Skipped).To(Equal(1))
		Expect(target.wiki["Home"]).To(Equal([]string{"same", "changed"}))
	})

	It("uploads page attachments once and appends them to every version", func() {
		opts.Attachments = fstest.MapFS{"9/a.png": {Data: []byte("png")}}
		doc.Wiki["3"] = model.WikiPage{
			Slug:        "Home",
			Versions:    []model.WikiVersion{{Author: "alice", Text: "v1"}, {Author: "alice", Text: "v2"}},
			Attachments: []model.Attachment{{AttachmentID: "9", File: "a.png", Description: "logo"}},
		}

		_, err := replay.New(target, opts).Wiki(context.Background(), doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(target.ops("upload")).To(HaveLen(1))
		suffix := "\n\n###### Attachments\n- a.png: logo\n  ![a.png](/uploads/x/a.png)"
		Expect(target.wiki["Home"]).To(Equal([]string{"v1" + suffix, "v2" + suffix}))
	})

	It("warns about unknown authors before writing pages", func() {
		warnings := recordWarnings(target)
		doc.Wiki["1"] = model.WikiPage{Slug: "Old", Versions: []model.WikiVersion{{Author: "zed", Text: "x"}}}

		_, err := replay.New(target, opts).Wiki(context.Background(), doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings.warns).To(ContainElement(warnRecord{Message: "unknown user", Login: "zed", CallsBefore: 0}))
	})

	It("falls back to the default user for unknown authors", func() {
		doc.Wiki["1"] = model.WikiPage{Slug: "Old", Versions: []model.WikiVersion{{Author: "zed", Text: "x"}}}

		res, err := replay.New(target, opts).Wiki(context.Background(), doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.UnknownUsers).To(Equal([]string{"zed"}))
		Expect(target.calls[0].Sudo).To(Equal(int64(1)))
	})
})
