package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MichaelEischer/openproject-gitlab-migrator/core/db"
)

// fakeQuerier answers every query with the next canned result set.
type fakeQuerier struct {
	results [][][]any
	err     error
	queries []string
	args    [][]any
}

func (f *fakeQuerier) Query(_ context.Context, query string, args ...any) (db.Rows, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &fakeRows{}, nil
	}
	rows := f.results[0]
	f.results = f.results[1:]
	return &fakeRows{rows: rows, pos: -1}, nil
}

type fakeRows struct {
	rows   [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(row) != len(dest) {
		return fmt.Errorf("row has %d columns, scan wants %d", len(row), len(dest))
	}
	for i, v := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		if target.Kind() == reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(val)
			target.Set(p)
			continue
		}
		target.Set(val)
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     { r.closed = true }

var _ = Describe("Store", func() {
	var (
		ctx context.Context
		q   *fakeQuerier
		s   *Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		q = &fakeQuerier{}
		s = New(q)
	})

	It("scans users", func() {
		q.results = [][][]any{{
			{int64(1), "alice", "Alice", "Liddell", "alice@example.org", 1},
			{int64(2), "bob", "Bob", "Builder", "bob@example.org", 3},
		}}

		users, err := s.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(2))
		Expect(users[1]).To(Equal(UserRow{ID: 2, Login: "bob", FirstName: "Bob", LastName: "Builder", Mail: "bob@example.org", Status: 3}))
	})

	It("resolves a project identifier", func() {
		q.results = [][][]any{{{int64(7)}}}

		id, err := s.GetProjectID(ctx, "restic")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(7)))
		Expect(q.args[0]).To(Equal([]any{"restic"}))
	})

	It("reports unknown projects", func() {
		_, err := s.GetProjectID(ctx, "nope")
		Expect(errors.Is(err, ErrUnknownProject)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("nope"))
	})

	It("reports a missing wiki", func() {
		_, err := s.GetWikiID(ctx, 7)
		Expect(errors.Is(err, ErrNoWiki)).To(BeTrue())
	})

	It("scans nullable work package columns", func() {
		created := time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC)
		q.results = [][][]any{{
			{int64(5), "Subject", nil, int64(2), nil, nil, int64(1), int64(3), int64(2), created, nil, created, "note", int64(4)},
		}}

		revs, err := s.ListWorkPackageRevisions(ctx, 9)
		Expect(err).NotTo(HaveOccurred())
		Expect(revs).To(HaveLen(1))
		r := revs[0]
		Expect(r.Description).To(BeNil())
		Expect(*r.AssigneeID).To(Equal(int64(2)))
		Expect(r.VersionID).To(BeNil())
		Expect(*r.DueDate).To(Equal(created))
		Expect(*r.Notes).To(Equal("note"))
		Expect(*r.ParentID).To(Equal(int64(4)))
		Expect(q.queries[0]).To(ContainSubstring("ORDER BY j.journable_id ASC"))
		Expect(q.args[0]).To(Equal([]any{int64(9)}))
	})

	It("filters attachments by container type", func() {
		q.results = [][][]any{{{int64(11), int64(5), nil, "trace.log"}}}

		atts, err := s.ListAttachments(ctx, ContainerWorkPackage)
		Expect(err).NotTo(HaveOccurred())
		Expect(atts).To(Equal([]AttachmentRow{{ID: 11, ContainerID: 5, File: "trace.log"}}))
		Expect(q.args[0]).To(Equal([]any{"WorkPackage"}))
	})

	It("wraps query errors", func() {
		q.err = errors.New("connection reset")
		_, err := s.ListRelations(ctx)
		Expect(err).To(MatchError(ContainSubstring("listing relations: connection reset")))
	})

	It("wraps scan errors", func() {
		q.results = [][][]any{{{int64(1)}}}
		_, err := s.ListBoards(ctx, 1)
		Expect(err).To(MatchError(ContainSubstring("scanning row")))
	})
})
