// Package identity maps source users and milestones onto target ids.
package identity

import (
	"slices"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// Users maps logins to target user ids. Unknown logins resolve to a
// default id and are remembered for reporting.
type Users struct {
	ids       map[string]int64
	defaultID int64
	misses    map[string]struct{}
}

func NewUsers(ids map[string]int64, defaultID int64) *Users {
	return &Users{ids: ids, defaultID: defaultID, misses: map[string]struct{}{}}
}

// Lookup returns the target id for login, or the default id.
func (u *Users) Lookup(login string) int64 {
	if id, ok := u.ids[login]; ok {
		return id
	}
	u.misses[login] = struct{}{}
	return u.defaultID
}

// Known returns the target id only if login exists on the target.
func (u *Users) Known(login string) (int64, bool) {
	id, ok := u.ids[login]
	return id, ok
}

// Misses returns every login that fell back to the default id, sorted.
func (u *Users) Misses() []string {
	out := make([]string, 0, len(u.misses))
	for login := range u.misses {
		out = append(out, login)
	}
	slices.Sort(out)
	return out
}

// Unknown returns the logins that have no target account, sorted.
func (u *Users) Unknown(logins []string) []string {
	var out []string
	for _, login := range logins {
		if _, ok := u.ids[login]; !ok {
			out = append(out, login)
		}
	}
	slices.Sort(out)
	return out
}

// Referenced collects every login an issues or boards replay would use:
// authors, assignees and watchers of each item and of each of its actions.
func Referenced(doc *model.Document) []string {
	set := map[string]struct{}{}
	add := func(login *string) {
		if login != nil && *login != "" {
			set[*login] = struct{}{}
		}
	}
	collect := func(issues map[string]model.Issue) {
		for _, issue := range issues {
			add(&issue.Author)
			add(issue.AssigneeID)
			for _, w := range issue.Watchers {
				add(&w)
			}
			for _, a := range issue.Actions {
				add(&a.Author)
				if a.AssigneeID.Set {
					add(a.AssigneeID.Value)
				}
			}
		}
	}

	collect(doc.Issues)
	for _, b := range doc.Boards {
		collect(b.Issues)
	}

	out := make([]string, 0, len(set))
	for login := range set {
		out = append(out, login)
	}
	slices.Sort(out)
	return out
}

// ReferencedInWiki collects the authors of all wiki versions.
func ReferencedInWiki(doc *model.Document) []string {
	set := map[string]struct{}{}
	for _, page := range doc.Wiki {
		for _, v := range page.Versions {
			set[v.Author] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for login := range set {
		out = append(out, login)
	}
	slices.Sort(out)
	return out
}
