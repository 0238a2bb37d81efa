// Package wikilink rewrites [[page#anchor|label]] links through the wiki's
// redirect table so they point at the page's current slug.
package wikilink

import (
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`\[\[([^\]\|]+)(\|[^\]\|]+)?\]\]`)

// Redirects maps an old page name or title to the page it moved to.
type Redirects map[string]string

// Add records a redirect. Self-redirects are ignored.
func (r Redirects) Add(from, to string) {
	if from == "" || from == to {
		return
	}
	r[from] = to
}

// Resolve follows redirects until a name without one is reached. A cycle
// stops at the last name before it would repeat.
func (r Redirects) Resolve(name string) string {
	seen := map[string]bool{name: true}
	for {
		next, ok := r[name]
		if !ok || seen[next] {
			return name
		}
		seen[next] = true
		name = next
	}
}

// Rewrite returns text with every wiki link's page part resolved. Anchors
// and labels are kept as written.
func (r Redirects) Rewrite(text string) string {
	if len(r) == 0 {
		return text
	}
	return linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		page, anchor, hasAnchor := strings.Cut(sub[1], "#")

		var b strings.Builder
		b.WriteString("[[")
		b.WriteString(r.Resolve(page))
		if hasAnchor {
			b.WriteByte('#')
			b.WriteString(anchor)
		}
		b.WriteString(sub[2])
		b.WriteString("]]")
		return b.String()
	})
}
