package identity

import (
	"sort"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// Milestones maps source milestone ids to target milestone ids. Matching
// is by exact title.
type Milestones struct {
	ids map[string]int64
}

// MapMilestones pairs source milestones with target milestones of the same
// title. It returns the titles that have no target counterpart, sorted.
func MapMilestones(source map[string]model.Milestone, targetByTitle map[string]int64) (*Milestones, []string) {
	m := &Milestones{ids: map[string]int64{}}
	var missing []string
	for id, ms := range source {
		tid, ok := targetByTitle[ms.Title]
		if !ok {
			missing = append(missing, ms.Title)
			continue
		}
		m.ids[id] = tid
	}
	sort.Strings(missing)
	return m, missing
}

func (m *Milestones) Lookup(sourceID string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	id, ok := m.ids[sourceID]
	return id, ok
}
