// Package rules holds the site-specific conventions applied while turning
// OpenProject data into the migration document.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type Rules struct {
	// StatusLabels are status names that additionally become a label.
	StatusLabels []string `yaml:"status_labels"`
	// ExcludedTypes are work package types that do not become a label.
	ExcludedTypes []string `yaml:"excluded_types"`
	// UserStatuses are the OpenProject user statuses that are migrated.
	UserStatuses []int `yaml:"user_statuses"`
	LockedStatus int   `yaml:"locked_status"`
	// GhostLogin replaces references to users that are not migrated.
	GhostLogin string `yaml:"ghost_login"`

	MeetingSlugLayout    string `yaml:"meeting_slug_layout"`
	BoardMilestonePrefix string `yaml:"board_milestone_prefix"`
	DiscussionLabel      string `yaml:"discussion_label"`

	SuppressStartDateHistory bool `yaml:"suppress_start_date_history"`
}

func Default() Rules {
	return Rules{
		StatusLabels:             []string{"rejected"},
		ExcludedTypes:            []string{"none"},
		UserStatuses:             []int{1, 3},
		LockedStatus:             3,
		GhostLogin:               "ghost",
		MeetingSlugLayout:        "meeting_2006-01-02",
		BoardMilestonePrefix:     "Board-",
		DiscussionLabel:          "discussion",
		SuppressStartDateHistory: true,
	}
}

// Load reads rules from a YAML file. Keys missing from the file keep their
// default. An empty path returns Default().
func Load(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return r, nil
}

func Parse(data []byte) (Rules, error) {
	r := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, err
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) Validate() error {
	if len(r.UserStatuses) == 0 {
		return errors.New("user_statuses must not be empty")
	}
	if r.MeetingSlugLayout == "" {
		return errors.New("meeting_slug_layout must not be empty")
	}
	if r.GhostLogin == "" {
		return errors.New("ghost_login must not be empty")
	}
	return nil
}

// StatusLabel returns the label implied by a status name, if any.
func (r Rules) StatusLabel(status string) (string, bool) {
	for _, s := range r.StatusLabels {
		if strings.EqualFold(s, status) {
			return s, true
		}
	}
	return "", false
}

func (r Rules) TypeExcluded(name string) bool {
	return slices.ContainsFunc(r.ExcludedTypes, func(t string) bool {
		return strings.EqualFold(t, name)
	})
}

func (r Rules) Locked(status int) bool {
	return status == r.LockedStatus
}

func (r Rules) BoardMilestone(board string) string {
	return r.BoardMilestonePrefix + board
}
