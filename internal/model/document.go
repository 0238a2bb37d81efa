package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Document is the intermediate file exchanged between extraction and
// replay. Every map is keyed by the source id rendered as a decimal string.
type Document struct {
	Users      map[string]User      `json:"users"`
	Milestones map[string]Milestone `json:"milestones"`
	Issues     map[string]Issue     `json:"issues"`
	Boards     map[string]Board     `json:"boards"`
	Wiki       map[string]WikiPage  `json:"wiki"`
}

func NewDocument() *Document {
	return &Document{
		Users:      map[string]User{},
		Milestones: map[string]Milestone{},
		Issues:     map[string]Issue{},
		Boards:     map[string]Board{},
		Wiki:       map[string]WikiPage{},
	}
}

type User struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Mail     string `json:"mail"`
	IsLocked bool   `json:"is_locked"`
}

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   *Date  `json:"start_date"`
	DueDate     *Date  `json:"due_date"`
	IsClosed    bool   `json:"is_closed"`
}

// Issue is a work item: its first revision plus the compacted history.
type Issue struct {
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Author      string       `json:"author_id"`
	AssigneeID  *string      `json:"assignee_id"`
	MilestoneID *string      `json:"milestone_id"`
	Labels      []string     `json:"labels"`
	IsClosed    bool         `json:"is_closed"`
	CreatedAt   time.Time    `json:"created_at"`
	StartDate   *Date        `json:"start_date"`
	DueDate     *Date        `json:"due_date"`
	Actions     []Action     `json:"actions"`
	Watchers    []string     `json:"watcher_ids"`
	Relations   []Relation   `json:"relations"`
	Attachments []Attachment `json:"attachments"`
}

// Baseline returns the issue's first revision as an action carrying every
// attribute.
func (i *Issue) Baseline() Action {
	return Action{
		Author:      i.Author,
		CreatedAt:   i.CreatedAt,
		Title:       Some(i.Title),
		Description: Some(i.Description),
		AssigneeID:  Some(i.AssigneeID),
		MilestoneID: Some(i.MilestoneID),
		Labels:      Some(slices.Clone(i.Labels)),
		IsClosed:    Some(i.IsClosed),
		StartDate:   Some(i.StartDate),
		DueDate:     Some(i.DueDate),
	}
}

// IssueFromBaseline is the inverse of Baseline.
func IssueFromBaseline(a Action) Issue {
	return Issue{
		Title:       a.Title.Value,
		Description: a.Description.Value,
		Author:      a.Author,
		AssigneeID:  a.AssigneeID.Value,
		MilestoneID: a.MilestoneID.Value,
		Labels:      slices.Clone(a.Labels.Value),
		IsClosed:    a.IsClosed.Value,
		CreatedAt:   a.CreatedAt,
		StartDate:   a.StartDate.Value,
		DueDate:     a.DueDate.Value,
	}
}

type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	ContainerID  string `json:"issue_id"`
	Description  string `json:"description"`
	File         string `json:"file"`
}

// Relation is a (verb, source id) pair, encoded as a two-element array.
type Relation struct {
	Verb string
	ID   string
}

const InverseSuffix = "_inv"

// Inverse returns the mirrored relation as seen from the other end.
func (r Relation) Inverse(from string) Relation {
	return Relation{Verb: r.Verb + InverseSuffix, ID: from}
}

func (r Relation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Verb, r.ID})
}

func (r *Relation) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("relation must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Verb); err != nil {
		return fmt.Errorf("decoding relation verb: %w", err)
	}
	// older documents store the id as a number
	var n int64
	if err := json.Unmarshal(pair[1], &n); err == nil {
		r.ID = strconv.FormatInt(n, 10)
		return nil
	}
	if err := json.Unmarshal(pair[1], &r.ID); err != nil {
		return fmt.Errorf("decoding relation id: %w", err)
	}
	return nil
}

// Board groups discussion topics; each topic is an Issue whose replies are
// note-only actions.
type Board struct {
	Name   string           `json:"name"`
	Issues map[string]Issue `json:"issues"`
}

type WikiPage struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Versions    []WikiVersion `json:"versions"`
	Attachments []Attachment  `json:"attachments"`
}

type WikiVersion struct {
	Author    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// SortedIDs returns the keys of m ordered numerically. Keys that are not
// numbers sort after all numeric keys, lexically.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for k := range m {
		ids = append(ids, k)
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
