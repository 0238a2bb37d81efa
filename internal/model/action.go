package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Attr names one deduplicated attribute of an Action.
type Attr int

const (
	AttrTitle Attr = iota
	AttrDescription
	AttrAssignee
	AttrMilestone
	AttrLabels
	AttrClosed
	AttrStartDate
	AttrDueDate
	AttrNotes
)

// Attrs lists every attribute in document key order.
var Attrs = []Attr{
	AttrTitle, AttrDescription, AttrAssignee, AttrMilestone, AttrLabels,
	AttrClosed, AttrStartDate, AttrDueDate, AttrNotes,
}

var attrKeys = [...]string{
	AttrTitle:       "title",
	AttrDescription: "description",
	AttrAssignee:    "assignee_id",
	AttrMilestone:   "milestone_id",
	AttrLabels:      "labels",
	AttrClosed:      "is_closed",
	AttrStartDate:   "start_date",
	AttrDueDate:     "due_date",
	AttrNotes:       "notes",
}

func (a Attr) String() string {
	if a < 0 || int(a) >= len(attrKeys) {
		return fmt.Sprintf("Attr(%d)", int(a))
	}
	return attrKeys[a]
}

// Action is one revision of a work item reduced to the attributes it
// changed. Author and CreatedAt are always present and never deduplicated.
type Action struct {
	Author    string
	CreatedAt time.Time

	Title       Opt[string]
	Description Opt[*string]
	AssigneeID  Opt[*string] // login
	MilestoneID Opt[*string]
	Labels      Opt[[]string]
	IsClosed    Opt[bool]
	StartDate   Opt[*Date]
	DueDate     Opt[*Date]
	Notes       Opt[string]

	// Attachments only appear on board replies.
	Attachments []Attachment
}

func (a *Action) Has(k Attr) bool {
	switch k {
	case AttrTitle:
		return a.Title.Set
	case AttrDescription:
		return a.Description.Set
	case AttrAssignee:
		return a.AssigneeID.Set
	case AttrMilestone:
		return a.MilestoneID.Set
	case AttrLabels:
		return a.Labels.Set
	case AttrClosed:
		return a.IsClosed.Set
	case AttrStartDate:
		return a.StartDate.Set
	case AttrDueDate:
		return a.DueDate.Set
	case AttrNotes:
		return a.Notes.Set
	}
	return false
}

func (a *Action) Clear(k Attr) {
	switch k {
	case AttrTitle:
		a.Title = Opt[string]{}
	case AttrDescription:
		a.Description = Opt[*string]{}
	case AttrAssignee:
		a.AssigneeID = Opt[*string]{}
	case AttrMilestone:
		a.MilestoneID = Opt[*string]{}
	case AttrLabels:
		a.Labels = Opt[[]string]{}
	case AttrClosed:
		a.IsClosed = Opt[bool]{}
	case AttrStartDate:
		a.StartDate = Opt[*Date]{}
	case AttrDueDate:
		a.DueDate = Opt[*Date]{}
	case AttrNotes:
		a.Notes = Opt[string]{}
	}
}

// Same reports whether a and b both carry k with equal values.
func (a *Action) Same(k Attr, b *Action) bool {
	if !a.Has(k) || !b.Has(k) {
		return false
	}
	switch k {
	case AttrTitle:
		return a.Title.Value == b.Title.Value
	case AttrDescription:
		return ptrEqual(a.Description.Value, b.Description.Value)
	case AttrAssignee:
		return ptrEqual(a.AssigneeID.Value, b.AssigneeID.Value)
	case AttrMilestone:
		return ptrEqual(a.MilestoneID.Value, b.MilestoneID.Value)
	case AttrLabels:
		return slices.Equal(a.Labels.Value, b.Labels.Value)
	case AttrClosed:
		return a.IsClosed.Value == b.IsClosed.Value
	case AttrStartDate:
		return ptrEqual(a.StartDate.Value, b.StartDate.Value)
	case AttrDueDate:
		return ptrEqual(a.DueDate.Value, b.DueDate.Value)
	case AttrNotes:
		return a.Notes.Value == b.Notes.Value
	}
	return false
}

// Keys returns the attributes present on a, in document order.
func (a *Action) Keys() []Attr {
	var keys []Attr
	for _, k := range Attrs {
		if a.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Empty reports whether only the protected attributes remain.
func (a *Action) Empty() bool {
	return len(a.Keys()) == 0 && len(a.Attachments) == 0
}

// OnlyNotes reports whether the action is a pure comment.
func (a *Action) OnlyNotes() bool {
	keys := a.Keys()
	return len(keys) == 1 && keys[0] == AttrNotes
}

// ApplyTo copies every attribute present on a onto dst. Notes are carried
// like any other attribute so that folding reproduces the latest comment.
func (a *Action) ApplyTo(dst *Action) {
	dst.Author = a.Author
	dst.CreatedAt = a.CreatedAt
	if a.Title.Set {
		dst.Title = a.Title
	}
	if a.Description.Set {
		dst.Description = a.Description
	}
	if a.AssigneeID.Set {
		dst.AssigneeID = a.AssigneeID
	}
	if a.MilestoneID.Set {
		dst.MilestoneID = a.MilestoneID
	}
	if a.Labels.Set {
		dst.Labels = Some(slices.Clone(a.Labels.Value))
	}
	if a.IsClosed.Set {
		dst.IsClosed = a.IsClosed
	}
	if a.StartDate.Set {
		dst.StartDate = a.StartDate
	}
	if a.DueDate.Set {
		dst.DueDate = a.DueDate
	}
	if a.Notes.Set {
		dst.Notes = a.Notes
	}
}

type keyValue struct {
	Key   string
	Value any
}

// MarshalJSON writes the protected attributes first and then only the
// attributes that are present, in document order.
func (a Action) MarshalJSON() ([]byte, error) {
	kvs := []keyValue{
		{"author_id", a.Author},
		{"created_at", a.CreatedAt},
	}
	for _, k := range a.Keys() {
		kvs = append(kvs, keyValue{k.String(), a.value(k)})
	}
	if len(a.Attachments) > 0 {
		kvs = append(kvs, keyValue{"attachments", a.Attachments})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range kvs {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", kv.Key, err)
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Action) value(k Attr) any {
	switch k {
	case AttrTitle:
		return a.Title.Value
	case AttrDescription:
		return a.Description.Value
	case AttrAssignee:
		return a.AssigneeID.Value
	case AttrMilestone:
		return a.MilestoneID.Value
	case AttrLabels:
		if a.Labels.Value == nil {
			return []string{}
		}
		return a.Labels.Value
	case AttrClosed:
		return a.IsClosed.Value
	case AttrStartDate:
		return a.StartDate.Value
	case AttrDueDate:
		return a.DueDate.Value
	case AttrNotes:
		return a.Notes.Value
	}
	return nil
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var out Action
	if v, ok := raw["author_id"]; ok {
		if err := json.Unmarshal(v, &out.Author); err != nil {
			return fmt.Errorf("decoding author_id: %w", err)
		}
	}
	if v, ok := raw["created_at"]; ok {
		if err := json.Unmarshal(v, &out.CreatedAt); err != nil {
			return fmt.Errorf("decoding created_at: %w", err)
		}
	}

	fields := []struct {
		key string
		dst any
		set *bool
	}{
		{"title", &out.Title.Value, &out.Title.Set},
		{"description", &out.Description.Value, &out.Description.Set},
		{"assignee_id", &out.AssigneeID.Value, &out.AssigneeID.Set},
		{"milestone_id", &out.MilestoneID.Value, &out.MilestoneID.Set},
		{"labels", &out.Labels.Value, &out.Labels.Set},
		{"is_closed", &out.IsClosed.Value, &out.IsClosed.Set},
		{"start_date", &out.StartDate.Value, &out.StartDate.Set},
		{"due_date", &out.DueDate.Value, &out.DueDate.Set},
		{"notes", &out.Notes.Value, &out.Notes.Set},
		{"attachments", &out.Attachments, new(bool)},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("decoding %s: %w", f.key, err)
		}
		*f.set = true
	}

	*a = out
	return nil
}
