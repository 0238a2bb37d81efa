package model

import (
	"github.com/invopop/jsonschema"
)

// Schema describes the document file for editors and validators.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&Document{})
	s.Title = "OpenProject migration document"
	return s
}

func nullable(s *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{OneOf: []*jsonschema.Schema{s, {Type: "null"}}}
}

func (Date) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Format: "date"}
}

func (Relation) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		PrefixItems: []*jsonschema.Schema{
			{Type: "string", Description: "relation verb, inverse relations end in _inv"},
			{Type: "string", Description: "source id of the related work item"},
		},
		Items: jsonschema.FalseSchema,
	}
}

func (Action) JSONSchema() *jsonschema.Schema {
	str := &jsonschema.Schema{Type: "string"}
	date := Date{}.JSONSchema()

	props := jsonschema.NewProperties()
	props.Set("author_id", &jsonschema.Schema{Type: "string", Description: "login of the revision author"})
	props.Set("created_at", &jsonschema.Schema{Type: "string", Format: "date-time"})
	props.Set("title", str)
	props.Set("description", nullable(str))
	props.Set("assignee_id", nullable(str))
	props.Set("milestone_id", nullable(str))
	props.Set("labels", &jsonschema.Schema{Type: "array", Items: str})
	props.Set("is_closed", &jsonschema.Schema{Type: "boolean"})
	props.Set("start_date", nullable(date))
	props.Set("due_date", nullable(date))
	props.Set("notes", str)
	props.Set("attachments", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "object"}})

	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "sparse revision: only changed attributes are present",
		Properties:           props,
		Required:             []string{"author_id", "created_at"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}
