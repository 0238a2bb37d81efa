package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Extraction and replay enrich the context as they descend into projects, items and
// pages so that every log line carries where it came from.
type LogFields struct {
	RunID     *string // Snowflake id of the current invocation
	Project   *string // Source project identifier or target project path
	Phase     *string // e.g. "extract", "issues", "wiki", "check-users"
	ItemID    *string // Source work package / board message id
	PageID    *string // Source wiki page id
	Component string  // Component name, e.g. "migrator.replay.sequencer"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.Project != nil {
		result.Project = new.Project
	}
	if new.Phase != nil {
		result.Phase = new.Phase
	}
	if new.ItemID != nil {
		result.ItemID = new.ItemID
	}
	if new.PageID != nil {
		result.PageID = new.PageID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
