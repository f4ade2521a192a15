package transform

import (
	"fmt"
	"log/slog"
	"strings"
)

// knownJoinedFields are the fields whose source values arrive as
// arrays and are flattened into text on purpose (the destination
// columns are plain text).
var knownJoinedFields = map[string]bool{
	"author":       true,
	"translator":   true,
	"aka":          true,
	"director":     true,
	"screenwriter": true,
	"cast":         true,
	"genres":       true,
	"tags":         true,
}

// extractField resolves a descriptor against the raw object. A dotted
// NestedPath walks into nested maps; otherwise the value is looked up
// by SourceName. Missing or mistyped intermediate nodes yield nil,
// never a panic.
func extractField(raw map[string]any, desc FieldDescriptor) any {
	if raw == nil {
		return nil
	}
	if !strings.Contains(desc.NestedPath, ".") {
		return raw[desc.SourceName]
	}
	var current any = raw
	for _, part := range strings.Split(desc.NestedPath, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[part]
		if current == nil {
			return nil
		}
	}
	return current
}

// collapseValue flattens array values into a single joined string.
// Empty arrays collapse to "" so the field still counts as mapped.
func collapseValue(value any, desc FieldDescriptor) any {
	parts, isArray := toStringSlice(value)
	if !isArray {
		return value
	}
	if !knownJoinedFields[desc.SourceName] && !strings.Contains(desc.Notes, "joined") {
		slog.Debug("joining an array on a field not declared as joined",
			"field", desc.SourceName, "items", len(parts))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, joinSeparator)
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return parts, true
	}
	return nil, false
}

// mapFields runs every descriptor against the raw object. A missing
// required field is a warning and a failure counter bump, not an
// error: the rest of the record still comes through.
func mapFields(raw map[string]any, fields []FieldDescriptor, a *arena) map[string]any {
	data := make(map[string]any, len(fields))
	for _, desc := range fields {
		value := collapseValue(extractField(raw, desc), desc)
		if value == nil {
			if desc.Required {
				a.warnf("required field %q is missing from the source object", desc.SourceName)
				a.stats.FailedFields++
			}
			continue
		}
		data[desc.SourceName] = value
		a.stats.TransformedFields++
	}
	return data
}
