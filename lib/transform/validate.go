package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// validateFields nulls out values that fail their field type's rule
// and records a warning naming the offence. A failed validation does
// not touch the transform counters: the field was mapped, its value
// just cannot be trusted.
func validateFields(data map[string]any, fields []FieldDescriptor, ct ContentType, a *arena) {
	for _, desc := range fields {
		value, present := data[desc.SourceName]
		if !present || value == nil {
			continue
		}
		switch desc.Type {
		case FieldTypeSingleSelect:
			validateSingleSelect(data, desc, value, ct, a)
		case FieldTypeRating:
			validateRating(data, desc, value, a)
		case FieldTypeDatetime:
			validateDatetime(data, desc, value, a)
		case FieldTypeText, FieldTypeNumber, FieldTypeMultiSelect, FieldTypeCheckbox, FieldTypeURL:
			// no rule for these yet
		}
	}
}

func validateSingleSelect(data map[string]any, desc FieldDescriptor, value any, ct ContentType, a *arena) {
	accepted := statusValues[ct]
	if text, ok := value.(string); ok {
		for _, candidate := range accepted {
			if text == candidate {
				return
			}
		}
	}
	data[desc.SourceName] = nil
	a.warnf("field %q has value %v outside the accepted set %v", desc.SourceName, value, accepted)
}

// validateRating coerces to a number and keeps it only inside the
// five-star range.
func validateRating(data map[string]any, desc FieldDescriptor, value any, a *arena) {
	number, ok := toFloat(value)
	if !ok || math.IsNaN(number) || number < 1 || number > 5 {
		data[desc.SourceName] = nil
		a.warnf("field %q has rating %v outside [1, 5]", desc.SourceName, value)
		return
	}
	data[desc.SourceName] = number
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validateDatetime accepts calendar-valid YYYY-MM-DD strings only.
// The shape check runs first so time.Parse never sees loose formats
// it would normalize instead of rejecting.
func validateDatetime(data map[string]any, desc FieldDescriptor, value any, a *arena) {
	text, ok := value.(string)
	if !ok {
		data[desc.SourceName] = nil
		a.warnf("field %q must be a YYYY-MM-DD string, got %T", desc.SourceName, value)
		return
	}
	if !datePattern.MatchString(text) {
		data[desc.SourceName] = nil
		a.warnf("field %q has malformed date %q", desc.SourceName, text)
		return
	}
	if _, err := time.Parse("2006-01-02", text); err != nil {
		data[desc.SourceName] = nil
		a.warnf("field %q has impossible date %q", desc.SourceName, text)
	}
}
