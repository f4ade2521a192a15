package transform

import "fmt"

// FieldType is the closed set of destination column types. The
// validator switches over it exhaustively, so adding a type means
// deciding its validation rule.
type FieldType int

const (
	FieldTypeText FieldType = iota
	FieldTypeNumber
	FieldTypeRating
	FieldTypeSingleSelect
	FieldTypeMultiSelect
	FieldTypeDatetime
	FieldTypeCheckbox
	FieldTypeURL
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "text"
	case FieldTypeNumber:
		return "number"
	case FieldTypeRating:
		return "rating"
	case FieldTypeSingleSelect:
		return "singleSelect"
	case FieldTypeMultiSelect:
		return "multiSelect"
	case FieldTypeDatetime:
		return "datetime"
	case FieldTypeCheckbox:
		return "checkbox"
	case FieldTypeURL:
		return "url"
	}
	return "unknown"
}

// ContentType selects which field table and repair rules apply.
type ContentType string

const (
	ContentTypeBooks       ContentType = "books"
	ContentTypeMovies      ContentType = "movies"
	ContentTypeTV          ContentType = "tv"
	ContentTypeDocumentary ContentType = "documentary"
)

// FieldDescriptor describes how one destination field is sourced,
// typed and (optionally) nested inside the raw scraped object. Tables
// of these are defined once at process start and never mutated.
type FieldDescriptor struct {
	SourceName  string
	DisplayName string
	Type        FieldType
	Required    bool
	NestedPath  string
	Notes       string
}

// Options tunes a single Transform call. The zero value is the
// default behavior: repairs on, strict validation on, raw echo off.
type Options struct {
	DisableRepairs    bool
	DisableValidation bool
	PreserveRawData   bool
}

type Stats struct {
	TotalFields       uint `json:"totalFields"`
	TransformedFields uint `json:"transformedFields"`
	RepairedFields    uint `json:"repairedFields"`
	FailedFields      uint `json:"failedFields"`
}

type Result struct {
	Data       map[string]any `json:"data"`
	Statistics Stats          `json:"stats"`
	Warnings   []string       `json:"warnings,omitempty"`
	RawData    map[string]any `json:"rawData,omitempty"`
}

// arena is the per-call scratch state threaded through every stage so
// concurrent Transform calls never share anything mutable.
type arena struct {
	stats    Stats
	warnings []string
}

func (a *arena) warnf(format string, args ...any) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}

func (a *arena) result(data map[string]any, raw map[string]any, opts Options) Result {
	if data == nil {
		data = map[string]any{}
	}
	res := Result{
		Data:       data,
		Statistics: a.stats,
		Warnings:   a.warnings,
	}
	if opts.PreserveRawData {
		res.RawData = raw
	}
	return res
}
