package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UnknownField is an argument the tool does not understand. It is echoed
// back as a warning instead of failing the call.
type UnknownField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// TextSearchParams are the text_search tool arguments
type TextSearchParams struct {
	Pattern       string   `json:"pattern"`
	Folders       []string `json:"folders,omitempty"`
	IsRegex       bool     `json:"is_regex,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`
	WordMatch     bool     `json:"word_match,omitempty"`
	Multiline     bool     `json:"multiline,omitempty"`
	Include       []string `json:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"`
	MaxResults    *int     `json:"max_results,omitempty"`
	BeforeContext int      `json:"before_context,omitempty"`
	AfterContext  int      `json:"after_context,omitempty"`
	Encoding      string   `json:"encoding,omitempty"`

	Warnings []UnknownField `json:"-"`
}

var textSearchFields = map[string]struct{}{
	"pattern": {}, "folders": {}, "is_regex": {}, "case_sensitive": {},
	"word_match": {}, "multiline": {}, "include": {}, "exclude": {},
	"max_results": {}, "before_context": {}, "after_context": {},
	"encoding": {},

	// aliases
	"regex": {}, "use_regex": {}, "case_insensitive": {}, "max": {},
	"context": {}, "folder": {}, "word_boundary": {},
}

// UnmarshalJSON accepts the documented arguments plus a few aliases clients
// commonly send. Unknown fields become warnings. include, exclude and
// folders may be a single string or a list.
func (p *TextSearchParams) UnmarshalJSON(data []byte) error {
	type alias TextSearchParams

	raw, warnings, err := collectUnknownFields(data, textSearchFields)
	if err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	var invertCase json.RawMessage
	for key, value := range raw {
		switch key {
		case "regex", "use_regex":
			normalized["is_regex"] = value
		case "word_boundary":
			normalized["word_match"] = value
		case "max":
			normalized["max_results"] = value
		case "folder":
			normalized["folders"] = value
		case "case_insensitive":
			invertCase = value
		case "context":
			if _, ok := raw["before_context"]; !ok {
				normalized["before_context"] = value
			}
			if _, ok := raw["after_context"]; !ok {
				normalized["after_context"] = value
			}
		default:
			if _, known := textSearchFields[key]; known {
				normalized[key] = value
			}
		}
	}

	for _, key := range []string{"folders", "include", "exclude"} {
		if v, ok := normalized[key]; ok {
			list, err := stringOrList(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			normalized[key], _ = json.Marshal(list)
		}
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(encoded, (*alias)(p)); err != nil {
		return err
	}

	if invertCase != nil {
		if _, explicit := raw["case_sensitive"]; !explicit {
			var insensitive bool
			if err := json.Unmarshal(invertCase, &insensitive); err != nil {
				return fmt.Errorf("case_insensitive: %w", err)
			}
			p.CaseSensitive = !insensitive
		}
	}

	p.Warnings = warnings
	return nil
}

// Validate checks the arguments before a search is started
func (p *TextSearchParams) Validate() error {
	if strings.TrimSpace(p.Pattern) == "" {
		return errors.New("pattern is required")
	}
	if p.MaxResults != nil && *p.MaxResults < 0 {
		return fmt.Errorf("max_results cannot be negative, got %d", *p.MaxResults)
	}
	if p.BeforeContext < 0 || p.AfterContext < 0 {
		return errors.New("context lines cannot be negative")
	}
	return nil
}

// stringOrList decodes "a" or ["a", "b"]; a comma separated string is split
func stringOrList(v json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, errors.New("expected a string or a list of strings")
	}
	return parseCommaSeparated(s), nil
}

func parseCommaSeparated(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// collectUnknownFields parses raw JSON into a map and reports every field
// that is not in known
func collectUnknownFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, []UnknownField, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			decoded = string(value)
		}
		warnings = append(warnings, UnknownField{Name: key, Value: decoded})
	}
	return raw, warnings, nil
}
