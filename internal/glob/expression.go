// Package glob models include/exclude glob expressions and compiles them
// into path predicates.
//
// An Expression maps a glob pattern to a Clause. A plain clause is enabled
// or disabled. A sibling clause only applies when another file, derived from
// the matched file's name, exists in the same directory:
//
//	{"**/*.js": {"when": "$(basename).ts"}}
//
// excludes foo.js only when foo.ts sits next to it.
package glob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// BasenamePlaceholder is replaced by the matched file's name without its
// extension when a sibling clause is evaluated.
const BasenamePlaceholder = "$(basename)"

// Clause is the value side of an Expression entry
type Clause struct {
	Enabled bool
	// When makes the clause conditional on a sibling file existing
	When string
}

// Bool returns a plain clause
func Bool(enabled bool) Clause {
	return Clause{Enabled: enabled}
}

// Sibling returns a clause that applies only when the sibling named by when exists
func Sibling(when string) Clause {
	return Clause{Enabled: true, When: when}
}

// IsSibling reports whether the clause depends on a sibling file
func (c Clause) IsSibling() bool {
	return c.When != ""
}

// MarshalJSON writes a plain clause as a boolean and a sibling clause as {"when": ...}
func (c Clause) MarshalJSON() ([]byte, error) {
	if c.IsSibling() {
		return json.Marshal(struct {
			When string `json:"when"`
		}{c.When})
	}
	return json.Marshal(c.Enabled)
}

// UnmarshalJSON accepts true, false or {"when": "..."}
func (c *Clause) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var v struct {
			When string `json:"when"`
		}
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		if v.When == "" {
			return fmt.Errorf("sibling clause requires a non-empty \"when\"")
		}
		*c = Sibling(v.When)
		return nil
	}

	var enabled bool
	if err := json.Unmarshal(trimmed, &enabled); err != nil {
		return fmt.Errorf("glob clause must be a boolean or {\"when\": ...}: %w", err)
	}
	*c = Bool(enabled)
	return nil
}

// Expression maps glob patterns to clauses
type Expression map[string]Clause

// Merge combines a global and a folder expression. Folder entries win on key
// collision. The result is nil only when both inputs are nil, so an empty but
// present include expression still means "include nothing".
func Merge(global, folder Expression) Expression {
	if global == nil && folder == nil {
		return nil
	}
	merged := make(Expression, len(global)+len(folder))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range folder {
		merged[k] = v
	}
	return merged
}

// HasSiblingClauses reports whether any entry depends on a sibling file
func HasSiblingClauses(expr Expression) bool {
	for _, c := range expr {
		if c.IsSibling() {
			return true
		}
	}
	return false
}

// ResolvePatternsForProvider merges global and folder expressions and returns
// the enabled plain patterns, sorted. Sibling clauses are left for the
// caller to evaluate.
func ResolvePatternsForProvider(global, folder Expression) []string {
	merged := Merge(global, folder)
	patterns := make([]string, 0, len(merged))
	for k, c := range merged {
		if !c.IsSibling() && c.Enabled {
			patterns = append(patterns, k)
		}
	}
	sort.Strings(patterns)
	return patterns
}
