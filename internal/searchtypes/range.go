package searchtypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Range locates a match. Lines are 0-based, columns are 0-based UTF-16 code
// unit offsets.
type Range struct {
	StartLine   int `json:"startLineNumber"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLineNumber"`
	EndColumn   int `json:"endColumn"`
}

// NewRange creates a range spanning from (startLine, startColumn) to (endLine, endColumn)
func NewRange(startLine, startColumn, endLine, endColumn int) Range {
	return Range{
		StartLine:   startLine,
		StartColumn: startColumn,
		EndLine:     endLine,
		EndColumn:   endColumn,
	}
}

// OneLineRange creates a range that starts and ends on line
func OneLineRange(line, startColumn, endColumn int) Range {
	return NewRange(line, startColumn, line, endColumn)
}

// RangeSet is an ordered sequence of ranges. Single records that the set was
// produced from (and serializes as) one bare range rather than a list; a
// single set always holds exactly one range.
type RangeSet struct {
	Ranges []Range
	Single bool
}

// SingleRange wraps one range in its scalar form
func SingleRange(r Range) RangeSet {
	return RangeSet{Ranges: []Range{r}, Single: true}
}

// RangeList wraps ranges in the list form
func RangeList(ranges ...Range) RangeSet {
	if ranges == nil {
		ranges = []Range{}
	}
	return RangeSet{Ranges: ranges}
}

// Len returns the number of ranges in the set
func (s RangeSet) Len() int {
	return len(s.Ranges)
}

// First returns the first range, if any
func (s RangeSet) First() (Range, bool) {
	if len(s.Ranges) == 0 {
		return Range{}, false
	}
	return s.Ranges[0], true
}

// AllSingleLine reports whether every range sits on the same single line
func (s RangeSet) AllSingleLine() bool {
	if len(s.Ranges) == 0 {
		return true
	}
	line := s.Ranges[0].StartLine
	for _, r := range s.Ranges {
		if r.StartLine != line || r.EndLine != line {
			return false
		}
	}
	return true
}

// Truncate keeps the first n ranges. The result is always in list form, even
// when the receiver was a single range.
func (s RangeSet) Truncate(n int) RangeSet {
	if n < 0 {
		n = 0
	}
	if n > len(s.Ranges) {
		n = len(s.Ranges)
	}
	out := make([]Range, n)
	copy(out, s.Ranges[:n])
	return RangeSet{Ranges: out}
}

// Map applies fn to every range, preserving the shape of the set
func (s RangeSet) Map(fn func(Range) Range) RangeSet {
	out := make([]Range, len(s.Ranges))
	for i, r := range s.Ranges {
		out[i] = fn(r)
	}
	return RangeSet{Ranges: out, Single: s.Single}
}

// MarshalJSON writes a single set as a bare object and a list as an array
func (s RangeSet) MarshalJSON() ([]byte, error) {
	if s.Single && len(s.Ranges) == 1 {
		return json.Marshal(s.Ranges[0])
	}
	if s.Ranges == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Ranges)
}

// UnmarshalJSON accepts either a bare range object or an array of ranges
func (s *RangeSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty range value")
	}

	switch trimmed[0] {
	case '{':
		var r Range
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return err
		}
		*s = SingleRange(r)
		return nil
	case '[':
		var list []Range
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*s = RangeList(list...)
		return nil
	default:
		return fmt.Errorf("range must be an object or an array, got %s", string(trimmed))
	}
}
