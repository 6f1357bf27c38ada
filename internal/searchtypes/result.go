package searchtypes

import (
	"encoding/json"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
)

// ResultKind discriminates the two variants of Result
type ResultKind int

const (
	// KindMatch is a match with ranges and a preview
	KindMatch ResultKind = iota
	// KindContext is a line of surrounding text with no match coordinates
	KindContext
)

func (k ResultKind) String() string {
	if k == KindContext {
		return "context"
	}
	return "match"
}

// Preview is the bounded text shown for a match. Matches locate the match
// within Text, not within the source file.
type Preview struct {
	Text    string   `json:"text"`
	Matches RangeSet `json:"matches"`
}

// Result is one raw event reported by a provider: either a match or a
// context line. Ranges and Preview are only meaningful for KindMatch, Text
// and LineNumber only for KindContext.
type Result struct {
	Kind ResultKind
	Path string

	Ranges  RangeSet
	Preview Preview

	Text       string
	LineNumber int
}

// NewMatch builds a match result from already computed ranges and preview
func NewMatch(path string, ranges RangeSet, preview Preview) Result {
	return Result{Kind: KindMatch, Path: path, Ranges: ranges, Preview: preview}
}

// NewContext builds a context line result. lineNumber is 0-based.
func NewContext(path, text string, lineNumber int) Result {
	return Result{Kind: KindContext, Path: path, Text: text, LineNumber: lineNumber}
}

// IsMatch reports whether the result is a match
func (r Result) IsMatch() bool {
	return r.Kind == KindMatch
}

// Size is the number of match ranges the result carries. Context lines have
// size zero and never count against a result budget.
func (r Result) Size() int {
	if !r.IsMatch() {
		return 0
	}
	return r.Ranges.Len()
}

// Validate checks that a match's ranges and preview matches agree in shape
// and length.
func (r Result) Validate() error {
	if !r.IsMatch() {
		return nil
	}
	if r.Ranges.Single != r.Preview.Matches.Single {
		return tserrors.NewInvalidResultError(r.Path, "ranges and preview matches must have the same type")
	}
	if r.Ranges.Len() != r.Preview.Matches.Len() {
		return tserrors.NewInvalidResultError(r.Path, "ranges and preview matches must have the same length")
	}
	if r.Ranges.Single && r.Ranges.Len() != 1 {
		return tserrors.NewInvalidResultError(r.Path, "a single range must hold exactly one range")
	}
	return nil
}

// Truncate returns a copy of a match that keeps only its first n ranges and
// preview matches. Preview text is untouched. Context lines are returned
// unchanged.
func (r Result) Truncate(n int) Result {
	if !r.IsMatch() {
		return r
	}
	out := r
	out.Ranges = r.Ranges.Truncate(n)
	out.Preview = Preview{
		Text:    r.Preview.Text,
		Matches: r.Preview.Matches.Truncate(n),
	}
	return out
}

// WithoutPath returns a copy with Path cleared, the form stored inside a FileMatch
func (r Result) WithoutPath() Result {
	r.Path = ""
	return r
}

type resultJSON struct {
	Path       string    `json:"path,omitempty"`
	Ranges     *RangeSet `json:"ranges,omitempty"`
	Preview    *Preview  `json:"preview,omitempty"`
	Text       *string   `json:"text,omitempty"`
	LineNumber *int      `json:"lineNumber,omitempty"`
}

// MarshalJSON writes a match as {path, ranges, preview} and a context line
// as {path, text, lineNumber}. An empty path is omitted.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Path: r.Path}
	if r.IsMatch() {
		ranges := r.Ranges
		preview := r.Preview
		out.Ranges = &ranges
		out.Preview = &preview
	} else {
		text := r.Text
		line := r.LineNumber
		out.Text = &text
		out.LineNumber = &line
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes either variant. The presence of a preview marks a match.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if in.Preview != nil {
		*r = Result{Kind: KindMatch, Path: in.Path, Preview: *in.Preview}
		if in.Ranges != nil {
			r.Ranges = *in.Ranges
		}
		return nil
	}

	*r = Result{Kind: KindContext, Path: in.Path}
	if in.Text != nil {
		r.Text = *in.Text
	}
	if in.LineNumber != nil {
		r.LineNumber = *in.LineNumber
	}
	return nil
}

// FileMatch groups consecutive results for one path within one folder
type FileMatch struct {
	Path    string   `json:"path"`
	Results []Result `json:"results"`
}

// NumMatches counts match ranges plus one per context line
func (m FileMatch) NumMatches() int {
	n := 0
	for _, r := range m.Results {
		if r.IsMatch() {
			n += r.Ranges.Len()
		} else {
			n++
		}
	}
	return n
}

// MarshalJSON adds the numMatches field
func (m FileMatch) MarshalJSON() ([]byte, error) {
	results := m.Results
	if results == nil {
		results = []Result{}
	}
	return json.Marshal(struct {
		Path       string   `json:"path"`
		Results    []Result `json:"results"`
		NumMatches int      `json:"numMatches"`
	}{m.Path, results, m.NumMatches()})
}
