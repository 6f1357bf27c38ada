package grep

import (
	"regexp"
	"sort"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// decode turns raw file bytes into text. A byte order mark always wins over
// enc, which defaults to UTF-8.
func decode(data []byte, enc xencoding.Encoding) (string, error) {
	fallback := unicode.UTF8.NewDecoder()
	if enc != nil {
		fallback = enc.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// document indexes the line starts of a decoded file
type document struct {
	text   string
	starts []int
}

func newDocument(text string) *document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	// a trailing newline does not open another line
	if len(starts) > 1 && starts[len(starts)-1] == len(text) {
		starts = starts[:len(starts)-1]
	}
	return &document{text: text, starts: starts}
}

func (d *document) lineCount() int {
	return len(d.starts)
}

// lineEnd is the offset of the end of line i, before its line break
func (d *document) lineEnd(i int) int {
	end := len(d.text)
	if i+1 < len(d.starts) {
		end = d.starts[i+1] - 1
	} else if end > d.starts[i] && d.text[end-1] == '\n' {
		end--
	}
	if end > d.starts[i] && d.text[end-1] == '\r' {
		end--
	}
	return end
}

func (d *document) line(i int) string {
	return d.text[d.starts[i]:d.lineEnd(i)]
}

// position converts a byte offset to a line and a UTF-16 column
func (d *document) position(off int) (int, int) {
	line := sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > off }) - 1
	return line, searchtypes.UTF16Len(d.text[d.starts[line]:off])
}

// lineMatch is a match result together with the lines it covers
type lineMatch struct {
	startLine int
	endLine   int
	result    searchtypes.Result
}

// findLineMatches matches each line on its own. All matches on a line form
// one result.
func findLineMatches(re *regexp.Regexp, doc *document, path string, preview *searchtypes.PreviewOptions) []lineMatch {
	var out []lineMatch
	for i := 0; i < doc.lineCount(); i++ {
		line := doc.line(i)
		var ranges []searchtypes.Range
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] == loc[1] {
				continue
			}
			start := searchtypes.UTF16Len(line[:loc[0]])
			end := start + searchtypes.UTF16Len(line[loc[0]:loc[1]])
			ranges = append(ranges, searchtypes.OneLineRange(i, start, end))
		}
		if len(ranges) == 0 {
			continue
		}
		out = append(out, lineMatch{
			startLine: i,
			endLine:   i,
			result:    searchtypes.NewTextMatch(path, line, rangeSet(ranges), preview),
		})
	}
	return out
}

// findMultilineMatches matches the whole text. Every match is its own
// result whose text is the full lines it spans.
func findMultilineMatches(re *regexp.Regexp, doc *document, path string, preview *searchtypes.PreviewOptions) []lineMatch {
	var out []lineMatch
	for _, loc := range re.FindAllStringIndex(doc.text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		startLine, startCol := doc.position(loc[0])
		endLine, endCol := doc.position(loc[1])
		// a match consuming the final line break has no next line to end on
		endCol = min(endCol, searchtypes.UTF16Len(doc.line(endLine)))
		text := doc.text[doc.starts[startLine]:doc.lineEnd(endLine)]
		r := searchtypes.NewRange(startLine, startCol, endLine, endCol)
		out = append(out, lineMatch{
			startLine: startLine,
			endLine:   endLine,
			result:    searchtypes.NewTextMatch(path, text, searchtypes.SingleRange(r), preview),
		})
	}
	return out
}

func rangeSet(ranges []searchtypes.Range) searchtypes.RangeSet {
	if len(ranges) == 1 {
		return searchtypes.SingleRange(ranges[0])
	}
	return searchtypes.RangeList(ranges...)
}

// withContext interleaves matches with up to before and after context lines
// around them. Lines covered by a match are never repeated as context.
func withContext(doc *document, path string, matches []lineMatch, before, after int) []searchtypes.Result {
	if before <= 0 && after <= 0 {
		out := make([]searchtypes.Result, len(matches))
		for i, m := range matches {
			out[i] = m.result
		}
		return out
	}

	covered := make(map[int]bool)
	for _, m := range matches {
		for l := m.startLine; l <= m.endLine; l++ {
			covered[l] = true
		}
	}

	var out []searchtypes.Result
	next := 0 // first line not yet emitted
	for i, m := range matches {
		from := max(m.startLine-before, next)
		for l := from; l < m.startLine; l++ {
			if !covered[l] {
				out = append(out, searchtypes.NewContext(path, doc.line(l), l))
			}
		}
		out = append(out, m.result)
		next = max(next, m.endLine+1)

		to := min(m.endLine+after, doc.lineCount()-1)
		if i+1 < len(matches) {
			to = min(to, matches[i+1].startLine-1)
		}
		for l := next; l <= to; l++ {
			if !covered[l] {
				out = append(out, searchtypes.NewContext(path, doc.line(l), l))
			}
		}
		next = max(next, to+1)
	}
	return out
}
