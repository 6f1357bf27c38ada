package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/fatih/color"

	"github.com/standardbeagle/textsearch/internal/searchtypes"
	"github.com/standardbeagle/textsearch/pkg/pathutil"
)

var (
	colorPath    = color.New(color.FgMagenta, color.Bold)
	colorLineNum = color.New(color.FgGreen)
	colorMatch   = color.New(color.FgRed, color.Bold)
	colorWarning = color.New(color.FgYellow)
)

// printer writes search progress either as JSON lines or as grep-style text
type printer struct {
	w        io.Writer
	jsonMode bool
	roots    []string
	absolute bool

	files   int
	matches int
}

// batchLine and completionLine are the two kinds of --json output lines
type batchLine struct {
	Type    string                  `json:"type"`
	Matches []searchtypes.FileMatch `json:"matches"`
}

type completionLine struct {
	Type       string                 `json:"type"`
	Completion searchtypes.Completion `json:"completion"`
	Files      int                    `json:"files"`
	Matches    int                    `json:"matches"`
}

func (p *printer) reset() {
	p.files = 0
	p.matches = 0
}

func (p *printer) displayPaths(batch []searchtypes.FileMatch) []searchtypes.FileMatch {
	if p.absolute {
		return batch
	}
	return pathutil.ToRelativeFileMatches(batch, p.roots...)
}

// printBatch is the progress callback handed to the search manager
func (p *printer) printBatch(batch []searchtypes.FileMatch) {
	batch = p.displayPaths(batch)
	for _, fm := range batch {
		p.files++
		p.matches += fm.NumMatches()
	}

	if p.jsonMode {
		p.writeJSON(batchLine{Type: "batch", Matches: batch})
		return
	}
	for _, fm := range batch {
		colorPath.Fprintln(p.w, fm.Path)
		for _, r := range fm.Results {
			p.printResult(r)
		}
		fmt.Fprintln(p.w)
	}
}

func (p *printer) printResult(r searchtypes.Result) {
	if !r.IsMatch() {
		colorLineNum.Fprintf(p.w, "%d", r.LineNumber+1)
		fmt.Fprintf(p.w, "-%s\n", r.Text)
		return
	}

	first, ok := r.Ranges.First()
	if !ok {
		return
	}
	for i, line := range strings.Split(r.Preview.Text, "\n") {
		colorLineNum.Fprintf(p.w, "%d", first.StartLine+i+1)
		fmt.Fprintf(p.w, ":%s\n", highlight(strings.TrimSuffix(line, "\r"), i, r.Preview.Matches))
	}
}

// printCompletion writes the summary after a search finished
func (p *printer) printCompletion(c searchtypes.Completion) {
	if p.jsonMode {
		p.writeJSON(completionLine{Type: "completion", Completion: c, Files: p.files, Matches: p.matches})
		return
	}
	for _, m := range c.Messages {
		if m.Type == searchtypes.MessageWarning {
			colorWarning.Fprintf(p.w, "warning: %s\n", m.Text)
		} else {
			fmt.Fprintf(p.w, "note: %s\n", m.Text)
		}
	}
	summary := fmt.Sprintf("%d match(es) in %d file(s)", p.matches, p.files)
	if c.LimitHit {
		summary += " (result limit hit)"
	}
	fmt.Fprintln(p.w, summary)
}

func (p *printer) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(p.w, `{"type":"error","error":%q}`+"\n", err.Error())
		return
	}
	p.w.Write(append(data, '\n'))
}

// highlight colours the parts of line covered by ranges. line is line number
// lineIdx within the preview; columns are UTF-16 offsets.
func highlight(line string, lineIdx int, ranges searchtypes.RangeSet) string {
	units := utf16.Encode([]rune(line))
	var sb strings.Builder
	pos := 0
	for _, r := range ranges.Ranges {
		if lineIdx < r.StartLine || lineIdx > r.EndLine {
			continue
		}
		start := 0
		if lineIdx == r.StartLine {
			start = r.StartColumn
		}
		end := len(units)
		if lineIdx == r.EndLine {
			end = r.EndColumn
		}
		start = min(max(start, pos), len(units))
		end = min(max(end, start), len(units))
		if start == end {
			continue
		}
		sb.WriteString(string(utf16.Decode(units[pos:start])))
		sb.WriteString(colorMatch.Sprint(string(utf16.Decode(units[start:end]))))
		pos = end
	}
	sb.WriteString(string(utf16.Decode(units[pos:])))
	return sb.String()
}
