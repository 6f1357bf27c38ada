package searchtypes

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Preview elision marker. Consumers parse this exact text to recover
// offsets, so it must not change.
const (
	ElidedPrefix = "⟪ "
	ElidedSuffix = " characters skipped ⟫"
)

// elidedMinLen is the smallest gap worth replacing with a marker, in UTF-16 units
var elidedMinLen = (UTF16Len(ElidedPrefix) + UTF16Len(ElidedSuffix) + 5) * 2

// NewTextMatch builds a match result for text, the source line(s) the ranges
// point into. When opts asks for a one line preview and every range sits on
// one line, the preview is cut into windows of CharsPerLine around each
// range with long gaps elided, and preview columns are shifted to point into
// the returned text. Otherwise the full text is kept and preview line
// numbers are made relative to the first range.
func NewTextMatch(path, text string, ranges RangeSet, opts *PreviewOptions) Result {
	if ranges.Len() == 0 {
		return NewMatch(path, ranges, Preview{Text: text, Matches: ranges})
	}

	if opts != nil && opts.MatchLines == 1 && ranges.AllSingleLine() {
		return NewMatch(path, ranges, singleLinePreview(text, ranges, opts.CharsPerLine))
	}

	first, _ := ranges.First()
	matches := ranges.Map(func(r Range) Range {
		return NewRange(r.StartLine-first.StartLine, r.StartColumn, r.EndLine-first.StartLine, r.EndColumn)
	})
	return NewMatch(path, ranges, Preview{Text: text, Matches: matches})
}

func singleLinePreview(text string, ranges RangeSet, charsPerLine int) Preview {
	line := utf16.Encode([]rune(firstLines(text, 1)))
	leading := charsPerLine / 5

	var sb strings.Builder
	shift := 0
	lastEnd := 0
	matches := make([]Range, 0, ranges.Len())
	for _, r := range ranges.Ranges {
		previewStart := max(r.StartColumn-leading, 0)
		previewEnd := r.StartColumn + charsPerLine
		if previewStart > lastEnd+leading+elidedMinLen {
			elision := ElidedPrefix + strconv.Itoa(previewStart-lastEnd) + ElidedSuffix
			sb.WriteString(elision)
			sb.WriteString(slice16(line, previewStart, previewEnd))
			shift += previewStart - (lastEnd + UTF16Len(elision))
		} else {
			sb.WriteString(slice16(line, lastEnd, previewEnd))
		}

		matches = append(matches, OneLineRange(0, r.StartColumn-shift, r.EndColumn-shift))
		lastEnd = previewEnd
	}

	set := RangeSet{Ranges: matches, Single: ranges.Single}
	return Preview{Text: sb.String(), Matches: set}
}

// firstLines returns the first n lines of s without the final line break
func firstLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	idx := -1
	for {
		next := strings.IndexByte(s[idx+1:], '\n')
		if next < 0 {
			return s
		}
		idx += next + 1
		n--
		if n == 0 {
			break
		}
	}
	if idx > 0 && s[idx-1] == '\r' {
		idx--
	}
	return s[:idx]
}

// slice16 mirrors a clamped substring over UTF-16 code units
func slice16(units []uint16, start, end int) string {
	start = min(max(start, 0), len(units))
	end = min(max(end, 0), len(units))
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// UTF16Len is the length of s in UTF-16 code units, the unit columns are
// measured in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
