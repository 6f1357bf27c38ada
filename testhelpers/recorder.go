package testhelpers

import (
	"sync"

	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// ProgressRecorder collects the batches passed to a progress callback
type ProgressRecorder struct {
	mu      sync.Mutex
	batches [][]searchtypes.FileMatch
}

// Record is the progress callback
func (r *ProgressRecorder) Record(batch []searchtypes.FileMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]searchtypes.FileMatch(nil), batch...))
}

// Batches returns every recorded batch
func (r *ProgressRecorder) Batches() [][]searchtypes.FileMatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]searchtypes.FileMatch(nil), r.batches...)
}

// FileMatches returns all recorded file matches in emission order
func (r *ProgressRecorder) FileMatches() []searchtypes.FileMatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []searchtypes.FileMatch
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// MatchCount sums the match ranges of every recorded result. Context lines
// are not counted.
func (r *ProgressRecorder) MatchCount() int {
	n := 0
	for _, fm := range r.FileMatches() {
		for _, res := range fm.Results {
			n += res.Size()
		}
	}
	return n
}

// ContextCount counts recorded context lines
func (r *ProgressRecorder) ContextCount() int {
	n := 0
	for _, fm := range r.FileMatches() {
		for _, res := range fm.Results {
			if !res.IsMatch() {
				n++
			}
		}
	}
	return n
}
