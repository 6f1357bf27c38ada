package search

import (
	"github.com/standardbeagle/textsearch/internal/batch"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// DefaultMaxBatchWeight is the number of results per emitted batch once
// batching has ramped up.
const DefaultMaxBatchWeight = 512

// ResultsCollector groups consecutive results for the same (folder, path)
// into FileMatches and emits them in batches. It is not safe for concurrent
// use; the manager serializes calls.
type ResultsCollector struct {
	batched *batch.Collector[searchtypes.FileMatch]

	currentFolder int
	current       *searchtypes.FileMatch
}

// NewResultsCollector creates a collector that sends batches to onResult
func NewResultsCollector(onResult func([]searchtypes.FileMatch), maxBatchWeight int, opts ...batch.Option) *ResultsCollector {
	if maxBatchWeight <= 0 {
		maxBatchWeight = DefaultMaxBatchWeight
	}
	if onResult == nil {
		onResult = func([]searchtypes.FileMatch) {}
	}
	return &ResultsCollector{
		batched:       batch.NewCollector(maxBatchWeight, onResult, opts...),
		currentFolder: -1,
	}
}

// Add appends result to the open FileMatch, first closing it when the folder
// or path changed.
func (c *ResultsCollector) Add(result searchtypes.Result, folderIdx int) {
	if c.current != nil && (c.currentFolder != folderIdx || c.current.Path != result.Path) {
		c.pushCurrent()
	}

	if c.current == nil {
		c.currentFolder = folderIdx
		c.current = &searchtypes.FileMatch{Path: result.Path}
	}
	c.current.Results = append(c.current.Results, result.WithoutPath())
}

func (c *ResultsCollector) pushCurrent() {
	if c.current == nil {
		return
	}
	fm := *c.current
	c.current = nil
	c.batched.AddItem(fm, len(fm.Results))
}

// Flush closes the open FileMatch and emits everything pending. A second
// flush with nothing added in between emits nothing.
func (c *ResultsCollector) Flush() {
	c.pushCurrent()
	c.batched.Flush()
}

// Stop drops the open FileMatch and everything pending
func (c *ResultsCollector) Stop() {
	c.current = nil
	c.batched.Stop()
}
