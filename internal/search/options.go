package search

import (
	"time"

	"github.com/standardbeagle/textsearch/internal/glob"
)

// Option configures a Manager
type Option func(*managerOptions)

type managerOptions struct {
	maxBatchWeight int
	batchTimeout   time.Duration
	parse          glob.ParseFunc
	queueSize      int
}

func defaultOptions() managerOptions {
	return managerOptions{
		maxBatchWeight: DefaultMaxBatchWeight,
		parse:          glob.Parse,
		queueSize:      256,
	}
}

// WithMaxBatchWeight sets how many results make a full batch
func WithMaxBatchWeight(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.maxBatchWeight = n
		}
	}
}

// WithBatchTimeout sets the failsafe flush timeout for partial batches
func WithBatchTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		o.batchTimeout = d
	}
}

// WithGlobParser replaces the glob expression compiler
func WithGlobParser(parse glob.ParseFunc) Option {
	return func(o *managerOptions) {
		if parse != nil {
			o.parse = parse
		}
	}
}

// WithResolverQueueSize bounds how many sibling-dependent results may wait
// for resolution per folder before the provider's report call blocks.
func WithResolverQueueSize(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}
