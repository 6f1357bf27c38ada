package grep

import "runtime"

// Option configures a Provider
type Option func(*Provider)

// WithWorkers sets how many files are searched concurrently
func WithWorkers(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithGlobalIgnoreFile overrides the user level excludes file. An empty
// path disables it.
func WithGlobalIgnoreFile(path string) Option {
	return func(p *Provider) {
		p.globalIgnoreFile = &path
	}
}

func defaultWorkers() int {
	return max(runtime.NumCPU(), 2)
}
