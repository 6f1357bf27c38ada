// Package watch reports debounced file system changes below a set of search
// roots so a search can be run again when its inputs change.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/glob"
)

// DefaultDebounce is the quiet period after the last event before changes are reported
const DefaultDebounce = 200 * time.Millisecond

// EventType is the kind of change seen for a path
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Change is the last event seen for one path during a debounce window
type Change struct {
	Path string
	Type EventType
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExcludes drops paths matching any of the patterns, relative to their
// root, the way the search excludes them
func WithExcludes(patterns []string) Option {
	return func(w *Watcher) {
		w.excludes = append(w.excludes, patterns...)
	}
}

// Watcher monitors directory trees and reports batches of changes
type Watcher struct {
	fs       *fsnotify.Watcher
	roots    []string
	excludes []string
	debounce time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	debouncer *eventDebouncer
	stopOnce  sync.Once

	statsMu         sync.RWMutex
	eventsProcessed int64
	errorCount      int64
	lastEventTime   time.Time
}

// New creates a watcher for roots. Nothing is watched until Start.
func New(roots []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:       fsw,
		debounce: DefaultDebounce,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		// events are named after the watched path, so watch the resolved one
		if resolved, err := filepath.EvalSymlinks(r); err == nil {
			r = resolved
		}
		w.roots = append(w.roots, filepath.Clean(r))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds watches for every directory below the roots and calls onChange
// with each debounced batch, sorted by path. onChange runs on its own
// goroutine, one batch at a time.
func (w *Watcher) Start(onChange func([]Change)) error {
	w.debouncer = newEventDebouncer(w.debounce, func(changes []Change) {
		w.incrementStats(int64(len(changes)), 0)
		onChange(changes)
	})

	for _, root := range w.roots {
		if err := w.addWatches(root); err != nil {
			return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
		}
	}

	w.wg.Add(1)
	go w.processEvents()

	debug.LogWatch("watching %d root(s)", len(w.roots))
	return nil
}

// Stop ends watching. Changes still waiting for their debounce are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.cancel()
		err = w.fs.Close()
		w.wg.Wait()
		if w.debouncer != nil {
			w.debouncer.stop()
		}
	})
	return err
}

// addWatches adds a watch for root and every directory below it
func (w *Watcher) addWatches(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return nil
		}
		if visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if p != root && w.excluded(p, true) {
			return filepath.SkipDir
		}

		if err := w.fs.Add(p); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", p, err)
		}
		return nil
	})
}

// excluded reports whether p is below a root and matches an exclude pattern
// or is inside a .git directory
func (w *Watcher) excluded(p string, isDir bool) bool {
	if isDir && filepath.Base(p) == ".git" {
		return true
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		for _, dir := range parentDirs(rel) {
			if dir == ".git" {
				return true
			}
		}
		for _, pattern := range w.excludes {
			if glob.MatchPath(pattern, rel) {
				return true
			}
		}
	}
	return false
}

// parentDirs returns the directory components of a slash separated path
func parentDirs(rel string) []string {
	var dirs []string
	for {
		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." || dir == "/" || dir == rel {
			return dirs
		}
		dirs = append(dirs, filepath.Base(dir))
		rel = dir
	}
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.incrementStats(0, 1)
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	p := event.Name
	debug.LogWatch("event %v for %s", event.Op, p)

	info, err := os.Stat(p)
	if err != nil {
		// gone: report removals and renames away
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && !w.excluded(p, false) {
			w.debouncer.addEvent(p, EventRemove)
		}
		return
	}

	if w.excluded(p, info.IsDir()) {
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addWatches(p); err != nil {
				log.Printf("Warning: failed to add watch for new directory %s: %v", p, err)
				return
			}
			// files written before the watch was added would otherwise go unseen
			w.debouncer.addEvent(p, EventCreate)
		}
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		w.debouncer.addEvent(p, EventCreate)
	case event.Op&fsnotify.Write != 0:
		w.debouncer.addEvent(p, EventWrite)
	case event.Op&fsnotify.Remove != 0:
		w.debouncer.addEvent(p, EventRemove)
	case event.Op&fsnotify.Rename != 0:
		w.debouncer.addEvent(p, EventRename)
	}
}

func (w *Watcher) incrementStats(events, errors int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.eventsProcessed += events
	w.errorCount += errors
	w.lastEventTime = time.Now()
}

// Stats contains counters about a watcher's activity
type Stats struct {
	EventsProcessed int64
	ErrorCount      int64
	LastEventTime   time.Time
	IsActive        bool
}

// Stats returns current statistics
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	return Stats{
		EventsProcessed: w.eventsProcessed,
		ErrorCount:      w.errorCount,
		LastEventTime:   w.lastEventTime,
		IsActive:        w.ctx.Err() == nil,
	}
}

// eventDebouncer keeps the latest event per path and hands the set over once
// no new event arrived for the debounce period
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]EventType
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	flushing sync.WaitGroup
	flushMu  sync.Mutex
	onFlush  func([]Change)
}

func newEventDebouncer(debounce time.Duration, onFlush func([]Change)) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]EventType),
		debounce: debounce,
		onFlush:  onFlush,
	}
}

func (d *eventDebouncer) addEvent(p string, t EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.events[p] = t

	if d.timer != nil && d.timer.Stop() {
		d.flushing.Done()
	}
	d.flushing.Add(1)
	d.timer = time.AfterFunc(d.debounce, func() {
		defer d.flushing.Done()
		d.flush()
	})
}

// pending returns the number of paths waiting for the next flush
func (d *eventDebouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func (d *eventDebouncer) flush() {
	// one batch at a time, in the order the timers fired
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mu.Unlock()
		return
	}
	events := d.events
	d.events = make(map[string]EventType)
	d.mu.Unlock()

	changes := make([]Change, 0, len(events))
	for p, t := range events {
		changes = append(changes, Change{Path: p, Type: t})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	debug.LogWatch("flushing %d change(s)", len(changes))
	d.onFlush(changes)
}

// stop cancels the pending flush and waits for a running one
func (d *eventDebouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.flushing.Done()
	}
	d.mu.Unlock()

	d.flushing.Wait()
}
