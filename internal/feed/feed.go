// Package feed drives a Tree from a directory of patch files. Producers drop
// whole JSON patches into the directory; the feed notices them, debounces
// bursts, and applies them in lexical filename order so producers can
// sequence updates by naming (0001.json, 0002.json, ...).
package feed

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/axtree/internal/config"
	"github.com/standardbeagle/axtree/internal/patch"
	"github.com/standardbeagle/axtree/internal/tree"
)

// Feed watches one directory for patch files and applies them to a tree.
// All patches are applied from the debouncer's goroutine; the tree must not
// be written from elsewhere while the feed is running.
type Feed struct {
	tree      *tree.Tree
	cfg       config.Feed
	maxNodes  int
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	done      chan struct{}
	wg        sync.WaitGroup

	// onApplied, if set, is called after every apply attempt.
	onApplied func(path string, err error)

	// digests remembers what was last applied per path, so a rewrite of
	// identical bytes (editors and atomic-save tools do this) is not
	// re-applied.
	digestMu sync.Mutex
	digests  map[string]uint64

	statsMu       sync.RWMutex
	applied       int64
	failed        int64
	lastApplyTime time.Time
}

// New creates a feed for the configured patch directory.
func New(t *tree.Tree, cfg *config.Config) (*Feed, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	f := &Feed{
		tree:     t,
		cfg:      cfg.Feed,
		maxNodes: cfg.Engine.MaxNodesPerUpdate,
		watcher:  watcher,
		done:     make(chan struct{}),
		digests:  make(map[string]uint64),
	}
	f.debouncer = newDebouncer(time.Duration(cfg.Feed.DebounceMs)*time.Millisecond, f.applyBatch)
	return f, nil
}

// SetOnApplied registers a callback invoked after each apply attempt, with
// the patch path and the apply error, if any. Must be called before Start.
func (f *Feed) SetOnApplied(fn func(path string, err error)) {
	f.onApplied = fn
}

// Start applies the patches already present in the directory, in lexical
// order, then begins watching for new ones.
func (f *Feed) Start() error {
	if err := f.applyExisting(); err != nil {
		return err
	}

	if err := f.watcher.Add(f.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", f.cfg.Dir, err)
	}

	f.wg.Add(1)
	go f.processEvents()
	return nil
}

// Stop stops watching. Events still pending in the debouncer are dropped;
// patches left in the directory are picked up by the next Start.
func (f *Feed) Stop() error {
	close(f.done)
	if err := f.watcher.Close(); err != nil {
		log.Printf("feed: error closing watcher: %v", err)
	}
	f.debouncer.stop()
	f.wg.Wait()
	return nil
}

// Stats reports apply counters.
type Stats struct {
	Applied       int64
	Failed        int64
	LastApplyTime time.Time
}

func (f *Feed) Stats() Stats {
	f.statsMu.RLock()
	defer f.statsMu.RUnlock()
	return Stats{Applied: f.applied, Failed: f.failed, LastApplyTime: f.lastApplyTime}
}

func (f *Feed) applyExisting() error {
	entries, err := os.ReadDir(f.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.cfg.Dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(f.cfg.Dir, e.Name())
		if f.matches(path) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	for _, path := range paths {
		f.applyFile(path)
	}
	return nil
}

func (f *Feed) processEvents() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			// A patch becomes interesting once fully written; Create alone
			// can race the producer's write, so both ops funnel into the
			// debouncer and the last event wins.
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !f.matches(event.Name) {
				continue
			}
			f.debouncer.add(event.Name)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("feed: watcher error: %v", err)
		}
	}
}

func (f *Feed) matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.cfg.Include {
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// applyBatch is the debouncer flush: apply the batch in lexical order.
func (f *Feed) applyBatch(paths []string) {
	slices.Sort(paths)
	for _, path := range paths {
		select {
		case <-f.done:
			return
		default:
		}
		f.applyFile(path)
	}
}

func (f *Feed) applyFile(path string) {
	err := f.apply(path)
	if err == errUnchanged {
		return
	}
	if err != nil {
		log.Printf("feed: %s: %v", path, err)
	}

	f.statsMu.Lock()
	if err != nil {
		f.failed++
	} else {
		f.applied++
	}
	f.lastApplyTime = time.Now()
	f.statsMu.Unlock()

	if f.onApplied != nil {
		f.onApplied(path, err)
	}
}

// errUnchanged marks a file whose bytes match what was already applied.
var errUnchanged = fmt.Errorf("patch content unchanged")

func (f *Feed) apply(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	digest := xxhash.Sum64(data)
	f.digestMu.Lock()
	seen, ok := f.digests[path]
	f.digests[path] = digest
	f.digestMu.Unlock()
	if ok && seen == digest {
		return errUnchanged
	}

	u, err := patch.Decode(data)
	if err != nil {
		return err
	}
	if f.maxNodes > 0 && len(u.Nodes) > f.maxNodes {
		return fmt.Errorf("patch carries %d records, limit is %d", len(u.Nodes), f.maxNodes)
	}
	return f.tree.Unserialize(u)
}

// debouncer batches paths and flushes them after a quiet period.
type debouncer struct {
	mu      sync.Mutex
	paths   map[string]struct{}
	delay   time.Duration
	timer   *time.Timer
	stopped bool
	flush   func([]string)
}

func newDebouncer(delay time.Duration, flush func([]string)) *debouncer {
	return &debouncer{
		paths: make(map[string]struct{}),
		delay: delay,
		flush: flush,
	}
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.paths[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.paths) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(d.paths))
	for path := range d.paths {
		batch = append(batch, path)
	}
	clear(d.paths)
	d.mu.Unlock()

	d.flush(batch)
}

// stop prevents any further flushes. Pending paths are dropped.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
