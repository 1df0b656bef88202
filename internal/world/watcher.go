package world

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chompie/internal/filestate"
	"chompie/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ErrTreeModified means a tracked file no longer holds what the engine last
// wrote to it.
var ErrTreeModified = errors.New("tracked file modified outside chompie")

// Watcher observes the directories of tracked files and remembers which
// tracked files saw filesystem events. The engine's own writes also produce
// events; Check tells them apart by comparing disk with the in-memory image.
//
// Detection is best effort: an outside write that lands after Check and is
// then overwritten by the engine's next persist goes unnoticed.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	tracked map[string]*filestate.File // absolute path -> file
	dirty   map[string]uint64          // absolute path -> event sequence
	seq     uint64
	errs    []error

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher starts watching every directory that holds a file of set.
func NewWatcher(set *filestate.Set) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		tracked: make(map[string]*filestate.File, set.Len()),
		dirty:   make(map[string]uint64),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, f := range set.Files() {
		abs, err := filepath.Abs(f.Path())
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f.Path(), err)
		}
		w.tracked[abs] = f
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logging.Watch("watching %d files in %d directories", len(w.tracked), len(dirs))

	w.running = true
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchWarn("watcher error: %v", err)
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if _, ok := w.tracked[path]; !ok {
		return
	}
	w.mu.Lock()
	w.seq++
	w.dirty[path] = w.seq
	w.mu.Unlock()
	logging.WatchDebug("%s on %s", event.Op, path)
}

// Check returns ErrTreeModified when a tracked file that saw events differs
// from its in-memory rendering. Files that match are marked clean again.
func (w *Watcher) Check() error {
	w.mu.Lock()
	errs := w.errs
	w.errs = nil
	pending := make(map[string]uint64, len(w.dirty))
	for path, seq := range w.dirty {
		pending[path] = seq
	}
	w.mu.Unlock()

	// An overflowed event queue means changes may have been missed.
	if errors.Is(errors.Join(errs...), fsnotify.ErrEventOverflow) {
		return w.checkAll()
	}

	for path, seq := range pending {
		if err := w.compare(path); err != nil {
			return err
		}
		w.mu.Lock()
		if w.dirty[path] == seq {
			delete(w.dirty, path)
		}
		w.mu.Unlock()
	}
	return nil
}

func (w *Watcher) checkAll() error {
	for path := range w.tracked {
		if err := w.compare(path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) compare(path string) error {
	f := w.tracked[path]
	disk, err := os.ReadFile(path)
	if err != nil {
		logging.WatchWarn("%s unreadable: %v", path, err)
		return fmt.Errorf("%w: %s: %w", ErrTreeModified, f.Path(), err)
	}
	if !bytes.Equal(disk, f.Render()) {
		logging.WatchWarn("%s changed on disk", path)
		return fmt.Errorf("%w: %s", ErrTreeModified, f.Path())
	}
	return nil
}

// Close stops the event loop and releases the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}
