// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the parent directory of a single stream file, so that the file
// being created, replaced or rotated is noticed as well as appends, and
// debounces rapid events (producers often flush many small writes) without
// losing the last one.
package fsnotify

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the minimum gap between two callbacks.
const DebounceInterval = 20 * time.Millisecond

// ErrAlreadyWatching is returned by a second Watch on the same Watcher.
var ErrAlreadyWatching = errors.New("watcher already started")

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	watching bool
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring path, which need not exist yet.
// onChange is called with the absolute path after writes, creates, removes
// and renames of that file.
func (w *Watcher) Watch(path string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return ErrAlreadyWatching
	}
	if err := w.fw.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	w.watching = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		var last time.Time
		var trailing <-chan time.Time
		fire := func() bool {
			select {
			case <-w.done:
				return false
			default:
			}
			last = time.Now()
			onChange(absPath)
			return true
		}
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				// Debounce: a suppressed event still gets one trailing callback.
				if wait := DebounceInterval - time.Since(last); wait > 0 {
					if trailing == nil {
						trailing = time.After(wait)
					}
					continue
				}
				if !fire() {
					return
				}

			case <-trailing:
				trailing = nil
				if !fire() {
					return
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed; the tailer's poll covers missed events.

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring, waits for a running callback to return and releases
// all resources. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	err := w.fw.Close()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}
