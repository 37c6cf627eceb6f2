// Package tailer follows a growing stream file and yields its instances as
// they are appended.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/stream"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// Tailer is a follow-mode ports.Source.
//
// A background loop reads complete lines appended since the last read,
// woken by the watcher when one is configured and by a poll ticker
// otherwise (or as a fallback for missed events). A line without its
// trailing newline is left for the next read. A file that shrinks is read
// again from the start.
//
// Thread-safe: Next and Close can be called from any goroutine.
type Tailer struct {
	path         string
	dec          stream.Decoder
	watcher      ports.Watcher
	pollInterval time.Duration
	idleTimeout  time.Duration

	// State, owned by the loop
	offset int64
	line   int

	out  chan item
	wake chan struct{}

	mu      sync.Mutex
	done    chan struct{}
	started chan struct{} // closed after the initial offset is set
	wg      sync.WaitGroup
}

type item struct {
	inst *ports.Instance
	err  error
}

// Config holds parameters for creating a Tailer.
type Config struct {
	// Path is the stream file. It may not exist yet.
	Path string

	// Decoder parses each line. Default: chosen from the extension of Path.
	Decoder stream.Decoder

	// Watcher wakes the tailer on writes. Optional; the tailer owns it and
	// stops it on Close.
	Watcher ports.Watcher

	// PollInterval is how often to check for new lines. Default: 500ms.
	PollInterval time.Duration

	// IdleTimeout ends the stream (io.EOF) after this long without new
	// data. Zero follows until Close or context cancellation.
	IdleTimeout time.Duration

	// SeekEnd skips the lines already in the file.
	SeekEnd bool
}

// Open starts tailing. The returned source must be closed.
func Open(cfg Config, opts stream.Options) (*Tailer, error) {
	dec := cfg.Decoder
	if dec == nil {
		var err error
		if dec, err = stream.NewDecoder(cfg.Path, opts); err != nil {
			return nil, err
		}
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}

	t := &Tailer{
		path:         cfg.Path,
		dec:          dec,
		watcher:      cfg.Watcher,
		pollInterval: interval,
		idleTimeout:  cfg.IdleTimeout,
		out:          make(chan item, 256),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		started:      make(chan struct{}),
	}
	if t.watcher != nil {
		if err := t.watcher.Watch(cfg.Path, func(string) { t.Wake() }); err != nil {
			return nil, fmt.Errorf("watch %s: %w", cfg.Path, err)
		}
	}

	t.wg.Add(1)
	go t.loop(cfg.SeekEnd)
	return t, nil
}

// Started returns a channel that closes once the tailer has positioned
// itself in the file.
func (t *Tailer) Started() <-chan struct{} {
	return t.started
}

// Wake asks the loop to read now instead of waiting for the next tick.
func (t *Tailer) Wake() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Next blocks until an instance is available. Decode failures come back
// wrapped around stream.ErrMalformed and tailing continues. Returns io.EOF
// after Close or the idle timeout.
func (t *Tailer) Next(ctx context.Context) (*ports.Instance, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case it, ok := <-t.out:
		if !ok {
			return nil, io.EOF
		}
		return it.inst, it.err
	}
}

// Close stops the loop and the watcher. Safe to call multiple times.
func (t *Tailer) Close() error {
	t.mu.Lock()
	select {
	case <-t.done:
		// Already stopped
		t.mu.Unlock()
		return nil
	default:
		close(t.done)
	}
	t.mu.Unlock()

	var err error
	if t.watcher != nil {
		err = t.watcher.Stop()
	}
	t.wg.Wait()
	return err
}

func (t *Tailer) loop(seekEnd bool) {
	defer t.wg.Done()
	defer close(t.out)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	if seekEnd {
		if info, err := os.Stat(t.path); err == nil {
			t.offset = info.Size()
		}
	}
	close(t.started)

	lastData := time.Now()
	for {
		n, ok := t.readNewLines()
		if !ok {
			return
		}
		if n > 0 {
			lastData = time.Now()
		} else if t.idleTimeout > 0 && time.Since(lastData) >= t.idleTimeout {
			return
		}

		select {
		case <-t.done:
			return
		case <-t.wake:
		case <-ticker.C:
		}
	}
}

// readNewLines emits complete lines appended since the last read and
// returns how many were read. ok is false once Close was called.
// Uses ReadBytes('\n') to track exact byte offsets (bufio.Scanner
// reads ahead and corrupts file position tracking).
func (t *Tailer) readNewLines() (n int, ok bool) {
	f, err := os.Open(t.path)
	if err != nil {
		return 0, true // not created yet, or rotated away; try next cycle
	}
	defer f.Close()

	// Check if file was truncated (rewritten)
	info, err := f.Stat()
	if err != nil {
		return 0, true
	}
	if info.Size() < t.offset {
		t.offset = 0
		t.line = 0
	}
	if info.Size() == t.offset {
		return 0, true
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return 0, true
	}

	reader := bufio.NewReaderSize(f, 256*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) == 0 || line[len(line)-1] != '\n' {
			// EOF, possibly in the middle of a line still being written
			return n, true
		}

		t.offset += int64(len(line))
		t.line++
		n++
		line = stream.TrimNewline(line)

		var it item
		if len(line) > stream.MaxLineBytes {
			it.err = fmt.Errorf("line %d: %w: %d bytes", t.line, stream.ErrMalformed, len(line))
		} else {
			it.inst, it.err = t.dec.Decode(line)
			if it.err != nil {
				it.err = fmt.Errorf("line %d: %w", t.line, it.err)
			}
		}
		if it.inst != nil || it.err != nil {
			select {
			case t.out <- it:
			case <-t.done:
				return n, false
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return n, true
		}
	}
}
