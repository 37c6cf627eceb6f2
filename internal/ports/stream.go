package ports

import "context"

// Source yields labeled instances one at a time. Adapters exist for CSV,
// JSON lines, follow-mode tailing, and a synthetic generator.
//
// Next returns io.EOF when the stream is exhausted. Follow-mode sources
// block until new data arrives or ctx is cancelled, in which case they
// return ctx.Err().
type Source interface {
	Next(ctx context.Context) (*Instance, error)

	// Close releases the underlying file or watcher. Safe to call twice.
	Close() error
}
