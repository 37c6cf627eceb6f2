package tailer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fswatch "github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/fsnotify"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/stream"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

var _ ports.Source = (*Tailer)(nil)

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func next(t *testing.T, src ports.Source) (*ports.Instance, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return src.Next(ctx)
}

func openTailer(t *testing.T, cfg Config) *Tailer {
	t.Helper()
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	tl, err := Open(cfg, stream.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { tl.Close() })
	<-tl.Started()
	return tl
}

func TestTailer_ReadsExistingThenAppended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	appendTo(t, path, "1,2,a\n3,4,b\n")
	tl := openTailer(t, Config{Path: path})

	for _, want := range []float64{1, 3} {
		inst, err := next(t, tl)
		require.NoError(t, err)
		assert.Equal(t, want, inst.Features[0])
	}

	appendTo(t, path, "5,6,a\n")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, inst.Features)
	assert.Equal(t, 0, inst.Label)
}

func TestTailer_SeekEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	appendTo(t, path, "1,2,a\n")
	tl := openTailer(t, Config{Path: path, SeekEnd: true})

	appendTo(t, path, "7,8,b\n")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, inst.Features)
}

func TestTailer_WaitsForCompleteLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	tl := openTailer(t, Config{Path: path})

	appendTo(t, path, `{"x":[1,2],`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	_, err := tl.Next(ctx)
	cancel()
	require.ErrorIs(t, err, context.DeadlineExceeded)

	appendTo(t, path, `"y":1}`+"\n")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, 1, inst.Label)
}

func TestTailer_FileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.csv")
	tl := openTailer(t, Config{Path: path})

	appendTo(t, path, "1,0\n")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, inst.Features)
}

func TestTailer_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	appendTo(t, path, "1,0\n2,1\n")
	tl := openTailer(t, Config{Path: path})
	for i := 0; i < 2; i++ {
		_, err := next(t, tl)
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(path, []byte("9,0\n"), 0o644))
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, inst.Features)
}

func TestTailer_MalformedLineContinues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	appendTo(t, path, "1,2,0\nbad\n3,4,1\n")
	tl := openTailer(t, Config{Path: path})

	_, err := next(t, tl)
	require.NoError(t, err)
	_, err = next(t, tl)
	require.ErrorIs(t, err, stream.ErrMalformed)
	assert.Contains(t, err.Error(), "line 2")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, inst.Features)
}

func TestTailer_IdleTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	appendTo(t, path, "1,0\n")
	tl := openTailer(t, Config{Path: path, IdleTimeout: 50 * time.Millisecond})

	_, err := next(t, tl)
	require.NoError(t, err)
	_, err = next(t, tl)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTailer_CloseEndsStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	tl := openTailer(t, Config{Path: path})

	require.NoError(t, tl.Close())
	require.NoError(t, tl.Close())
	_, err := next(t, tl)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestTailer_ContextCancel(t *testing.T) {
	tl := openTailer(t, Config{Path: filepath.Join(t.TempDir(), "s.csv")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tl.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTailer_WokenByWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.csv")
	w, err := fswatch.NewWatcher()
	require.NoError(t, err)
	// Long poll: only the watcher can deliver the line in time.
	tl := openTailer(t, Config{Path: path, Watcher: w, PollInterval: time.Hour})
	time.Sleep(50 * time.Millisecond)

	appendTo(t, path, "4,2,1\n")
	inst, err := next(t, tl)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 2}, inst.Features)
}

func TestOpen_UnknownFormat(t *testing.T) {
	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "s.bin")}, stream.Options{})
	assert.ErrorIs(t, err, stream.ErrUnknownFormat)
}
