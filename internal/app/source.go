package app

import (
	"errors"
	"fmt"
	"time"

	fsw "github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/fsnotify"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/stream"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/tailer"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// GeneratorSEA names the synthetic SEA concepts stream.
const GeneratorSEA = "sea"

var (
	ErrNoSource         = errors.New("no input: give a stream file or a synthetic generator")
	ErrUnknownGenerator = errors.New("unknown synthetic generator")
)

// SourceSpec describes where instances come from: a file, optionally
// followed as it grows, or a synthetic generator.
type SourceSpec struct {
	Path    string
	Options stream.Options

	Follow     bool
	FollowIdle time.Duration // end a followed stream after this long without data; 0 = never
	FromEnd    bool          // follow only lines appended after start

	Synthetic  string
	Instances  uint64
	DriftEvery uint64
	Noise      float64
	Seed       uint64
}

// Name is the label stored with a run.
func (s SourceSpec) Name() string {
	if s.Synthetic != "" {
		return s.Synthetic
	}
	return s.Path
}

// OpenSource opens the instance source described by s.
func OpenSource(s SourceSpec) (ports.Source, error) {
	switch {
	case s.Synthetic != "" && s.Path != "":
		return nil, fmt.Errorf("both a stream file and a synthetic generator given")
	case s.Synthetic == GeneratorSEA:
		return stream.NewSEA(stream.SEAConfig{
			Seed:       s.Seed,
			Instances:  s.Instances,
			DriftEvery: s.DriftEvery,
			Noise:      s.Noise,
		}), nil
	case s.Synthetic != "":
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, s.Synthetic)
	case s.Path == "":
		return nil, ErrNoSource
	case s.Follow:
		w, err := fsw.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("watcher: %w", err)
		}
		t, err := tailer.Open(tailer.Config{
			Path:        s.Path,
			Watcher:     w,
			IdleTimeout: s.FollowIdle,
			SeekEnd:     s.FromEnd,
		}, s.Options)
		if err != nil {
			w.Stop()
			return nil, err
		}
		return t, nil
	default:
		return stream.Open(s.Path, s.Options)
	}
}
