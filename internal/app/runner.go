// Package app wires the controller, the instance sources and the run
// bookkeeping together. Runner performs prequential (test-then-train)
// evaluation of one controller over one stream.
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/prom"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/stream"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/config"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// ProgressEvery is how often, in instances, OnProgress is called.
const ProgressEvery = 100

// Progress is reported to the OnProgress hook.
type Progress struct {
	Instances      uint64
	Accuracy       float64
	WindowAccuracy float64
	FrontSize      int
}

// Runner evaluates one controller.
type Runner struct {
	Controller controller.Controller
	Config     *config.Config
	Source     string // stored as RunRecord.Source
	Log        zerolog.Logger

	// Optional
	Metrics    *prom.RunMetrics
	OnProgress func(Progress)

	now func() time.Time
}

// NewRunner builds the controller selected by cfg and a runner around it.
func NewRunner(cfg *config.Config, source string, log zerolog.Logger) (*Runner, error) {
	ctrl, err := NewController(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Controller: ctrl,
		Config:     cfg,
		Source:     source,
		Log:        log,
	}, nil
}

// Run consumes src until io.EOF and returns the run record. Malformed lines
// are logged and skipped. When ctx is cancelled the record covers the
// instances processed so far and is returned together with ctx.Err().
//
// An instance counts as correct when the arg-max of the ensemble vote is its
// label; an empty vote (nothing trained yet) is a miss.
func (r *Runner) Run(ctx context.Context, src ports.Source) (*ports.RunRecord, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	runCfg := r.Config.Run
	started := now()
	rec := &ports.RunRecord{
		ID:      uuid.NewString(),
		Source:  r.Source,
		Variant: r.Config.Ensemble.Variant,
		Advisor: advisorName(r.Config),
		Started: started,
		Config:  r.Config.Map(),
	}
	log := r.Log.With().Str("run", rec.ID).Str("variant", rec.Variant).Logger()

	window := NewWindow(runCfg.Window)
	rate := NewRateTracker(30 * time.Second)
	var malformed uint64
	st := r.Controller.Stats()
	rec.MinFrontSize, rec.MaxFrontSize = st.FrontSize, st.FrontSize

	log.Info().Str("source", rec.Source).Str("advisor", rec.Advisor).Msg("run started")

	var runErr error
	for {
		inst, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, stream.ErrMalformed) {
				malformed++
				if malformed <= 10 || malformed%1000 == 0 {
					log.Warn().Err(err).Uint64("malformed", malformed).Msg("skipping instance")
				}
				continue
			}
			runErr = err
			break
		}

		votes := r.Controller.Predict(inst)
		correct := len(votes) > 0 && stats.ArgMax(votes) == inst.Label
		r.Controller.Train(inst)

		rec.Instances++
		if correct {
			rec.Correct++
		}
		window.Add(correct)

		st = r.Controller.Stats()
		if st.FrontSize > rec.MaxFrontSize {
			rec.MaxFrontSize = st.FrontSize
		}
		if st.FrontSize < rec.MinFrontSize {
			rec.MinFrontSize = st.FrontSize
		}

		n := rec.Instances
		if n%uint64(runCfg.CurveEvery) == 0 {
			rec.Curve = append(rec.Curve, ports.CurvePoint{
				Instances:      n,
				Accuracy:       accuracy(rec),
				WindowAccuracy: window.Accuracy(),
				FrontSize:      st.FrontSize,
			})
		}
		if r.OnProgress != nil && n%ProgressEvery == 0 {
			r.OnProgress(Progress{
				Instances:      n,
				Accuracy:       accuracy(rec),
				WindowAccuracy: window.Accuracy(),
				FrontSize:      st.FrontSize,
			})
		}
		if n%uint64(runCfg.LogEvery) == 0 {
			rate.Record(n)
			log.Info().
				Uint64("instances", n).
				Float64("accuracy", accuracy(rec)).
				Float64("window_accuracy", window.Accuracy()).
				Int("front", st.FrontSize).
				Uint64("swaps", st.Swaps).
				Uint64("drifts", st.Drifts).
				Float64("per_sec", rate.PerSecond()).
				Msg("progress")
			r.observe(rec, window, malformed, st)
		}
	}

	st = r.Controller.Stats()
	rec.Accuracy = accuracy(rec)
	rec.Duration = now().Sub(started).Seconds()
	rec.Grows = st.Grows
	rec.Shrinks = st.Shrinks
	rec.Swaps = st.Swaps
	rec.Drifts = st.Drifts
	rec.FrontSize = st.FrontSize
	rec.CandidateSize = st.CandidateSize
	if last := len(rec.Curve); rec.Instances > 0 && (last == 0 || rec.Curve[last-1].Instances != rec.Instances) {
		rec.Curve = append(rec.Curve, ports.CurvePoint{
			Instances:      rec.Instances,
			Accuracy:       rec.Accuracy,
			WindowAccuracy: window.Accuracy(),
			FrontSize:      st.FrontSize,
		})
	}
	r.observe(rec, window, malformed, st)

	ev := log.Info()
	if runErr != nil {
		ev = log.Warn().Err(runErr)
	}
	ev.Uint64("instances", rec.Instances).
		Float64("accuracy", rec.Accuracy).
		Int("front", rec.FrontSize).
		Uint64("grows", rec.Grows).
		Uint64("shrinks", rec.Shrinks).
		Uint64("swaps", rec.Swaps).
		Uint64("malformed", malformed).
		Float64("seconds", rec.Duration).
		Msg("run finished")
	return rec, runErr
}

func (r *Runner) observe(rec *ports.RunRecord, window *Window, malformed uint64, st controller.Stats) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.Observe(prom.Snapshot{
		Instances:      rec.Instances,
		Correct:        rec.Correct,
		Accuracy:       accuracy(rec),
		WindowAccuracy: window.Accuracy(),
		Malformed:      malformed,
		Stats:          st,
	})
}

func accuracy(rec *ports.RunRecord) float64 {
	if rec.Instances == 0 {
		return 0
	}
	return float64(rec.Correct) / float64(rec.Instances)
}
