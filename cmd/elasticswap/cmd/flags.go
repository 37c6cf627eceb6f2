package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/stream"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/app"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/config"
)

// evalFlags are shared by run and compare.
type evalFlags struct {
	// ensemble overrides
	variant       string
	advisor       string
	lambda        float64
	frontSize     int
	candidateSize int
	maxSize       int
	interval      int
	resizeFactor  int
	seed          int64
	drift         string

	// input
	synthetic    string
	instances    uint64
	driftEvery   uint64
	noise        float64
	format       string
	labelColumn  int
	labelName    string
	weightColumn int
	header       string
	follow       bool
	followIdle   time.Duration
	fromEnd      bool

	// output
	dbPath     string
	noSave     bool
	metricsOut string
	noProgress bool
}

func (f *evalFlags) register(c *cobra.Command, withVariant bool) {
	fl := c.Flags()
	if withVariant {
		fl.StringVarP(&f.variant, "variant", "v", "", "swap-only|grow-front|one-front|arf")
	}
	fl.StringVar(&f.advisor, "advisor", "", "resize advisor: ema|mcnemar")
	fl.Float64Var(&f.lambda, "lambda", 0, "Poisson bagging lambda")
	fl.IntVar(&f.frontSize, "front-size", 0, "initial front (active) ensemble size")
	fl.IntVar(&f.candidateSize, "candidate-size", 0, "background candidate pool size")
	fl.IntVar(&f.maxSize, "max-size", 0, "total learner cap")
	fl.IntVar(&f.interval, "interval", 0, "instances between resize checks")
	fl.IntVar(&f.resizeFactor, "resize-factor", 0, "learners added or removed per resize")
	fl.Int64Var(&f.seed, "seed", 0, "random seed")
	fl.StringVar(&f.drift, "drift", "", "drift detector: ddm|none")

	fl.StringVar(&f.synthetic, "synthetic", "", "use a synthetic generator instead of a file: sea")
	fl.Uint64Var(&f.instances, "instances", 100000, "instances to generate (synthetic)")
	fl.Uint64Var(&f.driftEvery, "drift-every", 25000, "instances per concept (synthetic)")
	fl.Float64Var(&f.noise, "noise", 0.1, "label noise probability (synthetic)")
	fl.StringVar(&f.format, "format", "", "csv|tsv|jsonl (default: from extension)")
	fl.IntVar(&f.labelColumn, "label-column", 0, "1-based CSV label column (default: last)")
	fl.StringVar(&f.labelName, "label-name", "", "CSV header name of the label column")
	fl.IntVar(&f.weightColumn, "weight-column", 0, "1-based CSV weight column (default: none)")
	fl.StringVar(&f.header, "header", "auto", "CSV header: auto|yes|no")
	fl.BoolVarP(&f.follow, "follow", "f", false, "keep reading as the file grows")
	fl.DurationVar(&f.followIdle, "follow-idle", 0, "stop following after this long without data (0 = until interrupted)")
	fl.BoolVar(&f.fromEnd, "from-end", false, "with --follow, skip lines already in the file")

	fl.StringVar(&f.dbPath, "db", "", "run store path (overrides config)")
	fl.BoolVar(&f.noSave, "no-save", false, "do not store the run")
	fl.StringVar(&f.metricsOut, "metrics-out", "", "write Prometheus text metrics to this file")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
}

// apply copies the flags the user set onto cfg and validates the result.
func (f *evalFlags) apply(c *cobra.Command, cfg *config.Config) error {
	fl := c.Flags()
	e := &cfg.Ensemble
	if fl.Changed("variant") {
		e.Variant = f.variant
	}
	if fl.Changed("advisor") {
		e.Advisor = f.advisor
	}
	if fl.Changed("lambda") {
		e.Lambda = f.lambda
	}
	if fl.Changed("front-size") {
		e.FrontSize = f.frontSize
		if e.FrontMinSize > e.FrontSize {
			e.FrontMinSize = e.FrontSize
		}
	}
	if fl.Changed("candidate-size") {
		e.CandidateSize = f.candidateSize
		if e.CandidateMinSize > e.CandidateSize {
			e.CandidateMinSize = e.CandidateSize
		}
	}
	if fl.Changed("max-size") {
		e.MaxSize = f.maxSize
	}
	if fl.Changed("interval") {
		e.ElasticInterval = f.interval
	}
	if fl.Changed("resize-factor") {
		e.ResizeFactor = f.resizeFactor
	}
	if fl.Changed("seed") {
		cfg.Run.Seed = f.seed
	}
	if fl.Changed("drift") {
		cfg.Drift.Type = f.drift
	}
	if f.dbPath != "" {
		cfg.Storage.Path = f.dbPath
	}
	return cfg.Validate()
}

// source describes the input named by the arguments and flags.
func (f *evalFlags) source(args []string, cfg *config.Config) (app.SourceSpec, error) {
	input := app.SourceSpec{
		Follow:     f.follow,
		FollowIdle: f.followIdle,
		FromEnd:    f.fromEnd,
		Synthetic:  f.synthetic,
		Instances:  f.instances,
		DriftEvery: f.driftEvery,
		Noise:      f.noise,
		Seed:       uint64(cfg.Run.Seed),
		Options: stream.Options{
			Format:       f.format,
			LabelColumn:  f.labelColumn,
			LabelName:    f.labelName,
			WeightColumn: f.weightColumn,
		},
	}
	if len(args) > 0 {
		input.Path = args[0]
	}
	switch f.header {
	case "auto":
		input.Options.Header = stream.HeaderAuto
	case "yes":
		input.Options.Header = stream.HeaderPresent
	case "no":
		input.Options.Header = stream.HeaderAbsent
	default:
		return input, fmt.Errorf("--header %q: expected auto, yes or no", f.header)
	}
	return input, nil
}
