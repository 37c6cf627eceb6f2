package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/bbolt"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/prom"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/app"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

var runFlags evalFlags

var runCmd = &cobra.Command{
	Use:   "run [stream-file]",
	Short: "Evaluate one controller variant on a stream",
	Long: "Test-then-train evaluation over a CSV/TSV/JSONL file (optionally .gz),\n" +
		"a file followed as it grows (--follow), or a synthetic generator\n" +
		"(--synthetic sea). Interrupting a run still reports and stores it.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd, true)
}

func runRun(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runFlags.apply(c, cfg); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	input, err := runFlags.source(args, cfg)
	if err != nil {
		return err
	}

	// Open the store first so a lock problem shows before a long run.
	var store *bbolt.Store
	if !runFlags.noSave {
		if store, err = openStore(cfg.Storage.Path); err != nil {
			return err
		}
		defer store.Close()
	}

	src, err := app.OpenSource(input)
	if err != nil {
		return err
	}
	defer src.Close()

	runner, err := app.NewRunner(cfg, input.Name(), log)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	if runFlags.metricsOut != "" {
		runner.Metrics = prom.NewRunMetrics(reg, cfg.Ensemble.Variant)
	}

	var bar *progressbar.ProgressBar
	if !runFlags.noProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = newProgressBar(input, cfg.Ensemble.Variant)
		runner.OnProgress = func(p app.Progress) {
			bar.Describe(fmt.Sprintf("%-10s acc %.4f win %.4f front %d",
				cfg.Ensemble.Variant, p.Accuracy, p.WindowAccuracy, p.FrontSize))
			_ = bar.Set64(int64(p.Instances))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rec, runErr := runner.Run(ctx, src)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	return finish(c, []*ports.RunRecord{rec}, store, reg)
}

// finish stores and prints records and writes the metrics file.
func finish(c *cobra.Command, recs []*ports.RunRecord, store *bbolt.Store, reg prometheus.Gatherer) error {
	if store != nil {
		for _, rec := range recs {
			if err := store.SaveRun(rec); err != nil {
				return fmt.Errorf("save run %s: %w", rec.ID, err)
			}
		}
	}
	renderRuns(c.OutOrStdout(), recs)

	if path := metricsOut(c); path != "" {
		if err := prom.WriteTextfile(path, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func metricsOut(c *cobra.Command) string {
	if c == compareCmd {
		return compareFlags.metricsOut
	}
	return runFlags.metricsOut
}

func newProgressBar(input app.SourceSpec, variant string) *progressbar.ProgressBar {
	total := int64(-1)
	if input.Synthetic != "" && input.Instances > 0 {
		total = int64(input.Instances)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(variant),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("inst"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(total > 0),
	)
}

// openStore opens the run store, explaining lock timeouts.
func openStore(path string) (*bbolt.Store, error) {
	store, err := bbolt.NewStore(path)
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%w\n%s", err, diagnoseDBLock(path))
		}
		return nil, err
	}
	return store, nil
}
