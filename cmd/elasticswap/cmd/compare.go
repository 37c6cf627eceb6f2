package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/bbolt"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/app"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
)

var (
	compareFlags    evalFlags
	compareVariants []string
)

var compareCmd = &cobra.Command{
	Use:   "compare [stream-file]",
	Short: "Evaluate several controller variants side by side",
	Long: "Runs every selected variant in parallel on its own pass over the same\n" +
		"stream with the same seed and prints one row per variant.",
	Args: cobra.MaximumNArgs(1),
}

func init() {
	// Assigned here rather than in the literal to break the initialization
	// cycle compareCmd -> runCompare -> finish -> metricsOut -> compareCmd.
	compareCmd.RunE = runCompare
	compareFlags.register(compareCmd, false)
	names := make([]string, len(controller.Variants))
	for i, v := range controller.Variants {
		names[i] = string(v)
	}
	compareCmd.Flags().StringSliceVar(&compareVariants, "variants", names, "variants to compare")
}

func runCompare(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := compareFlags.apply(c, cfg); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	input, err := compareFlags.source(args, cfg)
	if err != nil {
		return err
	}
	variants := make([]controller.Variant, 0, len(compareVariants))
	for _, name := range compareVariants {
		v, err := controller.ParseVariant(name)
		if err != nil {
			return err
		}
		variants = append(variants, v)
	}

	var store *bbolt.Store
	if !compareFlags.noSave {
		if store, err = openStore(cfg.Storage.Path); err != nil {
			return err
		}
		defer store.Close()
	}

	var reg *prometheus.Registry
	var registerer prometheus.Registerer
	if compareFlags.metricsOut != "" {
		reg = prometheus.NewRegistry()
		registerer = reg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	recs, err := app.Compare(ctx, cfg, variants, input, log, registerer)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	done := recs[:0]
	for _, rec := range recs {
		if rec != nil {
			done = append(done, rec)
		}
	}
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	return finish(c, done, store, gatherer)
}
