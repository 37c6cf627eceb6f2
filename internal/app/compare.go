package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/prom"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/config"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// Compare evaluates every variant on its own copy of the stream, in
// parallel, with otherwise identical configuration and seed. Records come
// back in the order of variants. Every variant is validated before any run
// starts; once running, the first failure cancels the others. reg may be nil.
func Compare(ctx context.Context, cfg *config.Config, variants []controller.Variant, input SourceSpec, log zerolog.Logger, reg prometheus.Registerer) ([]*ports.RunRecord, error) {
	if input.Follow {
		return nil, fmt.Errorf("compare needs a finite stream; follow mode is not supported")
	}

	runners := make([]*Runner, len(variants))
	for i, v := range variants {
		c := *cfg
		c.Ensemble.Variant = string(v)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("variant %s: %w", v, err)
		}
		runner, err := NewRunner(&c, input.Name(), log)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", v, err)
		}
		runners[i] = runner
	}

	g, ctx := errgroup.WithContext(ctx)
	recs := make([]*ports.RunRecord, len(variants))
	for i, v := range variants {
		runner := runners[i]
		if reg != nil {
			runner.Metrics = prom.NewRunMetrics(reg, string(v))
		}

		g.Go(func() error {
			src, err := OpenSource(input)
			if err != nil {
				return err
			}
			defer src.Close()
			rec, err := runner.Run(ctx, src)
			recs[i] = rec
			if err != nil {
				return fmt.Errorf("variant %s: %w", v, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return recs, err
	}
	return recs, nil
}
