package app

import (
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/bayes"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/ddm"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/adapters/poisson"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/config"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// NewDetector returns the drift detector prototype, nil when disabled.
func NewDetector(cfg config.DriftConfig) ports.DriftDetector {
	if cfg.Type == config.DriftNone {
		return nil
	}
	return ddm.New(
		ddm.WithWarningLevel(cfg.WarningLevel),
		ddm.WithDriftLevel(cfg.DriftLevel),
		ddm.WithMinInstances(cfg.MinInstances),
	)
}

// NewController builds the configured variant with the concrete learner,
// detector and sampler. The classifier subspaces and the bagging weights
// draw from separate streams derived from the run seed.
func NewController(cfg *config.Config, log zerolog.Logger) (controller.Controller, error) {
	v, err := controller.ParseVariant(cfg.Ensemble.Variant)
	if err != nil {
		return nil, err
	}
	seed := uint64(cfg.Run.Seed)
	classifier := bayes.New(cfg.Learner.Subspace, rand.New(rand.NewSource(seed)))
	sampler := poisson.New(seed + 1)

	opts := []controller.Option{controller.WithLogger(log)}
	if v != controller.VariantSwapOnly {
		adv, err := cfg.Advisor()
		if err != nil {
			return nil, err
		}
		opts = append(opts, controller.WithAdvisor(adv))
	}
	return controller.New(v, cfg.Params(), classifier, NewDetector(cfg.Drift), sampler, opts...)
}

// advisorName is what a run record shows for the advisor.
func advisorName(cfg *config.Config) string {
	if cfg.Ensemble.Variant == string(controller.VariantSwapOnly) {
		return ""
	}
	return cfg.Ensemble.Advisor
}
