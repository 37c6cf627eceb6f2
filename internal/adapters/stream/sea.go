package stream

import (
	"context"
	"io"

	"golang.org/x/exp/rand"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// seaThresholds are the four SEA concepts, visited in order.
var seaThresholds = [...]float64{8, 9, 7, 9.5}

// SEAConfig configures the SEA concepts generator.
type SEAConfig struct {
	Seed       uint64
	Instances  uint64  // 0 means unbounded
	DriftEvery uint64  // instances per concept; 0 means no drift
	Noise      float64 // probability of flipping the label
}

// SEA generates the SEA concepts stream: three uniform features in [0, 10),
// class 0 when x0 + x1 <= threshold, and abrupt drifts between thresholds.
type SEA struct {
	cfg SEAConfig
	rng *rand.Rand
	n   uint64
}

func NewSEA(cfg SEAConfig) *SEA {
	return &SEA{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Concept returns the index of the active concept.
func (g *SEA) Concept() int {
	if g.cfg.DriftEvery == 0 {
		return 0
	}
	return int((g.n / g.cfg.DriftEvery) % uint64(len(seaThresholds)))
}

func (g *SEA) Next(ctx context.Context) (*ports.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.cfg.Instances > 0 && g.n >= g.cfg.Instances {
		return nil, io.EOF
	}
	x := []float64{g.rng.Float64() * 10, g.rng.Float64() * 10, g.rng.Float64() * 10}
	label := 1
	if x[0]+x[1] <= seaThresholds[g.Concept()] {
		label = 0
	}
	if g.cfg.Noise > 0 && g.rng.Float64() < g.cfg.Noise {
		label = 1 - label
	}
	g.n++
	return &ports.Instance{Features: x, Label: label, Weight: 1, NumClasses: 2}, nil
}

func (g *SEA) Close() error { return nil }
