// Package poisson draws online-bagging weights.
package poisson

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// Sampler is a seeded Poisson sampler. Not safe for concurrent use.
type Sampler struct {
	src rand.Source
}

var _ ports.Sampler = (*Sampler)(nil)

func New(seed uint64) *Sampler {
	return &Sampler{src: rand.NewSource(seed)}
}

// Poisson returns a draw from Poisson(lambda), or 0 when lambda <= 0.
func (s *Sampler) Poisson(lambda float64) int {
	if !(lambda > 0) {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.src}.Rand())
}
