// Package bayes provides the base classifier: an incremental Gaussian naive
// Bayes over a random feature subspace.
package bayes

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// minStdDev keeps likelihoods finite for attributes that have not varied.
const minStdDev = 1e-3

// NaiveBayes models each (class, attribute) pair as a Gaussian updated with
// weighted Welford steps. Missing values (NaN) are ignored in training and
// prediction. The subspace is drawn on the first training instance and
// redrawn after ResetState; clones share the random source and draw their
// own subspace.
type NaiveBayes struct {
	subspace int
	rng      *rand.Rand

	features []int // nil until the first instance
	classes  []classStats
	total    float64
}

type classStats struct {
	weight float64
	attrs  []gaussian
}

type gaussian struct {
	w, mean, m2 float64
}

func (g *gaussian) add(x, w float64) {
	g.w += w
	d := x - g.mean
	g.mean += w * d / g.w
	g.m2 += w * d * (x - g.mean)
}

func (g *gaussian) stdDev() float64 {
	if g.w <= 1 {
		return minStdDev
	}
	return math.Max(math.Sqrt(g.m2/(g.w-1)), minStdDev)
}

var _ ports.Classifier = (*NaiveBayes)(nil)

// New returns an untrained classifier. subspace is the number of features
// each model looks at; 0 means round(sqrt(n))+1. A nil rng gets a source
// seeded with 1.
func New(subspace int, rng *rand.Rand) *NaiveBayes {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &NaiveBayes{subspace: subspace, rng: rng}
}

// SubspaceSize returns the number of features used for n input features.
func SubspaceSize(requested, n int) int {
	k := requested
	if k <= 0 {
		k = int(math.Round(math.Sqrt(float64(n)))) + 1
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	return k
}

// Features returns the chosen subspace, nil before training.
func (nb *NaiveBayes) Features() []int {
	return append([]int(nil), nb.features...)
}

func (nb *NaiveBayes) choose(n int) {
	if n == 0 {
		nb.features = []int{}
		return
	}
	k := SubspaceSize(nb.subspace, n)
	if k == n {
		nb.features = make([]int, n)
		for i := range nb.features {
			nb.features[i] = i
		}
		return
	}
	nb.features = nb.rng.Perm(n)[:k]
	sort.Ints(nb.features)
}

func (nb *NaiveBayes) Train(inst *ports.Instance, weight float64) {
	if !(weight > 0) || inst.Label < 0 {
		return
	}
	if nb.features == nil {
		nb.choose(len(inst.Features))
	}
	for len(nb.classes) <= inst.Label {
		nb.classes = append(nb.classes, classStats{attrs: make([]gaussian, len(nb.features))})
	}
	c := &nb.classes[inst.Label]
	c.weight += weight
	nb.total += weight
	for j, f := range nb.features {
		if f >= len(inst.Features) || math.IsNaN(inst.Features[f]) {
			continue
		}
		c.attrs[j].add(inst.Features[f], weight)
	}
}

// Predict returns class posteriors summing to 1, or nil before training.
func (nb *NaiveBayes) Predict(inst *ports.Instance) []float64 {
	if nb.total == 0 {
		return nil
	}
	logs := make([]float64, len(nb.classes))
	for i, c := range nb.classes {
		if c.weight == 0 {
			logs[i] = math.Inf(-1)
			continue
		}
		lp := math.Log(c.weight / nb.total)
		for j, f := range nb.features {
			if f >= len(inst.Features) || math.IsNaN(inst.Features[f]) || c.attrs[j].w == 0 {
				continue
			}
			g := c.attrs[j]
			lp += distuv.Normal{Mu: g.mean, Sigma: g.stdDev()}.LogProb(inst.Features[f])
		}
		logs[i] = lp
	}
	norm := floats.LogSumExp(logs)
	votes := make([]float64, len(logs))
	for i, lp := range logs {
		votes[i] = math.Exp(lp - norm)
	}
	return votes
}

// CorrectlyClassifies reports whether the most probable class is the label.
// An untrained classifier never classifies correctly.
func (nb *NaiveBayes) CorrectlyClassifies(inst *ports.Instance) bool {
	votes := nb.Predict(inst)
	if len(votes) == 0 {
		return false
	}
	return stats.ArgMax(votes) == inst.Label
}

// ResetState forgets the model and the subspace.
func (nb *NaiveBayes) ResetState() {
	nb.features = nil
	nb.classes = nil
	nb.total = 0
}

func (nb *NaiveBayes) Clone() ports.Classifier {
	return New(nb.subspace, nb.rng)
}
