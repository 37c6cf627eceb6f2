package controller

import (
	"math"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/ensemble"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// growFront never shrinks. The grown counterfactual adds the best of the
// top candidate and the staged learner to the front vote, and the advisor
// is consulted on every instance.
type growFront struct {
	*base
}

func newGrowFront(b *base) *growFront {
	b.initFront()
	b.initCandidates()
	b.ens.InitGroup(ensemble.Grow, 1, 1, 1)
	return &growFront{base: b}
}

func (c *growFront) Train(inst *ports.Instance) {
	if !c.begin(inst) {
		return
	}
	combined := c.trainVote(inst, ensemble.Front, 0, c.ens.Size(ensemble.Front), nil)
	ys := stats.ArgMax(combined)
	yd := ys

	candVote, candAcc := c.trainBest(inst, ensemble.Candidate)
	growVote, growAcc := c.trainBest(inst, ensemble.Grow)
	if growAcc > candAcc || math.IsNaN(candAcc) {
		combined = stats.CombineVote(combined, growVote, growAcc)
	} else {
		combined = stats.CombineVote(combined, candVote, candAcc)
	}
	yg := stats.ArgMax(combined)

	c.advisor.AddResults(inst.Label, ys, yd, yg)
	if c.advisor.ShouldResize() == elastic.Grow {
		c.grow()
	}
	c.swap()
}

// trainBest moves the best learner of g to slot 0, trains the whole group
// and returns the vote and accuracy of that learner.
func (c *growFront) trainBest(inst *ports.Instance, g ensemble.GroupID) ([]float64, float64) {
	if c.ens.Size(g) == 0 {
		return nil, math.NaN()
	}
	c.ens.FindMoveMax(g, c.score)
	best := c.ens.Learner(g, 0)
	vote := c.train(g, best, inst)
	c.trainOnly(inst, g, 1, c.ens.Size(g))
	return vote, best.Accuracy()
}

func (c *growFront) grow() {
	before := c.ens.Size(ensemble.Front)
	n := c.ens.Grow(ensemble.Front, 1)
	if n < 0 {
		c.st.GrowsRejected++
		return
	}
	if c.ens.Size(ensemble.Grow) > 0 {
		c.ens.Swap(ensemble.Front, n-1, ensemble.Grow, 0)
	}
	c.st.Grows++
	c.advisor.Reset()
	c.logResize(elastic.Grow, before, n)
}
