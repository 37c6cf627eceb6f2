package controller

import (
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/ensemble"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// oneFront stages a single learner in the Grow group. The shrunk
// counterfactual drops the weakest front learner, the grown one adds the
// staged learner with unit weight.
type oneFront struct {
	*base
}

func newOneFront(b *base) *oneFront {
	b.initFront()
	b.initCandidates()
	b.ens.InitGroup(ensemble.Grow, 1, 1, 1)
	return &oneFront{base: b}
}

func (c *oneFront) Train(inst *ports.Instance) {
	if !c.begin(inst) {
		return
	}
	s := c.ens.Size(ensemble.Front)

	c.ens.FindMoveMin(ensemble.Front, c.score)
	var combined []float64
	combined = c.trainVote(inst, ensemble.Front, 0, s-1, combined)
	ys := stats.ArgMax(combined)
	combined = c.trainVote(inst, ensemble.Front, s-1, s, combined)
	yd := stats.ArgMax(combined)

	c.ens.FindMoveMax(ensemble.Candidate, c.score)
	c.trainGroup(inst, ensemble.Candidate)

	staged := c.trainVote(inst, ensemble.Grow, 0, c.ens.Size(ensemble.Grow), nil)
	combined = stats.CombineVote(combined, staged, 1)
	yg := stats.ArgMax(combined)

	c.advisor.AddResults(inst.Label, ys, yd, yg)
	if c.resizeDue() {
		c.resize(c.advisor.ShouldResize())
	}
	c.swap()
}

func (c *oneFront) resize(action elastic.Action) {
	rf := c.p.ResizeFactor
	before := c.ens.Size(ensemble.Front)

	switch action {
	case elastic.Grow:
		n := c.ens.Grow(ensemble.Front, rf)
		if n < 0 {
			c.st.GrowsRejected++
			return
		}
		if c.ens.Size(ensemble.Grow) > 0 {
			c.ens.Swap(ensemble.Front, n-1, ensemble.Grow, 0)
		}
		c.st.Grows++
		c.advisor.Grow()

	case elastic.Shrink:
		// with nothing staged the weakest learner is simply dropped
		last := c.ens.FindMoveMin(ensemble.Front, c.score)
		if last < 0 {
			last = c.ens.Size(ensemble.Front) - 1
		}
		if c.ens.Size(ensemble.Grow) > 0 {
			c.ens.Swap(ensemble.Front, last, ensemble.Grow, 0)
		}
		if c.ens.Shrink(ensemble.Front, rf) > 0 {
			c.st.Shrinks++
		}
		c.ens.ResetGroup(ensemble.Grow)
		c.advisor.Shrink()

	default:
		return
	}
	c.logResize(action, before, c.ens.Size(ensemble.Front))
}
