package controller

import (
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/ensemble"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// arf keeps resize_factor learners in the Grow group. They vote only in the
// grown counterfactual and become front members when the front grows.
//
// Per instance, with s the front size and rf the resize factor:
//
//	ys = vote(front[0:s-rf])         weakest rf excluded
//	yd = ys + vote(front[s-rf:s])    the real front
//	yg = yd + vote(grow)             front plus staging
type arf struct {
	*base
}

func newARF(b *base) *arf {
	b.initFront()
	b.initCandidates()
	b.ens.InitGroup(ensemble.Grow, b.p.ResizeFactor, 1, b.p.MaxSize)
	return &arf{base: b}
}

func (c *arf) Train(inst *ports.Instance) {
	if !c.begin(inst) {
		return
	}
	s := c.ens.Size(ensemble.Front)
	cut := s - c.p.ResizeFactor
	if cut < 0 {
		cut = 0
	}

	c.ens.FindMoveMin(ensemble.Front, c.score)
	var combined []float64
	combined = c.trainVote(inst, ensemble.Front, 0, cut, combined)
	ys := stats.ArgMax(combined)
	combined = c.trainVote(inst, ensemble.Front, cut, s, combined)
	yd := stats.ArgMax(combined)
	combined = c.trainVote(inst, ensemble.Grow, 0, c.ens.Size(ensemble.Grow), combined)
	yg := stats.ArgMax(combined)

	c.trainGroup(inst, ensemble.Candidate)

	c.advisor.AddResults(inst.Label, ys, yd, yg)
	if c.resizeDue() {
		c.resize(c.advisor.ShouldResize())
	}
	c.swap()
}

func (c *arf) resize(action elastic.Action) {
	rf := c.p.ResizeFactor
	before := c.ens.Size(ensemble.Front)

	switch action {
	case elastic.Grow:
		n := c.ens.Grow(ensemble.Front, rf)
		if n < 0 {
			c.st.GrowsRejected++
			return
		}
		// hand the fresh slots to staging and promote the staged learners
		staged := c.ens.Size(ensemble.Grow)
		for i := 0; i < n-before && i < staged; i++ {
			c.ens.Swap(ensemble.Front, n-1-i, ensemble.Grow, i)
		}
		c.st.Grows++
		c.advisor.Grow()

	case elastic.Shrink:
		removed := 0
		for i := 0; i < rf; i++ {
			c.ens.FindMoveMin(ensemble.Front, c.score)
			removed += c.ens.Shrink(ensemble.Front, 1)
		}
		if removed > 0 {
			c.st.Shrinks++
		}
		c.ens.ResetGroup(ensemble.Grow)
		c.advisor.Shrink()

	default:
		return
	}
	c.logResize(action, before, c.ens.Size(ensemble.Front))
}
