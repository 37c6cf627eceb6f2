package controller

import (
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/ensemble"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// swapOnly trains a fixed front and a fixed candidate group and swaps one
// learner pair per instance when the candidate is better.
type swapOnly struct {
	*base
}

func newSwapOnly(b *base) *swapOnly {
	b.initFront()
	b.initCandidates()
	return &swapOnly{base: b}
}

func (c *swapOnly) Train(inst *ports.Instance) {
	if !c.begin(inst) {
		return
	}
	c.trainGroup(inst, ensemble.Front)
	c.trainGroup(inst, ensemble.Candidate)
	c.swap()
}
