package controller

import (
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// scripted is right on an instance when seq%10 < skill, where seq is the
// first feature. Clones take their skill from the shared queue; once it is
// empty they inherit the prototype's.
type scripted struct {
	skill int
	queue *[]int
}

func newScripted(def int, skills ...int) *scripted {
	q := append([]int(nil), skills...)
	return &scripted{skill: def, queue: &q}
}

func (s *scripted) right(inst *ports.Instance) bool {
	return int(inst.Features[0])%10 < s.skill
}

func (s *scripted) Train(*ports.Instance, float64) {}

func (s *scripted) Predict(inst *ports.Instance) []float64 {
	v := make([]float64, 2)
	if s.right(inst) {
		v[inst.Label] = 1
	} else {
		v[1-inst.Label] = 1
	}
	return v
}

func (s *scripted) CorrectlyClassifies(inst *ports.Instance) bool {
	return s.right(inst)
}

func (s *scripted) ResetState() {}

func (s *scripted) Clone() ports.Classifier {
	skill := s.skill
	if len(*s.queue) > 0 {
		skill = (*s.queue)[0]
		*s.queue = (*s.queue)[1:]
	}
	return &scripted{skill: skill, queue: s.queue}
}

func repeat(skill, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = skill
	}
	return out
}

// oneSampler always draws weight 1.
type oneSampler struct{}

func (oneSampler) Poisson(float64) int { return 1 }

// triggerDetector fires Change on the n-th Input after creation.
type triggerDetector struct {
	after  int
	inputs int
	change bool
}

func (d *triggerDetector) Input(float64) {
	d.inputs++
	d.change = d.inputs == d.after
}

func (d *triggerDetector) Change() bool {
	return d.change
}

func (d *triggerDetector) Clone() ports.DriftDetector {
	return &triggerDetector{after: d.after}
}

// stubAdvisor always recommends the same action and counts calls.
type stubAdvisor struct {
	action  elastic.Action
	adds    int
	queries int
	grows   int
	shrinks int
	resets  int
}

func (a *stubAdvisor) AddResults(int, int, int, int) { a.adds++ }

func (a *stubAdvisor) ShouldResize() elastic.Action {
	a.queries++
	return a.action
}

func (a *stubAdvisor) Grow() {
	a.grows++
}

func (a *stubAdvisor) Shrink() {
	a.shrinks++
}

func (a *stubAdvisor) Reset() {
	a.resets++
}

func instance(seq int) *ports.Instance {
	return &ports.Instance{
		Features:   []float64{float64(seq)},
		Label:      seq % 2,
		Weight:     1,
		NumClasses: 2,
	}
}
