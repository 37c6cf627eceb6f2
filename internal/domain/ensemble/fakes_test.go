package ensemble

import "github.com/diegomarron/ElasticSwapRandomForest/internal/ports"

// constClassifier always votes for class `class` out of two.
type constClassifier struct {
	class   int
	trained float64
	resets  int
}

func (c *constClassifier) Train(_ *ports.Instance, w float64) {
	c.trained += w
}

func (c *constClassifier) Predict(*ports.Instance) []float64 {
	v := []float64{0, 0}
	v[c.class] = 1
	return v
}

func (c *constClassifier) CorrectlyClassifies(inst *ports.Instance) bool {
	return inst.Label == c.class
}

func (c *constClassifier) ResetState() {
	c.trained = 0
	c.resets++
}

func (c *constClassifier) Clone() ports.Classifier {
	return &constClassifier{class: c.class}
}

// triggerDetector fires Change on the n-th Input after creation.
type triggerDetector struct {
	after  int
	inputs int
	change bool
}

func (d *triggerDetector) Input(float64) {
	d.inputs++
	d.change = d.after > 0 && d.inputs == d.after
}

func (d *triggerDetector) Change() bool {
	return d.change
}

func (d *triggerDetector) Clone() ports.DriftDetector {
	return &triggerDetector{after: d.after}
}

func newTestEnsemble(maxSize int) *Ensemble {
	return New(maxSize, NewAllocator(&constClassifier{}, nil))
}

// feed trains l on n instances, `correct` of which it gets right.
func feed(l *Learner, correct, n int) {
	for i := 0; i < n; i++ {
		label := 1
		if i < correct {
			label = 0
		}
		l.Train(&ports.Instance{Features: []float64{0}, Label: label, Weight: 1}, 1, 0)
	}
}
