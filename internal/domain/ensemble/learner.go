// Package ensemble implements the grouped pool of base learners that the
// controllers resize and reshuffle. A learner lives in exactly one slot of
// one group; grow, shrink and swap are the only operations that move it.
//
// Nothing in this package is safe for concurrent use. A controller owns its
// ensemble and drives it from a single goroutine.
package ensemble

import (
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/stats"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// MatureAfter is the number of trained instances after which a learner is
// considered for promotion by FindMaxSkip.
const MatureAfter = 20

// Learner wraps one base classifier with its running accuracy and its own
// drift detector. Time is measured in instances seen by the controller.
type Learner struct {
	id         int
	classifier ports.Classifier
	proto      ports.DriftDetector // nil disables drift detection
	detector   ports.DriftDetector
	accuracy   stats.RunningAccuracy

	createdOn   uint64
	lastDriftOn uint64
	drifts      uint64
	seen        uint64
}

// NewLearner wraps classifier. detector may be nil. The learner keeps its own
// clone of detector so that resets never share state with other learners.
func NewLearner(id int, classifier ports.Classifier, detector ports.DriftDetector, now uint64) *Learner {
	l := &Learner{
		id:         id,
		classifier: classifier,
		proto:      detector,
		createdOn:  now,
	}
	if detector != nil {
		l.detector = detector.Clone()
	}
	return l
}

// Train runs one prequential step: predict, record, train with the instance
// weight multiplied by k, then feed the drift detector. On drift the learner
// is reset in place. The returned vote is the pre-training prediction.
func (l *Learner) Train(inst *ports.Instance, k int, now uint64) (vote []float64, drifted bool) {
	vote = l.classifier.Predict(inst)
	l.accuracy.AddVotes(inst.Label, vote)
	l.seen++

	if w := inst.Weight * float64(k); w > 0 {
		l.classifier.Train(inst, w)
	}

	if l.detector == nil {
		return vote, false
	}
	errInd := 0.0
	if !l.classifier.CorrectlyClassifies(inst) {
		errInd = 1.0
	}
	l.detector.Input(errInd)
	if l.detector.Change() {
		l.lastDriftOn = now
		l.drifts++
		l.Reset(now)
		return vote, true
	}
	return vote, false
}

// Predict returns the classifier vote unmodified.
func (l *Learner) Predict(inst *ports.Instance) []float64 {
	return l.classifier.Predict(inst)
}

// Reset forgets everything learned and starts a new life at now. Drift
// history (count and last drift time) survives.
func (l *Learner) Reset(now uint64) {
	l.accuracy.Reset()
	l.classifier.ResetState()
	if l.proto != nil {
		l.detector = l.proto.Clone()
	}
	l.createdOn = now
	l.seen = 0
}

// Accuracy returns the running accuracy, NaN before the first instance.
func (l *Learner) Accuracy() float64 { return l.accuracy.Ratio() }

// ID returns the allocation number, unique within an ensemble.
func (l *Learner) ID() int { return l.id }

// Seen returns the number of instances trained since creation or last reset.
func (l *Learner) Seen() uint64 { return l.seen }

// CreatedOn returns the instance count at creation or last reset.
func (l *Learner) CreatedOn() uint64 { return l.createdOn }

// LastDriftOn returns the instance count of the last drift, 0 if none.
func (l *Learner) LastDriftOn() uint64 { return l.lastDriftOn }

// Drifts returns how many drifts this learner has signalled.
func (l *Learner) Drifts() uint64 { return l.drifts }

// Mature reports whether the learner has trained on at least MatureAfter
// instances.
func (l *Learner) Mature() bool { return l.seen >= MatureAfter }

// Allocator builds fresh learners from a classifier prototype.
type Allocator struct {
	classifier ports.Classifier
	detector   ports.DriftDetector
	next       int
}

// NewAllocator returns an allocator that clones classifier (and detector,
// when non-nil) for every new learner.
func NewAllocator(classifier ports.Classifier, detector ports.DriftDetector) *Allocator {
	return &Allocator{classifier: classifier, detector: detector}
}

// New returns an untrained learner created at now.
func (a *Allocator) New(now uint64) *Learner {
	id := a.next
	a.next++
	return NewLearner(id, a.classifier.Clone(), a.detector, now)
}

// Allocated returns how many learners have been created so far.
func (a *Allocator) Allocated() int { return a.next }
