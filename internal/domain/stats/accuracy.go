// Package stats holds the online counters the ensemble uses to rank learners
// and to compare prediction strategies over the same instance stream:
// running accuracy, an exponential moving average, a 2x2 paired comparison
// table with the McNemar statistic, and accuracy-weighted vote combination.
//
// Nothing here allocates per instance except CombineVote growing its
// accumulator to the widest vote seen.
package stats

import "math"

// RunningAccuracy counts correct and wrong predictions.
// Not safe for concurrent use.
type RunningAccuracy struct {
	correct uint64
	wrong   uint64
}

// Add records one prediction against the true label.
func (a *RunningAccuracy) Add(label, predicted int) {
	if label == predicted {
		a.correct++
	} else {
		a.wrong++
	}
}

// AddVotes records the arg-max of votes against the true label.
func (a *RunningAccuracy) AddVotes(label int, votes []float64) {
	a.Add(label, ArgMax(votes))
}

// Ratio returns correct/(correct+wrong), or NaN when nothing was recorded.
// NaN marks the accuracy as non-comparable: scans skip it and comparisons
// against it are false.
func (a *RunningAccuracy) Ratio() float64 {
	total := a.correct + a.wrong
	if total == 0 {
		return math.NaN()
	}
	return float64(a.correct) / float64(total)
}

// Counts returns the raw counters.
func (a *RunningAccuracy) Counts() (correct, wrong uint64) {
	return a.correct, a.wrong
}

// Total returns the number of recorded predictions.
func (a *RunningAccuracy) Total() uint64 {
	return a.correct + a.wrong
}

// Reset clears both counters.
func (a *RunningAccuracy) Reset() {
	a.correct = 0
	a.wrong = 0
}
