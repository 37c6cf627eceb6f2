package ensemble

// SwapSelector exchanges learners between a voting group and a background
// group.
type SwapSelector interface {
	// Swap performs at most one exchange and reports whether it did.
	Swap(e *Ensemble, front, back GroupID) bool
	// SwapAll repeats Swap until no exchange helps and returns the count.
	SwapAll(e *Ensemble, front, back GroupID) int
}

// AccuracySwap replaces the weakest front learner with the strongest mature
// background learner whenever the latter scores strictly higher.
type AccuracySwap struct {
	Score ScoreFunc // nil means ByAccuracy
}

func (s AccuracySwap) score() ScoreFunc {
	if s.Score == nil {
		return ByAccuracy
	}
	return s.Score
}

func (s AccuracySwap) Swap(e *Ensemble, front, back GroupID) bool {
	score := s.score()
	fi := e.FindMin(front, score)
	if fi < 0 {
		return false
	}
	bi := e.FindMaxSkip(back, score)
	if bi < 0 {
		return false
	}
	if !(score(e.Learner(front, fi)) < score(e.Learner(back, bi))) {
		return false
	}
	e.Swap(front, fi, back, bi)
	return true
}

// SwapAll terminates because every exchange strictly raises the front's
// score sum over a finite set of learners.
func (s AccuracySwap) SwapAll(e *Ensemble, front, back GroupID) int {
	n := 0
	for s.Swap(e, front, back) {
		n++
	}
	return n
}

// NoSwap never exchanges anything.
type NoSwap struct{}

func (NoSwap) Swap(*Ensemble, GroupID, GroupID) bool {
	return false
}

func (NoSwap) SwapAll(*Ensemble, GroupID, GroupID) int {
	return 0
}
