package ensemble

// ScoreFunc ranks learners. NaN means "not comparable": scans skip it.
type ScoreFunc func(*Learner) float64

// ByAccuracy scores a learner by its running accuracy.
func ByAccuracy(l *Learner) float64 { return l.Accuracy() }
