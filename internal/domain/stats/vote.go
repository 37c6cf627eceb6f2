package stats

import "gonum.org/v1/gonum/floats"

// CombineVote adds vote into combined and returns the (possibly grown)
// accumulator. The vote is normalized to sum 1 only when its sum is
// positive, then scaled by weight when weight > 0. A vote that sums to zero
// contributes nothing. vote itself is never modified.
func CombineVote(combined, vote []float64, weight float64) []float64 {
	if len(vote) == 0 {
		return combined
	}
	sum := floats.Sum(vote)
	if !(sum > 0) {
		return combined
	}
	scaled := make([]float64, len(vote))
	copy(scaled, vote)
	floats.Scale(1/sum, scaled)
	if weight > 0 {
		floats.Scale(weight, scaled)
	}
	if len(combined) < len(scaled) {
		grown := make([]float64, len(scaled))
		copy(grown, combined)
		combined = grown
	}
	floats.Add(combined[:len(scaled)], scaled)
	return combined
}

// ArgMax returns the index of the largest value, the lowest index on ties,
// and 0 for an empty vector.
func ArgMax(v []float64) int {
	if len(v) == 0 {
		return 0
	}
	return floats.MaxIdx(v)
}
