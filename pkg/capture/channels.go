package capture

import "gonum.org/v1/gonum/floats"

// Amplitude derives the amplitude channel from a feature matrix: the
// Euclidean norm of each row (spec.md §4.3). Length T.
func Amplitude(m Matrix) []float64 {
	out := make([]float64, len(m))
	for t, row := range m {
		out[t] = floats.Norm(row, 2)
	}
	return out
}

// Speed derives the speed channel from a feature matrix: the Euclidean
// norm of the frame-to-frame delta (spec.md §4.3). S[0] = 0; length T,
// matching the live and reference series length so DTW runs on
// equal-convention series.
func Speed(m Matrix) []float64 {
	out := make([]float64, len(m))
	if len(m) == 0 {
		return out
	}
	delta := make([]float64, len(m[0]))
	for t := 1; t < len(m); t++ {
		for d := range delta {
			delta[d] = m[t][d] - m[t-1][d]
		}
		out[t] = floats.Norm(delta, 2)
	}
	return out
}
