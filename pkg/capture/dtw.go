package capture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Band configures an optional Sakoe-Chiba band constraint on the DTW
// engine (spec.md §4.4). Auto resolves the radius from the reference
// length; Radius is ignored when Auto is set.
type Band struct {
	Radius int
	Auto   bool
}

// resolve computes the effective radius given the reference length lenB,
// or -1 for an unconstrained (nil) band.
func (b *Band) resolve(lenB int) int {
	if b == nil {
		return -1 // sentinel: unconstrained
	}
	if b.Auto {
		r := int(math.Floor(0.10 * float64(lenB)))
		if r < 1 {
			r = 1
		}
		return r
	}
	return b.Radius
}

// inBand reports whether cell (i, j) is admissible under a Sakoe-Chiba
// band of radius r for sequences of length lenA, lenB.
// |i * lenB / lenA - j| <= r
func inBand(i, j, lenA, lenB, r int) bool {
	if r < 0 {
		return true
	}
	diff := float64(i)*float64(lenB)/float64(lenA) - float64(j)
	if diff < 0 {
		diff = -diff
	}
	return diff <= float64(r)
}

// move identifies which predecessor produced a DP cell, used only to
// apply the deterministic tie-break rule while building the path.
type move int

const (
	moveNone move = iota
	moveDiag
	moveAdvanceA
	moveAdvanceB
)

// DTW computes the optimal warping path and total cost between two
// equal-dimensional sequences (spec.md §4.4). a and b may be multi-column
// (position channel) or single-column (amplitude/speed channels); the
// per-pair distance is always Euclidean, which degenerates to absolute
// difference for 1-D rows.
//
// Tie-break rule when multiple predecessors tie on cost: prefer the
// diagonal move, then "advance A", then "advance B" — deterministic so
// replaying the same input twice reproduces bit-identical output
// (spec.md §8).
func DTW(a, b Matrix, band *Band) (path []Step, total float64, localCosts []float64, err error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil, 0, nil, newErr(CodeNoFeatures, "empty sequence passed to DTW", nil)
	}

	radius := band.resolve(m)

	const inf = math.MaxFloat64 / 2

	dp := make([][]float64, n)
	bp := make([][]move, n)
	for i := range dp {
		dp[i] = make([]float64, m)
		bp[i] = make([]move, m)
		for j := range dp[i] {
			dp[i][j] = inf
		}
	}

	cost := func(i, j int) float64 { return euclid(a[i], b[j]) }

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if !inBand(i, j, n, m, radius) {
				continue
			}
			c := cost(i, j)
			if i == 0 && j == 0 {
				dp[i][j] = c
				bp[i][j] = moveNone
				continue
			}

			best := inf
			bestMove := moveNone

			if i > 0 && j > 0 && dp[i-1][j-1] < best {
				best = dp[i-1][j-1]
				bestMove = moveDiag
			}
			if i > 0 && dp[i-1][j] < best {
				best = dp[i-1][j]
				bestMove = moveAdvanceA
			}
			if j > 0 && dp[i][j-1] < best {
				best = dp[i][j-1]
				bestMove = moveAdvanceB
			}

			if best >= inf {
				continue
			}
			dp[i][j] = best + c
			bp[i][j] = bestMove
		}
	}

	if dp[n-1][m-1] >= inf {
		return nil, 0, nil, newErr(CodeBandInfeasible, "band excludes path endpoint", ErrBandInfeasible)
	}

	// Reconstruct path by walking backpointers from the endpoint.
	i, j := n-1, m-1
	var rev []Step
	for {
		rev = append(rev, Step{I: i, J: j})
		if i == 0 && j == 0 {
			break
		}
		switch bp[i][j] {
		case moveDiag:
			i--
			j--
		case moveAdvanceA:
			i--
		case moveAdvanceB:
			j--
		default:
			// Unreachable for any cell but (0,0), guarded above.
			i, j = 0, 0
		}
	}

	path = make([]Step, len(rev))
	localCosts = make([]float64, len(rev))
	for k := range rev {
		step := rev[len(rev)-1-k]
		path[k] = step
		localCosts[k] = cost(step.I, step.J)
	}

	total = dp[n-1][m-1]
	return path, total, localCosts, nil
}

// euclid computes the Euclidean distance between two equal-length rows.
// A 1-D row degenerates to the scalar absolute difference.
func euclid(x, y []float64) float64 {
	if len(x) == 1 {
		d := x[0] - y[0]
		if d < 0 {
			return -d
		}
		return d
	}
	diff := make([]float64, len(x))
	for k := range x {
		diff[k] = x[k] - y[k]
	}
	return floats.Norm(diff, 2)
}

// AlignedRefByLive derives, for each live-frame index, the reference
// index it was last paired with along the warping path (spec.md §3). The
// result has length liveLen; entries before the path's first live index
// are impossible once a feature buffer has produced at least one frame
// (DTW paths always start at (0,0)), so no -1 sentinel is ever emitted
// over a non-empty feature buffer.
func AlignedRefByLive(path []Step, liveLen int) []int {
	out := make([]int, liveLen)
	for i := range out {
		out[i] = -1
	}
	for _, s := range path {
		if s.I >= 0 && s.I < liveLen {
			out[s.I] = s.J
		}
	}
	return out
}

// asColumns reshapes a flat 1-D series into a Matrix of single-column
// rows so it can be run through DTW alongside multi-dimensional series.
func asColumns(series []float64) Matrix {
	m := make(Matrix, len(series))
	for i, v := range series {
		m[i] = []float64{v}
	}
	return m
}
