package capture

import "math"

// epsilon guards the normalization scale against division by zero when
// two reference landmarks coincide (spec.md §4.2).
const epsilon = 1e-6

// fingerLandmarkIndices selects which of the 42 flattened hand-feature
// dims the "finger" model keeps: points {3,4,7,8}, x and y only. Specific
// to a particular finger-tapping protocol; clinical validation of this
// index set before reuse is outside this module's scope (spec.md §9).
var fingerLandmarkIndices = []int{3, 4, 7, 8}

// Extract maps one frame's detected landmarks to a normalized feature
// vector for model. ok is false when the required landmarks are absent
// (spec.md's "drop" outcome) and the caller must count a feature drop
// without treating it as an error.
func Extract(model Model, lm FrameLandmarks, useZ bool) (vec Vector, ok bool) {
	switch model {
	case ModelHands:
		return extractHands(lm)
	case ModelPose:
		return extractPose(lm, useZ)
	case ModelFinger:
		hands, ok := extractHands(lm)
		if !ok {
			return nil, false
		}
		return selectFinger(hands), true
	default:
		return nil, false
	}
}

// extractHands implements spec.md §4.2's hands rule: origin = wrist
// (point 0), scale = ||point9 - point0|| + eps, output is the flattened
// (x,y) offsets over all 21 points, 42-dim.
func extractHands(lm FrameLandmarks) (Vector, bool) {
	if len(lm.Hands) == 0 {
		return nil, false
	}
	hand := lm.Hands[0]
	if len(hand.Points) < 21 {
		return nil, false
	}

	origin := hand.Points[0].Point
	scale := dist2D(hand.Points[9].Point, origin) + epsilon

	out := make(Vector, 0, 42)
	for i := 0; i < 21; i++ {
		p := hand.Points[i].Point
		out = append(out, (p.X-origin.X)/scale, (p.Y-origin.Y)/scale)
	}
	return out, true
}

// extractPose implements spec.md §4.2's pose rule: origin = midpoint of
// hips (23,24), scale = ||point11 - point12|| + eps, output flattens
// (x,y[,z]) over all 33 points: 66-dim normally, 99-dim with useZ.
func extractPose(lm FrameLandmarks, useZ bool) (Vector, bool) {
	if lm.Pose == nil || len(lm.Pose.Points) < 33 {
		return nil, false
	}
	pts := lm.Pose.Points

	originX := (pts[23].Point.X + pts[24].Point.X) / 2
	originY := (pts[23].Point.Y + pts[24].Point.Y) / 2
	originZ := (pts[23].Point.Z + pts[24].Point.Z) / 2

	scale := dist2D(pts[11].Point, pts[12].Point) + epsilon

	dims := 2
	if useZ {
		dims = 3
	}
	out := make(Vector, 0, 33*dims)
	for i := 0; i < 33; i++ {
		p := pts[i].Point
		out = append(out, (p.X-originX)/scale, (p.Y-originY)/scale)
		if useZ {
			out = append(out, (p.Z-originZ)/scale)
		}
	}
	return out, true
}

// selectFinger reduces a 42-dim hands vector to the 8-dim finger-tapping
// subset: the (x,y) pair for each index in fingerLandmarkIndices.
func selectFinger(hands Vector) Vector {
	out := make(Vector, 0, len(fingerLandmarkIndices)*2)
	for _, idx := range fingerLandmarkIndices {
		out = append(out, hands[idx*2], hands[idx*2+1])
	}
	return out
}

func dist2D(a, b Point3D) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
