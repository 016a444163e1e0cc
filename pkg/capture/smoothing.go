package capture

import "sync"

// kalman1D is a scalar Kalman filter used to smooth one coordinate of one
// landmark across frames. It is deliberately simple (constant-position
// model, fixed process/measurement noise derived from a single smoothing
// factor): this is a display aid, not part of the scoring pipeline, so
// the filter only needs to look calm on screen (spec.md §4.9's
// "smoothing must never reach the feature buffer" rule).
type kalman1D struct {
	mu sync.Mutex

	x           float64
	p           float64
	q           float64
	r           float64
	initialized bool
}

func newKalman1D(smoothingFactor float64) *kalman1D {
	return &kalman1D{
		p: 1.0,
		q: 0.1,
		r: 1.0 - smoothingFactor*0.9 + 0.1,
	}
}

func (kf *kalman1D) update(measurement float64) float64 {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	if !kf.initialized {
		kf.x = measurement
		kf.initialized = true
		return measurement
	}

	pPred := kf.p + kf.q
	k := pPred / (pPred + kf.r)
	kf.x = kf.x + k*(measurement-kf.x)
	kf.p = (1 - k) * pPred

	return kf.x
}

func (kf *kalman1D) reset() {
	kf.mu.Lock()
	defer kf.mu.Unlock()
	kf.x = 0
	kf.p = 1.0
	kf.initialized = false
}

// kalman3D smooths one 3-D point across frames.
type kalman3D struct {
	x, y, z *kalman1D
}

func newKalman3D(smoothingFactor float64) *kalman3D {
	return &kalman3D{
		x: newKalman1D(smoothingFactor),
		y: newKalman1D(smoothingFactor),
		z: newKalman1D(smoothingFactor),
	}
}

func (kf *kalman3D) update(p Point3D) Point3D {
	return Point3D{
		X: kf.x.update(p.X),
		Y: kf.y.update(p.Y),
		Z: kf.z.update(p.Z),
	}
}

func (kf *kalman3D) reset() {
	kf.x.reset()
	kf.y.reset()
	kf.z.reset()
}

// DisplaySmoother smooths the keypoints pushed to a client for on-screen
// display. It operates on a copy of each frame's landmarks and never
// touches the feature buffer a session feeds to the DTW engine: pausing
// or resuming display smoothing must never change scoring output
// (spec.md §4.9, §8).
type DisplaySmoother struct {
	mu      sync.Mutex
	factor  float64
	hands   map[int]map[int]*kalman3D // hand index -> point index -> filter
	pose    map[int]*kalman3D
}

// NewDisplaySmoother creates a smoother with the given smoothing factor
// (0 = maximum smoothing; larger values smooth less, but even 1 still
// blends each new sample with the previous estimate rather than passing
// it through).
func NewDisplaySmoother(smoothingFactor float64) *DisplaySmoother {
	return &DisplaySmoother{
		factor: smoothingFactor,
		hands:  make(map[int]map[int]*kalman3D),
		pose:   make(map[int]*kalman3D),
	}
}

// Smooth returns a smoothed copy of lm for display. The input is left
// untouched so callers can still hand the original frame to feature
// extraction.
func (s *DisplaySmoother) Smooth(lm FrameLandmarks) FrameLandmarks {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := FrameLandmarks{Hands: make([]HandLandmarks, len(lm.Hands))}
	for hi, hand := range lm.Hands {
		filters, ok := s.hands[hi]
		if !ok {
			filters = make(map[int]*kalman3D)
			s.hands[hi] = filters
		}
		points := make([]Landmark, len(hand.Points))
		for pi, lmk := range hand.Points {
			f, ok := filters[pi]
			if !ok {
				f = newKalman3D(s.factor)
				filters[pi] = f
			}
			points[pi] = Landmark{Point: f.update(lmk.Point), Visibility: lmk.Visibility}
		}
		out.Hands[hi] = HandLandmarks{Points: points, Handedness: hand.Handedness}
	}

	if lm.Pose != nil {
		points := make([]Landmark, len(lm.Pose.Points))
		for pi, lmk := range lm.Pose.Points {
			f, ok := s.pose[pi]
			if !ok {
				f = newKalman3D(s.factor)
				s.pose[pi] = f
			}
			points[pi] = Landmark{Point: f.update(lmk.Point), Visibility: lmk.Visibility}
		}
		out.Pose = &PoseLandmarks{Points: points}
	}

	return out
}

// Reset clears all per-landmark filter state, e.g. on session pause/resume
// so a reappearing hand doesn't snap through stale history.
func (s *DisplaySmoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, filters := range s.hands {
		for _, f := range filters {
			f.reset()
		}
	}
	for _, f := range s.pose {
		f.reset()
	}
}
