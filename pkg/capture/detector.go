//go:build cgo
// +build cgo

package capture

import "context"

// LandmarkDetector is the pluggable upstream collaborator that turns a
// decoded frame into per-frame landmarks. Pose/hand detection itself is
// out of scope for this module (spec.md §1); only this interface is
// pinned so a real detector backend (e.g. a MediaPipe bridge) can be
// wired in without touching the capture pipeline.
type LandmarkDetector interface {
	// Detect analyzes one decoded frame and returns its landmarks.
	// Returning FrameLandmarks{} with both Hands and Pose empty/nil is a
	// valid "nothing detected" result; it is not an error.
	Detect(ctx context.Context, frame DecodedFrame) (FrameLandmarks, error)
	// Close releases detector resources.
	Close() error
}

// NullDetector is a LandmarkDetector that always reports nothing
// detected. It lets the rest of the pipeline (transport, session, DTW,
// persistence) run and be tested end-to-end without a real vision
// backend wired in.
type NullDetector struct{}

func (NullDetector) Detect(ctx context.Context, frame DecodedFrame) (FrameLandmarks, error) {
	return FrameLandmarks{}, nil
}

func (NullDetector) Close() error { return nil }
