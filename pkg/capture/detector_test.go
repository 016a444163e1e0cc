//go:build cgo
// +build cgo

package capture

import (
	"context"
	"testing"
)

func TestNullDetector(t *testing.T) {
	var d NullDetector
	lm, err := d.Detect(context.Background(), DecodedFrame{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lm.Pose != nil || len(lm.Hands) != 0 {
		t.Errorf("expected an empty FrameLandmarks, got %+v", lm)
	}
	if err := d.Close(); err != nil {
		t.Errorf("unexpected error closing: %v", err)
	}
}
