package transport

import (
	"testing"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

func TestResolvedTestName_PrefersTestName(t *testing.T) {
	m := ClientMessage{TestName: "finger-tapping", TestType: "stand-and-sit"}
	if got := m.resolvedTestName(); got != "finger-tapping" {
		t.Errorf("resolvedTestName() = %q, want %q", got, "finger-tapping")
	}
}

func TestResolvedTestName_FallsBackToTestType(t *testing.T) {
	m := ClientMessage{TestType: "stand-and-sit"}
	if got := m.resolvedTestName(); got != "stand-and-sit" {
		t.Errorf("resolvedTestName() = %q, want %q", got, "stand-and-sit")
	}
}

func TestStatusMsg(t *testing.T) {
	msg := statusMsg("paused", false)
	if msg.Type != "status" || msg.Status != "paused" || msg.Recording {
		t.Errorf("unexpected status message: %+v", msg)
	}

	resumed := statusMsg("resumed", true)
	if !resumed.Recording {
		t.Errorf("expected Recording=true for a resumed status, got %+v", resumed)
	}
}

func TestInitializedMsg(t *testing.T) {
	msg := initializedMsg("session-123")
	if msg.Type != "status" || msg.Status != "initialized" || msg.TestID != "session-123" {
		t.Errorf("unexpected initialized message: %+v", msg)
	}
}

func TestErrorMsg(t *testing.T) {
	msg := errorMsg("frame", "boom")
	if msg.Type != "error" || msg.Where != "frame" || msg.Message != "boom" {
		t.Errorf("unexpected error message: %+v", msg)
	}
}

func TestDtwErrorMsg(t *testing.T) {
	msg := dtwErrorMsg("end with no features built")
	if msg.Type != "dtw_error" || msg.Message != "end with no features built" {
		t.Errorf("unexpected dtw_error message: %+v", msg)
	}
}

func TestKeypointsMsg(t *testing.T) {
	lm := capture.FrameLandmarks{Pose: &capture.PoseLandmarks{Points: make([]capture.Landmark, 33)}}
	msg := keypointsMsg("pose", 5, lm)
	if msg.Type != "keypoints" || msg.Model != "pose" || msg.FrameIdx != 5 || msg.Pose == nil {
		t.Errorf("unexpected keypoints message: %+v", msg)
	}
}

func TestCompleteMsg(t *testing.T) {
	r := capture.FinalizeResult{
		Position:          capture.ChannelResult{Similarity: 0.8},
		Amplitude:         capture.ChannelResult{Similarity: 0.7},
		Speed:             capture.ChannelResult{Similarity: 0.9},
		SimilarityOverall: 0.8,
		AvgStepPos:        0.1,
		RecordingFile:     "session-1.mp4",
	}
	msg := completeMsg("session-1", r)
	if msg.Type != "complete" || msg.Result == nil {
		t.Fatalf("expected a complete message with a result payload")
	}
	if msg.Result.TestID != "session-1" || msg.Result.SimilarityPos != 0.8 ||
		msg.Result.SimilarityAmp != 0.7 || msg.Result.SimilaritySpd != 0.9 ||
		msg.Result.RecordingFile != "session-1.mp4" {
		t.Errorf("unexpected result payload: %+v", msg.Result)
	}
}
