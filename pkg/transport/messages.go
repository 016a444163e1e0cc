// Package transport implements the bidirectional JSON message protocol
// that drives one capture session per connection (spec.md §4.6).
package transport

import "github.com/motionlab/dtwcapture/pkg/capture"

// ClientMessage is the envelope for every inbound message; Type
// dispatches to one of the embedded payloads (spec.md §4.6).
type ClientMessage struct {
	Type string `json:"type"`

	// init
	PatientID string `json:"patientId"`
	TestType  string `json:"testType"`
	TestName  string `json:"test_name"`
	Model     string `json:"model"`
	FPS       float64 `json:"fps"`
	TestID    string `json:"testId"`

	// frame
	Data string `json:"data"`

	// pause
	Paused bool `json:"paused"`
}

// resolvedTestName returns whichever of testType/test_name the client
// sent; spec.md §4.6 accepts either key.
func (m ClientMessage) resolvedTestName() string {
	if m.TestName != "" {
		return m.TestName
	}
	return m.TestType
}

// ServerMessage is the envelope for every outbound message (spec.md
// §4.6's status/keypoints/error/dtw_error/complete set).
type ServerMessage struct {
	Type string `json:"type"`

	// status
	Status    string `json:"status,omitempty"`
	TestID    string `json:"test_id,omitempty"`
	Recording bool   `json:"recording"`

	// keypoints
	Model     string                  `json:"model,omitempty"`
	FrameIdx  int                     `json:"frame_idx"`
	Hands     []capture.HandLandmarks `json:"hands,omitempty"`
	Pose      *capture.PoseLandmarks  `json:"pose,omitempty"`

	// error / dtw_error
	Where   string `json:"where,omitempty"`
	Message string `json:"message,omitempty"`

	// complete
	Result *completePayload `json:"result,omitempty"`
}

// completePayload mirrors the scalar fields of a persisted TestResult
// (spec.md §3); series arrays are fetched separately via C9, not pushed
// over the socket.
type completePayload struct {
	TestID            string  `json:"test_id"`
	SimilarityPos     float64 `json:"similarity_pos"`
	SimilarityAmp     float64 `json:"similarity_amp"`
	SimilaritySpd     float64 `json:"similarity_spd"`
	SimilarityOverall float64 `json:"similarity_overall"`
	AvgStepPos        float64 `json:"avg_step_pos"`
	RecordingFile     string  `json:"recording_file"`
}

// statusMsg builds a status event with the recording indicator the
// original implementation's REC/PAUSED HUD overlay drew locally — here
// pushed to the client instead of rendered server-side (spec.md
// supplemented features).
func statusMsg(status string, recording bool) ServerMessage {
	return ServerMessage{Type: "status", Status: status, Recording: recording}
}

func initializedMsg(testID string) ServerMessage {
	return ServerMessage{Type: "status", Status: "initialized", TestID: testID, Recording: true}
}

func errorMsg(where, message string) ServerMessage {
	return ServerMessage{Type: "error", Where: where, Message: message}
}

func dtwErrorMsg(message string) ServerMessage {
	return ServerMessage{Type: "dtw_error", Message: message}
}

func keypointsMsg(model string, frameIdx int, lm capture.FrameLandmarks) ServerMessage {
	return ServerMessage{Type: "keypoints", Model: model, FrameIdx: frameIdx, Hands: lm.Hands, Pose: lm.Pose}
}

func completeMsg(testID string, r capture.FinalizeResult) ServerMessage {
	return ServerMessage{Type: "complete", Result: &completePayload{
		TestID:            testID,
		SimilarityPos:     r.Position.Similarity,
		SimilarityAmp:     r.Amplitude.Similarity,
		SimilaritySpd:     r.Speed.Similarity,
		SimilarityOverall: r.SimilarityOverall,
		AvgStepPos:        r.AvgStepPos,
		RecordingFile:     r.RecordingFile,
	}}
}
