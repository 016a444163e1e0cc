package store

import (
	"path/filepath"
	"testing"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dtw.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMatrix(rows int, dims int, base float64) capture.Matrix {
	m := make(capture.Matrix, rows)
	for t := range m {
		row := make([]float64, dims)
		for d := range row {
			row[d] = base + float64(t)
		}
		m[t] = row
	}
	return m
}

func sampleResult() capture.FinalizeResult {
	return capture.FinalizeResult{
		Position: capture.ChannelResult{
			Path:             []capture.Step{{I: 0, J: 0}, {I: 1, J: 1}, {I: 2, J: 2}},
			Distance:         1.5,
			LocalCosts:       []float64{0.1, 0.2, 0.3},
			AlignedRefByLive: []int{0, 1, 2},
			Similarity:       0.8,
			R:                2.0,
			L:                3.0,
		},
		LivePosition: sampleMatrix(3, 42, 1.0),
		RefPosition:  sampleMatrix(3, 42, 1.0),
		Amplitude: capture.ChannelResult{
			Distance:         0.5,
			LocalCosts:       []float64{0.1},
			AlignedRefByLive: []int{0},
			Similarity:       0.9,
		},
		Speed: capture.ChannelResult{
			Distance:         0.2,
			LocalCosts:       []float64{0.05},
			AlignedRefByLive: []int{0},
			Similarity:       0.95,
		},
		SimilarityOverall: 0.88,
		AvgStepPos:        0.5,
		RecordingFile:     "session-1.mp4",
		FrameCount:        3,
	}
}

func TestStore_SaveAndLookup(t *testing.T) {
	s := openTestStore(t)
	r := sampleResult()

	if err := s.Save("session-1", "patient-1", capture.TestFingerTapping, capture.ModelHands, false, 30, r); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	l, err := s.Lookup("session-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if l == nil {
		t.Fatalf("expected a lookup result")
	}
	if l.TestName != capture.TestFingerTapping || l.PatientID != "patient-1" || l.RecordingFile != "session-1.mp4" {
		t.Errorf("unexpected lookup result: %+v", l)
	}
}

func TestStore_LookupMissing(t *testing.T) {
	s := openTestStore(t)
	l, err := s.Lookup("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l != nil {
		t.Errorf("expected nil lookup result, got %+v", l)
	}
}

func TestStore_RecordingFile(t *testing.T) {
	s := openTestStore(t)
	r := sampleResult()
	if err := s.Save("session-1", "patient-1", capture.TestFingerTapping, capture.ModelHands, false, 30, r); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	patientID, recordingFile, err := s.RecordingFile(capture.TestFingerTapping, "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patientID != "patient-1" || recordingFile != "session-1.mp4" {
		t.Errorf("got (%q,%q), want (patient-1, session-1.mp4)", patientID, recordingFile)
	}
}

func TestStore_RecordingFileMissing(t *testing.T) {
	s := openTestStore(t)
	patientID, recordingFile, err := s.RecordingFile(capture.TestFingerTapping, "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patientID != "" || recordingFile != "" {
		t.Errorf("expected empty results for a missing session, got (%q,%q)", patientID, recordingFile)
	}
}
