package store

import (
	"testing"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

func saveTwoSessions(t *testing.T, s *Store) {
	t.Helper()
	r1 := sampleResult()
	r1.SimilarityOverall = 0.5
	if err := s.Save("session-1", "patient-1", capture.TestFingerTapping, capture.ModelHands, false, 30, r1); err != nil {
		t.Fatalf("Save session-1 failed: %v", err)
	}
	r2 := sampleResult()
	r2.SimilarityOverall = 0.9
	if err := s.Save("session-2", "patient-2", capture.TestFingerTapping, capture.ModelHands, false, 30, r2); err != nil {
		t.Fatalf("Save session-2 failed: %v", err)
	}
}

func TestStore_ListTests(t *testing.T) {
	s := openTestStore(t)
	saveTwoSessions(t, s)
	if err := s.Save("session-3", "patient-1", capture.TestStandAndSit, capture.ModelPose, false, 30, sampleResult()); err != nil {
		t.Fatalf("Save session-3 failed: %v", err)
	}

	tests, err := s.ListTests()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tests) != 2 {
		t.Fatalf("expected 2 distinct tests, got %d: %v", len(tests), tests)
	}
}

func TestStore_ListSessions(t *testing.T) {
	s := openTestStore(t)
	saveTwoSessions(t, s)

	sessions, err := s.ListSessions(capture.TestFingerTapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	bySession := make(map[string]SessionSummary, len(sessions))
	for _, sess := range sessions {
		bySession[sess.SessionID] = sess
	}
	if bySession["session-1"].SimilarityOverall != 0.5 {
		t.Errorf("session-1 similarity_overall = %f, want 0.5", bySession["session-1"].SimilarityOverall)
	}
	if bySession["session-2"].SimilarityOverall != 0.9 {
		t.Errorf("session-2 similarity_overall = %f, want 0.9", bySession["session-2"].SimilarityOverall)
	}
	// similarity_spd must come from its own column, not be aliased to
	// similarity_pos.
	if bySession["session-1"].SimilaritySpd != sampleResult().Speed.Similarity {
		t.Errorf("similarity_spd = %f, want %f", bySession["session-1"].SimilaritySpd, sampleResult().Speed.Similarity)
	}
}

func TestStore_Series(t *testing.T) {
	s := openTestStore(t)
	r := sampleResult()
	if err := s.Save("session-1", "patient-1", capture.TestFingerTapping, capture.ModelHands, false, 30, r); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	series, err := s.Series(capture.TestFingerTapping, "session-1", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series == nil {
		t.Fatalf("expected a series result")
	}
	if len(series.Position.LocalCosts) != len(r.Position.LocalCosts) {
		t.Errorf("expected %d position costs below the downsample threshold, got %d",
			len(r.Position.LocalCosts), len(series.Position.LocalCosts))
	}
}

func TestStore_SeriesMissing(t *testing.T) {
	s := openTestStore(t)
	series, err := s.Series(capture.TestFingerTapping, "nonexistent", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series != nil {
		t.Errorf("expected nil series for a missing session")
	}
}

func TestDownsampleIndices(t *testing.T) {
	cases := []struct {
		n, maxPoints int
		want         []int
	}{
		{10, 500, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{10, 0, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{10, 3, []int{0, 3, 6, 9}},
		{0, 5, []int{}},
	}
	for _, c := range cases {
		got := downsampleIndices(c.n, c.maxPoints)
		if len(got) != len(c.want) {
			t.Fatalf("downsampleIndices(%d,%d) = %v, want %v", c.n, c.maxPoints, got, c.want)
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Errorf("downsampleIndices(%d,%d)[%d] = %d, want %d", c.n, c.maxPoints, i, got[i], c.want[i])
			}
		}
	}
}
