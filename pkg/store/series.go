package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

// SessionSummary is one row of the `/dtw/sessions/{test}` listing
// (spec.md §4.9).
type SessionSummary struct {
	SessionID         string  `json:"session_id"`
	PatientID         string  `json:"patient_id"`
	TestName          string  `json:"test_name"`
	TestDate          string  `json:"test_date"`
	SimilarityPos     float64 `json:"similarity_pos"`
	SimilarityAmp     float64 `json:"similarity_amp"`
	SimilaritySpd     float64 `json:"similarity_spd"`
	SimilarityOverall float64 `json:"similarity_overall"`
	AvgStepPos        float64 `json:"avg_step_pos"`
}

// SessionLookup is the `/dtw/sessions/lookup/{sid}` response.
type SessionLookup struct {
	SessionID     string `json:"session_id"`
	TestName      string `json:"test_name"`
	PatientID     string `json:"patient_id"`
	TestDate      string `json:"test_date"`
	RecordingFile string `json:"recording_file"`
}

// ChannelBundle is one channel's series data in a `/series` response.
type ChannelBundle struct {
	LocalCosts   []float64 `json:"local_costs"`
	AlignmentMap struct {
		X []int `json:"x"`
		Y []int `json:"y"`
	} `json:"alignment_map"`
}

// SeriesResult bundles all three channels for one session.
type SeriesResult struct {
	Position  ChannelBundle `json:"position"`
	Amplitude ChannelBundle `json:"amplitude"`
	Speed     ChannelBundle `json:"speed"`
}

// ListTests returns distinct canonical test names present in the store
// (`/dtw/tests`).
func (s *Store) ListTests() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT test_name FROM test_results ORDER BY test_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tests: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ListSessions returns sessions for a given canonical test name, newest
// first (`/dtw/sessions/{test}`).
func (s *Store) ListSessions(testName string) ([]SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT test_id, patient_id, test_name, test_date, similarity_pos, similarity_amp, similarity_spd, similarity_overall, avg_step_pos
		FROM test_results WHERE test_name = ? ORDER BY test_date DESC`, testName)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for %q: %w", testName, err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var r SessionSummary
		if err := rows.Scan(&r.SessionID, &r.PatientID, &r.TestName, &r.TestDate, &r.SimilarityPos, &r.SimilarityAmp, &r.SimilaritySpd, &r.SimilarityOverall, &r.AvgStepPos); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Lookup resolves a bare session id to its summary (`/dtw/sessions/lookup/{sid}`).
func (s *Store) Lookup(sessionID string) (*SessionLookup, error) {
	row := s.db.QueryRow(`SELECT test_id, test_name, patient_id, test_date, recording_file FROM test_results WHERE test_id = ?`, sessionID)

	var l SessionLookup
	if err := row.Scan(&l.SessionID, &l.TestName, &l.PatientID, &l.TestDate, &l.RecordingFile); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// RecordingFile resolves a session's recording filename and owning
// patient, for ownership-checked download handlers. Returns ("", "", nil)
// if the session does not exist.
func (s *Store) RecordingFile(testName, sessionID string) (patientID, recordingFile string, err error) {
	row := s.db.QueryRow(`SELECT patient_id, recording_file FROM test_results WHERE test_name = ? AND test_id = ?`, testName, sessionID)
	if err := row.Scan(&patientID, &recordingFile); err != nil {
		if err == sql.ErrNoRows {
			return "", "", nil
		}
		return "", "", err
	}
	return patientID, recordingFile, nil
}

// Series returns the three channel bundles for one session, downsampled
// to at most maxPoints entries each (spec.md §4.9): if |series| > N, pick
// indices 0, step, 2*step, ... where step = floor(|series| / N).
func (s *Store) Series(testName, sessionID string, maxPoints int) (*SeriesResult, error) {
	row := s.db.QueryRow(`
		SELECT pos_local_costs, pos_aligned_ref_by_live, amp_local_costs, amp_aligned_ref_by_live, spd_local_costs, spd_aligned_ref_by_live
		FROM test_results WHERE test_name = ? AND test_id = ?`, testName, sessionID)

	var posCosts, posAligned, ampCosts, ampAligned, spdCosts, spdAligned string
	if err := row.Scan(&posCosts, &posAligned, &ampCosts, &ampAligned, &spdCosts, &spdAligned); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	pos, err := buildBundle(posCosts, posAligned, maxPoints)
	if err != nil {
		return nil, err
	}
	amp, err := buildBundle(ampCosts, ampAligned, maxPoints)
	if err != nil {
		return nil, err
	}
	spd, err := buildBundle(spdCosts, spdAligned, maxPoints)
	if err != nil {
		return nil, err
	}

	return &SeriesResult{Position: pos, Amplitude: amp, Speed: spd}, nil
}

func buildBundle(costsJSON, alignedJSON string, maxPoints int) (ChannelBundle, error) {
	var costs []float64
	var aligned []int
	if err := json.Unmarshal([]byte(costsJSON), &costs); err != nil {
		return ChannelBundle{}, fmt.Errorf("decoding local_costs: %w", err)
	}
	if err := json.Unmarshal([]byte(alignedJSON), &aligned); err != nil {
		return ChannelBundle{}, fmt.Errorf("decoding aligned_ref_by_live: %w", err)
	}

	idx := downsampleIndices(len(costs), maxPoints)

	var b ChannelBundle
	for _, i := range idx {
		b.LocalCosts = append(b.LocalCosts, costs[i])
	}

	alignIdx := downsampleIndices(len(aligned), maxPoints)
	for _, i := range alignIdx {
		b.AlignmentMap.X = append(b.AlignmentMap.X, i)
		b.AlignmentMap.Y = append(b.AlignmentMap.Y, aligned[i])
	}

	return b, nil
}

// PositionMatrixBundle holds the raw data the axis-aggregation
// projection needs: the position channel's pre-DTW feature matrices and
// its warping path, plus enough model metadata to resolve a
// landmark/axis selection back into a column index.
type PositionMatrixBundle struct {
	Model string
	UseZ  bool
	Live  capture.Matrix
	Ref   capture.Matrix
	Path  []capture.Step
}

// PositionMatrices loads the bundle saved for one session
// (`/dtw/axis_agg/{test}/{sid}`), or nil if the session does not exist.
func (s *Store) PositionMatrices(testName, sessionID string) (*PositionMatrixBundle, error) {
	row := s.db.QueryRow(`
		SELECT model, use_z, live_position, ref_position, pos_path
		FROM test_results WHERE test_name = ? AND test_id = ?`, testName, sessionID)

	var model string
	var useZ bool
	var liveJSON, refJSON, pathJSON string
	if err := row.Scan(&model, &useZ, &liveJSON, &refJSON, &pathJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var live, ref capture.Matrix
	if err := json.Unmarshal([]byte(liveJSON), &live); err != nil {
		return nil, fmt.Errorf("decoding live_position: %w", err)
	}
	if err := json.Unmarshal([]byte(refJSON), &ref); err != nil {
		return nil, fmt.Errorf("decoding ref_position: %w", err)
	}
	var path []capture.Step
	if err := json.Unmarshal([]byte(pathJSON), &path); err != nil {
		return nil, fmt.Errorf("decoding pos_path: %w", err)
	}

	return &PositionMatrixBundle{Model: model, UseZ: useZ, Live: live, Ref: ref, Path: path}, nil
}

// downsampleIndices picks 0, step, 2*step, ... while staying under n,
// where step = floor(n / maxPoints). maxPoints <= 0 or n <= maxPoints
// disables downsampling.
func downsampleIndices(n, maxPoints int) []int {
	if maxPoints <= 0 || n <= maxPoints {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	step := n / maxPoints
	if step < 1 {
		step = 1
	}
	var idx []int
	for i := 0; i < n; i += step {
		idx = append(idx, i)
	}
	return idx
}
