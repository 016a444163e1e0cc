// Package store persists TestResult rows to a single-file SQLite
// database (spec.md §3, C8) and serves the read-side projections (C9)
// that list tests, sessions, and downsampled series.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

// Store wraps a SQLite connection holding the test_results table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// applyPragmas sets the SQLite pragmas this module needs for a
// single-process server with many concurrent session workers.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one completed FinalizeResult as a single row, satisfying
// capture.ResultSink so finalize.go can call it without importing this
// package directly (spec.md §4.8 step 8: the recording filename and all
// scalar/series columns are set in one transaction, or nothing is
// written).
func (s *Store) Save(testID, patientID, testName string, model capture.Model, useZ bool, fps float64, r capture.FinalizeResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	posCosts, err := json.Marshal(r.Position.LocalCosts)
	if err != nil {
		return fmt.Errorf("encoding position local_costs: %w", err)
	}
	posAligned, err := json.Marshal(r.Position.AlignedRefByLive)
	if err != nil {
		return fmt.Errorf("encoding position aligned_ref_by_live: %w", err)
	}
	ampCosts, err := json.Marshal(r.Amplitude.LocalCosts)
	if err != nil {
		return fmt.Errorf("encoding amplitude local_costs: %w", err)
	}
	ampAligned, err := json.Marshal(r.Amplitude.AlignedRefByLive)
	if err != nil {
		return fmt.Errorf("encoding amplitude aligned_ref_by_live: %w", err)
	}
	spdCosts, err := json.Marshal(r.Speed.LocalCosts)
	if err != nil {
		return fmt.Errorf("encoding speed local_costs: %w", err)
	}
	spdAligned, err := json.Marshal(r.Speed.AlignedRefByLive)
	if err != nil {
		return fmt.Errorf("encoding speed aligned_ref_by_live: %w", err)
	}
	posPath, err := json.Marshal(r.Position.Path)
	if err != nil {
		return fmt.Errorf("encoding position path: %w", err)
	}
	livePos, err := json.Marshal(r.LivePosition)
	if err != nil {
		return fmt.Errorf("encoding live_position: %w", err)
	}
	refPos, err := json.Marshal(r.RefPosition)
	if err != nil {
		return fmt.Errorf("encoding ref_position: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO test_results (
			test_id, patient_id, test_name, model, use_z, test_date, fps, recording_file, frame_count,
			distance_pos, similarity_pos, r_pos, l_pos, pos_local_costs, pos_aligned_ref_by_live, pos_path,
			live_position, ref_position,
			distance_amp, similarity_amp, r_amp, l_amp, amp_local_costs, amp_aligned_ref_by_live,
			distance_spd, similarity_spd, r_spd, l_spd, spd_local_costs, spd_aligned_ref_by_live,
			similarity_overall, avg_step_pos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		testID, patientID, testName, string(model), useZ, time.Now().UTC().Format(time.RFC3339), fps, r.RecordingFile, r.FrameCount,
		r.Position.Distance, r.Position.Similarity, r.Position.R, r.Position.L, string(posCosts), string(posAligned), string(posPath),
		string(livePos), string(refPos),
		r.Amplitude.Distance, r.Amplitude.Similarity, r.Amplitude.R, r.Amplitude.L, string(ampCosts), string(ampAligned),
		r.Speed.Distance, r.Speed.Similarity, r.Speed.R, r.Speed.L, string(spdCosts), string(spdAligned),
		r.SimilarityOverall, r.AvgStepPos,
	)
	if err != nil {
		return fmt.Errorf("inserting test_results row: %w", err)
	}

	return tx.Commit()
}
