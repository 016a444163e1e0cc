package store

// schemaSQL creates the single table this module needs. TestResult rows
// are immutable after insert (spec.md §3's "Lifecycles"), so there is no
// update path and no migration machinery: a fresh schema is always
// correct for a fresh database file.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS test_results (
	test_id             TEXT PRIMARY KEY,
	patient_id          TEXT NOT NULL,
	test_name           TEXT NOT NULL,
	model               TEXT NOT NULL,
	use_z               INTEGER NOT NULL DEFAULT 0,
	test_date           TEXT NOT NULL,
	fps                 REAL NOT NULL,
	recording_file      TEXT NOT NULL,
	frame_count         INTEGER NOT NULL,

	distance_pos        REAL NOT NULL,
	similarity_pos      REAL NOT NULL,
	r_pos               REAL NOT NULL,
	l_pos               REAL NOT NULL,
	pos_local_costs     TEXT NOT NULL,
	pos_aligned_ref_by_live TEXT NOT NULL,
	pos_path            TEXT NOT NULL,
	live_position       TEXT NOT NULL,
	ref_position        TEXT NOT NULL,

	distance_amp        REAL NOT NULL,
	similarity_amp      REAL NOT NULL,
	r_amp               REAL NOT NULL,
	l_amp               REAL NOT NULL,
	amp_local_costs     TEXT NOT NULL,
	amp_aligned_ref_by_live TEXT NOT NULL,

	distance_spd        REAL NOT NULL,
	similarity_spd      REAL NOT NULL,
	r_spd               REAL NOT NULL,
	l_spd               REAL NOT NULL,
	spd_local_costs     TEXT NOT NULL,
	spd_aligned_ref_by_live TEXT NOT NULL,

	similarity_overall  REAL NOT NULL,
	avg_step_pos        REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_test_name ON test_results(test_name);
CREATE INDEX IF NOT EXISTS idx_test_results_patient_id ON test_results(patient_id);
`
