// Package httpapi implements the read-side REST projections (spec.md
// §4.9, §6): listing tests/sessions, downsampled series, and recording
// downloads. All of it is a pure projection over pkg/store plus the
// recordings directory; no core scoring logic lives here.
package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/motionlab/dtwcapture/pkg/capture"
	"github.com/motionlab/dtwcapture/pkg/store"
)

// OwnerChecker verifies that the authenticated caller owns patientID.
// The core never mutates patient data (spec.md §1); this is the only
// seam into that external collaborator.
type OwnerChecker interface {
	Owns(userID, patientID string) (bool, error)
}

// Server holds the collaborators the read-side handlers need.
type Server struct {
	Store         *store.Store
	RecordingsDir string
	Owner         OwnerChecker
	Backend       string // e.g. "dtwcapture"
	ModelDefault  string
}

// Routes registers every endpoint from spec.md §4.9/§6 on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /dtw/health", s.handleHealth)
	mux.HandleFunc("GET /dtw/diag", s.handleDiag)
	mux.HandleFunc("GET /dtw/tests", s.handleTests)
	mux.HandleFunc("GET /dtw/sessions/{test}", s.handleSessions)
	mux.HandleFunc("GET /dtw/sessions/{test}/{sid}/series", s.handleSeries)
	mux.HandleFunc("GET /dtw/sessions/{test}/{sid}/download", s.handleDownload)
	mux.HandleFunc("GET /dtw/sessions/lookup/{sid}", s.handleLookup)
	mux.HandleFunc("GET /dtw/channel/{test}/{sid}", s.handleChannel)
	mux.HandleFunc("GET /dtw/axis_agg/{test}/{sid}", s.handleAxisAgg)
	mux.HandleFunc("GET /videos/{patientId}/{test}", s.handleVideos)
	mux.HandleFunc("GET /recordings/{patientId}/{testId}", s.handleRecordingDownload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"backend": s.Backend,
		"model":   s.ModelDefault,
	})
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	tests, err := s.Store.ListTests()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	counts := make(map[string]int, len(tests))
	for _, t := range tests {
		sessions, err := s.Store.ListSessions(t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		counts[t] = len(sessions)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tests":  len(tests),
		"counts": counts,
	})
}

func (s *Server) handleTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.Store.ListTests()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tests)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	test := capture.NormalizeTestName(r.PathValue("test"))
	sessions, err := s.Store.ListSessions(test)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	test := capture.NormalizeTestName(r.PathValue("test"))
	sid := r.PathValue("sid")

	maxPoints := 500
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 0 {
			maxPoints = v
		}
	}

	series, err := s.Store.Series(test, sid, maxPoints)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if series == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleChannel is implemented in axisagg.go: it recovers the original
// implementation's get_channel_series endpoint (single landmark+axis
// raw and DTW-warped series), distinct from the three fixed
// position/amplitude/speed bundles handleSeries already serves.

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	test := capture.NormalizeTestName(r.PathValue("test"))
	sid := r.PathValue("sid")

	patientID, recordingFile, err := s.Store.RecordingFile(test, sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.serveRecording(w, r, patientID, recordingFile)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	l, err := s.Store.Lookup(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if l == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	test := capture.NormalizeTestName(r.PathValue("test"))

	if !s.checkOwnership(w, r, patientID) {
		return
	}

	sessions, err := s.Store.ListSessions(test)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var files []string
	for _, sess := range sessions {
		if sess.PatientID != patientID {
			continue
		}
		_, recordingFile, err := s.Store.RecordingFile(test, sess.SessionID)
		if err == nil && recordingFile != "" {
			files = append(files, recordingFile)
		}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleRecordingDownload(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	testID := r.PathValue("testId")

	l, err := s.Store.Lookup(testID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if l == nil || l.PatientID != patientID {
		http.NotFound(w, r)
		return
	}
	s.serveRecording(w, r, patientID, l.RecordingFile)
}

// serveRecording enforces ownership and existence before streaming the
// MP4, reporting 404 in both failure cases to avoid leaking identifiers
// (spec.md §7 Access errors).
func (s *Server) serveRecording(w http.ResponseWriter, r *http.Request, patientID, recordingFile string) {
	if recordingFile == "" {
		http.NotFound(w, r)
		return
	}
	if !s.checkOwnership(w, r, patientID) {
		return
	}

	path := filepath.Join(s.RecordingsDir, recordingFile)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) checkOwnership(w http.ResponseWriter, r *http.Request, patientID string) bool {
	if s.Owner == nil {
		return true
	}
	userID := r.Header.Get("X-User-Id")
	owns, err := s.Owner.Owns(userID, patientID)
	if err != nil || !owns {
		http.NotFound(w, r)
		return false
	}
	return true
}
