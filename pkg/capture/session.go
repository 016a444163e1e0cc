package capture

import (
	"sync"
	"time"
)

// State is a Session's lifecycle stage (spec.md §3, §4.5).
type State int

const (
	InitPending State = iota
	Running
	Paused
	Ended
	Errored
)

func (s State) String() string {
	switch s {
	case InitPending:
		return "INIT_PENDING"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Ended:
		return "ENDED"
	case Errored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// Session is the in-memory state for one live capture connection
// (spec.md §3, §4.5). All mutating methods are serialized by mu: the
// transport read loop calls them one at a time, in arrival order, for a
// given connection.
type Session struct {
	mu sync.Mutex

	state State

	TestID    string
	PatientID string
	TestName  string // canonicalized
	Model     Model
	UseZ      bool
	FPSHint   float64
	Band      *Band

	template *Template

	frameBuffer   []FrameLandmarks
	featureBuffer Matrix

	framesSeen    int
	featuresBuilt int
	featureDrops  int

	smoother *DisplaySmoother

	startedAt time.Time
	err       error
}

// NewSession creates a session in INIT_PENDING, not yet bound to a test
// or template.
func NewSession(testID, patientID string) *Session {
	return &Session{
		state:     InitPending,
		TestID:    testID,
		PatientID: patientID,
		smoother:  NewDisplaySmoother(0.5),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns (frames_seen, features_built, feature_drops).
func (s *Session) Counters() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesSeen, s.featuresBuilt, s.featureDrops
}

// Init transitions INIT_PENDING -> RUNNING given a resolved template and
// model, or -> ERRORED if templateErr is non-nil (spec.md §4.5).
func (s *Session) Init(testName string, model Model, fps float64, band *Band, tmpl *Template, templateErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != InitPending {
		return newErr(CodeProtocol, "init received outside INIT_PENDING", nil)
	}

	if templateErr != nil {
		s.state = Errored
		s.err = templateErr
		return templateErr
	}

	s.TestName = testName
	s.Model = model
	s.FPSHint = fps
	s.Band = band
	s.template = tmpl
	s.startedAt = time.Now()
	s.state = Running
	return nil
}

// Frame appends the frame's detected landmarks to frame_buffer and, regardless of
// PAUSED/RUNNING, runs the extractor against it: pausing is advisory for
// the UI only and must never alter what gets scored (spec.md §4.5).
// smoothed is the display-only landmark view; live is unmodified. ok is
// false when the frame was dropped (extractor returned no features),
// which is not an error and increments feature_drops rather than
// returning one.
func (s *Session) Frame(lm FrameLandmarks, useZ bool) (smoothed FrameLandmarks, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running && s.state != Paused {
		return FrameLandmarks{}, false, newErr(CodeProtocol, "frame received outside RUNNING/PAUSED", nil)
	}

	s.frameBuffer = append(s.frameBuffer, lm)
	s.framesSeen++

	vec, extracted := Extract(s.Model, lm, useZ)
	if !extracted {
		s.featureDrops++
		return s.smoother.Smooth(lm), false, nil
	}

	s.featureBuffer = append(s.featureBuffer, []float64(vec))
	s.featuresBuilt++

	return s.smoother.Smooth(lm), true, nil
}

// SetPaused toggles the advisory UI pause flag. It does not affect Frame.
func (s *Session) SetPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running && s.state != Paused {
		return newErr(CodeProtocol, "pause received outside RUNNING/PAUSED", nil)
	}
	if paused {
		s.state = Paused
	} else {
		s.state = Running
	}
	return nil
}

// ReadyToEnd reports whether End would succeed right now, i.e.
// features_built >= 1 (spec.md §4.5's EndWithoutFeatures guard).
func (s *Session) ReadyToEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.featuresBuilt >= 1
}

// snapshot captures everything Finalize needs under the session lock,
// without holding it for the (potentially slow) DTW/encode/persist work.
type snapshot struct {
	testID, patientID, testName string
	model                       Model
	useZ                        bool
	fpsHint                     float64
	band                        *Band
	template                    *Template
	frames                      []FrameLandmarks
	features                    Matrix
}

// End transitions RUNNING|PAUSED -> ENDED and returns a snapshot for the
// caller to finalize, or ErrEndWithoutFeatures if features_built == 0 (the
// session remains in its current state per spec.md §4.5).
func (s *Session) End() (snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running && s.state != Paused {
		return snapshot{}, newErr(CodeProtocol, "end received outside RUNNING/PAUSED", nil)
	}
	if s.featuresBuilt < 1 {
		return snapshot{}, newErr(CodeNoFeatures, "end with no features built", ErrEndWithoutFeatures)
	}

	s.state = Ended
	return snapshot{
		testID:    s.TestID,
		patientID: s.PatientID,
		testName:  s.TestName,
		model:     s.Model,
		useZ:      s.UseZ,
		fpsHint:   s.FPSHint,
		band:      s.Band,
		template:  s.template,
		frames:    append([]FrameLandmarks(nil), s.frameBuffer...),
		features:  append(Matrix(nil), s.featureBuffer...),
	}, nil
}

// Fail transitions any state to ERRORED, recording err as the cause.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Errored
	s.err = err
}

// Err returns the error that caused an ERRORED transition, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
