package capture

import (
	"errors"
	"fmt"
)

// Error codes surfaced to the transport layer's error{where, message}
// and dtw_error wire events (spec.md §7).
type Code string

const (
	CodeProtocol      Code = "protocol"
	CodeTemplate      Code = "template"
	CodeFrameDecode   Code = "frame_decode"
	CodeExtractor     Code = "extractor"
	CodeNoFeatures    Code = "no_features"
	CodeDimMismatch   Code = "dim_mismatch"
	CodeBandInfeasible Code = "band_infeasible"
	CodeWriter        Code = "writer"
	CodeStorage       Code = "storage"
	CodeNotOwned      Code = "not_owned"
)

// CaptureError is a typed error carrying a machine-readable Code so
// callers can map failures to wire events without string matching.
type CaptureError struct {
	Code Code
	Msg  string
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CaptureError) Unwrap() error { return e.Err }

func newErr(code Code, msg string, err error) *CaptureError {
	return &CaptureError{Code: code, Msg: msg, Err: err}
}

// Sentinel errors for conditions that don't need a dynamic message.
var (
	ErrTemplateMissing   = errors.New("template missing")
	ErrTemplateMalformed = errors.New("template malformed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrFrameDecodeFailed = errors.New("frame decode failed")
	ErrExtractorError    = errors.New("extractor error")
	ErrNoFeatures        = errors.New("no features built")
	ErrDimMismatch       = errors.New("live/reference dimension mismatch")
	ErrBandInfeasible    = errors.New("sakoe-chiba band excludes path endpoint")
	ErrWriterUnavailable = errors.New("no mp4 codec available")
	ErrStorageFailed     = errors.New("persistence failed")
	ErrNotOwned          = errors.New("patient not owned by caller")

	ErrNotInitialized  = errors.New("session not initialized")
	ErrAlreadyRunning  = errors.New("session already initialized")
	ErrSessionEnded    = errors.New("session already ended")
	ErrSessionErrored  = errors.New("session is in an error state")
	ErrEndWithoutFeatures = errors.New("end requested before any feature was built")
)

// CodeOf extracts the wire-level Code for an error, defaulting to
// CodeProtocol for unrecognized errors.
func CodeOf(err error) Code {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrTemplateMissing), errors.Is(err, ErrTemplateMalformed), errors.Is(err, ErrUnsupportedModel):
		return CodeTemplate
	case errors.Is(err, ErrFrameDecodeFailed):
		return CodeFrameDecode
	case errors.Is(err, ErrExtractorError):
		return CodeExtractor
	case errors.Is(err, ErrNoFeatures), errors.Is(err, ErrEndWithoutFeatures):
		return CodeNoFeatures
	case errors.Is(err, ErrDimMismatch):
		return CodeDimMismatch
	case errors.Is(err, ErrBandInfeasible):
		return CodeBandInfeasible
	case errors.Is(err, ErrWriterUnavailable):
		return CodeWriter
	case errors.Is(err, ErrStorageFailed):
		return CodeStorage
	case errors.Is(err, ErrNotOwned):
		return CodeNotOwned
	default:
		return CodeProtocol
	}
}
