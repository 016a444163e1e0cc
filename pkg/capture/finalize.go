//go:build cgo
// +build cgo

package capture

import "fmt"

// ResultSink persists a completed FinalizeResult. pkg/store implements
// this against SQLite; finalize.go only depends on the interface so it
// stays testable without a database.
type ResultSink interface {
	Save(testID, patientID, testName string, model Model, useZ bool, fps float64, r FinalizeResult) error
}

// Finalize runs the end-of-session pipeline (spec.md §4.8): build
// amplitude/speed channels, run DTW on all three channels, score
// similarity, encode the recording, and persist the result. frames is
// the raw decoded-image buffer accumulated by the transport layer over
// the session's lifetime (kept separate from the session's feature
// buffer so the pure scoring path has no gocv dependency).
func Finalize(snap snapshot, frames []DecodedFrame, recordingsDir string, sink ResultSink) (FinalizeResult, error) {
	live := snap.features
	if len(live) == 0 {
		return FinalizeResult{}, newErr(CodeNoFeatures, "end with no features built", ErrNoFeatures)
	}
	if snap.template == nil {
		return FinalizeResult{}, newErr(CodeTemplate, "finalize called without a resolved template", ErrTemplateMissing)
	}

	ref := snap.template.X
	if ref.Cols() != live.Cols() {
		return FinalizeResult{}, newErr(CodeDimMismatch, fmt.Sprintf("live dim %d != template dim %d", live.Cols(), ref.Cols()), ErrDimMismatch)
	}

	posResult, err := scoreChannel(ChannelPosition, live, ref, snap.band)
	if err != nil {
		return FinalizeResult{}, err
	}

	liveAmp, refAmp := Amplitude(live), Amplitude(ref)
	ampResult, err := scoreChannel(ChannelAmplitude, asColumns(liveAmp), asColumns(refAmp), snap.band)
	if err != nil {
		return FinalizeResult{}, err
	}

	liveSpd, refSpd := Speed(live), Speed(ref)
	spdResult, err := scoreChannel(ChannelSpeed, asColumns(liveSpd), asColumns(refSpd), snap.band)
	if err != nil {
		return FinalizeResult{}, err
	}

	overall := (posResult.Similarity + ampResult.Similarity + spdResult.Similarity) / 3
	avgStepPos := posResult.Distance / float64(max(1, len(posResult.Path)))

	recordingFile, err := WriteMP4(recordingsDir, snap.testID, frames, snap.fpsHint)
	if err != nil {
		return FinalizeResult{}, err
	}

	result := FinalizeResult{
		Position:          posResult,
		Amplitude:         ampResult,
		Speed:             spdResult,
		LivePosition:      live,
		RefPosition:       ref,
		SimilarityOverall: overall,
		AvgStepPos:        avgStepPos,
		RecordingFile:     recordingFile,
		FrameCount:        len(frames),
	}

	if err := sink.Save(snap.testID, snap.patientID, snap.testName, snap.model, snap.useZ, snap.fpsHint, result); err != nil {
		return FinalizeResult{}, newErr(CodeStorage, "persisting test result", fmt.Errorf("%w: %v", ErrStorageFailed, err))
	}

	return result, nil
}

// scoreChannel runs DTW for one channel and derives its ChannelResult,
// including the R_c/L_c normalization and similarity_c (spec.md §4.8
// step 6).
func scoreChannel(ch Channel, live, ref Matrix, band *Band) (ChannelResult, error) {
	path, total, localCosts, err := DTW(live, ref, band)
	if err != nil {
		return ChannelResult{}, err
	}

	r := channelRange(ref)
	l := 0.5 * float64(len(live)+len(ref))

	denom := l * max(r, epsilon)
	if denom < epsilon {
		denom = epsilon
	}
	similarity := 1 / (1 + total/denom)

	return ChannelResult{
		Path:             path,
		Distance:         total,
		LocalCosts:       localCosts,
		AlignedRefByLive: AlignedRefByLive(path, len(live)),
		Similarity:       similarity,
		R:                r,
		L:                l,
	}, nil
}

// channelRange computes R_c = max(series) - min(series) over every
// scalar entry of m (a single column for amplitude/speed, every
// coordinate for position).
func channelRange(m Matrix) float64 {
	first := true
	var lo, hi float64
	for _, row := range m {
		for _, v := range row {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return hi - lo
}
