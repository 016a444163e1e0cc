//go:build cgo
// +build cgo

package capture

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"
)

// recordingCodecs lists FourCC strings tried in order when opening an MP4
// writer: H.264 variants first, falling back to a baseline MPEG-4 codec
// (spec.md §4.7). The first one that successfully opens wins.
var recordingCodecs = []string{"avc1", "h264", "mp4v"}

// WriteMP4 encodes frames (in order) to a single MP4 file under dir and
// returns its filename (not a full path). Fails with ErrWriterUnavailable
// if no codec in recordingCodecs can be opened.
func WriteMP4(dir, testID string, frames []DecodedFrame, fps float64) (string, error) {
	if len(frames) == 0 {
		return "", newErr(CodeWriter, "no frames to encode", ErrWriterUnavailable)
	}
	if fps <= 0 {
		fps = 30
	}

	name := fmt.Sprintf("%s.mp4", testID)
	path := filepath.Join(dir, name)

	w0 := frames[0].Mat
	width, height := w0.Cols(), w0.Rows()

	var writer *gocv.VideoWriter
	var openErr error
	for _, codec := range recordingCodecs {
		vw, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
		if err != nil || vw == nil || !vw.IsOpened() {
			if vw != nil {
				vw.Close()
			}
			openErr = err
			continue
		}
		writer = vw
		break
	}

	if writer == nil {
		return "", newErr(CodeWriter, fmt.Sprintf("no video codec available (last error: %v)", openErr), ErrWriterUnavailable)
	}
	defer writer.Close()

	for _, f := range frames {
		if err := writer.Write(f.Mat); err != nil {
			return "", newErr(CodeWriter, "writing frame to MP4", fmt.Errorf("%w: %v", ErrWriterUnavailable, err))
		}
	}

	return name, nil
}
