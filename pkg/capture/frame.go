//go:build cgo
// +build cgo

package capture

import (
	"encoding/base64"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// DecodedFrame is a single ingested camera frame as a decoded gocv.Mat
// plus its dimensions; the same Mat feeds landmark detection and the
// recording writer.
type DecodedFrame struct {
	Mat    gocv.Mat
	Width  int
	Height int
}

// Close releases the underlying Mat.
func (f DecodedFrame) Close() error {
	return f.Mat.Close()
}

// DecodeFrame accepts a frame message payload (spec.md §4.6): a base64
// string optionally prefixed with "data:image/...;base64,". It decodes
// the JPEG and returns a BGR Mat; the caller owns the returned Mat.
func DecodeFrame(payload string) (DecodedFrame, error) {
	b64 := payload
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		b64 = payload[idx+len("base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return DecodedFrame{}, newErr(CodeFrameDecode, "decoding base64 frame payload", fmt.Errorf("%w: %v", ErrFrameDecodeFailed, err))
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return DecodedFrame{}, newErr(CodeFrameDecode, "decoding JPEG frame", fmt.Errorf("%w: %v", ErrFrameDecodeFailed, err))
	}
	if mat.Empty() {
		mat.Close()
		return DecodedFrame{}, newErr(CodeFrameDecode, "decoded frame is empty", ErrFrameDecodeFailed)
	}

	return DecodedFrame{Mat: mat, Width: mat.Cols(), Height: mat.Rows()}, nil
}
