//go:build cgo
// +build cgo

package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testJPEGBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeFrame(t *testing.T) {
	b64 := testJPEGBase64(t)
	frame, err := DecodeFrame(b64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer frame.Close()

	if frame.Width != 8 || frame.Height != 8 {
		t.Errorf("expected an 8x8 frame, got %dx%d", frame.Width, frame.Height)
	}
}

func TestDecodeFrame_DataURIPrefix(t *testing.T) {
	b64 := testJPEGBase64(t)
	frame, err := DecodeFrame("data:image/jpeg;base64," + b64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer frame.Close()
	if frame.Width != 8 || frame.Height != 8 {
		t.Errorf("expected an 8x8 frame, got %dx%d", frame.Width, frame.Height)
	}
}

func TestDecodeFrame_InvalidBase64(t *testing.T) {
	_, err := DecodeFrame("not valid base64!!")
	if CodeOf(err) != CodeFrameDecode {
		t.Errorf("expected CodeFrameDecode, got %v", err)
	}
}

func TestDecodeFrame_NotAnImage(t *testing.T) {
	garbage := base64.StdEncoding.EncodeToString([]byte("this is not a jpeg"))
	_, err := DecodeFrame(garbage)
	if CodeOf(err) != CodeFrameDecode {
		t.Errorf("expected CodeFrameDecode, got %v", err)
	}
}
