package capture

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildNpyV1 encodes rows as a little-endian float32 C-order .npy v1.0
// stream, the same layout readNpy expects.
func buildNpyV1(t *testing.T, rows [][]float32) []byte {
	t.Helper()
	if len(rows) == 0 {
		t.Fatalf("buildNpyV1: no rows")
	}
	cols := len(rows[0])

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", len(rows), cols)
	// Pad so magic(6) + version(2) + headerLen(2) + header is a multiple
	// of 16, with a trailing newline, as numpy itself does.
	const prefixLen = 10
	total := prefixLen + len(header) + 1
	pad := (16 - total%16) % 16
	header += string(bytes.Repeat([]byte{' '}, pad))
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("writing header length: %v", err)
	}
	buf.WriteString(header)

	for _, row := range rows {
		for _, v := range row {
			if err := binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)); err != nil {
				t.Fatalf("writing payload: %v", err)
			}
		}
	}
	return buf.Bytes()
}

// writeTestNpz writes a single-member .npz (a zip of one "<member>.npy")
// to path.
func writeTestNpz(t *testing.T, path, member string, rows [][]float32) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(member + ".npy")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write(buildNpyV1(t, rows)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func TestReadNpzArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.npz")
	want := [][]float32{{1, 2, 3}, {4, 5, 6}}
	writeTestNpz(t, path, "X", want)

	got, err := readNpzArray(path, "X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("[%d][%d] = %f, want %f", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestReadNpzArray_MissingMember(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.npz")
	writeTestNpz(t, path, "X", [][]float32{{1, 2}})

	if _, err := readNpzArray(path, "Y"); err == nil {
		t.Errorf("expected an error for a missing member")
	}
}

func TestReadNpzArray_MissingFile(t *testing.T) {
	if _, err := readNpzArray("/nonexistent/path/template.npz", "X"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
