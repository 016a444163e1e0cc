package capture

import (
	"archive/zip"
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// readNpzArray loads the array named member (without its ".npy" suffix)
// from a .npz file (a zip archive of .npy members) at path, returning it
// as a row-major [][]float32 of shape (rows, cols).
//
// Only the numpy-on-disk subset this module's templates actually use is
// supported: a little-endian float32 C-order 2-D array. That is the
// entire surface spec.md §4.1 requires, so a small direct parser here is
// both correct and independently verifiable against the spec text,
// unlike guessing at a third-party library's API without its source
// (see DESIGN.md).
func readNpzArray(path, member string) (rows [][]float32, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening npz %q: %w", path, err)
	}
	defer zr.Close()

	name := member + ".npy"
	var f *zip.File
	for _, cand := range zr.File {
		if cand.Name == name {
			f = cand
			break
		}
	}
	if f == nil {
		return nil, fmt.Errorf("npz %q: member %q not found", path, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening npz member %q: %w", name, err)
	}
	defer rc.Close()

	return readNpy(bufio.NewReader(rc))
}

var npyShapeRE = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
var npyDescrRE = regexp.MustCompile(`'descr':\s*'([^']+)'`)
var npyFortranRE = regexp.MustCompile(`'fortran_order':\s*(True|False)`)

// readNpy parses a numpy .npy v1.x stream: magic, version, header length,
// a Python-dict-literal header string, then raw little-endian data.
func readNpy(r io.Reader) ([][]float32, error) {
	magic := make([]byte, 6)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading npy magic: %w", err)
	}
	if string(magic) != "\x93NUMPY" {
		return nil, fmt.Errorf("not a numpy file (bad magic)")
	}

	ver := make([]byte, 2)
	if _, err := io.ReadFull(r, ver); err != nil {
		return nil, fmt.Errorf("reading npy version: %w", err)
	}

	var headerLen int
	if ver[0] == 1 {
		var hl16 uint16
		if err := binary.Read(r, binary.LittleEndian, &hl16); err != nil {
			return nil, fmt.Errorf("reading npy v1 header length: %w", err)
		}
		headerLen = int(hl16)
	} else {
		var hl32 uint32
		if err := binary.Read(r, binary.LittleEndian, &hl32); err != nil {
			return nil, fmt.Errorf("reading npy v2 header length: %w", err)
		}
		headerLen = int(hl32)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading npy header: %w", err)
	}
	hs := string(header)

	descrM := npyDescrRE.FindStringSubmatch(hs)
	if descrM == nil {
		return nil, fmt.Errorf("npy header missing descr: %s", hs)
	}
	descr := descrM[1]
	if descr != "<f4" && descr != "=f4" {
		return nil, fmt.Errorf("unsupported npy dtype %q (only little-endian float32 templates are supported)", descr)
	}

	if m := npyFortranRE.FindStringSubmatch(hs); m != nil && m[1] == "True" {
		return nil, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}

	shapeM := npyShapeRE.FindStringSubmatch(hs)
	if shapeM == nil {
		return nil, fmt.Errorf("npy header missing shape: %s", hs)
	}
	dims, err := parseShape(shapeM[1])
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected a 2-D array, got shape %v", dims)
	}
	rows, cols := dims[0], dims[1]

	data := make([]byte, rows*cols*4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading npy payload: %w", err)
	}

	out := make([][]float32, rows)
	off := 0
	for i := 0; i < rows; i++ {
		row := make([]float32, cols)
		for j := 0; j < cols; j++ {
			bits := binary.LittleEndian.Uint32(data[off : off+4])
			row[j] = math.Float32frombits(bits)
			off += 4
		}
		out[i] = row
	}
	return out, nil
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	var dims []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parsing shape component %q: %w", p, err)
		}
		dims = append(dims, v)
	}
	return dims, nil
}
