package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/motionlab/dtwcapture/pkg/capture"
)

var axisIndex = map[string]int{"x": 0, "y": 1, "z": 2}

// handleChannel recovers the original implementation's get_channel_series
// endpoint (`backend/routes/dtw_rest.py`): the raw live/ref series for one
// landmark+axis, the DTW path, and the path-warped pair series. Distinct
// from handleSeries's fixed position/amplitude/speed bundles.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	test := capture.NormalizeTestName(r.PathValue("test"))
	sid := r.PathValue("sid")

	landmark := 0
	if lm := r.URL.Query().Get("landmark"); lm != "" {
		v, err := strconv.Atoi(lm)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid landmark %q", lm), http.StatusBadRequest)
			return
		}
		landmark = v
	}

	axis := r.URL.Query().Get("axis")
	if axis == "" {
		axis = "x"
	}
	axisIdx, ok := axisIndex[axis]
	if !ok {
		http.Error(w, fmt.Sprintf("invalid axis %q (use x|y|z)", axis), http.StatusBadRequest)
		return
	}

	maxPoints := 400
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 0 {
			maxPoints = v
		}
	}

	bundle, err := s.Store.PositionMatrices(test, sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if bundle == nil {
		http.NotFound(w, r)
		return
	}

	model := capture.Model(bundle.Model)
	points, kpp := model.Points(bundle.UseZ)
	if points == 0 {
		http.Error(w, fmt.Sprintf("unknown model %q in stored result", bundle.Model), http.StatusInternalServerError)
		return
	}
	if landmark < 0 || landmark >= points {
		http.Error(w, fmt.Sprintf("landmark index %d out of range 0..%d", landmark, points-1), http.StatusBadRequest)
		return
	}
	if axisIdx >= kpp {
		http.Error(w, fmt.Sprintf("axis %q not available (dims-per-point=%d)", axis, kpp), http.StatusBadRequest)
		return
	}

	dIndex := landmark*kpp + axisIdx
	liveY, err := applyReduce(bundle.Live, []int{dIndex}, "mean")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	refY, err := applyReduce(bundle.Ref, []int{dIndex}, "mean")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	liveX, liveYDS := downsampleXY(liveY, maxPoints)
	refX, refYDS := downsampleXY(refY, maxPoints)

	n := len(bundle.Path)
	kIdx := make([]int, n)
	iIdx := make([]int, n)
	jIdx := make([]int, n)
	warpedLive := make([]float64, n)
	warpedRef := make([]float64, n)
	for idx, step := range bundle.Path {
		kIdx[idx] = idx
		iIdx[idx] = step.I
		jIdx[idx] = step.J
		if step.I < len(liveY) {
			warpedLive[idx] = liveY[step.I]
		}
		if step.J < len(refY) {
			warpedRef[idx] = refY[step.J]
		}
	}

	kStep := 1
	if n > maxPoints {
		kStep = n / maxPoints
		if kStep < 1 {
			kStep = 1
		}
	}
	var kDS, iDS, jDS []int
	var wLiveDS, wRefDS []float64
	for idx := 0; idx < n; idx += kStep {
		kDS = append(kDS, kIdx[idx])
		iDS = append(iDS, iIdx[idx])
		jDS = append(jDS, jIdx[idx])
		wLiveDS = append(wLiveDS, warpedLive[idx])
		wRefDS = append(wRefDS, warpedRef[idx])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"model":          bundle.Model,
		"D":              points * kpp,
		"points":         points,
		"dims_per_point": kpp,
		"channel":        map[string]any{"landmark": landmark, "axis": axis, "d_index": dIndex},
		"live":           map[string]any{"x": liveX, "y": liveYDS},
		"ref":            map[string]any{"x": refX, "y": refYDS},
		"warped":         map[string]any{"k": kDS, "live": wLiveDS, "ref": wRefDS},
		"path":           map[string]any{"i": iDS, "j": jDS},
	})
}

// handleAxisAgg recovers the original implementation's per-landmark,
// per-axis aggregation view (`backend/routes/dtw_rest.py`'s
// get_axis_aggregate), a caller-chosen reduction over a landmark subset
// rather than the fixed three-channel similarity already served by
// /series. It reads the raw position matrices and DTW path persisted
// alongside the scalar result (C9 supplement).
func (s *Server) handleAxisAgg(w http.ResponseWriter, r *http.Request) {
	test := capture.NormalizeTestName(r.PathValue("test"))
	sid := r.PathValue("sid")

	axis := r.URL.Query().Get("axis")
	if axis == "" {
		axis = "x"
	}
	axisIdx, ok := axisIndex[axis]
	if !ok {
		http.Error(w, fmt.Sprintf("invalid axis %q (use x|y|z)", axis), http.StatusBadRequest)
		return
	}

	reduce := r.URL.Query().Get("reduce")
	if reduce == "" {
		reduce = "mean"
	}

	maxPoints := 600
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 0 {
			maxPoints = v
		}
	}

	bundle, err := s.Store.PositionMatrices(test, sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if bundle == nil {
		http.NotFound(w, r)
		return
	}

	model := capture.Model(bundle.Model)
	points, kpp := model.Points(bundle.UseZ)
	if points == 0 {
		http.Error(w, fmt.Sprintf("unknown model %q in stored result", bundle.Model), http.StatusInternalServerError)
		return
	}
	if axisIdx >= kpp {
		http.Error(w, fmt.Sprintf("axis %q not available (dims-per-point=%d)", axis, kpp), http.StatusBadRequest)
		return
	}

	landmarksParam := r.URL.Query().Get("landmarks")
	positions, err := parseLandmarks(landmarksParam, points)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cols := make([]int, len(positions))
	for i, p := range positions {
		cols[i] = p*kpp + axisIdx
	}

	liveSeries, err := applyReduce(bundle.Live, cols, reduce)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	refSeries, err := applyReduce(bundle.Ref, cols, reduce)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	liveX, liveY := downsampleXY(liveSeries, maxPoints)
	refX, refY := downsampleXY(refSeries, maxPoints)

	n := len(bundle.Path)
	kIdx := make([]int, n)
	iIdx := make([]int, n)
	jIdx := make([]int, n)
	warpedLive := make([]float64, n)
	warpedRef := make([]float64, n)
	for idx, step := range bundle.Path {
		kIdx[idx] = idx
		iIdx[idx] = step.I
		jIdx[idx] = step.J
		if step.I < len(liveSeries) {
			warpedLive[idx] = liveSeries[step.I]
		}
		if step.J < len(refSeries) {
			warpedRef[idx] = refSeries[step.J]
		}
	}

	kStep := 1
	if n > maxPoints {
		kStep = n / maxPoints
		if kStep < 1 {
			kStep = 1
		}
	}
	var kDS, iDS, jDS []int
	var wLiveDS, wRefDS []float64
	for idx := 0; idx < n; idx += kStep {
		kDS = append(kDS, kIdx[idx])
		iDS = append(iDS, iIdx[idx])
		jDS = append(jDS, jIdx[idx])
		wLiveDS = append(wLiveDS, warpedLive[idx])
		wRefDS = append(wRefDS, warpedRef[idx])
	}

	landmarksIn := "all"
	if landmarksParam != "" && !strings.EqualFold(landmarksParam, "all") {
		landmarksIn = landmarksParam
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                 true,
		"model":              bundle.Model,
		"D":                  points * kpp,
		"points":             points,
		"dims_per_point":     kpp,
		"axis":               axis,
		"reduce":             reduce,
		"landmarks_in":       landmarksIn,
		"resolved_positions": positions,
		"live":               map[string]any{"x": liveX, "y": liveY},
		"ref":                map[string]any{"x": refX, "y": refY},
		"warped":             map[string]any{"k": kDS, "live": wLiveDS, "ref": wRefDS},
		"path":               map[string]any{"i": iDS, "j": jDS},
	})
}

// parseLandmarks accepts "all"/empty (every point) or a CSV of 0-based
// landmark indices, validated against points.
func parseLandmarks(raw string, points int) ([]int, error) {
	if raw == "" || strings.EqualFold(raw, "all") {
		out := make([]int, points)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid landmarks list %q: use 'all' or CSV of integers", raw)
		}
		if v < 0 || v >= points {
			return nil, fmt.Errorf("landmark %d out of range 0..%d", v, points-1)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid landmarks selected for aggregation")
	}
	return out, nil
}

// applyReduce collapses the selected columns of mat into one scalar per
// row using how (mean|median|sum|min|max), matching the original
// implementation's numpy reduction axis.
func applyReduce(mat capture.Matrix, cols []int, how string) ([]float64, error) {
	out := make([]float64, len(mat))
	vals := make([]float64, len(cols))
	for t, row := range mat {
		for k, c := range cols {
			if c < len(row) {
				vals[k] = row[c]
			} else {
				vals[k] = 0
			}
		}
		v, err := reduceOne(vals, how)
		if err != nil {
			return nil, err
		}
		out[t] = v
	}
	return out, nil
}

func reduceOne(vals []float64, how string) (float64, error) {
	if len(vals) == 0 {
		return 0, nil
	}
	switch strings.ToLower(how) {
	case "mean":
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals)), nil
	case "median":
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2], nil
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	case "sum":
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum, nil
	case "min":
		m := vals[0]
		for _, v := range vals[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case "max":
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	default:
		return 0, fmt.Errorf("unsupported reduce=%q (use mean|median|sum|min|max)", how)
	}
}

// downsampleXY mirrors the original implementation's plotting
// downsample: keep every step-th sample where step = floor(n/maxPoints).
func downsampleXY(y []float64, maxPoints int) (xs []int, ys []float64) {
	n := len(y)
	if n <= maxPoints {
		xs = make([]int, n)
		for i := range xs {
			xs[i] = i
		}
		return xs, y
	}
	step := n / maxPoints
	if step < 1 {
		step = 1
	}
	for i := 0; i < n; i += step {
		xs = append(xs, i)
		ys = append(ys, y[i])
	}
	return xs, ys
}
