package hrtf

import "github.com/grupodiana/brt/geom"

// localize projects o into a coordinate frame centred on target, unwrapping
// azimuth through wrapAzDiff so a triangle straddling the 0/360 seam still
// produces a sane planar triangle. Barycentric coordinates are translation
// invariant, so centring on the target instead of spec.md §4.3's literal
// "target re-centered to (180, 0)" convention yields the same weights.
func localize(target, o geom.Orientation) (x, y float64) {
	return wrapAzDiff(o.Azimuth, target.Azimuth), o.Elevation - target.Elevation
}

// barycentric computes the barycentric coordinates of target with respect
// to the triangle (a, b, c), per spec.md §4.3's distance-based and
// quadrant-based offline interpolators and the online midpoint-quadrant
// interpolator.
func barycentric(target, a, b, c geom.Orientation) (Barycentric, bool) {
	x1, y1 := localize(target, a)
	x2, y2 := localize(target, b)
	x3, y3 := localize(target, c)

	det := (y2-y3)*(x1-x3) + (x3-x2)*(y1-y3)
	if det == 0 {
		return Barycentric{}, false
	}
	// Target is at the local origin (0, 0).
	alpha := ((y2-y3)*(-x3) + (x3-x2)*(-y3)) / det
	beta := ((y3-y1)*(-x3) + (x1-x3)*(-y3)) / det
	gamma := 1 - alpha - beta
	return Barycentric{Alpha: alpha, Beta: beta, Gamma: gamma}, true
}

// isConvex reports whether every barycentric coordinate is non-negative,
// i.e. the target lies inside (or on the boundary of) the triangle.
func (b Barycentric) isConvex() bool {
	const eps = -1e-9
	return b.Alpha >= eps && b.Beta >= eps && b.Gamma >= eps
}

// mixHRIR synthesises an HRIR as the barycentric-weighted combination of
// three vertex HRIRs, per spec.md §4.3's "synthesise an IR as the
// barycentric-weighted linear combination of the three IRs and their
// delays."
func mixHRIR(w Barycentric, a, b, c HRIR) HRIR {
	n := len(a.Left)
	out := HRIR{
		Left:       make([]float64, n),
		Right:      make([]float64, n),
		LeftDelay:  weightedDelay(w, a.LeftDelay, b.LeftDelay, c.LeftDelay),
		RightDelay: weightedDelay(w, a.RightDelay, b.RightDelay, c.RightDelay),
	}
	for i := 0; i < n; i++ {
		out.Left[i] = w.Alpha*a.Left[i] + w.Beta*b.Left[i] + w.Gamma*c.Left[i]
		out.Right[i] = w.Alpha*a.Right[i] + w.Beta*b.Right[i] + w.Gamma*c.Right[i]
	}
	return out
}

func weightedDelay(w Barycentric, a, b, c uint64) uint64 {
	v := w.Alpha*float64(a) + w.Beta*float64(b) + w.Gamma*float64(c)
	if v < 0 {
		return 0
	}
	return uint64(v + 0.5)
}

// mixPartitioned synthesises a partitioned HRIR by linearly mixing each
// subfilter of three partitioned vertices, per spec.md §4.3's online
// interpolator ("synthesize the partitioned IR on the fly by linearly
// mixing the three partitioned IRs per subfilter").
func mixPartitioned(w Barycentric, a, b, c HRIRPartitioned) HRIRPartitioned {
	out := HRIRPartitioned{
		LeftPartitions:  mixPartitionSet(w, a.LeftPartitions, b.LeftPartitions, c.LeftPartitions),
		RightPartitions: mixPartitionSet(w, a.RightPartitions, b.RightPartitions, c.RightPartitions),
		LeftDelay:       weightedDelay(w, a.LeftDelay, b.LeftDelay, c.LeftDelay),
		RightDelay:      weightedDelay(w, a.RightDelay, b.RightDelay, c.RightDelay),
	}
	return out
}

func mixPartitionSet(w Barycentric, a, b, c [][]float64) [][]float64 {
	k := len(a)
	out := make([][]float64, k)
	for kk := 0; kk < k; kk++ {
		l := len(a[kk])
		buf := make([]float64, l)
		for i := 0; i < l; i++ {
			buf[i] = w.Alpha*a[kk][i] + w.Beta*b[kk][i] + w.Gamma*c[kk][i]
		}
		out[kk] = buf
	}
	return out
}
