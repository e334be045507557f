// Package hrtf implements the HRTF service of spec.md §4.3: an offline
// preprocessing pipeline that turns an irregular measured grid of
// head-related impulse responses into a regular, pole-complete,
// FFT-partitioned table, plus the distance-based and quadrant-based offline
// interpolators used during preprocessing and the midpoint-quadrant online
// interpolator used once per block.
//
// The mutable/queryable split follows spec.md §9's REDESIGN FLAGS: a
// Builder accumulates measurements and is never queried; EndSetup freezes
// it into an immutable Service, the only type with query methods.
package hrtf

import "github.com/grupodiana/brt/geom"

// northPoleElevation and southPoleElevation are the two elevation values
// the resampled grid treats as pole singularities (spec.md §3's "elevation
// in [0, 90] ∪ [270, 360)"), named ELEVATION_NORTH_POLE/SOUTH_POLE in
// original_source/include/ServiceModules/HRTFDefinitions.hpp.
const (
	northPoleElevation = 90.0
	southPoleElevation = 270.0
)

// epsilonSewing is the near-pole tolerance of spec.md §4.3's "near-pole
// special case", EPSILON_SEWING in the original source.
const epsilonSewing = 0.5

// gapThresholdFactor, multiplied by the resampling step, is the maximum
// elevation gap (degrees) between a pole and the nearest measured ring
// before the spherical-cap-fill step densifies between them (spec.md §4.3
// step 3). The original source leaves this threshold open (spec.md §9);
// this implementation fixes it at twice the resampling step, so whenever
// cap fill runs the densify loop has at least one intermediate ring to
// interpolate.
const gapThresholdFactor = 2.0

// HRIR is an unpartitioned head-related impulse response pair: two
// equal-length real sequences and their integer-sample ITD delays,
// spec.md §3 "HRIR record".
type HRIR struct {
	Left, Right           []float64
	LeftDelay, RightDelay uint64
}

// HRIRPartitioned is an HRIR split into K fixed-length sub-filters,
// each FFT'd into packed-complex form, spec.md §3 "HRIR-partitioned
// record".
type HRIRPartitioned struct {
	LeftPartitions, RightPartitions [][]float64
	LeftDelay, RightDelay           uint64
}

// Barycentric holds the three triangle weights of spec.md's barycentric
// interpolation, summing to 1 when the query point lies inside the
// triangle.
type Barycentric struct {
	Alpha, Beta, Gamma float64
}

// gridKey is the quantised (integer-degree) orientation used as a map key,
// per spec.md §3 "Hash/equality use the pair of integer-degree keys after
// quantisation."
type gridKey struct {
	az, el int
}

func quantize(o geom.Orientation) gridKey {
	return gridKey{az: int(geom.NormalizeAzimuthDegrees(o.Azimuth) + 0.5), el: int(geom.NormalizeElevationDegrees(o.Elevation) + 0.5)}
}

// wrapAzDiff returns a-b wrapped to [-180, 180), the convention spec.md
// §4.3 uses ("front/back by azimuth difference wrapped to [-180, 180)").
func wrapAzDiff(a, b float64) float64 {
	d := a - b
	for d >= 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}
