package hrtf

import (
	"math"

	"github.com/grupodiana/brt/geom"
)

// onlineInterpolate is spec.md §4.3's per-block online interpolator: find
// the four regular-grid points bracketing (az, el), pick the triangle
// (of the two halves of that quadrilateral) containing the query using the
// quadrilateral midpoint as a discriminator, then barycentric-mix the
// three partitioned IRs — grounded on
// original_source/include/ServiceModules/OnlineInterpolation.hpp's
// CMidPointOnlineInterpolator::find_4Nearest_Points /
// CalculateTF_BarycentricInterpolation.
func (s *Service) onlineInterpolate(target geom.Orientation) (HRIRPartitioned, bool) {
	step := s.resamplingStep
	azLow := math.Floor(target.Azimuth/step) * step
	azHigh := azLow + step
	elLow := math.Floor(target.Elevation/step) * step
	elHigh := elLow + step

	corners := [4]geom.Orientation{
		{Azimuth: azLow, Elevation: elLow},
		{Azimuth: azHigh, Elevation: elLow},
		{Azimuth: azLow, Elevation: elHigh},
		{Azimuth: azHigh, Elevation: elHigh},
	}

	points := make([]HRIRPartitioned, 4)
	anyFound := false
	for i, c := range corners {
		p, ok := s.lookupPartitioned(quantize(c))
		if !ok {
			continue
		}
		points[i] = p
		anyFound = true
	}
	if !anyFound {
		return HRIRPartitioned{}, false
	}

	// Midpoint of the quadrilateral discriminates which diagonal the query
	// point falls on, selecting one of the two candidate triangles.
	midAz := (azLow + azHigh) / 2
	midEl := (elLow + elHigh) / 2
	onUpperTriangle := wrapAzDiff(target.Azimuth, midAz) >= 0 == (target.Elevation >= midEl)

	var a, b, c geom.Orientation
	if onUpperTriangle {
		a, b, c = corners[0], corners[1], corners[3]
	} else {
		a, b, c = corners[0], corners[2], corners[3]
	}

	w, ok := barycentric(target, a, b, c)
	if !ok {
		return nearestCorner(corners, points), true
	}
	if !w.isConvex() {
		// Check_Triangles_Left equivalent: try the other half.
		if onUpperTriangle {
			a, b, c = corners[0], corners[2], corners[3]
		} else {
			a, b, c = corners[0], corners[1], corners[3]
		}
		w, ok = barycentric(target, a, b, c)
		if !ok || !w.isConvex() {
			return nearestCorner(corners, points), true
		}
	}

	pa, _ := s.lookupPartitioned(quantize(a))
	pb, _ := s.lookupPartitioned(quantize(b))
	pc, _ := s.lookupPartitioned(quantize(c))
	return mixPartitioned(w, pa, pb, pc), true
}

func nearestCorner(corners [4]geom.Orientation, points []HRIRPartitioned) HRIRPartitioned {
	var best int
	var bestDist = math.Inf(1)
	for i := range corners {
		if len(points[i].LeftPartitions) == 0 {
			continue
		}
		d := geom.GreatCircleDistanceDegrees(corners[0], corners[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return points[best]
}
