package hrtf

import (
	"sort"

	"github.com/grupodiana/brt/geom"
)

type ringEntry struct {
	key gridKey
	hr  HRIR
}

func (g gridKey) orientation() geom.Orientation {
	return geom.Orientation{Azimuth: float64(g.az), Elevation: float64(g.el)}
}

// distanceInterpolate is spec.md §4.3's distance-based offline
// interpolator: sort every table entry by great-circle (Haversine)
// distance to target, then walk consecutive nearest-neighbour triples
// until one produces all-non-negative barycentric coordinates.
//
// The source leaves open whether a triangle-not-found query falls back to
// the nearest point or to a zero HRIR (spec.md §9 Open Questions); this
// implementation resolves it as "nearest point", so cap-fill and pole
// synthesis never introduce silent zero-filled directions.
func distanceInterpolate(target geom.Orientation, table map[gridKey]HRIR) (HRIR, bool) {
	entries := sortedByDistance(target, table)
	if len(entries) == 0 {
		return HRIR{}, false
	}
	if len(entries) == 1 {
		return entries[0].hr, true
	}
	if len(entries) == 2 {
		return entries[0].hr, true
	}

	for i := 0; i+2 < len(entries); i++ {
		a, b, c := entries[i], entries[i+1], entries[i+2]
		w, ok := barycentric(target, a.key.orientation(), b.key.orientation(), c.key.orientation())
		if ok && w.isConvex() {
			return mixHRIR(w, a.hr, b.hr, c.hr), true
		}
	}
	return entries[0].hr, true
}

func sortedByDistance(target geom.Orientation, table map[gridKey]HRIR) []ringEntry {
	entries := make([]ringEntry, 0, len(table))
	for k, v := range table {
		entries = append(entries, ringEntry{key: k, hr: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		di := geom.GreatCircleDistanceDegrees(target, entries[i].key.orientation())
		dj := geom.GreatCircleDistanceDegrees(target, entries[j].key.orientation())
		return di < dj
	})
	return entries
}

// quadrantInterpolate is spec.md §4.3's quadrant-based offline
// interpolator: split the table into four quadrants relative to target
// (front/back by wrapped azimuth difference, ceiling/floor by elevation),
// take the nearest point in each quadrant, then triangulate the resulting
// quadrilateral by the diagonal containing the target.
func quadrantInterpolate(target geom.Orientation, table map[gridKey]HRIR) (HRIR, bool) {
	var quadrants [4]*ringEntry
	var quadrantDist [4]float64
	for i := range quadrantDist {
		quadrantDist[i] = -1
	}
	for k, v := range table {
		o := k.orientation()
		azDiff := wrapAzDiff(o.Azimuth, target.Azimuth)
		elDiff := o.Elevation - target.Elevation
		q := quadrantIndex(azDiff, elDiff)
		d := geom.GreatCircleDistanceDegrees(target, o)
		if quadrants[q] == nil || d < quadrantDist[q] {
			e := ringEntry{key: k, hr: v}
			quadrants[q] = &e
			quadrantDist[q] = d
		}
	}

	var present []ringEntry
	for _, q := range quadrants {
		if q != nil {
			present = append(present, *q)
		}
	}
	if len(present) == 0 {
		return HRIR{}, false
	}
	if len(present) < 3 {
		return present[0].hr, true
	}

	// Try every triangle among the (up to four) quadrant representatives;
	// the original's "Check_Triangles_Left" equivalent — pick whichever
	// triangle actually contains the target.
	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			for k := j + 1; k < len(present); k++ {
				a, b, c := present[i], present[j], present[k]
				w, ok := barycentric(target, a.key.orientation(), b.key.orientation(), c.key.orientation())
				if ok && w.isConvex() {
					return mixHRIR(w, a.hr, b.hr, c.hr), true
				}
			}
		}
	}
	return present[0].hr, true
}

func quadrantIndex(azDiff, elDiff float64) int {
	switch {
	case azDiff >= 0 && elDiff >= 0:
		return 0
	case azDiff >= 0 && elDiff < 0:
		return 1
	case azDiff < 0 && elDiff >= 0:
		return 2
	default:
		return 3
	}
}
