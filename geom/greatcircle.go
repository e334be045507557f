package geom

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Orientation is an (azimuth, elevation) pair in degrees, the HRTF table
// key of spec.md §3.
type Orientation struct {
	Azimuth, Elevation float64
}

// toLatLng maps our (azimuth, elevation) convention onto s2's (lat, lng) so
// golang/geo's spherical distance machinery can be reused: elevation plays
// the role of latitude (already in [-90, 90] once re-centered from our
// [0,90] U [270,360) wraparound) and azimuth plays the role of longitude.
func (o Orientation) toLatLng() s2.LatLng {
	lat := o.Elevation
	if lat > 180 {
		lat -= 360 // fold [270, 360) down to [-90, 0)
	}
	return s2.LatLngFromDegrees(lat, o.Azimuth)
}

// GreatCircleDistanceDegrees returns the Haversine (great-circle) angular
// distance in degrees between two table orientations, used by the HRTF
// offline interpolator to rank measured directions by proximity to a query
// (spec.md §4.3 "distance-based offline interpolator").
func GreatCircleDistanceDegrees(a, b Orientation) float64 {
	angle := a.toLatLng().Distance(b.toLatLng())
	return float64(angle / s1.Degree)
}
