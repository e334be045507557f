package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAzimuthElevationRoundTrip(t *testing.T) {
	conv := DefaultConvention
	cases := []struct{ az, el float64 }{
		{0, 0}, {90, 0}, {180, 0}, {270, 0},
		{45, 30}, {300, 10}, {0, 89},
	}
	for _, c := range cases {
		v := FromSpherical(conv, 1.0, c.az, c.el)
		gotAz := v.AzimuthDegrees(conv)
		gotEl := v.ElevationDegrees(conv)
		require.InDelta(t, c.az, gotAz, 1e-6, "azimuth for case %+v", c)
		require.InDelta(t, c.el, gotEl, 1e-6, "elevation for case %+v", c)
	}
}

func TestElevationAtPolesIsStable(t *testing.T) {
	conv := DefaultConvention
	north := FromSpherical(conv, 1.0, 37, 90)
	require.InDelta(t, 90.0, north.ElevationDegrees(conv), 1e-9)

	south := FromSpherical(conv, 1.0, 123, 270)
	require.InDelta(t, 270.0, south.ElevationDegrees(conv), 1e-9)
}

func TestNormalizeAzimuthWraps(t *testing.T) {
	require.InDelta(t, 0.0, NormalizeAzimuthDegrees(360), 1e-9)
	require.InDelta(t, 10.0, NormalizeAzimuthDegrees(370), 1e-9)
	require.InDelta(t, 350.0, NormalizeAzimuthDegrees(-10), 1e-9)
}

func TestGreatCircleDistanceSymmetricAndZeroAtSamePoint(t *testing.T) {
	a := Orientation{Azimuth: 10, Elevation: 5}
	b := Orientation{Azimuth: 200, Elevation: -5 + 360}

	require.InDelta(t, 0.0, GreatCircleDistanceDegrees(a, a), 1e-9)
	d1 := GreatCircleDistanceDegrees(a, b)
	d2 := GreatCircleDistanceDegrees(b, a)
	require.InDelta(t, d1, d2, 1e-9)
	require.Greater(t, d1, 0.0)
}

func TestQuaternionIdentityRotationIsNoop(t *testing.T) {
	v := Vector3{1, 2, 3}
	require.Equal(t, v, Identity.Rotate(v))
}

func TestQuaternionConjugateInverts(t *testing.T) {
	q := FromAxisAngle(Vector3{0, 1, 0}, 1.234).Normalized()
	v := Vector3{1, 0, 0}
	rotated := q.Rotate(v)
	back := q.Conjugate().Rotate(rotated)
	require.InDelta(t, v.X, back.X, 1e-9)
	require.InDelta(t, v.Y, back.Y, 1e-9)
	require.InDelta(t, v.Z, back.Z, 1e-9)
}
