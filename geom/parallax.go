package geom

import "math"

// SphereProjection finds where the ray from a local observer point (such
// as one ear, expressed as an offset from the head centre) through the
// source lies on the sphere of the given radius centred at the head, and
// returns that intersection as a head-centre-relative vector.
//
// This is the "parallax correction" spec.md §4.6 describes: an off-centre
// receiver's direction to a near source differs from the head-centre
// direction, so HRTF lookups use the projected direction instead of the
// raw ear-to-source vector. Grounded on
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp's
// GetSphereProjectionPosition (quadratic-root construction). Returns the
// unprojected vectorToSource, unchanged, when vectorToSource is the zero
// vector or the ray does not meet the sphere (negative discriminant). An
// observer at the head centre is projected like any other.
func SphereProjection(conv AxisConvention, vectorToSource, localObserverOffset Vector3, sphereRadius float64) Vector3 {
	rightAxis := vectorToSource.Axis(conv.Right)
	forwardAxis := vectorToSource.Axis(conv.Forward)
	upAxis := vectorToSource.Axis(conv.Up)

	observerRight := localObserverOffset.Axis(conv.Right)

	a := forwardAxis*forwardAxis + rightAxis*rightAxis + upAxis*upAxis
	if a == 0 {
		return vectorToSource
	}
	b := 2 * observerRight * rightAxis
	c := observerRight*observerRight - sphereRadius*sphereRadius
	disc := b*b - 4*a*c
	if disc < 0 {
		return vectorToSource
	}
	lambda := (-b + math.Sqrt(disc)) / (2 * a)

	var projected Vector3
	projected = projected.SetAxis(conv.Forward, lambda*forwardAxis)
	projected = projected.SetAxis(conv.Right, observerRight+lambda*rightAxis)
	projected = projected.SetAxis(conv.Up, lambda*upAxis)
	return projected
}
