// Package processor implements the per-source, per-block rendering stages
// of spec.md §4.6-4.9: the HRTF convolver, the near-field compensation
// cascade, the bilateral Ambisonic encoder and the per-ear Ambisonic
// convolver. These are the processors a listener model wires one instance
// of per connected source (spec.md §4.11).
package processor

import (
	"math"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// minGain is the tiny post-processing floor every HRTF-convolved or
// near-field-filtered block is clamped against, carried from the
// original's per-processor denormal guard (SPEC_FULL.md's supplemented
// feature list) rather than present in spec.md's prose.
const minGain = 1e-9

// poleEpsilon is how close an elevation has to be to 90 or 270 degrees to
// count as the pole singularity spec.md §4.6 calls out ("At the pole
// singularities azimuth is held at its previous value").
const poleEpsilon = 1e-4

// coincidenceEpsilon is the distance below which source and receiver are
// treated as coincident, surfaced as brt.KindDivByZero per the documented
// convention in geom.Vector3.Normalized.
const coincidenceEpsilon = 1e-6

func isPoleSingularity(elevationDeg float64) bool {
	return math.Abs(elevationDeg-90) < poleEpsilon || math.Abs(elevationDeg-270) < poleEpsilon
}

// holdAzimuthAtPole returns v unchanged and records its azimuth into
// *lastAz, unless v sits at an elevation pole singularity, in which case
// it returns v rewritten to carry *lastAz's azimuth instead of its own
// (which is undefined at the pole).
func holdAzimuthAtPole(conv geom.AxisConvention, v geom.Vector3, lastAz *float64) geom.Vector3 {
	el := v.ElevationDegrees(conv)
	if isPoleSingularity(el) {
		return geom.FromSpherical(conv, v.Distance(), *lastAz, el)
	}
	*lastAz = v.AzimuthDegrees(conv)
	return v
}

// centerDirection is the head-centre source direction spec.md §4.6 uses
// for ITD delay and angular wraparound: no parallax projection, since the
// original's CalculateSourceCoordinates only projects the per-ear vectors.
func centerDirection(conv geom.AxisConvention, sourceTransform, listenerTransform geom.Transform, lastAz *float64) (geom.Vector3, error) {
	vector := listenerTransform.RelativeDirectionTo(sourceTransform)
	if vector.Distance() <= coincidenceEpsilon {
		return geom.Zero, brt.NewCondition(brt.KindDivByZero, "processor.centerDirection", nil)
	}
	return holdAzimuthAtPole(conv, vector, lastAz), nil
}

// earDirections computes the left-ear and right-ear source directions
// (head-local frame, optionally projected onto the HRTF measurement
// sphere) per spec.md §4.6 step 2, grounded on
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp's
// CalculateSourceCoordinates/GetSphereProjectionPosition. lastLeftAz and
// lastRightAz persist the previous azimuth across calls for the
// pole-singularity hold.
func earDirections(conv geom.AxisConvention, sourceTransform, listenerTransform geom.Transform, headRadius, measurementDistance float64, parallax bool, lastLeftAz, lastRightAz *float64) (left, right geom.Vector3, err error) {
	leftLocal := geom.Vector3{}.SetAxis(conv.Right, -headRadius)
	rightLocal := geom.Vector3{}.SetAxis(conv.Right, headRadius)

	leftEarWorld := listenerTransform.LocalToWorld(leftLocal)
	rightEarWorld := listenerTransform.LocalToWorld(rightLocal)

	invOrientation := listenerTransform.Orientation.Conjugate().Normalized()

	leftVector := invOrientation.Rotate(sourceTransform.Position.Sub(leftEarWorld))
	rightVector := invOrientation.Rotate(sourceTransform.Position.Sub(rightEarWorld))

	if leftVector.Distance() <= coincidenceEpsilon || rightVector.Distance() <= coincidenceEpsilon {
		return geom.Zero, geom.Zero, brt.NewCondition(brt.KindDivByZero, "processor.earDirections", nil)
	}

	if parallax {
		leftVector = geom.SphereProjection(conv, leftVector, leftLocal, measurementDistance)
		rightVector = geom.SphereProjection(conv, rightVector, rightLocal, measurementDistance)
	}

	left = holdAzimuthAtPole(conv, leftVector, lastLeftAz)
	right = holdAzimuthAtPole(conv, rightVector, lastRightAz)
	return left, right, nil
}

// flushDenormals zeroes any sample whose magnitude is below minGain, in
// place.
func flushDenormals(buf []float64) {
	for i, v := range buf {
		if v > -minGain && v < minGain {
			buf[i] = 0
		}
	}
}
