package ambisonic

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// EncodeBilateral is spec.md §4.8's bilateral Ambisonic encoder: given a
// mono input block and the (already parallax-corrected, per-ear) source
// directions, scale the block by the spherical-harmonic gain for each
// channel and ear, producing 2*N^2 parallel mono streams. It is stateless
// beyond the per-call input block, per spec.md §4.8 ("Itself stateless
// except for per-block input-block caching").
func EncodeBilateral(order int, norm brt.AmbisonicNormalization, conv geom.AxisConvention, input []float64, leftEarDirection, rightEarDirection geom.Vector3) (left, right [][]float64, err error) {
	leftGains, err := Gains(order, norm, leftEarDirection, conv)
	if err != nil {
		return nil, nil, err
	}
	rightGains, err := Gains(order, norm, rightEarDirection, conv)
	if err != nil {
		return nil, nil, err
	}

	left = make([][]float64, len(leftGains))
	right = make([][]float64, len(rightGains))
	for c, g := range leftGains {
		left[c] = scaleBlock(input, g)
	}
	for c, g := range rightGains {
		right[c] = scaleBlock(input, g)
	}
	return left, right, nil
}

func scaleBlock(input []float64, gain float64) []float64 {
	out := make([]float64, len(input))
	for i, v := range input {
		out[i] = v * gain
	}
	return out
}
