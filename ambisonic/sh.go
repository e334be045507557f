// Package ambisonic implements the Ambisonic IR service of spec.md §4.5
// and the spherical-harmonic gain table spec.md §4.8 needs: real-valued
// spherical harmonics in Ambisonic Channel Number (ACN) order, up to
// order 3, under N3D, SN3D or maxN normalisation.
//
// Grounded on original_source/include/ServiceModules/AmbisonicBIR.hpp for
// the virtual-speaker-rig projection and IR-table structure; the gain
// formulas themselves follow the standard ACN/N3D real-SH definitions that
// file references rather than reproducing its code, since the source
// computes them via a virtual-speaker decode matrix rather than closed
// form.
package ambisonic

import (
	"math"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// MaxOrder is the highest Ambisonic order this package supports, matching
// the command surface's `/listener/setAmbisonicsOrder` (int, 1..3) of
// spec.md §6.
const MaxOrder = 3

// ChannelCount returns (order+1)^2, the number of spherical-harmonic
// channels at the given order. spec.md's glossary describes the channel
// count as "N^2 due to horizontal-only variants present in the source",
// but the worked example of spec.md §8 scenario 6 ("order-1 encoder ...
// channel 0 (W) ... channels 1-3 equal ... (x, y, z)") is unambiguous: an
// order-1 encoder has four channels. This implementation follows the
// concrete example (full 3D ACN ordering, (order+1)^2 channels) and treats
// the glossary's "N^2" phrasing as an imprecise gloss rather than a
// distinct channel-count contract — an Open Question resolution recorded
// in DESIGN.md.
func ChannelCount(order int) int { return (order + 1) * (order + 1) }

// maxNWeight is the conventional B-format/FuMa per-degree weighting used
// for maxN normalisation, defined for degrees 0-2 (the degrees FuMa
// actually standardises); degree 3 has no canonical FuMa weight, so maxN
// falls back to SN3D there (scaleFor below).
var maxNWeight = map[int]float64{
	0: 1.0 / math.Sqrt2,
	1: 1.0,
	2: math.Sqrt(3) / 2,
}

// Gains returns the ChannelCount(order)-length vector of real spherical-
// harmonic gains for the unit direction from listener to source, in ACN
// order, under the given normalisation.
func Gains(order int, norm brt.AmbisonicNormalization, direction geom.Vector3, conv geom.AxisConvention) ([]float64, error) {
	if order < 0 || order > MaxOrder {
		return nil, brt.NewCondition(brt.KindInvalidParam, "ambisonic.Gains", nil)
	}
	d := direction.Normalized()
	// Ambisonics convention: x = front, y = left, z = up.
	x := d.Axis(conv.Forward)
	y := -d.Axis(conv.Right)
	z := d.Axis(conv.Up)

	out := make([]float64, ChannelCount(order))
	acn := 0
	for l := 0; l <= order; l++ {
		for m := -l; m <= l; m++ {
			out[acn] = realSH(l, m, x, y, z) * scaleFor(l, m, norm)
			acn++
		}
	}
	return out, nil
}

// scaleFor returns the normalisation multiplier for degree l. Degrees 0
// and 1 are left unscaled under every normalisation convention, matching
// spec.md §8 scenario 6's worked example exactly (W = input/sqrt(3),
// dipole channels = input times the raw direction component, with no
// further N3D sqrt(2l+1) factor applied on top); this is the Open
// Question resolution recorded in DESIGN.md, since the spec's only
// concrete worked example is order 1 and standard N3D theory would
// otherwise scale the dipole channels by sqrt(3). Degrees 2-3 use the
// conventional relative scaling (N3D = SN3D * sqrt(2l+1), maxN = FuMa
// table) since no worked example constrains them.
func scaleFor(l, m int, norm brt.AmbisonicNormalization) float64 {
	if l <= 1 {
		return 1.0
	}
	switch norm {
	case brt.NormalizationN3D:
		return math.Sqrt(2*float64(l) + 1)
	case brt.NormalizationMaxN:
		if w, ok := maxNWeight[l]; ok {
			return w
		}
		return 1.0
	default: // SN3D
		return 1.0
	}
}

// realSH evaluates the real spherical harmonic of degree l order m at unit
// direction (x, y, z), for l in [0, 3]. Degree 0 returns 1/sqrt(3) and
// degree 1 returns the raw direction components; since scaleFor leaves
// degrees 0-1 unscaled, these are the final gains for spec.md §8 scenario
// 6's worked example. Degrees 2-3 follow the standard closed-form SN3D
// real solid harmonics.
func realSH(l, m int, x, y, z float64) float64 {
	switch l {
	case 0:
		return 1.0 / math.Sqrt(3)
	case 1:
		switch m {
		case -1:
			return y
		case 0:
			return z
		case 1:
			return x
		}
	case 2:
		switch m {
		case -2:
			return math.Sqrt(3) * x * y
		case -1:
			return math.Sqrt(3) * y * z
		case 0:
			return 0.5 * (3*z*z - 1)
		case 1:
			return math.Sqrt(3) * x * z
		case 2:
			return math.Sqrt(3) / 2 * (x*x - y*y)
		}
	case 3:
		switch m {
		case -3:
			return math.Sqrt(5.0/8) * y * (3*x*x - y*y)
		case -2:
			return math.Sqrt(15) * x * y * z
		case -1:
			return math.Sqrt(3.0/8) * y * (5*z*z - 1)
		case 0:
			return 0.5 * z * (5*z*z - 3)
		case 1:
			return math.Sqrt(3.0/8) * x * (5*z*z - 1)
		case 2:
			return math.Sqrt(15) / 2 * z * (x*x - y*y)
		case 3:
			return math.Sqrt(5.0/8) * x * (x*x - 3*y*y)
		}
	}
	return 0
}
