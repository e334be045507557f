package processor

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/geom"
)

// AmbisonicEncoderProcessor is spec.md §4.8's per-source per-block
// bilateral spherical-harmonic encoder: the mono input scaled by the
// real-SH gain for each ear's parallax-corrected direction, producing
// 2*(order+1)^2 mono streams. Sharing earDirections with
// HRTFConvolverProcessor keeps the two processors' notion of "where the
// source is, per ear" identical, per
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp's
// CalculateSourceCoordinates being the only direction derivation in the
// original the distilled spec's two processors both depend on.
type AmbisonicEncoderProcessor struct {
	convention                      geom.AxisConvention
	headRadius, measurementDistance float64
	order                           int
	normalization                   brt.AmbisonicNormalization
	flags                           brt.FeatureFlags

	lastLeftAz, lastRightAz float64
}

// NewAmbisonicEncoderProcessor builds an encoder for one source/listener
// pair at the given Ambisonic order and normalisation.
func NewAmbisonicEncoderProcessor(convention geom.AxisConvention, order int, normalization brt.AmbisonicNormalization, headRadius, measurementDistanceM float64) *AmbisonicEncoderProcessor {
	return &AmbisonicEncoderProcessor{
		convention:          convention,
		headRadius:          headRadius,
		measurementDistance: measurementDistanceM,
		order:               order,
		normalization:       normalization,
		flags:               brt.DefaultFeatureFlags(),
	}
}

// SetFeatureFlags replaces the processor's feature flags.
func (p *AmbisonicEncoderProcessor) SetFeatureFlags(f brt.FeatureFlags) { p.flags = f }

// Reset clears the smoothed per-ear azimuth history, the only persistent
// state this processor carries across blocks.
func (p *AmbisonicEncoderProcessor) Reset() {
	p.lastLeftAz, p.lastRightAz = 0, 0
}

// Process encodes input into left/right buses, each (order+1)^2 mono
// streams indexed by ACN channel. If spatialization is off each bus holds
// a single stream, channel 0 (omnidirectional), so a downstream bus sum
// adds nothing to the higher channels and is unaffected by direction.
func (p *AmbisonicEncoderProcessor) Process(input []float64, sourceTransform, listenerTransform geom.Transform) (left, right [][]float64, err error) {
	if !p.flags.Spatialization {
		return ambisonic.EncodeBilateral(0, p.normalization, p.convention, input, geom.Vector3{X: 1}, geom.Vector3{X: 1})
	}

	leftDir, rightDir, err := earDirections(p.convention, sourceTransform, listenerTransform, p.headRadius, p.measurementDistance, p.flags.Parallax, &p.lastLeftAz, &p.lastRightAz)
	if err != nil {
		return nil, nil, err
	}
	return ambisonic.EncodeBilateral(p.order, p.normalization, p.convention, input, leftDir, rightDir)
}
