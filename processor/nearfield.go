package processor

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/sos"
)

// NearFieldProcessor is spec.md §4.7's per-source per-block near-field
// compensation stage: a 2-biquad cascade per ear, queried fresh from the
// SOS service every block at (ear, distance, interaural azimuth) and run
// on the already HRTF-convolved stereo pair.
//
// The original's dedicated near-field processor header was not captured
// into original_source/ (only HRTFConvolverProcessor.hpp was retrieved),
// so the cascade-apply loop is grounded instead on
// original_source/include/Common/Wall.hpp's IIRFilter application, reused
// here against a stereo pair instead of a single reverb signal.
type NearFieldProcessor struct {
	enabled     bool
	left, right *sos.Filter
}

// NewNearFieldProcessor builds an enabled, zero-state near-field
// processor.
func NewNearFieldProcessor() *NearFieldProcessor {
	return &NearFieldProcessor{enabled: true, left: sos.NewFilter(nil), right: sos.NewFilter(nil)}
}

// SetEnabled toggles the stage, per spec.md §4.6's "near-field" feature
// flag gating whether this stage runs at all.
func (p *NearFieldProcessor) SetEnabled(enabled bool) { p.enabled = enabled }

// ResetProcessBuffers clears the cascades' running state without
// discarding their coefficients, spec.md §4.7's "No state reset between
// blocks other than explicit ResetProcessBuffers".
func (p *NearFieldProcessor) ResetProcessBuffers() {
	p.left.Reset()
	p.right.Reset()
}

// Process runs the SOS cascade at (distanceM, interauralAzimuthDeg) on
// left/right. When disabled or service is nil, the input passes through
// unchanged.
func (p *NearFieldProcessor) Process(left, right []float64, distanceM, interauralAzimuthDeg float64, service *sos.Service) ([]float64, []float64, error) {
	outLeft := make([]float64, len(left))
	outRight := make([]float64, len(right))
	copy(outLeft, left)
	copy(outRight, right)

	if !p.enabled || service == nil {
		return outLeft, outRight, nil
	}

	leftCascade, err := service.Lookup(brt.EarLeft, distanceM, interauralAzimuthDeg)
	if err != nil {
		return outLeft, outRight, err
	}
	rightCascade, err := service.Lookup(brt.EarRight, distanceM, interauralAzimuthDeg)
	if err != nil {
		return outLeft, outRight, err
	}

	p.left.SetCascade(leftCascade)
	p.right.SetCascade(rightCascade)
	p.left.ProcessBlock(outLeft, outLeft)
	p.right.ProcessBlock(outRight, outRight)
	flushDenormals(outLeft)
	flushDenormals(outRight)
	return outLeft, outRight, nil
}
