package processor

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/upc"
	"github.com/grupodiana/brt/waveguide"
)

// HRTFConvolverProcessor is spec.md §4.6's per-source per-block stage:
// three directional queries (central, left-ear, right-ear), two UPCs
// against the freshly fetched partitioned HRIRs, and a fractional per-ear
// delay crossfade.
//
// Grounded on
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp
// (CHRTFConvolverProcessor::Process/CalculateSourceCoordinates/
// ProcessAddDelay_ExpansionMethod).
type HRTFConvolverProcessor struct {
	params brt.GlobalParameters
	flags  brt.FeatureFlags

	headRadius          float64
	measurementDistance float64

	leftUPC, rightUPC           *upc.Convolver
	partitionLen, numSubfilters int

	leftDelayBuf, rightDelayBuf []float64

	lastLeftAz, lastRightAz, lastCenterAz float64

	propagation *waveguide.Waveguide
}

// NewHRTFConvolverProcessor builds a processor for one source/listener
// pair, with every feature flag on by default.
func NewHRTFConvolverProcessor(params brt.GlobalParameters, headRadius, measurementDistanceM float64) *HRTFConvolverProcessor {
	return &HRTFConvolverProcessor{
		params:              params,
		flags:               brt.DefaultFeatureFlags(),
		headRadius:          headRadius,
		measurementDistance: measurementDistanceM,
	}
}

// SetFeatureFlags replaces the processor's feature flags, consulted once
// per block per spec.md §3.
func (p *HRTFConvolverProcessor) SetFeatureFlags(f brt.FeatureFlags) { p.flags = f }

// EnablePropagationDelay attaches a waveguide (spec.md §4.5) ahead of the
// HRTF stage so sources Doppler smoothly under motion instead of the
// convolver alone reacting to position changes with a click.
func (p *HRTFConvolverProcessor) EnablePropagationDelay(soundSpeedMPS float64) {
	p.propagation = waveguide.New(p.params.SampleRate, p.params.BlockSize, soundSpeedMPS)
	p.propagation.Enable()
}

// Reset clears every internal ring buffer, per spec.md §3's "all their
// internal ring buffers are cleared on HRTF replacement or explicit
// reset."
func (p *HRTFConvolverProcessor) Reset() {
	p.leftUPC, p.rightUPC = nil, nil
	p.partitionLen, p.numSubfilters = 0, 0
	p.leftDelayBuf, p.rightDelayBuf = nil, nil
	p.lastLeftAz, p.lastRightAz, p.lastCenterAz = 0, 0, 0
	if p.propagation != nil {
		p.propagation.Reset()
	}
}

// Process renders one block. On a validation failure the returned buffers
// are zero-filled, per spec.md §4.6 step 1.
func (p *HRTFConvolverProcessor) Process(input []float64, sourceTransform, listenerTransform geom.Transform, hrtfService *hrtf.Service) (left, right []float64, err error) {
	zero := func() ([]float64, []float64) { return make([]float64, p.params.BlockSize), make([]float64, p.params.BlockSize) }

	if len(input) != p.params.BlockSize {
		l, r := zero()
		return l, r, brt.NewCondition(brt.KindBadSize, "processor.HRTFConvolverProcessor.Process", nil)
	}
	if hrtfService == nil {
		l, r := zero()
		return l, r, brt.NewCondition(brt.KindNotSet, "processor.HRTFConvolverProcessor.Process", nil)
	}

	if !p.flags.Spatialization {
		l := make([]float64, len(input))
		r := make([]float64, len(input))
		copy(l, input)
		copy(r, input)
		return l, r, nil
	}

	conv := p.params.Convention

	workInput := input
	effectiveSource := sourceTransform
	if p.propagation != nil {
		if err := p.propagation.PushBack(input, sourceTransform.Position, listenerTransform.Position); err != nil {
			l, r := zero()
			return l, r, err
		}
		out, pos, err := p.propagation.PopFront(listenerTransform.Position)
		if err != nil {
			l, r := zero()
			return l, r, err
		}
		workInput = out
		effectiveSource.Position = pos
	}

	leftDir, rightDir, err := earDirections(conv, effectiveSource, listenerTransform, p.headRadius, p.measurementDistance, p.flags.Parallax, &p.lastLeftAz, &p.lastRightAz)
	if err != nil {
		l, r := zero()
		return l, r, err
	}
	centerDir, err := centerDirection(conv, effectiveSource, listenerTransform, &p.lastCenterAz)
	if err != nil {
		l, r := zero()
		return l, r, err
	}

	leftAz, leftEl := leftDir.AzimuthDegrees(conv), leftDir.ElevationDegrees(conv)
	rightAz, rightEl := rightDir.AzimuthDegrees(conv), rightDir.ElevationDegrees(conv)
	centerAz, centerEl := centerDir.AzimuthDegrees(conv), centerDir.ElevationDegrees(conv)

	lookup := hrtfService.InterpolatePartitioned
	if !p.flags.Interpolation {
		lookup = hrtfService.NearestNeighbor
	}

	leftP, err := lookup(leftAz, leftEl)
	if err != nil {
		l, r := zero()
		return l, r, err
	}
	rightP, err := lookup(rightAz, rightEl)
	if err != nil {
		l, r := zero()
		return l, r, err
	}
	centerP, err := lookup(centerAz, centerEl)
	if err != nil {
		l, r := zero()
		return l, r, err
	}

	leftIR, rightIR := leftP.LeftPartitions, rightP.RightPartitions
	leftDelay, rightDelay := centerP.LeftDelay, centerP.RightDelay
	if !p.flags.ITD {
		leftDelay, rightDelay = 0, 0
	}

	if err := p.ensureUPCs(leftIR, rightIR); err != nil {
		l, r := zero()
		return l, r, err
	}

	if err := p.leftUPC.SetIR(leftIR); err != nil {
		l, r := zero()
		return l, r, err
	}
	if err := p.rightUPC.SetIR(rightIR); err != nil {
		l, r := zero()
		return l, r, err
	}

	leftConv, err := p.leftUPC.Process(workInput)
	if err != nil {
		l, r := zero()
		return l, r, err
	}
	rightConv, err := p.rightUPC.Process(workInput)
	if err != nil {
		l, r := zero()
		return l, r, err
	}

	left = applyFractionalDelay(&p.leftDelayBuf, leftConv, leftDelay)
	right = applyFractionalDelay(&p.rightDelayBuf, rightConv, rightDelay)
	flushDenormals(left)
	flushDenormals(right)
	return left, right, nil
}

func (p *HRTFConvolverProcessor) ensureUPCs(leftIR, rightIR [][]float64) error {
	k := len(leftIR)
	if k == 0 || k != len(rightIR) {
		return brt.NewCondition(brt.KindBadSize, "processor.HRTFConvolverProcessor.ensureUPCs", nil)
	}
	l := len(leftIR[0]) / 4
	if p.leftUPC != nil && p.partitionLen == l && p.numSubfilters == k {
		return nil
	}
	p.leftUPC = &upc.Convolver{}
	p.rightUPC = &upc.Convolver{}
	if err := p.leftUPC.Setup(p.params.BlockSize, l, k, true); err != nil {
		return err
	}
	if err := p.rightUPC.Setup(p.params.BlockSize, l, k, true); err != nil {
		return err
	}
	p.partitionLen, p.numSubfilters = l, k
	p.leftDelayBuf, p.rightDelayBuf = nil, nil
	return nil
}

// applyFractionalDelay crossfades input against the trailing samples held
// from the previous block under the new delay, compressing or expanding
// the gap via linear interpolation, per spec.md §4.6 step 5. Grounded on
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp's
// ProcessAddDelay_ExpansionMethod.
func applyFractionalDelay(delayBuffer *[]float64, input []float64, newDelay uint64) []float64 {
	output := make([]float64, len(input))
	oldLen := len(*delayBuffer)
	newDelayInt := int(newDelay)
	copy(output, *delayBuffer)

	if newDelayInt == oldLen {
		j := 0
		for i := oldLen; i < len(input); i++ {
			output[i] = input[j]
			j++
		}
		newBuf := make([]float64, 0, newDelayInt)
		for ; j < len(input); j++ {
			newBuf = append(newBuf, input[j])
		}
		for len(newBuf) < newDelayInt {
			newBuf = append(newBuf, input[len(input)-1])
		}
		*delayBuffer = newBuf
		return output
	}

	numerator := float64(len(input) - 1)
	denominator := float64(len(input) - 1 + newDelayInt - oldLen)
	var compressionFactor float64
	if denominator != 0 {
		compressionFactor = numerator / denominator
	}

	forLoopEnd := len(input)
	if newDelayInt == 0 {
		forLoopEnd = len(input) - 1
	}

	position := 0.0
	sampleAt := func(pos float64) float64 {
		j := int(pos)
		if j < 0 {
			j = 0
		}
		if j >= len(input)-1 {
			return input[len(input)-1]
		}
		rest := pos - float64(j)
		return input[j]*(1-rest) + input[j+1]*rest
	}

	for i := oldLen; i < forLoopEnd; i++ {
		output[i] = sampleAt(position)
		position += compressionFactor
	}

	if newDelayInt == 0 {
		output[len(input)-1] = input[len(input)-1]
		*delayBuffer = nil
		return output
	}

	temp := make([]float64, 0, newDelayInt)
	for i := 0; i < newDelayInt-1; i++ {
		temp = append(temp, sampleAt(position))
		position += compressionFactor
	}
	temp = append(temp, input[len(input)-1])
	*delayBuffer = temp
	return output
}
