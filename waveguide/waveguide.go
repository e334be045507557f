// Package waveguide implements the variable-length propagation-delay line
// of spec.md §4.5: a ring of time samples tiled by source-position
// segments, resampled under source or listener motion so the output
// Dopplers smoothly instead of clicking.
//
// Grounded on original_source/include/Common/Waveguide.hpp (PushBack/
// PopFront/ProcessSourceMovement/ProcessListenerMovement), adapted from a
// boost::circular_buffer-backed ring to a plain growable/shrinkable slice
// since Go has no circular_buffer in the standard library and none of the
// example repos pull one in — the ring discipline (append at the back,
// trim from the front, keep segments tiling the buffer) is preserved.
package waveguide

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// segment records which source-position produced buffer[begin:end].
type segment struct {
	begin, end int
	position   geom.Vector3
}

// Waveguide is a single-owner propagation-delay line (spec.md §5: "single-
// owner, never shared").
type Waveguide struct {
	sampleRate int
	soundSpeed float64
	blockSize  int

	enabled bool

	buffer   []float64
	segments []segment

	mostRecent       []float64
	mostRecentSource geom.Vector3

	prevListenerPosition geom.Vector3
	prevListenerInit     bool

	lastSourcePosition geom.Vector3
	hasLastSource      bool
}

// New builds a disabled waveguide for the given sample rate, block size
// and speed of sound (metres/second).
func New(sampleRate, blockSize int, soundSpeedMPS float64) *Waveguide {
	return &Waveguide{sampleRate: sampleRate, blockSize: blockSize, soundSpeed: soundSpeedMPS}
}

// Enable turns on propagation-delay simulation.
func (w *Waveguide) Enable() { w.enabled = true }

// Disable turns off propagation-delay simulation and resets to zero length
// (spec.md §3: "Waveguides are reset to zero-length on propagation-delay
// disable").
func (w *Waveguide) Disable() {
	w.enabled = false
	w.Reset()
}

// IsEnabled reports whether propagation-delay simulation is active.
func (w *Waveguide) IsEnabled() bool { return w.enabled }

// Reset clears all ring state.
func (w *Waveguide) Reset() {
	w.buffer = nil
	w.segments = nil
	w.prevListenerInit = false
	w.hasLastSource = false
}

func (w *Waveguide) distanceInSamples(distanceM float64) int {
	if w.soundSpeed <= 0 {
		return 0
	}
	return int(distanceM/w.soundSpeed*float64(w.sampleRate) + 0.5)
}

// PushBack inserts a new input block, recording the source transform that
// produced it; see spec.md §4.5's disabled/cold/moving-source states.
func (w *Waveguide) PushBack(input []float64, sourcePosition, listenerPosition geom.Vector3) error {
	w.mostRecent = input
	w.mostRecentSource = sourcePosition
	if !w.enabled {
		return nil
	}
	if !w.prevListenerInit {
		w.prevListenerPosition = listenerPosition
		w.prevListenerInit = true
	}

	if len(w.buffer) == 0 {
		delay := w.distanceInSamples(sourcePosition.Sub(w.prevListenerPosition).Distance())
		w.buffer = make([]float64, delay+w.blockSize)
		if delay+w.blockSize > 0 {
			w.segments = append(w.segments, segment{begin: 0, end: delay + w.blockSize, position: sourcePosition})
		}
		w.appendSamples(input, sourcePosition)
		w.lastSourcePosition = sourcePosition
		w.hasLastSource = true
		return nil
	}

	currentDist := sourcePosition.Sub(w.prevListenerPosition).Distance()
	oldDist := w.lastSourcePosition.Sub(w.prevListenerPosition).Distance()
	delta := w.distanceInSamples(currentDist) - w.distanceInSamples(oldDist)

	if delta == 0 {
		w.appendSamples(input, sourcePosition)
		w.lastSourcePosition = sourcePosition
		return nil
	}

	insertSize := len(input) + delta
	if insertSize <= 0 {
		// Source approaching faster than sound: drop samples, insert none.
		trim := -insertSize
		if trim > len(w.buffer) {
			trim = len(w.buffer)
		}
		w.trimFront(trim)
		w.segments = append(w.segments, segment{begin: len(w.buffer), end: len(w.buffer), position: sourcePosition})
		w.lastSourcePosition = sourcePosition
		return nil
	}

	resampled, err := linearResample(input, insertSize)
	if err != nil {
		return brt.NewCondition(brt.KindBadAlloc, "waveguide.Waveguide.PushBack", err)
	}
	w.appendSamples(resampled, sourcePosition)
	w.lastSourcePosition = sourcePosition
	return nil
}

// PopFront returns the next output block, resampling under listener motion
// per spec.md §4.5's "enabled, listener moving" state, along with the
// source transform that was recorded at the samples being read.
func (w *Waveguide) PopFront(listenerPosition geom.Vector3) ([]float64, geom.Vector3, error) {
	if !w.enabled {
		return w.mostRecent, w.mostRecentSource, nil
	}
	if len(w.buffer) == 0 {
		return make([]float64, w.blockSize), geom.Zero, nil
	}

	frontPos := w.segments[0].position
	delta := w.distanceInSamples(frontPos.Sub(listenerPosition).Distance()) -
		w.distanceInSamples(frontPos.Sub(w.prevListenerPosition).Distance())

	extract := w.blockSize - delta
	if extract <= 0 {
		extract = 1
	}
	if extract > len(w.buffer) {
		extract = len(w.buffer)
	}

	raw := make([]float64, extract)
	copy(raw, w.buffer[:extract])
	out, err := linearResample(raw, w.blockSize)
	if err != nil {
		return nil, geom.Zero, brt.NewCondition(brt.KindBadAlloc, "waveguide.Waveguide.PopFront", err)
	}

	w.prevListenerPosition = listenerPosition
	w.trimFront(extract)
	return out, frontPos, nil
}

func (w *Waveguide) appendSamples(samples []float64, position geom.Vector3) {
	begin := len(w.buffer)
	w.buffer = append(w.buffer, samples...)
	w.segments = append(w.segments, segment{begin: begin, end: len(w.buffer), position: position})
}

func (w *Waveguide) trimFront(n int) {
	if n <= 0 {
		return
	}
	if n >= len(w.buffer) {
		w.buffer = nil
		w.segments = nil
		return
	}
	w.buffer = append([]float64(nil), w.buffer[n:]...)
	shifted := w.segments[:0]
	for _, s := range w.segments {
		s.begin -= n
		s.end -= n
		if s.end <= 0 {
			continue
		}
		if s.begin < 0 {
			s.begin = 0
		}
		shifted = append(shifted, s)
	}
	w.segments = shifted
}

// linearResample resamples src to exactly n samples via linear
// interpolation, spec.md §4.5's Doppler compression/expansion mechanism.
func linearResample(src []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, brt.NewCondition(brt.KindBadSize, "waveguide.linearResample", nil)
	}
	if len(src) == 0 {
		return make([]float64, n), nil
	}
	if len(src) == 1 {
		out := make([]float64, n)
		for i := range out {
			out[i] = src[0]
		}
		return out, nil
	}
	out := make([]float64, n)
	scale := float64(len(src)-1) / float64(n-1)
	if n == 1 {
		scale = 0
	}
	for i := 0; i < n; i++ {
		pos := float64(i) * scale
		lo := int(pos)
		if lo >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = src[lo]*(1-frac) + src[lo+1]*frac
	}
	return out, nil
}
