package sdn

import "math"

// delayLine is a fixed-capacity, fractional-length single-sample-at-a-time
// delay line connecting two SDN nodes, grounded on the SDN WaveGuide
// class SDNEnvironment.hpp references (Prepare/PushNextSample/
// GetCurrentSample/StepForward/SetDistance/InterpolateDistance) — that
// class itself was not present in the retrieved source tree, so its
// interpolate-on-distance-change behaviour is inferred from
// SDNEnvironment::UpdateWaveguideLength calling InterpolateDistance every
// sample while the node pair is moving, smoothing the integer delay
// length by at most one sample per call rather than jumping.
type delayLine struct {
	sampleRate  float64
	buffer      []float64
	write       int
	length      float64 // current (possibly mid-interpolation) delay in samples
	target      float64
	attenuation float64
}

func newDelayLine(sampleRate float64, maxDelaySamples int) *delayLine {
	if maxDelaySamples < 1 {
		maxDelaySamples = 1
	}
	return &delayLine{sampleRate: sampleRate, buffer: make([]float64, maxDelaySamples+1), attenuation: 1}
}

// setDistance sets the target delay from a distance in metres at the
// given speed of sound, per SetDistance/PointToPointDistance (clamped to
// at least 1 metre in the original, preserved here).
func (d *delayLine) setDistance(distanceM, soundSpeedMPS float64) {
	if distanceM < 1 {
		distanceM = 1
	}
	samples := distanceM / soundSpeedMPS * d.sampleRate
	if samples > float64(len(d.buffer)-1) {
		samples = float64(len(d.buffer) - 1)
	}
	d.target = samples
	if d.length == 0 {
		d.length = samples
	}
}

func (d *delayLine) setAttenuation(a float64) { d.attenuation = a }

// interpolateDistance nudges length one step towards target, per
// spec.md's smoothing requirement for moving source/listener/wall nodes.
func (d *delayLine) interpolateDistance() {
	const step = 1.0
	if math.Abs(d.target-d.length) <= step {
		d.length = d.target
		return
	}
	if d.target > d.length {
		d.length += step
	} else {
		d.length -= step
	}
}

// pushNextSample writes x at the head of the line (SDN convention: the
// line holds the input, and currentSample reads the output length samples
// behind it).
func (d *delayLine) pushNextSample(x float64) {
	d.buffer[d.write] = x
}

// currentSample reads the delayed, attenuated output at the current
// fractional length via linear interpolation between adjacent taps.
func (d *delayLine) currentSample() float64 {
	n := len(d.buffer)
	lo := int(d.length)
	frac := d.length - float64(lo)
	i0 := ((d.write - lo) % n + n) % n
	i1 := ((d.write - lo - 1) % n + n) % n
	v := d.buffer[i0]*(1-frac) + d.buffer[i1]*frac
	return v * d.attenuation
}

// stepForward advances the ring write head by one sample.
func (d *delayLine) stepForward() {
	d.write = (d.write + 1) % len(d.buffer)
}
