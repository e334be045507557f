package main

import (
	"math"

	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
)

// synthesizeHRTF stands in for the SOFA file loader spec.md §1 puts out of
// the core's scope: a real session would parse a SimpleFreeFieldHRIR SOFA
// file into the same (orientation, HRIR) measurements this function
// fabricates procedurally. Each measurement's ITD is encoded as a
// peak-sample delay of (headRadius/c)*(azimuth + sin(azimuth)) (the
// textbook Woodworth spherical-head ITD model), and the level falls off slightly toward the
// contralateral ear, enough to drive the engine's interpolation and
// convolution paths with a source that audibly moves.
func synthesizeHRTF(sampleRate, partitionLength int, headRadiusM float64) (*hrtf.Service, error) {
	const irLen = 64
	const speedOfSoundMPS = 343.0

	b := hrtf.NewBuilder(sampleRate, partitionLength, 15)
	for el := -90.0; el <= 90.0; el += 15 {
		for az := 0.0; az < 360.0; az += 15 {
			left, right := syntheticHRIR(az, el, sampleRate, headRadiusM, speedOfSoundMPS, irLen)
			if err := b.AddMeasurement(geom.Orientation{Azimuth: az, Elevation: el}, sampleRate, hrtf.HRIR{Left: left, Right: right}); err != nil {
				return nil, err
			}
			if el == -90 || el == 90 {
				break // one measurement suffices exactly at the poles
			}
		}
	}
	return b.EndSetup()
}

func syntheticHRIR(azimuthDeg, elevationDeg float64, sampleRate int, headRadiusM, speedOfSoundMPS float64, n int) (left, right []float64) {
	azRad := azimuthDeg * math.Pi / 180
	elRad := elevationDeg * math.Pi / 180

	itdSeconds := (headRadiusM / speedOfSoundMPS) * (azRad + math.Sin(azRad))
	itdSamples := itdSeconds * float64(sampleRate)

	leftDelay := 0.0
	rightDelay := 0.0
	if itdSamples > 0 {
		rightDelay = itdSamples
	} else {
		leftDelay = -itdSamples
	}

	elGain := 0.7 + 0.3*math.Cos(elRad)
	leftGain := elGain * (0.6 + 0.4*math.Cos(azRad-math.Pi/2))
	rightGain := elGain * (0.6 + 0.4*math.Cos(azRad+math.Pi/2))

	left = make([]float64, n)
	right = make([]float64, n)
	placePeak(left, leftDelay, leftGain)
	placePeak(right, rightDelay, rightGain)
	return left, right
}

// placePeak writes a small exponentially-decaying pulse starting at a
// fractional-sample delay, linearly split across its two neighbouring
// integer samples.
func placePeak(buf []float64, delay, gain float64) {
	i0 := int(delay)
	frac := delay - float64(i0)
	for k := 0; k < len(buf)-i0 && k < 8; k++ {
		decay := math.Exp(-float64(k) / 3)
		if i0+k < len(buf) {
			buf[i0+k] += gain * decay * (1 - frac)
		}
		if i0+k+1 < len(buf) {
			buf[i0+k+1] += gain * decay * frac
		}
	}
}
