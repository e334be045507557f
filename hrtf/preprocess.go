package hrtf

import (
	"math"

	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/upc"
)

// synthesizePoles is spec.md §4.3 step 1: if the measured table lacks a
// pole, average every IR on the ring nearest that pole (equal weight),
// producing one direction-independent pole IR. Grounded on
// original_source/include/ServiceModules/Preprocessor.hpp's pole-synthesis
// pass, simplified to a single equal-weight average across the whole
// nearest ring rather than a two-stage sector-then-ring average — the
// source's "sectors" exist to handle rings with very dense, non-uniform
// azimuth sampling, which this engine's resampled-grid consumer does not
// need (every pole query collapses to the same object regardless of
// sector boundaries).
func synthesizePoles(measured map[gridKey]HRIR) (north, south HRIR) {
	if hr, ok := exactPole(measured, 90); ok {
		north = hr
	} else {
		north = averageRing(measured, nearestRingElevation(measured, 90, true))
	}
	if hr, ok := exactPole(measured, 270); ok {
		south = hr
	} else {
		south = averageRing(measured, nearestRingElevation(measured, 270, false))
	}
	return north, south
}

func exactPole(measured map[gridKey]HRIR, el int) (HRIR, bool) {
	for k, v := range measured {
		if k.el == el {
			return v, true
		}
	}
	return HRIR{}, false
}

// nearestRingElevation finds the measured elevation closest to the pole at
// poleEl, searching the northern band [0,90] when fromBelow is true or the
// southern band [270,360) otherwise.
func nearestRingElevation(measured map[gridKey]HRIR, poleEl float64, fromBelow bool) int {
	best := -1
	bestDist := math.Inf(1)
	for k := range measured {
		el := float64(k.el)
		if fromBelow {
			if el > poleEl {
				continue
			}
		} else {
			if el < poleEl {
				continue
			}
		}
		d := math.Abs(poleEl - el)
		if d < bestDist {
			bestDist = d
			best = k.el
		}
	}
	return best
}

func averageRing(measured map[gridKey]HRIR, el int) HRIR {
	var sum HRIR
	var n int
	for k, v := range measured {
		if k.el != el {
			continue
		}
		if sum.Left == nil {
			sum.Left = make([]float64, len(v.Left))
			sum.Right = make([]float64, len(v.Right))
		}
		for i := range v.Left {
			sum.Left[i] += v.Left[i]
			sum.Right[i] += v.Right[i]
		}
		sum.LeftDelay += v.LeftDelay
		sum.RightDelay += v.RightDelay
		n++
	}
	if n == 0 {
		return HRIR{}
	}
	for i := range sum.Left {
		sum.Left[i] /= float64(n)
		sum.Right[i] /= float64(n)
	}
	sum.LeftDelay /= uint64(n)
	sum.RightDelay /= uint64(n)
	return sum
}

// resampleGrid performs spec.md §4.3 steps 2-4: azimuth closure (handled
// implicitly — every lookup normalises azimuth into [0,360) first, so a
// query at 360 and a query at 0 hit the identical map entry rather than a
// literally duplicated row), spherical cap fill, and grid resampling onto
// (azimuthStep, elevationStep).
func resampleGrid(measured map[gridKey]HRIR, northPole, southPole HRIR, step float64) map[gridKey]HRIR {
	out := make(map[gridKey]HRIR)

	northRing := nearestRingElevation(measured, northPoleElevation, true)
	southRing := nearestRingElevation(measured, southPoleElevation, false)
	gap := gapThresholdFactor * step

	filled := make(map[gridKey]HRIR, len(measured))
	for k, v := range measured {
		filled[k] = v
	}
	if northRing >= 0 && northPoleElevation-float64(northRing) > gap {
		densifyCap(filled, measured, northPoleElevation, float64(northRing), step)
	}
	if southRing >= 0 && float64(southRing)-southPoleElevation > gap {
		densifyCap(filled, measured, southPoleElevation, float64(southRing), step)
	}

	for el := 0.0; el <= 90.0; el += step {
		resampleRing(out, filled, el, step)
	}
	for el := 270.0; el < 360.0; el += step {
		resampleRing(out, filled, el, step)
	}
	return out
}

func densifyCap(filled, measured map[gridKey]HRIR, poleEl, ringEl, step float64) {
	lo, hi := ringEl, poleEl
	if lo > hi {
		lo, hi = hi, lo
	}
	for el := lo + step; el < hi; el += step {
		for az := 0.0; az < 360.0; az += step {
			target := geom.Orientation{Azimuth: az, Elevation: el}
			if hr, ok := distanceInterpolate(target, measured); ok {
				filled[quantize(target)] = hr
			}
		}
	}
}

func resampleRing(out, filled map[gridKey]HRIR, el, step float64) {
	for az := 0.0; az < 360.0; az += step {
		target := geom.Orientation{Azimuth: az, Elevation: el}
		key := quantize(target)
		if hr, ok := filled[key]; ok {
			out[key] = hr
			continue
		}
		if hr, ok := quadrantInterpolate(target, filled); ok {
			out[key] = hr
		}
	}
}

// partitionHRIR is spec.md §4.3 step 5: split each ear's resampled IR into
// K = ceil(len/L) sub-filters of length L, zero-pad each to 2L, FFT.
func partitionHRIR(hr HRIR, l int) (HRIRPartitioned, error) {
	left, err := upc.PartitionIR(hr.Left, l)
	if err != nil {
		return HRIRPartitioned{}, err
	}
	right, err := upc.PartitionIR(hr.Right, l)
	if err != nil {
		return HRIRPartitioned{}, err
	}
	return HRIRPartitioned{
		LeftPartitions:  left,
		RightPartitions: right,
		LeftDelay:       hr.LeftDelay,
		RightDelay:      hr.RightDelay,
	}, nil
}
