package hrtf

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// Service is the immutable, queryable HRTF database produced by
// Builder.EndSetup. All query methods are safe for concurrent read-only
// use (spec.md §5: "IR tables: many-readers after setup; exclusive writer
// only during setup").
type Service struct {
	sampleRate     int
	irLength       int
	partitionLen   int
	numSubfilters  int
	resamplingStep float64

	partitioned map[gridKey]HRIRPartitioned
	northPole   HRIRPartitioned
	southPole   HRIRPartitioned

	ready bool
}

// SampleRate returns the sample rate this database was built at.
func (s *Service) SampleRate() int { return s.sampleRate }

// PartitionLength returns L, the sub-filter length every partitioned IR in
// this service is split at.
func (s *Service) PartitionLength() int { return s.partitionLen }

// NumSubfilters returns K, the number of sub-filters every partitioned IR
// in this service has.
func (s *Service) NumSubfilters() int { return s.numSubfilters }

func (s *Service) lookupPartitioned(key gridKey) (HRIRPartitioned, bool) {
	if key.el == int(northPoleElevation) {
		return s.northPole, true
	}
	if key.el == int(southPoleElevation) {
		return s.southPole, true
	}
	p, ok := s.partitioned[key]
	return p, ok
}

// InterpolatePartitioned is the single factored call site spec.md §9
// requires: it returns (leftIR, rightIR, leftDelay, rightDelay) bundled
// into one HRIRPartitioned so per-ear IR, per-ear delay and any
// parallax-projected direction downstream cannot drift out of sync.
func (s *Service) InterpolatePartitioned(az, el float64) (HRIRPartitioned, error) {
	if !s.ready {
		return HRIRPartitioned{}, brt.NewCondition(brt.KindNotSet, "hrtf.Service.InterpolatePartitioned", nil)
	}

	el = geom.NormalizeElevationDegrees(el)
	az = geom.NormalizeAzimuthDegrees(az)

	if nearPole(el, northPoleElevation) {
		return s.northPole, nil
	}
	if nearPole(el, southPoleElevation) {
		return s.southPole, nil
	}

	target := geom.Orientation{Azimuth: az, Elevation: el}
	p, ok := s.onlineInterpolate(target)
	if !ok {
		return HRIRPartitioned{}, brt.NewCondition(brt.KindInvalidParam, "hrtf.Service.InterpolatePartitioned", nil)
	}
	return p, nil
}

func nearPole(el, pole float64) bool {
	d := el - pole
	if d < 0 {
		d = -d
	}
	return d <= epsilonSewing
}

// IR returns the partitioned impulse response and ITD delay for one ear at
// the given direction. Because brt.Ear has exactly two values (LEFT and
// RIGHT), the "BOTH/NONE query is a hard error" contract of spec.md §4.3
// holds by construction — there is no third Ear value to reject.
func (s *Service) IR(ear brt.Ear, az, el float64) ([][]float64, uint64, error) {
	p, err := s.InterpolatePartitioned(az, el)
	if err != nil {
		return nil, 0, err
	}
	if ear == brt.EarLeft {
		return p.LeftPartitions, p.LeftDelay, nil
	}
	return p.RightPartitions, p.RightDelay, nil
}

// NearestNeighbor fetches the IR without interpolation, for
// `FeatureFlags.Interpolation == false` (spec.md §4.6: "If interpolation
// is off the HRTF lookup falls back to nearest-neighbour").
func (s *Service) NearestNeighbor(az, el float64) (HRIRPartitioned, error) {
	if !s.ready {
		return HRIRPartitioned{}, brt.NewCondition(brt.KindNotSet, "hrtf.Service.NearestNeighbor", nil)
	}
	el = geom.NormalizeElevationDegrees(el)
	az = geom.NormalizeAzimuthDegrees(az)
	if nearPole(el, northPoleElevation) {
		return s.northPole, nil
	}
	if nearPole(el, southPoleElevation) {
		return s.southPole, nil
	}
	step := s.resamplingStep
	key := quantize(geom.Orientation{
		Azimuth:   roundToStep(az, step),
		Elevation: roundToStep(el, step),
	})
	p, ok := s.lookupPartitioned(key)
	if !ok {
		return HRIRPartitioned{}, brt.NewCondition(brt.KindInvalidParam, "hrtf.Service.NearestNeighbor", nil)
	}
	return p, nil
}

func roundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	n := v / step
	i := int(n + 0.5)
	return float64(i) * step
}
