// Package sos implements the SOS-filter / near-field compensation service
// of spec.md §4.4: a table of biquad-cascade coefficients keyed on
// quantised (distance, azimuth) pairs, with single-receiver mirroring and
// a convenience ILD-ratio query.
//
// Grounded on original_source/include/ServiceModules/ILD.hpp (CILD,
// CILD_Key) — the explicit per-ear duplicated-table special-case that file
// carries for numberOfReceivers==1 is replaced here by brt.Ear-as-variant
// mirroring, per spec.md §9's "Per-ear duplicated processing path"
// REDESIGN FLAG.
package sos

import (
	"sort"

	"github.com/grupodiana/brt"
)

// Cascade is a flat biquad-cascade coefficient vector: nFilters groups of
// (b0, b1, b2, a0, a1, a2), per spec.md §4.4.
type Cascade []float64

// NumBiquads returns how many second-order sections the cascade has.
func (c Cascade) NumBiquads() int { return len(c) / 6 }

type sosKey struct {
	distanceMM int
	azimuthDeg int
}

// Builder accumulates (distance, azimuth, ear) -> Cascade entries.
type Builder struct {
	left, right map[sosKey]Cascade
	done        bool
}

// NewBuilder starts a setup for an SOS table.
func NewBuilder() *Builder {
	return &Builder{left: make(map[sosKey]Cascade), right: make(map[sosKey]Cascade)}
}

// AddEntry records the cascade for one (ear, distance, azimuth) measurement.
// distanceMM and azimuthDeg are the already-quantised integer key
// components (spec.md §3: "mapping from (quantised distance in
// millimetres, quantised azimuth in degrees) to a pair of SOS cascades").
func (b *Builder) AddEntry(ear brt.Ear, distanceMM, azimuthDeg int, cascade Cascade) error {
	if b.done {
		return brt.NewCondition(brt.KindInvalidParam, "sos.Builder.AddEntry", nil)
	}
	if len(cascade) == 0 || len(cascade)%6 != 0 {
		return brt.NewCondition(brt.KindBadSize, "sos.Builder.AddEntry", nil)
	}
	key := sosKey{distanceMM: distanceMM, azimuthDeg: azimuthDeg}
	if ear == brt.EarLeft {
		b.left[key] = cascade
	} else {
		b.right[key] = cascade
	}
	return nil
}

// EndSetup infers the azimuth/distance step sizes (the minimum positive
// difference between distinct sorted keys on each axis, spec.md §4.4) and
// freezes the table into a queryable Service.
func (b *Builder) EndSetup() (*Service, error) {
	if b.done {
		return nil, brt.NewCondition(brt.KindInvalidParam, "sos.Builder.EndSetup", nil)
	}
	if len(b.left) == 0 && len(b.right) == 0 {
		return nil, brt.NewCondition(brt.KindNotSet, "sos.Builder.EndSetup", nil)
	}
	b.done = true

	all := make([]sosKey, 0, len(b.left)+len(b.right))
	for k := range b.left {
		all = append(all, k)
	}
	for k := range b.right {
		all = append(all, k)
	}

	distanceStep, distanceBase := inferStep(all, func(k sosKey) int { return k.distanceMM })
	azimuthStep, azimuthBase := inferStep(all, func(k sosKey) int { return k.azimuthDeg })

	return &Service{
		left:           b.left,
		right:          b.right,
		singleReceiver: len(b.left) == 0 || len(b.right) == 0,
		distanceStep:   distanceStep,
		distanceBase:   distanceBase,
		azimuthStep:    azimuthStep,
		azimuthBase:    azimuthBase,
		ready:          true,
	}, nil
}

// inferStep returns the minimum positive difference between distinct
// sorted key values on one axis (spec.md §4.4), plus the smallest observed
// value on that axis, which quantisation uses as the grid's origin.
func inferStep(keys []sosKey, axis func(sosKey) int) (step, base int) {
	values := make([]int, 0, len(keys))
	seen := make(map[int]bool)
	for _, k := range keys {
		v := axis(k)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Ints(values)
	if len(values) == 0 {
		return 1, 0
	}
	base = values[0]
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if step == 0 || d < step {
			step = d
		}
	}
	if step == 0 {
		step = 1
	}
	return step, base
}

// Service is the immutable, queryable SOS table.
type Service struct {
	left, right    map[sosKey]Cascade
	singleReceiver bool
	distanceStep   int
	distanceBase   int
	azimuthStep    int
	azimuthBase    int
	ready          bool
}

// Lookup returns the cascade nearest (distanceM, azimuthDeg) for ear.
// azimuthDeg must be in [-90, 90] (spec.md §4.4's interaural-hemisphere
// domain). When the table holds only one ear's worth of data, a RIGHT
// query is redirected to LEFT at -azimuth.
func (s *Service) Lookup(ear brt.Ear, distanceM, azimuthDeg float64) (Cascade, error) {
	if !s.ready {
		return nil, brt.NewCondition(brt.KindNotSet, "sos.Service.Lookup", nil)
	}
	if distanceM <= 0 {
		return nil, brt.NewCondition(brt.KindInvalidParam, "sos.Service.Lookup", nil)
	}
	if azimuthDeg < -90 || azimuthDeg > 90 {
		return nil, brt.NewCondition(brt.KindInvalidParam, "sos.Service.Lookup", nil)
	}

	table := s.left
	queryAz := azimuthDeg
	if ear == brt.EarRight {
		if s.singleReceiver && len(s.right) == 0 {
			queryAz = -azimuthDeg
		} else {
			table = s.right
		}
	}

	key := sosKey{
		distanceMM: quantizeToStep(distanceM*1000, s.distanceStep, s.distanceBase),
		azimuthDeg: quantizeToStep(queryAz, s.azimuthStep, s.azimuthBase),
	}
	c, ok := table[key]
	if !ok {
		return nil, brt.NewCondition(brt.KindInvalidParam, "sos.Service.Lookup", nil)
	}
	return c, nil
}

// quantizeToStep snaps v onto the grid {base + n*step : n in Z}, rounding
// to the nearest grid point.
func quantizeToStep(v float64, step, base int) int {
	if step <= 0 {
		step = 1
	}
	n := (v - float64(base)) / float64(step)
	var i int
	if n >= 0 {
		i = int(n + 0.5)
	} else {
		i = int(n - 0.5)
	}
	return base + i*step
}

// ApproximateILD is a supplemented convenience query: the ratio of the
// low-frequency gain (sum of cascade b-coefficients over sum of
// a-coefficients, the DC gain of the biquad chain) between the two ears at
// a direction, a cheap proxy for interaural level difference without
// running the filters. Grounded on CILD's broader role of modelling
// "frequency-dependent Interaural Level Differences" in
// original_source/include/ServiceModules/ILD.hpp.
func (s *Service) ApproximateILD(distanceM, azimuthDeg float64) (float64, error) {
	left, err := s.Lookup(brt.EarLeft, distanceM, azimuthDeg)
	if err != nil {
		return 0, err
	}
	right, err := s.Lookup(brt.EarRight, distanceM, azimuthDeg)
	if err != nil {
		return 0, err
	}
	lg := dcGain(left)
	rg := dcGain(right)
	if rg == 0 {
		return 0, brt.NewCondition(brt.KindDivByZero, "sos.Service.ApproximateILD", nil)
	}
	return lg / rg, nil
}

func dcGain(c Cascade) float64 {
	gain := 1.0
	for i := 0; i+5 < len(c); i += 6 {
		b0, b1, b2, a0, a1, a2 := c[i], c[i+1], c[i+2], c[i+3], c[i+4], c[i+5]
		denom := a0 + a1 + a2
		if denom == 0 {
			continue
		}
		gain *= (b0 + b1 + b2) / denom
	}
	return gain
}
