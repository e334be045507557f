package hrtf

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// Builder accumulates measured HRIRs for one HRTF database. It has no
// query methods — only Service, produced by EndSetup, can be queried —
// per spec.md §9's "Mixed mutable/queryable states" redesign.
type Builder struct {
	sampleRate      int
	partitionLength int
	resamplingStep  float64
	irLength        int
	measured        map[gridKey]HRIR
	done            bool
}

// NewBuilder starts a setup for an HRTF database sampled at globalSampleRate,
// to be partitioned into sub-filters of length partitionLength once resolved
// onto a regular grid at resamplingStep degrees.
func NewBuilder(globalSampleRate, partitionLength int, resamplingStep float64) *Builder {
	return &Builder{
		sampleRate:      globalSampleRate,
		partitionLength: partitionLength,
		resamplingStep:  resamplingStep,
		measured:        make(map[gridKey]HRIR),
	}
}

// AddMeasurement records one measured direction. sampleRate must equal the
// builder's configured rate (spec.md §3: "sample rate must equal the
// engine's global sample rate or the table is rejected"); every entry must
// share the same IR length.
func (b *Builder) AddMeasurement(o geom.Orientation, sampleRate int, hrir HRIR) error {
	if b.done {
		return brt.NewCondition(brt.KindInvalidParam, "hrtf.Builder.AddMeasurement", nil)
	}
	if sampleRate != b.sampleRate {
		return brt.NewCondition(brt.KindInvalidParam, "hrtf.Builder.AddMeasurement", nil)
	}
	if len(hrir.Left) != len(hrir.Right) || len(hrir.Left) == 0 {
		return brt.NewCondition(brt.KindBadSize, "hrtf.Builder.AddMeasurement", nil)
	}
	if b.irLength == 0 {
		b.irLength = len(hrir.Left)
	} else if len(hrir.Left) != b.irLength {
		return brt.NewCondition(brt.KindBadSize, "hrtf.Builder.AddMeasurement", nil)
	}
	b.measured[quantize(o)] = hrir
	return nil
}

// EndSetup runs the five-step preprocessing pipeline of spec.md §4.3 and
// freezes the result into a queryable Service.
func (b *Builder) EndSetup() (*Service, error) {
	if b.done {
		return nil, brt.NewCondition(brt.KindInvalidParam, "hrtf.Builder.EndSetup", nil)
	}
	if len(b.measured) == 0 {
		return nil, brt.NewCondition(brt.KindNotSet, "hrtf.Builder.EndSetup", nil)
	}
	b.done = true

	northPole, southPole := synthesizePoles(b.measured)
	resampled := resampleGrid(b.measured, northPole, southPole, b.resamplingStep)

	svc := &Service{
		sampleRate:     b.sampleRate,
		irLength:       b.irLength,
		partitionLen:   b.partitionLength,
		resamplingStep: b.resamplingStep,
		partitioned:    make(map[gridKey]HRIRPartitioned, len(resampled)),
	}
	for k, hr := range resampled {
		p, err := partitionHRIR(hr, b.partitionLength)
		if err != nil {
			return nil, err
		}
		svc.partitioned[k] = p
		svc.numSubfilters = len(p.LeftPartitions)
	}
	np, err := partitionHRIR(northPole, b.partitionLength)
	if err != nil {
		return nil, err
	}
	sp, err := partitionHRIR(southPole, b.partitionLength)
	if err != nil {
		return nil, err
	}
	svc.northPole = np
	svc.southPole = sp
	svc.ready = true
	return svc, nil
}
