package ambisonic

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
)

// ChannelIR is the partitioned per-ear impulse response for one
// spherical-harmonic channel, spec.md §3's "Ambisonic-IR table" value.
type ChannelIR struct {
	Left, Right [][]float64
}

// Table is the immutable Ambisonic IR service of spec.md §4.5: a
// partitioned IR per (channel, ear), built once from an HRTF service and a
// fixed virtual-speaker layout.
type Table struct {
	order int
	norm  brt.AmbisonicNormalization
	conv  geom.AxisConvention

	channels []ChannelIR
}

// Order returns the Ambisonic order this table was built at.
func (t *Table) Order() int { return t.order }

// Channel returns the partitioned IR for spherical-harmonic channel acn
// (0 .. ChannelCount(Order())-1).
func (t *Table) Channel(acn int) (ChannelIR, error) {
	if acn < 0 || acn >= len(t.channels) {
		return ChannelIR{}, brt.NewCondition(brt.KindOutOfRange, "ambisonic.Table.Channel", nil)
	}
	return t.channels[acn], nil
}

// DefaultSpeakerLayout is a small virtual-speaker rig (five elevation
// rings at -60, -30, 0, 30 and 60 degrees with eight speakers each at
// 45-degree azimuth spacing, plus one speaker at each pole) dense enough to decode up to order 3 without a singular
// encode matrix; a production build would instead load a T-design or
// Lebedev layout, but none of the example repos carry one, and spec.md
// treats room/speaker-layout authoring as an external concern (spec.md §1
// Non-goals analogue for HRTF/SOFA input).
func DefaultSpeakerLayout() []geom.Orientation {
	layout := make([]geom.Orientation, 0, 26)
	for _, el := range []float64{-60, -30, 0, 30, 60} {
		for az := 0.0; az < 360; az += 45 {
			layout = append(layout, geom.Orientation{Azimuth: az, Elevation: normalizeEl(el)})
		}
	}
	layout = append(layout, geom.Orientation{Azimuth: 0, Elevation: 90})
	layout = append(layout, geom.Orientation{Azimuth: 0, Elevation: 270})
	return layout
}

func normalizeEl(el float64) float64 {
	if el < 0 {
		return 360 + el
	}
	return el
}

// Build projects hrtfSvc onto speakerLayout and encodes each speaker's
// partitioned HRIR into order's spherical-harmonic channels under norm,
// summing contributions across speakers into one partitioned IR per
// (channel, ear) — spec.md §4.5 "Projects an HRTF onto a virtual-speaker
// rig and encodes each speaker IR into N² spherical-harmonic channels per
// ear." Grounded on
// original_source/include/ServiceModules/AmbisonicBIR.hpp's
// CAmbisonicBIR::BuildBIRTable.
//
// Accumulation happens directly in the frequency domain: each speaker's
// gain is a real scalar, so weighted-summing partitioned (complex) buffers
// element-wise is equivalent to summing the corresponding time-domain IRs
// before partitioning, without ever leaving the frequency domain.
func Build(hrtfSvc *hrtf.Service, order int, norm brt.AmbisonicNormalization, conv geom.AxisConvention, speakerLayout []geom.Orientation) (*Table, error) {
	if order < 0 || order > MaxOrder {
		return nil, brt.NewCondition(brt.KindInvalidParam, "ambisonic.Build", nil)
	}
	n := ChannelCount(order)
	k := hrtfSvc.NumSubfilters()
	l := hrtfSvc.PartitionLength()

	channels := make([]ChannelIR, n)
	for c := range channels {
		channels[c] = ChannelIR{Left: zeroPartitions(k, l), Right: zeroPartitions(k, l)}
	}

	for _, spk := range speakerLayout {
		p, err := hrtfSvc.InterpolatePartitioned(spk.Azimuth, spk.Elevation)
		if err != nil {
			return nil, err
		}
		direction := geom.FromSpherical(conv, 1.0, spk.Azimuth, spk.Elevation)
		gains, err := Gains(order, norm, direction, conv)
		if err != nil {
			return nil, err
		}
		for c, g := range gains {
			accumulateScaled(channels[c].Left, p.LeftPartitions, g)
			accumulateScaled(channels[c].Right, p.RightPartitions, g)
		}
	}

	return &Table{order: order, norm: norm, conv: conv, channels: channels}, nil
}

func zeroPartitions(k, l int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, 4*l)
	}
	return out
}

func accumulateScaled(dst, src [][]float64, scale float64) {
	for i := range dst {
		if i >= len(src) {
			break
		}
		for j := range dst[i] {
			dst[i][j] += scale * src[i][j]
		}
	}
}
