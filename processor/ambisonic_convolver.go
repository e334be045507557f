package processor

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/upc"
)

// AmbisonicConvolverProcessor is spec.md §4.9's per-ear stage: one
// instance per ear on the listener model, running (order+1)^2 UPCs
// against the Ambisonic IR service's channels for that ear and summing
// into one mono ear-block. This is the single path whose cost is
// independent of the number of connected sources, since it runs once per
// ear per block regardless of how many sources feed the shared channel
// bus upstream.
//
// Grounded on
// original_source/include/ServiceModules/AmbisonicBIR.hpp's per-channel
// IR layout; the UPC fan-in/sum loop follows
// original_source/ProcessingModules/HRTFConvolverProcessor.hpp's
// two-UPC pattern generalised from 2 to N^2 convolvers.
type AmbisonicConvolverProcessor struct {
	ear       brt.Ear
	blockSize int
	upcs      []*upc.Convolver
}

// NewAmbisonicConvolverProcessor builds an unconfigured convolver for the
// given ear; call Setup before the first Process.
func NewAmbisonicConvolverProcessor(params brt.GlobalParameters, ear brt.Ear) *AmbisonicConvolverProcessor {
	return &AmbisonicConvolverProcessor{ear: ear, blockSize: params.BlockSize}
}

// Setup (re)builds the processor's UPC bank from table, one UPC per
// spherical-harmonic channel, fixed at table's build time (no IR memory:
// the Ambisonic IR table never changes mid-stream, per spec.md §4.9).
func (p *AmbisonicConvolverProcessor) Setup(table *ambisonic.Table) error {
	n := ambisonic.ChannelCount(table.Order())
	upcs := make([]*upc.Convolver, n)
	for c := 0; c < n; c++ {
		ch, err := table.Channel(c)
		if err != nil {
			return err
		}
		ir := ch.Left
		if p.ear == brt.EarRight {
			ir = ch.Right
		}
		k := len(ir)
		if k == 0 {
			return brt.NewCondition(brt.KindBadSize, "processor.AmbisonicConvolverProcessor.Setup", nil)
		}
		l := len(ir[0]) / 4
		conv := &upc.Convolver{}
		if err := conv.Setup(p.blockSize, l, k, false); err != nil {
			return err
		}
		if err := conv.SetIR(ir); err != nil {
			return err
		}
		upcs[c] = conv
	}
	p.upcs = upcs
	return nil
}

// Reset clears every channel UPC's overlap-save history.
func (p *AmbisonicConvolverProcessor) Reset() {
	for _, c := range p.upcs {
		c.Reset()
	}
}

// Process convolves each of the (order+1)^2 channel streams (the shared
// encoder bus) against its channel IR and sums the results into one mono
// ear block.
func (p *AmbisonicConvolverProcessor) Process(channels [][]float64) ([]float64, error) {
	if len(channels) != len(p.upcs) {
		return nil, brt.NewCondition(brt.KindBadSize, "processor.AmbisonicConvolverProcessor.Process", nil)
	}
	out := make([]float64, p.blockSize)
	for c, in := range channels {
		convOut, err := p.upcs[c].Process(in)
		if err != nil {
			return nil, err
		}
		for i, v := range convOut {
			out[i] += v
		}
	}
	flushDenormals(out)
	return out, nil
}
