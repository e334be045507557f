package listener

import (
	"sync"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/processor"
)

// brirSource pairs one connected source's convolver with its sourceID.
// Unlike HRTFModel there is no near-field stage here: the room's distance
// cues are already baked into the measured BRIR, mirroring
// original_source/include/ListenerModels/ListenerEnvironmentBRIRModel.hpp's
// CSourceProcessors, which creates only a CHRTFConvolverProcessor.
type brirSource struct {
	sourceID  string
	convolver *processor.HRTFConvolverProcessor
}

// EnvironmentBRIRModel is spec.md §4.11's "Environment BRIR listener"
// variant: instead of one far-field HRTF shared by every listener
// position, it looks up a per-listener-position Hybrid-Room-BRIR from a
// hrtf.HRBRIRTable by nearest neighbour every block.
//
// Grounded on
// original_source/include/ListenerModels/ListenerEnvironmentBRIRModel.hpp's
// CListenerEnvironmentBRIRModel: its CSourceProcessors constructor calls
// binauralConvolverProcessor->DisableParallaxCorrection() immediately and
// SetConfiguration always calls DisableITDSimulation()/
// DisableParallaxCorrection() regardless of the requested flags — both
// cues are meaningless once distance and room coupling are already baked
// into the measured BRIR, so this model forces ITD and Parallax off on
// every SetFeatureFlags call instead of exposing them.
type EnvironmentBRIRModel struct {
	mu sync.Mutex

	params                          brt.GlobalParameters
	headRadius, measurementDistance float64

	table   *hrtf.HRBRIRTable
	flags   brt.FeatureFlags
	enabled bool

	sources []*brirSource
}

// NewEnvironmentBRIRModel builds a model with spatialization and
// interpolation on, ITD and parallax correction permanently off, and no
// sources connected.
func NewEnvironmentBRIRModel(params brt.GlobalParameters, headRadius, measurementDistanceM float64) *EnvironmentBRIRModel {
	f := brt.DefaultFeatureFlags()
	f.ITD = false
	f.Parallax = false
	return &EnvironmentBRIRModel{
		params:              params,
		headRadius:          headRadius,
		measurementDistance: measurementDistanceM,
		flags:               f,
		enabled:             true,
	}
}

// SetHRBRIR installs the listener's HRBRIR table and resets every
// connected source's buffers.
func (m *EnvironmentBRIRModel) SetHRBRIR(table *hrtf.HRBRIRTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = table
	for _, s := range m.sources {
		s.convolver.Reset()
	}
}

// HRBRIR returns the currently installed table, or nil.
func (m *EnvironmentBRIRModel) HRBRIR() *hrtf.HRBRIRTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

// RemoveHRBRIR clears the installed table.
func (m *EnvironmentBRIRModel) RemoveHRBRIR() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = nil
}

// SetFeatureFlags replaces the model's feature flags, forcing ITD and
// Parallax off regardless of the requested value.
func (m *EnvironmentBRIRModel) SetFeatureFlags(f brt.FeatureFlags) {
	f.ITD = false
	f.Parallax = false
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = f
	for _, s := range m.sources {
		s.convolver.SetFeatureFlags(m.flags)
	}
}

// FeatureFlags returns the model's current feature flags.
func (m *EnvironmentBRIRModel) FeatureFlags() brt.FeatureFlags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

func (m *EnvironmentBRIRModel) EnableModel()  { m.mu.Lock(); m.enabled = true; m.mu.Unlock() }
func (m *EnvironmentBRIRModel) DisableModel() { m.mu.Lock(); m.enabled = false; m.mu.Unlock() }

func (m *EnvironmentBRIRModel) IsModelEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// ResetProcessorBuffers clears every connected source's processor
// buffers.
func (m *EnvironmentBRIRModel) ResetProcessorBuffers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		s.convolver.Reset()
	}
}

// ConnectSource attaches a new per-source convolver.
func (m *EnvironmentBRIRModel) ConnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.sourceID == sourceID {
			return brt.NewCondition(brt.KindInvalidParam, "listener.EnvironmentBRIRModel.ConnectSource", nil)
		}
	}
	conv := processor.NewHRTFConvolverProcessor(m.params, m.headRadius, m.measurementDistance)
	conv.SetFeatureFlags(m.flags)
	m.sources = append(m.sources, &brirSource{sourceID: sourceID, convolver: conv})
	return nil
}

// DisconnectSource removes sourceID's convolver.
func (m *EnvironmentBRIRModel) DisconnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sources {
		if s.sourceID == sourceID {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return nil
		}
	}
	return brt.NewCondition(brt.KindInvalidParam, "listener.EnvironmentBRIRModel.DisconnectSource", nil)
}

// Process looks up the BRIR nearest to listenerTransform's position and
// renders sourceID's block against it.
func (m *EnvironmentBRIRModel) Process(sourceID string, input []float64, sourceTransform, listenerTransform geom.Transform) (left, right []float64, err error) {
	m.mu.Lock()
	enabled := m.enabled
	table := m.table
	var sp *brirSource
	for _, s := range m.sources {
		if s.sourceID == sourceID {
			sp = s
			break
		}
	}
	m.mu.Unlock()

	zero := func() ([]float64, []float64) { return make([]float64, m.params.BlockSize), make([]float64, m.params.BlockSize) }

	if sp == nil {
		l, r := zero()
		return l, r, brt.NewCondition(brt.KindInvalidParam, "listener.EnvironmentBRIRModel.Process", nil)
	}
	if !enabled || table == nil {
		l, r := zero()
		return l, r, nil
	}

	svc, err := table.Nearest(listenerTransform.Position)
	if err != nil {
		l, r := zero()
		return l, r, err
	}
	return sp.convolver.Process(input, sourceTransform, listenerTransform, svc)
}
