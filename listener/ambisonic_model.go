package listener

import (
	"sync"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/processor"
)

// ambisonicSource pairs one connected source's bilateral encoder with its
// sourceID, mirroring
// original_source/include/ListenerModels/ListenerVirtualAmbisonicBasedModel.hpp's
// nested CSourceToBeProcessed (bilateralAmbisonicEncoderProcessor keyed by
// sourceID).
type ambisonicSource struct {
	sourceID string
	encoder  *processor.AmbisonicEncoderProcessor
}

// AmbisonicModel is spec.md §4.11's Ambisonic listener: every connected
// source is encoded to a shared (order+1)^2-channel bilateral bus, which
// is then fed once per ear into one shared AmbisonicConvolverProcessor,
// independent of how many sources are connected.
//
// Grounded on
// original_source/include/ListenerModels/ListenerVirtualAmbisonicBasedModel.hpp's
// CListenerVirtualAmbisonicBasedModel: one
// CBilateralAmbisonicEncoderProcessor per source, and exactly two
// CAmbisonicDomainConvolverProcessor instances (left/right) shared across
// all sources and connected once to the listener's Ambisonic-IR exit
// point.
type AmbisonicModel struct {
	mu sync.Mutex

	params                          brt.GlobalParameters
	headRadius, measurementDistance float64

	convention    geom.AxisConvention
	order         int
	normalization brt.AmbisonicNormalization

	table      *ambisonic.Table
	leftConv   *processor.AmbisonicConvolverProcessor
	rightConv  *processor.AmbisonicConvolverProcessor
	flags      brt.FeatureFlags
	enabled    bool

	sources []*ambisonicSource
}

// NewAmbisonicModel builds a model at the given Ambisonic order and
// normalisation, with every feature flag on and no sources connected.
func NewAmbisonicModel(params brt.GlobalParameters, headRadius, measurementDistanceM float64, order int, normalization brt.AmbisonicNormalization) *AmbisonicModel {
	return &AmbisonicModel{
		params:              params,
		headRadius:          headRadius,
		measurementDistance: measurementDistanceM,
		convention:          params.Convention,
		order:               order,
		normalization:       normalization,
		leftConv:            processor.NewAmbisonicConvolverProcessor(params, brt.EarLeft),
		rightConv:           processor.NewAmbisonicConvolverProcessor(params, brt.EarRight),
		flags:               brt.DefaultFeatureFlags(),
		enabled:             true,
	}
}

// SetAmbisonicIR installs the shared Ambisonic IR table built for this
// model's order (table.Order() must match m's configured order), wiring
// both the left and right convolvers to it in one call, mirroring
// ConnectModuleABIR fanning the same service to both ear convolvers.
func (m *AmbisonicModel) SetAmbisonicIR(table *ambisonic.Table) error {
	if table == nil || table.Order() != m.order {
		return brt.NewCondition(brt.KindInvalidParam, "listener.AmbisonicModel.SetAmbisonicIR", nil)
	}
	if err := m.leftConv.Setup(table); err != nil {
		return err
	}
	if err := m.rightConv.Setup(table); err != nil {
		return err
	}
	m.mu.Lock()
	m.table = table
	m.mu.Unlock()
	return nil
}

// SetAmbisonicOrder changes the order carried by every connected source's
// encoder. Changing order invalidates the currently installed IR table
// (it was built for the old order), matching the original's
// SetAmbisonicOrder leaving listenerAmbisonicIR stale until the caller
// re-supplies one built at the new order.
func (m *AmbisonicModel) SetAmbisonicOrder(order int) error {
	if order < 0 || order > ambisonic.MaxOrder {
		return brt.NewCondition(brt.KindInvalidParam, "listener.AmbisonicModel.SetAmbisonicOrder", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = order
	m.table = nil
	for _, s := range m.sources {
		s.encoder = processor.NewAmbisonicEncoderProcessor(m.convention, m.order, m.normalization, m.headRadius, m.measurementDistance)
		s.encoder.SetFeatureFlags(m.flags)
	}
	return nil
}

// SetAmbisonicNormalization changes the SH normalisation convention
// applied by every connected source's encoder.
func (m *AmbisonicModel) SetAmbisonicNormalization(norm brt.AmbisonicNormalization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.normalization = norm
	for _, s := range m.sources {
		s.encoder = processor.NewAmbisonicEncoderProcessor(m.convention, m.order, m.normalization, m.headRadius, m.measurementDistance)
		s.encoder.SetFeatureFlags(m.flags)
	}
}

// SetFeatureFlags propagates feature flags to every connected source's
// encoder.
func (m *AmbisonicModel) SetFeatureFlags(f brt.FeatureFlags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = f
	for _, s := range m.sources {
		s.encoder.SetFeatureFlags(f)
	}
}

// FeatureFlags returns the model's current feature flags.
func (m *AmbisonicModel) FeatureFlags() brt.FeatureFlags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

func (m *AmbisonicModel) EnableModel()  { m.mu.Lock(); m.enabled = true; m.mu.Unlock() }
func (m *AmbisonicModel) DisableModel() { m.mu.Lock(); m.enabled = false; m.mu.Unlock() }

func (m *AmbisonicModel) IsModelEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// ResetProcessorBuffers clears every connected source's encoder history
// and both shared per-ear convolvers' overlap-save buffers.
func (m *AmbisonicModel) ResetProcessorBuffers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		s.encoder.Reset()
	}
	m.leftConv.Reset()
	m.rightConv.Reset()
}

// ConnectSource attaches a new per-source bilateral encoder.
func (m *AmbisonicModel) ConnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.sourceID == sourceID {
			return brt.NewCondition(brt.KindInvalidParam, "listener.AmbisonicModel.ConnectSource", nil)
		}
	}
	enc := processor.NewAmbisonicEncoderProcessor(m.convention, m.order, m.normalization, m.headRadius, m.measurementDistance)
	enc.SetFeatureFlags(m.flags)
	m.sources = append(m.sources, &ambisonicSource{sourceID: sourceID, encoder: enc})
	return nil
}

// DisconnectSource removes sourceID's encoder.
func (m *AmbisonicModel) DisconnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sources {
		if s.sourceID == sourceID {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return nil
		}
	}
	return brt.NewCondition(brt.KindInvalidParam, "listener.AmbisonicModel.DisconnectSource", nil)
}

// Process encodes every connected source's input into the shared channel
// bus and convolves it through the two shared per-ear convolvers,
// producing the listener's stereo output for this block. sourceInputs
// maps sourceID to its mono input block and transform; sources with no
// entry are treated as silent this block.
func (m *AmbisonicModel) Process(sourceInputs map[string]SourceInput, listenerTransform geom.Transform) (left, right []float64, err error) {
	m.mu.Lock()
	enabled := m.enabled
	table := m.table
	sources := make([]*ambisonicSource, len(m.sources))
	copy(sources, m.sources)
	numChannels := ambisonic.ChannelCount(m.order)
	m.mu.Unlock()

	zero := make([]float64, m.params.BlockSize)
	zeroOut := func() ([]float64, []float64) {
		l, r := make([]float64, m.params.BlockSize), make([]float64, m.params.BlockSize)
		return l, r
	}

	if !enabled || table == nil {
		l, r := zeroOut()
		return l, r, nil
	}

	leftBus := make([][]float64, numChannels)
	rightBus := make([][]float64, numChannels)
	for c := range leftBus {
		leftBus[c] = make([]float64, m.params.BlockSize)
		rightBus[c] = make([]float64, m.params.BlockSize)
	}

	for _, s := range sources {
		in, ok := sourceInputs[s.sourceID]
		input := zero
		if ok {
			input = in.Samples
		}
		srcTransform := geom.Transform{}
		if ok {
			srcTransform = in.Transform
		}
		encLeft, encRight, encErr := s.encoder.Process(input, srcTransform, listenerTransform)
		if encErr != nil {
			err = encErr
			continue
		}
		for c := 0; c < numChannels && c < len(encLeft); c++ {
			for i, v := range encLeft[c] {
				leftBus[c][i] += v
			}
			for i, v := range encRight[c] {
				rightBus[c][i] += v
			}
		}
	}

	left, lerr := m.leftConv.Process(leftBus)
	if lerr != nil {
		l, r := zeroOut()
		return l, r, lerr
	}
	right, rerr := m.rightConv.Process(rightBus)
	if rerr != nil {
		l, r := zeroOut()
		return l, r, rerr
	}
	return left, right, err
}

// SourceInput bundles one source's per-block mono input and transform,
// the per-tick data AmbisonicModel.Process needs per connected source.
type SourceInput struct {
	Samples   []float64
	Transform geom.Transform
}
