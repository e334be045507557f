// Package listener implements spec.md §4.11's listener models: thin
// orchestrators that wire a shared HRTF/SOS/Ambisonic service and a
// listener transform into one processor pair per connected source, sum
// the results into stereo ear buffers, and expose the command surface of
// spec.md §6.
package listener

import (
	"sync"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/processor"
	"github.com/grupodiana/brt/sos"
)

// sourceProcessors pairs one connected source's convolver and near-field
// stage, mirroring
// original_source/include/ListenerModels/ListenerHRTFModel.hpp's nested
// CSourceProcessors class (binauralConvolverProcessor +
// nearFieldEffectProcessor, keyed by sourceID).
type sourceProcessors struct {
	sourceID  string
	convolver *processor.HRTFConvolverProcessor
	nearField *processor.NearFieldProcessor
}

func newSourceProcessors(sourceID string, params brt.GlobalParameters, headRadius, measurementDistance float64) *sourceProcessors {
	return &sourceProcessors{
		sourceID:  sourceID,
		convolver: processor.NewHRTFConvolverProcessor(params, headRadius, measurementDistance),
		nearField: processor.NewNearFieldProcessor(),
	}
}

func (sp *sourceProcessors) setConfiguration(f brt.FeatureFlags) {
	sp.convolver.SetFeatureFlags(f)
	sp.nearField.SetEnabled(f.NearField)
}

func (sp *sourceProcessors) resetBuffers() {
	sp.convolver.Reset()
	sp.nearField.ResetProcessBuffers()
}

// HRTFModel is spec.md §4.11's per-source-convolution listener (HRTF
// based): one HRTFConvolverProcessor+NearFieldProcessor pair per
// connected source, all sharing one HRTF service and one SOS service and
// the listener's own transform.
//
// Grounded on
// original_source/include/ListenerModels/ListenerHRTFModel.hpp's
// CListenerHRTFModel: ConnectAnySoundSource/DisconnectAnySoundSource
// build and tear down a CSourceProcessors entry under the model's mutex;
// SetConfigurationInALLSourcesProcessors propagates a flag change to
// every connected source in one sweep. The original's per-field
// enable/disable booleans (enableSpatialization, enableInterpolation,
// ...) collapse onto the single brt.FeatureFlags value already shared by
// every processor in this module, per spec.md §9's redesign notes.
type HRTFModel struct {
	mu sync.Mutex

	params              brt.GlobalParameters
	headRadius          float64
	measurementDistance float64

	hrtfService *hrtf.Service
	sosService  *sos.Service

	flags   brt.FeatureFlags
	enabled bool

	sources []*sourceProcessors
}

// NewHRTFModel builds a model with every feature flag on, no HRTF/SOS
// service installed yet, and no sources connected.
func NewHRTFModel(params brt.GlobalParameters, headRadius, measurementDistanceM float64) *HRTFModel {
	return &HRTFModel{
		params:              params,
		headRadius:          headRadius,
		measurementDistance: measurementDistanceM,
		flags:               brt.DefaultFeatureFlags(),
		enabled:             true,
	}
}

// SetHRTF installs the listener's HRTF database, rejecting a sample-rate
// mismatch against the model's GlobalParameters (spec.md §6: "Sample
// rates other than the engine's global rate cause rejection"), and
// resets every connected source's buffers, mirroring the original's
// SetHRTF->ResetProcessorBuffers sequence.
func (m *HRTFModel) SetHRTF(svc *hrtf.Service) error {
	if svc == nil {
		return brt.NewCondition(brt.KindInvalidParam, "listener.HRTFModel.SetHRTF", nil)
	}
	if svc.SampleRate() != m.params.SampleRate {
		return brt.NewCondition(brt.KindInvalidParam, "listener.HRTFModel.SetHRTF", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hrtfService = svc
	for _, s := range m.sources {
		s.resetBuffers()
	}
	return nil
}

// HRTF returns the currently installed HRTF database, or nil.
func (m *HRTFModel) HRTF() *hrtf.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hrtfService
}

// RemoveHRTF clears the installed HRTF database; sources render silence
// until a new one is installed.
func (m *HRTFModel) RemoveHRTF() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hrtfService = nil
}

// SetNearFieldCompensationFilters installs the listener's SOS service.
func (m *HRTFModel) SetNearFieldCompensationFilters(svc *sos.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sosService = svc
}

// NearFieldCompensationFilters returns the currently installed SOS
// service, or nil.
func (m *HRTFModel) NearFieldCompensationFilters() *sos.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sosService
}

// SetFeatureFlags replaces the model's feature flags and propagates them
// to every connected source's processor pair in one sweep, mirroring
// SetConfigurationInALLSourcesProcessors.
func (m *HRTFModel) SetFeatureFlags(f brt.FeatureFlags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = f
	for _, s := range m.sources {
		s.setConfiguration(m.flags)
	}
}

// FeatureFlags returns the model's current feature flags.
func (m *HRTFModel) FeatureFlags() brt.FeatureFlags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// EnableModel/DisableModel gate the whole listener at once: while
// disabled, Process zero-fills every source's output without touching
// processor state, per spec.md §5's cancellation model ("disabling a
// processor sets a flag consulted at block start which short-circuits
// to ... zero-fill").
func (m *HRTFModel) EnableModel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

func (m *HRTFModel) DisableModel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

func (m *HRTFModel) IsModelEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// ResetProcessorBuffers clears every connected source's processor
// buffers, the effect of the /listener/resetBuffers command.
func (m *HRTFModel) ResetProcessorBuffers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		s.resetBuffers()
	}
}

// ConnectSource attaches a new per-source processor pair, configured
// from the model's current feature flags. Connecting the same sourceID
// twice is rejected, mirroring the original's find-before-push discipline
// even though CSourceProcessors itself has no such guard (the original
// relies on the caller's source registry never offering a duplicate ID).
func (m *HRTFModel) ConnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.sourceID == sourceID {
			return brt.NewCondition(brt.KindInvalidParam, "listener.HRTFModel.ConnectSource", nil)
		}
	}
	sp := newSourceProcessors(sourceID, m.params, m.headRadius, m.measurementDistance)
	sp.setConfiguration(m.flags)
	m.sources = append(m.sources, sp)
	return nil
}

// DisconnectSource removes sourceID's processor pair. Disconnecting an
// unknown sourceID is a no-op reporting failure, mirroring
// DisconnectAnySoundSource's find-or-return-false.
func (m *HRTFModel) DisconnectSource(sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sources {
		if s.sourceID == sourceID {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return nil
		}
	}
	return brt.NewCondition(brt.KindInvalidParam, "listener.HRTFModel.DisconnectSource", nil)
}

// Process renders one block for sourceID against the listener's shared
// HRTF/SOS services, chaining HRTFConvolverProcessor -> NearFieldProcessor
// per spec.md §4.11's "chain convolver->nearFieldProc->self.earExits".
func (m *HRTFModel) Process(sourceID string, input []float64, sourceTransform, listenerTransform geom.Transform) (left, right []float64, err error) {
	m.mu.Lock()
	enabled := m.enabled
	hrtfService := m.hrtfService
	sosService := m.sosService
	var sp *sourceProcessors
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
		return l, r, brt.NewCondition(brt.KindInvalidParam, "listener.HRTFModel.Process", nil)
	}
	if !enabled {
		l, r := zero()
		return l, r, nil
	}

	convLeft, convRight, err := sp.convolver.Process(input, sourceTransform, listenerTransform, hrtfService)
	if err != nil {
		return convLeft, convRight, err
	}

	relative := listenerTransform.RelativeDirectionTo(sourceTransform)
	distanceM := relative.Distance()
	interauralAzimuthDeg := relative.InterauralAzimuthDegrees(m.params.Convention)

	return sp.nearField.Process(convLeft, convRight, distanceM, interauralAzimuthDeg, sosService)
}
