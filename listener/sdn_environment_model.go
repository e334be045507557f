package listener

import (
	"fmt"
	"sync"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/sdn"
)

// virtualSourceIDs names the 7 virtual streams an SDN processor emits for
// one connected real source: one per wall plus the direct path, per
// sdn.NumOutputs. Grounded on
// original_source/include/EnvironmentModels/EnvironmentVirtualSourcesSDNModel.hpp's
// CSDNProcessors, which wires each of the SDN processor's output streams
// to the listener model as its own virtual source.
func virtualSourceIDs(sourceID string) []string {
	ids := make([]string, sdn.NumOutputs)
	for i := 0; i < sdn.NumOutputs-1; i++ {
		ids[i] = fmt.Sprintf("%s#wall%d", sourceID, i)
	}
	ids[sdn.NumOutputs-1] = sourceID + "#direct"
	return ids
}

// SourceListenerModel is the subset of a listener model's API the SDN
// environment model needs to register its virtual per-wall/direct-path
// streams as ordinary sources: satisfied by both *HRTFModel and
// *EnvironmentBRIRModel.
type SourceListenerModel interface {
	ConnectSource(sourceID string) error
	DisconnectSource(sourceID string) error
	Process(sourceID string, input []float64, sourceTransform, listenerTransform geom.Transform) (left, right []float64, err error)
}

// sdnSource pairs one connected real source's room processor with the
// virtual sourceIDs it was registered under on the listener model.
type sdnSource struct {
	sourceID   string
	processor  *sdn.Processor
	virtualIDs []string
}

// SDNEnvironmentModel is spec.md §4.10/§4.11's SDN room model: one
// sdn.Processor per connected real source, each of whose
// sdn.NumOutputs virtual streams is registered as its own virtual source
// on a downstream listener model (typically a *HRTFModel), so the room's
// reflections get independently spatialised by the listener's ordinary
// per-source rendering path.
//
// Grounded on
// original_source/include/EnvironmentModels/EnvironmentVirtualSourcesSDNModel.hpp's
// CEnvironmentVirtualSourcesSDNModel: ConnectSoundSource builds a
// CSDNProcessors entry and calls ConnectToListenerModel, which in the
// original registers each SDN output port on the listener via the same
// source-connection machinery real sources use.
type SDNEnvironmentModel struct {
	mu sync.Mutex

	sampleRate    int
	soundSpeedMPS float64
	dimensions    geom.Vector3

	muteDirectPath bool
	muteReverbPath bool

	sources []*sdnSource
}

// NewSDNEnvironmentModel builds a model for a room of the given
// dimensions, both paths unmuted, no sources connected.
func NewSDNEnvironmentModel(sampleRate int, soundSpeedMPS float64, dimensions geom.Vector3) *SDNEnvironmentModel {
	return &SDNEnvironmentModel{sampleRate: sampleRate, soundSpeedMPS: soundSpeedMPS, dimensions: dimensions}
}

// SetWallAbsorption configures wall i's per-band absorption on every
// currently connected source's SDN processor. The values are not kept on
// the model: a source connected afterwards starts with fully reflective
// walls.
func (m *SDNEnvironmentModel) SetWallAbsorption(i int, bands [sdn.NumFreqBands]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		w, err := s.processor.Wall(i)
		if err != nil {
			return err
		}
		if err := w.SetAbsorption(bands); err != nil {
			return err
		}
	}
	return nil
}

// EnableDirectPath/DisableDirectPath and EnableReverbPath/DisableReverbPath
// toggle muting on every connected source's SDN processor.
func (m *SDNEnvironmentModel) EnableDirectPath() { m.setMute(&m.muteDirectPath, false, true) }
func (m *SDNEnvironmentModel) DisableDirectPath() { m.setMute(&m.muteDirectPath, true, true) }
func (m *SDNEnvironmentModel) EnableReverbPath()  { m.setMute(&m.muteReverbPath, false, false) }
func (m *SDNEnvironmentModel) DisableReverbPath() { m.setMute(&m.muteReverbPath, true, false) }

func (m *SDNEnvironmentModel) setMute(flag *bool, mute, direct bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*flag = mute
	for _, s := range m.sources {
		if direct {
			s.processor.MuteDirectPath(mute)
		} else {
			s.processor.MuteReverbPath(mute)
		}
	}
}

func (m *SDNEnvironmentModel) IsDirectPathEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.muteDirectPath
}

func (m *SDNEnvironmentModel) IsReverbPathEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.muteReverbPath
}

// ConnectSource registers a new room processor for sourceID and attaches
// its 7 virtual streams as virtual sources on listenerModel.
func (m *SDNEnvironmentModel) ConnectSource(sourceID string, listenerModel SourceListenerModel) error {
	m.mu.Lock()
	for _, s := range m.sources {
		if s.sourceID == sourceID {
			m.mu.Unlock()
			return brt.NewCondition(brt.KindInvalidParam, "listener.SDNEnvironmentModel.ConnectSource", nil)
		}
	}
	m.mu.Unlock()

	p := sdn.NewProcessor(m.sampleRate, m.soundSpeedMPS, m.dimensions)
	p.MuteDirectPath(m.muteDirectPath)
	p.MuteReverbPath(m.muteReverbPath)
	ids := virtualSourceIDs(sourceID)
	for _, id := range ids {
		if err := listenerModel.ConnectSource(id); err != nil {
			for _, already := range ids {
				if already == id {
					break
				}
				listenerModel.DisconnectSource(already)
			}
			return err
		}
	}

	m.mu.Lock()
	m.sources = append(m.sources, &sdnSource{sourceID: sourceID, processor: p, virtualIDs: ids})
	m.mu.Unlock()
	return nil
}

// DisconnectSource tears down sourceID's room processor and its virtual
// sources on listenerModel.
func (m *SDNEnvironmentModel) DisconnectSource(sourceID string, listenerModel SourceListenerModel) error {
	m.mu.Lock()
	var found *sdnSource
	idx := -1
	for i, s := range m.sources {
		if s.sourceID == sourceID {
			found, idx = s, i
			break
		}
	}
	if found != nil {
		m.sources = append(m.sources[:idx], m.sources[idx+1:]...)
	}
	m.mu.Unlock()

	if found == nil {
		return brt.NewCondition(brt.KindInvalidParam, "listener.SDNEnvironmentModel.DisconnectSource", nil)
	}
	for _, id := range found.virtualIDs {
		listenerModel.DisconnectSource(id)
	}
	return nil
}

// Process runs sourceID's room simulation for one block, renders every
// one of its 7 resulting virtual streams through listenerModel, and sums
// them into one stereo pair.
func (m *SDNEnvironmentModel) Process(sourceID string, input []float64, sourceTransform, listenerTransform geom.Transform, listenerModel SourceListenerModel) (left, right []float64, err error) {
	m.mu.Lock()
	var s *sdnSource
	for _, c := range m.sources {
		if c.sourceID == sourceID {
			s = c
			break
		}
	}
	m.mu.Unlock()

	if s == nil {
		return nil, nil, brt.NewCondition(brt.KindInvalidParam, "listener.SDNEnvironmentModel.Process", nil)
	}

	outs, perr := s.processor.Process(input, sourceTransform.Position, listenerTransform.Position)
	if perr != nil {
		return nil, nil, perr
	}

	left = make([]float64, len(input))
	right = make([]float64, len(input))
	for i, out := range outs {
		virtualTransform := geom.Transform{Position: out.Position}
		l, r, verr := listenerModel.Process(s.virtualIDs[i], out.Samples, virtualTransform, listenerTransform)
		if verr != nil {
			err = verr
			continue
		}
		for n := range left {
			left[n] += l[n]
			right[n] += r[n]
		}
	}
	return left, right, err
}
