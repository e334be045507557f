package ports

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/listener"
)

// FeatureFlagsModel is satisfied by every spec.md §4.11 listener model:
// the common subset of their APIs a Dispatcher needs to route the
// AddressEnable* and AddressResetBuffers commands.
type FeatureFlagsModel interface {
	SetFeatureFlags(f brt.FeatureFlags)
	FeatureFlags() brt.FeatureFlags
	ResetProcessorBuffers()
}

// AmbisonicConfigurable is satisfied by *listener.AmbisonicModel: the
// extra two setters only the Ambisonic listener exposes.
type AmbisonicConfigurable interface {
	SetAmbisonicOrder(order int) error
	SetAmbisonicNormalization(norm brt.AmbisonicNormalization)
}

// Dispatcher routes Commands by ListenerID onto a registered listener
// model's plain Go methods, the runtime counterpart of the original's
// CEntryPointManager-based command routing (original_source's per-model
// command handlers walk a registry by listener name and call the matching
// setter; this type is that registry plus that walk, expressed as two Go
// maps instead of a string-keyed virtual dispatch table).
type Dispatcher struct {
	models     map[string]FeatureFlagsModel
	ambisonics map[string]AmbisonicConfigurable
}

// NewDispatcher builds an empty command router.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		models:     make(map[string]FeatureFlagsModel),
		ambisonics: make(map[string]AmbisonicConfigurable),
	}
}

// Register associates listenerID with a model satisfying FeatureFlagsModel
// (*listener.HRTFModel, *listener.AmbisonicModel and
// *listener.EnvironmentBRIRModel all qualify). If model also satisfies
// AmbisonicConfigurable it is additionally registered for the
// Ambisonic-only addresses.
func (d *Dispatcher) Register(listenerID string, model FeatureFlagsModel) {
	d.models[listenerID] = model
	if ac, ok := model.(AmbisonicConfigurable); ok {
		d.ambisonics[listenerID] = ac
	}
}

// Unregister removes listenerID from the router.
func (d *Dispatcher) Unregister(listenerID string) {
	delete(d.models, listenerID)
	delete(d.ambisonics, listenerID)
}

// Dispatch routes cmd to its ListenerID's registered model, per the
// recognised address list of spec.md §6. An unregistered ListenerID or an
// unrecognised Address is reported as brt.KindInvalidParam.
func (d *Dispatcher) Dispatch(cmd Command) error {
	model, ok := d.models[cmd.ListenerID]
	if !ok {
		return brt.NewCondition(brt.KindInvalidParam, "ports.Dispatcher.Dispatch", nil)
	}

	switch cmd.Address {
	case AddressEnableSpatialization:
		f := model.FeatureFlags()
		f.Spatialization = cmd.Bool
		model.SetFeatureFlags(f)
	case AddressEnableInterpolation:
		f := model.FeatureFlags()
		f.Interpolation = cmd.Bool
		model.SetFeatureFlags(f)
	case AddressEnableNearFieldEffect:
		f := model.FeatureFlags()
		f.NearField = cmd.Bool
		model.SetFeatureFlags(f)
	case AddressEnableITD:
		f := model.FeatureFlags()
		f.ITD = cmd.Bool
		model.SetFeatureFlags(f)
	case AddressEnableParallaxCorrection:
		f := model.FeatureFlags()
		f.Parallax = cmd.Bool
		model.SetFeatureFlags(f)
	case AddressResetBuffers:
		model.ResetProcessorBuffers()
	case AddressSetAmbisonicsOrder:
		ac, ok := d.ambisonics[cmd.ListenerID]
		if !ok {
			return brt.NewCondition(brt.KindInvalidParam, "ports.Dispatcher.Dispatch", nil)
		}
		return ac.SetAmbisonicOrder(cmd.Int)
	case AddressSetAmbisonicsNorm:
		ac, ok := d.ambisonics[cmd.ListenerID]
		if !ok {
			return brt.NewCondition(brt.KindInvalidParam, "ports.Dispatcher.Dispatch", nil)
		}
		norm, err := brt.ParseAmbisonicNormalization(cmd.String)
		if err != nil {
			return err
		}
		ac.SetAmbisonicNormalization(norm)
	default:
		return brt.NewCondition(brt.KindInvalidParam, "ports.Dispatcher.Dispatch", nil)
	}
	return nil
}

var (
	_ FeatureFlagsModel     = (*listener.HRTFModel)(nil)
	_ FeatureFlagsModel     = (*listener.AmbisonicModel)(nil)
	_ FeatureFlagsModel     = (*listener.EnvironmentBRIRModel)(nil)
	_ AmbisonicConfigurable = (*listener.AmbisonicModel)(nil)
)
