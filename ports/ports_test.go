package ports

import (
	"testing"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/listener"
	"github.com/stretchr/testify/require"
)

func TestSamplesPortFanOut(t *testing.T) {
	exit := &SamplesExitPoint{}
	a := NewEntryPoint[[]float64]("a")
	b := NewEntryPoint[[]float64]("b")
	exit.Attach(a)
	exit.Attach(b)
	require.Equal(t, 2, exit.NumConnections())

	var updated []string
	b.OnUpdate = func(id string, v []float64) { updated = append(updated, id) }

	exit.Send([]float64{1, 2, 3})
	require.Equal(t, []float64{1, 2, 3}, a.Data())
	require.Equal(t, []float64{1, 2, 3}, b.Data())
	require.Equal(t, []string{"b"}, updated)

	exit.Detach(a)
	require.Equal(t, 1, exit.NumConnections())
}

func TestTransformPort(t *testing.T) {
	exit := &TransformExitPoint{}
	e := NewEntryPoint[geom.Transform]("listener")
	exit.Attach(e)
	tr := geom.Transform{Position: geom.Vector3{X: 1, Y: 2, Z: 3}}
	exit.Send(tr)
	require.Equal(t, tr, e.Data())
}

func newTestHRTFModel(t *testing.T) *listener.HRTFModel {
	t.Helper()
	params := brt.GlobalParameters{SampleRate: 48000, BlockSize: 8, Convention: geom.DefaultConvention}
	m := listener.NewHRTFModel(params, 0.0875, 1.95)
	b := hrtf.NewBuilder(48000, 8, 30)
	for el := 0.0; el <= 60.0; el += 30.0 {
		for az := 0.0; az < 360.0; az += 30.0 {
			left := make([]float64, 16)
			right := make([]float64, 16)
			left[0] = 1
			right[0] = 0.5
			require.NoError(t, b.AddMeasurement(geom.Orientation{Azimuth: az, Elevation: el}, 48000, hrtf.HRIR{Left: left, Right: right}))
		}
	}
	svc, err := b.EndSetup()
	require.NoError(t, err)
	require.NoError(t, m.SetHRTF(svc))
	return m
}

func TestDispatcherRoutesFeatureFlags(t *testing.T) {
	m := newTestHRTFModel(t)
	d := NewDispatcher()
	d.Register("main", m)

	require.NoError(t, d.Dispatch(EnableCommand(AddressEnableITD, "main", false)))
	require.False(t, m.FeatureFlags().ITD)
	require.True(t, m.FeatureFlags().Spatialization)

	require.NoError(t, d.Dispatch(EnableCommand(AddressEnableSpatialization, "main", false)))
	require.False(t, m.FeatureFlags().Spatialization)
}

func TestDispatcherResetBuffers(t *testing.T) {
	m := newTestHRTFModel(t)
	d := NewDispatcher()
	d.Register("main", m)
	require.NoError(t, d.Dispatch(ResetBuffersCommand("main")))
}

func TestDispatcherUnknownListenerFails(t *testing.T) {
	d := NewDispatcher()
	require.Error(t, d.Dispatch(EnableCommand(AddressEnableITD, "missing", true)))
}

func TestDispatcherAmbisonicOnlyAddressesRejectNonAmbisonicModel(t *testing.T) {
	m := newTestHRTFModel(t)
	d := NewDispatcher()
	d.Register("main", m)
	require.Error(t, d.Dispatch(AmbisonicsOrderCommand("main", 2)))
}

func TestDispatcherAmbisonicModel(t *testing.T) {
	params := brt.GlobalParameters{SampleRate: 48000, BlockSize: 8, Convention: geom.DefaultConvention}
	m := listener.NewAmbisonicModel(params, 0.0875, 1.95, 1, brt.NormalizationN3D)
	d := NewDispatcher()
	d.Register("main", m)

	require.NoError(t, d.Dispatch(AmbisonicsOrderCommand("main", 2)))
	require.NoError(t, d.Dispatch(AmbisonicsNormalizationCommand("main", "SN3D")))
	require.Error(t, d.Dispatch(AmbisonicsNormalizationCommand("main", "bogus")))
}
