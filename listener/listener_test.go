package listener

import (
	"testing"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/sdn"
	"github.com/stretchr/testify/require"
)

func testParams() brt.GlobalParameters {
	return brt.GlobalParameters{SampleRate: 48000, BlockSize: 8, Convention: geom.DefaultConvention}
}

func buildTestHRTFService(t *testing.T) *hrtf.Service {
	t.Helper()
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
	return svc
}

func TestHRTFModelRejectsSampleRateMismatch(t *testing.T) {
	m := NewHRTFModel(testParams(), 0.0875, 1.95)
	b := hrtf.NewBuilder(44100, 8, 30)
	require.NoError(t, b.AddMeasurement(geom.Orientation{}, 44100, hrtf.HRIR{Left: make([]float64, 16), Right: make([]float64, 16)}))
	svc, err := b.EndSetup()
	require.NoError(t, err)
	require.Error(t, m.SetHRTF(svc))
}

func TestHRTFModelProcessUnknownSourceFails(t *testing.T) {
	m := NewHRTFModel(testParams(), 0.0875, 1.95)
	_, _, err := m.Process("missing", make([]float64, 8), geom.Transform{}, geom.Transform{})
	require.Error(t, err)
}

func TestHRTFModelConnectProcessDisconnect(t *testing.T) {
	m := NewHRTFModel(testParams(), 0.0875, 1.95)
	require.NoError(t, m.SetHRTF(buildTestHRTFService(t)))
	require.NoError(t, m.ConnectSource("src1"))
	require.Error(t, m.ConnectSource("src1"))

	input := make([]float64, 8)
	input[0] = 1
	left, right, err := m.Process("src1", input, geom.Transform{Position: geom.Vector3{X: 1, Y: 0, Z: -2}}, geom.Transform{})
	require.NoError(t, err)
	require.Len(t, left, 8)
	require.Len(t, right, 8)

	require.NoError(t, m.DisconnectSource("src1"))
	require.Error(t, m.DisconnectSource("src1"))
}

func TestHRTFModelDisabledProducesSilence(t *testing.T) {
	m := NewHRTFModel(testParams(), 0.0875, 1.95)
	require.NoError(t, m.SetHRTF(buildTestHRTFService(t)))
	require.NoError(t, m.ConnectSource("src1"))
	m.DisableModel()
	require.False(t, m.IsModelEnabled())

	input := make([]float64, 8)
	input[0] = 1
	left, right, err := m.Process("src1", input, geom.Transform{Position: geom.Vector3{X: 1}}, geom.Transform{})
	require.NoError(t, err)
	require.Equal(t, make([]float64, 8), left)
	require.Equal(t, make([]float64, 8), right)
}

func TestEnvironmentBRIRModelForcesITDAndParallaxOff(t *testing.T) {
	m := NewEnvironmentBRIRModel(testParams(), 0.0875, 1.95)
	f := m.FeatureFlags()
	require.False(t, f.ITD)
	require.False(t, f.Parallax)

	m.SetFeatureFlags(brt.DefaultFeatureFlags())
	f = m.FeatureFlags()
	require.False(t, f.ITD)
	require.False(t, f.Parallax)
	require.True(t, f.Spatialization)
}

func TestEnvironmentBRIRModelUsesNearestTable(t *testing.T) {
	m := NewEnvironmentBRIRModel(testParams(), 0.0875, 1.95)
	table := hrtf.NewHRBRIRTable()
	table.Add(geom.Vector3{}, buildTestHRTFService(t))
	m.SetHRBRIR(table)
	require.NoError(t, m.ConnectSource("src1"))

	input := make([]float64, 8)
	input[0] = 1
	left, right, err := m.Process("src1", input, geom.Transform{Position: geom.Vector3{X: 1, Y: 0, Z: -2}}, geom.Transform{})
	require.NoError(t, err)
	require.Len(t, left, 8)
	require.Len(t, right, 8)
}

func TestEnvironmentBRIRModelNoTableIsSilent(t *testing.T) {
	m := NewEnvironmentBRIRModel(testParams(), 0.0875, 1.95)
	require.NoError(t, m.ConnectSource("src1"))
	left, right, err := m.Process("src1", make([]float64, 8), geom.Transform{Position: geom.Vector3{X: 1}}, geom.Transform{})
	require.NoError(t, err)
	require.Equal(t, make([]float64, 8), left)
	require.Equal(t, make([]float64, 8), right)
}

func TestAmbisonicModelRejectsOrderMismatchedTable(t *testing.T) {
	m := NewAmbisonicModel(testParams(), 0.0875, 1.95, 2, brt.NormalizationN3D)
	svc := buildTestHRTFService(t)
	table, err := ambisonic.Build(svc, 1, brt.NormalizationN3D, geom.DefaultConvention, ambisonic.DefaultSpeakerLayout())
	require.NoError(t, err)
	require.Error(t, m.SetAmbisonicIR(table))
}

func TestAmbisonicModelProcessSumsSources(t *testing.T) {
	m := NewAmbisonicModel(testParams(), 0.0875, 1.95, 1, brt.NormalizationN3D)
	svc := buildTestHRTFService(t)
	table, err := ambisonic.Build(svc, 1, brt.NormalizationN3D, geom.DefaultConvention, ambisonic.DefaultSpeakerLayout())
	require.NoError(t, err)
	require.NoError(t, m.SetAmbisonicIR(table))

	require.NoError(t, m.ConnectSource("src1"))
	require.NoError(t, m.ConnectSource("src2"))

	input := make([]float64, 8)
	input[0] = 1
	inputs := map[string]SourceInput{
		"src1": {Samples: input, Transform: geom.Transform{Position: geom.Vector3{X: 1, Y: 0, Z: -2}}},
		"src2": {Samples: input, Transform: geom.Transform{Position: geom.Vector3{X: -1, Y: 0, Z: -2}}},
	}
	left, right, err := m.Process(inputs, geom.Transform{})
	require.NoError(t, err)
	require.Len(t, left, 8)
	require.Len(t, right, 8)
}

func TestAmbisonicModelNoTableIsSilent(t *testing.T) {
	m := NewAmbisonicModel(testParams(), 0.0875, 1.95, 1, brt.NormalizationN3D)
	require.NoError(t, m.ConnectSource("src1"))
	left, right, err := m.Process(map[string]SourceInput{}, geom.Transform{})
	require.NoError(t, err)
	require.Equal(t, make([]float64, 8), left)
	require.Equal(t, make([]float64, 8), right)
}

func TestSDNEnvironmentModelConnectsVirtualSources(t *testing.T) {
	listenerModel := NewHRTFModel(testParams(), 0.0875, 1.95)
	require.NoError(t, listenerModel.SetHRTF(buildTestHRTFService(t)))

	env := NewSDNEnvironmentModel(48000, 343, geom.Vector3{X: 10, Y: 10, Z: 10})
	require.NoError(t, env.ConnectSource("src1", listenerModel))
	require.Equal(t, sdn.NumOutputs, len(listenerModel.sources))

	input := make([]float64, 8)
	input[0] = 1
	left, right, err := env.Process("src1", input, geom.Transform{Position: geom.Vector3{X: 2, Y: 5, Z: 5}}, geom.Transform{Position: geom.Vector3{X: 8, Y: 5, Z: 5}}, listenerModel)
	require.NoError(t, err)
	require.Len(t, left, 8)
	require.Len(t, right, 8)

	require.NoError(t, env.DisconnectSource("src1", listenerModel))
	require.Equal(t, 0, len(listenerModel.sources))
}

func TestSDNEnvironmentModelMuteDirectPath(t *testing.T) {
	env := NewSDNEnvironmentModel(48000, 343, geom.Vector3{X: 10, Y: 10, Z: 10})
	require.True(t, env.IsDirectPathEnabled())
	env.DisableDirectPath()
	require.False(t, env.IsDirectPathEnabled())
}
