package processor

import (
	"testing"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/sos"
	"github.com/stretchr/testify/require"
)

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

func testParams() brt.GlobalParameters {
	return brt.GlobalParameters{SampleRate: 48000, BlockSize: 8, Convention: geom.DefaultConvention}
}

func TestHRTFConvolverRejectsWrongBlockSize(t *testing.T) {
	p := NewHRTFConvolverProcessor(testParams(), 0.0875, 1.95)
	svc := buildTestHRTFService(t)
	left, right, err := p.Process(make([]float64, 4), geom.Transform{}, geom.Transform{}, svc)
	require.Error(t, err)
	require.True(t, brt.IsKind(err, brt.KindBadSize))
	require.Len(t, left, testParams().BlockSize)
	require.Len(t, right, testParams().BlockSize)
}

func TestHRTFConvolverPassesThroughWhenSpatializationOff(t *testing.T) {
	p := NewHRTFConvolverProcessor(testParams(), 0.0875, 1.95)
	p.SetFeatureFlags(brt.FeatureFlags{})
	svc := buildTestHRTFService(t)
	input := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	left, right, err := p.Process(input, geom.Transform{Position: geom.Vector3{X: 0, Y: 0, Z: -2}}, geom.Transform{}, svc)
	require.NoError(t, err)
	require.Equal(t, input, left)
	require.Equal(t, input, right)
}

func TestHRTFConvolverProducesStereoOutput(t *testing.T) {
	p := NewHRTFConvolverProcessor(testParams(), 0.0875, 1.95)
	svc := buildTestHRTFService(t)
	input := make([]float64, 8)
	input[0] = 1
	source := geom.Transform{Position: geom.Vector3{X: 1, Y: 0, Z: -2}}
	listener := geom.Transform{}
	left, right, err := p.Process(input, source, listener, svc)
	require.NoError(t, err)
	require.Len(t, left, 8)
	require.Len(t, right, 8)
}

func TestHRTFConvolverCoincidentPositionsReportsDivByZero(t *testing.T) {
	p := NewHRTFConvolverProcessor(testParams(), 0.0875, 1.95)
	svc := buildTestHRTFService(t)
	input := make([]float64, 8)
	same := geom.Transform{Position: geom.Vector3{X: 1, Y: 2, Z: 3}}
	_, _, err := p.Process(input, same, same, svc)
	require.Error(t, err)
	require.True(t, brt.IsKind(err, brt.KindDivByZero))
}

func TestNearFieldProcessorPassesThroughWhenDisabled(t *testing.T) {
	p := NewNearFieldProcessor()
	p.SetEnabled(false)
	left := []float64{1, 2, 3}
	right := []float64{4, 5, 6}
	outLeft, outRight, err := p.Process(left, right, 0.1, 0, nil)
	require.NoError(t, err)
	require.Equal(t, left, outLeft)
	require.Equal(t, right, outRight)
}

func TestNearFieldProcessorAppliesCascade(t *testing.T) {
	b := sos.NewBuilder()
	identity := sos.Cascade{1, 0, 0, 1, 0, 0}
	require.NoError(t, b.AddEntry(brt.EarLeft, 100, 0, identity))
	require.NoError(t, b.AddEntry(brt.EarRight, 100, 0, identity))
	svc, err := b.EndSetup()
	require.NoError(t, err)

	p := NewNearFieldProcessor()
	left := []float64{1, 2, 3}
	right := []float64{4, 5, 6}
	outLeft, outRight, err := p.Process(left, right, 0.1, 0, svc)
	require.NoError(t, err)
	require.InDeltaSlice(t, left, outLeft, 1e-9)
	require.InDeltaSlice(t, right, outRight, 1e-9)
}

func TestAmbisonicEncoderProcessorZeroOrderWhenSpatializationOff(t *testing.T) {
	p := NewAmbisonicEncoderProcessor(geom.DefaultConvention, 2, brt.NormalizationN3D, 0.0875, 1.95)
	p.SetFeatureFlags(brt.FeatureFlags{})
	input := []float64{1, 2, 3}
	left, right, err := p.Process(input, geom.Transform{}, geom.Transform{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Len(t, right, 1)
}

func TestAmbisonicEncoderProcessorEncodesDirection(t *testing.T) {
	p := NewAmbisonicEncoderProcessor(geom.DefaultConvention, 1, brt.NormalizationN3D, 0.0875, 1.95)
	input := []float64{1, 1, 1, 1}
	source := geom.Transform{Position: geom.Vector3{X: 2, Y: 0, Z: -2}}
	listener := geom.Transform{}
	left, right, err := p.Process(input, source, listener)
	require.NoError(t, err)
	require.Len(t, left, 4)
	require.Len(t, right, 4)
}

func TestAmbisonicConvolverProcessorSumsChannels(t *testing.T) {
	svc := buildTestHRTFService(t)
	table, err := ambisonic.Build(svc, 1, brt.NormalizationN3D, geom.DefaultConvention, ambisonic.DefaultSpeakerLayout())
	require.NoError(t, err)

	p := NewAmbisonicConvolverProcessor(testParams(), brt.EarLeft)
	require.NoError(t, p.Setup(table))

	channels := make([][]float64, 4)
	for c := range channels {
		channels[c] = make([]float64, 8)
		channels[c][0] = 1
	}
	out, err := p.Process(channels)
	require.NoError(t, err)
	require.Len(t, out, 8)
}

func TestAmbisonicConvolverProcessorRejectsChannelCountMismatch(t *testing.T) {
	svc := buildTestHRTFService(t)
	table, err := ambisonic.Build(svc, 1, brt.NormalizationN3D, geom.DefaultConvention, ambisonic.DefaultSpeakerLayout())
	require.NoError(t, err)

	p := NewAmbisonicConvolverProcessor(testParams(), brt.EarRight)
	require.NoError(t, p.Setup(table))

	_, err = p.Process(make([][]float64, 3))
	require.Error(t, err)
	require.True(t, brt.IsKind(err, brt.KindBadSize))
}
