package ambisonic

import (
	"math"
	"testing"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/stretchr/testify/require"
)

func buildSingleDirectionHRTFService(t *testing.T) *hrtf.Service {
	t.Helper()
	b := hrtf.NewBuilder(48000, 16, 30)
	for el := 0.0; el <= 60.0; el += 30.0 {
		for az := 0.0; az < 360.0; az += 30.0 {
			left := make([]float64, 32)
			right := make([]float64, 32)
			left[0] = 1
			right[0] = 0.5
			require.NoError(t, b.AddMeasurement(geom.Orientation{Azimuth: az, Elevation: el}, 48000, hrtf.HRIR{Left: left, Right: right}))
		}
	}
	svc, err := b.EndSetup()
	require.NoError(t, err)
	return svc
}

func TestChannelCountMatchesWorkedExample(t *testing.T) {
	require.Equal(t, 1, ChannelCount(0))
	require.Equal(t, 4, ChannelCount(1))
	require.Equal(t, 9, ChannelCount(2))
	require.Equal(t, 16, ChannelCount(3))
}

func TestGainsOrder1N3DMatchesWorkedExample(t *testing.T) {
	conv := geom.DefaultConvention
	direction := geom.Vector3{X: 1, Y: 0, Z: 0}
	gains, err := Gains(1, brt.NormalizationN3D, direction, conv)
	require.NoError(t, err)
	require.Len(t, gains, 4)

	require.InDelta(t, 1.0/math.Sqrt(3), gains[0], 1e-6)

	x := direction.Axis(conv.Forward)
	y := -direction.Axis(conv.Right)
	z := direction.Axis(conv.Up)
	require.InDelta(t, y, gains[1], 1e-6)
	require.InDelta(t, z, gains[2], 1e-6)
	require.InDelta(t, x, gains[3], 1e-6)
}

func TestGainsRejectsOrderAboveMax(t *testing.T) {
	_, err := Gains(MaxOrder+1, brt.NormalizationN3D, geom.Vector3{X: 1}, geom.DefaultConvention)
	require.Error(t, err)
}

func TestGainsOrder2N3DAppliesRelativeScaling(t *testing.T) {
	conv := geom.DefaultConvention
	direction := geom.Vector3{X: 0, Y: 0, Z: 1}
	gains, err := Gains(2, brt.NormalizationN3D, direction, conv)
	require.NoError(t, err)
	require.Len(t, gains, 9)
	// ACN 6 is (l=2, m=0): 0.5*(3z^2-1) scaled by sqrt(5).
	z := direction.Axis(conv.Up)
	want := 0.5 * (3*z*z - 1) * math.Sqrt(5)
	require.InDelta(t, want, gains[6], 1e-9)
}

func TestBuildAccumulatesSpeakerContributions(t *testing.T) {
	svc := buildSingleDirectionHRTFService(t)
	layout := []geom.Orientation{{Azimuth: 0, Elevation: 0}}
	table, err := Build(svc, 1, brt.NormalizationN3D, geom.DefaultConvention, layout)
	require.NoError(t, err)
	require.Equal(t, 1, table.Order())

	ch, err := table.Channel(0)
	require.NoError(t, err)
	require.NotEmpty(t, ch.Left)
	require.NotEmpty(t, ch.Right)

	_, err = table.Channel(99)
	require.Error(t, err)
}

func TestEncodeBilateralScalesInputPerChannel(t *testing.T) {
	input := []float64{1, 2, 3, 4}
	left, right, err := EncodeBilateral(1, brt.NormalizationN3D, geom.ListenAxisConvention, input,
		geom.Vector3{X: 1, Y: 0.1, Z: 0}, geom.Vector3{X: 1, Y: -0.1, Z: 0})
	require.NoError(t, err)
	require.Len(t, left, 4)
	require.Len(t, right, 4)
	for c := range left {
		require.Len(t, left[c], len(input))
		require.Len(t, right[c], len(input))
	}
	require.NotEqual(t, left[1], right[1])
}
