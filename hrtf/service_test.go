package hrtf

import (
	"testing"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
	"github.com/stretchr/testify/require"
)

func buildTestService(t *testing.T) *Service {
	t.Helper()
	const irLen = 32
	const l = 16
	b := NewBuilder(48000, l, 30)

	for el := 0.0; el <= 60.0; el += 30.0 {
		for az := 0.0; az < 360.0; az += 30.0 {
			left := make([]float64, irLen)
			right := make([]float64, irLen)
			left[0] = 1
			right[0] = 0.5
			require.NoError(t, b.AddMeasurement(geom.Orientation{Azimuth: az, Elevation: el}, 48000, HRIR{Left: left, Right: right}))
		}
	}

	svc, err := b.EndSetup()
	require.NoError(t, err)
	return svc
}

func TestPartitionedIRHasExactlyKSubfiltersOfLengthL(t *testing.T) {
	svc := buildTestService(t)
	p, err := svc.InterpolatePartitioned(15, 15)
	require.NoError(t, err)
	require.Len(t, p.LeftPartitions, svc.NumSubfilters())
	require.Len(t, p.RightPartitions, svc.NumSubfilters())
	for _, sub := range p.LeftPartitions {
		require.Len(t, sub, 4*svc.PartitionLength())
	}
}

func TestAzimuth360EqualsAzimuth0(t *testing.T) {
	svc := buildTestService(t)
	a, err := svc.InterpolatePartitioned(0, 30)
	require.NoError(t, err)
	b, err := svc.InterpolatePartitioned(360, 30)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestPoleIndependentOfAzimuth(t *testing.T) {
	svc := buildTestService(t)
	a, err := svc.InterpolatePartitioned(10, 90)
	require.NoError(t, err)
	b, err := svc.InterpolatePartitioned(250, 90)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestEndSetupWithoutMeasurementsIsNotSet(t *testing.T) {
	b := NewBuilder(48000, 16, 30)
	_, err := b.EndSetup()
	require.Error(t, err)
	require.True(t, brt.IsKind(err, brt.KindNotSet))
}

func TestEarSelectionMatchesBundledIR(t *testing.T) {
	svc := buildTestService(t)
	left, leftDelay, err := svc.IR(brt.EarLeft, 15, 15)
	require.NoError(t, err)
	p, err := svc.InterpolatePartitioned(15, 15)
	require.NoError(t, err)
	require.Equal(t, p.LeftPartitions, left)
	require.Equal(t, p.LeftDelay, leftDelay)
}

func TestBarycentricConvexCombinationIsExact(t *testing.T) {
	a := geom.Orientation{Azimuth: 0, Elevation: 0}
	bO := geom.Orientation{Azimuth: 30, Elevation: 0}
	c := geom.Orientation{Azimuth: 0, Elevation: 30}
	target := geom.Orientation{Azimuth: 10, Elevation: 10}

	w, ok := barycentric(target, a, bO, c)
	require.True(t, ok)
	require.True(t, w.isConvex())
	require.InDelta(t, 1.0, w.Alpha+w.Beta+w.Gamma, 1e-9)

	ha := HRIR{Left: []float64{1, 2}, Right: []float64{3, 4}}
	hb := HRIR{Left: []float64{5, 6}, Right: []float64{7, 8}}
	hc := HRIR{Left: []float64{9, 10}, Right: []float64{11, 12}}
	mixed := mixHRIR(w, ha, hb, hc)
	for i := range mixed.Left {
		expect := w.Alpha*ha.Left[i] + w.Beta*hb.Left[i] + w.Gamma*hc.Left[i]
		require.InDelta(t, expect, mixed.Left[i], 1e-9)
	}
}
