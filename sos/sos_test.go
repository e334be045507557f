package sos

import (
	"testing"

	"github.com/grupodiana/brt"
	"github.com/stretchr/testify/require"
)

func flatCascade(gain float64) Cascade {
	return Cascade{gain, 0, 0, 1, 0, 0}
}

func TestSingleReceiverMirroring(t *testing.T) {
	b := NewBuilder()
	for d := 100; d <= 500; d += 100 {
		for az := -90; az <= 90; az += 10 {
			require.NoError(t, b.AddEntry(brt.EarLeft, d, az, flatCascade(1.0+float64(az)/100)))
		}
	}
	svc, err := b.EndSetup()
	require.NoError(t, err)

	left, err := svc.Lookup(brt.EarRight, 0.3, 30)
	require.NoError(t, err)
	right, err := svc.Lookup(brt.EarLeft, 0.3, -30)
	require.NoError(t, err)
	require.Equal(t, right, left)
}

func TestLookupRejectsOutOfRangeAzimuth(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddEntry(brt.EarLeft, 100, 0, flatCascade(1)))
	svc, err := b.EndSetup()
	require.NoError(t, err)

	_, err = svc.Lookup(brt.EarLeft, 0.1, 120)
	require.Error(t, err)
	require.True(t, brt.IsKind(err, brt.KindInvalidParam))
}

func TestStepInferenceQuantisesToNearestKey(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddEntry(brt.EarLeft, 100, 0, flatCascade(1)))
	require.NoError(t, b.AddEntry(brt.EarLeft, 300, 0, flatCascade(2)))
	svc, err := b.EndSetup()
	require.NoError(t, err)
	require.Equal(t, 200, svc.distanceStep)

	c, err := svc.Lookup(brt.EarLeft, 0.15, 0)
	require.NoError(t, err)
	require.Equal(t, flatCascade(1), c)
}

func TestApproximateILD(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddEntry(brt.EarLeft, 100, 30, flatCascade(2.0)))
	require.NoError(t, b.AddEntry(brt.EarRight, 100, 30, flatCascade(1.0)))
	svc, err := b.EndSetup()
	require.NoError(t, err)

	ratio, err := svc.ApproximateILD(0.1, 30)
	require.NoError(t, err)
	require.InDelta(t, 2.0, ratio, 1e-9)
}
