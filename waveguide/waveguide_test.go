package waveguide

import (
	"testing"

	"github.com/grupodiana/brt/geom"
	"github.com/stretchr/testify/require"
)

func TestDisabledPassesThroughMostRecent(t *testing.T) {
	w := New(48000, 4, 340)
	in := []float64{1, 2, 3, 4}
	require.NoError(t, w.PushBack(in, geom.Vector3{X: 1}, geom.Zero))
	out, pos, err := w.PopFront(geom.Zero)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Equal(t, geom.Vector3{X: 1}, pos)
}

func TestEnableDisableReturnsMostRecentInput(t *testing.T) {
	w := New(48000, 4, 340)
	in := []float64{1, 2, 3, 4}
	require.NoError(t, w.PushBack(in, geom.Vector3{X: 1}, geom.Zero))
	w.Enable()
	w.Disable()
	out, _, err := w.PopFront(geom.Zero)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestEnabledColdStartsSilentBeforeSourceBlockArrives(t *testing.T) {
	w := New(48000, 4, 340)
	w.Enable()
	in := []float64{1, 1, 1, 1}
	require.NoError(t, w.PushBack(in, geom.Vector3{X: 34}, geom.Zero)) // 4800 samples delay at 48kHz
	out, _, err := w.PopFront(geom.Zero)
	require.NoError(t, err)
	for _, v := range out {
		require.Equal(t, 0.0, v)
	}
}

func TestLinearResamplePreservesEndpoints(t *testing.T) {
	src := []float64{0, 10}
	out, err := linearResample(src, 5)
	require.NoError(t, err)
	require.InDelta(t, 0.0, out[0], 1e-9)
	require.InDelta(t, 10.0, out[4], 1e-9)
}

func TestLinearResampleRejectsNonPositiveLength(t *testing.T) {
	_, err := linearResample([]float64{1, 2}, 0)
	require.Error(t, err)
}
