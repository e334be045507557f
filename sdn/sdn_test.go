package sdn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/grupodiana/brt/geom"
	"github.com/stretchr/testify/require"
)

func TestReflectionPointSatisfiesSpecularReflectionLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	room := geom.Vector3{X: 10, Y: 10, Z: 10}
	normal := geom.Vector3{X: 1} // outward normal of the X1 (x=room.X) plane

	for trial := 0; trial < 200; trial++ {
		source := geom.Vector3{X: rng.Float64() * room.X, Y: rng.Float64() * room.Y, Z: rng.Float64() * room.Z}
		listener := geom.Vector3{X: rng.Float64() * room.X, Y: rng.Float64() * room.Y, Z: rng.Float64() * room.Z}

		refl := reflectionPoint(source, listener, wallX1, room.X)
		require.InDelta(t, room.X, refl.X, 1e-4)

		dIn := refl.Sub(source).Normalized()
		dOut := listener.Sub(refl).Normalized()

		// Law of specular reflection: d_out = d_in - 2(d_in . n)n.
		expected := dIn.Sub(normal.Scale(2 * dIn.Dot(normal)))
		require.InDelta(t, 0.0, math.Abs(expected.X-dOut.X), 1e-4)
		require.InDelta(t, 0.0, math.Abs(expected.Y-dOut.Y), 1e-4)
		require.InDelta(t, 0.0, math.Abs(expected.Z-dOut.Z), 1e-4)
	}
}

func TestAnechoicRoomReverbIsExactlyZero(t *testing.T) {
	p := NewProcessor(48000, 343, geom.Vector3{X: 10, Y: 10, Z: 10})
	for i := 0; i < numWalls; i++ {
		w, err := p.Wall(i)
		require.NoError(t, err)
		require.NoError(t, w.SetAbsorption([NumFreqBands]float64{1, 1, 1, 1, 1, 1, 1, 1}))
	}

	input := make([]float64, 64)
	input[0] = 1
	source := geom.Vector3{X: 5, Y: 5, Z: 5}
	listener := geom.Vector3{X: 2, Y: 5, Z: 5}

	outs, err := p.Process(input, source, listener)
	require.NoError(t, err)

	for i := 0; i < numWalls; i++ {
		for _, v := range outs[i].Samples {
			require.Equal(t, 0.0, v)
		}
	}
}

func TestOutOfBoundsProducesSilence(t *testing.T) {
	p := NewProcessor(48000, 343, geom.Vector3{X: 10, Y: 10, Z: 10})
	input := make([]float64, 16)
	for i := range input {
		input[i] = 1
	}
	outs, err := p.Process(input, geom.Vector3{X: -1, Y: 5, Z: 5}, geom.Vector3{X: 5, Y: 5, Z: 5})
	require.NoError(t, err)
	for _, o := range outs {
		for _, v := range o.Samples {
			require.Equal(t, 0.0, v)
		}
	}
}

func TestMuteDirectPathZeroesDirectStream(t *testing.T) {
	p := NewProcessor(48000, 343, geom.Vector3{X: 10, Y: 10, Z: 10})
	p.MuteDirectPath(true)
	input := make([]float64, 32)
	input[0] = 1
	outs, err := p.Process(input, geom.Vector3{X: 5, Y: 5, Z: 5}, geom.Vector3{X: 2, Y: 5, Z: 5})
	require.NoError(t, err)
	for _, v := range outs[numWalls].Samples {
		require.Equal(t, 0.0, v)
	}
}

func TestWallFitProducesIdentityForFullyReflectiveWall(t *testing.T) {
	w := NewWall()
	require.InDelta(t, 1.0, w.Filter(1.0), 1e-6)
}
