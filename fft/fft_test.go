package fft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextPow2(t *testing.T) {
	require.Equal(t, 1, NextPow2(0))
	require.Equal(t, 1, NextPow2(1))
	require.Equal(t, 2, NextPow2(2))
	require.Equal(t, 4, NextPow2(3))
	require.Equal(t, 8, NextPow2(5))
	require.Equal(t, 512, NextPow2(512))
}

func TestFFTIFFTRoundTrip(t *testing.T) {
	input := make([]float64, 16)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * float64(i) / 16)
	}
	freq, err := FFT(input)
	require.NoError(t, err)
	require.Len(t, freq, 2*16)

	time, err := IFFT(freq)
	require.NoError(t, err)
	require.Len(t, time, 16)

	// Input was centered in the padded buffer (no padding needed since 16
	// is already a power of two), so round trip should reproduce it.
	for i := range input {
		require.InDelta(t, input[i], time[i], 1e-9)
	}
}

func TestComplexMulAccumulateMatchesScalarArithmetic(t *testing.T) {
	a := []float64{1, 2, 3, 4} // (1+2i), (3+4i)
	b := []float64{5, 6, 7, 8} // (5+6i), (7+8i)
	y := make([]float64, 4)

	require.NoError(t, ComplexMulAccumulate(a, b, y))

	// (1+2i)(5+6i) = (5-12) + (6+10)i = -7 + 16i
	require.InDelta(t, -7.0, y[0], 1e-9)
	require.InDelta(t, 16.0, y[1], 1e-9)
	// (3+4i)(7+8i) = (21-32) + (24+28)i = -11 + 52i
	require.InDelta(t, -11.0, y[2], 1e-9)
	require.InDelta(t, 52.0, y[3], 1e-9)
}

func TestComplexMulAccumulateAccumulates(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{1, 0}
	y := []float64{10, 10}
	require.NoError(t, ComplexMulAccumulate(a, b, y))
	require.Equal(t, []float64{11, 10}, y)
}

func TestBadSizeErrors(t *testing.T) {
	_, err := FFT(nil)
	require.Error(t, err)

	_, err = IFFT([]float64{1, 2, 3})
	require.Error(t, err)

	err = ComplexMulAccumulate([]float64{1, 2}, []float64{1, 2, 3, 4}, make([]float64, 2))
	require.Error(t, err)
}

func TestFFTConvolutionViaOverlap(t *testing.T) {
	// Linear convolution of a unit impulse with a short kernel reproduces
	// the kernel, exercising FFTPad against the convolution-safe length
	// guarantee of spec.md §4.1.
	kernel := []float64{0.5, 0.25, 0.125}
	impulse := []float64{1, 0, 0, 0, 0, 0, 0, 0}

	kf, err := FFTPad(kernel, len(impulse))
	require.NoError(t, err)
	xf, err := FFTPad(impulse, len(kernel))
	require.NoError(t, err)
	require.Equal(t, len(kf), len(xf))

	y := make([]float64, len(kf))
	require.NoError(t, ComplexMulAccumulate(kf, xf, y))

	out, err := IFFT(y)
	require.NoError(t, err)

	// The impulse is centered, not left-aligned, so just check the kernel
	// energy reappears somewhere in the output with the right peak ratio.
	var maxV float64
	for _, v := range out {
		if math.Abs(v) > maxV {
			maxV = math.Abs(v)
		}
	}
	require.InDelta(t, 0.5, maxV, 1e-6)
}
