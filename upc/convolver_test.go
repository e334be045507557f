package upc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// directConvolve is a reference O(n*m) linear convolution used to check the
// UPC's frequency-domain result against spec.md §8's tolerance of 1e-5.
func directConvolve(x, h []float64) []float64 {
	out := make([]float64, len(x)+len(h)-1)
	for i, xv := range x {
		if xv == 0 {
			continue
		}
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}
	return out
}

func TestPartitionIRShapeInvariant(t *testing.T) {
	ir := make([]float64, 37)
	for i := range ir {
		ir[i] = float64(i)
	}
	l := 16
	partitions, err := PartitionIR(ir, l)
	require.NoError(t, err)
	k := (len(ir) + l - 1) / l
	require.Len(t, partitions, k)
	for _, p := range partitions {
		require.Len(t, p, 4*l)
	}
}

func TestConvolverMatchesLinearConvolutionForStaticIR(t *testing.T) {
	const blockSize = 32
	const l = blockSize
	const irLen = 3 * l
	rng := rand.New(rand.NewSource(1))

	ir := make([]float64, irLen)
	for i := range ir {
		ir[i] = rng.NormFloat64() * 0.1
	}
	partitions, err := PartitionIR(ir, l)
	require.NoError(t, err)
	k := len(partitions)

	var c Convolver
	require.NoError(t, c.Setup(blockSize, l, k, true))
	require.NoError(t, c.SetIR(partitions))

	numBlocks := 6
	signal := make([]float64, numBlocks*blockSize)
	for i := range signal {
		signal[i] = rng.NormFloat64()
	}

	expected := directConvolve(signal, ir)

	var got []float64
	for b := 0; b < numBlocks; b++ {
		require.NoError(t, c.SetIR(partitions)) // freeze the same IR every block
		out, err := c.Process(signal[b*blockSize : (b+1)*blockSize])
		require.NoError(t, err)
		got = append(got, out...)
	}

	// The UPC output lines up with the linear convolution sample for sample
	// (no added latency); the check covers samples from (K-1)*L, where all
	// K partitions contribute, up to the start of the last block.
	delay := (k - 1) * l
	for i := delay; i < len(got)-l; i++ {
		require.InDeltaf(t, expected[i], got[i], 1e-5, "sample %d", i)
	}
}

func TestConvolverZeroFillsBeforeSetup(t *testing.T) {
	var c Convolver
	out, err := c.Process(make([]float64, 8))
	require.Error(t, err)
	for _, v := range out {
		require.Equal(t, 0.0, v)
	}
}

func TestConvolverRejectsBlockSizeMismatch(t *testing.T) {
	var c Convolver
	require.NoError(t, c.Setup(16, 16, 1, false))
	_, err := c.Process(make([]float64, 8))
	require.Error(t, err)
}

func TestConvolverResetClearsHistory(t *testing.T) {
	const blockSize = 16
	ir := make([]float64, blockSize)
	ir[0] = 1
	partitions, err := PartitionIR(ir, blockSize)
	require.NoError(t, err)

	var c Convolver
	require.NoError(t, c.Setup(blockSize, blockSize, 1, false))
	require.NoError(t, c.SetIR(partitions))

	in := make([]float64, blockSize)
	for i := range in {
		in[i] = 1
	}
	_, err = c.Process(in)
	require.NoError(t, err)

	c.Reset()
	for _, v := range c.storageInput {
		require.Equal(t, 0.0, v)
	}
}

func TestConvolverWithIRMemoryFreezesPerBlock(t *testing.T) {
	// A time-varying IR (changes mid-stream) must use the IR snapshot that
	// was in effect when the corresponding input block arrived, not the
	// most recent one — spec.md §4.2's moving-source guarantee.
	const blockSize = 16
	irA := make([]float64, blockSize)
	irA[0] = 1
	irB := make([]float64, blockSize)
	irB[0] = 2

	partA, err := PartitionIR(irA, blockSize)
	require.NoError(t, err)
	partB, err := PartitionIR(irB, blockSize)
	require.NoError(t, err)

	var c Convolver
	require.NoError(t, c.Setup(blockSize, blockSize, 1, true))

	in := make([]float64, blockSize)
	in[0] = 1

	require.NoError(t, c.SetIR(partA))
	out1, err := c.Process(in)
	require.NoError(t, err)
	require.InDelta(t, 1.0, out1[0], 1e-6)

	require.NoError(t, c.SetIR(partB))
	out2, err := c.Process(in)
	require.NoError(t, err)
	require.InDelta(t, 2.0, out2[0], 1e-6)
}

func TestIsPow2Helper(t *testing.T) {
	// Sanity check of the isPow2 helper on one power of two and one non-power.
	require.True(t, isPow2(32))
	require.False(t, isPow2(33))
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 && math.Log2(float64(n)) == math.Trunc(math.Log2(float64(n))) }
