// Package upc implements the partitioned uniform convolver of spec.md §4.2:
// overlap-save convolution of a streaming mono signal against a
// block-partitioned impulse response in the frequency domain, with
// optional per-block IR replacement for time-varying (moving-source)
// filters.
//
// Method naming (Setup/Process/Reset) and the ring-buffer shift-vs-index
// discipline follow other_examples' CWBudde-algo-dsp partitioned
// convolution file; the partitioning scheme itself is spec.md §4.2's
// uniform (fixed-length) partitioning rather than that file's
// exponentially-growing non-uniform stages.
package upc

import (
	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/fft"
)

// PartitionIR splits a time-domain impulse response into K = ceil(len(ir)/L)
// sub-filters of length L (one all-zero sub-filter for an empty ir),
// zero-pads each to 2L and FFTs it, returning K
// interleaved-complex partitions of length 4L floats (2L complex bins),
// per spec.md §3's "HRIR-partitioned record".
func PartitionIR(ir []float64, l int) ([][]float64, error) {
	if l <= 0 {
		return nil, brt.NewCondition(brt.KindBadSize, "upc.PartitionIR", nil)
	}
	k := (len(ir) + l - 1) / l
	if k == 0 {
		k = 1
	}
	partitions := make([][]float64, k)
	padded := make([]float64, 2*l)
	for i := 0; i < k; i++ {
		for j := range padded {
			padded[j] = 0
		}
		start := i * l
		end := start + l
		if end > len(ir) {
			end = len(ir)
		}
		if start < end {
			copy(padded, ir[start:end])
		}
		freq, err := fft.FFT(padded)
		if err != nil {
			return nil, err
		}
		partitions[i] = freq
	}
	return partitions, nil
}

// Convolver streams mono samples through a block-partitioned IR in the
// frequency domain per spec.md §4.2. The engine's audio block size (B) must
// equal the subfilter length (L) the IR was partitioned at — spec.md §4.2
// notes this is "typically" the case, and this implementation requires it
// so that the "2B-length time vector" of the per-block algorithm lines up
// exactly with the "2L" zero-padded subfilter window; supporting B < L
// (several processing blocks per partition) is not needed by any caller in
// this engine, since every processor configures its UPCs with B == L.
type Convolver struct {
	blockSize int // B == L
	k         int // number of subfilters
	fftLen    int // interleaved-complex buffer length, 4L floats

	storageInput []float64 // 2B most recent time samples

	inputFFT   [][]float64 // ring of K input-FFT blocks
	writeIndex int

	withIRMemory bool
	irPartitions [][]float64   // current/live IR (used when !withIRMemory)
	irHistory    [][][]float64 // ring of K IR snapshots (used when withIRMemory)

	setupDone bool
}

// Setup configures the convolver. blockSize must equal the partition length
// the IR is split at (l). k is the number of subfilter partitions.
func (c *Convolver) Setup(blockSize, l, k int, withIRMemory bool) error {
	if blockSize <= 0 || l <= 0 || k <= 0 || blockSize != l {
		return brt.NewCondition(brt.KindBadSize, "upc.Convolver.Setup", nil)
	}
	c.blockSize = blockSize
	c.k = k
	c.fftLen = 4 * l
	c.storageInput = make([]float64, 2*blockSize)
	c.inputFFT = make([][]float64, k)
	for i := range c.inputFFT {
		c.inputFFT[i] = make([]float64, c.fftLen)
	}
	c.writeIndex = 0
	c.withIRMemory = withIRMemory
	if withIRMemory {
		c.irHistory = make([][][]float64, k)
	}
	c.irPartitions = nil
	c.setupDone = true
	return nil
}

// SetIR installs the current impulse response partitions (as produced by
// PartitionIR, or an HRTF/Ambisonic service's pre-partitioned storage).
// When withIRMemory is enabled this also pushes a snapshot into the IR
// history ring, to be consumed by Process once its corresponding input
// block reaches the front of the ring — this is what makes a moving
// source's convolution artefact-free (spec.md §4.2's "IR in effect at
// block n" guarantee).
func (c *Convolver) SetIR(partitions [][]float64) error {
	if !c.setupDone {
		return brt.NewCondition(brt.KindNotInitialized, "upc.Convolver.SetIR", nil)
	}
	if len(partitions) != c.k {
		return brt.NewCondition(brt.KindBadSize, "upc.Convolver.SetIR", nil)
	}
	for _, p := range partitions {
		if len(p) != c.fftLen {
			return brt.NewCondition(brt.KindBadSize, "upc.Convolver.SetIR", nil)
		}
	}
	c.irPartitions = partitions
	if c.withIRMemory {
		snapshot := make([][]float64, c.k)
		for i, p := range partitions {
			cp := make([]float64, len(p))
			copy(cp, p)
			snapshot[i] = cp
		}
		c.irHistory[c.writeIndex] = snapshot
	}
	return nil
}

// Process runs one input block of length blockSize through the convolver,
// returning a block of the same length. Calling Process before Setup is a
// soft error: output is zero-filled (spec.md §4.2). A block size mismatch
// is a hard error.
func (c *Convolver) Process(input []float64) ([]float64, error) {
	if !c.setupDone {
		out := make([]float64, len(input))
		return out, brt.NewCondition(brt.KindNotInitialized, "upc.Convolver.Process", nil)
	}
	if len(input) != c.blockSize {
		return nil, brt.NewCondition(brt.KindBadSize, "upc.Convolver.Process", nil)
	}

	// Step 1: form the 2B time vector and rotate storageInput.
	timeVec := make([]float64, 2*c.blockSize)
	copy(timeVec, c.storageInput)
	copy(timeVec[c.blockSize:], input)
	copy(c.storageInput, input)

	// Step 2: FFT into the current slot of the ring.
	freq, err := fft.FFT(timeVec)
	if err != nil {
		return nil, err
	}
	if len(freq) != c.fftLen {
		// NextPow2 of a 2B buffer should already equal our fftLen/2 complex
		// bins when B==L, but defend against rounding mismatches.
		return nil, brt.NewCondition(brt.KindBadSize, "upc.Convolver.Process", nil)
	}
	c.inputFFT[c.writeIndex] = freq

	// Step 3: accumulate.
	acc := make([]float64, c.fftLen)
	for kk := 0; kk < c.k; kk++ {
		slot := ((c.writeIndex - kk)%c.k + c.k) % c.k
		inputBlock := c.inputFFT[slot]

		var irPart []float64
		if c.withIRMemory {
			snapIdx := ((c.writeIndex-kk)%c.k + c.k) % c.k
			snapshot := c.irHistory[snapIdx]
			if snapshot == nil {
				continue // no IR history yet for this lag; contributes silence
			}
			irPart = snapshot[kk]
		} else {
			if c.irPartitions == nil {
				continue
			}
			irPart = c.irPartitions[kk]
		}

		if err := fft.ComplexMulAccumulate(inputBlock, irPart, acc); err != nil {
			return nil, err
		}
	}

	c.writeIndex = (c.writeIndex + 1) % c.k

	// Step 4: IFFT, keep the last B samples.
	timeOut, err := fft.IFFT(acc)
	if err != nil {
		return nil, err
	}
	out := make([]float64, c.blockSize)
	copy(out, timeOut[len(timeOut)-c.blockSize:])
	return out, nil
}

// Reset clears all ring state, ready for a fresh signal stream.
func (c *Convolver) Reset() {
	if !c.setupDone {
		return
	}
	for i := range c.storageInput {
		c.storageInput[i] = 0
	}
	for i := range c.inputFFT {
		for j := range c.inputFFT[i] {
			c.inputFFT[i][j] = 0
		}
	}
	c.writeIndex = 0
	if c.withIRMemory {
		for i := range c.irHistory {
			c.irHistory[i] = nil
		}
	}
}
