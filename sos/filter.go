package sos

// Filter is a stateful biquad-cascade runner: one direct-form-II-
// transposed section per group of six Cascade coefficients, applied in
// series. Used by the near-field compensation processor and the SDN
// wall filters, both of which need to carry the cascade's coefficients
// forward from this package's static table into a running IIR.
type Filter struct {
	cascade Cascade
	z1, z2  []float64
}

// NewFilter builds a zero-state runner for cascade.
func NewFilter(cascade Cascade) *Filter {
	n := cascade.NumBiquads()
	return &Filter{cascade: cascade, z1: make([]float64, n), z2: make([]float64, n)}
}

// SetCascade replaces the cascade in place, resetting history only if the
// section count changed (otherwise the filter keeps running with its
// current state under the new coefficients, matching IIRFilter's
// coefficient-pointer-swap-without-reset behaviour in
// original_source/include/EnvironmentModels/SDNEnvironment/SDNUtils.hpp).
func (f *Filter) SetCascade(cascade Cascade) {
	if cascade.NumBiquads() != f.cascade.NumBiquads() {
		f.z1 = make([]float64, cascade.NumBiquads())
		f.z2 = make([]float64, cascade.NumBiquads())
	}
	f.cascade = cascade
}

// ProcessSample filters one sample through every section in series.
func (f *Filter) ProcessSample(x float64) float64 {
	for i := 0; i+5 < len(f.cascade); i += 6 {
		sec := i / 6
		b0, b1, b2, a0, a1, a2 := f.cascade[i], f.cascade[i+1], f.cascade[i+2], f.cascade[i+3], f.cascade[i+4], f.cascade[i+5]
		if a0 == 0 {
			a0 = 1
		}
		y := (b0*x + f.z1[sec]) / a0
		f.z1[sec] = b1*x - a1*y + f.z2[sec]
		f.z2[sec] = b2*x - a2*y
		x = y
	}
	return x
}

// ProcessBlock filters in and writes the result to out; in and out may
// alias.
func (f *Filter) ProcessBlock(in, out []float64) {
	for i, x := range in {
		out[i] = f.ProcessSample(x)
	}
}

// Reset clears all section history without discarding coefficients.
func (f *Filter) Reset() {
	for i := range f.z1 {
		f.z1[i] = 0
		f.z2[i] = 0
	}
}
