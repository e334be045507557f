package brt

import "github.com/grupodiana/brt/geom"

// GlobalParameters is the process-wide sample-rate/block-size/axis-
// convention holder, passed down explicitly through the setup of each
// processor instead of living behind a package-level singleton, per
// spec.md §9's REDESIGN FLAGS ("Singleton-ish global sample-rate and
// block-size holder").
//
// A GlobalParameters value is immutable for the lifetime of every
// processor built from it; the only way to change it is to build a new
// one and re-run Setup, which spec.md calls out as "Reset is the only way
// to re-enter configuration".
type GlobalParameters struct {
	SampleRate int
	BlockSize  int
	Convention geom.AxisConvention
}

// NewGlobalParameters validates and returns a GlobalParameters value.
func NewGlobalParameters(sampleRate, blockSize int, convention geom.AxisConvention) (GlobalParameters, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return GlobalParameters{}, NewCondition(KindInvalidParam, "NewGlobalParameters", nil)
	}
	return GlobalParameters{SampleRate: sampleRate, BlockSize: blockSize, Convention: convention}, nil
}

// DefaultGlobalParameters returns 48kHz/512-sample/Y-up parameters, a
// reasonable default for interactive rendering (spec.md §8 scenario 1).
func DefaultGlobalParameters() GlobalParameters {
	p, _ := NewGlobalParameters(48000, 512, geom.DefaultConvention)
	return p
}

// Ear names one of the two binaural receivers. Making Ear an explicit,
// parameterised-over variant (instead of duplicated Left*/Right* struct
// fields and methods) is the redesign spec.md §9 calls for ("Per-ear
// duplicated processing path").
type Ear int

const (
	EarLeft Ear = iota
	EarRight
)

func (e Ear) String() string {
	if e == EarLeft {
		return "left"
	}
	return "right"
}

// Other returns the opposite ear.
func (e Ear) Other() Ear {
	if e == EarLeft {
		return EarRight
	}
	return EarLeft
}

// AmbisonicNormalization selects the gain normalisation convention for
// spherical-harmonic encoding (spec.md §6, command
// /listener/setAmbisonicsNormalization).
type AmbisonicNormalization int

const (
	NormalizationN3D AmbisonicNormalization = iota
	NormalizationSN3D
	NormalizationMaxN
)

// ParseAmbisonicNormalization maps the command-surface string values
// ("N3D" | "SN3D" | "maxN") onto AmbisonicNormalization.
func ParseAmbisonicNormalization(s string) (AmbisonicNormalization, error) {
	switch s {
	case "N3D":
		return NormalizationN3D, nil
	case "SN3D":
		return NormalizationSN3D, nil
	case "maxN":
		return NormalizationMaxN, nil
	default:
		return 0, NewCondition(KindInvalidParam, "ParseAmbisonicNormalization", nil)
	}
}

// FeatureFlags are the per-listener toggles spec.md §3/§6 describes,
// consulted once per block by the processors that care about them.
type FeatureFlags struct {
	Spatialization bool
	Interpolation  bool
	NearField      bool
	ITD            bool
	Parallax       bool
}

// DefaultFeatureFlags has every feature enabled, the engine's normal
// operating mode.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{Spatialization: true, Interpolation: true, NearField: true, ITD: true, Parallax: true}
}
