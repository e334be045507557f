package ports

import (
	"github.com/grupodiana/brt/ambisonic"
	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/hrtf"
	"github.com/grupodiana/brt/sos"
)

// The semantic port types spec.md §6 names, one type alias per kind of
// data the engine moves between processors: a mono sample block, a vector
// of mono sample blocks (the Ambisonic channel bus), a 3D transform, and
// each of the engine's four opaque shared-service handles. Grounded on
// original_source/include/Connectivity/EntryPointManager.hpp's
// CEntryPointSamplesVector / CEntryPointMultipleSamplesVectors /
// CEntryPointTransform / CEntryPointHRTFPtr / CEntryPointILDPtr /
// CEntryPointABIRPtr / CEntryPointHRBRIRPtr families, each collapsed here
// onto the generic ExitPoint[T]/EntryPoint[T] pair of ports.go.
type (
	// SamplesExitPoint/SamplesEntryPoint carry one mono sample block.
	SamplesExitPoint  = ExitPoint[[]float64]
	SamplesEntryPoint = EntryPoint[[]float64]

	// AmbisonicBusExitPoint/AmbisonicBusEntryPoint carry the Ambisonic
	// channel bus: one mono sample block per spherical-harmonic channel.
	AmbisonicBusExitPoint  = ExitPoint[[][]float64]
	AmbisonicBusEntryPoint = EntryPoint[[][]float64]

	// TransformExitPoint/TransformEntryPoint carry a position+orientation
	// pair, the original's CEntryPointTransform.
	TransformExitPoint  = ExitPoint[geom.Transform]
	TransformEntryPoint = EntryPoint[geom.Transform]

	// IDExitPoint/IDEntryPoint carry a string source/listener identifier.
	IDExitPoint  = ExitPoint[string]
	IDEntryPoint = EntryPoint[string]

	// HRTFServiceExitPoint/HRTFServiceEntryPoint carry the shared HRTF
	// database handle, the original's CEntryPointHRTFPtr.
	HRTFServiceExitPoint  = ExitPoint[*hrtf.Service]
	HRTFServiceEntryPoint = EntryPoint[*hrtf.Service]

	// NearFieldFiltersExitPoint/NearFieldFiltersEntryPoint carry the
	// shared near-field SOS compensation handle, the original's
	// CEntryPointILDPtr (ILD: interaural level difference near-field
	// compensation in the original's naming).
	NearFieldFiltersExitPoint  = ExitPoint[*sos.Service]
	NearFieldFiltersEntryPoint = EntryPoint[*sos.Service]

	// AmbisonicIRExitPoint/AmbisonicIREntryPoint carry the shared
	// Ambisonic IR table handle, the original's CEntryPointABIRPtr.
	AmbisonicIRExitPoint  = ExitPoint[*ambisonic.Table]
	AmbisonicIREntryPoint = EntryPoint[*ambisonic.Table]

	// HRBRIRExitPoint/HRBRIREntryPoint carry the shared
	// per-listener-position BRIR table handle, the original's
	// CEntryPointHRBRIRPtr.
	HRBRIRExitPoint  = ExitPoint[*hrtf.HRBRIRTable]
	HRBRIREntryPoint = EntryPoint[*hrtf.HRBRIRTable]
)
