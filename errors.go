// Package brt implements a real-time binaural audio rendering engine: given
// one or more mono sound sources with 3D transforms and a listener with a
// 3D transform plus an HRTF database, it produces a stereo output stream
// that places each source at its specified position, including near-field
// cues, interaural time difference and optional scattering-delay-network
// room reverberation.
//
// The package never touches SOFA file parsing, audio device I/O, a
// dataflow/connection-graph engine, or room-geometry authoring — those are
// external collaborators the caller supplies data from or wires the
// engine's typed ports into (see the ports subpackage).
package brt

import (
	"errors"
	"fmt"
)

// Kind classifies a Condition so the audio path can dispatch on it without
// string matching, per spec.md §7.
type Kind int

const (
	// KindBadSize: buffer length does not match a configured block size, or
	// an IR length does not match a service's expectation.
	KindBadSize Kind = iota
	// KindNotSet: a query was made against a service before EndSetup.
	KindNotSet
	// KindNotInitialized: IFFT or UPC was called before its Setup.
	KindNotInitialized
	// KindDivByZero: a direction query between coincident source and
	// listener positions.
	KindDivByZero
	// KindInvalidParam: an out-of-range azimuth/distance, or an
	// unrecognised Ambisonic normalisation string.
	KindInvalidParam
	// KindBadAlloc: a ring-buffer resize failed.
	KindBadAlloc
	// KindCaseNotDefined: an unrecognised axis tag.
	KindCaseNotDefined
	// KindOutOfRange: a SOFA measurement indexing inconsistency.
	KindOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindBadSize:
		return "BadSize"
	case KindNotSet:
		return "NotSet"
	case KindNotInitialized:
		return "NotInitialized"
	case KindDivByZero:
		return "DivByZero"
	case KindInvalidParam:
		return "InvalidParam"
	case KindBadAlloc:
		return "BadAlloc"
	case KindCaseNotDefined:
		return "CaseNotDefined"
	case KindOutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}

// Condition is the value every recoverable error in the engine carries: a
// Kind for dispatch, the operation that raised it, and an optional wrapped
// detail. It satisfies the error interface and errors.Is against the Kind
// sentinels below.
type Condition struct {
	Kind   Kind
	Op     string
	Detail error
}

func (c *Condition) Error() string {
	if c.Detail != nil {
		return fmt.Sprintf("brt: %s: %s: %v", c.Op, c.Kind, c.Detail)
	}
	return fmt.Sprintf("brt: %s: %s", c.Op, c.Kind)
}

func (c *Condition) Unwrap() error { return c.Detail }

// Is reports whether target is a Kind sentinel matching c.Kind, so callers
// can write errors.Is(err, brt.ErrBadSize)-style checks via the
// sentinel values below instead of comparing c.Kind directly.
func (c *Condition) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && k.kind == c.Kind
}

type kindSentinel struct{ kind Kind }

func (k kindSentinel) Error() string { return "brt: kind " + k.kind.String() }

// Sentinel values usable with errors.Is(err, brt.ErrBadSize) and similar.
var (
	ErrBadSize        error = kindSentinel{KindBadSize}
	ErrNotSet         error = kindSentinel{KindNotSet}
	ErrNotInitialized error = kindSentinel{KindNotInitialized}
	ErrDivByZero      error = kindSentinel{KindDivByZero}
	ErrInvalidParam   error = kindSentinel{KindInvalidParam}
	ErrBadAlloc       error = kindSentinel{KindBadAlloc}
	ErrCaseNotDefined error = kindSentinel{KindCaseNotDefined}
	ErrOutOfRange     error = kindSentinel{KindOutOfRange}
)

// NewCondition constructs a Condition, the one entry point processors use
// when reporting a recoverable audio-path condition (spec.md §7: "every
// condition is handled locally ... record the condition via a side-channel
// error handler, and continue").
func NewCondition(kind Kind, op string, detail error) *Condition {
	return &Condition{Kind: kind, Op: op, Detail: detail}
}

// IsKind is a convenience wrapper over errors.Is for the Kind sentinels.
func IsKind(err error, kind Kind) bool {
	return errors.As(err, new(*Condition)) && errors.Is(err, kindSentinel{kind})
}
