// Package ports implements spec.md §6's typed entry/exit ports and
// command tagged union: the engine's only public surface besides the
// per-processor Go APIs in brt/processor and brt/listener.
//
// Grounded on
// original_source/include/Connectivity/EntryPointManager.hpp and
// original_source/include/Base/EntryPointManager.hpp's per-semantic-type
// entry point families (samples, multiple-samples-vector, transform, ID,
// and the opaque HRTF/ILD/ABIR/HRBRIR pointer ports). The original's
// per-type class hierarchy (CEntryPointSamplesVector,
// CEntryPointTransform, CEntryPointHRTFPtr, ...) collapses here onto one
// generic ExitPoint[T]/EntryPoint[T] pair, since Go generics express "same attach/detach/fan-out
// behaviour, different payload type" without the macro-like repetition
// the C++ source carries for each of its five port kinds.
package ports

import "sync"

// ExitPoint is the publishing side of a connection: one source fanning
// its data out to any number of attached EntryPoints, mirroring
// CExitPointX::sendDataPtr attaching/detaching N entry points per spec.md
// §6 ("typed ports... each port ID-based").
type ExitPoint[T any] struct {
	mu      sync.Mutex
	entries []*EntryPoint[T]
}

// Attach registers e to receive every future Send. Attaching the same
// EntryPoint twice is a no-op.
func (x *ExitPoint[T]) Attach(e *EntryPoint[T]) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, existing := range x.entries {
		if existing == e {
			return
		}
	}
	x.entries = append(x.entries, e)
}

// Detach removes e; detaching an unattached EntryPoint is a no-op.
func (x *ExitPoint[T]) Detach(e *EntryPoint[T]) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, existing := range x.entries {
		if existing == e {
			x.entries = append(x.entries[:i], x.entries[i+1:]...)
			return
		}
	}
}

// Send publishes value to every attached EntryPoint, invoking each one's
// OnUpdate callback if it has one (the original's UpdateEntryPointData
// hook), mirroring CExitPointX::sendDataPtr.
func (x *ExitPoint[T]) Send(value T) {
	x.mu.Lock()
	entries := make([]*EntryPoint[T], len(x.entries))
	copy(entries, x.entries)
	x.mu.Unlock()

	for _, e := range entries {
		e.receive(value)
	}
}

// NumConnections reports how many EntryPoints are currently attached,
// mirroring CEntryPointX::AddConnection/RemoveConnection's running count.
func (x *ExitPoint[T]) NumConnections() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.entries)
}

// EntryPoint is the receiving side of a connection: an ID-addressed slot
// holding the most recently received value, with an optional callback
// invoked on each update (the original's UpdateEntryPointData).
type EntryPoint[T any] struct {
	mu       sync.Mutex
	id       string
	value    T
	OnUpdate func(id string, value T)
}

// NewEntryPoint creates an entry point identified by id.
func NewEntryPoint[T any](id string) *EntryPoint[T] {
	return &EntryPoint[T]{id: id}
}

// ID returns the entry point's identifier, the key every Get*EntryPoint
// lookup in the original searches for.
func (e *EntryPoint[T]) ID() string { return e.id }

func (e *EntryPoint[T]) receive(value T) {
	e.mu.Lock()
	e.value = value
	e.mu.Unlock()
	if e.OnUpdate != nil {
		e.OnUpdate(e.id, value)
	}
}

// Data returns the most recently received value, mirroring
// CEntryPointX::GetData.
func (e *EntryPoint[T]) Data() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}
