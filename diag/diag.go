// Package diag implements the side-channel condition reporting required by
// spec.md §7: the audio path never logs or allocates, so every recoverable
// Condition is appended to a bounded, pre-allocated ring and drained by the
// control thread between blocks, mirroring the zero-allocation discipline
// documented on thesyncim-gopus's Encoder ("Scratch buffers are
// pre-allocated at construction time ... zero heap allocations in the hot
// path").
package diag

import (
	"sync"

	"github.com/grupodiana/brt"
)

// Sink receives drained conditions; implemented by the charmbracelet/log
// adapter in cmd/brtdemo, but kept as an interface here so the core module
// carries no logging dependency.
type Sink interface {
	Report(c *brt.Condition)
}

// Ring is a fixed-capacity, mutex-guarded buffer of conditions. Capacity is
// chosen once at construction; once full, the oldest condition is
// overwritten (a control-plane stall must never make the audio thread
// block or grow memory).
type Ring struct {
	mu       sync.Mutex
	buf      []*brt.Condition
	writePos int
	count    int
}

// NewRing allocates a ring of the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 64
	}
	return &Ring{buf: make([]*brt.Condition, capacity)}
}

// Push records a condition. Safe to call from the audio thread: no
// allocation, no blocking beyond the short mutex critical section (spec.md
// §5 accepts this for the same reason the per-model command mutex is
// accepted — short critical sections, rare contention).
func (r *Ring) Push(c *brt.Condition) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.buf[r.writePos] = c
	r.writePos = (r.writePos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Drain removes every buffered condition, oldest first, and calls sink.
// Report for each. Intended to run on the control thread between audio
// blocks.
func (r *Ring) Drain(sink Sink) {
	r.mu.Lock()
	n := r.count
	start := (r.writePos - n + len(r.buf)) % len(r.buf)
	out := make([]*brt.Condition, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	r.count = 0
	r.writePos = 0
	r.mu.Unlock()

	if sink == nil {
		return
	}
	for _, c := range out {
		sink.Report(c)
	}
}

// Len reports how many conditions are currently buffered.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
