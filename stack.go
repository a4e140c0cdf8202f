package fiber

import (
	"sync/atomic"
)

// Stack sizing rules.
const (
	// DefaultStackSize is the reservation made for a fiber constructed with
	// stack size 0 (absent a WithDefaultStackSize override on its thread).
	DefaultStackSize = 128000

	// MaxStackSize bounds a single fiber's stack reservation.
	MaxStackSize = 1 << 30
)

// stackBytes tracks the total stack reservation across live fibers.
var stackBytes atomic.Int64

// StackBytes returns the total number of stack bytes currently reserved by
// live fibers in this process. Diagnostic only.
func StackBytes() int64 {
	return stackBytes.Load()
}

// stack is a fiber's owned stack reservation. The executing stack is the
// fiber goroutine's own, grown and shrunk by the runtime; buf is the fixed
// region the lifecycle rules own: allocated once at construction,
// address-stable across Reset, released exactly once at Close.
type stack struct {
	buf []byte
}

// newStack validates size and reserves the region. Size 0 selects def.
func newStack(size, def int) (*stack, error) {
	if size == 0 {
		size = def
	}
	if size < 0 || size > MaxStackSize {
		return nil, &StackSizeError{Requested: size}
	}
	buf := make([]byte, size)
	stackBytes.Add(int64(size))
	return &stack{buf: buf}, nil
}

// size returns the reservation size in bytes, 0 for a nil stack (the main
// fiber) or after release.
func (s *stack) size() int {
	if s == nil {
		return 0
	}
	return len(s.buf)
}

// release frees the reservation and updates the accounting gauge. The
// caller guards against double release via fiber state.
func (s *stack) release() {
	if s == nil || s.buf == nil {
		return
	}
	stackBytes.Add(-int64(len(s.buf)))
	s.buf = nil
}
