package fiber

import (
	"sync/atomic"
)

// State represents the lifecycle state of a fiber.
//
// State Machine:
//
//	StateReady (0) → StateRunning (1)        [Resume()]
//	StateRunning (1) → StateReady (0)        [Yield()]
//	StateRunning (1) → StateTerminated (2)   [callback returned or panicked]
//	StateTerminated (2) → StateReady (0)     [Reset()]
//	StateReady (0) → StateClosed (3)         [Close()]
//	StateTerminated (2) → StateClosed (3)    [Close()]
//	StateClosed (3) → (terminal)
//
// State Transition Rules:
//   - Use TryTransition() (CAS) for transitions that may race with Close()
//     (Ready→Running, Terminated→Ready, anything→Closed)
//   - Use Store() for transitions made while holding control of the thread
//     (Running→Ready on yield, Running→Terminated in the trampoline)
//
// NOTE: The numeric values are stable API. Closed is appended after the
// terminal state rather than renumbering the earlier codes.
type State uint64

const (
	// StateReady indicates the fiber is suspended and may be resumed.
	// A freshly constructed fiber starts here.
	StateReady State = 0
	// StateRunning indicates the fiber currently holds its thread.
	StateRunning State = 1
	// StateTerminated indicates the fiber's callback has returned (or
	// panicked). The fiber may be given a new callback via Reset.
	StateTerminated State = 2
	// StateClosed indicates the fiber has been closed and its stack
	// reservation released. Closed is terminal; every operation on a
	// closed fiber fails with ErrFiberClosed.
	StateClosed State = 3
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine with cache-line padding.
//
// PERFORMANCE: Uses pure atomic CAS operations with no mutex.
// Cache-line padding prevents false sharing between cores, which matters
// because State() may be polled from monitoring goroutines while the
// switch path reads and writes the same cell.
type FastState struct { // betteralign:ignore
	_ [64]byte      // Cache line padding (before value) //nolint:unused
	v atomic.Uint64 // State value
	_ [56]byte      // Pad to complete cache line (64 - 8 = 56) //nolint:unused
}

// NewFastState creates a new state machine in the Ready state.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateReady))
	return s
}

// Load returns the current state atomically.
// PERFORMANCE: No validation, trusts the stored value.
func (s *FastState) Load() State {
	return State(s.v.Load())
}

// Store atomically stores a new state.
// PERFORMANCE: No transition validation.
func (s *FastState) Store(state State) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
// PERFORMANCE: Pure CAS, no validation of transition validity.
func (s *FastState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to transition from any valid source state to the target.
// Returns true if the transition was successful.
// PERFORMANCE: Uses CAS loop for any-to-target transitions.
func (s *FastState) TransitionAny(validFrom []State, to State) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the current state is terminal (Closed).
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateClosed
}

// CanResume returns true if the fiber is eligible for Resume.
func (s *FastState) CanResume() bool {
	return s.Load() == StateReady
}

// IsFinished returns true if the fiber's callback will not run again
// without an intervening Reset (Terminated or Closed).
func (s *FastState) IsFinished() bool {
	state := s.Load()
	return state == StateTerminated || state == StateClosed
}
