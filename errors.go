package fiber

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNotReady is returned when Resume() is called on a fiber that is not
	// in the Ready state.
	ErrNotReady = errors.New("fiber: resume requires a ready fiber")

	// ErrNotRunning is returned when Yield() is called on a fiber that is
	// neither Running nor Terminated.
	ErrNotRunning = errors.New("fiber: yield requires a running or terminated fiber")

	// ErrNotTerminated is returned when Reset() is called on a fiber that has
	// not yet terminated.
	ErrNotTerminated = errors.New("fiber: reset requires a terminated fiber")

	// ErrNotCurrent is returned when an operation requires the caller to be
	// the execution currently holding control of the thread, and it is not.
	ErrNotCurrent = errors.New("fiber: caller does not hold control of the thread")

	// ErrNotCounterpart is returned when Resume() is called while the
	// thread's current fiber is not the target's counterpart. A fiber only
	// ever swaps with its fixed counterpart (main or scheduler fiber);
	// resuming from anywhere else would clobber a suspended context.
	ErrNotCounterpart = errors.New("fiber: resume requires control held by the fiber's counterpart")

	// ErrMainFiber is returned for operations that do not apply to a thread's
	// main fiber (Yield, Reset, Close).
	ErrMainFiber = errors.New("fiber: operation not supported on the thread main fiber")

	// ErrFiberRunning is returned when Close() is called on a running fiber.
	ErrFiberRunning = errors.New("fiber: fiber is running")

	// ErrFiberClosed is returned when operations are attempted on a closed fiber.
	ErrFiberClosed = errors.New("fiber: fiber has been closed")

	// ErrFiberEngaged is returned when Close() is called on a fiber whose
	// saved-context slot holds a suspended execution from the thread's
	// active handoff chain; interrupting it would strand that execution.
	ErrFiberEngaged = errors.New("fiber: fiber is engaged in an active handoff")

	// ErrWrongThread is returned when a fiber is passed to a thread it does
	// not belong to.
	ErrWrongThread = errors.New("fiber: fiber belongs to a different thread")

	// ErrSchedulerMode is returned when the designated scheduler fiber was
	// itself constructed with WithRunInScheduler(true); its counterpart
	// must be the main fiber, or handoff would cycle.
	ErrSchedulerMode = errors.New("fiber: scheduler fiber must not itself run in scheduler mode")

	// ErrNilCallback is returned when a fiber is constructed or reset with a
	// nil callback.
	ErrNilCallback = errors.New("fiber: callback must be non-nil")

	// ErrThreadClosed is returned when operations are attempted on a closed thread.
	ErrThreadClosed = errors.New("fiber: thread has been closed")
)

// StackSizeError reports a stack size that violates the allocation rules.
// Requested carries the offending value; the accepted range is
// 0 (meaning the thread's default) through MaxStackSize.
type StackSizeError struct {
	Cause     error
	Requested int
}

// Error implements the error interface.
func (e *StackSizeError) Error() string {
	return fmt.Sprintf("fiber: invalid stack size %d (0 for default, max %d)", e.Requested, MaxStackSize)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *StackSizeError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a panic recovered from a fiber callback. The panic is
// re-raised, wrapped in this type, in the execution that resumed the fiber;
// Stack holds the fiber goroutine's stack captured at the recovery point.
type PanicError struct {
	Value   any
	Stack   []byte
	FiberID uint64
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("fiber: fiber %d callback panicked: %v", e.FiberID, e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching
// through the cause chain.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StackTrace returns the formatted stack trace captured when the panic was
// recovered, or the empty string if none was captured.
func (e *PanicError) StackTrace() string {
	return string(e.Stack)
}

// WrapError wraps an error with a message and optional cause chain.
// This is a convenience function for creating wrapped errors with cause.
//
// If the original error should be the cause, pass it as both arguments:
//
//	WrapError("context failed", originalErr)
//
// The result satisfies errors.Is(result, originalErr) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
