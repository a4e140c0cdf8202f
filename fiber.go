package fiber

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

// Process-wide identity and accounting, shared by every thread.
var (
	// fiberIDCounter allocates fiber ids: unique, monotonically increasing
	// in creation order, never reused. Ids start at 1 so 0 can serve as the
	// null marker.
	fiberIDCounter atomic.Uint64

	// fiberCount tracks live fibers (created and not yet closed), main
	// fibers included.
	fiberCount atomic.Int64
)

// NoFiberID is the sentinel returned by Thread.CurrentID when the registry
// has never been touched. Fiber ids start at 1.
const NoFiberID uint64 = 0

// Alive returns the number of live fibers in this process. Diagnostic only.
func Alive() int64 {
	return fiberCount.Load()
}

// Fiber is a stackful, cooperatively scheduled unit of execution. Each
// fiber is backed by a dedicated goroutine; suspending is parking that
// goroutine in the fiber's saved-context slot, resuming is waking it. A
// fiber only ever exchanges control with its fixed counterpart: the
// thread's scheduler fiber when constructed with WithRunInScheduler(true),
// the thread's main fiber otherwise. Multi-way scheduling is built on top,
// by repeatedly resuming different fibers from the counterpart.
//
// Construct fibers with Thread.NewFiber. The zero Fiber is not usable.
type Fiber struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	thread *Thread

	// ctx is this fiber's saved-context slot.
	ctx execContext

	// stack is the owned reservation; nil for the main fiber, which rides
	// the thread's original stack.
	stack *stack

	// cb runs on the next Resume. Present while Ready or Running, cleared
	// once invoked.
	cb func()

	// pendingPanic carries a callback panic from the trampoline to the
	// resuming execution, which re-raises it. Written and cleared only by
	// the execution holding the thread.
	pendingPanic *PanicError

	// done is closed when the fiber's goroutine has fully unwound. Nil for
	// the main fiber, which has no goroutine of its own.
	done chan struct{}

	state *FastState

	id uint64

	// runInScheduler selects the counterpart: scheduler fiber when true,
	// main fiber when false. Fixed at construction, kept across Reset.
	runInScheduler bool
}

// newMainFiber wraps the thread's current execution as a fiber: no owned
// stack, no callback, Running from birth. Counted live until Thread.Close.
func newMainFiber(t *Thread) *Fiber {
	f := &Fiber{
		thread: t,
		ctx:    newExecContext(),
		state:  NewFastState(),
		id:     fiberIDCounter.Add(1),
	}
	f.state.Store(StateRunning)
	fiberCount.Add(1)
	return f
}

// NewFiber constructs a fiber around cb. The fiber starts Ready with its
// context primed at the trampoline; the first Resume runs cb from the top.
// The thread's main fiber is created first if it does not exist yet.
//
// The callback must eventually return or yield; it runs on the fiber's
// goroutine but holds the logical thread until it does either.
func (t *Thread) NewFiber(cb func(), opts ...FiberOption) (*Fiber, error) {
	if t.closed {
		return nil, ErrThreadClosed
	}
	if cb == nil {
		return nil, ErrNilCallback
	}
	cfg, err := resolveFiberOptions(opts)
	if err != nil {
		return nil, err
	}
	stk, err := newStack(cfg.stackSize, t.defaultStackSize)
	if err != nil {
		return nil, err
	}
	t.Main()
	f := &Fiber{
		thread:         t,
		ctx:            newExecContext(),
		stack:          stk,
		cb:             cb,
		done:           make(chan struct{}),
		state:          NewFastState(),
		id:             fiberIDCounter.Add(1),
		runInScheduler: cfg.runInScheduler,
	}
	fiberCount.Add(1)
	t.stats.spawned.Add(1)
	go f.trampoline()
	t.event(t.logger.Debug()).
		Uint64("fiber", f.id).
		Int("stack_size", stk.size()).
		Bool("run_in_scheduler", f.runInScheduler).
		Log("fiber created")
	return f, nil
}

// ID returns the fiber's process-unique id. Ids are strictly increasing in
// creation order and never reused.
func (f *Fiber) ID() uint64 {
	return f.id
}

// State returns the fiber's lifecycle state. Safe from any goroutine.
func (f *Fiber) State() State {
	return f.state.Load()
}

// StackSize returns the fiber's stack reservation in bytes, 0 for the main
// fiber or after Close.
func (f *Fiber) StackSize() int {
	return f.stack.size()
}

// RunInScheduler reports whether the fiber swaps with the thread's
// scheduler fiber rather than its main fiber.
func (f *Fiber) RunInScheduler() bool {
	return f.runInScheduler
}

// Thread returns the scheduling context the fiber belongs to.
func (f *Fiber) Thread() *Thread {
	return f.thread
}

// counterpart returns the fixed fiber this one swaps with on every Resume
// and Yield.
func (f *Fiber) counterpart() *Fiber {
	if f.runInScheduler {
		return f.thread.scheduler
	}
	return f.thread.main
}

// Resume transfers control to the fiber and suspends the caller until the
// fiber yields back or terminates. It must be called from the execution of
// the fiber's counterpart (the thread's scheduler fiber for scheduler-mode
// fibers, the main fiber otherwise), because the caller is saved into that
// counterpart's slot for the later yield to restore.
//
// The fiber must be Ready. After Resume returns, inspect State to tell a
// yield (Ready) from termination (Terminated). If the callback panicked,
// the panic is re-raised here wrapped in *PanicError.
func (f *Fiber) Resume() error {
	t := f.thread
	if t.closed {
		return ErrThreadClosed
	}
	if s := f.state.Load(); s != StateReady {
		if s == StateClosed {
			return ErrFiberClosed
		}
		return WrapError(fmt.Sprintf("fiber %d is %s", f.id, s), ErrNotReady)
	}
	cp := f.counterpart()
	if t.current != cp {
		return ErrNotCounterpart
	}
	g, err := t.checkAffinity()
	if err != nil {
		return err
	}
	// Suspend the counterpart before claiming the target so no instant has
	// two Running fibers on the thread.
	if !cp.state.TryTransition(StateRunning, StateReady) {
		return WrapError("counterpart is not running", ErrNotCurrent)
	}
	if !f.state.TryTransition(StateReady, StateRunning) {
		cp.state.Store(StateRunning)
		s := f.state.Load()
		if s == StateClosed {
			return ErrFiberClosed
		}
		return WrapError(fmt.Sprintf("fiber %d is %s", f.id, s), ErrNotReady)
	}
	t.current = f
	t.stats.resumes.Add(1)
	switchTo(&cp.ctx, &f.ctx)
	// Control returned: the fiber yielded into our slot or terminated.
	t.enter(g)
	if pe := f.pendingPanic; pe != nil {
		f.pendingPanic = nil
		panic(pe)
	}
	return nil
}

// Yield suspends the fiber, handing control back to the execution parked
// in its counterpart's slot (the one its last Resume came from). A Running
// fiber is left Ready for a later Resume; a Terminated fiber stays
// Terminated, which is how the trampoline performs its final handoff.
// Yield returns when somebody resumes the fiber again.
//
// Only the fiber currently holding the thread may yield; the main fiber
// has nothing to yield to.
func (f *Fiber) Yield() error {
	t := f.thread
	if f.stack == nil {
		return ErrMainFiber
	}
	if t.current != f {
		return ErrNotCurrent
	}
	g, err := t.checkAffinity()
	if err != nil {
		return err
	}
	s := f.state.Load()
	if s != StateRunning && s != StateTerminated {
		return WrapError(fmt.Sprintf("fiber %d is %s", f.id, s), ErrNotRunning)
	}
	cp := f.counterpart()
	if s == StateRunning {
		if !f.state.TryTransition(StateRunning, StateReady) {
			return WrapError(fmt.Sprintf("fiber %d state changed mid-yield", f.id), ErrNotRunning)
		}
	}
	if !cp.state.TryTransition(StateReady, StateRunning) {
		if s == StateRunning {
			f.state.Store(StateRunning)
		}
		return WrapError("counterpart is not ready", ErrNotCurrent)
	}
	t.current = cp
	t.stats.yields.Add(1)
	switchTo(&f.ctx, &cp.ctx)
	// Control returned via a later Resume.
	t.enter(g)
	return nil
}

// Reset arms a Terminated fiber with a new callback, reusing the same id,
// goroutine, and stack reservation. The fiber returns to Ready; the next
// Resume runs cb from the top. The main fiber cannot be reset.
func (f *Fiber) Reset(cb func()) error {
	if f.stack == nil {
		return ErrMainFiber
	}
	if cb == nil {
		return ErrNilCallback
	}
	if !f.state.TryTransition(StateTerminated, StateReady) {
		s := f.state.Load()
		if s == StateClosed {
			return ErrFiberClosed
		}
		return WrapError(fmt.Sprintf("fiber %d is %s", f.id, s), ErrNotTerminated)
	}
	f.cb = cb
	f.thread.stats.resets.Add(1)
	f.thread.event(f.thread.logger.Trace()).
		Uint64("fiber", f.id).
		Log("fiber reset")
	return nil
}

// Close releases the fiber. Its goroutine is interrupted and unwound,
// running any deferred functions its callback left on the stack; the stack
// reservation is released exactly once; the fiber leaves the live count.
// Close blocks until the unwind completes, then the fiber is Closed and
// every further operation on it fails with ErrFiberClosed.
//
// A Running fiber cannot be closed, nor can a fiber whose slot holds a
// suspended execution from the thread's active handoff chain (it would
// strand that execution). The main fiber is released by Thread.Close.
func (f *Fiber) Close() error {
	t := f.thread
	if f.stack == nil {
		return ErrMainFiber
	}
	// Walk the handoff chain from the current fiber toward the main fiber;
	// anything on it parks its resumer in its counterpart's slot.
	for x := t.current; x != nil && x != t.main; x = x.counterpart() {
		if x != f && x.counterpart() == f {
			return ErrFiberEngaged
		}
	}
	if !f.state.TransitionAny([]State{StateReady, StateTerminated}, StateClosed) {
		if f.state.Load() == StateRunning {
			return ErrFiberRunning
		}
		return ErrFiberClosed
	}
	f.ctx.interrupt()
	<-f.done
	f.stack.release()
	fiberCount.Add(-1)
	t.event(t.logger.Debug()).
		Uint64("fiber", f.id).
		Log("fiber closed")
	return nil
}

// trampoline is the fixed entry point of every non-main fiber, run on the
// fiber's own goroutine. It parks until the first Resume, runs the
// callback, marks termination, and yields terminally; Reset re-arms the
// loop so the next Resume runs the new callback on the same goroutine and
// stack. An interrupt from Close unwinds the goroutine from whichever park
// point holds it.
func (f *Fiber) trampoline() {
	defer close(f.done)
	t := f.thread
	var g uint64
	if t.affinityChecks {
		g = getGoroutineID()
	}
	f.ctx.park() // wait for the first Resume
	for {
		t.enter(g)
		if t.current != f {
			// The registry always names the resumed fiber; anything else
			// means the switch protocol itself is broken.
			panic("fiber: trampoline woken while not current")
		}
		f.invoke()
		f.state.Store(StateTerminated)
		if err := f.Yield(); err != nil {
			panic("fiber: terminal yield failed: " + err.Error())
		}
	}
}

// invoke runs the callback with panic capture. The callback slot is
// cleared whether it returns or panics; a panic is recorded for the
// resuming execution to re-raise.
func (f *Fiber) invoke() {
	cb := f.cb
	defer func() {
		f.cb = nil
		if r := recover(); r != nil {
			f.pendingPanic = &PanicError{Value: r, Stack: debug.Stack(), FiberID: f.id}
			f.thread.event(f.thread.logger.Err()).
				Uint64("fiber", f.id).
				Err(f.pendingPanic).
				Log("fiber callback panicked")
		}
	}()
	cb()
}
