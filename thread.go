package fiber

import (
	"runtime"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// threadIDCounter allocates Thread identities, used only for log correlation.
var threadIDCounter atomic.Uint64

// Thread is the scheduling context for one logical thread of fibers. It
// owns the three registry slots the switch protocol runs on: the fiber
// currently holding the thread, the lazily created main fiber wrapping the
// thread's original execution, and the designated scheduler fiber
// (defaulting to the main fiber until SetScheduler overrides it).
//
// A Thread and its fibers form a single-owner structure. Every method that
// moves control or touches the registry (NewFiber, Resume, Yield, Reset,
// SetScheduler, Close, and the Current/CurrentID/Scheduler/Main accessors)
// must be called from the execution currently holding the thread. That
// execution migrates between goroutines as fibers hand off, but at any
// instant it is exactly one goroutine, so the registry needs no locking.
// Fiber.State, Stats, Alive and StackBytes are atomic-backed and safe from
// any goroutine.
type Thread struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	logger *logiface.Logger[logiface.Event]

	// Registry slots. Single-owner; see type doc.
	current   *Fiber
	main      *Fiber
	scheduler *Fiber

	// controlGID names the goroutine embodying the thread's control, for
	// WithAffinityChecks. Each execution stores its own id as it gains
	// control; zero means checks are disabled.
	controlGID atomic.Uint64

	stats threadStats

	name             string
	id               uint64
	osThreadID       int
	defaultStackSize int
	affinityChecks   bool
	lockOSThread     bool
	closed           bool
}

// threadStats aggregates per-thread counters. Atomics so Stats() snapshots
// are safe from monitoring goroutines.
type threadStats struct {
	spawned atomic.Uint64
	resumes atomic.Uint64
	yields  atomic.Uint64
	resets  atomic.Uint64
}

// Stats is a point-in-time snapshot of a thread's counters.
type Stats struct {
	// Spawned counts fibers constructed on this thread, main fiber excluded.
	Spawned uint64
	// Resumes counts completed Resume calls.
	Resumes uint64
	// Yields counts completed Yield calls, terminal yields included.
	Yields uint64
	// Resets counts completed Reset calls.
	Resets uint64
}

// NewThread creates a scheduling context owned by the calling goroutine.
// Control of the thread starts with the caller and moves with every
// Resume and Yield.
func NewThread(opts ...ThreadOption) (*Thread, error) {
	cfg, err := resolveThreadOptions(opts)
	if err != nil {
		return nil, err
	}
	t := &Thread{
		logger:           cfg.logger,
		name:             cfg.name,
		id:               threadIDCounter.Add(1),
		defaultStackSize: cfg.defaultStackSize,
		affinityChecks:   cfg.affinityChecks,
		lockOSThread:     cfg.lockOSThread,
	}
	if cfg.lockOSThread {
		runtime.LockOSThread()
		t.osThreadID = osThreadID()
	}
	if cfg.affinityChecks {
		t.controlGID.Store(getGoroutineID())
	}
	t.event(t.logger.Trace()).
		Int("os_thread", t.osThreadID).
		Log("thread created")
	return t, nil
}

// event seeds a lifecycle log builder with the thread's identity fields.
// Safe on a nil logger: the builder is disabled and every call no-ops.
func (t *Thread) event(b *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event] {
	b = b.Uint64("thread", t.id)
	if t.name != "" {
		b = b.Str("thread_name", t.name)
	}
	return b
}

// Main returns the thread's main fiber, creating it on first call. The
// main fiber wraps the thread's original execution: it has no owned stack,
// is Running whenever no other fiber holds the thread, and never
// terminates. Repeated calls return the same fiber.
func (t *Thread) Main() *Fiber {
	if t.main == nil && !t.closed {
		t.main = newMainFiber(t)
		t.current = t.main
		if t.scheduler == nil {
			t.scheduler = t.main
		}
		t.event(t.logger.Debug()).
			Uint64("fiber", t.main.id).
			Log("main fiber created")
	}
	return t.main
}

// Current returns the fiber currently holding the thread, creating the
// main fiber first if the registry has never been touched.
func (t *Thread) Current() *Fiber {
	if t.current == nil {
		t.Main()
	}
	return t.current
}

// CurrentID returns the id of the fiber currently holding the thread, or
// NoFiberID if the registry has never been touched. Unlike Current, it
// never creates the main fiber.
func (t *Thread) CurrentID() uint64 {
	if t.current == nil {
		return NoFiberID
	}
	return t.current.id
}

// Scheduler returns the thread's designated scheduler fiber: the fiber set
// via SetScheduler, else the main fiber, else nil if the registry has
// never been touched.
func (t *Thread) Scheduler() *Fiber {
	return t.scheduler
}

// SetScheduler designates the counterpart for this thread's scheduler-mode
// fibers, overriding the default (the main fiber). Passing nil restores
// the default. The scheduler fiber must belong to this thread and must
// itself have been constructed with WithRunInScheduler(false), since its
// own counterpart is the main fiber.
//
// Call this before the first Resume of any WithRunInScheduler(true) fiber;
// changing the scheduler while such a fiber is suspended strands the
// execution parked in the old scheduler's slot.
func (t *Thread) SetScheduler(f *Fiber) error {
	if t.closed {
		return ErrThreadClosed
	}
	if f == nil {
		t.scheduler = t.Main()
		return nil
	}
	if f.thread != t {
		return ErrWrongThread
	}
	if f.runInScheduler {
		return ErrSchedulerMode
	}
	if f.state.Load() == StateClosed {
		return ErrFiberClosed
	}
	t.Main()
	t.scheduler = f
	return nil
}

// Yield suspends the fiber currently holding the thread, handing control
// to its counterpart. Convenience for callbacks that do not carry their
// own fiber reference; equivalent to Current().Yield().
func (t *Thread) Yield() error {
	if t.current == nil || t.current == t.main {
		return ErrMainFiber
	}
	return t.current.Yield()
}

// Stats returns a snapshot of the thread's counters.
func (t *Thread) Stats() Stats {
	return Stats{
		Spawned: t.stats.spawned.Load(),
		Resumes: t.stats.resumes.Load(),
		Yields:  t.stats.yields.Load(),
		Resets:  t.stats.resets.Load(),
	}
}

// ID returns the thread's process-unique identity.
func (t *Thread) ID() uint64 {
	return t.id
}

// Name returns the thread's optional name.
func (t *Thread) Name() string {
	return t.name
}

// OSThreadID returns the OS thread id recorded when the thread was pinned
// via WithLockOSThread, or 0 when unpinned or unsupported on this platform.
func (t *Thread) OSThreadID() int {
	return t.osThreadID
}

// Close releases the thread: the main fiber leaves the live-fiber count,
// the registry slots are cleared, and the OS thread is unpinned if
// WithLockOSThread was in effect (in which case Close must be called from
// the pinned goroutine). Worker fibers are not closed implicitly; close
// them first. Close fails with ErrFiberRunning while a worker holds the
// thread.
func (t *Thread) Close() error {
	if t.closed {
		return ErrThreadClosed
	}
	if t.current != nil && t.current != t.main {
		return ErrFiberRunning
	}
	t.closed = true
	if t.main != nil {
		t.main.state.Store(StateClosed)
		fiberCount.Add(-1)
	}
	t.current = nil
	t.main = nil
	t.scheduler = nil
	if t.lockOSThread {
		runtime.UnlockOSThread()
	}
	t.event(t.logger.Trace()).Log("thread closed")
	return nil
}

// enter records g as the goroutine embodying the thread's control. Called
// by each execution as it wakes; no-op unless affinity checks are enabled.
func (t *Thread) enter(g uint64) {
	if g != 0 {
		t.controlGID.Store(g)
	}
}

// checkAffinity returns the caller's goroutine id and verifies the caller
// currently embodies the thread. Returns 0 and no error when checks are
// disabled.
func (t *Thread) checkAffinity() (uint64, error) {
	if !t.affinityChecks {
		return 0, nil
	}
	g := getGoroutineID()
	if t.controlGID.Load() != g {
		return g, ErrNotCurrent
	}
	return g, nil
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
