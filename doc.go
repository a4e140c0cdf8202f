// Package fiber provides stackful, cooperatively scheduled execution units
// that let a single logical thread multiplex many independent call stacks.
// It is the lowest-level primitive beneath a scheduler, event loop, or task
// pool: consumers decide which fiber runs next, this package implements how
// control transfers between two fibers and what state a fiber carries.
//
// # Architecture
//
// A [Thread] is the scheduling context for one logical thread: it holds the
// fiber currently running, the lazily created main fiber wrapping the
// thread's original execution, and a designated scheduler fiber (the main
// fiber until [Thread.SetScheduler] overrides it). A [Fiber] is constructed
// around a callback via [Thread.NewFiber] and driven with [Fiber.Resume];
// inside the callback, [Fiber.Yield] (or [Thread.Yield]) suspends the fiber
// until the next Resume. When the callback returns, the fiber terminates;
// [Fiber.Reset] arms a terminated fiber with a new callback, reusing its
// id, goroutine, and stack reservation; [Fiber.Close] releases it.
//
// Every fiber has a fixed counterpart chosen at construction: the thread's
// main fiber, or its scheduler fiber for [WithRunInScheduler] fibers. A
// fiber only ever exchanges control with that counterpart. Multi-way
// scheduling is built on top by resuming different fibers from the
// counterpart in turn, which is exactly what an external scheduler's run
// loop does.
//
// # Execution Model
//
// Each fiber is backed by a dedicated goroutine and an unbuffered channel
// serving as its saved-context slot. Suspension parks the goroutine in the
// slot; resumption is a channel rendezvous, so at most one execution per
// thread is runnable at any instant and control transfers are strictly
// two-party. There is no preemption: a fiber keeps the thread until it
// yields or its callback returns, and a blocking call in a callback stalls
// the whole logical thread.
//
// # Thread Safety
//
// A Thread and its fibers are a single-owner structure. The methods that
// move control (NewFiber, Resume, Yield, Reset, SetScheduler, Close) must
// be called from the execution currently holding the thread; that
// execution migrates between goroutines as fibers hand off, but it is
// always exactly one goroutine, so the registry needs no locks.
// [Fiber.State], [Thread.Stats], [Alive], and [StackBytes] are backed by
// atomics and safe from any goroutine; the registry accessors
// ([Thread.Current], [Thread.CurrentID], [Thread.Scheduler]) read
// single-owner state and belong to the executing side, like the
// control-moving methods. [WithAffinityChecks] turns cross-goroutine
// misuse of the control-moving methods into [ErrNotCurrent] at a small
// per-operation cost.
//
// # Usage
//
//	th, err := fiber.NewThread()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer th.Close()
//
//	f, err := th.NewFiber(func() {
//		fmt.Println("first slice")
//		th.Yield()
//		fmt.Println("second slice")
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer f.Close()
//
//	f.Resume() // prints "first slice", returns on the yield
//	f.Resume() // prints "second slice", fiber terminates
//
// # Error Types
//
// Contract violations surface as errors rather than corrupting the switch
// protocol: resuming a non-ready fiber ([ErrNotReady]), resuming from the
// wrong fiber ([ErrNotCounterpart]), yielding from a fiber that does not
// hold the thread ([ErrNotCurrent]), resetting a fiber that has not
// terminated ([ErrNotTerminated]), and operating on a closed fiber
// ([ErrFiberClosed]). A panic inside a callback is captured and re-raised
// in the resuming execution wrapped in [PanicError]; [StackSizeError]
// reports stack reservations outside the accepted range.
package fiber
