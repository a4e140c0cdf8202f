package fiber

import (
	"github.com/joeycumines/logiface"
)

// threadOptions holds configuration options for Thread creation.
type threadOptions struct {
	logger           *logiface.Logger[logiface.Event]
	name             string
	defaultStackSize int
	lockOSThread     bool
	affinityChecks   bool
}

// --- Thread Options ---

// ThreadOption configures a Thread instance.
type ThreadOption interface {
	applyThread(*threadOptions) error
}

// threadOptionImpl implements ThreadOption.
type threadOptionImpl struct {
	applyThreadFunc func(*threadOptions) error
}

func (o *threadOptionImpl) applyThread(opts *threadOptions) error {
	return o.applyThreadFunc(opts)
}

// WithLogger sets the structured logger used for thread and fiber lifecycle
// events (creation, reset, close, callback panics). A nil logger, the
// default, disables logging entirely. The switch path never logs.
func WithLogger(logger *logiface.Logger[logiface.Event]) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithName sets an optional name for the thread, attached to its log events.
func WithName(name string) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.name = name
		return nil
	}}
}

// WithDefaultStackSize overrides the stack reservation made for fibers
// constructed with stack size 0. The package default is DefaultStackSize.
func WithDefaultStackSize(size int) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		if size <= 0 || size > MaxStackSize {
			return &StackSizeError{Requested: size}
		}
		opts.defaultStackSize = size
		return nil
	}}
}

// WithLockOSThread pins the goroutine calling NewThread to its OS thread
// for the lifetime of the Thread (released by Thread.Close, which must then
// be called from that same goroutine). Fibers multiplex a logical thread
// either way; pinning is for consumers that need the logical thread to stay
// on one OS thread, e.g. for thread-affine C libraries. When pinned,
// Thread.OSThreadID reports the OS thread where supported.
func WithLockOSThread(enabled bool) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.lockOSThread = enabled
		return nil
	}}
}

// WithAffinityChecks verifies on every Resume and Yield that the calling
// goroutine is the execution currently holding control of the thread,
// returning ErrNotCurrent otherwise. This catches scheduler bugs that
// drive a thread's fibers from the wrong goroutine, which are otherwise
// undefined behavior. Costs one runtime.Stack parse per operation;
// disabled by default.
func WithAffinityChecks(enabled bool) ThreadOption {
	return &threadOptionImpl{func(opts *threadOptions) error {
		opts.affinityChecks = enabled
		return nil
	}}
}

// resolveThreadOptions applies ThreadOption instances to threadOptions.
func resolveThreadOptions(opts []ThreadOption) (*threadOptions, error) {
	cfg := &threadOptions{
		defaultStackSize: DefaultStackSize, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyThread(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// fiberOptions holds configuration options for fiber creation.
type fiberOptions struct {
	stackSize      int
	runInScheduler bool
}

// --- Fiber Options ---

// FiberOption configures a fiber at construction.
type FiberOption interface {
	applyFiber(*fiberOptions) error
}

// fiberOptionImpl implements FiberOption.
type fiberOptionImpl struct {
	applyFiberFunc func(*fiberOptions) error
}

func (o *fiberOptionImpl) applyFiber(opts *fiberOptions) error {
	return o.applyFiberFunc(opts)
}

// WithStackSize sets the fiber's stack reservation in bytes. Zero, the
// default, selects the thread's default size.
func WithStackSize(size int) FiberOption {
	return &fiberOptionImpl{func(opts *fiberOptions) error {
		if size < 0 || size > MaxStackSize {
			return &StackSizeError{Requested: size}
		}
		opts.stackSize = size
		return nil
	}}
}

// WithRunInScheduler selects the fiber's fixed counterpart for every Resume
// and Yield: the thread's scheduler fiber when true, the thread's main
// fiber when false (the default). The choice is fixed for the fiber's
// lifetime, including across Reset.
func WithRunInScheduler(enabled bool) FiberOption {
	return &fiberOptionImpl{func(opts *fiberOptions) error {
		opts.runInScheduler = enabled
		return nil
	}}
}

// resolveFiberOptions applies FiberOption instances to fiberOptions.
func resolveFiberOptions(opts []FiberOption) (*fiberOptions, error) {
	cfg := &fiberOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyFiber(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
