package fiber

import (
	"runtime"
)

// switchToken is the value exchanged through an execContext channel.
type switchToken uint8

const (
	// tokenResume hands control to the parked execution.
	tokenResume switchToken = iota + 1
	// tokenClose tells the parked execution to unwind and exit.
	tokenClose
)

// execContext is a fiber's saved-context slot. An execution suspended "in"
// the slot is a goroutine blocked receiving on ch; restoring the context is
// sending on ch. The channel is unbuffered, so every transfer is a
// rendezvous and at most one execution per thread is runnable at a time.
//
// The slot discipline mirrors a two-party swapcontext: each switch saves
// the outgoing execution into one slot and restores whatever execution was
// saved in the other. A slot holds at most one execution; the counterpart
// precondition on Resume enforces that.
type execContext struct {
	ch chan switchToken
}

func newExecContext() execContext {
	return execContext{ch: make(chan switchToken)}
}

// park suspends the calling goroutine in this slot until another execution
// transfers control to it. If the slot is interrupted instead, the
// goroutine exits via runtime.Goexit, running any deferred functions on
// its stack; Goexit cannot be stopped by recover, so a callback cannot
// accidentally swallow the unwind.
func (c *execContext) park() {
	if tok := <-c.ch; tok == tokenClose {
		runtime.Goexit()
	}
}

// transfer wakes the execution parked in this slot. The send rendezvouses
// with the parked goroutine's receive, briefly blocking if that goroutine
// is still on its way to the park point.
func (c *execContext) transfer() {
	c.ch <- tokenResume
}

// interrupt wakes the execution parked in this slot with a close token,
// causing it to unwind. Blocks until delivered.
func (c *execContext) interrupt() {
	c.ch <- tokenClose
}

// switchTo saves the calling execution into save and restores the execution
// parked in restore, the two halves of a context swap. Control returns when
// some later switch restores save.
func switchTo(save, restore *execContext) {
	restore.transfer()
	save.park()
}
