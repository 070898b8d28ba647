package sdl

import (
	"errors"
	"runtime"
	"sync"
)

var errClosed = errors.New("sdl: device closed")

// osThread runs functions on one goroutine locked to its OS thread, the way
// SDL expects to be driven.
type osThread struct {
	calls chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func startOSThread() *osThread {
	t := &osThread{
		calls: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *osThread) run() {
	defer close(t.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case f := <-t.calls:
			f()
		case <-t.quit:
			return
		}
	}
}

// do runs f on the thread and waits for it to return.
func (t *osThread) do(f func()) error {
	ran := make(chan struct{})
	select {
	case t.calls <- func() { defer close(ran); f() }:
	case <-t.done:
		return errClosed
	}
	<-ran
	return nil
}

// stop ends the thread after any running call. Safe to call more than once.
func (t *osThread) stop() {
	t.once.Do(func() { close(t.quit) })
	<-t.done
}
