// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime/debug"
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// state is the shared result of a promise and its future. The result is
// set exactly once: Left holds an error, Right the value. mu guards both
// the result and the ready flag, so a reader on another carrier observes
// the result the setter published.
type state[T any] struct {
	mu     sync.Mutex
	cv     ConditionVariableAny
	result kont.Either[error, T]
	ready  bool
}

func (st *state[T]) set(op string, r kont.Either[error, T]) error {
	st.mu.Lock()
	if st.ready {
		st.mu.Unlock()
		return stateError(op, ErrAlreadySatisfied)
	}
	st.result = r
	st.ready = true
	st.mu.Unlock()
	st.cv.NotifyAll()
	return nil
}

func (st *state[T]) isReady() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ready
}

// wait blocks until the result is set. A nil self waits from a goroutine
// that is not a fiber, polling with backoff.
func (st *state[T]) wait(self *Context) {
	if self == nil {
		var bo iox.Backoff
		for !st.isReady() {
			bo.Wait()
		}
		return
	}
	st.mu.Lock()
	st.cv.WaitFor(self, &st.mu, func() bool { return st.ready })
	st.mu.Unlock()
}

// take returns the published result. The caller has waited for it.
func (st *state[T]) take() kont.Either[error, T] {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.result
}

// Future receives the result of an asynchronous operation.
//
// Waiting suspends only the calling fiber. Passing a nil context waits from
// an ordinary goroutine instead; that goroutine must not be a scheduler's
// main context, whose carrier would stall.
type Future[T any] struct {
	st *state[T]
}

// Valid reports whether f still refers to a result.
func (f *Future[T]) Valid() bool { return f.st != nil }

// Ready reports whether the result is available.
func (f *Future[T]) Ready() bool {
	return f.st != nil && f.st.isReady()
}

// Wait suspends self until the result is available.
func (f *Future[T]) Wait(self *Context) error {
	if f.st == nil {
		return stateError("wait", ErrNoState)
	}
	f.st.wait(self)
	return nil
}

// Get waits for the result and consumes it. A later Get returns
// [ErrNoState].
func (f *Future[T]) Get(self *Context) (T, error) {
	st := f.st
	if st == nil {
		var zero T
		return zero, stateError("get", ErrNoState)
	}
	st.wait(self)
	f.st = nil
	r := st.take()
	if err, ok := r.GetLeft(); ok {
		var zero T
		return zero, err
	}
	v, _ := r.GetRight()
	return v, nil
}

// Promise is the producing side of a [Future].
type Promise[T any] struct {
	st        *state[T]
	retrieved bool
}

// NewPromise returns a promise with an empty shared result.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{st: &state[T]{}}
}

// Future returns the future bound to p. It can be retrieved once.
func (p *Promise[T]) Future() (*Future[T], error) {
	if p.st == nil {
		return nil, stateError("future", ErrNoState)
	}
	if p.retrieved {
		return nil, stateError("future", ErrAlreadyRetrieved)
	}
	p.retrieved = true
	return &Future[T]{st: p.st}, nil
}

// SetValue stores v and wakes the waiters.
func (p *Promise[T]) SetValue(v T) error {
	if p.st == nil {
		return stateError("set value", ErrNoState)
	}
	return p.st.set("set value", kont.Right[error](v))
}

// SetError stores err and wakes the waiters.
func (p *Promise[T]) SetError(err error) error {
	if p.st == nil {
		return stateError("set error", ErrNoState)
	}
	return p.st.set("set error", kont.Left[error, T](err))
}

// PackagedTask wraps a function whose result is delivered through a future.
type PackagedTask[T any] struct {
	fn      func(self *Context) (T, error)
	promise *Promise[T]
}

// NewPackagedTask returns a task that runs fn once.
func NewPackagedTask[T any](fn func(self *Context) (T, error)) *PackagedTask[T] {
	return &PackagedTask[T]{fn: fn, promise: NewPromise[T]()}
}

// Valid reports whether the task can still run.
func (t *PackagedTask[T]) Valid() bool { return t.fn != nil }

// Future returns the future bound to the task's result.
func (t *PackagedTask[T]) Future() (*Future[T], error) {
	return t.promise.Future()
}

// Run calls the task's function on self and stores its outcome. A panic
// is stored as *[PanicError].
func (t *PackagedTask[T]) Run(self *Context) error {
	fn := t.fn
	if fn == nil {
		return stateError("run", ErrNoState)
	}
	t.fn = nil
	v, err := t.call(fn, self)
	if err != nil {
		return t.promise.SetError(err)
	}
	return t.promise.SetValue(v)
}

func (t *PackagedTask[T]) call(fn func(self *Context) (T, error), self *Context) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(self)
}

// Async runs fn on a detached fiber launched with [LaunchAsync] and
// returns the future of its result. Under [SharedWork] the fiber may run
// on any scheduler sharing the pool.
func Async[T any](parent *Context, fn func(self *Context) (T, error)) *Future[T] {
	t := NewPackagedTask(fn)
	fut, _ := t.Future()
	Go(parent, LaunchAsync, func(self *Context) {
		_ = t.Run(self)
	})
	return fut
}
