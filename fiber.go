// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime"

	"go.uber.org/zap"
)

// Fiber is the owning handle of a worker context.
//
// A Fiber must be joined or detached. A handle that becomes unreachable
// while still joinable stops the process: a running fiber is never
// abandoned silently.
type Fiber struct {
	impl *Context
}

// New creates a fiber running fn on parent's scheduler and starts it
// according to launch. parent must be the running context.
//
//	f := fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
//		self.Yield()
//	})
//	if err := f.Join(main); err != nil {
//		return err
//	}
func New(parent *Context, launch Launch, fn func(self *Context)) *Fiber {
	s := parent.running("spawn")
	c := newWorker(s.log, launch, fn)
	c.handle = handleOwned
	f := &Fiber{impl: c}
	runtime.AddCleanup(f, abandoned, c)
	s.start(parent, c)
	return f
}

// Go creates and detaches a fiber.
func Go(parent *Context, launch Launch, fn func(self *Context)) {
	if err := New(parent, launch, fn).Detach(); err != nil {
		panic(err)
	}
}

// start makes the new worker c runnable on s. parent is running on s.
func (s *Scheduler) start(parent, c *Context) {
	s.attachWorker(c)
	switch c.launch {
	case LaunchDispatch:
		c.resume(parent, s, handoff{ready: parent})
	case LaunchAsync:
		if ap, ok := s.policy.(AsyncPolicy); ok {
			ap.AwakenedAsync(c)
			return
		}
		s.Schedule(c)
	default:
		s.Schedule(c)
	}
}

func abandoned(c *Context) {
	c.mu.Lock()
	owned := c.handle == handleOwned
	c.mu.Unlock()
	if owned {
		c.log.Fatal("fiber handle dropped while joinable", zap.Uint32("context", c.id))
	}
}

// ID returns the fiber's context id, or zero once the handle let go of it.
func (f *Fiber) ID() ID {
	if f.impl == nil {
		return 0
	}
	return f.impl.id
}

// Joinable reports whether the handle still owns its fiber.
func (f *Fiber) Joinable() bool { return f.impl != nil }

// Join suspends self until the fiber terminates and releases the handle.
// A panic raised by the fiber is re-raised in the caller as *[PanicError].
func (f *Fiber) Join(self *Context) error {
	c := f.impl
	switch {
	case c == nil:
		return usageError("join", ErrNotJoinable)
	case self == nil:
		return usageError("join", ErrNoContext)
	case self == c:
		return usageError("join", ErrJoinSelf)
	}
	c.join(self)
	f.impl = nil
	p := c.takePanic(handleJoined)
	c.release()
	if p != nil {
		panic(p)
	}
	return nil
}

// Detach lets the fiber run unattended and releases the handle. A detached
// fiber that panics stops the process.
func (f *Fiber) Detach() error {
	c := f.impl
	if c == nil {
		return usageError("detach", ErrNotJoinable)
	}
	f.impl = nil
	p := c.takePanic(handleDetached)
	c.release()
	if p != nil {
		panic(p)
	}
	return nil
}
