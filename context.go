// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"runtime/debug"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"
)

// Role tags what a context is used for.
type Role uint8

const (
	// RoleWorker contexts run user fibers and may migrate between schedulers.
	RoleWorker Role = iota
	// RoleMain represents the goroutine that created the scheduler.
	RoleMain
	// RoleDispatcher runs the scheduler's dispatch loop.
	RoleDispatcher
)

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleMain:
		return "main"
	case RoleDispatcher:
		return "dispatcher"
	default:
		return "unknown"
	}
}

// Launch selects how a new fiber first becomes runnable.
type Launch uint8

const (
	// LaunchPost queues the fiber behind the contexts that are already ready.
	LaunchPost Launch = iota
	// LaunchDispatch runs the fiber immediately; the creator is queued and
	// continues once the new fiber reaches its first suspension point.
	LaunchDispatch
	// LaunchAsync hands the fiber to the policy's cross-scheduler queue when
	// the policy has one (see [AsyncPolicy]), making it free to migrate.
	LaunchAsync
)

func (l Launch) String() string {
	switch l {
	case LaunchPost:
		return "post"
	case LaunchDispatch:
		return "dispatch"
	case LaunchAsync:
		return "async"
	default:
		return "unknown"
	}
}

// handle states of a worker context's public Fiber handle.
const (
	handleNone uint8 = iota
	handleOwned
	handleJoined
	handleDetached
)

// handoff is the payload carried across a context switch. The context that
// receives it applies the actions once it is running: only then has control
// really left prev.
type handoff struct {
	prev    *Context
	sched   *Scheduler
	unlock  sync.Locker
	ready   *Context
	reclaim bool
}

// Context is the control record of one fiber, or of a scheduler's pinned
// main or dispatcher role.
//
// Every context owns a goroutine that runs only while the context holds its
// scheduler's baton. Switching sends a handoff on the target's resume channel
// and parks the sender on its own.
type Context struct {
	sched    *Scheduler
	origin   *Scheduler
	log      *zap.Logger
	fn       func(self *Context)
	resumeCh chan handoff
	deadline time.Time
	sleepSeq uint64

	mu         sync.Mutex
	waiters    WaitQueue
	panicErr   *PanicError
	terminated bool
	handle     uint8

	refs     atomix.Uint32
	id       ID
	role     Role
	launch   Launch
	attached bool
}

func newContext(log *zap.Logger, role Role, launch Launch, refs uint32) *Context {
	c := &Context{
		id:       nextID(),
		role:     role,
		launch:   launch,
		log:      log,
		resumeCh: make(chan handoff, 1),
	}
	c.refs.Add(refs)
	return c
}

// newWorker creates a worker context suspended at its entry point. The
// creator holds two references: one for the public handle and one for the
// scheduler, dropped after the context's final switch.
func newWorker(log *zap.Logger, launch Launch, fn func(self *Context)) *Context {
	c := newContext(log, RoleWorker, launch, 2)
	c.fn = fn
	go c.entry()
	return c
}

// ID returns the context's process-unique identifier.
func (c *Context) ID() ID { return c.id }

// Role returns the context's role.
func (c *Context) Role() Role { return c.role }

// Launch returns the launch mode the context was created with.
func (c *Context) Launch() Launch { return c.launch }

// Pinned reports whether the context must stay on its scheduler.
// Main and dispatcher contexts are pinned.
func (c *Context) Pinned() bool { return c.role != RoleWorker }

// Scheduler returns the scheduler that currently owns c, or nil while c
// waits on a cross-scheduler queue. Called by a running fiber on itself, it
// identifies the carrier the fiber runs on.
func (c *Context) Scheduler() *Scheduler { return c.sched }

// IsTerminated reports whether c has finished.
func (c *Context) IsTerminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// IsResumable reports whether c can still be switched to.
func (c *Context) IsResumable() bool { return !c.IsTerminated() }

// Yield moves c to the back of the ready set and runs whatever the policy
// picks next. It returns once c is picked again.
func (c *Context) Yield() {
	c.running("yield").yield(c)
}

// WaitUntil suspends c until deadline. It reports whether c woke before the
// deadline had passed; the result is a one-shot observation, so callers
// re-check their own condition. A zero deadline counts as already passed:
// c yields once and WaitUntil reports false.
func (c *Context) WaitUntil(deadline time.Time) bool {
	return c.running("wait").waitUntil(c, deadline)
}

// SleepFor suspends c for at least d without blocking its carrier.
func (c *Context) SleepFor(d time.Duration) {
	c.WaitUntil(time.Now().Add(d))
}

// SleepUntil suspends c until t without blocking its carrier. A zero t
// only yields.
func (c *Context) SleepUntil(t time.Time) {
	c.WaitUntil(t)
}

// Detach removes c from its scheduler's worker set. c still runs on that
// scheduler and can be woken there; a scheduler shutting down no longer
// waits for it. The caller must be running on c's scheduler and must not
// be c.
func (c *Context) Detach() {
	c.sched.detachWorker(c)
}

// Attach adds other to c's scheduler's worker set, making that scheduler
// the one that runs and wakes other. other must be detached, and must not
// sit in another scheduler's ready queue.
func (c *Context) Attach(other *Context) {
	c.sched.attachWorker(other)
}

// running returns c's scheduler, panicking when c is not the context that
// holds it.
func (c *Context) running(op string) *Scheduler {
	s := c.sched
	if s == nil || s.active != c {
		panic("fiber: " + op + " called on a context that is not running")
	}
	return s
}

// resume switches from the running context from to c and parks from until it
// is switched to again.
func (c *Context) resume(from *Context, s *Scheduler, h handoff) {
	h.prev, h.sched = from, s
	c.resumeCh <- h
	from.activate(<-from.resumeCh)
}

// resumeFinal switches to c without parking: the caller's goroutine ends.
func (c *Context) resumeFinal(from *Context, s *Scheduler, h handoff) {
	h.prev, h.sched = from, s
	c.resumeCh <- h
}

// activate runs on c's goroutine right after a switch into c.
func (c *Context) activate(h handoff) {
	s := h.sched
	s.active = c
	if h.unlock != nil {
		h.unlock.Unlock()
	}
	if h.ready != nil {
		s.Schedule(h.ready)
	}
	if h.reclaim {
		h.prev.release()
	}
}

// suspend hands the carrier to the policy's next pick. c becomes runnable
// again only through wake. lk, when non-nil, is released once control has
// left c.
func (c *Context) suspend(lk sync.Locker) {
	s := c.running("suspend")
	s.pickNext().resume(c, s, handoff{unlock: lk})
}

// wake makes a suspended context ready. It is safe from any goroutine and
// reports false when c has already terminated.
func (c *Context) wake() bool {
	if c.IsTerminated() {
		return false
	}
	c.sched.wakeup(c)
	return true
}

// join parks self until c terminates.
func (c *Context) join(self *Context) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return
	}
	c.waiters.SuspendAndWaitUnlock(self, &c.mu)
}

func (c *Context) entry() {
	c.activate(<-c.resumeCh)
	defer c.terminate()
	c.invoke()
}

func (c *Context) invoke() {
	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.panicErr = &PanicError{Value: r, Stack: debug.Stack()}
			c.mu.Unlock()
		}
	}()
	c.fn(c)
}

// terminate marks c finished, wakes its joiners and performs the final switch.
// The context that receives control drops the scheduler's reference.
func (c *Context) terminate() {
	s := c.running("terminate")
	c.mu.Lock()
	c.terminated = true
	c.waiters.NotifyAll()
	p := c.panicErr
	if p != nil && c.handle == handleDetached {
		c.mu.Unlock()
		panic(p)
	}
	c.mu.Unlock()
	s.terminate(c).resumeFinal(c, s, handoff{reclaim: true})
}

// release drops one reference. The last one clears the entry function.
func (c *Context) release() {
	if c.refs.Add(^uint32(0)) != 0 {
		return
	}
	c.fn = nil
	if ce := c.log.Check(zap.DebugLevel, "context released"); ce != nil {
		ce.Write(zap.Uint32("context", c.id), zap.Stringer("role", c.role))
	}
}

// takePanic records how the handle let go of c and returns the captured
// panic, if c terminated with one.
func (c *Context) takePanic(state uint8) *PanicError {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = state
	if !c.terminated {
		return nil
	}
	return c.panicErr
}
