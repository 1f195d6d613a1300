// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"container/heap"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"
)

// Scheduler multiplexes fibers over one carrier. At most one of its contexts
// runs at any instant; control moves between them only at suspension points.
//
// The goroutine that calls [NewScheduler] becomes the scheduler's main
// context. It keeps running until it suspends, for example in [Fiber.Join],
// [Context.Yield] or [Scheduler.Close], at which point the dispatcher runs
// the ready fibers.
type Scheduler struct {
	policy     Policy
	log        *zap.Logger
	main       *Context
	dispatcher *Context
	active     *Context
	workers    map[*Context]struct{}
	sleepers   sleepQueue
	sleepSeq   uint64
	name       string

	// mu guards the remote inbox and the terminated queue.
	mu         sync.Mutex
	inbox      []*Context
	drained    []*Context
	terminated ctxQueue

	refs     atomix.Uint32
	pending  atomix.Uint32
	id       ID
	shutdown bool
	notified bool
	closed   bool
}

// binder is implemented by policies that need their scheduler.
type binder interface {
	bind(s *Scheduler)
	unbind()
}

// NewScheduler creates a scheduler hosted on the calling goroutine and
// returns it holding one reference. The default policy is [RoundRobin].
//
// The policy is fixed for the scheduler's lifetime, and a policy value
// serves one scheduler only. Schedulers are not keyed by goroutine: every
// call creates a new scheduler with its own main context, so code that
// shares a carrier passes the *Scheduler along and pairs [Scheduler.Retain]
// with [Scheduler.Close] instead of calling NewScheduler again.
func NewScheduler(opts ...Option) *Scheduler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = NewRoundRobin()
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	s := &Scheduler{
		id:      nextID(),
		name:    o.name,
		policy:  o.policy,
		workers: make(map[*Context]struct{}),
	}
	s.log = o.logger.With(zap.Uint32("scheduler", s.id))
	if s.name != "" {
		s.log = s.log.With(zap.String("name", s.name))
	}
	s.refs.Add(1)
	if b, ok := s.policy.(binder); ok {
		b.bind(s)
	}

	s.main = newContext(s.log, RoleMain, LaunchPost, 1)
	s.main.sched = s
	s.dispatcher = newContext(s.log, RoleDispatcher, LaunchPost, 1)
	s.dispatcher.sched = s
	go func(d *Context) {
		d.activate(<-d.resumeCh)
		s.dispatch()
	}(s.dispatcher)

	s.active = s.main
	s.policy.Awakened(s.dispatcher)
	s.log.Debug("scheduler started")
	return s
}

// Run hosts a scheduler on the calling goroutine, runs fn as its main
// context and closes the scheduler once fn returns and every fiber the
// scheduler owns has finished. It returns fn's error.
func Run(fn func(main *Context) error, opts ...Option) error {
	s := NewScheduler(opts...)
	defer s.Close()
	return fn(s.Main())
}

// Main returns the context of the goroutine that created s.
func (s *Scheduler) Main() *Context { return s.main }

// ID returns the scheduler's identifier.
func (s *Scheduler) ID() ID { return s.id }

// Name returns the name given with [WithName].
func (s *Scheduler) Name() string { return s.name }

// Retain adds a reference to s. Every Retain is paired with a Close.
func (s *Scheduler) Retain() *Scheduler {
	s.refs.Add(1)
	return s
}

// Close drops a reference. Dropping the last one shuts s down: the main
// context suspends until every worker owned by s, and every fiber that
// migrated away from s, has terminated. The last Close must run on the main
// context.
func (s *Scheduler) Close() {
	if s.closed {
		panic("fiber: scheduler closed twice")
	}
	if s.refs.Add(^uint32(0)) != 0 {
		return
	}
	m := s.main
	m.running("close")
	s.shutdown = true
	s.log.Debug("scheduler shutting down", zap.Int("workers", len(s.workers)))
	m.suspend(nil)

	if len(s.workers) != 0 || s.sleepers.Len() != 0 || s.terminated.len() != 0 || len(s.inbox) != 0 {
		panic("fiber: scheduler destroyed with live contexts")
	}
	if b, ok := s.policy.(binder); ok {
		b.unbind()
	}
	s.closed = true
	s.dispatcher.release()
	m.release()
	s.log.Debug("scheduler stopped")
}

// Schedule makes c ready through the policy. It must be called by the
// context running on s, with a suspended c that is in no other queue.
func (s *Scheduler) Schedule(c *Context) {
	s.policy.Awakened(c)
}

// pickNext asks the policy for the next context, falling back to the
// dispatcher.
func (s *Scheduler) pickNext() *Context {
	if c := s.policy.PickNext(); c != nil {
		return c
	}
	return s.dispatcher
}

func (s *Scheduler) yield(c *Context) {
	s.pickNext().resume(c, s, handoff{ready: c})
}

func (s *Scheduler) waitUntil(c *Context, deadline time.Time) bool {
	if deadline.IsZero() {
		s.yield(c)
		return false
	}
	s.sleepSeq++
	c.deadline, c.sleepSeq = deadline, s.sleepSeq
	heap.Push(&s.sleepers, c)
	s.pickNext().resume(c, s, handoff{})
	return time.Now().Before(deadline)
}

// terminate removes a finished worker and returns the context to run next.
// Contexts that migrated report to their origin, which counts them down.
func (s *Scheduler) terminate(c *Context) *Context {
	if c.attached {
		s.detachWorker(c)
	}
	if o := c.origin; o != nil {
		c.sched = o
		o.fileTerminated(c)
	}
	return s.pickNext()
}

// wakeup makes c ready from any goroutine. The dispatcher drains the inbox.
func (s *Scheduler) wakeup(c *Context) {
	s.mu.Lock()
	s.inbox = append(s.inbox, c)
	s.mu.Unlock()
	s.policy.Notify()
}

func (s *Scheduler) fileTerminated(c *Context) {
	s.mu.Lock()
	s.terminated.push(c)
	s.mu.Unlock()
	s.policy.Notify()
}

func (s *Scheduler) drainInbox() {
	s.mu.Lock()
	s.inbox, s.drained = s.drained[:0], s.inbox
	s.mu.Unlock()
	for i, c := range s.drained {
		s.drained[i] = nil
		s.Schedule(c)
	}
}

func (s *Scheduler) procTerminated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := s.terminated.pop(); c != nil; c = s.terminated.pop() {
		s.pending.Add(^uint32(0))
		if ce := s.log.Check(zap.DebugLevel, "migrated context finished"); ce != nil {
			ce.Write(zap.Uint32("context", c.id))
		}
	}
}

func (s *Scheduler) procSleepers() {
	now := time.Now()
	for s.sleepers.Len() > 0 {
		c := s.sleepers[0]
		if now.Before(c.deadline) {
			return
		}
		heap.Pop(&s.sleepers)
		c.deadline = time.Time{}
		s.Schedule(c)
	}
}

func (s *Scheduler) nextDeadline() time.Time {
	if s.sleepers.Len() == 0 {
		return time.Time{}
	}
	return s.sleepers[0].deadline
}

// dispatch is the dispatcher's body. Each fiber it resumes hands the
// dispatcher back to the policy, so it runs again after the fibers that
// were ready before it.
func (s *Scheduler) dispatch() {
	d := s.dispatcher
	for {
		if s.shutdown {
			if !s.notified {
				s.notified = true
				s.policy.Notify()
			}
			if len(s.workers) == 0 && s.pending.Load() == 0 {
				break
			}
		}
		s.procTerminated()
		s.drainInbox()
		s.procSleepers()
		if next := s.policy.PickNext(); next != nil {
			next.resume(d, s, handoff{ready: d})
			continue
		}
		if s.shutdown && len(s.workers) == 0 && s.pending.Load() == 0 {
			continue
		}
		s.policy.SuspendUntil(s.nextDeadline())
	}
	s.procTerminated()
	s.main.resumeFinal(d, s, handoff{})
}

// attachWorker adds c to the worker set and makes s the scheduler that
// runs and wakes c.
func (s *Scheduler) attachWorker(c *Context) {
	if c.role != RoleWorker {
		panic("fiber: attach of a pinned context")
	}
	if c.attached {
		panic("fiber: context attached twice")
	}
	c.attached = true
	c.sched = s
	s.workers[c] = struct{}{}
}

// detachWorker removes c from the worker set. c keeps its scheduler, so a
// suspended c can still be woken and run there.
func (s *Scheduler) detachWorker(c *Context) {
	if _, ok := s.workers[c]; !ok || !c.attached {
		panic("fiber: context is not attached to this scheduler")
	}
	c.attached = false
	delete(s.workers, c)
}

// migrate detaches c so another scheduler may adopt it. The first migration
// records s as c's origin; s then stays open until c terminates.
func (s *Scheduler) migrate(c *Context) {
	if c.origin == nil {
		c.origin = s
		s.pending.Add(1)
	}
	if c.attached {
		s.detachWorker(c)
	}
	c.sched = nil
	if ce := s.log.Check(zap.DebugLevel, "context migrating"); ce != nil {
		ce.Write(zap.Uint32("context", c.id))
	}
}
