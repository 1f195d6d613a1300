// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"sync"
	"time"

	"code.hybscloud.com/iox"
)

// SharedPool is the ready queue shared by every [SharedWork] policy built
// on it. Each pool is an independent work-sharing domain.
type SharedPool struct {
	mu      sync.Mutex
	ready   ctxQueue
	members []*SharedWork
}

// NewSharedPool returns an empty pool.
func NewSharedPool() *SharedPool {
	return &SharedPool{}
}

// Len returns the number of contexts waiting in the pool.
func (p *SharedPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready.len()
}

func (p *SharedPool) push(c *Context) {
	p.mu.Lock()
	p.ready.push(c)
	members := p.members
	p.mu.Unlock()
	for _, w := range members {
		w.Notify()
	}
}

func (p *SharedPool) pop() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready.pop()
}

func (p *SharedPool) join(w *SharedWork) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members = append(p.members, w)
}

func (p *SharedPool) leave(w *SharedWork) {
	p.mu.Lock()
	defer p.mu.Unlock()
	members := make([]*SharedWork, 0, len(p.members))
	for _, m := range p.members {
		if m != w {
			members = append(members, m)
		}
	}
	p.members = members
}

// SharedWork shares worker contexts between schedulers through a
// [SharedPool]. Main and dispatcher contexts stay on a private local queue.
// Every other context is detached from its scheduler when it becomes ready
// and is adopted by whichever scheduler pops it.
//
// The pool is drained before the local queue, so sustained pool traffic can
// delay pinned contexts.
type SharedWork struct {
	pool    *SharedPool
	owner   *Scheduler
	local   ctxQueue
	wake    chan struct{}
	bo      iox.Backoff
	suspend bool
}

// NewSharedWork returns a policy sharing work through pool. With suspend
// set, an idle carrier parks until new work is pushed or a deadline passes;
// otherwise it polls with adaptive backoff.
func NewSharedWork(pool *SharedPool, suspend bool) *SharedWork {
	return &SharedWork{
		pool:    pool,
		wake:    make(chan struct{}, 1),
		suspend: suspend,
	}
}

func (w *SharedWork) bind(s *Scheduler) {
	if w.owner != nil {
		panic("fiber: policy already bound to a scheduler")
	}
	w.owner = s
	w.pool.join(w)
}

func (w *SharedWork) unbind() {
	w.pool.leave(w)
}

func (w *SharedWork) Awakened(c *Context) {
	if c.Pinned() {
		w.local.push(c)
		return
	}
	w.AwakenedAsync(c)
}

// AwakenedAsync detaches c from its scheduler and pushes it on the pool.
func (w *SharedWork) AwakenedAsync(c *Context) {
	w.owner.migrate(c)
	w.pool.push(c)
}

func (w *SharedWork) PickNext() *Context {
	if c := w.pool.pop(); c != nil {
		w.owner.attachWorker(c)
		w.bo.Reset()
		return c
	}
	return w.local.pop()
}

func (w *SharedWork) HasReadyFibers() bool {
	return w.local.len() > 0 || w.pool.Len() > 0
}

func (w *SharedWork) SuspendUntil(deadline time.Time) {
	if !w.suspend {
		if deadline.IsZero() || time.Now().Before(deadline) {
			w.bo.Wait()
		}
		return
	}
	park(w.wake, deadline)
}

func (w *SharedWork) Notify() {
	if w.suspend {
		signal(w.wake)
	}
}
