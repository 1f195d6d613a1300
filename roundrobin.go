// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "time"

// RoundRobin runs ready contexts in FIFO order on a single scheduler.
// Contexts never leave the scheduler they were created on.
type RoundRobin struct {
	ready ctxQueue
	wake  chan struct{}
	owner *Scheduler
}

// NewRoundRobin returns a RoundRobin policy for one scheduler.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{wake: make(chan struct{}, 1)}
}

func (p *RoundRobin) bind(s *Scheduler) {
	if p.owner != nil {
		panic("fiber: policy already bound to a scheduler")
	}
	p.owner = s
}

func (p *RoundRobin) unbind() {}

func (p *RoundRobin) Awakened(c *Context) { p.ready.push(c) }

func (p *RoundRobin) PickNext() *Context { return p.ready.pop() }

func (p *RoundRobin) HasReadyFibers() bool { return p.ready.len() > 0 }

func (p *RoundRobin) SuspendUntil(deadline time.Time) { park(p.wake, deadline) }

func (p *RoundRobin) Notify() { signal(p.wake) }
