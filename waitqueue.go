// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "sync"

// WaitQueue is a FIFO of suspended contexts.
//
// WaitQueue has no lock of its own. Callers hold an external lock across
// checking their condition and enqueueing, and hand that lock to
// SuspendAndWaitUnlock so it is released only after the caller has left its
// carrier. The same lock guards NotifyOne and NotifyAll.
type WaitQueue struct {
	waits ctxQueue
}

// SuspendAndWait enqueues self and suspends it until notified.
func (q *WaitQueue) SuspendAndWait(self *Context) {
	q.waits.push(self)
	self.suspend(nil)
}

// SuspendAndWaitUnlock enqueues self, suspends it and releases lk once self
// is no longer running.
func (q *WaitQueue) SuspendAndWaitUnlock(self *Context, lk sync.Locker) {
	q.waits.push(self)
	self.suspend(lk)
}

// NotifyOne wakes the longest waiting context. Contexts that can no longer
// be woken are dropped. It reports whether a context was woken.
func (q *WaitQueue) NotifyOne() bool {
	for c := q.waits.pop(); c != nil; c = q.waits.pop() {
		if c.wake() {
			return true
		}
	}
	return false
}

// NotifyAll wakes every queued context and leaves q empty.
func (q *WaitQueue) NotifyAll() {
	for c := q.waits.pop(); c != nil; c = q.waits.pop() {
		c.wake()
	}
}

// Empty reports whether no context is waiting.
func (q *WaitQueue) Empty() bool { return q.waits.len() == 0 }

// Len returns the number of waiting contexts.
func (q *WaitQueue) Len() int { return q.waits.len() }
