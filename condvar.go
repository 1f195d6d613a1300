// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"sync"

	"go.uber.org/zap"
)

// ConditionVariableAny is a condition variable for fibers that works with
// any [sync.Locker]. Waiting suspends only the waiting fiber; its carrier
// keeps running other fibers.
//
// The zero value is ready to use. Notifications may come from any goroutine.
type ConditionVariableAny struct {
	mu      sync.Mutex
	waiters WaitQueue
}

// Wait atomically releases lk and suspends self until notified, then
// re-acquires lk before returning. Wakeups may be spurious.
func (cv *ConditionVariableAny) Wait(self *Context, lk sync.Locker) {
	cv.mu.Lock()
	lk.Unlock()
	cv.waiters.SuspendAndWaitUnlock(self, &cv.mu)
	relock(self, lk)
}

// WaitFor calls Wait until pred holds. pred is evaluated with lk held.
func (cv *ConditionVariableAny) WaitFor(self *Context, lk sync.Locker, pred func() bool) {
	for !pred() {
		cv.Wait(self, lk)
	}
}

// NotifyOne wakes one waiting fiber.
func (cv *ConditionVariableAny) NotifyOne() {
	cv.mu.Lock()
	cv.waiters.NotifyOne()
	cv.mu.Unlock()
}

// NotifyAll wakes every waiting fiber.
func (cv *ConditionVariableAny) NotifyAll() {
	cv.mu.Lock()
	cv.waiters.NotifyAll()
	cv.mu.Unlock()
}

// relock re-acquires lk after a wait. A lock that panics here leaves the
// caller's monitor in an unknown state, so the process is stopped.
func relock(self *Context, lk sync.Locker) {
	defer func() {
		if r := recover(); r != nil {
			self.log.Fatal("condition wait could not re-acquire its lock",
				zap.Uint32("context", self.id), zap.Any("panic", r))
		}
	}()
	lk.Lock()
}
