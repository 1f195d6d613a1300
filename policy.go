// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "time"

// Policy decides which ready context runs next on a scheduler and how the
// scheduler's carrier waits when nothing is ready.
//
// All methods except Notify are called by the context running on the
// policy's scheduler. Notify may be called from any goroutine.
type Policy interface {
	// Awakened marks c ready.
	Awakened(c *Context)
	// PickNext returns the next ready context, or nil. It never blocks.
	PickNext() *Context
	// HasReadyFibers reports whether PickNext would return a context.
	HasReadyFibers() bool
	// SuspendUntil blocks the carrier until deadline, or until Notify.
	// A zero deadline waits for Notify alone.
	SuspendUntil(deadline time.Time)
	// Notify wakes a carrier blocked in SuspendUntil. A Notify that finds
	// no waiter is kept for the next SuspendUntil.
	Notify()
}

// AsyncPolicy is implemented by policies that can move contexts between
// schedulers. Contexts launched with [LaunchAsync] enter the policy through
// AwakenedAsync instead of Awakened.
type AsyncPolicy interface {
	Policy
	AwakenedAsync(c *Context)
}

// park blocks on wake until deadline.
func park(wake <-chan struct{}, deadline time.Time) {
	if deadline.IsZero() {
		<-wake
		return
	}
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	select {
	case <-wake:
	case <-t.C:
	}
	t.Stop()
}

// signal is a non-blocking send on a one-slot wake channel.
func signal(wake chan<- struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}
