// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"time"

	"code.hybscloud.com/kont"
)

// effectContext is what fiber effects are dispatched against: the fiber
// evaluating the computation and, for pipe effects, its endpoint.
type effectContext struct {
	self *Context
	ep   *Endpoint
}

// fiberDispatcher is the structural interface for fiber effects.
// DispatchFiber returns iox.ErrWouldBlock when a pipe cannot make progress;
// every other effect completes in one call.
type fiberDispatcher interface {
	DispatchFiber(ctx *effectContext) (kont.Resumed, error)
}

// Yield is the effect operation for giving up the carrier.
// Perform(Yield{}) lets the other ready fibers run first.
type Yield struct {
	kont.Phantom[struct{}]
}

// DispatchFiber yields the evaluating fiber. Without a fiber it is a no-op.
func (Yield) DispatchFiber(ctx *effectContext) (kont.Resumed, error) {
	if ctx.self != nil {
		ctx.self.Yield()
	}
	return struct{}{}, nil
}

// Sleep is the effect operation for suspending for a duration.
// Perform(Sleep{D: d}) resumes no earlier than d later.
type Sleep struct {
	kont.Phantom[struct{}]
	D time.Duration
}

// DispatchFiber sleeps the evaluating fiber, or the calling goroutine
// when there is no fiber.
func (s Sleep) DispatchFiber(ctx *effectContext) (kont.Resumed, error) {
	if ctx.self != nil {
		ctx.self.SleepFor(s.D)
	} else {
		time.Sleep(s.D)
	}
	return struct{}{}, nil
}

// Send is the effect operation for sending a value of type T to the peer.
// Perform(Send[T]{Value: v}) queues v on the endpoint.
type Send[T any] struct {
	kont.Phantom[struct{}]
	Value T
}

// DispatchFiber queues the value. Non-blocking: returns iox.ErrWouldBlock
// if the pipe is full.
func (s Send[T]) DispatchFiber(ctx *effectContext) (kont.Resumed, error) {
	if ctx.ep == nil {
		return nil, usageError("send", ErrNoEndpoint)
	}
	if err := ctx.ep.TrySend(s.Value); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Recv is the effect operation for receiving a value of type T.
// Perform(Recv[T]{}) takes the next value sent by the peer.
type Recv[T any] struct {
	kont.Phantom[T]
}

// DispatchFiber takes the next value. Non-blocking: returns
// iox.ErrWouldBlock if the pipe is empty.
func (Recv[T]) DispatchFiber(ctx *effectContext) (kont.Resumed, error) {
	if ctx.ep == nil {
		return nil, usageError("recv", ErrNoEndpoint)
	}
	v, err := ctx.ep.TryRecv()
	if err != nil {
		return nil, err
	}
	return v.(T), nil
}

// Close is the effect operation for closing the pipe.
type Close struct {
	kont.Phantom[struct{}]
}

// DispatchFiber closes the endpoint's pipe. Never blocks.
func (Close) DispatchFiber(ctx *effectContext) (kont.Resumed, error) {
	if ctx.ep == nil {
		return nil, usageError("close", ErrNoEndpoint)
	}
	ctx.ep.Close()
	return struct{}{}, nil
}
