// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// fiberHandler implements kont.Handler for fiber effects. Pipe effects that
// would block suspend the fiber until the pipe changes. Any other error
// short-circuits the computation with Left.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type fiberHandler[R any] struct {
	ctx *effectContext
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h fiberHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	fop, ok := op.(fiberDispatcher)
	if !ok {
		panic("fiber: unhandled effect in fiberHandler")
	}
	v, err := dispatchWait(h.ctx, fop)
	if err != nil {
		return kont.Left[error, R](err), false
	}
	return v, true
}

// dispatchWait retries fop until it stops reporting iox.ErrWouldBlock,
// waiting for the pipe to change in between.
func dispatchWait(ctx *effectContext, fop fiberDispatcher) (kont.Resumed, error) {
	for {
		var ver uint64
		if ctx.ep != nil {
			ver = ctx.ep.pair.current()
		}
		v, err := fop.DispatchFiber(ctx)
		if !iox.IsWouldBlock(err) {
			return v, err
		}
		ctx.ep.pair.await(ctx.self, ver)
	}
}

func toResult[R any](r R) kont.Either[error, R] {
	return kont.Right[error](r)
}

func fromResult[R any](e kont.Either[error, R]) (R, error) {
	if e.IsLeft() {
		err, _ := e.GetLeft()
		var zero R
		return zero, err
	}
	r, _ := e.GetRight()
	return r, nil
}

// Exec evaluates a Cont-world computation on self, using ep for pipe
// effects. ep may be nil when the computation only yields and sleeps.
// Waiting suspends self only; a nil self waits with adaptive backoff.
func Exec[R any](self *Context, ep *Endpoint, computation kont.Eff[R]) (R, error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](computation, toResult[R])
	h := fiberHandler[R]{ctx: &effectContext{self: self, ep: ep}}
	return fromResult(kont.Handle(wrapped, h))
}

// ExecExpr evaluates an Expr-world computation on self, using ep for pipe
// effects.
func ExecExpr[R any](self *Context, ep *Endpoint, computation kont.Expr[R]) (R, error) {
	wrapped := kont.ExprMap(computation, toResult[R])
	h := fiberHandler[R]{ctx: &effectContext{self: self, ep: ep}}
	return fromResult(kont.HandleExpr(wrapped, h))
}
