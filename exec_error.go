// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/kont"
)

// errorDispatcher is the structural interface of kont's error effects.
type errorDispatcher[E any] interface {
	DispatchError(ctx *kont.ErrorContext[E]) (kont.Resumed, bool)
}

// fiberErrorHandler handles both fiber and error effects.
// Fiber effects wait like in Exec. A Throw short-circuits with Left.
// A pipe error short-circuits the outer result.
type fiberErrorHandler[E, R any] struct {
	ctx    *effectContext
	errCtx *kont.ErrorContext[E]
}

// Dispatch implements kont.Handler. Dispatch order: fiber, then error.
func (h fiberErrorHandler[E, R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if fop, ok := op.(fiberDispatcher); ok {
		v, err := dispatchWait(h.ctx, fop)
		if err != nil {
			return kont.Left[error, kont.Either[E, R]](err), false
		}
		return v, true
	}
	if eop, ok := op.(errorDispatcher[E]); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Right[error](kont.Left[E, R](h.errCtx.Err)), false
		}
		return v, true
	}
	panic("fiber: unhandled effect in fiberErrorHandler")
}

func toErrorResult[E, R any](r R) kont.Either[error, kont.Either[E, R]] {
	return kont.Right[error](kont.Right[E](r))
}

// ExecError evaluates a Cont-world computation that may throw E.
// The result is Right on success and Left on Throw. The error reports a
// pipe failure, which also ends evaluation.
func ExecError[E, R any](self *Context, ep *Endpoint, computation kont.Eff[R]) (kont.Either[E, R], error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, kont.Either[E, R]]](computation, toErrorResult[E, R])
	var errCtx kont.ErrorContext[E]
	h := fiberErrorHandler[E, R]{ctx: &effectContext{self: self, ep: ep}, errCtx: &errCtx}
	return fromResult(kont.Handle(wrapped, h))
}

// ExecErrorExpr evaluates an Expr-world computation that may throw E.
func ExecErrorExpr[E, R any](self *Context, ep *Endpoint, computation kont.Expr[R]) (kont.Either[E, R], error) {
	wrapped := kont.ExprMap(computation, toErrorResult[E, R])
	var errCtx kont.ErrorContext[E]
	h := fiberErrorHandler[E, R]{ctx: &effectContext{self: self, ep: ep}, errCtx: &errCtx}
	return fromResult(kont.HandleExpr(wrapped, h))
}
