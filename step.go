// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a computation until its first effect suspension.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](computation kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(computation)
}

// Advance dispatches the suspended effect for self on ep.
//
// On success (nil error), the suspension is consumed and the computation
// advances to the next effect or completion. On iox.ErrWouldBlock, or on a
// pipe error such as [ErrClosed], the suspension is returned unconsumed;
// the caller retries it later or discards it.
func Advance[R any](self *Context, ep *Endpoint, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	fop, ok := susp.Op().(fiberDispatcher)
	if !ok {
		panic("fiber: unhandled effect in Advance")
	}
	v, err := fop.DispatchFiber(&effectContext{self: self, ep: ep})
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
