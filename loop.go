// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"code.hybscloud.com/kont"
)

// Loop repeats a fiber computation (Cont-world).
// body returns Left(next) to run again from next, or Right(result) to stop.
func Loop[S, A any](initial S, body func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(body(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, body)
		}
		result, _ := e.GetRight()
		return kont.Pure(result)
	})
}

// ExprLoop repeats a fiber computation (Expr-world).
// Iterations that finish without suspending are unrolled immediately;
// the first suspending iteration is chained with a bind frame.
func ExprLoop[S, A any](initial S, body func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	state := initial
	for {
		m := body(state)
		if _, ok := m.Frame.(kont.ReturnFrame); !ok {
			return exprLoopChain(m, body)
		}
		next, ok := m.Value.GetLeft()
		if !ok {
			result, _ := m.Value.GetRight()
			return kont.ExprReturn(result)
		}
		state = next
	}
}

func exprLoopChain[S, A any](m kont.Expr[kont.Either[S, A]], body func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, A])
		if next, ok := e.GetLeft(); ok {
			result := ExprLoop(next, body)
			return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
		}
		result, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(result), Frame: exprReturnFrame}
	}
	bf.Next = exprReturnFrame
	var zero A
	return kont.Expr[A]{
		Value: zero,
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}
