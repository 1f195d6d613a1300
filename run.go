// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"errors"

	"code.hybscloud.com/kont"
)

// RunPair connects two Cont-world computations with a pipe, runs each on
// its own fiber started from parent and returns both results once both
// fibers have finished.
func RunPair[A, B any](parent *Context, a kont.Eff[A], b kont.Eff[B]) (A, B, error) {
	epA, epB := NewPipe()
	var (
		ra         A
		rb         B
		errA, errB error
	)
	fa := New(parent, LaunchPost, func(self *Context) {
		ra, errA = Exec(self, epA, a)
	})
	fb := New(parent, LaunchPost, func(self *Context) {
		rb, errB = Exec(self, epB, b)
	})
	if err := errors.Join(fa.Join(parent), fb.Join(parent)); err != nil {
		return ra, rb, err
	}
	return ra, rb, errors.Join(errA, errB)
}

// RunPairExpr is RunPair for Expr-world computations.
func RunPairExpr[A, B any](parent *Context, a kont.Expr[A], b kont.Expr[B]) (A, B, error) {
	epA, epB := NewPipe()
	var (
		ra         A
		rb         B
		errA, errB error
	)
	fa := New(parent, LaunchPost, func(self *Context) {
		ra, errA = ExecExpr(self, epA, a)
	})
	fb := New(parent, LaunchPost, func(self *Context) {
		rb, errB = ExecExpr(self, epB, b)
	})
	if err := errors.Join(fa.Join(parent), fb.Join(parent)); err != nil {
		return ra, rb, err
	}
	return ra, rb, errors.Join(errA, errB)
}
