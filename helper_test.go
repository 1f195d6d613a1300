// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"testing"

	"code.hybscloud.com/fiber"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// run hosts a scheduler on the test goroutine and fails the test if fn
// returns an error.
func run(tb testing.TB, fn func(main *fiber.Context) error, opts ...fiber.Option) {
	tb.Helper()
	if err := fiber.Run(fn, opts...); err != nil {
		tb.Fatalf("run: %v", err)
	}
}

// stepExpr drives a computation to completion on self via Step+Advance,
// yielding while the pipe is not ready.
// Used by stepping tests to exercise the non-blocking path.
func stepExpr[R any](self *fiber.Context, ep *fiber.Endpoint, computation kont.Expr[R]) (R, error) {
	result, susp := fiber.Step[R](computation)
	for susp != nil {
		var err error
		result, susp, err = fiber.Advance(self, ep, susp)
		if err == nil {
			continue
		}
		if !iox.IsWouldBlock(err) {
			susp.Discard()
			return result, err
		}
		self.Yield()
	}
	return result, nil
}
