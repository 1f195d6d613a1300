// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fiber provides cooperatively scheduled fibers multiplexed over
// schedulers, each scheduler acting as one carrier thread.
//
// A fiber runs until it yields, sleeps, blocks on a fiber-aware primitive or
// returns. Exactly one context of a scheduler runs at any instant, so fibers
// sharing a scheduler never run in parallel.
//
// # Architecture
//
//   - Contexts: every [Context] owns a goroutine that runs only while it holds its scheduler. Switching hands a small payload to the target, and the target applies it (release a lock, reschedule the previous context, drop a finished one) once it is running.
//   - Scheduling: a [Scheduler] runs a dispatcher context that promotes expired sleepers, drains remote wakeups and resumes what its [Policy] picks next. When nothing is ready the policy parks the carrier.
//   - Policies: [RoundRobin] keeps fibers on their scheduler. [SharedWork] moves worker fibers between every scheduler built on the same [SharedPool].
//   - Blocking: [WaitQueue] and [ConditionVariableAny] suspend the fiber, not the carrier.
//
// # API Topologies
//
//   - Fibers: [New], [Go], [Fiber.Join], [Fiber.Detach]; launch modes [LaunchPost], [LaunchDispatch], [LaunchAsync].
//   - Results: [Promise], [Future], [PackagedTask] and [Async].
//   - Pipes: [NewPipe] connects two fibers through bounded lock-free queues from [code.hybscloud.com/lfq]. Non-blocking calls return [code.hybscloud.com/iox.ErrWouldBlock].
//   - Effects: [Yield], [Sleep], [Send], [Recv], [Close] as [code.hybscloud.com/kont] operations, evaluated by [Exec], [ExecExpr], [ExecError] or stepped with [Step] and [Advance]. [Loop] and [ExprLoop] repeat a computation; [RunPair] runs two computations on either end of a pipe.
//
// # Errors
//
// Misuse of a handle returns an [*Error] of [KindUsage]; exactly-once
// violations on shared results return [KindState]. Calling a scheduling
// operation on a context that is not running panics. A panic inside a fiber
// is re-raised by [Fiber.Join] as [*PanicError]; a detached fiber that panics
// stops the process.
//
// # Example
//
//	err := fiber.Run(func(main *fiber.Context) error {
//		f := fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
//			self.SleepFor(10 * time.Millisecond)
//		})
//		return f.Join(main)
//	})
package fiber
