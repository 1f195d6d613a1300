// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"slices"
	"sync"
	"testing"

	"code.hybscloud.com/fiber"
)

// parkAll starts n fibers that each park on q and record their index once
// woken, then yields main until all of them are queued.
func parkAll(main *fiber.Context, mu *sync.Mutex, q *fiber.WaitQueue, n int, woke *[]int) []*fiber.Fiber {
	fibers := make([]*fiber.Fiber, n)
	for i := range n {
		fibers[i] = fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
			mu.Lock()
			q.SuspendAndWaitUnlock(self, mu)
			*woke = append(*woke, i)
		})
	}
	for {
		mu.Lock()
		queued := q.Len()
		mu.Unlock()
		if queued == n {
			return fibers
		}
		main.Yield()
	}
}

func TestNotifyAllWakesEveryWaiter(t *testing.T) {
	const n = 5
	var woke []int
	run(t, func(main *fiber.Context) error {
		var mu sync.Mutex
		var q fiber.WaitQueue
		fibers := parkAll(main, &mu, &q, n, &woke)

		mu.Lock()
		q.NotifyAll()
		empty := q.Empty()
		mu.Unlock()
		if !empty {
			t.Errorf("queue not empty after NotifyAll")
		}
		for _, f := range fibers {
			if err := f.Join(main); err != nil {
				return err
			}
		}
		return nil
	})
	slices.Sort(woke)
	if want := []int{0, 1, 2, 3, 4}; !slices.Equal(woke, want) {
		t.Fatalf("woken %v, want each of %v once", woke, want)
	}
}

func TestNotifyOneWakesInFIFOOrder(t *testing.T) {
	const n = 3
	var woke []int
	run(t, func(main *fiber.Context) error {
		var mu sync.Mutex
		var q fiber.WaitQueue
		fibers := parkAll(main, &mu, &q, n, &woke)

		for i := range n {
			mu.Lock()
			ok := q.NotifyOne()
			mu.Unlock()
			if !ok {
				t.Errorf("NotifyOne %d found no waiter", i)
			}
			if err := fibers[i].Join(main); err != nil {
				return err
			}
		}
		mu.Lock()
		defer mu.Unlock()
		if q.NotifyOne() {
			t.Errorf("NotifyOne on an empty queue reported a wake")
		}
		return nil
	})
	if want := []int{0, 1, 2}; !slices.Equal(woke, want) {
		t.Fatalf("wake order %v, want %v", woke, want)
	}
}

func TestSuspendAndWaitWithoutLock(t *testing.T) {
	var q fiber.WaitQueue
	var resumed bool
	run(t, func(main *fiber.Context) error {
		f := fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
			q.SuspendAndWait(self)
			resumed = true
		})
		for q.Empty() {
			main.Yield()
		}
		q.NotifyOne()
		return f.Join(main)
	})
	if !resumed {
		t.Fatalf("waiter was not resumed")
	}
}
