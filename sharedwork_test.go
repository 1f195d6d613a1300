// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/fiber"
)

// helper runs a second carrier sharing pool until stop is called.
type helper struct {
	mu   sync.Mutex
	cv   fiber.ConditionVariableAny
	stop bool
	done chan struct{}
	id   fiber.ID
}

func startHelper(pool *fiber.SharedPool, suspend bool) *helper {
	h := &helper{done: make(chan struct{})}
	started := make(chan struct{})
	go func() {
		defer close(h.done)
		_ = fiber.Run(func(main *fiber.Context) error {
			h.id = main.Scheduler().ID()
			close(started)
			h.mu.Lock()
			h.cv.WaitFor(main, &h.mu, func() bool { return h.stop })
			h.mu.Unlock()
			return nil
		}, fiber.WithPolicy(fiber.NewSharedWork(pool, suspend)), fiber.WithName("helper"))
	}()
	<-started
	return h
}

func (h *helper) Stop() {
	h.mu.Lock()
	h.stop = true
	h.mu.Unlock()
	h.cv.NotifyAll()
	<-h.done
}

func TestSharedWorkMigratesAsyncFibers(t *testing.T) {
	pool := fiber.NewSharedPool()
	h := startHelper(pool, true)
	defer h.Stop()

	const n = 64
	var (
		mu       sync.Mutex
		carriers = map[fiber.ID]int{}
		migrated int
	)
	var mainID fiber.ID
	run(t, func(main *fiber.Context) error {
		mainID = main.Scheduler().ID()
		fibers := make([]*fiber.Fiber, n)
		for i := range n {
			fibers[i] = fiber.New(main, fiber.LaunchAsync, func(self *fiber.Context) {
				first := self.Scheduler().ID()
				moved := false
				for range 20 {
					id := self.Scheduler().ID()
					moved = moved || id != first
					mu.Lock()
					carriers[id]++
					mu.Unlock()
					self.Yield()
				}
				if moved {
					mu.Lock()
					migrated++
					mu.Unlock()
				}
			})
		}
		for _, f := range fibers {
			if err := f.Join(main); err != nil {
				return err
			}
		}
		if main.Scheduler().ID() != mainID {
			t.Errorf("main context left its scheduler")
		}
		return nil
	}, fiber.WithPolicy(fiber.NewSharedWork(pool, true)))

	mu.Lock()
	defer mu.Unlock()
	if carriers[h.id] == 0 || carriers[mainID] == 0 {
		t.Fatalf("work was not shared: %v", carriers)
	}
	if migrated == 0 {
		t.Fatalf("no fiber observed a migration")
	}
	if pool.Len() != 0 {
		t.Fatalf("pool holds %d contexts after shutdown", pool.Len())
	}
}

func TestSharedWorkAlphabet(t *testing.T) {
	pool := fiber.NewSharedPool()
	h := startHelper(pool, false)
	defer h.Stop()

	var (
		mu       sync.Mutex
		cv       fiber.ConditionVariableAny
		finished int
		letters  = map[rune]int{}
		observed int
	)
	run(t, func(main *fiber.Context) error {
		for c := 'a'; c <= 'z'; c++ {
			fiber.Go(main, fiber.LaunchAsync, func(self *fiber.Context) {
				for range 10 {
					self.Yield()
				}
				mu.Lock()
				finished++
				letters[c]++
				mu.Unlock()
				cv.NotifyAll()
			})
		}
		mu.Lock()
		cv.WaitFor(main, &mu, func() bool { return finished == 26 })
		observed = finished
		mu.Unlock()
		return nil
	}, fiber.WithPolicy(fiber.NewSharedWork(pool, false)))

	if observed != 26 {
		t.Fatalf("main woke after %d completions, want 26", observed)
	}
	for c := 'a'; c <= 'z'; c++ {
		if letters[c] != 1 {
			t.Fatalf("fiber %q completed %d times", c, letters[c])
		}
	}
}

func TestSharedWorkPolicyServesOneScheduler(t *testing.T) {
	w := fiber.NewSharedWork(fiber.NewSharedPool(), true)
	run(t, func(*fiber.Context) error { return nil }, fiber.WithPolicy(w))
	defer func() {
		if recover() == nil {
			t.Fatalf("reusing a policy did not panic")
		}
	}()
	fiber.NewScheduler(fiber.WithPolicy(w))
}
