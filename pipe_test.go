// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber_test

import (
	"errors"
	"slices"
	"testing"
	"testing/quick"

	"code.hybscloud.com/fiber"
	"code.hybscloud.com/iox"
)

// transfer sends xs from one fiber to another through a pipe and returns
// what the receiver observed before the pipe closed.
func transfer(tb testing.TB, xs []int16) []int16 {
	var got []int16
	run(tb, func(main *fiber.Context) error {
		tx, rx := fiber.NewPipe()
		sender := fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
			defer tx.Close()
			for _, x := range xs {
				if err := tx.Send(self, x); err != nil {
					tb.Errorf("send: %v", err)
					return
				}
			}
		})
		receiver := fiber.New(main, fiber.LaunchPost, func(self *fiber.Context) {
			for {
				v, err := rx.Recv(self)
				if errors.Is(err, fiber.ErrClosed) {
					return
				}
				if err != nil {
					tb.Errorf("recv: %v", err)
					return
				}
				got = append(got, v.(int16))
			}
		})
		return errors.Join(sender.Join(main), receiver.Join(main))
	})
	return got
}

func TestPipeSendRecv(t *testing.T) {
	skipRace(t)
	xs := []int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := transfer(t, xs); !slices.Equal(got, xs) {
		t.Fatalf("received %v, want %v", got, xs)
	}
}

func TestPipeFIFOProperty(t *testing.T) {
	skipRace(t)
	// testing/quick generates arbitrary slices and checks the property.
	propertyFIFO := func(xs []int16) bool {
		return slices.Equal(transfer(t, xs), xs)
	}
	if err := quick.Check(propertyFIFO, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPipeTryRecvEmpty(t *testing.T) {
	skipRace(t)
	a, b := fiber.NewPipe()
	if a.Serial() != b.Serial() {
		t.Fatalf("endpoints of one pipe have serials %d and %d", a.Serial(), b.Serial())
	}
	if _, err := b.TryRecv(); !iox.IsWouldBlock(err) {
		t.Fatalf("TryRecv on an empty pipe: %v, want ErrWouldBlock", err)
	}
}

func TestPipeTrySendFull(t *testing.T) {
	skipRace(t)
	a, b := fiber.NewPipe()
	sent := 0
	for ; sent < 64; sent++ {
		err := a.TrySend(sent)
		if iox.IsWouldBlock(err) {
			break
		}
		if err != nil {
			t.Fatalf("TrySend: %v", err)
		}
	}
	if sent == 0 || sent == 64 {
		t.Fatalf("pipe accepted %d values before blocking", sent)
	}
	v, err := b.TryRecv()
	if err != nil || v.(int) != 0 {
		t.Fatalf("TryRecv() = %v, %v; want 0", v, err)
	}
	if err := a.TrySend(sent); err != nil {
		t.Fatalf("TrySend after a receive: %v", err)
	}
}

func TestPipeCloseDrains(t *testing.T) {
	skipRace(t)
	a, b := fiber.NewPipe()
	if err := a.TrySend("queued"); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	b.Close()
	if !a.Closed() || !b.Closed() {
		t.Fatalf("close is not visible from both endpoints")
	}
	if err := a.TrySend("late"); !errors.Is(err, fiber.ErrClosed) {
		t.Fatalf("TrySend after close: %v, want %v", err, fiber.ErrClosed)
	}
	v, err := b.TryRecv()
	if err != nil || v != "queued" {
		t.Fatalf("TryRecv() = %v, %v; want queued", v, err)
	}
	if _, err := b.Recv(nil); !errors.Is(err, fiber.ErrClosed) {
		t.Fatalf("Recv on a drained closed pipe: %v, want %v", err, fiber.ErrClosed)
	}
}

func TestPipeBetweenSchedulers(t *testing.T) {
	skipRace(t)
	tx, rx := fiber.NewPipe()
	go func() {
		_ = fiber.Run(func(main *fiber.Context) error {
			defer tx.Close()
			for i := range 32 {
				if err := tx.Send(main, i); err != nil {
					return err
				}
			}
			return nil
		})
	}()
	sum := 0
	for {
		v, err := rx.Recv(nil)
		if errors.Is(err, fiber.ErrClosed) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		sum += v.(int)
	}
	if sum != 31*32/2 {
		t.Fatalf("sum = %d, want %d", sum, 31*32/2)
	}
}
