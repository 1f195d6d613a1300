// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// pipeCapacity is the bounded capacity of each pipe direction.
const pipeCapacity = 4

// Endpoint is one side of a bidirectional pipe between two fibers.
// Each direction is a bounded single-producer single-consumer queue, so an
// endpoint is used by one fiber at a time.
type Endpoint struct {
	send   *lfq.SPSC[any]
	recv   *lfq.SPSC[any]
	pair   *pipePair
	slot   any
	serial ID
}

// pipePair holds both endpoints and their shared state in one allocation.
type pipePair struct {
	a, b    Endpoint
	mu      sync.Mutex
	cv      ConditionVariableAny
	version uint64
	closed  atomix.Uint32
	ab, ba  lfq.SPSC[any]
}

// NewPipe creates a connected pair of endpoints.
func NewPipe() (*Endpoint, *Endpoint) {
	s := nextID()
	p := &pipePair{}
	p.ab.Init(pipeCapacity)
	p.ba.Init(pipeCapacity)
	p.a = Endpoint{send: &p.ab, recv: &p.ba, pair: p, serial: s}
	p.b = Endpoint{send: &p.ba, recv: &p.ab, pair: p, serial: s}
	return &p.a, &p.b
}

// Serial returns the identifier shared by both endpoints of a pipe.
func (ep *Endpoint) Serial() ID { return ep.serial }

// Closed reports whether either side closed the pipe.
func (ep *Endpoint) Closed() bool { return ep.pair.closed.LoadAcquire() != 0 }

// TrySend queues v for the peer. It returns [iox.ErrWouldBlock] when the
// queue is full and [ErrClosed] once the pipe is closed.
func (ep *Endpoint) TrySend(v any) error {
	if ep.Closed() {
		return ErrClosed
	}
	ep.slot = v
	err := ep.send.Enqueue(&ep.slot)
	ep.slot = nil
	if err != nil {
		return err
	}
	ep.pair.touch()
	return nil
}

// TryRecv takes the next value sent by the peer. It returns
// [iox.ErrWouldBlock] when nothing is queued and [ErrClosed] once the pipe
// is closed and drained.
func (ep *Endpoint) TryRecv() (any, error) {
	v, err := ep.recv.Dequeue()
	if err == nil {
		ep.pair.touch()
		return v, nil
	}
	if !ep.Closed() {
		return nil, err
	}
	// A value may have landed between the dequeue and the close check.
	if v, err = ep.recv.Dequeue(); err == nil {
		return v, nil
	}
	return nil, ErrClosed
}

// Send queues v, suspending self while the queue is full.
// A nil self waits with backoff.
func (ep *Endpoint) Send(self *Context, v any) error {
	for {
		ver := ep.pair.current()
		err := ep.TrySend(v)
		if !iox.IsWouldBlock(err) {
			return err
		}
		ep.pair.await(self, ver)
	}
}

// Recv takes the next value, suspending self while the queue is empty.
// A nil self waits with backoff.
func (ep *Endpoint) Recv(self *Context) (any, error) {
	for {
		ver := ep.pair.current()
		v, err := ep.TryRecv()
		if !iox.IsWouldBlock(err) {
			return v, err
		}
		ep.pair.await(self, ver)
	}
}

// Close closes the pipe for both sides. Values already queued can still be
// received.
func (ep *Endpoint) Close() {
	ep.pair.closed.AddRelease(1)
	ep.pair.touch()
}

func (p *pipePair) current() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// touch records progress on either queue and wakes the waiters.
func (p *pipePair) touch() {
	p.mu.Lock()
	p.version++
	p.mu.Unlock()
	p.cv.NotifyAll()
}

// await blocks until the pipe has changed since ver.
func (p *pipePair) await(self *Context, ver uint64) {
	if self == nil {
		var bo iox.Backoff
		for p.current() == ver {
			bo.Wait()
		}
		return
	}
	p.mu.Lock()
	p.cv.WaitFor(self, &p.mu, func() bool { return p.version != ver })
	p.mu.Unlock()
}
