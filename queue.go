// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "time"

// ctxQueue is an unbounded FIFO of contexts. It holds plain pointers and
// does no reference counting; the zero value is empty.
type ctxQueue struct {
	buf  []*Context
	head int
}

func (q *ctxQueue) push(c *Context) {
	q.buf = append(q.buf, c)
}

func (q *ctxQueue) pop() *Context {
	if q.head == len(q.buf) {
		return nil
	}
	c := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	switch {
	case q.head == len(q.buf):
		q.buf = q.buf[:0]
		q.head = 0
	case q.head >= 64 && q.head*2 >= len(q.buf):
		n := copy(q.buf, q.buf[q.head:])
		clear(q.buf[n:])
		q.buf = q.buf[:n]
		q.head = 0
	}
	return c
}

func (q *ctxQueue) len() int {
	return len(q.buf) - q.head
}

// sleepQueue is a min-heap of sleeping contexts ordered by wake deadline,
// ties broken by insertion sequence. A zero deadline sorts last.
// It implements container/heap.Interface.
type sleepQueue []*Context

func (q sleepQueue) Len() int { return len(q) }

func (q sleepQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if !a.deadline.Equal(b.deadline) {
		return deadlineBefore(a.deadline, b.deadline)
	}
	return a.sleepSeq < b.sleepSeq
}

func (q sleepQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *sleepQueue) Push(x any) {
	*q = append(*q, x.(*Context))
}

func (q *sleepQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}

// deadlineBefore orders deadlines with the zero time meaning "never".
func deadlineBefore(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}
