// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package msqueue is a generic Michael & Scott lock-free queue: the other
// comparison point for [code.hybscloud.com/segqueue]'s segmented design.
// Like the root package it is unbounded, but it allocates and reclaims one
// node per element instead of amortizing allocation over a whole
// fixed-capacity segment, which is the cost [code.hybscloud.com/segqueue]
// was built to avoid under high throughput.
//
// It reuses [code.hybscloud.com/segqueue/epoch] for reclamation, the same
// Domain/Guard contract the root package uses for its segments — evidence
// that the epoch package is a reusable primitive, not something bound to
// the segmented algorithm it was introduced for.
package msqueue

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/segqueue/epoch"
)

type node[T any] struct {
	data T
	next atomic.Pointer[node[T]]
}

// Queue is an unbounded MPMC FIFO queue built as a classical Michael &
// Scott linked list. head always points at a fixed dummy node installed by
// New; dequeue unlinks the first real node by CASing the dummy's next
// field, so q.head itself never changes after construction.
type Queue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	domain *epoch.Domain
	length atomix.Int64
}

// New constructs an empty queue with a single dummy head/tail node.
func New[T any]() *Queue[T] {
	sentinel := &node[T]{}
	q := &Queue[T]{domain: epoch.NewDomain()}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Guard pins the queue's reclamation domain. Release it on every exit path.
func (q *Queue[T]) Guard() *epoch.Guard {
	return q.domain.Enter()
}

// Enqueue adds value to the queue. It never fails.
func (q *Queue[T]) Enqueue(value T) {
	n := &node[T]{data: value}

	g := q.domain.Enter()
	defer g.Release()

	sw := spin.Wait{}
	for {
		t := epoch.LoadProtected(&q.tail, g)
		if q.tail.CompareAndSwap(t, n) {
			t.next.Store(n)
			q.length.Add(1)
			return
		}
		sw.Once()
	}
}

// Dequeue removes and returns a borrowed reference to the oldest remaining
// payload. The returned pointer is valid only for the lifetime of g.
//
// Returns (nil, false) if the queue is observably empty.
func (q *Queue[T]) Dequeue(g *epoch.Guard) (*T, bool) {
	sw := spin.Wait{}
	for {
		h := epoch.LoadProtected(&q.head, g)
		next := h.next.Load()
		if next == nil {
			return nil, false
		}
		nn := next.next.Load()
		if h.next.CompareAndSwap(next, nn) {
			q.length.Add(-1)
			retired := next
			q.domain.Retire(g, func() { retired = nil; _ = retired })
			val := next.data
			return &val, true
		}
		sw.Once()
	}
}

// DequeueOwned acquires a guard, dequeues, and returns an owned copy.
func (q *Queue[T]) DequeueOwned() (T, bool) {
	g := q.domain.Enter()
	defer g.Release()

	p, ok := q.Dequeue(g)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Len returns an approximate element count maintained with relaxed
// increments and decrements. Advisory only.
func (q *Queue[T]) Len() int {
	return int(q.length.Load())
}

// Close drains the queue under an unprotected (exclusive-access) guard.
// Callers must guarantee no concurrent Enqueue/Dequeue/Guard call is in
// flight.
func (q *Queue[T]) Close() {
	g := q.domain.Unprotected()
	for {
		if _, ok := q.Dequeue(g); !ok {
			break
		}
	}
}
