// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segqueue

import (
	"iter"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/segqueue/epoch"
)

// Queue is an unbounded MPMC FIFO queue of T.
type Queue[T any] struct {
	_      pad
	head   atomic.Pointer[segment[T]]
	_      pad
	tail   atomic.Pointer[segment[T]]
	_      pad
	length atomix.Int64 // approximate; relaxed fetch-add/fetch-sub, debugging only
	domain *epoch.Domain
}

// New constructs an empty queue: a single sentinel segment shared by head
// and tail, both indices at 0.
func New[T any]() *Queue[T] {
	q := &Queue[T]{domain: epoch.NewDomain()}
	s := newSentinelSegment[T]()
	q.head.Store(s)
	q.tail.Store(s)
	return q
}

// Guard pins the queue's reclamation domain for the caller. Release it on
// every exit path (defer immediately after calling Guard).
func (q *Queue[T]) Guard() *epoch.Guard {
	return q.domain.Enter()
}

// Enqueue adds value to the queue. It never fails: an unbounded queue has
// no "full" condition, so there is nothing for the caller to retry.
func (q *Queue[T]) Enqueue(value T) {
	payload := new(T)
	*payload = value

	g := q.domain.Enter()
	defer g.Release()

	sw := spin.Wait{}
	for {
		t := epoch.LoadProtected(&q.tail, g)
		i := t.enqIndex.AddAcqRel(1) - 1

		if i <= segmentCapacity-1 {
			if t.slots[i].CompareAndSwap(nil, payload) {
				q.length.Add(1)
				return
			}
			// The CAS fails only if the slot is already non-nil. Consumers
			// only ever swap slots to nil, so a consumer that reserved this
			// index first does not make it fail: the store then lands in a
			// slot that consumer already skipped. Retry: the next
			// fetch-add yields a fresh index.
			sw.Once()
			continue
		}

		// Overflow: this segment is full for enqueue purposes.
		if q.tail.Load() != t {
			continue // another producer already advanced tail
		}

		n := t.next.Load()
		if n == nil {
			m := newSegmentWithFirst(payload)
			if t.next.CompareAndSwap(nil, m) {
				// Best effort: failing here is fine, another thread will
				// advance tail on its own next overflow.
				q.tail.CompareAndSwap(t, m)
				q.length.Add(1)
				return
			}
			// Lost the race to install next. m was never published to any
			// other goroutine, so there is nothing to retire: dropping the
			// reference here is the direct-free choice from SPEC_FULL §4.2.
			continue
		}

		// Another producer already installed next; help advance tail.
		q.tail.CompareAndSwap(t, n)
		sw.Once()
	}
}

// Dequeue removes and returns a borrowed reference to the queue's oldest
// remaining payload. The returned pointer is only valid while g is live;
// do not dereference it after calling g.Release().
//
// Returns (nil, false) if the queue is observably empty. This is advisory:
// a concurrent Enqueue may be in flight, so a subsequent call may succeed.
func (q *Queue[T]) Dequeue(g *epoch.Guard) (*T, bool) {
	sw := spin.Wait{}
	for {
		h := epoch.LoadProtected(&q.head, g)

		if h.deqIndex.LoadAcquire() >= h.enqIndex.LoadAcquire() && h.next.Load() == nil {
			return nil, false
		}

		i := h.deqIndex.AddAcqRel(1) - 1

		if i > segmentCapacity-1 {
			n := h.next.Load()
			if n == nil {
				return nil, false
			}
			if q.head.CompareAndSwap(h, n) {
				retired := h
				q.domain.Retire(g, func() { retired = nil; _ = retired })
			}
			continue
		}

		p := h.slots[i].Swap(nil)
		if p == nil {
			// The producer holding reservation i hasn't stored yet (or
			// never will — a stalled/terminated producer). The index is
			// consumed either way; skip it and keep looking.
			sw.Once()
			continue
		}

		q.length.Add(-1)
		retired := p
		q.domain.Retire(g, func() { retired = nil; _ = retired })
		return p, true
	}
}

// DequeueOwned acquires a guard, dequeues, and returns an owned copy of the
// payload. Convenient for types that are cheap to copy and callers that
// don't want to thread a guard through their own code.
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

// Len returns an approximate element count, maintained with relaxed
// increments/decrements. It is advisory and may briefly disagree with the
// true state; it is not part of any safety invariant.
func (q *Queue[T]) Len() int {
	return int(q.length.Load())
}

// All returns a lazy, finite sequence produced by repeatedly calling
// DequeueOwned until the queue is observably empty. Iterating consumes
// payloads exactly as direct Dequeue calls would.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := q.DequeueOwned()
			if !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Close drains the queue under an unprotected (exclusive-access) guard and
// drops the final head segment. Callers must guarantee no concurrent
// Enqueue/Dequeue/Guard call is in flight; Close is for deterministic
// teardown, not for signalling consumers, and is not required before
// letting a *Queue[T] go out of scope (the garbage collector reclaims it
// like any other value).
func (q *Queue[T]) Close() {
	g := q.domain.Unprotected()
	for {
		if _, ok := q.Dequeue(g); !ok {
			break
		}
	}
	q.head.Store(nil)
	q.tail.Store(nil)
}
