// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring is a bounded, fixed-capacity multi-producer/multi-consumer
// FIFO queue: the comparison point for [code.hybscloud.com/segqueue]'s
// unbounded design. It never allocates once constructed, at the cost of a
// genuine "full" condition under sustained backpressure that the unbounded
// segmented queue was built to avoid.
//
// Unlike a plain bounded ring, Queue can be closed: once Close is called,
// Enqueue stops accepting new elements and Dequeue distinguishes "drained
// because closed" from "empty for now," so a consumer driving DequeueWait
// knows when to stop waiting instead of polling forever past shutdown.
package ring

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Queue is a CAS-based bounded MPMC queue using per-slot sequence numbers
// for ABA-safe slot reuse (n physical slots, vs 2n for an FAA-based design).
type Queue[T any] struct {
	_        pad
	tail     atomix.Uint64 // producer index
	_        pad
	head     atomix.Uint64 // consumer index
	_        pad
	closed   atomix.Bool
	buffer   []slot[T]
	mask     uint64
	capacity uint64
}

type slot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}

// New creates a bounded queue. capacity rounds up to the next power of 2;
// it panics if capacity < 2.
func New[T any](capacity int) *Queue[T] {
	if capacity < 2 {
		panic("segqueue/ring: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	q := &Queue[T]{
		buffer:   make([]slot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	return q
}

// Enqueue adds an element to the queue. Returns [ErrClosed] if the queue
// has been closed, or [iox.ErrWouldBlock] if the queue is full.
func (q *Queue[T]) Enqueue(elem T) error {
	if q.closed.LoadAcquire() {
		return ErrClosed
	}

	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		s := &q.buffer[tail&q.mask]
		seq := s.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				s.data = elem
				s.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			if q.closed.LoadAcquire() {
				return ErrClosed
			}
			return iox.ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element. Returns (zero-value,
// [iox.ErrWouldBlock]) if the queue is momentarily empty, or (zero-value,
// [ErrClosed]) if the queue is both closed and drained — the signal a
// consumer loop should treat as final rather than transient.
func (q *Queue[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		s := &q.buffer[head&q.mask]
		seq := s.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := s.data
				var zero T
				s.data = zero
				s.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			var zero T
			if q.closed.LoadAcquire() {
				return zero, ErrClosed
			}
			return zero, iox.ErrWouldBlock
		}
		sw.Once()
	}
}

// EnqueueWait blocks, backing off with [iox.Backoff] between attempts,
// until elem is enqueued, the queue is closed, or ctx is done. It exists
// because a bounded queue — unlike the unbounded root package — has a
// genuine full condition that callers may legitimately want to wait out
// instead of handling as an error.
func (q *Queue[T]) EnqueueWait(ctx context.Context, elem T) error {
	backoff := iox.Backoff{}
	for {
		err := q.Enqueue(elem)
		if err == nil {
			return nil
		}
		if IsClosed(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		backoff.Wait()
	}
}

// DequeueWait blocks, backing off with [iox.Backoff] between attempts,
// until an element is available, the queue is closed and drained, or ctx
// is done.
func (q *Queue[T]) DequeueWait(ctx context.Context) (T, error) {
	backoff := iox.Backoff{}
	for {
		v, err := q.Dequeue()
		if err == nil {
			return v, nil
		}
		if IsClosed(err) {
			return v, err
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		default:
		}
		backoff.Wait()
	}
}

// Close marks the queue closed: subsequent Enqueue calls fail with
// [ErrClosed], and Dequeue reports [ErrClosed] once the backlog already in
// the queue has been drained. Idempotent.
func (q *Queue[T]) Close() {
	q.closed.StoreRelease(true)
}

// Cap returns the queue's physical capacity (the rounded-up power of 2).
func (q *Queue[T]) Cap() int {
	return int(q.capacity)
}

// Len returns an approximate occupied-slot count derived from the producer
// and consumer indices. Advisory only, like the root package's Len.
func (q *Queue[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache-line padding to prevent false sharing.
type pad [64]byte

// padShort pads out the remainder of a cache line after an 8-byte field.
type padShort [64 - 8]byte
