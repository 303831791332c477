// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segqueue provides a lock-free, unbounded, multi-producer/
// multi-consumer FIFO queue.
//
// Unlike a ring buffer, the queue never reports "full": it is a forward
// chain of fixed-capacity segments, and a producer that overflows the
// current tail segment links a fresh one in with a single CAS. Consumers
// retire exhausted segments through an epoch-based reclamation domain (see
// [code.hybscloud.com/segqueue/epoch]) instead of freeing them outright, so
// a segment is only released once no in-flight Dequeue could still be
// reading from it.
//
// # Quick Start
//
//	q := segqueue.New[Event]()
//	q.Enqueue(ev)
//
//	g := q.Guard()
//	defer g.Release()
//	if elem, ok := q.Dequeue(g); ok {
//	    handle(*elem)
//	}
//
// Callers that would rather not manage a guard, or whose element type is
// cheap to copy, can use DequeueOwned instead:
//
//	elem, ok := q.DequeueOwned()
//
// # Basic Usage
//
// Enqueue never blocks and never fails — there is no backpressure signal,
// because the queue always has room for one more segment:
//
//	q := segqueue.New[int]()
//	for i := range 10 {
//	    q.Enqueue(i)
//	}
//
// Dequeue returns (nil, false) when the queue is observably empty. This is
// advisory, not authoritative: a concurrent Enqueue that is mid-flight can
// make a later call succeed.
//
//	g := q.Guard()
//	defer g.Release()
//	for {
//	    elem, ok := q.Dequeue(g)
//	    if !ok {
//	        break
//	    }
//	    process(*elem)
//	}
//
// # Guards and borrowed values
//
// Dequeue returns a pointer into memory the reclamation domain still owns:
// it is only valid for the lifetime of the Guard passed to Dequeue. Never
// retain or dereference that pointer after calling Guard.Release. Acquire
// one guard per batch of work rather than one per element when possible —
// a guard that stays pinned defers reclamation for every other goroutine
// retiring payloads on the same queue.
//
//	g := q.Guard()
//	defer g.Release()
//	for i := range 100 {
//	    if elem, ok := q.Dequeue(g); ok {
//	        process(*elem)
//	    }
//	}
//
// DequeueOwned sidesteps the guard entirely by pinning internally and
// copying the result out before releasing — at the cost of a guard
// acquire/release pair per call instead of per batch.
//
// # Pipeline Stage
//
//	q := segqueue.New[Data]()
//
//	go func() { // producer
//	    for data := range input {
//	        q.Enqueue(data)
//	    }
//	}()
//
//	go func() { // consumer
//	    g := q.Guard()
//	    defer g.Release()
//	    sw := spin.Wait{}
//	    for {
//	        elem, ok := q.Dequeue(g)
//	        if !ok {
//	            sw.Once()
//	            continue
//	        }
//	        sw.Reset()
//	        process(*elem)
//	    }
//	}()
//
// # Iterating
//
// All drains the queue element-by-element as a Go 1.23 range-over-func
// iterator, useful for one-shot consumption in tests or batch jobs:
//
//	for v := range q.All() {
//	    fmt.Println(v)
//	}
//
// # Length
//
// Len reports an approximate count maintained with relaxed increments and
// decrements across Enqueue/Dequeue. It is a debugging aid, not a
// synchronization point — do not branch production logic on the exact
// value, since a concurrent producer or consumer can change it between the
// read and its use.
//
// # Comparison Packages
//
// [code.hybscloud.com/segqueue/ring] and [code.hybscloud.com/segqueue/msqueue]
// implement the two textbook alternatives this design was chosen over: a
// fixed-capacity ring buffer (bounded, no allocation once warmed up, but
// backpressure under load) and the classical Michael & Scott queue
// (unbounded like this package, but allocates and frees one node per
// element instead of amortizing over CAPACITY-sized segments). Both exist
// for benchmarking and documentation, not as a recommended alternative to
// the root package.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering and [code.hybscloud.com/spin] for CAS-retry
// backoff. Segment and payload links use the standard library's
// sync/atomic.Pointer[T] rather than atomix: the garbage collector must be
// able to trace these pointers, and atomix's atomics are untyped integer
// and pointer cells outside the GC's pointer-tracking machinery.
package segqueue
