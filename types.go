// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segqueue

// Lenner is implemented by every queue variant in this module ([Queue],
// [code.hybscloud.com/segqueue/ring.Queue], and
// [code.hybscloud.com/segqueue/msqueue.Queue]), even though their
// Enqueue/Dequeue shapes differ (unbounded queues never fail; the bounded
// ring reports [code.hybscloud.com/iox.ErrWouldBlock] when full or empty).
// Monitoring code that only needs a depth reading can target this instead
// of a concrete queue type.
//
// Unlike a single Producer/Consumer/Drainer interface family spanning every
// variant, this module does not expose a shared Enqueue/Dequeue interface across
// implementations: a bounded queue's contract has a real failure mode an
// unbounded one provably cannot have, so unifying the two behind one
// interface would force the unbounded queue to manufacture an error value
// it never needs, or force callers to type-assert to recover backpressure
// information the bounded queue requires. Concrete constructors (New,
// ring.New, msqueue.New) are the exported surface instead.
type Lenner interface {
	Len() int
}
