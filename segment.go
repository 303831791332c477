// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segqueue

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// segmentCapacity is CAPACITY from the algorithm: the fixed slot count of
// every segment. 1024, as in the reference implementation.
const segmentCapacity = 1024

// segment is one node of the queue's forward chain: a fixed-capacity array
// of slots plus the two monotonic reservation counters and the link to the
// next segment.
//
// enqIndex and deqIndex are padded onto separate cache lines: producers
// hammer enqIndex, consumers hammer deqIndex, and the two must not
// false-share.
type segment[T any] struct {
	_        pad
	enqIndex atomix.Uint64
	_        pad
	deqIndex atomix.Uint64
	_        pad
	next     atomic.Pointer[segment[T]]
	slots    [segmentCapacity]atomic.Pointer[T]
}

// newSentinelSegment builds the segment installed at queue construction:
// both indices start at 0, no payload pre-populated.
func newSentinelSegment[T any]() *segment[T] {
	return &segment[T]{}
}

// newSegmentWithFirst builds a segment created by a producer that overflowed
// the previous one. Slot 0 is pre-populated with first so that it is
// ordered before any later producer's reservation in this segment, and
// enqIndex starts at 1 to reflect that reservation already having been
// made.
func newSegmentWithFirst[T any](first *T) *segment[T] {
	s := &segment[T]{}
	s.slots[0].Store(first)
	s.enqIndex.StoreRelaxed(1)
	return s
}

// pad is cache-line padding to prevent false sharing, matching the idiom
// used throughout code.hybscloud.com/lfq.
type pad [64]byte
