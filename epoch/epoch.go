// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package epoch provides epoch-based reclamation (EBR) for lock-free data
// structures built on segqueue.
//
// Readers (and writers that must dereference a shared pointer) pin the
// domain's current epoch by calling Enter, deref through the returned
// Guard's lifetime, and call Guard.Release on every exit path. Writers that
// unlink an object call Retire instead of freeing it directly; the deleter
// runs once no guard can still observe the epoch the object was retired in.
//
// Go's garbage collector already forbids use-after-free for any object a
// live pointer still reaches, so unlike the C++/Rust EBR this package is
// modeled on, a deleter that runs "too early" cannot corrupt memory — the
// caller's own reference, if any, keeps the object alive regardless. What
// this package still buys callers: a bounded point at which retired objects
// stop being retained by the domain (so they become eligible for GC), and
// an explicit guard discipline matching the algorithms that assume one.
package epoch

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// reclaimBatch bounds how many Retire calls accumulate before the domain
// scans for a reclamation opportunity. Smaller values reclaim sooner at the
// cost of more frequent guard-table scans.
const reclaimBatch = 64

// Domain is a reclamation domain: one instance per data structure that
// needs it (segqueue.Queue embeds one), never shared at package scope.
type Domain struct {
	_            pad
	epoch        atomix.Uint64
	_            pad
	nextGuardID  atomix.Uint64
	_            pad
	guards       sync.Map // guardID uint64 -> *guardState
	mu           sync.Mutex
	retired      map[uint64][]func()
	sinceReclaim int
}

type guardState struct {
	epoch  uint64
	active atomix.Bool
}

// Guard is a scoped pin of a Domain's epoch. The zero value is not usable;
// obtain one via Domain.Enter or Domain.Unprotected.
type Guard struct {
	domain      *Domain
	state       *guardState
	id          uint64
	unprotected bool
}

// NewDomain creates an empty reclamation domain.
func NewDomain() *Domain {
	return &Domain{retired: make(map[uint64][]func())}
}

// Enter pins the domain's current epoch for the calling goroutine. The
// returned Guard must be released on every exit path; callers should defer
// g.Release() immediately after Enter returns.
func (d *Domain) Enter() *Guard {
	id := d.nextGuardID.AddAcqRel(1) - 1
	st := &guardState{}
	// Publish the guard before pinning so a concurrent reclamation scan
	// either misses it entirely (and is conservative about nothing this
	// guard has touched yet) or observes it active with a real epoch.
	d.guards.Store(id, st)
	st.epoch = d.epoch.LoadAcquire()
	st.active.StoreRelease(true)
	return &Guard{domain: d, state: st, id: id}
}

// Unprotected returns a pseudo-guard for callers with exclusive access to
// the protected structure (e.g. queue destruction). It pins nothing and
// never blocks reclamation; using it while another goroutine might still
// observe the structure is a caller error.
func (d *Domain) Unprotected() *Guard {
	return &Guard{domain: d, unprotected: true}
}

// Release ends the pin established by Enter. Safe to call on a nil Guard
// or on one obtained from Unprotected (both are no-ops).
func (g *Guard) Release() {
	if g == nil || g.unprotected {
		return
	}
	g.state.active.StoreRelease(false)
	g.domain.guards.Delete(g.id)
}

// Retire records deleter to run once no guard in d can still observe the
// epoch current at the time of the call. deleter typically just needs to
// stop referencing whatever was retired; returning resources to a pool is
// also a legitimate deleter.
//
// Retire amortizes its own bookkeeping: most calls only append to the
// current epoch's bucket. Every reclaimBatch-th call (and every call made
// through an Unprotected guard, since exclusive-access callers want
// deterministic draining) additionally advances the epoch and reclaims
// anything now provably unreachable.
func (d *Domain) Retire(g *Guard, deleter func()) {
	if deleter == nil {
		return
	}
	e := d.epoch.LoadAcquire()

	d.mu.Lock()
	d.retired[e] = append(d.retired[e], deleter)
	d.sinceReclaim++
	trigger := d.sinceReclaim >= reclaimBatch
	if trigger {
		d.sinceReclaim = 0
	}
	d.mu.Unlock()

	if trigger || g == nil || g.unprotected {
		d.advanceAndReclaim()
	}
}

// Flush forces an epoch advance and reclamation pass regardless of the
// batching threshold. Intended for tests and for exclusive-access draining.
func (d *Domain) Flush() {
	d.advanceAndReclaim()
}

func (d *Domain) advanceAndReclaim() {
	d.epoch.AddAcqRel(1)
	min := d.minActiveEpoch()

	d.mu.Lock()
	var due []func()
	for e, fns := range d.retired {
		if e < min {
			due = append(due, fns...)
			delete(d.retired, e)
		}
	}
	d.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

func (d *Domain) minActiveEpoch() uint64 {
	min := d.epoch.LoadAcquire()
	d.guards.Range(func(_, v any) bool {
		st := v.(*guardState)
		if st.active.LoadAcquire() {
			if e := st.epoch; e < min {
				min = e
			}
		}
		return true
	})
	return min
}

// LoadProtected loads a shared pointer on behalf of the holder of g. It is a
// plain atomic load — Go's garbage collector, not the epoch, is what keeps
// the pointee alive — but spelling it this way documents, at every call
// site in an algorithm built on this package, that the load is only safe
// because g is pinning the domain's epoch against concurrent retirement of
// whatever the pointer is about to be swung away from.
func LoadProtected[T any](ptr *atomic.Pointer[T], g *Guard) *T {
	_ = g
	return ptr.Load()
}

// Pending reports how many deleters are currently retired but not yet
// reclaimed. Debugging/testing aid only.
func (d *Domain) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, fns := range d.retired {
		n += len(fns)
	}
	return n
}

// pad is cache-line padding to keep the epoch counter and the guard-id
// counter from false-sharing, matching the padding idiom used throughout
// code.hybscloud.com/lfq.
type pad [64]byte
