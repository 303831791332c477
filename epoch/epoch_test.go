// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package epoch_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/segqueue/epoch"
)

func TestEnterReleaseBasic(t *testing.T) {
	d := epoch.NewDomain()
	g := d.Enter()
	if g == nil {
		t.Fatal("Enter returned nil Guard")
	}
	g.Release()
}

func TestUnprotectedIsNoopGuard(t *testing.T) {
	d := epoch.NewDomain()
	g := d.Unprotected()
	g.Release() // must not panic
}

func TestRetireRunsOnceNoGuardObserves(t *testing.T) {
	d := epoch.NewDomain()

	g := d.Enter()
	ran := false
	d.Retire(g, func() { ran = true })
	g.Release()

	// Force reclamation now that the only guard that could have observed
	// the retirement has released.
	d.Flush()
	d.Flush()

	if !ran {
		t.Fatal("deleter never ran after all guards released and domain flushed")
	}
}

func TestRetireDeferredWhileGuardActive(t *testing.T) {
	d := epoch.NewDomain()

	holder := d.Enter()
	defer holder.Release()

	g := d.Enter()
	ran := false
	d.Retire(g, func() { ran = true })
	g.Release()

	d.Flush()
	if ran {
		t.Fatal("deleter ran while an earlier guard could still observe the retired epoch")
	}
}

func TestUnprotectedRetireReclaimsImmediately(t *testing.T) {
	d := epoch.NewDomain()
	ran := false
	g := d.Unprotected()
	d.Retire(g, func() { ran = true })
	if !ran {
		t.Fatal("Unprotected retire should reclaim without waiting for a batch")
	}
}

func TestConcurrentEnterRetireRelease(t *testing.T) {
	d := epoch.NewDomain()
	var wg sync.WaitGroup
	var ran int64
	var mu sync.Mutex

	const goroutines = 8
	const perGoroutine = 500

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				g := d.Enter()
				d.Retire(g, func() {
					mu.Lock()
					ran++
					mu.Unlock()
				})
				g.Release()
			}
		}()
	}
	wg.Wait()
	d.Flush()
	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	if ran != goroutines*perGoroutine {
		t.Fatalf("ran = %d, want %d (some deleters lost)", ran, goroutines*perGoroutine)
	}
}

func TestPendingDrainsToZero(t *testing.T) {
	d := epoch.NewDomain()
	for i := 0; i < 10; i++ {
		g := d.Enter()
		d.Retire(g, func() {})
		g.Release()
	}
	d.Flush()
	d.Flush()
	if p := d.Pending(); p != 0 {
		t.Fatalf("Pending() = %d, want 0 after flush", p)
	}
}
