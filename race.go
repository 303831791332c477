// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package segqueue

// RaceEnabled is true when the race detector is active.
//
// The algorithm's correctness rests on acquire/release orderings across
// independent atomic variables (enqIndex, deqIndex, slot pointers, segment
// links), a happens-before shape the race detector's shadow memory does not
// model. No test in this module consults RaceEnabled; the heavy concurrent
// stress tests are skipped only in -short mode.
const RaceEnabled = true
