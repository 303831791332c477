// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates Enqueue found the queue full or Dequeue found it
// empty. It is a control-flow signal, not a failure — retry with backoff
// rather than propagating it.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed indicates the queue has been closed: Enqueue always returns it,
// and Dequeue returns it once the backlog enqueued before Close has been
// fully drained. Unlike ErrWouldBlock it is terminal — a caller should stop
// retrying, not back off and try again.
//
// No dependency in this module's surface models a closeable-channel style
// terminal error (iox's errors are all retry signals), so this is a plain
// stdlib errors.New value rather than an import of convenience.
var ErrClosed = errors.New("segqueue/ring: queue closed")

// IsClosed reports whether err is ErrClosed, including wrapped instances.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsWouldBlock reports whether err is ErrWouldBlock, including wrapped
// instances. Delegates to [iox.IsWouldBlock].
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control-flow signal rather than a
// failure. Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
