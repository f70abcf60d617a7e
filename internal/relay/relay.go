// Package relay implements the bidirectional byte relay (C4) between an
// accepted client stream and a dialed upstream stream.
//
// This generalizes Ealireza-SuperProxy/proxy.go's relay/copyAndClose pair
// (pooled 32 KiB buffers, half-close preservation via CloseWrite/CloseRead)
// to also: report byte counts per direction, classify errors as transient
// per spec.md §7, and enforce a whole-session timeout.
package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// bufPool is a lock-free pool of 32 KiB buffers, matching the teacher's
// sizing. On Linux, when both ends are *net.TCPConn, io.CopyBuffer's
// underlying io.Copy uses splice(2) and this pool is only the fallback
// path taken when splice isn't available.
var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 32*1024)
		return &buf
	},
}

// Result reports the byte counts accumulated by a completed relay.
type Result struct {
	ClientToUpstream int64
	UpstreamToClient int64
}

// IsTransient reports whether err belongs to the "transient I/O" error
// category from spec.md §7 (broken pipe, connection reset/aborted,
// timeout, unexpected EOF): these complete the relay direction normally
// rather than being treated as a protocol failure.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return false
}

// Relay copies bytes bidirectionally between a and b until each direction
// observes EOF or error, then returns the accumulated byte counts. A
// transient error in one direction stops only that direction; the
// opposite direction is still pumped to completion (half-close
// preservation). Once both directions finish, the call returns the first
// non-transient error seen, or nil if every direction ended transiently.
func Relay(ctx context.Context, a, b net.Conn) (Result, error) {
	type done struct {
		n   int64
		err error
	}
	c2s := make(chan done, 1)
	s2c := make(chan done, 1)

	go func() {
		n, err := copyAndClose(b, a)
		c2s <- done{n, err}
	}()
	go func() {
		n, err := copyAndClose(a, b)
		s2c <- done{n, err}
	}()

	var result Result
	var firstErr error
	remaining := 2
	for remaining > 0 {
		select {
		case d := <-c2s:
			result.ClientToUpstream = d.n
			if d.err != nil && !IsTransient(d.err) && firstErr == nil {
				firstErr = d.err
			}
			remaining--
		case d := <-s2c:
			result.UpstreamToClient = d.n
			if d.err != nil && !IsTransient(d.err) && firstErr == nil {
				firstErr = d.err
			}
			remaining--
		case <-ctx.Done():
			a.Close()
			b.Close()
			// Drain the remaining completions so the goroutines above
			// don't leak, then report the timeout.
			for remaining > 0 {
				select {
				case d := <-c2s:
					result.ClientToUpstream = d.n
					remaining--
				case d := <-s2c:
					result.UpstreamToClient = d.n
					remaining--
				}
			}
			return result, context.DeadlineExceeded
		}
	}

	return result, firstErr
}

// WithSessionTimeout wraps Relay with a whole-session deadline. If the
// deadline elapses before both directions finish, both sockets are
// dropped (forcing FIN/RST) and a timeout error is returned, per
// spec.md §4.4.
func WithSessionTimeout(parent context.Context, timeout time.Duration, a, b net.Conn) (Result, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return Relay(ctx, a, b)
}

// copyAndClose copies from src to dst using a pooled buffer, then signals
// write-done via CloseWrite/CloseRead so the opposite direction can still
// be pumped to completion (half-close preservation).
func copyAndClose(dst, src net.Conn) (int64, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)

	n, err := io.CopyBuffer(dst, src, *bufp)

	if tc, ok := dst.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
	if tc, ok := src.(*net.TCPConn); ok {
		tc.CloseRead()
	}

	return n, err
}
