// Package listener implements the accept loop with admission semaphore
// and accept-error backoff (C7), generalizing
// Ealireza-SuperProxy/proxy.go's StartProxy.
//
// Admission control uses golang.org/x/sync/semaphore.Weighted as the
// AdmissionToken permit system (present in the retrieval pack's
// nabbar-golib and malbeclabs-doublezero go.mod files), acquired with
// TryAcquire so excess accepts are dropped rather than queued, per
// spec.md §5. Accept-error backoff uses github.com/cenkalti/backoff/v4
// (present in malbeclabs-doublezero's go.mod) as a bounded exponential
// backoff rather than a hand-rolled sleep-doubling loop.
package listener

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"github.com/ealireza/ifaceproxy/internal/logging"
)

// Handler processes a single accepted connection. It owns conn for its
// entire lifetime and must close it before returning.
type Handler func(ctx context.Context, conn net.Conn)

// Listener runs one accept loop admission-gated by a capacity semaphore.
type Listener struct {
	Proto   string // e.g. "HTTP" or "SOCKS5", used only for log lines
	Iface   string
	Logger  *logging.Logger
	Handler Handler

	sem *semaphore.Weighted
}

// New returns a Listener with an admission semaphore of the given
// capacity.
func New(proto, iface string, capacity int64, lg *logging.Logger, handler Handler) *Listener {
	return &Listener{
		Proto:   proto,
		Iface:   iface,
		Logger:  lg,
		Handler: handler,
		sem:     semaphore.NewWeighted(capacity),
	}
}

// newAcceptBackoff returns the bounded exponential backoff used between
// retried Accept calls: initial 50ms, doubling factor 2, capped at
// 1000ms, with no overall elapsed-time limit (the listener loop runs for
// the lifetime of the process).
func newAcceptBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 1000 * time.Millisecond
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Run binds and listens on addr, then loops accepting connections until
// ctx is canceled or the listener is closed.
func (l *Listener) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	l.Logger.Info("%s proxy listening on %s, bound to %s", l.Proto, addr, l.Iface)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	acceptBackoff := newAcceptBackoff()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.Logger.Error("accept error: %v", err)
			d := acceptBackoff.NextBackOff()
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		acceptBackoff.Reset()

		l.Logger.Throttled("Incoming TCP connection from %s -> listening on %s (iface: %s)", conn.RemoteAddr(), addr, l.Iface)

		if !l.sem.TryAcquire(1) {
			l.Logger.Throttled("too many concurrent connections; dropping new connection")
			conn.Close()
			continue
		}

		go func() {
			defer l.sem.Release(1)
			l.Handler(ctx, conn)
		}()
	}
}
