// Package dialer implements the interface-bound outbound dialer (C2):
// resolve a (host, port) pair to an ordered, possibly mixed-family list of
// addresses, then for each candidate create a socket of the matching
// family, bind it to the configured interface, and connect — returning
// the first success.
//
// This generalizes Ealireza-SuperProxy's proxy.go, which dials a single
// fixed outbound IP via net.Dialer{LocalAddr: ...}, to the resolve-many,
// bind-by-family, try-in-order scheme original_source/src/util.rs's
// connect_outbound implements.
package dialer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/ealireza/ifaceproxy/internal/bind"
)

// ErrNoAddress is returned when name resolution for a target produces
// zero candidate addresses.
var ErrNoAddress = errors.New("no address")

// Dialer resolves and connects outbound sockets pinned to a single named
// network interface.
type Dialer struct {
	Iface    string
	Resolver *net.Resolver
}

// New returns a Dialer bound to iface, using the system resolver.
func New(iface string) *Dialer {
	return &Dialer{Iface: iface, Resolver: net.DefaultResolver}
}

// Dial resolves host:port and returns the first successfully connected,
// interface-bound TCP stream. Candidates are tried in resolver order; the
// family of each candidate determines which bind routine (v4 or v6) is
// applied to its socket, so a mixed-family answer list never forces the
// wrong socket family.
func (d *Dialer) Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	ips, err := d.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, ErrNoAddress
	}

	var lastErr error
	portStr := strconv.Itoa(port)
	for _, ipAddr := range ips {
		fam := bind.FamilyV4
		network := "tcp4"
		if ipAddr.IP.To4() == nil {
			fam = bind.FamilyV6
			network = "tcp6"
		}

		nd := net.Dialer{
			Control: func(_, _ string, c syscall.RawConn) error {
				var bindErr error
				ctrlErr := c.Control(func(fd uintptr) {
					bindErr = bind.ToInterface(int(fd), d.Iface, fam)
				})
				if ctrlErr != nil {
					return ctrlErr
				}
				return bindErr
			},
		}

		target := net.JoinHostPort(ipAddr.IP.String(), portStr)
		conn, dialErr := nd.DialContext(ctx, network, target)
		if dialErr != nil {
			lastErr = dialErr
			continue
		}
		return conn, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoAddress
}
