// Package bind applies "bind socket to named interface" to a freshly
// created, unconnected stream socket, before connect(2) is called. This
// is the product's core value proposition: once bound, all outbound
// traffic on the socket egresses through the named interface.
//
// The Linux implementation generalizes Ealireza-SuperProxy's
// sockopt_linux.go (which sets performance options via net.Dialer.Control)
// to apply SO_BINDTODEVICE instead. The Darwin implementation is grounded in
// original_source/src/util.rs's bind_iface_v4/bind_iface_v6, which use
// IP_BOUND_IF/IPV6_BOUND_IF keyed by interface index rather than name.
package bind

import "fmt"

// ErrUnsupportedPlatform is returned by ToInterface on platforms with no
// known bind-to-device mechanism. The dialer must fail loudly here: a
// silent no-op would defeat the whole purpose of the proxy.
var ErrUnsupportedPlatform = fmt.Errorf("bind-to-interface is not implemented on this platform")

// Family selects which address-family-specific socket option is applied.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)
