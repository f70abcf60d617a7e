//go:build linux

package bind

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ToInterface applies SO_BINDTODEVICE with the interface name, for both
// IPv4 and IPv6 sockets — Linux uses the same option for either family,
// unlike Darwin's per-family IP_BOUND_IF/IPV6_BOUND_IF split.
func ToInterface(fd int, iface string, _ Family) error {
	if err := unix.SetsockoptString(fd, unix.SOL_SOCKET, unix.SO_BINDTODEVICE, iface); err != nil {
		return fmt.Errorf("setsockopt failed: %w", err)
	}
	return nil
}
