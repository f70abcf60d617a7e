//go:build darwin

package bind

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ToInterface translates iface to an interface index and applies
// IP_BOUND_IF (v4) or IPV6_BOUND_IF (v6) at the matching protocol level,
// mirroring original_source/src/util.rs's bind_iface_v4/bind_iface_v6.
func ToInterface(fd int, iface string, fam Family) error {
	idx, err := unix.IfNameToIndex(iface)
	if err != nil {
		return fmt.Errorf("Invalid iface: %w", err)
	}
	if idx == 0 {
		return fmt.Errorf("Invalid iface %q", iface)
	}

	switch fam {
	case FamilyV4:
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_BOUND_IF, int(idx)); err != nil {
			return fmt.Errorf("setsockopt failed: %w", err)
		}
	case FamilyV6:
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_BOUND_IF, int(idx)); err != nil {
			return fmt.Errorf("setsockopt failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown address family")
	}
	return nil
}
